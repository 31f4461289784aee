package tryon

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type stubCall struct {
	resp *genai.GenerateContentResponse
	err  error
}

type stubGenerator struct {
	queue []stubCall
	calls int
	parts [][]*genai.Part
}

func (s *stubGenerator) GenerateContent(ctx context.Context, parts []*genai.Part) (*genai.GenerateContentResponse, error) {
	s.calls++
	s.parts = append(s.parts, parts)
	if len(s.queue) == 0 {
		return nil, errors.New("stub queue exhausted")
	}
	next := s.queue[0]
	s.queue = s.queue[1:]
	return next.resp, next.err
}

func pngFixture(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func newTestClient(t *testing.T, gen ContentGenerator, cfg Config) (*Client, *[]time.Duration) {
	t.Helper()
	client, err := NewClient(gen, cfg, zerolog.Nop())
	require.NoError(t, err)
	var delays []time.Duration
	client.sleep = func(d time.Duration) { delays = append(delays, d) }
	return client, &delays
}

func baseSwapRequest(t *testing.T, dir string) SwapRequest {
	t.Helper()
	return SwapRequest{
		ModelImagePath:   pngFixture(t, dir, "model.png", 1200, 1600),
		FlatlayImagePath: pngFixture(t, dir, "flatlay.png", 800, 800),
		Prompt:           "swap the garment",
		OutputPath:       filepath.Join(dir, "out", "result.png"),
		OutputSize:       OutputSize{MatchInput: true},
	}
}

func TestSwapGarmentEndToEnd(t *testing.T) {
	dir := t.TempDir()
	gen := &stubGenerator{queue: []stubCall{{resp: imageResponse(pngBytes(t, 2048, 2048))}}}
	client, _ := newTestClient(t, gen, Config{})

	outcome := client.SwapGarment(context.Background(), baseSwapRequest(t, dir))

	require.True(t, outcome.Success(), "outcome: %+v", outcome)
	require.Equal(t, 1, gen.calls)

	// Output matches the model image's own long side (1600), not the 2048
	// the model generated at.
	assert.Equal(t, 1600, outcome.Width)
	assert.Equal(t, 1600, outcome.Height)

	data, err := os.ReadFile(outcome.OutputPath)
	require.NoError(t, err)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 1600, cfg.Width)

	// Prompt first, then model, then flat-lay; no guidance part.
	parts := gen.parts[0]
	require.Len(t, parts, 3)
	assert.Equal(t, "swap the garment", parts[0].Text)
	assert.NotNil(t, parts[1].InlineData)
	assert.NotNil(t, parts[2].InlineData)
}

func TestSwapGarmentRetriesThenSucceeds(t *testing.T) {
	dir := t.TempDir()
	transient := genai.APIError{Code: 500, Message: "internal"}
	gen := &stubGenerator{queue: []stubCall{
		{err: transient},
		{err: transient},
		{resp: imageResponse(pngBytes(t, 1024, 768))},
	}}
	cfg := Config{MaxAttempts: 3, RetryBaseDelay: 100 * time.Millisecond}
	client, delays := newTestClient(t, gen, cfg)

	outcome := client.SwapGarment(context.Background(), baseSwapRequest(t, dir))

	require.True(t, outcome.Success(), "outcome: %+v", outcome)
	assert.Equal(t, 3, gen.calls)
	// Backoff is linear in the attempt index: base*1 then base*2.
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, *delays)
}

func TestSwapGarmentExhaustsAttempts(t *testing.T) {
	dir := t.TempDir()
	transient := genai.APIError{Code: 503, Message: "overloaded"}
	gen := &stubGenerator{queue: []stubCall{{err: transient}, {err: transient}, {err: transient}, {err: transient}}}
	client, delays := newTestClient(t, gen, Config{MaxAttempts: 3, RetryBaseDelay: time.Millisecond})

	outcome := client.SwapGarment(context.Background(), baseSwapRequest(t, dir))

	assert.Equal(t, KindTransientAPI, outcome.Kind)
	assert.Equal(t, 3, gen.calls, "must stop after exactly MaxAttempts")
	assert.Len(t, *delays, 2, "no sleep after the final attempt")
	assert.Error(t, outcome.Err)
}

func TestSwapGarmentFatalErrorNotRetried(t *testing.T) {
	dir := t.TempDir()
	gen := &stubGenerator{queue: []stubCall{{err: genai.APIError{Code: 400, Message: "bad payload"}}}}
	client, delays := newTestClient(t, gen, Config{MaxAttempts: 3})

	outcome := client.SwapGarment(context.Background(), baseSwapRequest(t, dir))

	assert.Equal(t, KindFatal, outcome.Kind)
	assert.Equal(t, 1, gen.calls)
	assert.Empty(t, *delays)
}

func TestSwapGarmentPolicyBlockNotRetried(t *testing.T) {
	dir := t.TempDir()
	gen := &stubGenerator{queue: []stubCall{
		{resp: nullContentResponse(genai.FinishReasonProhibitedContent)},
	}}
	client, _ := newTestClient(t, gen, Config{MaxAttempts: 3})

	outcome := client.SwapGarment(context.Background(), baseSwapRequest(t, dir))

	assert.Equal(t, KindContentPolicyBlocked, outcome.Kind)
	assert.Equal(t, 1, gen.calls, "interpretation failures are never auto-retried")
}

func TestSwapGarmentMissingInput(t *testing.T) {
	dir := t.TempDir()
	gen := &stubGenerator{}
	client, _ := newTestClient(t, gen, Config{})

	req := baseSwapRequest(t, dir)
	req.FlatlayImagePath = filepath.Join(dir, "missing.png")
	outcome := client.SwapGarment(context.Background(), req)

	assert.Equal(t, KindAssetNotFound, outcome.Kind)
	assert.Zero(t, gen.calls, "missing input must fail before any API call")
}

func TestSwapGarmentUndecodableInput(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.png")
	require.NoError(t, os.WriteFile(garbage, []byte("not an image"), 0o644))
	gen := &stubGenerator{}
	client, _ := newTestClient(t, gen, Config{})

	req := baseSwapRequest(t, dir)
	req.ModelImagePath = garbage
	outcome := client.SwapGarment(context.Background(), req)

	assert.Equal(t, KindDecodeError, outcome.Kind)
	assert.Zero(t, gen.calls)
}

func TestSwapGarmentGuidanceLowersCeiling(t *testing.T) {
	dir := t.TempDir()
	gen := &stubGenerator{queue: []stubCall{{resp: imageResponse(pngBytes(t, 512, 512))}}}
	client, _ := newTestClient(t, gen, Config{})

	// 1800px sits between the guided (1536) and pair (2048) ceilings.
	req := SwapRequest{
		ModelImagePath:    pngFixture(t, dir, "model.png", 1800, 900),
		FlatlayImagePath:  pngFixture(t, dir, "flatlay.png", 800, 800),
		GuidanceImagePath: pngFixture(t, dir, "guide.png", 400, 400),
		Prompt:            "swap",
		OutputPath:        filepath.Join(dir, "result.png"),
	}
	outcome := client.SwapGarment(context.Background(), req)
	require.True(t, outcome.Success(), "outcome: %+v", outcome)

	parts := gen.parts[0]
	require.Len(t, parts, 4, "guidance image must ride along")
	cfg, _, err := image.DecodeConfig(bytes.NewReader(parts[1].InlineData.Data))
	require.NoError(t, err)
	assert.Equal(t, 1536, cfg.Width, "guided ceiling must apply to the model image")
}

func TestSwapGarmentExplicitOutputSize(t *testing.T) {
	dir := t.TempDir()
	gen := &stubGenerator{queue: []stubCall{{resp: imageResponse(pngBytes(t, 2000, 1000))}}}
	client, _ := newTestClient(t, gen, Config{})

	req := baseSwapRequest(t, dir)
	req.OutputSize = OutputSize{Pixels: 800}
	outcome := client.SwapGarment(context.Background(), req)

	require.True(t, outcome.Success(), "outcome: %+v", outcome)
	assert.Equal(t, 800, outcome.Width)
	assert.Equal(t, 400, outcome.Height)
}

func TestSwapGarmentNoUpscalePastGenerated(t *testing.T) {
	dir := t.TempDir()
	gen := &stubGenerator{queue: []stubCall{{resp: imageResponse(pngBytes(t, 640, 480))}}}
	client, _ := newTestClient(t, gen, Config{})

	req := baseSwapRequest(t, dir)
	req.OutputSize = OutputSize{Pixels: 4096}
	outcome := client.SwapGarment(context.Background(), req)

	require.True(t, outcome.Success(), "outcome: %+v", outcome)
	assert.Equal(t, 640, outcome.Width)
	assert.Equal(t, 480, outcome.Height)
}

func TestStyleVariant(t *testing.T) {
	dir := t.TempDir()
	gen := &stubGenerator{queue: []stubCall{{resp: imageResponse(pngBytes(t, 900, 1200))}}}
	client, _ := newTestClient(t, gen, Config{})

	outcome := client.StyleVariant(context.Background(), VariantRequest{
		ReferenceImagePath: pngFixture(t, dir, "ref.png", 1000, 1400),
		Prompt:             "different face",
		OutputPath:         filepath.Join(dir, "variant.png"),
	})

	require.True(t, outcome.Success(), "outcome: %+v", outcome)
	require.Equal(t, 1, gen.calls)
	parts := gen.parts[0]
	require.Len(t, parts, 2)
	assert.Equal(t, "different face", parts[0].Text)
}

func TestStyleVariantSingleAttempt(t *testing.T) {
	dir := t.TempDir()
	gen := &stubGenerator{queue: []stubCall{{err: genai.APIError{Code: 500}}}}
	client, delays := newTestClient(t, gen, Config{MaxAttempts: 3})

	outcome := client.StyleVariant(context.Background(), VariantRequest{
		ReferenceImagePath: pngFixture(t, dir, "ref.png", 600, 600),
		Prompt:             "different face",
		OutputPath:         filepath.Join(dir, "variant.png"),
	})

	assert.Equal(t, KindTransientAPI, outcome.Kind)
	assert.Equal(t, 1, gen.calls, "secondary flow does not retry")
	assert.Empty(t, *delays)
}
