package tryon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"tryon/internal/gemini"
	"tryon/internal/imaging"
)

// ContentGenerator is the single outbound operation the client needs from the
// remote service: generate content from a prompt plus an ordered image list.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, parts []*genai.Part) (*genai.GenerateContentResponse, error)
}

// Config carries every generation knob; there is no ambient configuration.
type Config struct {
	MaxAttempts    int
	RetryBaseDelay time.Duration
	AttemptTimeout time.Duration

	// MaxInputDimension caps inputs for two-image requests;
	// MaxInputDimensionGuided applies when a guidance image makes it three.
	MaxInputDimension       int
	MaxInputDimensionGuided int

	OutputFormat  string
	OutputQuality int
}

func (c *Config) applyDefaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = time.Second
	}
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = 2 * time.Minute
	}
	if c.MaxInputDimension <= 0 {
		c.MaxInputDimension = 2048
	}
	if c.MaxInputDimensionGuided <= 0 {
		c.MaxInputDimensionGuided = 1536
	}
	if c.OutputFormat == "" {
		c.OutputFormat = "png"
	}
	if c.OutputQuality <= 0 {
		c.OutputQuality = 95
	}
}

// OutputSize is the caller's output-dimension preference.
type OutputSize struct {
	// MatchInput derives the ceiling from the model image's own longest side.
	MatchInput bool
	// Pixels is an explicit longest-side ceiling when MatchInput is false.
	// Zero means no ceiling.
	Pixels int
}

// SwapRequest describes one garment-swap generation.
type SwapRequest struct {
	ModelImagePath    string
	FlatlayImagePath  string
	GuidanceImagePath string // optional third image
	Prompt            string
	OutputPath        string
	OutputSize        OutputSize
}

// VariantRequest describes one style-variant generation from a single
// reference image.
type VariantRequest struct {
	ReferenceImagePath string
	Prompt             string
	OutputPath         string
}

// Client runs the generation pipeline. It is not safe for concurrent use
// against the same output path; callers wanting parallelism run independent
// invocations with distinct paths.
type Client struct {
	gen    ContentGenerator
	cfg    Config
	logger zerolog.Logger
	sleep  func(time.Duration)
}

// NewClient wires a generation client over the given transport.
func NewClient(gen ContentGenerator, cfg Config, logger zerolog.Logger) (*Client, error) {
	if gen == nil {
		return nil, errors.New("tryon: content generator is required")
	}
	cfg.applyDefaults()
	return &Client{gen: gen, cfg: cfg, logger: logger, sleep: time.Sleep}, nil
}

// SwapGarment performs one garment swap: validate, prepare, call with retries,
// interpret, post-process, save. The returned Outcome is the full contract;
// the error cause, when any, rides inside it.
func (c *Client) SwapGarment(ctx context.Context, req SwapRequest) Outcome {
	modelData, outcome := c.readInput(req.ModelImagePath, "model image")
	if !outcome.Success() {
		return outcome
	}
	flatlayData, outcome := c.readInput(req.FlatlayImagePath, "flat-lay image")
	if !outcome.Success() {
		return outcome
	}
	var guidanceData []byte
	if req.GuidanceImagePath != "" {
		guidanceData, outcome = c.readInput(req.GuidanceImagePath, "guidance image")
		if !outcome.Success() {
			return outcome
		}
	}

	// A third image lowers the per-image ceiling to keep the combined
	// payload within what the API reliably handles.
	ceiling := c.cfg.MaxInputDimension
	if guidanceData != nil {
		ceiling = c.cfg.MaxInputDimensionGuided
	}

	modelPrep, err := imaging.Prepare(modelData, ceiling)
	if err != nil {
		return c.prepareFailure("model image", err)
	}
	flatlayPrep, err := imaging.Prepare(flatlayData, ceiling)
	if err != nil {
		return c.prepareFailure("flat-lay image", err)
	}
	var guidancePrep *imaging.Prepared
	if guidanceData != nil {
		guidancePrep, err = imaging.Prepare(guidanceData, ceiling)
		if err != nil {
			return c.prepareFailure("guidance image", err)
		}
	}

	maxOutput, err := c.resolveOutputSize(req.OutputSize, modelData)
	if err != nil {
		return failureOutcome(KindDecodeError, "model image dimensions unreadable", err)
	}

	// Order matters to the model: prompt, model photo, flat-lay, guidance.
	parts := []*genai.Part{
		genai.NewPartFromText(req.Prompt),
		gemini.ImagePart(modelPrep.PNG, modelPrep.MIMEType()),
		gemini.ImagePart(flatlayPrep.PNG, flatlayPrep.MIMEType()),
	}
	if guidancePrep != nil {
		parts = append(parts, gemini.ImagePart(guidancePrep.PNG, guidancePrep.MIMEType()))
	}

	c.logger.Info().
		Int("images", len(parts)-1).
		Int("prompt_chars", len(req.Prompt)).
		Int("input_ceiling", ceiling).
		Msg("starting garment swap")

	resp, outcome := c.callWithRetries(ctx, parts)
	if !outcome.Success() {
		return outcome
	}

	return c.saveInterpreted(resp, req.OutputPath, maxOutput)
}

// StyleVariant generates a restyled model photo from one reference image. A
// single attempt suffices for this secondary flow; interpretation and
// post-processing are shared with the swap path.
func (c *Client) StyleVariant(ctx context.Context, req VariantRequest) Outcome {
	refData, outcome := c.readInput(req.ReferenceImagePath, "reference image")
	if !outcome.Success() {
		return outcome
	}
	refPrep, err := imaging.Prepare(refData, c.cfg.MaxInputDimension)
	if err != nil {
		return c.prepareFailure("reference image", err)
	}

	parts := []*genai.Part{
		genai.NewPartFromText(req.Prompt),
		gemini.ImagePart(refPrep.PNG, refPrep.MIMEType()),
	}

	c.logger.Info().Int("prompt_chars", len(req.Prompt)).Msg("starting style variant")

	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.AttemptTimeout)
	resp, err := c.gen.GenerateContent(attemptCtx, parts)
	cancel()
	if err != nil {
		if gemini.IsTransient(err) {
			return failureOutcome(KindTransientAPI, "style variant call failed", err)
		}
		return failureOutcome(KindFatal, "style variant call failed", err)
	}

	return c.saveInterpreted(resp, req.OutputPath, 0)
}

// callWithRetries runs the bounded sequential attempt loop. Only errors
// classified transient are retried; interpretation of a delivered response
// never is.
func (c *Client) callWithRetries(ctx context.Context, parts []*genai.Part) (*genai.GenerateContentResponse, Outcome) {
	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.AttemptTimeout)
		resp, err := c.gen.GenerateContent(attemptCtx, parts)
		cancel()

		if err == nil {
			return resp, Outcome{Kind: KindNone}
		}

		if !gemini.IsTransient(err) {
			c.logger.Error().Err(err).Int("attempt", attempt).Msg("generation call failed permanently")
			return nil, failureOutcome(KindFatal, "generation call failed", err)
		}

		lastErr = err
		c.logger.Warn().Err(err).
			Int("attempt", attempt).
			Int("max_attempts", c.cfg.MaxAttempts).
			Msg("transient API error")

		if attempt < c.cfg.MaxAttempts {
			// Linear-in-attempt backoff on the calling goroutine.
			c.sleep(c.cfg.RetryBaseDelay * time.Duration(attempt))
		}
	}

	return nil, failureOutcome(KindTransientAPI,
		fmt.Sprintf("exhausted %d attempts", c.cfg.MaxAttempts), lastErr)
}

// saveInterpreted decomposes the response, encodes the image, and writes it to
// the caller-supplied path.
func (c *Client) saveInterpreted(resp *genai.GenerateContentResponse, outputPath string, maxOutput int) Outcome {
	parsed := interpretResponse(resp)
	if parsed.kind != KindNone {
		c.logger.Error().
			Str("kind", parsed.kind.String()).
			Str("detail", parsed.detail).
			Msg("generation produced no image")
		return failureOutcome(parsed.kind, parsed.detail, nil)
	}

	out, err := imaging.EncodeOutput(parsed.imageData, c.cfg.OutputFormat, c.cfg.OutputQuality, maxOutput)
	if err != nil {
		return failureOutcome(KindFatal, "generated image could not be encoded", err)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return failureOutcome(KindFatal, "output directory could not be created", err)
	}
	if err := os.WriteFile(outputPath, out.Data, 0o644); err != nil {
		return failureOutcome(KindFatal, "output file could not be written", err)
	}

	if ok, detail := imaging.CheckQuality(out.Data); !ok {
		c.logger.Warn().Str("path", outputPath).Str("detail", detail).Msg("output failed quality check")
	}

	c.logger.Info().
		Str("path", outputPath).
		Int("width", out.Width).
		Int("height", out.Height).
		Msg("image saved")
	return successOutcome(outputPath, out.Width, out.Height)
}

func (c *Client) readInput(path, role string) ([]byte, Outcome) {
	if path == "" {
		return nil, failureOutcome(KindAssetNotFound, role+" path is empty", nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		c.logger.Error().Err(err).Str("path", path).Msgf("%s not readable", role)
		return nil, failureOutcome(KindAssetNotFound, fmt.Sprintf("%s not found: %s", role, path), err)
	}
	return data, Outcome{Kind: KindNone}
}

func (c *Client) prepareFailure(role string, err error) Outcome {
	if errors.Is(err, imaging.ErrDecode) {
		return failureOutcome(KindDecodeError, role+" is not a decodable image", err)
	}
	return failureOutcome(KindFatal, role+" could not be prepared", err)
}

// resolveOutputSize turns the caller preference into a pixel ceiling. With
// MatchInput the ceiling is the model image's own longest side before any
// normalization, so the output lines up with what the user uploaded.
func (c *Client) resolveOutputSize(size OutputSize, modelData []byte) (int, error) {
	if !size.MatchInput {
		if size.Pixels < 0 {
			return 0, nil
		}
		return size.Pixels, nil
	}
	w, h, err := imaging.Dimensions(modelData)
	if err != nil {
		return 0, err
	}
	if w > h {
		return w, nil
	}
	return h, nil
}
