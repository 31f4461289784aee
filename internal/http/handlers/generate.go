package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"tryon/internal/middleware"
	"tryon/internal/prompt"
	"tryon/internal/store"
	"tryon/internal/tryon"
)

type generateResponse struct {
	OutputKey string `json:"output_key"`
	OutputURL string `json:"output_url"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	SessionID string `json:"session_id"`
}

// Generate handles POST /api/generations: a garment swap from a model photo
// and a flat-lay photo, with optional guidance image, refinements and an
// output-size preference.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	session := a.session(w, r)
	locale := middleware.LocaleFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		a.error(w, http.StatusBadRequest, "invalid_request", "multipart form required")
		return
	}

	modelKey, modelPath, ok := a.takeUpload(w, r, session, "model_image", true)
	if !ok {
		return
	}
	flatlayKey, flatlayPath, ok := a.takeUpload(w, r, session, "flatlay_image", true)
	if !ok {
		return
	}
	guidanceKey, guidancePath, ok := a.takeUpload(w, r, session, "additional_image", false)
	if !ok {
		return
	}

	size, sizeLabel, err := parseOutputSize(r.FormValue("output_size"))
	if err != nil {
		a.error(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	refinements := prompt.CleanRefinements(r.FormValue("refinements"))
	spec := prompt.SwapSpec{
		PreserveFace:       formBool(r, "preserve_face", true),
		PreserveLighting:   formBool(r, "preserve_lighting", true),
		PreserveBackground: formBool(r, "preserve_background", true),
		Refinements:        refinements,
		HasGuidanceImage:   guidanceKey != "",
		MaxRefinementLen:   a.Cfg.RefinementMaxLen,
	}
	promptText := prompt.BuildSwapPrompt(spec)

	outputKey := outputKeyFor(session, a.Cfg.OutputFormat)
	outputPath, err := a.Files.AbsPath(outputKey)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal_error", "cannot resolve output path")
		return
	}

	started := time.Now()
	outcome := a.Generator.SwapGarment(r.Context(), tryon.SwapRequest{
		ModelImagePath:    modelPath,
		FlatlayImagePath:  flatlayPath,
		GuidanceImagePath: guidancePath,
		Prompt:            promptText,
		OutputPath:        outputPath,
		OutputSize:        size,
	})
	elapsed := time.Since(started)

	a.recordGeneration(r, &store.GenerationRecord{
		SessionID:         session,
		Kind:              store.KindGarmentSwap,
		ModelImageKey:     modelKey,
		FlatlayImageKey:   flatlayKey,
		GuidanceImageKey:  guidanceKey,
		OutputImageKey:    outputKey,
		Refinements:       refinements,
		OutputSize:        sizeLabel,
		PromptUsed:        promptText,
		Success:           outcome.Success(),
		FailureCategory:   string(outcome.Category()),
		ErrorMessage:      outcome.Detail,
		ProcessingSeconds: elapsed.Seconds(),
	})

	if !outcome.Success() {
		a.outcomeError(w, locale, outcome)
		return
	}
	a.json(w, http.StatusOK, generateResponse{
		OutputKey: outputKey,
		OutputURL: "/files/" + outputKey,
		Width:     outcome.Width,
		Height:    outcome.Height,
		SessionID: session,
	})
}

func (a *App) recordGeneration(r *http.Request, rec *store.GenerationRecord) {
	if a.History == nil {
		return
	}
	if rec.Success {
		rec.FailureCategory = ""
		rec.ErrorMessage = ""
	}
	if err := a.History.RecordGeneration(r.Context(), rec); err != nil {
		a.Logger.Error().Err(err).Str("session", rec.SessionID).Msg("record generation")
	}
}

// takeUpload stores one multipart file under the session's upload prefix and
// returns its storage key and absolute path. A missing optional field yields
// empty strings. On failure it writes the error response and returns ok=false.
func (a *App) takeUpload(w http.ResponseWriter, r *http.Request, session, field string, required bool) (key, path string, ok bool) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if !required {
			return "", "", true
		}
		a.error(w, http.StatusBadRequest, "invalid_request", field+" is required")
		return "", "", false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		a.error(w, http.StatusBadRequest, "invalid_request", "cannot read "+field)
		return "", "", false
	}
	key = fmt.Sprintf("uploads/%s/%s%s", session, uuid.NewString(), uploadExt(header))
	if _, err := a.Files.Write(r.Context(), key, data); err != nil {
		a.Logger.Error().Err(err).Str("field", field).Msg("store upload")
		a.error(w, http.StatusInternalServerError, "internal_error", "cannot store "+field)
		return "", "", false
	}
	path, err = a.Files.AbsPath(key)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal_error", "cannot resolve "+field)
		return "", "", false
	}
	return key, path, true
}

var allowedExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true,
	".webp": true, ".gif": true, ".bmp": true,
}

func uploadExt(header *multipart.FileHeader) string {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if allowedExts[ext] {
		return ext
	}
	return ".bin"
}

func outputKeyFor(session, format string) string {
	ext := "png"
	if format == "jpeg" {
		ext = "jpg"
	}
	return fmt.Sprintf("outputs/%s/%s.%s", session, uuid.NewString(), ext)
}

// parseOutputSize maps the form value to a size preference. Empty or "match"
// follows the model image; a positive integer caps the longest output side.
func parseOutputSize(raw string) (tryon.OutputSize, string, error) {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" || raw == "match" {
		return tryon.OutputSize{MatchInput: true}, "match", nil
	}
	px, err := strconv.Atoi(raw)
	if err != nil || px <= 0 {
		return tryon.OutputSize{}, "", fmt.Errorf("output_size must be \"match\" or a positive integer")
	}
	return tryon.OutputSize{Pixels: px}, raw, nil
}

func formBool(r *http.Request, field string, def bool) bool {
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}
