package handlers

import (
	"net/http"
	"time"

	"tryon/internal/middleware"
	"tryon/internal/prompt"
	"tryon/internal/store"
	"tryon/internal/tryon"
)

// Variant handles POST /api/variants: a style variant of a single reference
// image, with optional custom instructions.
func (a *App) Variant(w http.ResponseWriter, r *http.Request) {
	session := a.session(w, r)
	locale := middleware.LocaleFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		a.error(w, http.StatusBadRequest, "invalid_request", "multipart form required")
		return
	}

	refKey, refPath, ok := a.takeUpload(w, r, session, "reference_image", true)
	if !ok {
		return
	}
	instructions := prompt.CleanRefinements(r.FormValue("instructions"))
	promptText := prompt.BuildStyleVariantPrompt(instructions)

	outputKey := outputKeyFor(session, a.Cfg.OutputFormat)
	outputPath, err := a.Files.AbsPath(outputKey)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal_error", "cannot resolve output path")
		return
	}

	started := time.Now()
	outcome := a.Generator.StyleVariant(r.Context(), tryon.VariantRequest{
		ReferenceImagePath: refPath,
		Prompt:             promptText,
		OutputPath:         outputPath,
	})
	elapsed := time.Since(started)

	a.recordGeneration(r, &store.GenerationRecord{
		SessionID:         session,
		Kind:              store.KindStyleVariant,
		ModelImageKey:     refKey,
		OutputImageKey:    outputKey,
		Refinements:       instructions,
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
