// Package handlers exposes the try-on pipeline over HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tryon/internal/infra"
	"tryon/internal/storage"
	"tryon/internal/store"
	"tryon/internal/tryon"
)

// MaxUploadBytes caps the multipart request body.
const MaxUploadBytes = 16 << 20

const sessionCookie = "tryon_session"

// Generator is the slice of the generation client the handlers need.
type Generator interface {
	SwapGarment(ctx context.Context, req tryon.SwapRequest) tryon.Outcome
	StyleVariant(ctx context.Context, req tryon.VariantRequest) tryon.Outcome
}

// App bundles the collaborators every handler needs. History is nil when no
// database is configured; the related endpoints then answer 404.
type App struct {
	Cfg       *infra.Config
	Logger    zerolog.Logger
	Generator Generator
	Files     *storage.FileStore
	History   *store.History
}

func NewApp(cfg *infra.Config, logger zerolog.Logger, gen Generator, files *storage.FileStore, history *store.History) *App {
	return &App{Cfg: cfg, Logger: logger, Generator: gen, Files: files, History: history}
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (a *App) error(w http.ResponseWriter, code int, tag, message string) {
	a.json(w, code, errorBody{Error: tag, Message: message})
}

// outcomeError renders a failure outcome with its stable category and the
// locale-appropriate template. Raw error text stays in the logs.
func (a *App) outcomeError(w http.ResponseWriter, locale string, outcome tryon.Outcome) {
	category, message := tryon.UserMessage(outcome.Kind, locale)
	a.json(w, outcomeStatus(outcome.Kind), errorBody{Error: string(category), Message: message})
}

func outcomeStatus(kind tryon.FailureKind) int {
	switch kind {
	case tryon.KindAssetNotFound, tryon.KindDecodeError:
		return http.StatusBadRequest
	case tryon.KindContentPolicyBlocked, tryon.KindSafetyBlocked:
		return http.StatusUnprocessableEntity
	case tryon.KindGenerationArtifact, tryon.KindRecoverableEmpty:
		return http.StatusBadGateway
	case tryon.KindTransientAPI:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// session returns the caller's session id, minting one into a cookie when the
// request carries none.
func (a *App) session(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
