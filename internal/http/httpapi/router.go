package httpapi

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"tryon/internal/http/handlers"
	"tryon/internal/middleware"
)

// NewRouter wires the API surface. Generated outputs and stored uploads are
// served read-only under /files/.
func NewRouter(app *handlers.App, lookup middleware.CountryLookup) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.Locale(app.Cfg.DefaultLocale, lookup),
	)

	r.Get("/healthz", app.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/generations", app.Generate)
		r.Post("/variants", app.Variant)
		r.Get("/history", app.HistoryList)

		r.Route("/gallery", func(r chi.Router) {
			r.Post("/", app.GallerySave)
			r.Get("/", app.GalleryList)
			r.Get("/{id}", app.GalleryImage)
			r.Delete("/{id}", app.GalleryDelete)
		})
	})

	files := stdhttp.StripPrefix("/files/", stdhttp.FileServer(stdhttp.Dir(app.Files.BasePath())))
	r.Get("/files/*", files.ServeHTTP)

	return r
}
