// Package httpapi wires the HTTP surface of the media gateway.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"amsgate/internal/assembler/presets"
	"amsgate/internal/httpapi/handlers"
	"amsgate/internal/httpkit"
	"amsgate/internal/media"
	"amsgate/internal/pkg/logger"
	"amsgate/internal/pkg/middleware"
)

type Deps struct {
	Svc     media.Service
	Presets *presets.Store
	Log     *logger.Logger

	PollAttempts int
	PollInterval time.Duration

	CORSAllowedOrigins []string
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(log))
	r.Use(middleware.Recovery(log))

	origins := d.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(httpkit.CORS(httpkit.CORSOptions{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAgeSeconds:    600,
	}))

	h := handlers.New(handlers.Deps{
		Svc:          d.Svc,
		Presets:      d.Presets,
		Log:          log,
		PollAttempts: d.PollAttempts,
		PollInterval: d.PollInterval,
	})

	// ---- HEALTH ----
	r.Get("/health", h.Health)

	// ---- JOBS ----
	// Both verbs are accepted on each endpoint, and a trailing name
	// segment is tolerated but unused.
	r.Post("/api/submit-job", h.SubmitJob)
	r.Get("/api/submit-job", h.SubmitJob)
	r.Post("/api/submit-job/{name}", h.SubmitJob)
	r.Get("/api/submit-job/{name}", h.SubmitJob)

	r.Post("/api/check-task-status", h.CheckTaskStatus)
	r.Get("/api/check-task-status", h.CheckTaskStatus)
	r.Post("/api/check-task-status/{name}", h.CheckTaskStatus)
	r.Get("/api/check-task-status/{name}", h.CheckTaskStatus)

	return r
}
