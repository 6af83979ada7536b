package server

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/kingbrown/caesarstudy/internal/handler/health"
)

func addRoutes(r chi.Router, logger *slog.Logger, opts Options) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Caesar Study API", "/openapi.json", "/docs"))
	r.Mount("/healthz", health.NewHandler(logger, opts.Checks).Routes())

	r.Route("/api", func(r chi.Router) {
		r.Get("/config", handleConfig(opts.Configured, opts.RequiredKeys))
		r.Get("/catalog", handleCatalog())

		r.Group(func(r chi.Router) {
			r.Use(requireConfigured(opts.Configured))
			r.Use(clientMiddleware(opts.SessionCookie, opts.Clients))

			r.Post("/auth/signup", handleSignUp(opts.SessionCookie))
			r.Post("/auth/signin", handleSignIn(opts.SessionCookie))
			r.Post("/auth/signout", handleSignOut(opts.SessionCookie))
			r.Get("/auth/session", handleSession())

			r.Get("/events", handleEvents(opts.Broker))

			r.Get("/view", handleGetView())
			r.Post("/view/navigate", handleNavigate())
			r.Post("/view/back", handleBack())
			r.Put("/view/level", handleSetLevel())

			// Signed-in screens.
			r.Group(func(r chi.Router) {
				r.Use(requireUser)

				r.Get("/act-scene", handleActSceneState())
				r.Post("/act-scene", handleActSceneGenerate())
				r.Post("/act-scene/answers/{index}", handleActSceneToggle())

				r.Get("/character", handleCharacterState())
				r.Post("/character", handleCharacterGenerate())
				r.Post("/character/answers/{index}", handleCharacterToggle())

				r.Get("/quiz", handleQuizState())
				r.Post("/quiz", handleQuizStart())
				r.Post("/quiz/select", handleQuizSelect())
				r.Post("/quiz/submit", handleQuizSubmit())
				r.Post("/quiz/next", handleQuizNext())

				r.Get("/doubt", handleDoubtState())
				r.Post("/doubt", handleDoubtAsk())
				r.Delete("/doubt", handleDoubtClear())

				r.Get("/history", handleHistory(opts.History, logger))
				r.Delete("/history", handleClearHistory(opts.History))
				r.Get("/score", handleScore(opts.History))
			})
		})
	})

	if opts.SPADir != "" {
		if info, err := os.Stat(opts.SPADir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", opts.SPADir)
			r.NotFound(handleSPA(opts.SPADir))
		}
	}
}
