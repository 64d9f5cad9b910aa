package router

import (
	"net/http"

	"bloxstake-trading-api/internal/handler"
	"bloxstake-trading-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler             *handler.Handler
	VerificationHandler *handler.VerificationHandler
	TradingHandler      *handler.TradingHandler
	StatsHandler        *handler.StatsHandler
	AuthMiddleware      func(http.Handler) http.Handler
	SignatureMiddleware func(http.Handler) http.Handler
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-API-Key"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// PUBLIC routes (no auth required)
	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}

	// AUTHENTICATED routes
	r.Group(func(r chi.Router) {
		if cfg.AuthMiddleware != nil {
			r.Use(cfg.AuthMiddleware)
		}

		r.Route("/api/v1", func(r chi.Router) {
			if cfg.Handler != nil {
				r.Get("/health", cfg.Handler.Health)
			}

			if cfg.VerificationHandler != nil {
				r.Route("/verify", func(r chi.Router) {
					r.Post("/start", cfg.VerificationHandler.Start)
					r.Post("/check", cfg.VerificationHandler.Check)
					r.Get("/{discord_id}", cfg.VerificationHandler.Account)
				})
			}
		})

		// Game-scoped routes consumed by the bot and the in-game agent. The
		// paths are fixed; both sides hardcode them.
		r.Route("/api/mm2/MurderMystery2", func(r chi.Router) {
			if cfg.StatsHandler != nil {
				r.Get("/Stats", cfg.StatsHandler.Stats)
			}

			if cfg.TradingHandler == nil {
				return
			}

			r.Post("/Trading/Withdraw/GetSession", cfg.TradingHandler.GetWithdrawSession)
			r.Post("/Trading/Withdraw/CreateSession", cfg.TradingHandler.CreateWithdrawSession)
			r.Post("/Trading/Withdraw/CancelSession", cfg.TradingHandler.CancelWithdrawSession)
			r.Post("/Inventory/Get", cfg.TradingHandler.GetInventory)
			r.Post("/User/CheckVerified", cfg.TradingHandler.CheckVerified)

			// Mutating agent calls additionally require a valid payload
			// signature; an API key alone cannot move items.
			r.Group(func(r chi.Router) {
				if cfg.SignatureMiddleware != nil {
					r.Use(cfg.SignatureMiddleware)
				}
				r.Post("/Trading/Withdraw/ConfirmSession", cfg.TradingHandler.ConfirmWithdrawSession)
				r.Post("/Trading/Deposit", cfg.TradingHandler.Deposit)
			})
		})
	})

	return r
}
