// Package server wires configuration, storage, services, handlers and
// routes together, and runs the HTTP server with graceful shutdown.
//
// DEPENDENCY FLOW:
//
//	config.Config → sqlite.DB → services (Auth, Identity, User, QuickSave, Asset)
//	             → handlers → chi routes
//
// Everything is assembled in New; nothing below this package constructs its
// own dependencies.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/social-auth/internal/auth"
	"github.com/sakif/social-auth/internal/config"
	"github.com/sakif/social-auth/internal/handler"
	"github.com/sakif/social-auth/internal/middleware"
	"github.com/sakif/social-auth/internal/model"
	sqliteRepo "github.com/sakif/social-auth/internal/repository/sqlite"
	"github.com/sakif/social-auth/internal/response"
	"github.com/sakif/social-auth/internal/service"
)

// MsgRouteNotFound answers any path the router does not know.
const MsgRouteNotFound = "Route not found"

// Server owns the router and the database connection.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database and builds every route. store is the media host
// for uploads; nil disables uploads.
func New(cfg *config.Config, logger *slog.Logger, store service.MediaStore) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiry)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}
	s.setupRoutes(tokens, store)
	return s, nil
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database.
func (s *Server) Close() error {
	return s.db.Close()
}

// providers returns the sign-in providers that have credentials configured.
func (s *Server) providers() []auth.Provider {
	cfg := s.config
	callback := func(name model.Provider, configured string) string {
		if configured != "" {
			return configured
		}
		return fmt.Sprintf("http://localhost:%d/auth/%s/callback", cfg.Port, name)
	}

	var ps []auth.Provider
	if cfg.Google.Enabled() {
		ps = append(ps, auth.NewGoogleProvider(cfg.Google.ClientID, cfg.Google.ClientSecret,
			callback(model.ProviderGoogle, cfg.Google.CallbackURL)))
	}
	if cfg.GitHub.Enabled() {
		ps = append(ps, auth.NewGitHubProvider(cfg.GitHub.ClientID, cfg.GitHub.ClientSecret,
			callback(model.ProviderGitHub, cfg.GitHub.CallbackURL)))
	}
	if cfg.Telegram.BotToken != "" {
		ps = append(ps, auth.NewTelegramProvider(cfg.Telegram.BotToken))
	}
	for _, p := range ps {
		s.logger.Info("sign-in provider enabled", slog.String("provider", string(p.Name())))
	}
	return ps
}

// setupRoutes configures middleware and routes.
//
// ROUTES:
//
//	GET    /healthz
//	POST   /auth/register | /auth/login | /auth/logout
//	GET    /auth/{google,github}            (configured providers only)
//	GET    /auth/{google,github,telegram}/callback
//	GET    /user/details                    [auth]
//	POST   /user/admin-list                 [auth, admin]
//	POST   /user/public-list                [auth]
//	PUT    /user/update                     [auth]
//	POST   /user/upload                     [auth]
//	POST   /user/accessTokenLogin           [auth]
//	POST   /user/add-to-quick-save          [auth]
//	GET    /user/get-quick-saves            [auth]
//	DELETE /user/quick-save/{id}            [auth]
//
// Middleware order matters: RequestID must run before Logger so the log
// line carries the id.
func (s *Server) setupRoutes(tokens *auth.TokenService, store service.MediaStore) {
	cfg := s.config
	passwords := auth.NewPasswordService(cfg.Salt)

	identity := service.NewIdentityService(s.db, s.logger)
	authService := service.NewAuthService(s.db, identity, tokens, passwords, s.logger)
	userService := service.NewUserService(s.db, tokens, passwords, s.logger)
	quickSaves := service.NewQuickSaveService(s.db, s.logger)

	var uploader handler.Uploader
	if store != nil {
		uploader = service.NewAssetService(store, cfg.Upload.TempDir, s.logger)
	} else {
		s.logger.Warn("no media host configured, /user/upload will fail")
	}

	authHandler := handler.NewAuthHandler(authService, cfg.ClientURL, cfg.Origins(), tokens.TTL(), s.logger, s.providers()...)
	userHandler := handler.NewUserHandler(userService, s.logger)
	quickSaveHandler := handler.NewQuickSaveHandler(quickSaves, s.logger)
	assetHandler := handler.NewAssetHandler(uploader, cfg.Upload.MaxBytes, s.logger)
	healthHandler := handler.NewHealthHandler(s.db, s.logger)

	r := s.router
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Origins(),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusNotFound, MsgRouteNotFound, nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed), nil)
	})

	r.Get("/healthz", healthHandler.HandleHealth)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)

		for _, p := range []model.Provider{model.ProviderGoogle, model.ProviderGitHub} {
			if authHandler.Has(p) {
				r.Get("/"+string(p), authHandler.HandleProviderLogin(p))
			}
		}
		for _, p := range []model.Provider{model.ProviderGoogle, model.ProviderGitHub, model.ProviderTelegram} {
			if authHandler.Has(p) {
				r.Get("/"+string(p)+"/callback", authHandler.HandleProviderCallback(p))
			}
		}
	})

	r.Route("/user", func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))

		r.Get("/details", userHandler.HandleDetails)
		r.With(auth.RequireRole(model.RoleAdmin)).Post("/admin-list", userHandler.HandleAdminList)
		r.Post("/public-list", userHandler.HandlePublicList)
		r.Put("/update", userHandler.HandleUpdate)
		r.Post("/upload", assetHandler.HandleUpload)
		r.Post("/accessTokenLogin", userHandler.HandleAccessTokenLogin)

		r.Post("/add-to-quick-save", quickSaveHandler.HandleAdd)
		r.Get("/get-quick-saves", quickSaveHandler.HandleList)
		r.Delete("/quick-save/{id}", quickSaveHandler.HandleDelete)
	})
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests for up
// to 30 seconds and closes the database.
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // uploads forward to the media host within the request
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
