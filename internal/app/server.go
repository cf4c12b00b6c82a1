// internal/app/server.go
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"libreschool/internal/catalog"
	"libreschool/internal/config"
	"libreschool/internal/dashboard"
	"libreschool/internal/files"
	"libreschool/internal/identity"
	"libreschool/internal/loans"
	"libreschool/internal/school"
	"libreschool/internal/search"
	"libreschool/internal/store"
)

// Server is the assembled HTTP application.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger
	http   *http.Server
}

// NewServer wires the store, services and routes.
func NewServer(cfg *config.Config, logger *zap.Logger, st *store.Store) (*Server, error) {
	fileStore, err := files.NewStorage(cfg.UploadsDir)
	if err != nil {
		return nil, err
	}

	issuer := identity.NewTokenIssuer(cfg.JWTSecret)
	index := search.NewMeili(cfg.MeiliHost, cfg.MeiliAPIKey, logger)

	identitySvc := identity.NewService(st, issuer)
	schoolSvc := school.NewService(st)
	catalogSvc := catalog.NewService(st, index, fileStore, logger)
	loanSvc := loans.NewService(st, logger)
	dashboardSvc := dashboard.NewService(st)

	auth := identity.NewMiddleware(issuer, identitySvc, logger)

	identityHandler := identity.NewHandler(identitySvc, logger)
	schoolHandler := school.NewHandler(schoolSvc, logger)
	catalogHandler := catalog.NewHandler(catalogSvc, logger)
	loanHandler := loans.NewHandler(loanSvc, logger)
	dashboardHandler := dashboard.NewHandler(dashboardSvc, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", identityHandler.HandleRegister)
		r.Post("/auth/login", identityHandler.HandleLogin)
		r.Post("/schools", schoolHandler.HandleRegister)
		r.Get("/books", catalogHandler.HandleList)
		r.Get("/books/{bookID}", catalogHandler.HandleGet)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)

			r.Get("/auth/me", identityHandler.HandleMe)
			r.Get("/schools", schoolHandler.HandleList)
			r.Get("/dashboard/stats", dashboardHandler.HandleStats)

			r.With(auth.RequireCapability(identity.CapManageSchools)).
				Put("/schools/{schoolID}/status", schoolHandler.HandleUpdateStatus)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireCapability(identity.CapPublishBooks), auth.RequireVerified)
				r.Post("/books", catalogHandler.HandleCreate)
				r.Put("/books/{bookID}", catalogHandler.HandleUpdate)
				r.Delete("/books/{bookID}", catalogHandler.HandleDelete)
				r.Post("/books/{bookID}/file", catalogHandler.HandleUploadFile)
			})

			r.Post("/books/{bookID}/download", catalogHandler.HandleDownload)
			r.Get("/books/{bookID}/file", catalogHandler.HandleServeFile)

			r.Post("/loans/request", loanHandler.HandleRequest)
			r.Get("/loans/my", loanHandler.HandleListMine)

			r.With(auth.RequireCapability(identity.CapViewSchoolLoans)).
				Get("/loans", loanHandler.HandleList)
			r.With(auth.RequireCapability(identity.CapManageLoans), auth.RequireVerified).
				Put("/loans/{loanID}/status", loanHandler.HandleUpdateStatus)
		})
	})

	return &Server{
		cfg:    cfg,
		logger: logger,
		http: &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// Run serves until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", s.cfg.ListenAddr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}
