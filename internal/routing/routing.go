package routing

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"portal/internal/config"
	"portal/pkg/auth"
	"portal/pkg/claims"
	"portal/pkg/gate"
	"portal/pkg/handlers"
	"portal/pkg/middleware"
	"portal/pkg/session"
	"portal/pkg/user"
)

const shutdownTimeout = 10 * time.Second

func NewRouter(users user.Repository, sessions session.Repository, cfg *config.Config, logger *slog.Logger) *mux.Router {
	codec := claims.NewCodec(cfg.JWTSecret)

	authenticator := auth.NewAuthenticator(users, sessions, logger, auth.Options{
		SessionTTL:   cfg.SessionTTL,
		StoreTimeout: cfg.StoreTimeout,
	})
	authHandler := handlers.NewAuthHandler(authenticator, codec, logger, cfg.CookieSecure)
	userHandler := handlers.NewUserHandler(user.NewService(users), logger)

	r := mux.NewRouter()
	r.Use(middleware.Panic(logger))
	r.Use(middleware.Gate(gate.New(codec, authenticator, logger), logger))

	InitRoutes(r, authHandler, userHandler, logger)
	return r
}

func InitRoutes(r *mux.Router, authHandler *handlers.AuthHandler, userHandler *handlers.UserHandler, logger *slog.Logger) {
	authRouter := r.PathPrefix("/auth").Subrouter()
	usersRouter := r.PathPrefix("/users").Subrouter()

	/* auth routers */
	authRouter.HandleFunc("/login", authHandler.Login).Methods("POST").Name("login")
	authRouter.HandleFunc("/logout", authHandler.Logout).Methods("POST").Name("logout")
	authRouter.HandleFunc("/me", authHandler.Me).Methods("GET").Name("me")

	/* user routers */
	usersRouter.Use(middleware.RequireRole(user.RoleAdmin))
	usersRouter.HandleFunc("", userHandler.Create).Methods("POST").Name("create-user")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteResp(w, logger, map[string]any{"status": "ok"}, http.StatusOK)
	}).Methods("GET").Name("health")
}

// StartServer serves handler on addr until ctx is cancelled, then drains
// in-flight requests.
func StartServer(ctx context.Context, handler http.Handler, addr string, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server is running", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Info("server is shutting down")
	return srv.Shutdown(shutdownCtx)
}
