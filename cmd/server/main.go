package main

import (
	"log/slog"
	"net/http"
	"os"

	"finance-tracker/internal/auth"
	"finance-tracker/internal/config"
	"finance-tracker/internal/handlers"
	"finance-tracker/internal/storage"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	db, err := storage.NewDB(cfg.DBPath)
	if err != nil {
		logger.Error("open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := bootstrapUser(db, cfg, logger); err != nil {
		logger.Error("bootstrap user", "error", err)
		os.Exit(1)
	}

	if err := db.CleanExpiredSessions(); err != nil {
		logger.Warn("clean expired sessions", "error", err)
	}

	h := handlers.NewHandlers(db, cfg.TemplateDir, cfg.SecureCookie, logger)
	mux := setupRouter(h, cfg.StaticDir)

	addr := ":" + cfg.Port
	logger.Info("server listening", "addr", addr, "db", cfg.DBPath)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// setupRouter wires all routes. Everything past the auth pages requires a
// valid session.
func setupRouter(h *handlers.Handlers, staticDir string) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))

	mux.HandleFunc("GET /{$}", h.Home)
	mux.HandleFunc("GET /register", h.RegisterForm)
	mux.HandleFunc("POST /register", h.Register)
	mux.HandleFunc("GET /login", h.LoginForm)
	mux.HandleFunc("POST /login", h.Login)
	mux.HandleFunc("GET /logout", h.Logout)

	protected := func(handler http.HandlerFunc) http.Handler {
		return h.AuthMiddleware(handler)
	}

	mux.Handle("GET /dashboard", protected(h.Dashboard))
	mux.Handle("GET /accounts", protected(h.Accounts))
	mux.Handle("POST /add_account", protected(h.AddAccount))
	mux.Handle("GET /edit_account/{id}", protected(h.EditAccountForm))
	mux.Handle("POST /edit_account/{id}", protected(h.EditAccount))
	mux.Handle("GET /delete_account/{id}", protected(h.DeleteAccount))
	mux.Handle("GET /transactions", protected(h.Transactions))
	mux.Handle("POST /add_transaction", protected(h.AddTransaction))
	mux.Handle("GET /categories", protected(h.Categories))
	mux.Handle("POST /add_category", protected(h.AddCategory))

	return mux
}

// bootstrapUser creates the configured initial user when the database has
// none. Subsequent starts leave existing users alone.
func bootstrapUser(db *storage.DB, cfg *config.Config, logger *slog.Logger) error {
	if cfg.BootstrapUser == "" {
		return nil
	}

	count, err := db.UserCount()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword(cfg.BootstrapPassword)
	if err != nil {
		return err
	}

	user, err := db.CreateUser(cfg.BootstrapUser, cfg.BootstrapEmail, hash)
	if err != nil {
		return err
	}

	logger.Info("created bootstrap user", "username", user.Username, "id", user.ID)
	return nil
}
