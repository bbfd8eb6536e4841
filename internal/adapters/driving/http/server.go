package http

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/futureproof-labs/futureproof-core/internal/core/ports/driven"
	"github.com/futureproof-labs/futureproof-core/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string

	// Services
	authService        driving.AuthService
	vaultService       driving.VaultService
	transactionService driving.TransactionService
	settingsService    driving.SettingsService
	backupService      driving.BackupService
	syncRegistry       driving.SyncRegistry

	// Infrastructure
	taskQueue   driven.TaskQueue
	db          Pinger // PostgreSQL health check
	redisClient Pinger // Redis health check (optional)
}

// Config holds server configuration
type Config struct {
	Host    string
	Port    int
	Version string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:    "0.0.0.0",
		Port:    8080,
		Version: "dev",
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	authService driving.AuthService,
	vaultService driving.VaultService,
	transactionService driving.TransactionService,
	settingsService driving.SettingsService,
	backupService driving.BackupService,
	syncRegistry driving.SyncRegistry,
	taskQueue driven.TaskQueue,
	db Pinger,
	redisClient Pinger, // can be nil
) *Server {
	s := &Server{
		router:             http.NewServeMux(),
		version:            cfg.Version,
		authService:        authService,
		vaultService:       vaultService,
		transactionService: transactionService,
		settingsService:    settingsService,
		backupService:      backupService,
		syncRegistry:       syncRegistry,
		taskQueue:          taskQueue,
		db:                 db,
		redisClient:        redisClient,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Create middleware
	authMiddleware := NewAuthMiddleware(s.authService)

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// Auth endpoints (public)
	s.router.HandleFunc("POST /api/v1/auth/register", s.handleRegister)
	s.router.HandleFunc("POST /api/v1/auth/login", s.handleLogin)
	s.router.HandleFunc("POST /api/v1/auth/refresh", s.handleRefresh)

	// Auth endpoints (authenticated)
	s.router.Handle("POST /api/v1/auth/logout",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleLogout)))
	s.router.Handle("POST /api/v1/auth/logout-all",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleLogoutAll)))
	s.router.Handle("POST /api/v1/auth/password",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleChangePassword)))

	// User endpoints
	s.router.Handle("GET /api/v1/me",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleGetMe)))

	// Vault endpoints (authenticated)
	s.router.Handle("GET /api/v1/vaults",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleListVaults)))
	s.router.Handle("POST /api/v1/vaults",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleCreateVault)))
	s.router.Handle("GET /api/v1/vaults/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleGetVault)))
	s.router.Handle("PUT /api/v1/vaults/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleUpdateVault)))
	s.router.Handle("DELETE /api/v1/vaults/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleDeleteVault)))

	// Transaction endpoints (authenticated)
	s.router.Handle("GET /api/v1/vaults/{id}/transactions",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleListTransactions)))
	s.router.Handle("POST /api/v1/vaults/{id}/transactions",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleAddTransaction)))
	s.router.Handle("GET /api/v1/transactions/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleGetTransaction)))
	s.router.Handle("PUT /api/v1/transactions/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleUpdateTransaction)))
	s.router.Handle("DELETE /api/v1/transactions/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleDeleteTransaction)))

	// Settings endpoints (authenticated, per-user)
	s.router.Handle("GET /api/v1/settings",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleGetSettings)))
	s.router.Handle("PUT /api/v1/settings",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleUpdateSettings)))

	// Sync endpoints (authenticated, per-user coordinator)
	s.router.Handle("POST /api/v1/sync",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleForceSync)))
	s.router.Handle("POST /api/v1/sync/schedule",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleScheduleSync)))
	s.router.Handle("DELETE /api/v1/sync/pending",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleCancelPendingSync)))
	s.router.Handle("GET /api/v1/sync/status",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleSyncStatus)))
	s.router.Handle("GET /api/v1/sync/stream",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleSyncStream)))

	// Backup endpoints (authenticated)
	s.router.Handle("GET /api/v1/backups",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleListBackups)))
	s.router.Handle("POST /api/v1/backups",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleCreateBackup)))
	s.router.Handle("GET /api/v1/backups/{name}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleGetBackup)))
	s.router.Handle("POST /api/v1/backups/{name}/restore",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleRestoreBackup)))
	s.router.Handle("POST /api/v1/backups/prune",
		authMiddleware.Authenticate(http.HandlerFunc(s.handlePruneBackups)))

	// Task status endpoint (authenticated)
	s.router.Handle("GET /api/v1/tasks/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleGetTask)))
}

// Start starts the HTTP server with graceful shutdown
func (s *Server) Start() error {
	// Channel to listen for OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-stop
	log.Println("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
