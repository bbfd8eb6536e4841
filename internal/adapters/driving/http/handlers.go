package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/futureproof-labs/futureproof-core/internal/core/domain"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Returns the readiness status of the API (checks database, cache and queue connections)
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Failure      503  {object}  StatusResponse
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	ready := true

	check := func(name string, p Pinger) {
		if p == nil {
			return
		}
		if err := p.Ping(ctx); err != nil {
			checks[name] = err.Error()
			ready = false
		} else {
			checks[name] = "ok"
		}
	}

	check("postgres", s.db)
	check("redis", s.redisClient)
	check("queue", s.taskQueue)

	status := http.StatusOK
	state := "ready"
	if !ready {
		status = http.StatusServiceUnavailable
		state = "not ready"
	}

	writeJSON(w, status, map[string]any{"status": state, "checks": checks})
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// Auth endpoints

// handleRegister godoc
// @Summary      Register account
// @Description  Create a new user account
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request  body      domain.RegisterRequest  true  "Account details"
// @Success      201      {object}  domain.UserSummary
// @Failure      400      {object}  ErrorResponse  "Invalid request body"
// @Failure      409      {object}  ErrorResponse  "Email already registered"
// @Router       /auth/register [post]
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.authService.Register(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadyExists):
			writeError(w, http.StatusConflict, "email already registered")
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "registration failed")
		}
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// handleLogin godoc
// @Summary      User login
// @Description  Authenticate with email and password to receive a JWT token
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request  body      domain.LoginRequest  true  "Login credentials"
// @Success      200      {object}  domain.LoginResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request body"
// @Failure      401      {object}  ErrorResponse  "Invalid credentials or account disabled"
// @Router       /auth/login [post]
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.authService.Authenticate(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "invalid credentials")
		case errors.Is(err, domain.ErrUnauthorized):
			writeError(w, http.StatusUnauthorized, "account disabled")
		default:
			writeError(w, http.StatusInternalServerError, "authentication failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleRefresh godoc
// @Summary      Refresh token
// @Description  Exchange a refresh token for a new JWT token
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request  body      domain.RefreshRequest  true  "Refresh token"
// @Success      200      {object}  domain.LoginResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request body"
// @Failure      401      {object}  ErrorResponse  "Invalid refresh token"
// @Router       /auth/refresh [post]
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req domain.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.authService.RefreshToken(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleLogout godoc
// @Summary      Logout
// @Description  Invalidate the current session
// @Tags         Authentication
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  StatusResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /auth/logout [post]
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := extractBearerToken(r)
	if err := s.authService.Logout(r.Context(), token); err != nil {
		writeError(w, http.StatusInternalServerError, "logout failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// handleLogoutAll godoc
// @Summary      Logout everywhere
// @Description  Invalidate all sessions for the current user
// @Tags         Authentication
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  StatusResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /auth/logout-all [post]
func (s *Server) handleLogoutAll(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if err := s.authService.LogoutAll(r.Context(), authCtx.UserID); err != nil {
		writeError(w, http.StatusInternalServerError, "logout failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// handleChangePassword godoc
// @Summary      Change password
// @Description  Change the current user's password; other sessions are invalidated
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      domain.ChangePasswordRequest  true  "Current and new password"
// @Success      200      {object}  StatusResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request body or weak password"
// @Failure      401      {object}  ErrorResponse  "Wrong current password"
// @Router       /auth/password [post]
func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())

	var req domain.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.authService.ChangePassword(r.Context(), authCtx.UserID, req); err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "wrong current password")
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "password change failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "password changed"})
}

// handleGetMe godoc
// @Summary      Current user
// @Description  Returns the authenticated user's identity
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.AuthContext
// @Failure      401  {object}  ErrorResponse
// @Router       /me [get]
func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, GetAuthContext(r.Context()))
}

// Vault endpoints

type vaultRequest struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
	Icon     string `json:"icon,omitempty"`
}

// handleListVaults godoc
// @Summary      List vaults
// @Description  Returns all vaults owned by the current user
// @Tags         Vaults
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Vault
// @Failure      401  {object}  ErrorResponse
// @Router       /vaults [get]
func (s *Server) handleListVaults(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())

	vaults, err := s.vaultService.ListVaults(r.Context(), authCtx.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, vaults)
}

// handleCreateVault godoc
// @Summary      Create vault
// @Description  Creates a new vault; schedules a cloud sync
// @Tags         Vaults
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      vaultRequest  true  "Vault details"
// @Success      201      {object}  domain.Vault
// @Failure      400      {object}  ErrorResponse
// @Router       /vaults [post]
func (s *Server) handleCreateVault(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())

	var req vaultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	vault, err := s.vaultService.CreateVault(r.Context(), authCtx.UserID, req.Name, req.Currency, req.Icon)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, vault)
}

// handleGetVault godoc
// @Summary      Get vault
// @Tags         Vaults
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Vault ID"
// @Success      200  {object}  domain.Vault
// @Failure      404  {object}  ErrorResponse
// @Router       /vaults/{id} [get]
func (s *Server) handleGetVault(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())

	vault, err := s.vaultService.GetVault(r.Context(), authCtx.UserID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, vault)
}

// handleUpdateVault godoc
// @Summary      Update vault
// @Description  Updates a vault's name, currency or icon; schedules a cloud sync
// @Tags         Vaults
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string        true  "Vault ID"
// @Param        request  body      vaultRequest  true  "Updated vault details"
// @Success      200      {object}  domain.Vault
// @Failure      404      {object}  ErrorResponse
// @Router       /vaults/{id} [put]
func (s *Server) handleUpdateVault(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())

	var req vaultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	vault, err := s.vaultService.UpdateVault(r.Context(), authCtx.UserID, &domain.Vault{
		ID:       r.PathValue("id"),
		Name:     req.Name,
		Currency: req.Currency,
		Icon:     req.Icon,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, vault)
}

// handleDeleteVault godoc
// @Summary      Delete vault
// @Description  Deletes a vault and all its transactions; schedules a cloud sync
// @Tags         Vaults
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Vault ID"
// @Success      200  {object}  StatusResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /vaults/{id} [delete]
func (s *Server) handleDeleteVault(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())

	if err := s.vaultService.DeleteVault(r.Context(), authCtx.UserID, r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Transaction endpoints

type transactionRequest struct {
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	Category    string    `json:"category,omitempty"`
	Note        string    `json:"note,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// handleListTransactions godoc
// @Summary      List transactions
// @Description  Returns all transactions in a vault, newest first
// @Tags         Transactions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Vault ID"
// @Success      200  {array}   domain.Transaction
// @Failure      404  {object}  ErrorResponse
// @Router       /vaults/{id}/transactions [get]
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())

	txns, err := s.transactionService.ListTransactions(r.Context(), authCtx.UserID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, txns)
}

// handleAddTransaction godoc
// @Summary      Add transaction
// @Description  Records a transaction in a vault; schedules a cloud sync
// @Tags         Transactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string              true  "Vault ID"
// @Param        request  body      transactionRequest  true  "Transaction details"
// @Success      201      {object}  domain.Transaction
// @Failure      400      {object}  ErrorResponse
// @Router       /vaults/{id}/transactions [post]
func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	txn, err := s.transactionService.AddTransaction(r.Context(), authCtx.UserID, &domain.Transaction{
		VaultID:     r.PathValue("id"),
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
		Category:    req.Category,
		Note:        req.Note,
		OccurredAt:  req.OccurredAt,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, txn)
}

// handleGetTransaction godoc
// @Summary      Get transaction
// @Tags         Transactions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Transaction ID"
// @Success      200  {object}  domain.Transaction
// @Failure      404  {object}  ErrorResponse
// @Router       /transactions/{id} [get]
func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())

	txn, err := s.transactionService.GetTransaction(r.Context(), authCtx.UserID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, txn)
}

// handleUpdateTransaction godoc
// @Summary      Update transaction
// @Description  Updates a transaction's amount, category, note or date; schedules a cloud sync
// @Tags         Transactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string              true  "Transaction ID"
// @Param        request  body      transactionRequest  true  "Updated transaction details"
// @Success      200      {object}  domain.Transaction
// @Failure      404      {object}  ErrorResponse
// @Router       /transactions/{id} [put]
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	txn, err := s.transactionService.UpdateTransaction(r.Context(), authCtx.UserID, &domain.Transaction{
		ID:          r.PathValue("id"),
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
		Category:    req.Category,
		Note:        req.Note,
		OccurredAt:  req.OccurredAt,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, txn)
}

// handleDeleteTransaction godoc
// @Summary      Delete transaction
// @Description  Deletes a transaction; schedules a cloud sync
// @Tags         Transactions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Transaction ID"
// @Success      200  {object}  StatusResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /transactions/{id} [delete]
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())

	if err := s.transactionService.DeleteTransaction(r.Context(), authCtx.UserID, r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Settings endpoints

type settingsRequest struct {
	DefaultCurrency string `json:"default_currency"`
	Theme           string `json:"theme"`
	CloudSyncOn     bool   `json:"cloud_sync_on"`
}

// handleGetSettings godoc
// @Summary      Get settings
// @Description  Returns the current user's settings, falling back to defaults
// @Tags         Settings
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Settings
// @Router       /settings [get]
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())

	settings, err := s.settingsService.GetSettings(r.Context(), authCtx.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, settings)
}

// handleUpdateSettings godoc
// @Summary      Update settings
// @Description  Saves the current user's settings; schedules a cloud sync
// @Tags         Settings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      settingsRequest  true  "Settings"
// @Success      200      {object}  domain.Settings
// @Failure      400      {object}  ErrorResponse
// @Router       /settings [put]
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())

	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	settings, err := s.settingsService.UpdateSettings(r.Context(), authCtx.UserID, &domain.Settings{
		UserID:          authCtx.UserID,
		DefaultCurrency: req.DefaultCurrency,
		Theme:           req.Theme,
		CloudSyncOn:     req.CloudSyncOn,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, settings)
}

// Sync endpoints

type scheduleSyncRequest struct {
	Reason string `json:"reason,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// handleForceSync godoc
// @Summary      Force sync
// @Description  Bypasses debouncing and runs a cloud backup now, waiting for it to finish
// @Tags         Sync
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.SyncSnapshot
// @Failure      409  {object}  ErrorResponse  "Sync already in progress"
// @Router       /sync [post]
func (s *Server) handleForceSync(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	coordinator := s.syncRegistry.Coordinator(authCtx.UserID)

	if err := coordinator.ForceSync(r.Context()); err != nil {
		switch {
		case errors.Is(err, domain.ErrSyncInProgress):
			writeError(w, http.StatusConflict, "sync already in progress")
		case errors.Is(err, domain.ErrCoordinatorClosed):
			writeError(w, http.StatusServiceUnavailable, "sync coordinator is shut down")
		default:
			writeBackupError(w, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, coordinator.Snapshot())
}

// handleScheduleSync godoc
// @Summary      Schedule sync
// @Description  Records a change reason and arms the debounce window
// @Tags         Sync
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      scheduleSyncRequest  false  "Change reason"
// @Success      202      {object}  domain.SyncSnapshot
// @Router       /sync/schedule [post]
func (s *Server) handleScheduleSync(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())

	var req scheduleSyncRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	reason := domain.SyncReason(req.Reason)
	if reason == "" {
		reason = domain.SyncReasonManual
	}

	coordinator := s.syncRegistry.Coordinator(authCtx.UserID)
	coordinator.ScheduleSync(reason, req.Detail)

	writeJSON(w, http.StatusAccepted, coordinator.Snapshot())
}

// handleCancelPendingSync godoc
// @Summary      Cancel pending sync
// @Description  Discards accumulated reasons and disarms the debounce timer; a sync already executing is not interrupted
// @Tags         Sync
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.SyncSnapshot
// @Router       /sync/pending [delete]
func (s *Server) handleCancelPendingSync(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	coordinator := s.syncRegistry.Coordinator(authCtx.UserID)

	coordinator.CancelPendingSync()

	writeJSON(w, http.StatusOK, coordinator.Snapshot())
}

// handleSyncStatus godoc
// @Summary      Sync status
// @Description  Returns a point-in-time view of the sync coordinator
// @Tags         Sync
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.SyncSnapshot
// @Router       /sync/status [get]
func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())

	writeJSON(w, http.StatusOK, s.syncRegistry.Coordinator(authCtx.UserID).Snapshot())
}

// handleSyncStream godoc
// @Summary      Sync status stream
// @Description  Streams sync status transitions as server-sent events until the client disconnects
// @Tags         Sync
// @Produce      text/event-stream
// @Security     BearerAuth
// @Success      200  {string}  string  "SSE stream of status transitions"
// @Router       /sync/stream [get]
func (s *Server) handleSyncStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	authCtx := GetAuthContext(r.Context())
	coordinator := s.syncRegistry.Coordinator(authCtx.UserID)
	updates, unsubscribe := coordinator.Subscribe()
	defer unsubscribe()

	// The stream stays open for as long as the client listens, so the
	// server-wide per-response write deadline must not apply here.
	// Best effort: recorders used in tests do not support deadlines.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// The subscription delivers the current status first, so clients
	// render immediately without a separate initial emission.

	for {
		select {
		case <-r.Context().Done():
			return
		case status, open := <-updates:
			if !open {
				// Coordinator closed
				return
			}
			writeSyncEvent(w, status)
			flusher.Flush()
		}
	}
}

func writeSyncEvent(w io.Writer, status domain.SyncStatus) {
	fmt.Fprintf(w, "data: {\"status\":%q}\n\n", status)
}

// Backup endpoints

type createBackupRequest struct {
	Name string `json:"name"`
}

type pruneBackupsRequest struct {
	Keep int `json:"keep"`
}

// taskAcceptedResponse is returned when a background task is enqueued
type taskAcceptedResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

// handleListBackups godoc
// @Summary      List backups
// @Description  Returns the current user's stored archives, newest first
// @Tags         Backups
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.ArchiveInfo
// @Router       /backups [get]
func (s *Server) handleListBackups(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())

	archives, err := s.backupService.ListArchives(r.Context(), authCtx.UserID)
	if err != nil {
		writeBackupError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, archives)
}

// handleCreateBackup godoc
// @Summary      Create backup
// @Description  Exports, encrypts and uploads the user's data under the given archive name, synchronously
// @Tags         Backups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      createBackupRequest  true  "Archive name"
// @Success      201      {object}  domain.BackupResult
// @Failure      400      {object}  ErrorResponse  "Invalid archive name or empty data set"
// @Failure      413      {object}  ErrorResponse  "Archive exceeds the size ceiling"
// @Router       /backups [post]
func (s *Server) handleCreateBackup(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())

	var req createBackupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.backupService.BackupNow(r.Context(), authCtx.UserID, req.Name)
	if err != nil {
		writeBackupError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// handleGetBackup godoc
// @Summary      Check backup
// @Description  Reports whether an archive with the given name exists in cloud storage
// @Tags         Backups
// @Produce      json
// @Security     BearerAuth
// @Param        name  path      string  true  "Archive name"
// @Success      200   {object}  map[string]bool
// @Router       /backups/{name} [get]
func (s *Server) handleGetBackup(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	name := r.PathValue("name")

	exists, err := s.backupService.BackupExists(r.Context(), authCtx.UserID, name)
	if err != nil {
		writeBackupError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"name": name, "exists": exists})
}

// handleRestoreBackup godoc
// @Summary      Restore backup
// @Description  Enqueues a background restore of the named archive, replacing the user's current data
// @Tags         Backups
// @Produce      json
// @Security     BearerAuth
// @Param        name  path      string  true  "Archive name, or 'latest' for the newest archive"
// @Success      202   {object}  taskAcceptedResponse
// @Router       /backups/{name}/restore [post]
func (s *Server) handleRestoreBackup(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())

	task := domain.NewRestoreTask(authCtx.UserID)
	if name := r.PathValue("name"); name != "latest" {
		task.Payload = map[string]string{"name": name}
	}

	if err := s.taskQueue.Enqueue(r.Context(), task); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to enqueue restore")
		return
	}

	writeJSON(w, http.StatusAccepted, taskAcceptedResponse{TaskID: task.ID, Status: "queued"})
}

// handlePruneBackups godoc
// @Summary      Prune backups
// @Description  Enqueues a background job deleting all but the newest archives
// @Tags         Backups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      pruneBackupsRequest  false  "Retention count"
// @Success      202      {object}  taskAcceptedResponse
// @Router       /backups/prune [post]
func (s *Server) handlePruneBackups(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())

	var req pruneBackupsRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	task := domain.NewPruneBackupsTask(authCtx.UserID, req.Keep)
	if err := s.taskQueue.Enqueue(r.Context(), task); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to enqueue prune")
		return
	}

	writeJSON(w, http.StatusAccepted, taskAcceptedResponse{TaskID: task.ID, Status: "queued"})
}

// handleGetTask godoc
// @Summary      Get task status
// @Description  Returns the status of a queued background task
// @Tags         Tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  domain.Task
// @Failure      404  {object}  ErrorResponse
// @Router       /tasks/{id} [get]
func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())

	task, err := s.taskQueue.GetTask(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load task")
		return
	}
	if task == nil || (task.UserID != authCtx.UserID && !authCtx.IsAdmin()) {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// Error helpers

// writeServiceError maps core service errors onto HTTP status codes
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "access denied")
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "already exists")
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// writeBackupError maps classified cloud storage failures onto HTTP
// status codes, keeping the kind and retryability in the body so
// clients can decide whether to retry.
func writeBackupError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrEmptyArchive) {
		writeError(w, http.StatusBadRequest, "nothing to back up")
		return
	}

	var classified *domain.ClassifiedError
	if !errors.As(err, &classified) {
		writeServiceError(w, err)
		return
	}

	var status int
	switch classified.Kind {
	case domain.ErrorKindInvalidFileName:
		status = http.StatusBadRequest
	case domain.ErrorKindFileNotFound:
		status = http.StatusNotFound
	case domain.ErrorKindQuotaExceeded:
		status = http.StatusRequestEntityTooLarge
	case domain.ErrorKindNotSignedIn:
		status = http.StatusForbidden
	case domain.ErrorKindContainerUnavailable:
		status = http.StatusServiceUnavailable
	case domain.ErrorKindNetwork:
		status = http.StatusBadGateway
	default:
		status = http.StatusInternalServerError
	}

	writeJSON(w, status, map[string]any{
		"error":     classified.Message,
		"kind":      classified.Kind,
		"retryable": classified.Retryable,
	})
}

// Response helpers

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// writeError writes an error response
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
