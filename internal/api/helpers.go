// Package api implements the HTTP surface the console UI reads state from
// and invokes actions through.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hybrid-mount/hmconsole/internal/bridge"
	"github.com/hybrid-mount/hmconsole/internal/locale"
	"github.com/hybrid-mount/hmconsole/internal/models"
	"github.com/hybrid-mount/hmconsole/internal/toast"
)

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	store  Store
	events EventBus
}

// Store is the interface the handlers use to interact with the state
// container.
type Store interface {
	Snapshot() models.Snapshot
	LoadConfig(ctx context.Context)
	SaveConfig(ctx context.Context) error
	ResetConfig(ctx context.Context) error
	UpdateConfig(mutate func(*models.Config))
	ScanModules(ctx context.Context)
	SaveModuleRules(ctx context.Context, moduleID string, rules models.ModuleRules) error
	LoadStatus(ctx context.Context)
	ReadLogs(ctx context.Context, lines int) (string, error)
	GetConflicts(ctx context.Context) ([]models.Conflict, error)
	GetDiagnostics(ctx context.Context) ([]models.DiagnosticIssue, error)
	SetLanguage(code string)
	SetExpertMode(on bool)
	ToggleDisableUmount(ctx context.Context) error
	ToggleUmountCoexistence(ctx context.Context) error
	OpenLink(ctx context.Context, url string) error
	Reboot(ctx context.Context) error
	AuxAction(ctx context.Context, req bridge.AuxRequest) error
	Toasts() *toast.Slot
	Languages() []*locale.Bundle
}

// EventBus is the interface for subscribing to snapshot events.
type EventBus interface {
	Subscribe(id string) <-chan models.Snapshot
	Unsubscribe(id string)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an AppError as a JSON response.
func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	if appErr, ok := err.(*models.AppError); ok {
		w.WriteHeader(appErr.Status)
		_ = json.NewEncoder(w).Encode(appErr)
		return
	}
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(models.ErrInternal(err.Error()))
}

// readBody decodes a JSON request body into v.
func readBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return models.ErrBadRequest("malformed request body")
	}
	return nil
}
