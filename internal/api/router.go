package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates and returns the main HTTP router.
func NewRouter(store Store, bus EventBus) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(corsMiddleware)
	r.Use(middleware.CleanPath)

	h := &Handlers{store: store, events: bus}

	// Full state
	r.Get("/api", h.getState)
	r.Get("/api/", h.getState)
	r.Get("/api/languages", h.getLanguages)

	// Configuration
	r.Post("/api/config/load", h.loadConfig)
	r.Patch("/api/config", h.patchConfig)
	r.Post("/api/config/save", h.saveConfig)
	r.Post("/api/config/reset", h.resetConfig)
	r.Post("/api/config/toggle/{flag}", h.toggleFlag)

	// Modules
	r.Post("/api/modules/scan", h.scanModules)
	r.Post("/api/modules/{id}/rules", h.saveModuleRules)

	// Status and diagnostics
	r.Post("/api/status/refresh", h.refreshStatus)
	r.Get("/api/logs", h.getLogs)
	r.Get("/api/conflicts", h.getConflicts)
	r.Get("/api/diagnostics", h.getDiagnostics)

	// Preferences and misc actions
	r.Patch("/api/prefs", h.patchPrefs)
	r.Post("/api/link", h.openLink)
	r.Post("/api/reboot", h.reboot)
	r.Post("/api/aux", h.auxAction)
	r.Post("/api/toast/dismiss", h.dismissToast)

	// SSE
	r.Get("/api/subscribe", h.sseEvents)

	return r
}

// corsMiddleware adds permissive CORS headers for local WebView access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
