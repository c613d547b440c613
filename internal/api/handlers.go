package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hybrid-mount/hmconsole/internal/bridge"
	"github.com/hybrid-mount/hmconsole/internal/models"
)

func (h *Handlers) getState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

func (h *Handlers) getLanguages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Languages())
}

func (h *Handlers) loadConfig(w http.ResponseWriter, r *http.Request) {
	h.store.LoadConfig(r.Context())
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

func (h *Handlers) patchConfig(w http.ResponseWriter, r *http.Request) {
	var upd models.ConfigUpdate
	if err := readBody(r, &upd); err != nil {
		writeError(w, err)
		return
	}
	h.store.UpdateConfig(upd.Apply)
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

func (h *Handlers) saveConfig(w http.ResponseWriter, r *http.Request) {
	if err := h.store.SaveConfig(r.Context()); err != nil {
		writeError(w, models.ErrInternal(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

func (h *Handlers) resetConfig(w http.ResponseWriter, r *http.Request) {
	if err := h.store.ResetConfig(r.Context()); err != nil {
		writeError(w, models.ErrInternal(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

func (h *Handlers) toggleFlag(w http.ResponseWriter, r *http.Request) {
	var err error
	switch flag := chi.URLParam(r, "flag"); flag {
	case "disable_umount":
		err = h.store.ToggleDisableUmount(r.Context())
	case "umount_coexistence":
		err = h.store.ToggleUmountCoexistence(r.Context())
	default:
		writeError(w, models.ErrBadRequest("unknown toggle: "+flag))
		return
	}
	if err != nil {
		writeError(w, models.ErrInternal(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

func (h *Handlers) scanModules(w http.ResponseWriter, r *http.Request) {
	h.store.ScanModules(r.Context())
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

func (h *Handlers) saveModuleRules(w http.ResponseWriter, r *http.Request) {
	moduleID := chi.URLParam(r, "id")
	var rules models.ModuleRules
	if err := readBody(r, &rules); err != nil {
		writeError(w, err)
		return
	}
	if err := h.store.SaveModuleRules(r.Context(), moduleID, rules); err != nil {
		writeError(w, models.ErrInternal(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

func (h *Handlers) refreshStatus(w http.ResponseWriter, r *http.Request) {
	h.store.LoadStatus(r.Context())
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

func (h *Handlers) getLogs(w http.ResponseWriter, r *http.Request) {
	lines := 0
	if s := r.URL.Query().Get("lines"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, models.ErrBadRequest("invalid lines parameter"))
			return
		}
		lines = n
	}
	out, err := h.store.ReadLogs(r.Context(), lines)
	if err != nil {
		writeError(w, models.ErrInternal(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"logs": out})
}

func (h *Handlers) getConflicts(w http.ResponseWriter, r *http.Request) {
	conflicts, err := h.store.GetConflicts(r.Context())
	if err != nil {
		writeError(w, models.ErrInternal(err.Error()))
		return
	}
	if conflicts == nil {
		conflicts = []models.Conflict{}
	}
	writeJSON(w, http.StatusOK, conflicts)
}

func (h *Handlers) getDiagnostics(w http.ResponseWriter, r *http.Request) {
	issues, err := h.store.GetDiagnostics(r.Context())
	if err != nil {
		writeError(w, models.ErrInternal(err.Error()))
		return
	}
	if issues == nil {
		issues = []models.DiagnosticIssue{}
	}
	writeJSON(w, http.StatusOK, issues)
}

func (h *Handlers) patchPrefs(w http.ResponseWriter, r *http.Request) {
	var upd models.PrefsUpdate
	if err := readBody(r, &upd); err != nil {
		writeError(w, err)
		return
	}
	if upd.Language != nil {
		h.store.SetLanguage(*upd.Language)
	}
	if upd.ExpertMode != nil {
		h.store.SetExpertMode(*upd.ExpertMode)
	}
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

func (h *Handlers) openLink(w http.ResponseWriter, r *http.Request) {
	var req models.LinkRequest
	if err := readBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.store.OpenLink(r.Context(), req.URL); err != nil {
		writeError(w, models.ErrInternal(err.Error()))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) reboot(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Reboot(r.Context()); err != nil {
		writeError(w, models.ErrInternal(err.Error()))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) auxAction(w http.ResponseWriter, r *http.Request) {
	var req bridge.AuxRequest
	if err := readBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.store.AuxAction(r.Context(), req); err != nil {
		writeError(w, models.ErrInternal(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

func (h *Handlers) dismissToast(w http.ResponseWriter, r *http.Request) {
	h.store.Toasts().Dismiss()
	w.WriteHeader(http.StatusNoContent)
}
