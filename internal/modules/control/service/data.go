package service

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"macro_trader/internal/models"
	"macro_trader/internal/runner"
)

const maxImportSize = 4 << 20

func (a *API) handleMacros(w http.ResponseWriter, r *http.Request) {
	all, err := a.Store.LoadAll(r.Context())
	if err != nil {
		a.writeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make(map[string][]models.MacroAction, len(all))
	for t, m := range all {
		out[string(t)] = m.Actions
	}
	a.writeJSON(w, http.StatusOK, out)
}

func (a *API) handleExport(w http.ResponseWriter, r *http.Request) {
	raw, err := a.Store.Export(r.Context())
	if err != nil {
		a.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/x-yaml")
	w.Header().Set("Content-Disposition", `attachment; filename="macros.yaml"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func (a *API) handleImport(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxImportSize))
	if err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	b, err := a.Store.Import(r.Context(), raw)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	a.writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: fmt.Sprintf("imported %d macros, %d settings", len(b.Macros), len(b.Settings)),
	})
}

func (a *API) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := a.Store.Reset(r.Context()); err != nil {
		a.writeError(w, http.StatusInternalServerError, err)
		return
	}
	a.writeJSON(w, http.StatusOK, Response{Success: true})
}

type stateView struct {
	Lock      models.TradeLock `json:"lock"`
	State     runner.Snapshot  `json:"state"`
	Recording string           `json:"recording,omitempty"`
	Selecting bool             `json:"selecting"`
}

func (a *API) handleState(w http.ResponseWriter, r *http.Request) {
	v := stateView{
		Lock:      a.Trader.Lock().Snapshot(),
		State:     a.Trader.State().Snapshot(),
		Selecting: a.Selector.Active(),
	}
	if t, armed := a.Recorder.Armed(); armed {
		v.Recording = string(t)
	}
	a.writeJSON(w, http.StatusOK, v)
}

// GET /events?after=<seq>
func (a *API) handleEvents(w http.ResponseWriter, r *http.Request) {
	var after int64
	if s := r.URL.Query().Get("after"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			a.writeError(w, http.StatusBadRequest, fmt.Errorf("bad after: %w", err))
			return
		}
		after = n
	}
	events := a.Events.Since(after)
	if events == nil {
		events = []models.OutboundMessage{}
	}
	a.writeJSON(w, http.StatusOK, events)
}
