package services

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nicheimage/ingest/auth"
)

// RegistryHandler exposes the active validator snapshot read-only.
type RegistryHandler struct {
	registry *auth.ValidatorRegistry
}

// NewRegistryHandler creates a handler over registry.
func NewRegistryHandler(registry *auth.ValidatorRegistry) *RegistryHandler {
	return &RegistryHandler{registry: registry}
}

func (h *RegistryHandler) RegisterRoutes(router chi.Router) {
	router.Get("/registry/validators", h.handleGetValidators)
	router.Get("/registry/validators/{uid}", h.handleGetValidator)
}

func (h *RegistryHandler) handleGetValidators(w http.ResponseWriter, r *http.Request) {
	snapshot := h.registry.Snapshot()
	if snapshot == nil {
		http.Error(w, "validator registry not loaded", http.StatusServiceUnavailable)
		return
	}

	resp := &ValidatorListResponse{
		NetUID:     snapshot.NetUID,
		Block:      snapshot.Block,
		FetchedAt:  snapshot.FetchedAt.Unix(),
		Validators: make([]ValidatorInfo, 0, snapshot.Len()),
	}
	for _, uid := range snapshot.UIDs() {
		addr, _ := snapshot.Address(uid)
		resp.Validators = append(resp.Validators, ValidatorInfo{UID: uid, Address: addr})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *RegistryHandler) handleGetValidator(w http.ResponseWriter, r *http.Request) {
	uid, err := strconv.ParseInt(chi.URLParam(r, "uid"), 10, 64)
	if err != nil {
		http.Error(w, "invalid uid", http.StatusBadRequest)
		return
	}

	addr, err := h.registry.Resolve(uid)
	if err != nil {
		http.Error(w, "unknown validator", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&ValidatorInfo{UID: uid, Address: addr})
}
