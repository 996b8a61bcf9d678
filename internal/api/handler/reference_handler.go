package handler

import (
	"net/http"

	"companion_hub/internal/app/service"
	"companion_hub/internal/common"
	"companion_hub/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

// ReferenceHandler serves one reference table.
type ReferenceHandler struct {
	referenceService *service.ReferenceService
	kind             model.ReferenceKind
}

func NewReferenceHandler(rs *service.ReferenceService, kind model.ReferenceKind) *ReferenceHandler {
	return &ReferenceHandler{referenceService: rs, kind: kind}
}

func (h *ReferenceHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
}

func (h *ReferenceHandler) list(w http.ResponseWriter, r *http.Request) {
	records, err := h.referenceService.List(r.Context(), h.kind)
	if err != nil {
		common.RespondWithServiceError(w, "list "+string(h.kind), err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, records)
}

func (h *ReferenceHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		common.RespondWithServiceError(w, "get "+string(h.kind), err)
		return
	}

	record, err := h.referenceService.Get(r.Context(), h.kind, id)
	if err != nil {
		common.RespondWithServiceError(w, "get "+string(h.kind), err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, record)
}
