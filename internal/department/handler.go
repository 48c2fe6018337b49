package department

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/document-workspace/internal/transport"
	"github.com/frahmantamala/document-workspace/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

func (h *Handler) departmentID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (h *Handler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.Service.GetAllDepartments()
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"departments": departments})
}

func (h *Handler) GetDepartment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.departmentID(r)
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid department id")
		return
	}

	d, err := h.Service.GetDepartment(id)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	var dto CreateDepartmentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	d, err := h.Service.CreateDepartment(dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, d)
}

func (h *Handler) UpdateDepartment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.departmentID(r)
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid department id")
		return
	}

	var dto UpdateDepartmentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	d, err := h.Service.UpdateDepartment(id, dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) DeleteDepartment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.departmentID(r)
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid department id")
		return
	}

	if err := h.Service.DeactivateDepartment(id); err != nil {
		h.WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
