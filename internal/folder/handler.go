package folder

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/document-workspace/internal/auth"
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

func (h *Handler) folderID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (*auth.User, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	return user, true
}

func (h *Handler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var dto CreateFolderDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	f, err := h.Service.CreateFolder(user, dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, f)
}

func (h *Handler) GetFolder(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.folderID(r)
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid folder id")
		return
	}

	f, err := h.Service.GetFolder(user, id)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, f)
}

// ListFolders returns the folders the caller can read. An optional
// permission query parameter raises the level, e.g. ?permission=write.
func (h *Handler) ListFolders(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	required := PermissionRead
	if raw := r.URL.Query().Get("permission"); raw != "" {
		p, err := ParsePermissionType(raw)
		if err != nil {
			h.WriteAppError(w, err)
			return
		}
		required = p
	}

	folders, err := h.Service.AccessibleFolders(user, required)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"folders": folders})
}

func (h *Handler) UpdateFolder(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.folderID(r)
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid folder id")
		return
	}

	var dto UpdateFolderDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	f, err := h.Service.UpdateFolder(user, id, dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, f)
}

func (h *Handler) MoveFolder(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.folderID(r)
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid folder id")
		return
	}

	var dto MoveFolderDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	f, err := h.Service.MoveFolder(user, id, dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, f)
}

func (h *Handler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.folderID(r)
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid folder id")
		return
	}

	deleteContents := r.URL.Query().Get("delete_contents") == "true"

	if err := h.Service.DeactivateFolder(user, id, deleteContents); err != nil {
		h.WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetBreadcrumb(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.folderID(r)
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid folder id")
		return
	}

	chain, err := h.Service.GetAncestorChain(user, id)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"breadcrumb": chain})
}

func (h *Handler) GrantPermission(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.folderID(r)
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid folder id")
		return
	}

	var dto GrantPermissionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fp, err := h.Service.GrantPermission(user, id, dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, fp)
}

func (h *Handler) RevokePermission(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.folderID(r)
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid folder id")
		return
	}

	var dto RevokePermissionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	count, err := h.Service.RevokePermission(user, id, dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]int64{"revoked_count": count})
}

func (h *Handler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.folderID(r)
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid folder id")
		return
	}

	perms, err := h.Service.ListPermissions(user, id)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"permissions": perms})
}
