package audit

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/frahmantamala/project-management/internal/auth"
	"github.com/frahmantamala/project-management/internal/transport"
	"github.com/frahmantamala/project-management/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	TaskHistory(ctx context.Context, taskID int64, limit int) ([]*Record, error)
}

// TaskAccess decides whether a user may read a task's history.
type TaskAccess interface {
	CheckTaskAccess(ctx context.Context, actorID, taskID int64) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	Access  TaskAccess
}

func NewHandler(service ServiceAPI, access TaskAccess) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
		Access:      access,
	}
}

type HistoryResponse struct {
	TaskID  int64     `json:"task_id"`
	Records []*Record `json:"records"`
}

func (h *Handler) GetTaskHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	taskIDStr := chi.URLParam(r, "id")
	taskID, err := strconv.ParseInt(taskIDStr, 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid task ID")
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil {
			limit = l
		}
	}

	if err := h.Access.CheckTaskAccess(r.Context(), user.ID, taskID); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	records, err := h.Service.TaskHistory(r.Context(), taskID, limit)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, HistoryResponse{TaskID: taskID, Records: records})
}
