package task

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/frahmantamala/project-management/internal/auth"
	"github.com/frahmantamala/project-management/internal/transport"
	"github.com/frahmantamala/project-management/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	RequestTransition(ctx context.Context, req TransitionRequest) (*TransitionResult, error)
	CreateTask(ctx context.Context, actorID, projectID int64, dto CreateTaskDTO) (*Task, error)
	ViewTask(ctx context.Context, actorID, id int64) (*Task, error)
	Board(ctx context.Context, actorID, projectID int64, category string) (*Board, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	Clock   Clock
}

func NewHandler(service ServiceAPI, clock Clock) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	if clock == nil {
		clock = SystemClock
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
		Clock:       clock,
	}
}

func (h *Handler) MoveTask(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	taskID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var dto MoveTaskDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("MoveTask: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.Service.RequestTransition(r.Context(), TransitionRequest{
		TaskID:   taskID,
		ActorID:  user.ID,
		Stage:    dto.Stage,
		Category: dto.Category,
	})
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	resp := MoveTaskResponse{
		OK:            true,
		Stage:         result.Task.Stage,
		Category:      result.Task.Category,
		PointsAwarded: result.PointsAwarded,
	}
	if result.Clone != nil {
		id := result.Clone.ID
		resp.CloneID = &id
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	projectID, ok := h.pathID(w, r, "projectID")
	if !ok {
		return
	}

	var dto CreateTaskDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateTask: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.Service.CreateTask(r.Context(), user.ID, projectID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, NewTaskDetailResponse(t, h.Clock.Now()))
}

func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	taskID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	t, err := h.Service.ViewTask(r.Context(), user.ID, taskID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, NewTaskDetailResponse(t, h.Clock.Now()))
}

func (h *Handler) GetBoard(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	projectID, ok := h.pathID(w, r, "projectID")
	if !ok {
		return
	}

	board, err := h.Service.Board(r.Context(), user.ID, projectID, r.URL.Query().Get("category"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, board)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	raw := chi.URLParam(r, param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.WriteError(w, http.StatusBadRequest, "invalid "+param)
		return 0, false
	}
	return id, true
}
