package task_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/frahmantamala/project-management/internal"
	"github.com/frahmantamala/project-management/internal/auth"
	"github.com/frahmantamala/project-management/internal/task"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type stubService struct {
	lastMove   task.TransitionRequest
	lastCreate task.CreateTaskDTO
	lastViewer int64
	moveResult *task.TransitionResult
	task       *task.Task
	board      *task.Board
	err        error
}

func (s *stubService) RequestTransition(_ context.Context, req task.TransitionRequest) (*task.TransitionResult, error) {
	s.lastMove = req
	return s.moveResult, s.err
}

func (s *stubService) CreateTask(_ context.Context, _, _ int64, dto task.CreateTaskDTO) (*task.Task, error) {
	s.lastCreate = dto
	return s.task, s.err
}

func (s *stubService) ViewTask(_ context.Context, actorID, _ int64) (*task.Task, error) {
	s.lastViewer = actorID
	return s.task, s.err
}

func (s *stubService) Board(_ context.Context, _, _ int64, _ string) (*task.Board, error) {
	return s.board, s.err
}

var _ = Describe("Task Handler", func() {
	var (
		svc     *stubService
		handler *task.Handler
		router  *chi.Mux
		user    *auth.User
	)

	do := func(method, path, body string, withUser bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		if withUser {
			req = req.WithContext(auth.ContextWithUser(req.Context(), user))
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	BeforeEach(func() {
		svc = &stubService{}
		now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
		handler = task.NewHandler(svc, task.ClockFunc(func() time.Time { return now }))
		user = &auth.User{ID: developerID, Username: "dev"}

		router = chi.NewRouter()
		router.Post("/tasks/{id}/move", handler.MoveTask)
		router.Get("/tasks/{id}", handler.GetTask)
		router.Post("/projects/{projectID}/tasks", handler.CreateTask)
		router.Get("/projects/{projectID}/board", handler.GetBoard)
	})

	Describe("MoveTask", func() {
		It("should pass the caller and payload to the engine and report the clone", func() {
			// Given
			svc.moveResult = &task.TransitionResult{
				Task:          &task.Task{ID: 7, Stage: task.StageDone, Category: task.CategoryDevelopment},
				Clone:         &task.Task{ID: 8},
				PointsAwarded: true,
			}

			// When
			rec := do(http.MethodPost, "/tasks/7/move", `{"stage":"DONE"}`, true)

			// Then
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(svc.lastMove).To(Equal(task.TransitionRequest{TaskID: 7, ActorID: developerID, Stage: "DONE"}))

			var resp task.MoveTaskResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.OK).To(BeTrue())
			Expect(resp.PointsAwarded).To(BeTrue())
			Expect(resp.CloneID).NotTo(BeNil())
			Expect(*resp.CloneID).To(Equal(int64(8)))
		})

		It("should render engine errors with their code", func() {
			// Given
			svc.err = internal.ErrTaskClosed

			// When
			rec := do(http.MethodPost, "/tasks/7/move", `{"stage":"DONE"}`, true)

			// Then
			Expect(rec.Code).To(Equal(http.StatusUnprocessableEntity))
			Expect(rec.Body.String()).To(ContainSubstring("TASK_CLOSED"))
		})

		It("should require an authenticated caller", func() {
			rec := do(http.MethodPost, "/tasks/7/move", `{}`, false)

			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})

		It("should reject a malformed id or body", func() {
			Expect(do(http.MethodPost, "/tasks/abc/move", `{}`, true).Code).To(Equal(http.StatusBadRequest))
			Expect(do(http.MethodPost, "/tasks/7/move", `{`, true).Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("GetTask", func() {
		It("should include derived statuses", func() {
			// Given
			deadline := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
			svc.task = &task.Task{ID: 3, Stage: task.StageInProgress, Category: task.CategoryTesting, Deadline: &deadline}

			// When
			rec := do(http.MethodGet, "/tasks/3", "", true)

			// Then
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(svc.lastViewer).To(Equal(developerID))
			var body map[string]any
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body["due_status"]).To(Equal(task.DueStatusDueToday))
			Expect(body["stage_status"]).To(Equal(task.StageStatusActive))
			Expect(body["category_label"]).To(Equal("Testing"))
		})

		It("should require an authenticated caller", func() {
			rec := do(http.MethodGet, "/tasks/3", "", false)

			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})

		It("should refuse a task the caller may not see", func() {
			svc.err = internal.ErrForbiddenTaskAccess

			rec := do(http.MethodGet, "/tasks/3", "", true)

			Expect(rec.Code).To(Equal(http.StatusForbidden))
			Expect(rec.Body.String()).To(ContainSubstring("FORBIDDEN_TASK_ACCESS"))
		})

		It("should map a missing task to 404", func() {
			svc.err = internal.ErrTaskNotFound

			rec := do(http.MethodGet, "/tasks/3", "", true)

			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("CreateTask", func() {
		It("should answer 201 with the new task", func() {
			// Given
			svc.task = &task.Task{ID: 12, Title: "Checkout", Stage: task.StageTodo, Category: task.CategoryDevelopment}

			// When
			rec := do(http.MethodPost, "/projects/5/tasks", `{"title":"Checkout","story_points":3}`, true)

			// Then
			Expect(rec.Code).To(Equal(http.StatusCreated))
			Expect(svc.lastCreate.Title).To(Equal("Checkout"))
			Expect(svc.lastCreate.StoryPoints).To(Equal(3))
		})
	})

	Describe("GetBoard", func() {
		It("should return the board", func() {
			// Given
			svc.board = &task.Board{ProjectID: 5, Category: task.CategoryDevelopment}

			// When
			rec := do(http.MethodGet, "/projects/5/board?category=DEVELOPMENT", "", true)

			// Then
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring(`"project_id":5`))
		})

		It("should reject a non-numeric project id", func() {
			rec := do(http.MethodGet, "/projects/x/board", "", true)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})
})
