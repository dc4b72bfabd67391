package task_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/frahmantamala/project-management/internal"
	"github.com/frahmantamala/project-management/internal/audit"
	"github.com/frahmantamala/project-management/internal/core/events"
	"github.com/frahmantamala/project-management/internal/permission"
	"github.com/frahmantamala/project-management/internal/task"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const (
	sysAdminID    int64 = 1
	coordinatorID int64 = 2
	developerID   int64 = 3
	stakeholderID int64 = 4
)

var _ = Describe("Task Service", func() {
	var (
		ctx       context.Context
		db        *MemoryDB
		actors    *MockActors
		projects  *MockProjects
		publisher *MockPublisher
		service   *task.Service
		now       time.Time
		today     time.Time
		projectID int64
	)

	seed := func(title string, category task.Category, stage task.Stage) *task.Task {
		pid := projectID
		return db.Seed(&task.Task{
			Title:       title,
			ProjectID:   &pid,
			Category:    category,
			Stage:       stage,
			StoryPoints: 5,
			Assignees:   []int64{developerID, stakeholderID},
		})
	}

	move := func(taskID, actorID int64, stage, category string) (*task.TransitionResult, error) {
		return service.RequestTransition(ctx, task.TransitionRequest{
			TaskID:   taskID,
			ActorID:  actorID,
			Stage:    stage,
			Category: category,
		})
	}

	BeforeEach(func() {
		ctx = context.Background()
		db = NewMemoryDB()
		projectID = 10
		now = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
		today = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
		actors = &MockActors{actors: map[int64]*permission.Actor{
			sysAdminID:    {UserID: sysAdminID, SystemAdministrator: true},
			coordinatorID: {UserID: coordinatorID, Role: roleOf(permission.RoleCoordinator)},
			developerID:   {UserID: developerID, Role: roleOf(permission.RoleDeveloper)},
			stakeholderID: {UserID: stakeholderID, Role: roleOf(permission.RoleStakeholder)},
		}}
		projects = &MockProjects{denied: map[int64]bool{}}
		publisher = &MockPublisher{}
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		service = task.NewService(db, db, actors, projects, publisher,
			task.ClockFunc(func() time.Time { return now }), logger)
	})

	Describe("RequestTransition milestones", func() {
		It("should clone a finished development task into testing", func() {
			// Given
			source := seed("Login page", task.CategoryDevelopment, task.StageInProgress)

			// When
			result, err := move(source.ID, sysAdminID, "DONE", "")

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Changed).To(BeTrue())
			Expect(result.PointsAwarded).To(BeTrue())
			Expect(result.Clone).NotTo(BeNil())

			stored := db.Stored(source.ID)
			Expect(stored.Stage).To(Equal(task.StageDone))
			Expect(stored.Category).To(Equal(task.CategoryDevelopment))
			Expect(stored.PointsEarned).To(BeTrue())
			Expect(stored.IsClosed).To(BeFalse())
			Expect(stored.EndDate).NotTo(BeNil())
			Expect(*stored.EndDate).To(Equal(today))
			Expect(stored.Version).To(Equal(int64(2)))

			clone := db.Stored(result.Clone.ID)
			Expect(clone.Category).To(Equal(task.CategoryTesting))
			Expect(clone.Stage).To(Equal(task.StageTodo))
			Expect(*clone.ParentTaskID).To(Equal(source.ID))
			Expect(clone.OriginalCategory).To(Equal(task.CategoryDevelopment))
			Expect(clone.StoryPoints).To(Equal(5))
			Expect(clone.PointsEarned).To(BeFalse())
			Expect(clone.EndDate).To(BeNil())
			Expect(clone.Assignees).To(Equal([]int64{developerID, stakeholderID}))
			Expect(*clone.CreatedByID).To(Equal(sysAdminID))

			records := db.Records()
			Expect(records).To(HaveLen(2))
			Expect(records[0].Action).To(Equal(audit.ActionStageChange))
			Expect(records[0].TargetID).To(Equal(source.ID))
			Expect(records[0].Detail).To(Equal("Task 'Login page' moved. Stage: IN_PROGRESS → DONE"))
			Expect(records[1].Action).To(Equal(audit.ActionTaskClonedToTesting))
			Expect(records[1].TargetID).To(Equal(clone.ID))
			Expect(records[1].Detail).To(Equal("Testing task cloned from 'Login page' (Development)."))
			Expect(*records[1].ActorID).To(Equal(sysAdminID))

			Expect(publisher.Types()).To(Equal([]string{
				events.EventTypeTaskTransitioned,
				events.EventTypeTaskPointsAwarded,
				events.EventTypeTaskCloned,
			}))
		})

		It("should clone a finished testing task into deployment keeping the original category", func() {
			// Given
			source := seed("Search", task.CategoryTesting, task.StageInProgress)
			stored := db.Stored(source.ID)
			stored.OriginalCategory = task.CategoryImprovement
			db.Seed(stored)

			// When
			result, err := move(source.ID, coordinatorID, "DONE", "")

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(result.PointsAwarded).To(BeTrue())
			clone := db.Stored(result.Clone.ID)
			Expect(clone.Category).To(Equal(task.CategoryDeployment))
			Expect(clone.OriginalCategory).To(Equal(task.CategoryImprovement))

			records := db.Records()
			Expect(records).To(HaveLen(2))
			Expect(records[1].Action).To(Equal(audit.ActionTaskClonedToDeployment))
			Expect(records[1].Detail).To(Equal("Deployment task cloned from 'Search' (Testing)."))
		})

		It("should close a rejected testing task and clone rework without points", func() {
			// Given
			source := seed("Checkout", task.CategoryTesting, task.StageInProgress)
			stored := db.Stored(source.ID)
			stored.OriginalCategory = task.CategoryImplementation
			stored.StoryPoints = 8
			db.Seed(stored)

			// When
			result, err := move(source.ID, coordinatorID, "REJECT", "")

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(result.PointsAwarded).To(BeFalse())

			closed := db.Stored(source.ID)
			Expect(closed.IsClosed).To(BeTrue())
			Expect(closed.PointsEarned).To(BeFalse())
			Expect(closed.Stage).To(Equal(task.StageReject))

			rework := db.Stored(result.Clone.ID)
			Expect(rework.Category).To(Equal(task.CategoryImplementation))
			Expect(rework.Stage).To(Equal(task.StageTodo))
			Expect(rework.StoryPoints).To(BeZero())
			Expect(rework.OriginalCategory).To(Equal(task.CategoryImplementation))

			records := db.Records()
			Expect(records).To(HaveLen(2))
			Expect(records[1].Action).To(Equal(audit.ActionTestingRejected))
			Expect(records[1].TargetID).To(Equal(rework.ID))
			Expect(records[1].Detail).To(Equal("Testing rejected for 'Checkout'. Rework cloned back to IMPLEMENTATION."))
		})

		It("should refuse any further move of a rejected task", func() {
			// Given
			source := seed("Checkout", task.CategoryTesting, task.StageInProgress)
			_, err := move(source.ID, coordinatorID, "REJECT", "")
			Expect(err).NotTo(HaveOccurred())

			// When
			_, err = move(source.ID, sysAdminID, "IN_PROGRESS", "")

			// Then
			Expect(errors.Is(err, internal.ErrTaskClosed)).To(BeTrue())
			Expect(db.Records()).To(HaveLen(2))
		})

		It("should apply the category before the stage when rejecting on the way into testing", func() {
			// Given
			source := seed("Profile page", task.CategoryImprovement, task.StageInProgress)

			// When
			result, err := move(source.ID, coordinatorID, "REJECT", "TESTING")

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(result.PointsAwarded).To(BeFalse())

			closed := db.Stored(source.ID)
			Expect(closed.Category).To(Equal(task.CategoryTesting))
			Expect(closed.Stage).To(Equal(task.StageReject))
			Expect(closed.IsClosed).To(BeTrue())
			Expect(closed.EndDate).NotTo(BeNil())
			Expect(*closed.EndDate).To(Equal(today.AddDate(0, 0, 7)))

			Expect(result.Clone).NotTo(BeNil())
			rework := db.Stored(result.Clone.ID)
			Expect(rework.Category).To(Equal(task.CategoryDevelopment))
			Expect(rework.Stage).To(Equal(task.StageTodo))
			Expect(rework.StoryPoints).To(BeZero())

			records := db.Records()
			Expect(records).To(HaveLen(2))
			Expect(records[0].Action).To(Equal(audit.ActionStageChange))
			Expect(records[1].Action).To(Equal(audit.ActionTestingRejected))
		})

		It("should send rework to development when the original category is unknown", func() {
			source := seed("Legacy", task.CategoryTesting, task.StageTodo)

			result, err := move(source.ID, sysAdminID, "REJECT", "")

			Expect(err).NotTo(HaveOccurred())
			Expect(db.Stored(result.Clone.ID).Category).To(Equal(task.CategoryDevelopment))
		})

		It("should finish a deployment without cloning", func() {
			// Given
			source := seed("Release", task.CategoryDeployment, task.StageInProgress)

			// When
			result, err := move(source.ID, sysAdminID, "DONE", "")

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(result.PointsAwarded).To(BeTrue())
			Expect(result.Clone).To(BeNil())

			records := db.Records()
			Expect(records).To(HaveLen(2))
			Expect(records[1].Action).To(Equal(audit.ActionDeploymentDone))
			Expect(records[1].TargetID).To(Equal(source.ID))
			Expect(records[1].Detail).To(Equal("Deployment DONE for 'Release'. Task complete."))
		})

		It("should award points for a general task without cloning", func() {
			source := seed("Docs", task.CategoryGeneral, task.StageTodo)

			result, err := move(source.ID, sysAdminID, "DONE", "")

			Expect(err).NotTo(HaveOccurred())
			Expect(result.PointsAwarded).To(BeTrue())
			Expect(result.Clone).To(BeNil())
			Expect(db.Records()[1].Action).To(Equal(audit.ActionGeneralDone))
		})

		It("should award points only once", func() {
			// Given a task that already earned its points
			source := seed("Login page", task.CategoryDevelopment, task.StagePending)
			stored := db.Stored(source.ID)
			stored.PointsEarned = true
			db.Seed(stored)

			// When
			result, err := move(source.ID, sysAdminID, "DONE", "")

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(result.PointsAwarded).To(BeFalse())
			Expect(db.Stored(source.ID).PointsEarned).To(BeTrue())
			Expect(publisher.Types()).NotTo(ContainElement(events.EventTypeTaskPointsAwarded))
		})
	})

	Describe("RequestTransition derived dates", func() {
		It("should set the start date on the first entry into in progress only", func() {
			// Given
			source := seed("Login page", task.CategoryDevelopment, task.StageTodo)

			// When
			_, err := move(source.ID, sysAdminID, "IN_PROGRESS", "")
			Expect(err).NotTo(HaveOccurred())
			_, err = move(source.ID, sysAdminID, "PENDING", "")
			Expect(err).NotTo(HaveOccurred())
			now = now.Add(72 * time.Hour)
			_, err = move(source.ID, sysAdminID, "IN_PROGRESS", "")
			Expect(err).NotTo(HaveOccurred())

			// Then
			stored := db.Stored(source.ID)
			Expect(*stored.StartDate).To(Equal(today))
		})

		It("should give build work a week of testing when it enters testing", func() {
			source := seed("Login page", task.CategoryDevelopment, task.StageTodo)

			_, err := move(source.ID, sysAdminID, "", "TESTING")

			Expect(err).NotTo(HaveOccurred())
			stored := db.Stored(source.ID)
			Expect(*stored.EndDate).To(Equal(today.AddDate(0, 0, 7)))
			Expect(db.Records()[0].Detail).To(Equal("Task 'Login page' moved. Category: DEVELOPMENT → TESTING"))
		})

		It("should keep an existing end date when the task is done", func() {
			// Given
			source := seed("Login page", task.CategoryGeneral, task.StageInProgress)
			stored := db.Stored(source.ID)
			earlier := today.AddDate(0, 0, -2)
			stored.EndDate = &earlier
			db.Seed(stored)

			// When
			_, err := move(source.ID, sysAdminID, "DONE", "")

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(*db.Stored(source.ID).EndDate).To(Equal(earlier))
		})
	})

	Describe("RequestTransition permissions", func() {
		It("should forbid a category move without move_task_categories", func() {
			// Given
			source := seed("Login page", task.CategoryDevelopment, task.StageTodo)

			// When
			_, err := move(source.ID, developerID, "", "TESTING")

			// Then
			Expect(errors.Is(err, internal.ErrForbiddenCategoryMove)).To(BeTrue())
			Expect(db.Records()).To(BeEmpty())
			Expect(db.Stored(source.ID).Version).To(Equal(int64(1)))
			Expect(publisher.events).To(BeEmpty())
		})

		It("should forbid a stage move without move_task_stages", func() {
			source := seed("Login page", task.CategoryDevelopment, task.StageTodo)

			_, err := move(source.ID, stakeholderID, "IN_PROGRESS", "")

			Expect(errors.Is(err, internal.ErrForbiddenStageMove)).To(BeTrue())
		})

		It("should forbid rejecting without reject_testing", func() {
			source := seed("Checkout", task.CategoryTesting, task.StageInProgress)

			_, err := move(source.ID, developerID, "REJECT", "")

			Expect(errors.Is(err, internal.ErrForbiddenReject)).To(BeTrue())
			stored := db.Stored(source.ID)
			Expect(stored.IsClosed).To(BeFalse())
			Expect(stored.Stage).To(Equal(task.StageInProgress))
			Expect(db.Records()).To(BeEmpty())
		})

		It("should honor a per-user override", func() {
			// Given
			actors.actors[developerID].Overrides = map[permission.Capability]bool{
				permission.MoveTaskCategories: true,
			}
			source := seed("Login page", task.CategoryDevelopment, task.StageTodo)

			// When
			result, err := move(source.ID, developerID, "", "IMPROVEMENT")

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Task.Category).To(Equal(task.CategoryImprovement))
		})

		It("should fail for an unknown actor", func() {
			source := seed("Login page", task.CategoryDevelopment, task.StageTodo)

			_, err := move(source.ID, 99, "DONE", "")

			Expect(errors.Is(err, internal.ErrUserNotFound)).To(BeTrue())
		})
	})

	Describe("RequestTransition validation", func() {
		It("should reject REJECT outside of testing", func() {
			source := seed("Login page", task.CategoryDevelopment, task.StageInProgress)

			_, err := move(source.ID, sysAdminID, "REJECT", "")

			Expect(errors.Is(err, internal.ErrRejectOutsideTesting)).To(BeTrue())
			Expect(db.Records()).To(BeEmpty())
		})

		It("should reject unknown stages and categories", func() {
			source := seed("Login page", task.CategoryDevelopment, task.StageTodo)

			_, err := move(source.ID, sysAdminID, "ARCHIVED", "")
			Expect(errors.Is(err, internal.ErrUnknownStage)).To(BeTrue())

			_, err = move(source.ID, sysAdminID, "", "MARKETING")
			Expect(errors.Is(err, internal.ErrUnknownCategory)).To(BeTrue())
		})

		It("should report a missing task", func() {
			_, err := move(404, sysAdminID, "DONE", "")

			Expect(errors.Is(err, internal.ErrTaskNotFound)).To(BeTrue())
		})

		It("should treat a request that changes nothing as a no-op", func() {
			// Given
			source := seed("Login page", task.CategoryDevelopment, task.StageTodo)

			// When
			result, err := move(source.ID, sysAdminID, "TODO", "DEVELOPMENT")

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Changed).To(BeFalse())
			Expect(db.Records()).To(BeEmpty())
			Expect(db.Stored(source.ID).Version).To(Equal(int64(1)))
			Expect(publisher.events).To(BeEmpty())
		})
	})

	Describe("RequestTransition atomicity", func() {
		It("should surface a lost version race as STORAGE_CONFLICT and write nothing", func() {
			// Given
			source := seed("Login page", task.CategoryDevelopment, task.StageInProgress)
			db.failSave = internal.ErrStorageConflict

			// When
			_, err := move(source.ID, sysAdminID, "DONE", "")

			// Then
			Expect(errors.Is(err, internal.ErrStorageConflict)).To(BeTrue())
			Expect(internal.IsRetryable(err)).To(BeTrue())
			Expect(db.Records()).To(BeEmpty())
			Expect(publisher.events).To(BeEmpty())
		})

		It("should roll back the source when the clone cannot be stored", func() {
			// Given
			source := seed("Login page", task.CategoryDevelopment, task.StageInProgress)
			db.failCreate = internal.NewStorageUnavailableError(errors.New("disk full"))

			// When
			_, err := move(source.ID, sysAdminID, "DONE", "")

			// Then
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeStorageUnavailable))

			stored := db.Stored(source.ID)
			Expect(stored.Stage).To(Equal(task.StageInProgress))
			Expect(stored.PointsEarned).To(BeFalse())
			Expect(stored.Version).To(Equal(int64(1)))
			Expect(db.Records()).To(BeEmpty())
		})

		It("should roll back the move when the audit cannot be written", func() {
			source := seed("Docs", task.CategoryGeneral, task.StageTodo)
			db.failRecord = internal.NewStorageUnavailableError(errors.New("audit table locked"))

			_, err := move(source.ID, sysAdminID, "IN_PROGRESS", "")

			Expect(err).To(HaveOccurred())
			Expect(db.Stored(source.ID).Stage).To(Equal(task.StageTodo))
			Expect(db.Stored(source.ID).StartDate).To(BeNil())
		})
	})

	Describe("CreateTask", func() {
		It("should create a task with defaults and audit it", func() {
			// Given
			dto := task.CreateTaskDTO{
				Title:       "  Payment form  ",
				StoryPoints: 3,
				Deadline:    "2025-03-20",
				Assignees:   []int64{developerID, developerID, stakeholderID},
			}

			// When
			created, err := service.CreateTask(ctx, developerID, projectID, dto)

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(created.ID).To(BeNumerically(">", 0))
			Expect(created.Title).To(Equal("Payment form"))
			Expect(created.Category).To(Equal(task.CategoryDevelopment))
			Expect(created.Stage).To(Equal(task.StageTodo))
			Expect(created.Assignees).To(Equal([]int64{developerID, stakeholderID}))
			Expect(*created.Deadline).To(Equal(time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)))

			records := db.Records()
			Expect(records).To(HaveLen(1))
			Expect(records[0].Action).To(Equal(audit.ActionTaskCreated))
			Expect(records[0].Detail).To(Equal("Task 'Payment form' created in Development."))
		})

		It("should require manage_tasks", func() {
			_, err := service.CreateTask(ctx, stakeholderID, projectID, task.CreateTaskDTO{Title: "Nope"})

			Expect(errors.Is(err, internal.ErrForbiddenManageTasks)).To(BeTrue())
		})

		It("should respect project access", func() {
			projects.denied[projectID] = true

			_, err := service.CreateTask(ctx, developerID, projectID, task.CreateTaskDTO{Title: "Nope"})

			Expect(errors.Is(err, internal.ErrForbiddenProjectAccess)).To(BeTrue())
		})

		It("should not create a task straight into REJECT", func() {
			_, err := service.CreateTask(ctx, sysAdminID, projectID, task.CreateTaskDTO{
				Title:    "Nope",
				Category: "TESTING",
				Stage:    "REJECT",
			})

			Expect(errors.Is(err, internal.ErrRejectOutsideTesting)).To(BeTrue())
		})

		It("should reject an invalid payload", func() {
			_, err := service.CreateTask(ctx, sysAdminID, projectID, task.CreateTaskDTO{
				Title:       " ",
				StoryPoints: -1,
			})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
			Expect(db.Records()).To(BeEmpty())
		})
	})

	Describe("ViewTask", func() {
		It("should show an assigned-only viewer a task they are assigned to", func() {
			source := seed("Mine", task.CategoryDevelopment, task.StageTodo)

			t, err := service.ViewTask(ctx, stakeholderID, source.ID)

			Expect(err).NotTo(HaveOccurred())
			Expect(t.Title).To(Equal("Mine"))
		})

		It("should hide other tasks from an assigned-only viewer", func() {
			// Given
			other := db.Stored(seed("Not mine", task.CategoryDevelopment, task.StageTodo).ID)
			other.Assignees = []int64{developerID}
			db.Seed(other)

			// When
			_, err := service.ViewTask(ctx, stakeholderID, other.ID)

			// Then
			Expect(errors.Is(err, internal.ErrForbiddenTaskAccess)).To(BeTrue())
			Expect(service.CheckTaskAccess(ctx, stakeholderID, other.ID)).To(MatchError(internal.ErrForbiddenTaskAccess))
		})

		It("should enforce project access", func() {
			// Given
			source := seed("Login page", task.CategoryDevelopment, task.StageTodo)
			projects.denied[projectID] = true

			// When
			_, err := service.ViewTask(ctx, coordinatorID, source.ID)

			// Then
			Expect(errors.Is(err, internal.ErrForbiddenProjectAccess)).To(BeTrue())
		})

		It("should report a missing task", func() {
			_, err := service.ViewTask(ctx, coordinatorID, 999)

			Expect(errors.Is(err, internal.ErrTaskNotFound)).To(BeTrue())
		})
	})

	Describe("Board", func() {
		It("should group open tasks by stage", func() {
			// Given
			seed("A", task.CategoryDevelopment, task.StageTodo)
			seed("B", task.CategoryDevelopment, task.StageInProgress)
			seed("C", task.CategoryTesting, task.StageTodo)

			// When
			board, err := service.Board(ctx, coordinatorID, projectID, "")

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(board.Category).To(Equal(task.CategoryDevelopment))
			Expect(board.Columns).To(HaveLen(len(task.Stages)))
			Expect(board.Columns[0].Stage).To(Equal(task.StageTodo))
			Expect(board.Columns[0].Tasks).To(HaveLen(1))
			Expect(board.Columns[1].Tasks).To(HaveLen(1))
			Expect(board.Columns[1].Tasks[0].Title).To(Equal("B"))
		})

		It("should show assigned-only viewers just their own tasks", func() {
			// Given
			seed("Mine", task.CategoryDevelopment, task.StageTodo)
			other := db.Stored(seed("Not mine", task.CategoryDevelopment, task.StageTodo).ID)
			other.Assignees = []int64{developerID}
			db.Seed(other)

			// When
			board, err := service.Board(ctx, stakeholderID, projectID, "DEVELOPMENT")

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(board.Columns[0].Tasks).To(HaveLen(1))
			Expect(board.Columns[0].Tasks[0].Title).To(Equal("Mine"))
		})

		It("should reject an unknown lane", func() {
			_, err := service.Board(ctx, coordinatorID, projectID, "MARKETING")

			Expect(errors.Is(err, internal.ErrUnknownCategory)).To(BeTrue())
		})
	})
})
