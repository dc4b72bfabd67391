package task_test

import (
	"errors"
	"time"

	"github.com/frahmantamala/project-management/internal"
	"github.com/frahmantamala/project-management/internal/task"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

var _ = Describe("Validate", func() {
	var current *task.Task

	BeforeEach(func() {
		current = &task.Task{ID: 1, Category: task.CategoryDevelopment, Stage: task.StageTodo}
	})

	It("should allow any known stage and category", func() {
		for _, st := range task.Stages {
			if st == task.StageReject {
				continue
			}
			for _, c := range task.Categories {
				Expect(task.Validate(current, string(st), string(c))).To(Succeed())
			}
		}
	})

	It("should allow an empty request", func() {
		Expect(task.Validate(current, "", "")).To(Succeed())
	})

	It("should check the closed flag first", func() {
		current.IsClosed = true

		err := task.Validate(current, "NOPE", "")

		Expect(errors.Is(err, internal.ErrTaskClosed)).To(BeTrue())
	})

	It("should allow REJECT when the same request moves the task into testing", func() {
		Expect(task.Validate(current, "REJECT", "TESTING")).To(Succeed())
	})

	It("should refuse REJECT when the task ends up outside testing", func() {
		current.Category = task.CategoryTesting

		err := task.Validate(current, "REJECT", "DEVELOPMENT")

		Expect(errors.Is(err, internal.ErrRejectOutsideTesting)).To(BeTrue())
	})

	It("should be case sensitive", func() {
		err := task.Validate(current, "done", "")

		Expect(errors.Is(err, internal.ErrUnknownStage)).To(BeTrue())
	})
})

var _ = Describe("Task", func() {
	var now time.Time

	BeforeEach(func() {
		now = time.Date(2025, 3, 10, 17, 0, 0, 0, time.UTC)
	})

	Describe("AwardPointsOnce", func() {
		It("should only report the first award", func() {
			t := &task.Task{}

			Expect(t.AwardPointsOnce()).To(BeTrue())
			Expect(t.AwardPointsOnce()).To(BeFalse())
			Expect(t.PointsEarned).To(BeTrue())
		})
	})

	Describe("DueStatus", func() {
		DescribeTable("compares the deadline by calendar day",
			func(deadline *time.Time, stage task.Stage, expected string) {
				t := &task.Task{Deadline: deadline, Stage: stage}
				Expect(t.DueStatus(now)).To(Equal(expected))
			},
			Entry("no deadline", nil, task.StageTodo, task.DueStatusNoDeadline),
			Entry("yesterday", datePtr(2025, 3, 9), task.StageTodo, task.DueStatusOverdue),
			Entry("today", datePtr(2025, 3, 10), task.StageInProgress, task.DueStatusDueToday),
			Entry("in three days", datePtr(2025, 3, 13), task.StageTodo, task.DueStatusDueSoon),
			Entry("next month", datePtr(2025, 4, 10), task.StageTodo, task.DueStatusOnTrack),
			Entry("done overdue work", datePtr(2025, 3, 1), task.StageDone, task.DueStatusCompleted),
		)
	})

	Describe("OnTimeStatus", func() {
		It("should stay pending until the task is done", func() {
			t := &task.Task{Stage: task.StageInProgress, Deadline: datePtr(2025, 3, 1), EndDate: datePtr(2025, 3, 5)}
			Expect(t.OnTimeStatus()).To(Equal(task.OnTimePending))
		})

		It("should compare the end date with the deadline", func() {
			late := &task.Task{Stage: task.StageDone, Deadline: datePtr(2025, 3, 1), EndDate: datePtr(2025, 3, 5)}
			onTime := &task.Task{Stage: task.StageDone, Deadline: datePtr(2025, 3, 5), EndDate: datePtr(2025, 3, 5)}

			Expect(late.OnTimeStatus()).To(Equal(task.OnTimeLate))
			Expect(onTime.OnTimeStatus()).To(Equal(task.OnTimeOnTime))
		})
	})

	Describe("StageStatus", func() {
		It("should prefer closed over the stage", func() {
			t := &task.Task{Stage: task.StageReject, IsClosed: true}
			Expect(t.StageStatus()).To(Equal(task.StageStatusClosed))
		})

		It("should map stages", func() {
			Expect((&task.Task{Stage: task.StageReject}).StageStatus()).To(Equal(task.StageStatusRejected))
			Expect((&task.Task{Stage: task.StageDone}).StageStatus()).To(Equal(task.StageStatusCompleted))
			Expect((&task.Task{Stage: task.StagePending}).StageStatus()).To(Equal(task.StageStatusActive))
		})
	})

	Describe("labels", func() {
		It("should label known values and echo unknown ones", func() {
			Expect(task.StageHavingIssues.Label()).To(Equal("Having Issues"))
			Expect(task.CategoryImprovement.Label()).To(Equal("Improvement"))
			Expect(task.Stage("ARCHIVED").Label()).To(Equal("ARCHIVED"))
		})

		It("should treat only build categories as build work", func() {
			Expect(task.CategoryImplementation.IsBuild()).To(BeTrue())
			Expect(task.CategoryTesting.IsBuild()).To(BeFalse())
			Expect(task.CategoryGeneral.IsBuild()).To(BeFalse())
		})
	})

	Describe("data model mapping", func() {
		It("should keep original category and assignees", func() {
			t := &task.Task{
				ID:               4,
				Title:            "Login page",
				Category:         task.CategoryTesting,
				Stage:            task.StageTodo,
				OriginalCategory: task.CategoryImprovement,
				Version:          3,
			}

			back := task.FromDataModel(task.ToDataModel(t), []int64{9, 2})

			Expect(back.OriginalCategory).To(Equal(task.CategoryImprovement))
			Expect(back.Assignees).To(Equal([]int64{9, 2}))
			Expect(back.Version).To(Equal(int64(3)))
		})
	})
})
