package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/frahmantamala/project-management/internal"
	"github.com/frahmantamala/project-management/internal/audit"
	"github.com/frahmantamala/project-management/internal/task"
	"github.com/jedib0t/go-pretty/v6/table"
)

type transitioner interface {
	RequestTransition(ctx context.Context, req task.TransitionRequest) (*task.TransitionResult, error)
}

func newMoveBackOff(ctx context.Context, maxRetries int) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(maxRetries)), ctx)
}

// moveWithRetry retries storage conflicts only. Every other error, validation
// and permission failures included, is returned on the first attempt.
func moveWithRetry(ctx context.Context, svc transitioner, req task.TransitionRequest, b backoff.BackOff, logger *slog.Logger) (*task.TransitionResult, int, error) {
	var (
		result   *task.TransitionResult
		attempts int
	)

	op := func() error {
		attempts++
		res, err := svc.RequestTransition(ctx, req)
		if err == nil {
			result = res
			return nil
		}
		if internal.IsRetryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	notify := func(err error, wait time.Duration) {
		logger.Warn("task move conflicted, retrying",
			"task_id", req.TaskID,
			"attempt", attempts,
			"wait_ms", wait.Milliseconds(),
			"error", err)
	}

	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return nil, attempts, err
	}
	return result, attempts, nil
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func dateOrDash(d *time.Time) string {
	if d == nil {
		return "-"
	}
	return d.Format("2006-01-02")
}

func idOrDash(id *int64) string {
	if id == nil {
		return "-"
	}
	return fmt.Sprintf("#%d", *id)
}

func renderMoveResult(w io.Writer, result *task.TransitionResult, attempts int) {
	t := newTable(w)
	t.SetTitle(fmt.Sprintf("Task #%d", result.Task.ID))
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRows([]table.Row{
		{"Changed", result.Changed},
		{"Stage", result.Task.Stage.Label()},
		{"Category", result.Task.Category.Label()},
		{"Closed", result.Task.IsClosed},
		{"Points awarded", result.PointsAwarded},
		{"Attempts", attempts},
	})
	if result.Clone != nil {
		t.AppendRow(table.Row{"Created", fmt.Sprintf("#%d in %s", result.Clone.ID, result.Clone.Category.Label())})
	}
	t.Render()
}

func renderTask(w io.Writer, tk *task.Task, now time.Time) {
	d := task.NewTaskDetailResponse(tk, now)

	assignees := make([]string, len(tk.Assignees))
	for i, id := range tk.Assignees {
		assignees[i] = fmt.Sprintf("#%d", id)
	}

	t := newTable(w)
	t.SetTitle(fmt.Sprintf("Task #%d: %s", tk.ID, tk.Title))
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRows([]table.Row{
		{"Category", d.CategoryLabel},
		{"Stage", d.StageLabel},
		{"Status", d.StageStatus},
		{"Story points", tk.StoryPoints},
		{"Points earned", tk.PointsEarned},
		{"Deadline", dateOrDash(tk.Deadline)},
		{"Due", d.DueStatus},
		{"Start", dateOrDash(tk.StartDate)},
		{"End", dateOrDash(tk.EndDate)},
		{"On time", d.OnTimeStatus},
		{"Parent", idOrDash(tk.ParentTaskID)},
		{"Assignees", strings.Join(assignees, ", ")},
		{"Version", tk.Version},
	})
	t.Render()
}

func renderHistory(w io.Writer, taskID int64, records []*audit.Record) {
	t := newTable(w)
	t.SetTitle(fmt.Sprintf("Audit history of task #%d", taskID))
	t.AppendHeader(table.Row{"#", "When", "Actor", "Action", "Detail"})
	for _, r := range records {
		t.AppendRow(table.Row{r.ID, r.Timestamp.Format(time.RFC3339), idOrDash(r.ActorID), r.Action, r.Detail})
	}
	t.AppendFooter(table.Row{"", "", "", "Total", len(records)})
	t.Render()
}

func renderBoard(w io.Writer, board *task.Board) {
	t := newTable(w)
	t.SetTitle(fmt.Sprintf("Project #%d: %s", board.ProjectID, board.Category.Label()))
	t.AppendHeader(table.Row{"Stage", "Task", "Title", "Points", "Deadline"})
	total := 0
	for _, col := range board.Columns {
		for _, tk := range col.Tasks {
			t.AppendRow(table.Row{col.Label, fmt.Sprintf("#%d", tk.ID), tk.Title, tk.StoryPoints, dateOrDash(tk.Deadline)})
			total++
		}
	}
	t.AppendFooter(table.Row{"", "", "Open tasks", total, ""})
	t.Render()
}
