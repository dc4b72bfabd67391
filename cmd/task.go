package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/frahmantamala/project-management/internal/task"
	"github.com/spf13/cobra"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Inspect and move tasks directly against the database",
}

var (
	moveActorID    int64
	moveStage      string
	moveCategory   string
	moveMaxRetries int
	boardActorID   int64
	boardCategory  string
	auditLimit     int
)

var taskMoveCmd = &cobra.Command{
	Use:   "move <id>",
	Short: "Request a stage and/or category transition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		taskID, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, app *App) error {
			req := task.TransitionRequest{
				TaskID:   taskID,
				ActorID:  moveActorID,
				Stage:    moveStage,
				Category: moveCategory,
			}
			result, attempts, err := moveWithRetry(ctx, app.Tasks, req, newMoveBackOff(ctx, moveMaxRetries), app.Logger)
			if err != nil {
				return err
			}
			renderMoveResult(cmd.OutOrStdout(), result, attempts)
			return nil
		})
	},
}

var taskShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a task with its derived statuses",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		taskID, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, app *App) error {
			t, err := app.Tasks.GetTask(ctx, taskID)
			if err != nil {
				return err
			}
			renderTask(cmd.OutOrStdout(), t, task.SystemClock.Now())
			return nil
		})
	},
}

var taskAuditCmd = &cobra.Command{
	Use:   "audit <id>",
	Short: "Show the audit history of a task, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		taskID, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, app *App) error {
			records, err := app.Audit.TaskHistory(ctx, taskID, auditLimit)
			if err != nil {
				return err
			}
			renderHistory(cmd.OutOrStdout(), taskID, records)
			return nil
		})
	},
}

var taskBoardCmd = &cobra.Command{
	Use:   "board <projectID>",
	Short: "Show the open tasks of one project category by stage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, app *App) error {
			board, err := app.Tasks.Board(ctx, boardActorID, projectID, boardCategory)
			if err != nil {
				return err
			}
			renderBoard(cmd.OutOrStdout(), board)
			return nil
		})
	},
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer closeWithTimeout(ctx, app)
	return fn(ctx, app)
}

func init() {
	taskMoveCmd.Flags().Int64Var(&moveActorID, "actor", 0, "id of the acting user")
	taskMoveCmd.Flags().StringVar(&moveStage, "stage", "", "target stage, e.g. IN_PROGRESS")
	taskMoveCmd.Flags().StringVar(&moveCategory, "category", "", "target category, e.g. TESTING")
	taskMoveCmd.Flags().IntVar(&moveMaxRetries, "max-retries", 3, "retries on concurrent modification")
	_ = taskMoveCmd.MarkFlagRequired("actor")

	taskAuditCmd.Flags().IntVar(&auditLimit, "limit", 50, "maximum number of records")

	taskBoardCmd.Flags().Int64Var(&boardActorID, "actor", 0, "id of the viewing user")
	taskBoardCmd.Flags().StringVar(&boardCategory, "category", "", "board category (default DEVELOPMENT)")
	_ = taskBoardCmd.MarkFlagRequired("actor")

	taskCmd.AddCommand(taskMoveCmd, taskShowCmd, taskAuditCmd, taskBoardCmd)
}
