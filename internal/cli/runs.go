package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shaiso/Careerflow/internal/domain"
	"github.com/shaiso/Careerflow/internal/repo"
)

// NewRunsCmd создаёт группу команд для просмотра runs.
func NewRunsCmd(backendFn BackendFunc, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect submitted runs",
	}

	cmd.AddCommand(
		newRunsListCmd(backendFn, outputFn),
		newRunsShowCmd(backendFn, outputFn),
	)

	return cmd
}

func newRunsListCmd(backendFn BackendFunc, outputFn func() *Output) *cobra.Command {
	var (
		status string
		limit  int
		offset int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			filter := repo.RunFilter{Limit: limit, Offset: offset}
			if status != "" {
				st, err := domain.ParseRunStatus(status)
				if err != nil {
					return err
				}
				filter.Status = st
			}

			return withBackend(cmd.Context(), backendFn, func(b *Backend) error {
				runs, err := b.Runs.List(cmd.Context(), filter)
				if err != nil {
					return err
				}

				headers := []string{"ID", "STATUS", "FAILED_ROLE", "DURATION", "CREATED"}
				rows := make([][]string, len(runs))
				for i, r := range runs {
					rows[i] = []string{
						r.ID.String(),
						string(r.Status),
						dash(r.FailedRole),
						formatDuration(r.Duration()),
						formatTime(&r.CreatedAt),
					}
				}

				if runs == nil {
					runs = []domain.Run{}
				}
				return out.Print(headers, rows, runs)
			})
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (PENDING, RUNNING, SUCCEEDED, FAILED)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of results to skip")

	return cmd
}

// runDetails — run вместе с задачами (для --json).
type runDetails struct {
	*domain.Run
	Tasks []domain.Task `json:"tasks"`
}

func newRunsShowCmd(backendFn BackendFunc, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Show run details, tasks and result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid run id %q: %w", args[0], err)
			}

			return withBackend(cmd.Context(), backendFn, func(b *Backend) error {
				run, err := b.Runs.GetByID(cmd.Context(), id)
				if errors.Is(err, repo.ErrNotFound) {
					return fmt.Errorf("run %s not found", id)
				}
				if err != nil {
					return err
				}

				var tasks []domain.Task
				if b.Tasks != nil {
					if tasks, err = b.Tasks.ListByRunID(cmd.Context(), id); err != nil {
						return err
					}
				}

				if out.JSONMode() {
					if tasks == nil {
						tasks = []domain.Task{}
					}
					return out.JSON(runDetails{Run: run, Tasks: tasks})
				}
				return printRun(out, run, tasks)
			})
		},
	}
}

func printRun(out *Output, run *domain.Run, tasks []domain.Task) error {
	err := out.KeyValues([][2]string{
		{"ID", run.ID.String()},
		{"Status", string(run.Status)},
		{"Created", formatTime(&run.CreatedAt)},
		{"Started", formatTime(run.StartedAt)},
		{"Finished", formatTime(run.FinishedAt)},
		{"Duration", formatDuration(run.Duration())},
		{"Failed role", dash(run.FailedRole)},
		{"Error", dash(run.Error)},
	})
	if err != nil {
		return err
	}

	if len(tasks) > 0 {
		out.Heading("Tasks")
		rows := make([][]string, len(tasks))
		for i, t := range tasks {
			rows[i] = []string{
				strconv.Itoa(t.Index),
				t.Role.Title(),
				string(t.Status),
				formatDuration(t.Duration()),
				dash(firstNonEmpty(t.Error, previewOf(t))),
			}
		}
		if err := out.Table([]string{"#", "ROLE", "STATUS", "DURATION", "OUTPUT"}, rows); err != nil {
			return err
		}
	}

	if run.Result != nil {
		return printResult(out, run.Result)
	}
	return nil
}

func previewOf(t domain.Task) string {
	return domain.Preview(t.OutputText())
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Millisecond).String()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
