package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shaiso/Careerflow/internal/domain"
)

// NewSubmitCmd создаёт команду постановки резюме в очередь воркеров.
func NewSubmitCmd(backendFn BackendFunc, outputFn func() *Output) *cobra.Command {
	var resumePath string

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Queue a resume for processing by workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			resume, err := readResume(resumePath, cmd.InOrStdin())
			if err != nil {
				return err
			}

			return withBackend(cmd.Context(), backendFn, func(b *Backend) error {
				run := domain.NewRun(resume)
				if err := b.Runs.Create(cmd.Context(), run); err != nil {
					return err
				}

				if b.Publisher != nil {
					if err := b.Publisher.PublishResumePending(cmd.Context(), run.ID); err != nil {
						// Run уже в БД: воркер заберёт его через polling
						out.Error(fmt.Sprintf("publish resume.pending: %v (run will be picked up by polling)", err))
					}
				}

				out.Success(fmt.Sprintf("Run %s submitted", run.ID))
				return out.Print(
					[]string{"ID", "STATUS", "CREATED"},
					[][]string{{run.ID.String(), string(run.Status), formatTime(&run.CreatedAt)}},
					run,
				)
			})
		},
	}

	cmd.Flags().StringVarP(&resumePath, "resume", "r", "", "Resume file (\"-\" for stdin)")
	_ = cmd.MarkFlagRequired("resume")

	return cmd
}
