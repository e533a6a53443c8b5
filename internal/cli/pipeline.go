package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/Careerflow/internal/domain"
	"github.com/shaiso/Careerflow/internal/engine"
	"github.com/shaiso/Careerflow/internal/orchestrator"
)

// NewRunCmd создаёт команду локального выполнения pipeline.
func NewRunCmd(engineFn EngineFunc, outputFn func() *Output) *cobra.Command {
	var (
		resumePath     string
		definitionPath string
		workers        int
		quiet          bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the resume pipeline locally",
		Long: `Runs the multi-agent pipeline for a resume in this process.

Progress is printed to stderr, the aggregated result to stdout.
A custom task graph can be supplied with --definition (JSON).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			resume, err := readResume(resumePath, cmd.InOrStdin())
			if err != nil {
				return err
			}

			p, err := buildPipeline(resume, definitionPath)
			if err != nil {
				return err
			}

			eng, err := engineFn()
			if err != nil {
				return err
			}

			var reporter orchestrator.Reporter = orchestrator.NopReporter{}
			if !quiet {
				reporter = orchestrator.NewConsoleReporter(out.ErrWriter())
			}

			orch := orchestrator.New(orchestrator.Config{
				Engine:   eng,
				Workers:  workers,
				Reporter: reporter,
			})

			result, err := orch.Run(cmd.Context(), p)
			if err != nil {
				return err
			}
			return printResult(out, result)
		},
	}

	cmd.Flags().StringVarP(&resumePath, "resume", "r", "", "Resume file (\"-\" for stdin)")
	cmd.Flags().StringVar(&definitionPath, "definition", "", "Custom task graph (JSON)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 1, "Tasks executed in parallel")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print progress")
	_ = cmd.MarkFlagRequired("resume")

	return cmd
}

// buildPipeline строит стандартный pipeline или pipeline из JSON-описания.
func buildPipeline(resume, definitionPath string) (*orchestrator.Pipeline, error) {
	if definitionPath == "" {
		return orchestrator.BuildPipeline(resume)
	}

	data, err := os.ReadFile(definitionPath)
	if err != nil {
		return nil, fmt.Errorf("read definition: %w", err)
	}
	def, err := engine.Parse(data)
	if err != nil {
		return nil, err
	}
	specs, err := def.Specs(resume)
	if err != nil {
		return nil, err
	}
	return orchestrator.NewPipeline(specs)
}

// printResult выводит агрегированный результат.
func printResult(out *Output, res *domain.Result) error {
	if out.JSONMode() {
		return out.JSON(res)
	}

	out.Section("Career analysis", res.CareerAnalysis)
	out.Section("Job recommendations", res.JobRecommendations)
	out.Section("Optimized resume", res.OptimizedResume)
	out.Section("Interview preparation", res.InterviewPrep)
	out.Section("Mock interview", res.MockInterview)
	out.Heading("Execution log")

	rows := make([][]string, len(res.ExecutionLog))
	for i, e := range res.ExecutionLog {
		rows[i] = []string{e.Role, e.Status, e.Duration.Round(time.Millisecond).String(), firstNonEmpty(e.Error, e.OutputPreview)}
	}
	return out.Table([]string{"ROLE", "STATUS", "DURATION", "PREVIEW"}, rows)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
