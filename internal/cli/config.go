package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shaiso/Careerflow/internal/aiengine"
)

// NewConfigCmd создаёт команду вывода конфигурации AI-движка (без ключа).
func NewConfigCmd(configFn func() aiengine.Config, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the AI engine configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()
			pub := configFn().Public()

			if out.JSONMode() {
				return out.JSON(pub)
			}
			return out.KeyValues([][2]string{
				{"Provider", pub.Provider},
				{"Upstream", pub.Upstream},
				{"Base URL", dash(pub.BaseURL)},
				{"Model", pub.Model},
				{"API key configured", fmt.Sprint(pub.APIKeyConfigured)},
			})
		},
	}
}

// NewMigrateCmd создаёт команду применения миграций БД.
func NewMigrateCmd(dsnFn func() string, migrate func(dsn string) (uint, error), outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := migrate(dsnFn())
			if err != nil {
				return err
			}
			outputFn().Success(fmt.Sprintf("Database schema at version %d", version))
			return nil
		},
	}
}
