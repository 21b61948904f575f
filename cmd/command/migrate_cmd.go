package main

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/orderly-pos/orderly/migrations"
	"github.com/orderly-pos/orderly/pkg/configuration"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect the embedded schema migrations",
	}
	cmd.AddCommand(
		newMigrateStepCmd("up", "Apply all pending migrations", goose.UpContext),
		newMigrateStepCmd("down", "Roll back the latest migration", goose.DownContext),
		newMigrateStepCmd("status", "Print the applied state of every migration", goose.StatusContext),
	)
	return cmd
}

type migrateFunc func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error

func newMigrateStepCmd(use, short string, run migrateFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := configuration.Parse()
			if err != nil {
				return err
			}
			db, err := sql.Open("postgres", conf.Database.Opts)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			goose.SetBaseFS(migrations.FS)
			if err := goose.SetDialect("postgres"); err != nil {
				return err
			}
			logger := conf.Logger()
			if logger.GetLevel() < logrus.InfoLevel {
				logger.SetLevel(logrus.InfoLevel)
			}
			goose.SetLogger(gooseLogger{logger})
			return run(cmd.Context(), db, ".")
		},
	}
}

// gooseLogger routes goose output through logrus at info level.
type gooseLogger struct {
	log *logrus.Logger
}

func (l gooseLogger) Fatalf(format string, v ...any) { l.log.Fatalf(format, v...) }
func (l gooseLogger) Printf(format string, v ...any) { l.log.Infof(format, v...) }
