package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"medimate-backend/internal/config"
	"medimate-backend/internal/database"
	"medimate-backend/internal/logger"
	"medimate-backend/internal/repository"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	app := &cli.App{
		Name:  "medimate-migrate",
		Usage: "Manage the MediMate hosted database schema",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Timeout for database operations",
				Value: 30 * time.Second,
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "apply",
				Usage:  "Create all tables and indexes on the hosted database",
				Action: applyCommand,
			},
			{
				Name:   "probe",
				Usage:  "Report which store backend the server would select",
				Action: probeCommand,
			},
			{
				Name:   "print",
				Usage:  "Print the schema DDL to stdout",
				Action: printCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(c *cli.Context) (*zap.Logger, error) {
	return logger.NewLogger(c.String("log-level"), "console", "medimate-migrate")
}

func applyCommand(c *cli.Context) error {
	cfg := config.Load()
	if !cfg.Supabase.Configured() {
		return fmt.Errorf("SUPABASE_URL and SUPABASE_KEY are required")
	}
	log, err := newLogger(c)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
	defer cancel()

	db, err := database.NewPostgresDB(ctx, cfg.Supabase)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := repository.ApplySchema(ctx, db); err != nil {
		return err
	}
	log.Info("schema applied")
	return nil
}

func probeCommand(c *cli.Context) error {
	cfg := config.Load()
	log, err := newLogger(c)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
	defer cancel()

	selection := repository.Open(ctx, cfg.Supabase, log)
	defer selection.Close()
	fmt.Fprintln(c.App.Writer, selection.Backend)
	return nil
}

func printCommand(c *cli.Context) error {
	_, err := fmt.Fprint(c.App.Writer, repository.Schema())
	return err
}
