package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/sfawaz/tarhil/internal/formatter"
	"github.com/sfawaz/tarhil/internal/models"
	"github.com/sfawaz/tarhil/internal/orchestrator"
	"github.com/sfawaz/tarhil/internal/reports"
	"github.com/sfawaz/tarhil/internal/shared"
	"github.com/urfave/cli/v3"
)

// Migrate runs a full migration session over a harvested playlist file,
// streaming progress until the session reaches a terminal state. An
// interrupt stops the session; playlists already created stay in place.
func (r *Runner) Migrate(ctx context.Context, cmd *cli.Command) error {
	file := cmd.StringArg("file")
	if file == "" {
		return fmt.Errorf("%w: playlist file is required", shared.ErrMissingArgument)
	}

	playlists, err := loadPlaylists(file)
	if err != nil {
		return err
	}

	m, err := r.newMatcher()
	if err != nil {
		return err
	}
	creator, err := r.newCreator()
	if err != nil {
		return err
	}

	orch := orchestrator.New(orchestrator.NewRegistry(), m, creator, r.logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessionID, err := orch.Start(context.Background(), playlists, orchestrator.Options{
		SkipReview: cmd.Bool("skip-review"),
	})
	if err != nil {
		return fmt.Errorf("failed to start migration: %w", err)
	}

	go func() {
		<-ctx.Done()
		orch.Stop(sessionID)
	}()

	var last string
	for st := range orch.Watch(context.Background(), sessionID, time.Second) {
		line := formatter.RenderSessionStatus(st)
		if line != last {
			r.writePlain("%s\n", line)
			last = line
		}
	}

	report, err := orch.Report(sessionID)
	if err != nil {
		return err
	}
	if report == nil {
		status, serr := orch.Registry().Snapshot(sessionID)
		if serr != nil {
			return serr
		}
		for _, msg := range status.Errors {
			r.logger.Error("migration error", "err", msg)
		}
		return fmt.Errorf("migration did not complete: %s", status.Status)
	}

	if err := r.archiveReport(report); err != nil {
		r.logger.Warn("failed to archive report", "err", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(report, true)
	}

	r.writePlain("\n%s\n", formatter.RenderReport(report))

	if path := cmd.String("review-csv"); path != "" {
		written, err := formatter.WriteReviewCSV(report, path)
		if err != nil {
			return err
		}
		r.writePlain("Review tracks written to %s\n", written)
	}

	if path := cmd.String("report-md"); path != "" {
		written, err := formatter.WriteMarkdownReport(report, path)
		if err != nil {
			return err
		}
		r.writePlain("Markdown report written to %s\n", written)
	}

	return nil
}

// archiveReport persists the report to every configured sink.
func (r *Runner) archiveReport(report *models.MigrationReport) error {
	var sinks reports.MultiSink

	if r.config.Archive.Path != "" {
		fileSink, err := reports.NewFileSink(r.config.Archive.Path)
		if err != nil {
			return err
		}
		sinks = append(sinks, fileSink)
	}

	if r.config.Archive.DatabasePath != "" {
		db, err := shared.NewDatabase(r.config.Archive.DatabasePath)
		if err != nil {
			return err
		}
		defer db.Close()

		sqliteSink, err := reports.NewSQLiteSink(db)
		if err != nil {
			return err
		}
		sinks = append(sinks, sqliteSink)
	}

	if len(sinks) == 0 {
		return nil
	}
	return sinks.Save(report)
}
