package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sfawaz/tarhil/internal/formatter"
	"github.com/sfawaz/tarhil/internal/reports"
	"github.com/sfawaz/tarhil/internal/shared"
	"github.com/urfave/cli/v3"
)

func (r *Runner) openArchive() (*sql.DB, *reports.SQLiteSink, error) {
	if r.config.Archive.DatabasePath == "" {
		return nil, nil, fmt.Errorf("%w: archive.database_path is not configured", shared.ErrMissingConfig)
	}

	db, err := shared.NewDatabase(r.config.Archive.DatabasePath)
	if err != nil {
		return nil, nil, err
	}

	sink, err := reports.NewSQLiteSink(db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, sink, nil
}

// SessionsList lists archived migration sessions, most recent first.
func (r *Runner) SessionsList(ctx context.Context, cmd *cli.Command) error {
	db, sink, err := r.openArchive()
	if err != nil {
		return err
	}
	defer db.Close()

	summaries, err := sink.List()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(summaries, true)
	}

	if len(summaries) == 0 {
		r.writePlain("No archived sessions.\n")
		return nil
	}

	for _, s := range summaries {
		r.writePlain("%s  %s  %d/%d playlists, %d tracks added\n",
			s.SessionID,
			s.StartTime.Format("2006-01-02 15:04"),
			s.PlaylistsCreated,
			s.PlaylistsProcessed,
			s.TracksAdded)
	}
	return nil
}

// SessionsShow renders the full archived report of one session.
func (r *Runner) SessionsShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: session id is required", shared.ErrMissingArgument)
	}

	db, sink, err := r.openArchive()
	if err != nil {
		return err
	}
	defer db.Close()

	report, err := sink.Get(id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(report, true)
	}

	r.writePlain("%s\n", formatter.RenderReport(report))
	return nil
}
