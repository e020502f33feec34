package reports

import (
	"testing"
	"time"

	"github.com/sfawaz/tarhil/internal/shared"
)

func newTestSink(t *testing.T) *SQLiteSink {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	sink, err := NewSQLiteSink(db)
	if err != nil {
		t.Fatalf("failed to create sink: %v", err)
	}
	return sink
}

func TestSQLiteSink(t *testing.T) {
	t.Run("save and get roundtrip", func(t *testing.T) {
		sink := newTestSink(t)
		report := sampleReport("sess1")

		if err := sink.Save(report); err != nil {
			t.Fatalf("save failed: %v", err)
		}

		loaded, err := sink.Get("sess1")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if loaded.SessionID != "sess1" {
			t.Errorf("session id = %q", loaded.SessionID)
		}
		if loaded.PlaylistsCreated != 1 || loaded.PlaylistsFailed != 1 {
			t.Errorf("created/failed = %d/%d, want 1/1", loaded.PlaylistsCreated, loaded.PlaylistsFailed)
		}
		if len(loaded.PlaylistResults) != 2 {
			t.Fatalf("playlist results = %d, want 2", len(loaded.PlaylistResults))
		}
		if loaded.PlaylistResults[0].SourcePlaylist.Name != "Summer Mix" {
			t.Errorf("first result = %q, order not preserved", loaded.PlaylistResults[0].SourcePlaylist.Name)
		}
		if loaded.PlaylistResults[1].ErrorMessage != "forbidden" {
			t.Errorf("error message = %q", loaded.PlaylistResults[1].ErrorMessage)
		}
	})

	t.Run("get unknown session fails", func(t *testing.T) {
		sink := newTestSink(t)
		if _, err := sink.Get("nope"); err == nil {
			t.Error("expected error for unknown session")
		}
	})

	t.Run("saving twice overwrites", func(t *testing.T) {
		sink := newTestSink(t)
		report := sampleReport("sess1")

		if err := sink.Save(report); err != nil {
			t.Fatalf("first save failed: %v", err)
		}

		report.TotalTracksAdded = 99
		report.PlaylistResults = report.PlaylistResults[:1]
		if err := sink.Save(report); err != nil {
			t.Fatalf("second save failed: %v", err)
		}

		loaded, err := sink.Get("sess1")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if loaded.TotalTracksAdded != 99 {
			t.Errorf("tracks added = %d, want 99", loaded.TotalTracksAdded)
		}
		if len(loaded.PlaylistResults) != 1 {
			t.Errorf("playlist results = %d, want 1 after overwrite", len(loaded.PlaylistResults))
		}

		summaries, err := sink.List()
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(summaries) != 1 {
			t.Errorf("sessions = %d, want 1", len(summaries))
		}
	})

	t.Run("list orders most recent first", func(t *testing.T) {
		sink := newTestSink(t)

		older := sampleReport("older")
		newer := sampleReport("newer")
		newer.StartTime = older.StartTime.Add(time.Hour)

		if err := sink.Save(older); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		if err := sink.Save(newer); err != nil {
			t.Fatalf("save failed: %v", err)
		}

		summaries, err := sink.List()
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(summaries) != 2 {
			t.Fatalf("sessions = %d, want 2", len(summaries))
		}
		if summaries[0].SessionID != "newer" {
			t.Errorf("first session = %q, want newer", summaries[0].SessionID)
		}
	})
}
