package matcher

import (
	"testing"

	"github.com/sfawaz/tarhil/internal/models"
)

func strategyNames(strategies []strategy) []string {
	names := make([]string, 0, len(strategies))
	for _, s := range strategies {
		names = append(names, s.name)
	}
	return names
}

func TestSearchStrategies(t *testing.T) {
	t.Run("missing title yields no strategies", func(t *testing.T) {
		track := models.NewSourceTrack("", []string{"Frank Ocean"})
		if got := searchStrategies(track); got != nil {
			t.Errorf("expected nil, got %v", strategyNames(got))
		}
	})

	t.Run("missing artist yields no strategies", func(t *testing.T) {
		track := models.NewSourceTrack("Nikes", nil)
		if got := searchStrategies(track); got != nil {
			t.Errorf("expected nil, got %v", strategyNames(got))
		}
	})

	t.Run("standard cascade order", func(t *testing.T) {
		track := models.NewSourceTrack("Pink + White", []string{"Frank Ocean"})
		got := strategyNames(searchStrategies(track))

		want := []string{"exact_fields", "exact_quoted", "normalized_fields", "broad_search", "title_only"}
		if len(got) != len(want) {
			t.Fatalf("strategies = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("strategy[%d] = %q, want %q", i, got[i], want[i])
			}
		}
	})

	t.Run("decorated title adds main_title before broad_search", func(t *testing.T) {
		track := models.NewSourceTrack("Slide (feat. Frank Ocean)", []string{"Calvin Harris"})
		got := strategyNames(searchStrategies(track))

		mainIdx, broadIdx := -1, -1
		for i, name := range got {
			switch name {
			case "main_title":
				mainIdx = i
			case "broad_search":
				broadIdx = i
			}
		}
		if mainIdx == -1 {
			t.Fatalf("main_title missing from %v", got)
		}
		if broadIdx == -1 || mainIdx > broadIdx {
			t.Errorf("main_title at %d should precede broad_search at %d", mainIdx, broadIdx)
		}
	})

	t.Run("short clean title adds artist_only, skips title_only", func(t *testing.T) {
		track := models.NewSourceTrack("Us", []string{"Frank Ocean"})
		got := strategyNames(searchStrategies(track))

		hasArtistOnly, hasTitleOnly := false, false
		for _, name := range got {
			switch name {
			case "artist_only":
				hasArtistOnly = true
			case "title_only":
				hasTitleOnly = true
			}
		}
		if !hasArtistOnly {
			t.Errorf("expected artist_only for short title, got %v", got)
		}
		if hasTitleOnly {
			t.Errorf("unexpected title_only for short title, got %v", got)
		}
	})

	t.Run("three rune title gets neither artist_only nor title_only", func(t *testing.T) {
		track := models.NewSourceTrack("Ivy", []string{"Frank Ocean"})
		got := strategyNames(searchStrategies(track))

		for _, name := range got {
			if name == "artist_only" || name == "title_only" {
				t.Errorf("unexpected %s for three rune title", name)
			}
		}
	})

	t.Run("queries quote fields", func(t *testing.T) {
		track := models.NewSourceTrack("Nikes", []string{"Frank Ocean"})
		strategies := searchStrategies(track)

		if strategies[0].query != `track:"Nikes" artist:"Frank Ocean"` {
			t.Errorf("exact_fields query = %q", strategies[0].query)
		}
		if strategies[1].query != `"Nikes" "Frank Ocean"` {
			t.Errorf("exact_quoted query = %q", strategies[1].query)
		}
	})
}
