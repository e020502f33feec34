package matcher

import (
	"fmt"

	"github.com/sfawaz/tarhil/internal/models"
	"github.com/sfawaz/tarhil/internal/textutil"
)

// strategy pairs a named query approach with the query it issues.
type strategy struct {
	name  string
	query string
}

// searchStrategies generates the ordered query cascade for a track, from
// most precise to broadest. Returns nothing when title or primary artist is
// missing.
func searchStrategies(track models.SourceTrack) []strategy {
	title := track.Title
	artist := track.PrimaryArtist()

	if title == "" || artist == "" {
		return nil
	}

	strategies := []strategy{
		{"exact_fields", fmt.Sprintf("track:%q artist:%q", title, artist)},
		{"exact_quoted", fmt.Sprintf("%q %q", title, artist)},
	}

	cleanTitle := textutil.CleanForSearch(title)
	cleanArtist := textutil.CleanForSearch(artist)
	if cleanTitle != "" && cleanArtist != "" {
		strategies = append(strategies, strategy{
			"normalized_fields",
			fmt.Sprintf("track:%q artist:%q", cleanTitle, cleanArtist),
		})
	}

	if mainTitle := textutil.ExtractMainTitle(title); mainTitle != "" && mainTitle != title {
		strategies = append(strategies, strategy{
			"main_title",
			fmt.Sprintf("track:%q artist:%q", mainTitle, artist),
		})
	}

	strategies = append(strategies, strategy{
		"broad_search",
		fmt.Sprintf("%s %s", cleanTitle, cleanArtist),
	})

	// Very short titles carry no signal; lean on the artist instead.
	if len([]rune(cleanTitle)) < 3 {
		strategies = append(strategies, strategy{
			"artist_only",
			fmt.Sprintf("artist:%q", cleanArtist),
		})
	}

	if len([]rune(cleanTitle)) > 3 {
		strategies = append(strategies, strategy{
			"title_only",
			fmt.Sprintf("track:%q", cleanTitle),
		})
	}

	return strategies
}
