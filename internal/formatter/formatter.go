// package formatter renders migration results for the terminal and exports
// them to CSV and Markdown for offline review.
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sfawaz/tarhil/internal/models"
)

var styles = newPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// palette is a simple stylesheet built with named [lipgloss.Style] fields.
type palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func newPalette(t, s, e, w, h string) *palette {
	bold := func(fg string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(fg)).Bold(true)
	}
	return &palette{
		title: bold(t).MarginBottom(1),
		ok:    bold(s),
		err:   bold(e),
		warn:  lipgloss.NewStyle().Foreground(lipgloss.Color(w)),
		help:  lipgloss.NewStyle().Foreground(lipgloss.Color(h)).Italic(true),
	}
}

// RenderMatch renders one match result as a single status line.
func RenderMatch(result models.MatchResult) string {
	track := fmt.Sprintf("%s - %s", result.SourceTrack.PrimaryArtist(), result.SourceTrack.Title)

	switch {
	case result.ErrorMessage != "":
		return styles.err.Render("✗ "+track) + styles.help.Render(" ("+result.ErrorMessage+")")
	case !result.HasMatch():
		return styles.err.Render("✗ " + track)
	case result.RequiresReview:
		return styles.warn.Render(fmt.Sprintf("? %s (%.0f%%)", track, result.Confidence()*100))
	default:
		return styles.ok.Render(fmt.Sprintf("✓ %s (%.0f%%)", track, result.Confidence()*100))
	}
}

// RenderReport renders a full migration report summary.
func RenderReport(report *models.MigrationReport) string {
	var b strings.Builder

	b.WriteString(styles.title.Render("Migration Report") + "\n")
	b.WriteString(styles.help.Render("Session: "+report.SessionID) + "\n\n")

	b.WriteString(fmt.Sprintf("Playlists: %d processed, %s, %s\n",
		report.PlaylistsProcessed,
		styles.ok.Render(fmt.Sprintf("%d created", report.PlaylistsCreated)),
		renderFailed(report.PlaylistsFailed)))

	b.WriteString(fmt.Sprintf("Tracks: %d processed, %s, %s, %s\n",
		report.TotalTracksProcessed,
		styles.ok.Render(fmt.Sprintf("%d added", report.TotalTracksAdded)),
		renderFailed(report.TotalTracksFailed),
		styles.warn.Render(fmt.Sprintf("%d for review", report.TotalTracksReview))))

	if report.ArabicTracksProcessed > 0 {
		b.WriteString(fmt.Sprintf("Arabic tracks: %d processed, %s\n",
			report.ArabicTracksProcessed,
			styles.ok.Render(fmt.Sprintf("%d added", report.ArabicTracksAdded))))
	}

	b.WriteString(fmt.Sprintf("Cover art uploads: %d\n", report.CoverArtUploads))
	b.WriteString(fmt.Sprintf("Duration: %ds, success rate %.1f%%\n", report.DurationSeconds(), report.SuccessRate()))

	for _, pr := range report.PlaylistResults {
		b.WriteString("\n")
		b.WriteString(renderPlaylistResult(pr))
	}

	return b.String()
}

func renderFailed(n int) string {
	s := fmt.Sprintf("%d failed", n)
	if n > 0 {
		return styles.err.Render(s)
	}
	return s
}

func renderPlaylistResult(pr models.PlaylistCreationResult) string {
	var b strings.Builder

	if pr.Success() {
		b.WriteString(styles.ok.Render("✓ "+pr.SourcePlaylist.Name) + "\n")
		b.WriteString(styles.help.Render("  "+pr.PlaylistURL) + "\n")
	} else {
		b.WriteString(styles.err.Render("✗ "+pr.SourcePlaylist.Name) + "\n")
		b.WriteString(styles.err.Render("  "+pr.ErrorMessage) + "\n")
		return b.String()
	}

	b.WriteString(fmt.Sprintf("  %d added, %d failed, %d for review\n", pr.TracksAdded, pr.TracksFailed, pr.TracksSkippedReview))

	for _, rt := range pr.ReviewTracks {
		line := fmt.Sprintf("  ? %s - %s", rt.Track.PrimaryArtist(), rt.Track.Title)
		if rt.Candidate != nil {
			line += fmt.Sprintf(" → %s - %s (%.0f%%)", rt.Candidate.PrimaryArtist(), rt.Candidate.Title, rt.Confidence*100)
		}
		b.WriteString(styles.warn.Render(line) + "\n")
	}

	return b.String()
}

// RenderSessionStatus renders one progress snapshot as a single line.
func RenderSessionStatus(st models.MigrationStatus) string {
	line := fmt.Sprintf("[%5.1f%%] %-10s %s", st.Progress, st.Status, st.Message)

	switch st.Status {
	case models.StatusCompleted:
		return styles.ok.Render(line)
	case models.StatusError:
		return styles.err.Render(line)
	case models.StatusStopped:
		return styles.warn.Render(line)
	default:
		return line
	}
}

// ExportReviewCSV converts review tracks to CSV with columns: Title, Artist,
// Candidate Title, Candidate Artist, Confidence, Arabic, Reason.
func ExportReviewCSV(tracks []models.ReviewTrack) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Title", "Artist", "Candidate Title", "Candidate Artist", "Confidence", "Arabic", "Reason"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, rt := range tracks {
		candidateTitle, candidateArtist := "", ""
		if rt.Candidate != nil {
			candidateTitle = rt.Candidate.Title
			candidateArtist = rt.Candidate.PrimaryArtist()
		}
		record := []string{
			rt.Track.Title,
			rt.Track.AllArtists(),
			candidateTitle,
			candidateArtist,
			strconv.FormatFloat(rt.Confidence, 'f', 2, 64),
			strconv.FormatBool(rt.IsArabic),
			rt.Reason,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// WriteReviewCSV writes the review tracks of a report to a CSV file.
//
// Defaults to review_<session>.csv in the working directory.
func WriteReviewCSV(report *models.MigrationReport, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("review_%s.csv", report.SessionID)
	}

	var tracks []models.ReviewTrack
	for _, pr := range report.PlaylistResults {
		tracks = append(tracks, pr.ReviewTracks...)
	}

	data, err := ExportReviewCSV(tracks)
	if err != nil {
		return "", fmt.Errorf("failed to generate CSV: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write CSV file: %w", err)
	}

	return path, nil
}

// ExportReportMarkdown converts a migration report to Markdown.
func ExportReportMarkdown(report *models.MigrationReport) []byte {
	var buf bytes.Buffer

	buf.WriteString("# Migration Report\n\n")
	buf.WriteString(fmt.Sprintf("**Session**: %s\n", report.SessionID))
	buf.WriteString(fmt.Sprintf("**Started**: %s\n", report.StartTime.Format("2006-01-02 15:04:05")))
	buf.WriteString(fmt.Sprintf("**Duration**: %ds\n\n", report.DurationSeconds()))

	buf.WriteString("## Summary\n\n")
	buf.WriteString(fmt.Sprintf("- Playlists: %d processed, %d created, %d failed\n", report.PlaylistsProcessed, report.PlaylistsCreated, report.PlaylistsFailed))
	buf.WriteString(fmt.Sprintf("- Tracks: %d processed, %d added, %d failed, %d for review\n", report.TotalTracksProcessed, report.TotalTracksAdded, report.TotalTracksFailed, report.TotalTracksReview))
	if report.ArabicTracksProcessed > 0 {
		buf.WriteString(fmt.Sprintf("- Arabic tracks: %d processed, %d added\n", report.ArabicTracksProcessed, report.ArabicTracksAdded))
	}
	buf.WriteString(fmt.Sprintf("- Cover art uploads: %d\n", report.CoverArtUploads))

	for _, pr := range report.PlaylistResults {
		buf.WriteString(fmt.Sprintf("\n## %s\n\n", pr.SourcePlaylist.Name))
		if !pr.Success() {
			buf.WriteString(fmt.Sprintf("Creation failed: %s\n", pr.ErrorMessage))
			continue
		}
		buf.WriteString(fmt.Sprintf("[Open in Spotify](%s)\n\n", pr.PlaylistURL))
		buf.WriteString(fmt.Sprintf("%d added, %d failed, %d for review\n", pr.TracksAdded, pr.TracksFailed, pr.TracksSkippedReview))

		if len(pr.ReviewTracks) > 0 {
			buf.WriteString("\n### Needs review\n\n")
			for i, rt := range pr.ReviewTracks {
				line := fmt.Sprintf("%d. %s - %s", i+1, rt.Track.PrimaryArtist(), rt.Track.Title)
				if rt.Candidate != nil {
					line += fmt.Sprintf(" (candidate: %s - %s, %.0f%%)", rt.Candidate.PrimaryArtist(), rt.Candidate.Title, rt.Confidence*100)
				}
				buf.WriteString(line + "\n")
			}
		}
	}

	return buf.Bytes()
}

// WriteMarkdownReport writes the Markdown rendition of a report.
//
// Defaults to report_<session>.md in the working directory.
func WriteMarkdownReport(report *models.MigrationReport, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("report_%s.md", report.SessionID)
	}

	if err := os.WriteFile(path, ExportReportMarkdown(report), 0644); err != nil {
		return "", fmt.Errorf("failed to write Markdown file: %w", err)
	}

	return path, nil
}
