// Package pdf writes a printable one-page summary of a session: overall
// performance followed by one table row per round.
package pdf

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/bnema/reaction-test-cli/internal/application"
	"github.com/bnema/reaction-test-cli/internal/domain"
)

const (
	Title = "Reaction Test Session Summary"

	fileTimestampLayout = "20060102_150405"
	headerTimeLayout    = "2006-01-02 15:04:05 MST"
	missing             = "-"

	lineHeight = 7.0

	// Column widths in mm; the round table fills a landscape A4 page.
	roundWidth = 16.0
	soundWidth = 56.0
	trialWidth = 22.0
	statWidth  = 24.0
)

func FileName(id domain.SessionID, at time.Time) string {
	prefix := string(id)
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return fmt.Sprintf("session_summary_%s_%s.pdf", prefix, at.Format(fileTimestampLayout))
}

// Render writes the summary of report to w.
func Render(w io.Writer, report application.Report) error {
	return render(w, report, true)
}

// WriteFile renders report into a new file in dir named after the session and
// at, and returns its path.
func WriteFile(dir string, report application.Report, at time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create pdf directory: %w", err)
	}

	path := filepath.Join(dir, FileName(report.Session.ID, at))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("create pdf file: %w", err)
	}

	if err := Render(f, report); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close pdf file: %w", err)
	}

	return path, nil
}

func render(w io.Writer, report application.Report, compress bool) error {
	doc := fpdf.New("L", "mm", "A4", "")
	doc.SetCompression(compress)
	doc.SetTitle(Title, true)
	doc.SetCreator("rt", true)
	doc.AddPage()

	writeHeader(doc, report.Session)
	writeOverall(doc, report.Overall)
	writeRounds(doc, report.Rounds)

	if err := doc.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

func writeHeader(doc *fpdf.Fpdf, session domain.Session) {
	doc.SetFont("Helvetica", "B", 18)
	doc.CellFormat(0, 10, Title, "", 1, "L", false, 0, "")

	end := "in progress"
	if session.EndTime != nil {
		end = session.EndTime.UTC().Format(headerTimeLayout)
	}

	doc.SetFont("Helvetica", "", 11)
	for _, line := range []string{
		fmt.Sprintf("Participant: %s (%s)", session.User.Name, session.User.Sex),
		fmt.Sprintf("Session: %s", session.ID),
		fmt.Sprintf("Started: %s", session.StartTime.UTC().Format(headerTimeLayout)),
		fmt.Sprintf("Ended: %s", end),
	} {
		doc.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
	}
	doc.Ln(4)
}

func writeOverall(doc *fpdf.Fpdf, overall domain.StatValues) {
	doc.SetFont("Helvetica", "B", 13)
	doc.CellFormat(0, 8, "Overall Performance Summary", "", 1, "L", false, 0, "")

	if overall.Empty() {
		doc.SetFont("Helvetica", "I", 11)
		doc.CellFormat(0, lineHeight, "No recorded trials.", "", 1, "L", false, 0, "")
		doc.Ln(4)
		return
	}

	cells := [][2]string{
		{"Average", domain.FormatMs(overall.Average) + " ms"},
		{"Median", domain.FormatMs(overall.Median) + " ms"},
		{"Best Trial", domain.FormatMs(overall.Best) + " ms"},
		{"Std. Deviation", domain.FormatMs(overall.StdDev) + " ms"},
		{"SEM (Overall)", domain.FormatMs(overall.SEM) + " ms"},
		{"Trials", strconv.Itoa(overall.Count)},
	}

	const width = 44.0
	doc.SetFont("Helvetica", "B", 10)
	doc.SetFillColor(241, 245, 249)
	for _, cell := range cells {
		doc.CellFormat(width, lineHeight, cell[0], "1", 0, "C", true, 0, "")
	}
	doc.Ln(-1)
	doc.SetFont("Helvetica", "", 10)
	for _, cell := range cells {
		doc.CellFormat(width, lineHeight, cell[1], "1", 0, "C", false, 0, "")
	}
	doc.Ln(-1)
	doc.Ln(6)
}

func writeRounds(doc *fpdf.Fpdf, rounds []application.RoundReport) {
	doc.SetFont("Helvetica", "B", 13)
	doc.CellFormat(0, 8, "Detailed Results by Round", "", 1, "L", false, 0, "")

	doc.SetFont("Helvetica", "B", 9)
	doc.SetFillColor(241, 245, 249)
	doc.CellFormat(roundWidth, lineHeight, "Round", "1", 0, "C", true, 0, "")
	doc.CellFormat(soundWidth, lineHeight, "Sound Level", "1", 0, "L", true, 0, "")
	for i := 1; i <= domain.TrialsPerRound; i++ {
		doc.CellFormat(trialWidth, lineHeight, fmt.Sprintf("T%d (ms)", i), "1", 0, "C", true, 0, "")
	}
	for _, header := range []string{"Avg (ms)", "SD (ms)", "SEM (ms)"} {
		doc.CellFormat(statWidth, lineHeight, header, "1", 0, "C", true, 0, "")
	}
	doc.Ln(-1)

	doc.SetFont("Helvetica", "", 9)
	for _, round := range rounds {
		doc.CellFormat(roundWidth, lineHeight, strconv.Itoa(round.RoundNumber), "1", 0, "C", false, 0, "")
		doc.CellFormat(soundWidth, lineHeight, round.SoundLevel, "1", 0, "L", false, 0, "")
		for _, trial := range round.Trials {
			value := missing
			if trial.Recorded() {
				value = domain.FormatMs(*trial.Time)
			}
			doc.CellFormat(trialWidth, lineHeight, value, "1", 0, "C", false, 0, "")
		}
		for _, value := range roundStatCells(round.Stats) {
			doc.CellFormat(statWidth, lineHeight, value, "1", 0, "C", false, 0, "")
		}
		doc.Ln(-1)
	}
}

// roundStatCells leaves SD blank below two samples and the others blank for
// an empty round.
func roundStatCells(stats domain.StatValues) [3]string {
	cells := [3]string{missing, missing, missing}
	if stats.Count > 0 {
		cells[0] = domain.FormatMs(stats.Average)
		cells[2] = domain.FormatMs(stats.SEM)
	}
	if stats.Count > 1 {
		cells[1] = domain.FormatMs(stats.StdDev)
	}
	return cells
}
