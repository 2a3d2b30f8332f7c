package service

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"codequest_admin/internal/common"
	"codequest_admin/internal/domain/model"

	"github.com/gosimple/slug"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"github.com/xuri/excelize/v2"
)

type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
	ExportPNG  ExportFormat = "png"
)

var exportContentTypes = map[ExportFormat]string{
	ExportCSV:  "text/csv; charset=utf-8",
	ExportXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	ExportPNG:  "image/png",
}

var leaderboardHeader = []string{"Rank", "Team Name", "Points", "Questions Solved"}

// Export is a rendered leaderboard download.
type Export struct {
	FileName    string
	ContentType string
	Body        []byte
}

// ExportLeaderboard renders the standings of room in the requested format.
func ExportLeaderboard(room model.Room, entries []model.LeaderboardEntry, format ExportFormat, at time.Time) (*Export, error) {
	contentType, ok := exportContentTypes[format]
	if !ok {
		return nil, fmt.Errorf("unknown export format %q: %w", format, common.ErrBadRequest)
	}

	var (
		body []byte
		err  error
	)
	switch format {
	case ExportCSV:
		body, err = LeaderboardCSV(entries)
	case ExportXLSX:
		body, err = LeaderboardXLSX(entries)
	case ExportPNG:
		body, err = LeaderboardChart(room.Name, entries)
	}
	if err != nil {
		return nil, fmt.Errorf("rendering %s export: %w", format, err)
	}
	return &Export{
		FileName:    ExportFileName(room.Name, at, format),
		ContentType: contentType,
		Body:        body,
	}, nil
}

// ExportFileName builds leaderboard-<room-slug>-<YYYY-MM-DD>.<ext>.
func ExportFileName(roomName string, at time.Time, format ExportFormat) string {
	name := slug.Make(roomName)
	if name == "" {
		name = "room"
	}
	return fmt.Sprintf("leaderboard-%s-%s.%s", name, at.Format("2006-01-02"), format)
}

func LeaderboardCSV(entries []model.LeaderboardEntry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(leaderboardHeader); err != nil {
		return nil, err
	}
	for _, e := range entries {
		record := []string{
			strconv.Itoa(e.Rank),
			e.TeamName,
			strconv.Itoa(e.Points),
			strconv.Itoa(e.QuestionsSolved),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

const leaderboardSheet = "Leaderboard"

func LeaderboardXLSX(entries []model.LeaderboardEntry) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), leaderboardSheet); err != nil {
		return nil, err
	}

	header := make([]interface{}, len(leaderboardHeader))
	for i, h := range leaderboardHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(leaderboardSheet, "A1", &header); err != nil {
		return nil, err
	}
	for i, e := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{e.Rank, e.TeamName, e.Points, e.QuestionsSolved}
		if err := f.SetSheetRow(leaderboardSheet, cell, &row); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(leaderboardSheet, "B", "B", 28); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var (
	chartBackground = drawing.ColorFromHex("0f172a")
	chartBar        = drawing.ColorFromHex("22d3ee")
	chartText       = drawing.ColorFromHex("e2e8f0")
)

// LeaderboardChart draws points per team as a PNG bar chart. With no active
// teams a single empty bar carries the notice, since go-chart refuses to
// render a chart without bars.
func LeaderboardChart(title string, entries []model.LeaderboardEntry) ([]byte, error) {
	bars := make([]chart.Value, 0, len(entries))
	lo, hi := 0.0, 1.0
	for _, e := range entries {
		v := float64(e.Points)
		bars = append(bars, chart.Value{
			Label: e.TeamName,
			Value: v,
			Style: chart.Style{FillColor: chartBar, StrokeColor: chartBar},
		})
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if len(bars) == 0 {
		bars = append(bars, chart.Value{Label: "No active teams", Value: 0})
	}

	graph := chart.BarChart{
		Title:      title,
		TitleStyle: chart.Style{FontColor: chartText},
		Width:      960,
		Height:     480,
		BarWidth:   48,
		Background: chart.Style{FillColor: chartBackground, Padding: chart.Box{Top: 48}},
		Canvas:     chart.Style{FillColor: chartBackground},
		XAxis:      chart.Style{FontColor: chartText},
		YAxis: chart.YAxis{
			Style: chart.Style{FontColor: chartText},
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
