package service

import (
	"bytes"
	"testing"
	"time"

	"codequest_admin/internal/common"
	"codequest_admin/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var exportEntries = []model.LeaderboardEntry{
	{Rank: 1, TeamID: "t1", TeamName: "Foo, Inc", Points: 610, QuestionsSolved: 5},
	{Rank: 2, TeamID: "t2", TeamName: "Foo", Points: 520, QuestionsSolved: 4},
}

func TestLeaderboardCSVQuotesCommas(t *testing.T) {
	body, err := LeaderboardCSV(exportEntries)
	require.NoError(t, err)
	assert.Equal(t,
		"Rank,Team Name,Points,Questions Solved\n"+
			"1,\"Foo, Inc\",610,5\n"+
			"2,Foo,520,4\n",
		string(body))
}

func TestLeaderboardCSVEmpty(t *testing.T) {
	body, err := LeaderboardCSV(nil)
	require.NoError(t, err)
	assert.Equal(t, "Rank,Team Name,Points,Questions Solved\n", string(body))
}

func TestLeaderboardXLSX(t *testing.T) {
	body, err := LeaderboardXLSX(exportEntries)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(body))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(leaderboardSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Rank", "Team Name", "Points", "Questions Solved"}, rows[0])
	assert.Equal(t, []string{"1", "Foo, Inc", "610", "5"}, rows[1])
	assert.Equal(t, []string{"2", "Foo", "520", "4"}, rows[2])
}

func TestLeaderboardChart(t *testing.T) {
	pngMagic := []byte("\x89PNG")

	body, err := LeaderboardChart("Demo Arena", exportEntries)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, pngMagic))

	empty, err := LeaderboardChart("Empty", nil)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(empty, pngMagic))
}

func TestExportFileName(t *testing.T) {
	at := time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)
	tests := []struct {
		room   string
		format ExportFormat
		want   string
	}{
		{"Demo Arena", ExportCSV, "leaderboard-demo-arena-2026-01-02.csv"},
		{"Finals #2!", ExportXLSX, "leaderboard-finals-2-2026-01-02.xlsx"},
		{"", ExportPNG, "leaderboard-room-2026-01-02.png"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExportFileName(tt.room, at, tt.format))
	}
}

func TestExportLeaderboard(t *testing.T) {
	room := model.Room{Name: "Demo Arena"}
	at := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	export, err := ExportLeaderboard(room, exportEntries, ExportCSV, at)
	require.NoError(t, err)
	assert.Equal(t, "leaderboard-demo-arena-2026-01-02.csv", export.FileName)
	assert.Equal(t, "text/csv; charset=utf-8", export.ContentType)
	assert.NotEmpty(t, export.Body)

	_, err = ExportLeaderboard(room, exportEntries, ExportFormat("pdf"), at)
	assert.ErrorIs(t, err, common.ErrBadRequest)
}
