package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/leadscore-cli/internal/scoring"
)

var sampleResults = []scoring.BulkResult{
	{
		ID: "003A",
		ScoringResult: scoring.ScoringResult{
			PersonScore: 90, CompanyScore: 70, CombinedScore: 78, Tier: scoring.TierGold,
			FactorsUsed: []string{"role", "revenue"}, Reason: "Strong role, large company",
		},
	},
	{
		ID: float64(7),
		ScoringResult: scoring.ScoringResult{
			CombinedScore: 12, Tier: scoring.TierBronze,
			Warnings: []string{"no company data"},
		},
	},
}

var sampleBoard = []scoring.ScoredEntity{
	{Name: "Karin", TotalValue: 150000, Count: 2, Won: 2, Lost: 1},
	{Name: "Erik", Count: 1, Won: 1, Lost: 1},
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: FormatTable},
		{in: "CSV", want: FormatCSV},
		{in: " json ", want: FormatJSON},
		{in: "xlsx", want: FormatXLSX},
		{in: "pdf", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "unsupported format")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.True(t, FormatXLSX.Binary())
	assert.False(t, FormatCSV.Binary())
}

func TestWriteResults_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteResults(&buf, FormatCSV, sampleResults))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, resultHeader, rows[0])
	assert.Equal(t, []string{"003A", "78", "90", "70", "GOLD", "role;revenue", "", "Strong role, large company"}, rows[1])
	assert.Equal(t, "7", rows[2][0])
	assert.Equal(t, "no company data", rows[2][6])
}

func TestWriteResults_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteResults(&buf, FormatJSON, sampleResults))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "003A", got[0]["id"])
	assert.InDelta(t, 78, got[0]["combined_score"], 0)
	assert.Equal(t, "GOLD", got[0]["tier"])

	buf.Reset()
	require.NoError(t, WriteResults(&buf, FormatJSON, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestWriteResults_Table(t *testing.T) {
	long := sampleResults[0]
	long.Reason = strings.Repeat("x", 100)

	var buf bytes.Buffer
	require.NoError(t, WriteResults(&buf, FormatTable, []scoring.BulkResult{long}))
	out := buf.String()
	assert.Contains(t, out, "COMBINED")
	assert.Contains(t, out, "GOLD")
	assert.Contains(t, out, strings.Repeat("x", 57)+"...")
	assert.NotContains(t, out, strings.Repeat("x", 58))

	buf.Reset()
	require.NoError(t, WriteResults(&buf, FormatTable, nil))
	assert.Equal(t, "No results.\n", buf.String())
}

func TestWriteResults_XLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteResults(&buf, FormatXLSX, sampleResults))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)
	sh := f.Sheets[0]
	assert.Equal(t, "Scores", sh.Name)
	require.Len(t, sh.Rows, 3)

	assert.Equal(t, "id", sh.Rows[0].Cells[0].String())
	assert.Equal(t, "003A", sh.Rows[1].Cells[0].String())
	combined, err := sh.Rows[1].Cells[1].Float()
	require.NoError(t, err)
	assert.InDelta(t, 78, combined, 0)
	assert.Equal(t, "GOLD", sh.Rows[1].Cells[4].String())
}

func TestWriteLeaderboard(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteLeaderboard(&buf, FormatCSV, sampleBoard))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, leaderboardHeader, rows[0])
	assert.Equal(t, []string{"1", "Karin", "150000", "2", "2", "1", "66.7"}, rows[1])
	assert.Equal(t, []string{"2", "Erik", "0", "1", "1", "1", "50.0"}, rows[2])

	buf.Reset()
	require.NoError(t, WriteLeaderboard(&buf, FormatJSON, sampleBoard))
	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.InDelta(t, 1, got[0]["rank"], 0)
	assert.Equal(t, "Karin", got[0]["name"])
	assert.InDelta(t, 2.0/3.0, got[0]["win_rate"], 1e-9)
}

func TestWriteCompanyResult(t *testing.T) {
	r := scoring.CompanyScoreResult{
		CompanyScore: 64,
		FactorsUsed:  []string{"revenue", "industry"},
		Warnings:     []string{},
		Reason:       "Large company in a target industry",
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCompanyResult(&buf, FormatCSV, r))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"64", "revenue;industry", "", "Large company in a target industry"}, rows[1])

	buf.Reset()
	require.NoError(t, WriteCompanyResult(&buf, FormatJSON, r))
	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.InDelta(t, 64, got["company_score"], 0)
}
