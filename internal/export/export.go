// Package export renders scoring results and leaderboards as text tables,
// CSV, JSON or XLSX workbooks.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/leadscore-cli/internal/scoring"
)

// Format names an output encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatXLSX  Format = "xlsx"
)

// ParseFormat validates a format name. An empty name means table.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatCSV, FormatJSON, FormatXLSX:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", eris.Errorf("export: unsupported format %q (want table, csv, json or xlsx)", s)
	}
}

// Binary reports whether the format should not be written to a terminal.
func (f Format) Binary() bool { return f == FormatXLSX }

// cell is one value of a sheet. Numbers stay numeric in XLSX.
type cell struct {
	text string
	num  *float64
}

func text(s string) cell { return cell{text: s} }

func number(v float64, prec int) cell {
	return cell{text: strconv.FormatFloat(v, 'f', prec, 64), num: &v}
}

type sheet struct {
	name   string
	header []string
	rows   [][]cell
}

var resultHeader = []string{"id", "combined", "person", "company", "tier", "factors", "warnings", "reason"}

func resultSheet(results []scoring.BulkResult) sheet {
	s := sheet{name: "Scores", header: resultHeader}
	for _, r := range results {
		s.rows = append(s.rows, []cell{
			text(formatID(r.ID)),
			number(float64(r.CombinedScore), 0),
			number(float64(r.PersonScore), 0),
			number(float64(r.CompanyScore), 0),
			text(string(r.Tier)),
			text(strings.Join(r.FactorsUsed, ";")),
			text(strings.Join(r.Warnings, ";")),
			text(r.Reason),
		})
	}
	return s
}

var leaderboardHeader = []string{"rank", "name", "total_value", "count", "won", "lost", "win_rate"}

func leaderboardSheet(entities []scoring.ScoredEntity) sheet {
	s := sheet{name: "Leaderboard", header: leaderboardHeader}
	for i, e := range entities {
		s.rows = append(s.rows, []cell{
			number(float64(i+1), 0),
			text(e.Name),
			number(e.TotalValue, 0),
			number(float64(e.Count), 0),
			number(float64(e.Won), 0),
			number(float64(e.Lost), 0),
			number(e.WinRate()*100, 1),
		})
	}
	return s
}

// WriteResults writes scoring results in the given format.
func WriteResults(w io.Writer, f Format, results []scoring.BulkResult) error {
	if f == FormatJSON {
		if results == nil {
			results = []scoring.BulkResult{}
		}
		return writeJSON(w, results)
	}
	return write(w, f, resultSheet(results))
}

var companyHeader = []string{"company", "factors", "warnings", "reason"}

// WriteCompanyResult writes a company-only score in the given format.
func WriteCompanyResult(w io.Writer, f Format, r scoring.CompanyScoreResult) error {
	if f == FormatJSON {
		return writeJSON(w, r)
	}
	return write(w, f, sheet{
		name:   "Company",
		header: companyHeader,
		rows: [][]cell{{
			number(float64(r.CompanyScore), 0),
			text(strings.Join(r.FactorsUsed, ";")),
			text(strings.Join(r.Warnings, ";")),
			text(r.Reason),
		}},
	})
}

// WriteLeaderboard writes ranked entities in the given format.
func WriteLeaderboard(w io.Writer, f Format, entities []scoring.ScoredEntity) error {
	if f == FormatJSON {
		type ranked struct {
			Rank int `json:"rank"`
			scoring.ScoredEntity
			WinRate float64 `json:"win_rate"`
		}
		out := make([]ranked, len(entities))
		for i, e := range entities {
			out[i] = ranked{Rank: i + 1, ScoredEntity: e, WinRate: e.WinRate()}
		}
		return writeJSON(w, out)
	}
	return write(w, f, leaderboardSheet(entities))
}

func write(w io.Writer, f Format, s sheet) error {
	switch f {
	case FormatTable:
		return writeTable(w, s)
	case FormatCSV:
		return writeCSV(w, s)
	case FormatXLSX:
		return writeXLSX(w, s)
	default:
		return eris.Errorf("export: unsupported format %q", f)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return eris.Wrap(err, "export: encode json")
	}
	return nil
}

func writeCSV(w io.Writer, s sheet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(s.header); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, row := range s.rows {
		if err := cw.Write(texts(row)); err != nil {
			return eris.Wrap(err, "export: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

const maxTableText = 60

func writeTable(w io.Writer, s sheet) error {
	if len(s.rows) == 0 {
		_, err := fmt.Fprintln(w, "No results.")
		return eris.Wrap(err, "export: write table")
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(s.header, "\t"))) //nolint:errcheck
	for _, row := range s.rows {
		vals := texts(row)
		for i, v := range vals {
			if r := []rune(v); len(r) > maxTableText {
				vals[i] = string(r[:maxTableText-3]) + "..."
			}
		}
		fmt.Fprintln(tw, strings.Join(vals, "\t")) //nolint:errcheck
	}
	return eris.Wrap(tw.Flush(), "export: write table")
}

func writeXLSX(w io.Writer, s sheet) error {
	f := xlsx.NewFile()
	xs, err := f.AddSheet(s.name)
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}
	hdr := xs.AddRow()
	for _, h := range s.header {
		hdr.AddCell().SetString(h)
	}
	for _, row := range s.rows {
		xr := xs.AddRow()
		for _, c := range row {
			xc := xr.AddCell()
			if c.num != nil {
				xc.SetFloat(*c.num)
			} else {
				xc.SetString(c.text)
			}
		}
	}
	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write xlsx")
	}
	return nil
}

func texts(row []cell) []string {
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = c.text
	}
	return out
}

func formatID(id any) string {
	switch v := id.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
