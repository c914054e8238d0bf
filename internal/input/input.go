// Package input reads and validates scoring requests from JSON and CSV
// files.
package input

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadscore-cli/internal/scoring"
)

// MaxBulkItems bounds a single bulk request.
const MaxBulkItems = 1000

var validate = validator.New()

// Person is the wire form of scoring.PersonInput with its bounds.
type Person struct {
	Functions            []string `json:"functions,omitempty" validate:"omitempty,max=50,dive,max=200"`
	RelationshipStrength *string  `json:"relationship_strength,omitempty" validate:"omitempty,max=200"`
	Activities90d        *int     `json:"activities_90d,omitempty" validate:"omitempty,gte=0"`
}

// Company is the wire form of scoring.CompanyInput with its bounds. Growth
// may be negative.
type Company struct {
	Revenue    *float64 `json:"revenue,omitempty" validate:"omitempty,gte=0"`
	CAGR3y     *float64 `json:"cagr_3y,omitempty"`
	Industry   *string  `json:"industry,omitempty" validate:"omitempty,max=200"`
	DistanceKM *float64 `json:"distance_km,omitempty" validate:"omitempty,gte=0"`
	Employees  *int     `json:"employees,omitempty" validate:"omitempty,gte=0"`
	Score      *float64 `json:"score,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// Item is one entry of a bulk file.
type Item struct {
	ID      any     `json:"id,omitempty"`
	Person  Person  `json:"person"`
	Company Company `json:"company"`
}

type bulk struct {
	Items []Item `validate:"max=1000,dive"`
}

// PersonInput converts p to the engine type.
func (p Person) PersonInput() scoring.PersonInput {
	return scoring.PersonInput{
		Functions:            p.Functions,
		RelationshipStrength: p.RelationshipStrength,
		Activities90d:        p.Activities90d,
	}
}

// CompanyInput converts c to the engine type.
func (c Company) CompanyInput() scoring.CompanyInput {
	return scoring.CompanyInput{
		Revenue:    c.Revenue,
		CAGR3y:     c.CAGR3y,
		Industry:   c.Industry,
		DistanceKM: c.DistanceKM,
		Employees:  c.Employees,
		Score:      c.Score,
	}
}

// BulkItem converts it to the engine type.
func (it Item) BulkItem() scoring.BulkItem {
	return scoring.BulkItem{ID: it.ID, Person: it.Person.PersonInput(), Company: it.Company.CompanyInput()}
}

// LoadBulk reads a bulk file. Files ending in .csv are read as CSV, anything
// else as JSON.
func LoadBulk(path string) ([]scoring.BulkItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "input: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	var items []Item
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		items, err = ReadBulkCSV(f)
	} else {
		items, err = ReadBulkJSON(f)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "input: load %s", path)
	}

	out := make([]scoring.BulkItem, len(items))
	for i, it := range items {
		out[i] = it.BulkItem()
	}
	return out, nil
}

// ReadBulkJSON decodes a JSON array of items, or an object with an "items"
// array, and validates it.
func ReadBulkJSON(r io.Reader) ([]Item, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "input: read bulk json")
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, eris.New("input: empty bulk document")
	}

	var items []Item
	if data[0] == '{' {
		var wrapper struct {
			Items []Item `json:"items"`
		}
		err = decodeStrict(data, &wrapper)
		items = wrapper.Items
	} else {
		err = decodeStrict(data, &items)
	}
	if err != nil {
		return nil, eris.Wrap(err, "input: decode bulk json")
	}
	if err := validateBulk(items); err != nil {
		return nil, err
	}
	return items, nil
}

var csvColumns = []string{
	"id", "functions", "relationship_strength", "activities_90d",
	"revenue", "cagr_3y", "industry", "distance_km", "employees", "score",
}

// ReadBulkCSV reads items from CSV with a header row. Known columns are
// id, functions (semicolon separated), relationship_strength, activities_90d,
// revenue, cagr_3y, industry, distance_km, employees and score; empty cells
// are absent values.
func ReadBulkCSV(r io.Reader) ([]Item, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, eris.New("input: empty bulk document")
		}
		return nil, eris.Wrap(err, "input: read csv header")
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if !slices.Contains(csvColumns, name) {
			return nil, eris.Errorf("input: unknown csv column %q", h)
		}
		cols[name] = i
	}

	var items []Item
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "input: read csv line %d", line)
		}
		cell := func(name string) string {
			if i, ok := cols[name]; ok && i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}
		it, err := parseCSVItem(cell)
		if err != nil {
			return nil, eris.Wrapf(err, "input: csv line %d", line)
		}
		items = append(items, it)
		if len(items) > MaxBulkItems {
			break
		}
	}
	if err := validateBulk(items); err != nil {
		return nil, err
	}
	return items, nil
}

func parseCSVItem(cell func(string) string) (Item, error) {
	var it Item
	if id := cell("id"); id != "" {
		it.ID = id
	}
	for _, f := range strings.Split(cell("functions"), ";") {
		if f = strings.TrimSpace(f); f != "" {
			it.Person.Functions = append(it.Person.Functions, f)
		}
	}
	it.Person.RelationshipStrength = optString(cell("relationship_strength"))
	it.Company.Industry = optString(cell("industry"))

	var err error
	if it.Person.Activities90d, err = optInt(cell, "activities_90d"); err != nil {
		return it, err
	}
	if it.Company.Employees, err = optInt(cell, "employees"); err != nil {
		return it, err
	}
	for _, f := range []struct {
		name string
		dst  **float64
	}{
		{"revenue", &it.Company.Revenue},
		{"cagr_3y", &it.Company.CAGR3y},
		{"distance_km", &it.Company.DistanceKM},
		{"score", &it.Company.Score},
	} {
		if *f.dst, err = optFloat(cell, f.name); err != nil {
			return it, err
		}
	}
	return it, nil
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optInt(cell func(string) string, name string) (*int, error) {
	s := cell(name)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, eris.Errorf("%s: %q is not an integer", name, s)
	}
	return &n, nil
}

func optFloat(cell func(string) string, name string) (*float64, error) {
	s := strings.ReplaceAll(cell(name), " ", "")
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, eris.Errorf("%s: %q is not a number", name, s)
	}
	return &v, nil
}

func validateBulk(items []Item) error {
	if len(items) > MaxBulkItems {
		return eris.Errorf("input: bulk request has more than %d items", MaxBulkItems)
	}
	if err := validate.Struct(bulk{Items: items}); err != nil {
		return eris.Errorf("input: invalid bulk request: %s", describe(err))
	}
	return nil
}

// LoadPerson reads a single person JSON document.
func LoadPerson(path string) (scoring.PersonInput, error) {
	var p Person
	if err := loadJSON(path, &p); err != nil {
		return scoring.PersonInput{}, err
	}
	return p.PersonInput(), nil
}

// LoadCompany reads a single company JSON document.
func LoadCompany(path string) (scoring.CompanyInput, error) {
	var c Company
	if err := loadJSON(path, &c); err != nil {
		return scoring.CompanyInput{}, err
	}
	return c.CompanyInput(), nil
}

func loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "input: read %s", path)
	}
	if err := decodeStrict(bytes.TrimSpace(data), v); err != nil {
		return eris.Wrapf(err, "input: decode %s", path)
	}
	if err := validate.Struct(v); err != nil {
		return eris.Errorf("input: invalid %s: %s", path, describe(err))
	}
	return nil
}

func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// describe flattens validator errors into "field must be ..." phrases.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "bulk.")
		switch fe.Tag() {
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be >= %s", field, fe.Param()))
		case "lte":
			msgs = append(msgs, fmt.Sprintf("%s must be <= %s", field, fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s exceeds max %s", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
