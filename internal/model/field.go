package model

import "unicode/utf8"

// Score field keys written back to the CRM.
const (
	FieldCombinedScore = "combined_score"
	FieldPersonScore   = "person_score"
	FieldCompanyScore  = "company_score"
	FieldTier          = "tier"
	FieldReason        = "reason"
	FieldScoredAt      = "scored_at"
)

// FieldMapping maps an internal score key to a Salesforce field. Label is the
// field label an admin sees; SFField is the API name resolved from it.
type FieldMapping struct {
	Key       string `json:"key" yaml:"key" mapstructure:"key"`
	Label     string `json:"label" yaml:"label" mapstructure:"label"`
	SFField   string `json:"sf_field,omitempty" yaml:"sf_field,omitempty" mapstructure:"sf_field"`
	SFObject  string `json:"sf_object" yaml:"sf_object" mapstructure:"sf_object"`
	Required  bool   `json:"required" yaml:"required" mapstructure:"required"`
	MaxLength int    `json:"max_length,omitempty" yaml:"max_length,omitempty" mapstructure:"max_length"`
}

// Truncate shortens s to the field's length limit, if any.
func (f FieldMapping) Truncate(s string) string {
	if f.MaxLength <= 0 || utf8.RuneCountInString(s) <= f.MaxLength {
		return s
	}
	r := []rune(s)
	return string(r[:f.MaxLength])
}

// DefaultScoreFields lists the score fields by their default labels.
func DefaultScoreFields(object string) []FieldMapping {
	return []FieldMapping{
		{Key: FieldCombinedScore, Label: "Lead Score", SFObject: object, Required: true},
		{Key: FieldTier, Label: "Lead Tier", SFObject: object, Required: true},
		{Key: FieldPersonScore, Label: "Person Score", SFObject: object},
		{Key: FieldCompanyScore, Label: "Company Score", SFObject: object},
		{Key: FieldReason, Label: "Lead Score Reason", SFObject: object},
		{Key: FieldScoredAt, Label: "Lead Scored At", SFObject: object},
	}
}

// FieldRegistry is an indexed collection of field mappings.
type FieldRegistry struct {
	Fields   []FieldMapping
	byKey    map[string]*FieldMapping
	bySFName map[string]*FieldMapping
	required []*FieldMapping
}

// NewFieldRegistry creates a FieldRegistry with indexed lookups.
func NewFieldRegistry(fields []FieldMapping) *FieldRegistry {
	r := &FieldRegistry{
		Fields:   fields,
		byKey:    make(map[string]*FieldMapping, len(fields)),
		bySFName: make(map[string]*FieldMapping, len(fields)),
	}
	for i := range r.Fields {
		f := &r.Fields[i]
		r.byKey[f.Key] = f
		if f.SFField != "" {
			r.bySFName[f.SFField] = f
		}
		if f.Required {
			r.required = append(r.required, f)
		}
	}
	return r
}

// ByKey returns the field mapping for the given key, or nil if not found.
func (r *FieldRegistry) ByKey(key string) *FieldMapping {
	return r.byKey[key]
}

// BySFName returns the field mapping for the given Salesforce field name, or nil if not found.
func (r *FieldRegistry) BySFName(name string) *FieldMapping {
	return r.bySFName[name]
}

// Required returns all required field mappings.
func (r *FieldRegistry) Required() []*FieldMapping {
	return r.required
}

// Unresolved returns the keys of required fields without an API name.
func (r *FieldRegistry) Unresolved() []string {
	var keys []string
	for _, f := range r.required {
		if f.SFField == "" {
			keys = append(keys, f.Key)
		}
	}
	return keys
}
