package salesforce

import (
	"context"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadscore-cli/internal/model"
)

// ResolveFieldMap matches each mapping's label against the updateable fields
// of its SObject and fills in the API name and length limit. Mappings that
// already carry an API name are kept as configured.
func ResolveFieldMap(ctx context.Context, c Client, fields []model.FieldMapping) (*model.FieldRegistry, error) {
	described := make(map[string]*SObjectDescription)
	resolved := make([]model.FieldMapping, len(fields))

	for i, f := range fields {
		resolved[i] = f
		if f.SFField != "" {
			continue
		}
		desc, ok := described[f.SFObject]
		if !ok {
			var err error
			desc, err = c.DescribeSObject(ctx, f.SFObject)
			if err != nil {
				return nil, eris.Wrapf(err, "sf: resolve field map for %s", f.SFObject)
			}
			described[f.SFObject] = desc
		}
		if sf, ok := matchLabel(desc, f.Label); ok {
			resolved[i].SFField = sf.Name
			if sf.Type == "string" || sf.Type == "textarea" {
				resolved[i].MaxLength = sf.Length
			}
		}
	}

	reg := model.NewFieldRegistry(resolved)
	if missing := reg.Unresolved(); len(missing) > 0 {
		return nil, eris.Errorf("sf: required score fields not found: %s", strings.Join(missing, ", "))
	}
	return reg, nil
}

func matchLabel(desc *SObjectDescription, label string) (SObjectField, bool) {
	label = strings.TrimSpace(label)
	for _, f := range desc.Fields {
		if f.Updateable && strings.EqualFold(f.Label, label) {
			return f, true
		}
	}
	return SObjectField{}, false
}

// FieldMapCache resolves the field map once and serves it until Invalidate.
type FieldMapCache struct {
	client Client
	fields []model.FieldMapping

	mu  sync.Mutex
	reg *model.FieldRegistry
}

// NewFieldMapCache creates a cache for the given mappings.
func NewFieldMapCache(c Client, fields []model.FieldMapping) *FieldMapCache {
	return &FieldMapCache{client: c, fields: fields}
}

// Get returns the resolved registry, describing the SObject on first use.
func (fc *FieldMapCache) Get(ctx context.Context) (*model.FieldRegistry, error) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	if fc.reg != nil {
		return fc.reg, nil
	}
	reg, err := ResolveFieldMap(ctx, fc.client, fc.fields)
	if err != nil {
		return nil, err
	}
	zap.L().Debug("sf: field map resolved", zap.Int("fields", len(reg.Fields)))
	fc.reg = reg
	return reg, nil
}

// Invalidate forces the next Get to describe the SObject again.
func (fc *FieldMapCache) Invalidate() {
	fc.mu.Lock()
	fc.reg = nil
	fc.mu.Unlock()
}
