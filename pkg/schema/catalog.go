package schema

import (
	_ "embed"
	"fmt"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/tap-postmark/pkg/errors"
)

//go:embed catalog.yaml
var builtinCatalog []byte

// Catalog is the ordered, read-only set of stream schemas.
type Catalog struct {
	streams []*StreamSchema
	byName  map[string]*StreamSchema
	open    map[string]bool
}

type catalogFile struct {
	Streams []struct {
		Name                 string   `yaml:"name"`
		Description          string   `yaml:"description"`
		KeyProperties        []string `yaml:"key_properties"`
		ReplicationKey       string   `yaml:"replication_key"`
		AdditionalProperties bool     `yaml:"additional_properties"`
		Fields               []struct {
			Source string `yaml:"source"`
			Map    string `yaml:"map"`
			Type   string `yaml:"type"`
			Null   *bool  `yaml:"null"`
		} `yaml:"fields"`
	} `yaml:"streams"`
}

// ParseCatalog builds a catalog from its YAML form. Unknown field types and
// duplicate stream or target names are rejected.
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse catalog")
	}

	c := &Catalog{
		byName: make(map[string]*StreamSchema, len(file.Streams)),
		open:   make(map[string]bool, len(file.Streams)),
	}
	for _, st := range file.Streams {
		if st.Name == "" {
			return nil, errors.New(errors.ErrorTypeConfig, "catalog stream without a name")
		}
		if _, dup := c.byName[st.Name]; dup {
			return nil, errors.Newf(errors.ErrorTypeConfig, "duplicate stream %q", st.Name)
		}

		s := &StreamSchema{
			Name:           st.Name,
			Description:    st.Description,
			KeyProperties:  st.KeyProperties,
			ReplicationKey: st.ReplicationKey,
			Fields:         make([]FieldRule, 0, len(st.Fields)),
		}
		targets := make(map[string]bool, len(st.Fields))
		for _, f := range st.Fields {
			kind, err := ParseKind(f.Type)
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeConfig,
					fmt.Sprintf("stream %s field %s", st.Name, f.Source))
			}
			rule := FieldRule{Source: f.Source, Target: f.Map, Kind: kind, Nullable: true}
			if f.Null != nil {
				rule.Nullable = *f.Null
			}
			if targets[rule.TargetName()] {
				return nil, errors.Newf(errors.ErrorTypeConfig,
					"stream %s maps two fields to %q", st.Name, rule.TargetName())
			}
			targets[rule.TargetName()] = true
			s.Fields = append(s.Fields, rule)
		}

		c.streams = append(c.streams, s)
		c.byName[s.Name] = s
		c.open[s.Name] = st.AdditionalProperties
	}
	return c, nil
}

var (
	defaultCatalog     *Catalog
	defaultCatalogErr  error
	defaultCatalogOnce sync.Once
)

// DefaultCatalog returns the catalog compiled into the binary.
func DefaultCatalog() (*Catalog, error) {
	defaultCatalogOnce.Do(func() {
		defaultCatalog, defaultCatalogErr = ParseCatalog(builtinCatalog)
	})
	return defaultCatalog, defaultCatalogErr
}

// Get returns the named stream.
func (c *Catalog) Get(name string) (*StreamSchema, bool) {
	s, ok := c.byName[name]
	return s, ok
}

// Streams returns every stream in catalog order.
func (c *Catalog) Streams() []*StreamSchema {
	return slices.Clone(c.streams)
}

// Names returns the stream names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.streams))
	for i, s := range c.streams {
		names[i] = s.Name
	}
	return names
}

// Select returns the named streams in catalog order. An empty selection
// means every stream.
func (c *Catalog) Select(names []string) ([]*StreamSchema, error) {
	if len(names) == 0 {
		return c.Streams(), nil
	}
	for _, n := range names {
		if _, ok := c.byName[n]; !ok {
			return nil, errors.Newf(errors.ErrorTypeConfig, "unknown stream %q", n)
		}
	}
	var out []*StreamSchema
	for _, s := range c.streams {
		if slices.Contains(names, s.Name) {
			out = append(out, s)
		}
	}
	return out, nil
}

// JSONSchema renders s as a JSON Schema object for SCHEMA messages and
// discovery output.
func (c *Catalog) JSONSchema(s *StreamSchema) map[string]any {
	props := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		props[f.TargetName()] = jsonSchemaType(f)
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": c.open[s.Name],
	}
}

func jsonSchemaType(f FieldRule) map[string]any {
	var t map[string]any
	switch f.Kind {
	case KindString:
		t = map[string]any{"type": []string{"string"}}
	case KindInteger:
		t = map[string]any{"type": []string{"integer"}}
	case KindDecimal:
		t = map[string]any{"type": []string{"number"}}
	case KindBoolean:
		t = map[string]any{"type": []string{"boolean"}}
	case KindTimestamp:
		t = map[string]any{"type": []string{"string"}, "format": "date-time"}
	default:
		return map[string]any{}
	}
	if f.Nullable {
		t["type"] = append(t["type"].([]string), "null")
	}
	return t
}
