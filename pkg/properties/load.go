package properties

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/magiconair/properties"
	"gopkg.in/yaml.v3"
)

// maxResourceSize bounds a single configuration resource.
const maxResourceSize = 1 << 20

// ErrTooLarge is returned for resources larger than 1 MiB.
var ErrTooLarge = errors.New("resource exceeds 1 MiB")

// Map is a flat set of configuration properties.
type Map map[string]string

// Get returns the value for key and whether it was present.
func (m Map) Get(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// Keys returns the property names in sorted order.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LoadError reports a resource that could not be opened, read or parsed.
type LoadError struct {
	Name string
	Op   string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to %s %q: %v", e.Op, e.Name, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load reads the named resource through r and parses it into a Map.
func Load(ctx context.Context, r Resolver, name string) (Map, error) {
	if err := ctx.Err(); err != nil {
		return nil, &LoadError{Name: name, Op: "open", Err: err}
	}

	rc, err := r.Open(name)
	if err != nil {
		return nil, &LoadError{Name: name, Op: "open", Err: err}
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxResourceSize+1))
	if err != nil {
		return nil, &LoadError{Name: name, Op: "read", Err: err}
	}
	if len(data) > maxResourceSize {
		return nil, &LoadError{Name: name, Op: "read", Err: ErrTooLarge}
	}

	m, err := Parse(data, formatOf(name))
	if err != nil {
		return nil, &LoadError{Name: name, Op: "parse", Err: err}
	}
	return m, nil
}

// Format selects the syntax Parse expects.
type Format int

const (
	FormatProperties Format = iota
	FormatYAML
)

func formatOf(name string) Format {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatProperties
	}
}

// Parse decodes data in the given format.
func Parse(data []byte, format Format) (Map, error) {
	if format == FormatYAML {
		return parseYAML(data)
	}
	return parseProperties(data)
}

func parseProperties(data []byte) (Map, error) {
	loader := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	p, err := loader.LoadBytes(data)
	if err != nil {
		return nil, err
	}

	m := make(Map, p.Len())
	for _, k := range p.Keys() {
		v, _ := p.Get(k)
		m[k] = v
	}
	return m, nil
}

func parseYAML(data []byte) (Map, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	m := make(Map)
	if err := flatten(m, "", doc); err != nil {
		return nil, err
	}
	return m, nil
}

func flatten(dst Map, prefix string, v any) error {
	switch node := v.(type) {
	case map[string]any:
		for k, child := range node {
			if err := flatten(dst, join(prefix, k), child); err != nil {
				return err
			}
		}
	case map[any]any:
		for k, child := range node {
			if err := flatten(dst, join(prefix, fmt.Sprint(k)), child); err != nil {
				return err
			}
		}
	case []any:
		parts := make([]string, 0, len(node))
		for i, item := range node {
			switch item.(type) {
			case map[string]any, map[any]any, []any:
				return fmt.Errorf("%s[%d]: nested collections are not supported", prefix, i)
			}
			parts = append(parts, fmt.Sprint(item))
		}
		dst[prefix] = strings.Join(parts, ",")
	case nil:
		if prefix != "" {
			dst[prefix] = ""
		}
	default:
		dst[prefix] = fmt.Sprint(node)
	}
	return nil
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
