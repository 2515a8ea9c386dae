// Package manifest loads bean definitions from YAML.
//
//	beans:
//	  - id: dog
//	    kind: zoo.dog
//	  - id: human
//	    kind: zoo.human
//	    depends_on: [dog]
//	    aliases: [owner]
//	    tags: [people]
//
// Kinds name constructors the program supplies through a Catalog, so a
// manifest can only wire code that was compiled in.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/km-arc/go-beans/framework/container"
)

var (
	ErrInvalidManifest = errors.New("invalid manifest")
	ErrUnknownKind     = errors.New("unknown bean kind")
)

// Manifest is the root of a bean manifest file.
type Manifest struct {
	Beans []Bean `yaml:"beans"`
}

// Bean is one entry under beans:.
type Bean struct {
	ID        string   `yaml:"id"`
	Kind      string   `yaml:"kind"`
	Lifetime  string   `yaml:"lifetime,omitempty"`
	DependsOn []string `yaml:"depends_on,omitempty"`
	Aliases   []string `yaml:"aliases,omitempty"`
	Tags      []string `yaml:"tags,omitempty"`

	// Line is where the entry starts in the source, 0 when built in code.
	Line int `yaml:"-"`
}

var beanKeys = []string{"id", "kind", "lifetime", "depends_on", "aliases", "tags"}

// UnmarshalYAML rejects unknown keys and records the entry's line.
func (b *Bean) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: bean must be a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		if !slices.Contains(beanKeys, key.Value) {
			return fmt.Errorf("line %d: unknown field %q", key.Line, key.Value)
		}
	}
	type plain Bean
	if err := node.Decode((*plain)(b)); err != nil {
		return err
	}
	b.Line = node.Line
	return nil
}

// Catalog maps a kind to the constructor that builds it.
type Catalog map[string]container.Constructor

// Kinds returns the catalog's kinds, sorted.
func (c Catalog) Kinds() []string {
	out := make([]string, 0, len(c))
	for k := range c {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return m, nil
}

// Parse decodes and checks a manifest. An empty document is an empty manifest.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	if err := m.check(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) check() error {
	var problems []error
	seen := make(map[string]int, len(m.Beans))

	for _, b := range m.Beans {
		where := fmt.Sprintf("line %d", b.Line)
		if b.ID != "" {
			where = fmt.Sprintf("bean %q (line %d)", b.ID, b.Line)
		}
		switch {
		case b.ID == "":
			problems = append(problems, fmt.Errorf("%w: %s: id is required", ErrInvalidManifest, where))
		case seen[b.ID] > 0:
			problems = append(problems, fmt.Errorf("%w: %s: duplicate id, first declared on line %d", ErrInvalidManifest, where, seen[b.ID]))
		default:
			seen[b.ID] = max(b.Line, 1)
		}
		if b.Kind == "" {
			problems = append(problems, fmt.Errorf("%w: %s: kind is required", ErrInvalidManifest, where))
		}
		if _, ok := container.ParseLifetime(b.Lifetime); !ok {
			problems = append(problems, fmt.Errorf("%w: %s: unknown lifetime %q", ErrInvalidManifest, where, b.Lifetime))
		}
		if slices.Contains(b.DependsOn, "") {
			problems = append(problems, fmt.Errorf("%w: %s: empty dependency id", ErrInvalidManifest, where))
		}
		if slices.Contains(b.Aliases, "") || (b.ID != "" && slices.Contains(b.Aliases, b.ID)) {
			problems = append(problems, fmt.Errorf("%w: %s: alias must be non-empty and differ from id", ErrInvalidManifest, where))
		}
	}
	return errors.Join(problems...)
}

// Apply registers every bean into c. Kinds and ids are checked before
// anything is registered, and a registration that still fails rolls back
// the beans applied before it.
func (m *Manifest) Apply(c *container.Container, catalog Catalog) error {
	var problems []error
	for _, b := range m.Beans {
		if _, ok := catalog[b.Kind]; !ok {
			problems = append(problems, fmt.Errorf("bean %q: %w %q", b.ID, ErrUnknownKind, b.Kind))
		}
		if c.Bound(b.ID) {
			problems = append(problems, fmt.Errorf("bean %q: %w", b.ID, &container.DuplicateDefinitionError{ID: b.ID}))
		}
	}
	if err := errors.Join(problems...); err != nil {
		return err
	}

	for i, b := range m.Beans {
		lifetime, _ := container.ParseLifetime(b.Lifetime)
		if err := c.RegisterDefinition(b.ID, lifetime, catalog[b.Kind], b.DependsOn...); err != nil {
			for _, applied := range m.Beans[:i] {
				c.Forget(applied.ID)
			}
			return fmt.Errorf("bean %q: %w", b.ID, err)
		}
	}
	for _, b := range m.Beans {
		for _, alias := range b.Aliases {
			c.Alias(b.ID, alias)
		}
		for _, tag := range b.Tags {
			c.Tag([]string{b.ID}, tag)
		}
	}
	return nil
}

// IDs returns the declared bean ids in file order.
func (m *Manifest) IDs() []string {
	out := make([]string, len(m.Beans))
	for i, b := range m.Beans {
		out[i] = b.ID
	}
	return out
}
