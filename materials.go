package contraptions

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// ErrUnknownMaterial is returned for a material missing from the table.
var ErrUnknownMaterial = errors.New("contraptions: unknown material")

// Materials maps material identifiers to display names.
// A nil *Materials knows every material and derives names from identifiers.
type Materials struct {
	names map[string]string
	ids   []string
}

// NewMaterials creates a table from id → display name pairs.
func NewMaterials(names map[string]string) *Materials {
	m := &Materials{names: make(map[string]string, len(names))}
	for id, name := range names {
		m.names[normalizeMaterial(id)] = name
	}
	m.index()
	return m
}

// LoadMaterials reads a material table from a CSV file.
func LoadMaterials(path string) (*Materials, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := ParseMaterials(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ParseMaterials reads `material,display name` records. Lines starting with
// '#' are comments.
func ParseMaterials(r io.Reader) (*Materials, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	m := &Materials{names: make(map[string]string)}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) < 2 {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("line %d: want material,name", line)
		}
		id := strings.TrimSpace(rec[0])
		if id == "" {
			continue
		}
		m.names[normalizeMaterial(id)] = strings.TrimSpace(rec[1])
	}
	m.index()
	return m, nil
}

func (m *Materials) index() {
	m.ids = make([]string, 0, len(m.names))
	for id := range m.names {
		m.ids = append(m.ids, id)
	}
	sort.Strings(m.ids)
}

// Len returns the number of materials in the table.
func (m *Materials) Len() int {
	if m == nil {
		return 0
	}
	return len(m.names)
}

// Known reports whether id is in the table.
func (m *Materials) Known(id string) bool {
	if m == nil || len(m.names) == 0 {
		return true
	}
	_, ok := m.names[normalizeMaterial(id)]
	return ok
}

// Name returns the display name for id.
func (m *Materials) Name(id string) string {
	if m != nil {
		if name, ok := m.names[normalizeMaterial(id)]; ok {
			return name
		}
	}
	return prettyMaterial(id)
}

// Suggest returns the closest known material to id, if any is close enough.
func (m *Materials) Suggest(id string) (string, bool) {
	if m == nil {
		return "", false
	}
	want := normalizeMaterial(id)
	limit := levenshteinLimit(len(strings.TrimPrefix(want, "minecraft:")))

	best, bestDist := "", limit+1
	for _, cand := range m.ids {
		dist := levenshtein.ComputeDistance(want, cand)
		if dist < bestDist {
			best, bestDist = cand, dist
		}
	}
	return best, best != ""
}

// Validate returns an ErrUnknownMaterial error naming the closest match.
func (m *Materials) Validate(id string) error {
	if m.Known(id) {
		return nil
	}
	if s, ok := m.Suggest(id); ok {
		return fmt.Errorf("%w %q (did you mean %q?)", ErrUnknownMaterial, id, s)
	}
	return fmt.Errorf("%w %q", ErrUnknownMaterial, id)
}

func levenshteinLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}

// normalizeMaterial lowercases id and adds the default namespace.
func normalizeMaterial(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	if id != "" && !strings.Contains(id, ":") {
		id = "minecraft:" + id
	}
	return id
}

// prettyMaterial turns minecraft:iron_ingot into Iron Ingot.
func prettyMaterial(id string) string {
	id = normalizeMaterial(id)
	if i := strings.IndexByte(id, ':'); i >= 0 {
		id = id[i+1:]
	}
	words := strings.Fields(strings.ReplaceAll(id, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
