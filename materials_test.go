package contraptions

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const materialsCSV = `# material,display name
minecraft:coal,Coal
iron_ingot, Iron Ingot
minecraft:diamond,"Diamond, Shiny"
`

func TestParseMaterials(t *testing.T) {
	m, err := ParseMaterials(strings.NewReader(materialsCSV))
	require.NoError(t, err)

	assert.Equal(t, 3, m.Len())
	assert.True(t, m.Known("minecraft:coal"))
	assert.True(t, m.Known("IRON_INGOT"), "ids are normalized")
	assert.False(t, m.Known("minecraft:gold_ingot"))
	assert.Equal(t, "Iron Ingot", m.Name("minecraft:iron_ingot"))
	assert.Equal(t, "Diamond, Shiny", m.Name("diamond"))
	assert.Equal(t, "Gold Ingot", m.Name("minecraft:gold_ingot"), "unknown ids fall back to a derived name")
}

func TestParseMaterialsMalformed(t *testing.T) {
	_, err := ParseMaterials(strings.NewReader("minecraft:coal\n"))
	assert.Error(t, err)
}

func TestLoadMaterials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "materials.csv")
	require.NoError(t, os.WriteFile(path, []byte(materialsCSV), 0o644))

	m, err := LoadMaterials(path)
	require.NoError(t, err)
	assert.Equal(t, 3, m.Len())

	_, err = LoadMaterials(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestMaterialsValidate(t *testing.T) {
	m := NewMaterials(map[string]string{
		"minecraft:coal":       "Coal",
		"minecraft:iron_ingot": "Iron Ingot",
		"minecraft:redstone":   "Redstone Dust",
	})

	tests := []struct {
		id      string
		wantErr bool
		suggest string
	}{
		{"minecraft:coal", false, ""},
		{"coal", false, ""},
		{"minecraft:coa", true, "minecraft:coal"},
		{"iron_ingt", true, "minecraft:iron_ingot"},
		{"redstnoe", true, "minecraft:redstone"},
		{"minecraft:netherite_block", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			err := m.Validate(tt.id)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrUnknownMaterial)
			if tt.suggest != "" {
				assert.Contains(t, err.Error(), tt.suggest)
			} else {
				assert.NotContains(t, err.Error(), "did you mean")
			}
		})
	}
}

func TestNilMaterialsAcceptsEverything(t *testing.T) {
	var m *Materials

	assert.NoError(t, m.Validate("minecraft:anything"))
	assert.Equal(t, "Iron Ingot", m.Name("iron_ingot"))
	_, ok := m.Suggest("coal")
	assert.False(t, ok)
}
