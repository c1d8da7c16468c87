package contraptions

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileStore(t *testing.T, name string) Store {
	return NewFileStore(filepath.Join(t.TempDir(), name))
}

func sqliteStore(t *testing.T, name string) Store {
	s, err := OpenSQLiteStore(filepath.Join(t.TempDir(), name))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	stores := []struct {
		name  string
		store func(t *testing.T) Store
	}{
		{"json", func(t *testing.T) Store { return fileStore(t, "contraptions.json") }},
		{"zstd", func(t *testing.T) Store { return fileStore(t, "contraptions.json.zst") }},
		{"sqlite", func(t *testing.T) Store { return sqliteStore(t, "contraptions.db") }},
	}
	for _, st := range stores {
		t.Run(st.name, func(t *testing.T) {
			ctx := context.Background()
			store := st.store(t)
			loc := At("world", -12, 70, 300)

			src := newTestManager(t, mustProperties(t, generatorConfig("gen")), mustProperties(t, factoryConfig("furnace")))
			orig, err := src.Create("gen", loc, nil)
			require.NoError(t, err)
			require.True(t, orig.Exec(func() {
				require.NoError(t, orig.LoadResources(map[string]float64{EnergyKey: 42.5, TerritoryKey: 3.0}))
			}))
			_, err = src.Create("furnace", At("nether", 0, 0, 0), nil)
			require.NoError(t, err)

			require.NoError(t, src.SaveContraptions(ctx, store))

			dst := newTestManager(t, mustProperties(t, generatorConfig("gen")), mustProperties(t, factoryConfig("furnace")))
			rec := &recorder{}
			dst.Handle(rec)
			report := dst.LoadContraptions(ctx, store)
			require.True(t, report.OK(), report.Err())
			assert.Equal(t, 2, report.Loaded)

			got, ok := dst.At(loc)
			require.True(t, ok)
			assert.NotSame(t, orig, got)
			assert.Equal(t, map[string]float64{EnergyKey: 42.5, TerritoryKey: 3.0}, got.Resources())
			for _, id := range []string{EnergyKey, TerritoryKey} {
				r, ok := got.Resource(id)
				require.True(t, ok)
				assert.Same(t, got, r.Owner(), "resources point at the reloaded instance")
			}

			furnace, ok := dst.At(At("nether", 0, 0, 0))
			require.True(t, ok)
			assert.Equal(t, map[string]float64{EnergyKey: 200}, furnace.Resources())

			require.Len(t, rec.created, 2)
			assert.True(t, rec.created[0].Restored)

			// Restored contraptions are scheduled again.
			g := got.(*Generator)
			assert.Equal(t, 1, g.Tasks())
			dst.Scheduler().Advance(int(GadgetDelay))
			assert.InDelta(t, 52.5, got.Resources()[EnergyKey], 1e-9)
		})
	}
}

func TestStoreSaveReplaces(t *testing.T) {
	for name, store := range map[string]Store{
		"json":   fileStore(t, "c.json"),
		"sqlite": sqliteStore(t, "c.db"),
	} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Save(ctx, []Record{
				{Location: At("world", 0, 0, 0), Type: "gen", Resources: map[string]float64{EnergyKey: 1}},
				{Location: At("world", 1, 0, 0), Type: "gen", Resources: map[string]float64{EnergyKey: 2}},
			}))
			require.NoError(t, store.Save(ctx, []Record{
				{Location: At("world", 1, 0, 0), Type: "gen", Resources: map[string]float64{EnergyKey: 3}},
			}))

			records, failures, err := store.Load(ctx)
			require.NoError(t, err)
			assert.Empty(t, failures)
			require.Len(t, records, 1)
			assert.Equal(t, 3.0, records[0].Resources[EnergyKey])
		})
	}
}

func TestFileStoreMissing(t *testing.T) {
	store := fileStore(t, "missing.json.zst")

	records, failures, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Empty(t, failures)

	m := newTestManager(t)
	report := m.LoadContraptions(context.Background(), store)
	assert.True(t, report.OK())
	assert.Equal(t, 0, report.Loaded)
}

func TestFileStoreSkipsBadEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contraptions.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
  {"location": {"world": "world", "pos": [0, 0, 0]}, "type": "gen", "resources": {"energy": 5}},
  {"location": {"world": "world", "pos": [1, 0, 0]}, "type": "", "resources": {}},
  "garbage",
  {"location": {"world": "world", "pos": [2, 0, 0]}, "type": "turbine", "resources": {}},
  {"location": {"world": "world", "pos": [0, 0, 0]}, "type": "gen", "resources": {"energy": 9}},
  {"location": {"world": "world", "pos": [3, 0, 0]}, "type": "gen", "resources": {"heat": 9}}
]`), 0o644))

	m := newTestManager(t, mustProperties(t, generatorConfig("gen")))
	report := m.LoadContraptions(context.Background(), NewFileStore(path))

	assert.Equal(t, 1, report.Loaded)
	require.Len(t, report.Failures, 5)
	assert.Equal(t, path+"[1]", report.Failures[0].Source)
	assert.Equal(t, path+"[2]", report.Failures[1].Source)
	assert.ErrorIs(t, report.Failures[2], ErrUnknownType)
	assert.ErrorIs(t, report.Failures[3], ErrOccupied)
	assert.ErrorIs(t, report.Failures[4], ErrUnknownResource)

	c, ok := m.At(At("world", 0, 0, 0))
	require.True(t, ok)
	assert.Equal(t, 5.0, c.Resources()[EnergyKey])
	assert.Equal(t, 1, m.Count())
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contraptions.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not": "an array"}`), 0o644))

	m := newTestManager(t, mustProperties(t, generatorConfig("gen")))
	report := m.LoadContraptions(context.Background(), NewFileStore(path))

	assert.Equal(t, 0, report.Loaded)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, path, report.Failures[0].Source)
}

func TestSQLiteStoreSkipsBadRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.db")
	s, err := OpenSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.db.Exec(`INSERT INTO contraptions (world, x, y, z, type, resources) VALUES
		('world', 0, 0, 0, 'gen', '{"energy": 4}'),
		('world', 1, 0, 0, 'gen', 'not json'),
		('world', 2, 0, 0, '', '{}')`)
	require.NoError(t, err)

	records, failures, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, At("world", 0, 0, 0), records[0].Location)
	assert.Len(t, failures, 2)
}

func TestLoadReportErr(t *testing.T) {
	var r LoadReport
	assert.True(t, r.OK())
	assert.NoError(t, r.Err())

	r.fail("a.json", ErrInvalidProperties)
	r.fail("b.json", ErrUnknownMaterial)
	assert.ErrorIs(t, r.Err(), ErrInvalidProperties)
	assert.ErrorIs(t, r.Err(), ErrUnknownMaterial)
	assert.Contains(t, r.Err().Error(), "a.json")
}
