package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/oriumgames/contraptions"
	"github.com/spf13/viper"
)

// openStore returns the store selected by the store key.
func openStore(v *viper.Viper) (contraptions.Store, func() error, error) {
	path := dataPath(v, cfgKeySaveFile)
	switch kind := v.GetString(cfgKeyStore); kind {
	case storeFile:
		return contraptions.NewFileStore(path), func() error { return nil }, nil
	case storeSQLite:
		s, err := contraptions.OpenSQLiteStore(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open store: %w", err)
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q (valid: %s, %s)", kind, storeFile, storeSQLite)
	}
}

// loadMaterials reads the material table, or returns nil when none is
// configured.
func loadMaterials(v *viper.Viper) (*contraptions.Materials, error) {
	path := dataPath(v, cfgKeyMaterialsFile)
	if path == "" {
		return nil, nil
	}
	m, err := contraptions.LoadMaterials(path)
	if err != nil {
		return nil, fmt.Errorf("load materials: %w", err)
	}
	return m, nil
}

// buildManager creates a stopped manager with every properties file in
// configs_dir registered. Skipped files are returned in the report.
func buildManager(v *viper.Viper, handlers ...contraptions.Handler) (*contraptions.Manager, contraptions.LoadReport, error) {
	materials, err := loadMaterials(v)
	if err != nil {
		return nil, contraptions.LoadReport{}, err
	}

	b := contraptions.NewBuilder().
		Logger(slog.Default()).
		TickRate(v.GetDuration(cfgKeyTickRate)).
		Workers(v.GetInt(cfgKeyWorkers)).
		Materials(materials)
	for _, h := range handlers {
		b.Listener(h)
	}
	m, err := b.Build()
	if err != nil {
		return nil, contraptions.LoadReport{}, err
	}

	report := m.LoadPropertiesDir(dataPath(v, cfgKeyConfigsDir))
	return m, report, nil
}

// restore loads the saved population into m.
func restore(ctx context.Context, m *contraptions.Manager, store contraptions.Store) contraptions.LoadReport {
	return m.LoadContraptions(ctx, store)
}
