package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	configFileName = "contraptions"
	configFileType = "yaml"
	envPrefix      = "CONTRAPTIONS"

	cfgKeyDataDir       = "data_dir"
	cfgKeyConfigsDir    = "configs_dir"
	cfgKeySaveFile      = "save_file"
	cfgKeyMaterialsFile = "materials_file"
	cfgKeyStore         = "store"
	cfgKeyTickRate      = "tick_rate"
	cfgKeyWorkers       = "workers"
	cfgKeyLogLevel      = "log_level"

	storeFile   = "file"
	storeSQLite = "sqlite"
)

// loadConfig reads contraptions.yaml from path, or from the working
// directory when path is empty. A missing file is not an error; every key
// has a default and can be set through CONTRAPTIONS_* variables.
func loadConfig(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyDataDir, ".")
	v.SetDefault(cfgKeyConfigsDir, "configs")
	v.SetDefault(cfgKeySaveFile, "contraptions.json")
	v.SetDefault(cfgKeyMaterialsFile, "")
	v.SetDefault(cfgKeyStore, storeFile)
	v.SetDefault(cfgKeyTickRate, 50*time.Millisecond)
	v.SetDefault(cfgKeyWorkers, 0)
	v.SetDefault(cfgKeyLogLevel, "info")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// dataPath resolves a configured path relative to data_dir.
func dataPath(v *viper.Viper, key string) string {
	p := v.GetString(key)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(v.GetString(cfgKeyDataDir), p)
}
