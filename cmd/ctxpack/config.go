package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	configFileName = ".ctxpack.yaml"
	envPrefix      = "CTXPACK"
)

type profileConfig struct {
	Include []string `mapstructure:"include"`
	Exclude []string `mapstructure:"exclude"`
}

type fileConfig struct {
	Output      string                   `mapstructure:"output"`
	Format      string                   `mapstructure:"format"`
	Model       string                   `mapstructure:"model"`
	Concurrency int                      `mapstructure:"concurrency"`
	Include     []string                 `mapstructure:"include"`
	Exclude     []string                 `mapstructure:"exclude"`
	Profiles    map[string]profileConfig `mapstructure:"profiles"`
}

type patternSet struct {
	include []string
	exclude []string
}

// loadConfig reads explicitPath when set, otherwise merges ~/.ctxpack.yaml
// and ./.ctxpack.yaml in that order. CTXPACK_* environment variables
// override both.
func loadConfig(explicitPath string) (fileConfig, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetDefault("output", "")
	v.SetDefault("format", formatText)
	v.SetDefault("model", "")
	v.SetDefault("concurrency", 0)
	v.SetDefault("include", []string{})
	v.SetDefault("exclude", []string{})

	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
		if err := v.ReadInConfig(); err != nil {
			return fileConfig{}, fmt.Errorf("read configuration from %s: %w", explicitPath, err)
		}
	} else {
		for _, path := range configCandidates() {
			info, err := os.Stat(path)
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					continue
				}
				return fileConfig{}, fmt.Errorf("stat configuration %s: %w", path, err)
			}
			if info.IsDir() {
				return fileConfig{}, fmt.Errorf("configuration path %s is a directory", path)
			}
			v.SetConfigFile(path)
			if err := v.MergeInConfig(); err != nil {
				return fileConfig{}, fmt.Errorf("read configuration from %s: %w", path, err)
			}
		}
	}

	var cfg fileConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return fileConfig{}, fmt.Errorf("decode configuration: %w", err)
	}
	return cfg, nil
}

func configCandidates() []string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, configFileName))
	}
	if wd, err := os.Getwd(); err == nil {
		local := filepath.Join(wd, configFileName)
		if len(paths) == 0 || paths[0] != local {
			paths = append(paths, local)
		}
	}
	return paths
}

// patterns returns the top-level include/exclude lists extended with the
// named profile, or with the "default" profile when that one is missing.
func (cfg fileConfig) patterns(profile string) patternSet {
	include := append([]string{}, cfg.Include...)
	exclude := append([]string{}, cfg.Exclude...)

	if len(cfg.Profiles) > 0 {
		if prof, ok := cfg.Profiles[profile]; ok {
			include = append(include, prof.Include...)
			exclude = append(exclude, prof.Exclude...)
		} else if prof, ok := cfg.Profiles["default"]; ok {
			include = append(include, prof.Include...)
			exclude = append(exclude, prof.Exclude...)
		}
	}

	return patternSet{include: include, exclude: exclude}
}
