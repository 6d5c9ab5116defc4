package config

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// YAMLConfig represents the complete promptforge.yaml file structure
// (spec.md §6.6, §6.7). Every section is optional; unset sections fall
// back to their package defaults.
type YAMLConfig struct {
	Population  *PopulationConfig  `yaml:"population"`
	Fitness     *FitnessWeights    `yaml:"fitness"`
	Executor    *ExecutorConfig    `yaml:"executor"`
	Retrieval   *RetrievalConfig   `yaml:"retrieval"`
	Cache       *CacheConfig       `yaml:"cache"`
	Bandit      *BanditConfig      `yaml:"bandit"`
	Daemon      *DaemonConfig      `yaml:"daemon"`
	Server      *ServerConfig      `yaml:"server"`
	Persistence *PersistenceConfig `yaml:"persistence"`
	BaseGenome  *BaseGenomeConfig  `yaml:"base_genome"`
}

// Initialize loads, validates, and returns ready-to-use configuration.
// This is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Load promptforge.yaml from configDir (missing file is not an error;
//     package defaults apply)
//  2. Expand environment variables
//  3. Parse YAML into a YAMLConfig
//  4. Merge user-provided sections onto package defaults
//  5. Validate all configuration
//  6. Return Config ready for use
func Initialize(_ context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("initializing configuration")

	cfg, err := load(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	log.Info("configuration initialized successfully",
		"population_size", cfg.Population.Size,
		"generations", cfg.Population.Generations,
		"server_addr", cfg.Server.Addr)

	return cfg, nil
}

func load(configDir string) (*Config, error) {
	loader := &configLoader{configDir: configDir}

	user, err := loader.loadYAMLConfig()
	if err != nil {
		return nil, NewLoadError("promptforge.yaml", err)
	}

	population := DefaultPopulationConfig()
	if user.Population != nil {
		if err := mergeInto(population, user.Population); err != nil {
			return nil, fmt.Errorf("failed to merge population config: %w", err)
		}
	}

	fitness := DefaultFitnessWeights()
	if user.Fitness != nil {
		if err := mergeInto(fitness, user.Fitness); err != nil {
			return nil, fmt.Errorf("failed to merge fitness config: %w", err)
		}
	}

	executor := DefaultExecutorConfig()
	if user.Executor != nil {
		if err := mergeInto(executor, user.Executor); err != nil {
			return nil, fmt.Errorf("failed to merge executor config: %w", err)
		}
	}

	retrieval := DefaultRetrievalConfig()
	if user.Retrieval != nil {
		if err := mergeInto(retrieval, user.Retrieval); err != nil {
			return nil, fmt.Errorf("failed to merge retrieval config: %w", err)
		}
	}

	cache := DefaultCacheConfig()
	if user.Cache != nil {
		if err := mergeInto(cache, user.Cache); err != nil {
			return nil, fmt.Errorf("failed to merge cache config: %w", err)
		}
	}

	bandit := DefaultBanditConfig()
	if user.Bandit != nil {
		if err := mergeInto(bandit, user.Bandit); err != nil {
			return nil, fmt.Errorf("failed to merge bandit config: %w", err)
		}
	}

	daemon := DefaultDaemonConfig()
	if user.Daemon != nil {
		if err := mergeInto(daemon, user.Daemon); err != nil {
			return nil, fmt.Errorf("failed to merge daemon config: %w", err)
		}
	}

	server := DefaultServerConfig()
	if user.Server != nil {
		if err := mergeInto(server, user.Server); err != nil {
			return nil, fmt.Errorf("failed to merge server config: %w", err)
		}
	}

	persistence := DefaultPersistenceConfig()
	if user.Persistence != nil {
		if err := mergeInto(persistence, user.Persistence); err != nil {
			return nil, fmt.Errorf("failed to merge persistence config: %w", err)
		}
	}

	baseGenome := DefaultBaseGenomeConfig()
	if user.BaseGenome != nil {
		if err := mergeInto(baseGenome, user.BaseGenome); err != nil {
			return nil, fmt.Errorf("failed to merge base_genome config: %w", err)
		}
	}

	return &Config{
		configDir:   configDir,
		Population:  population,
		Fitness:     fitness,
		Executor:    executor,
		Retrieval:   retrieval,
		Cache:       cache,
		Bandit:      bandit,
		Daemon:      daemon,
		Server:      server,
		Persistence: persistence,
		BaseGenome:  baseGenome,
	}, nil
}

func validate(cfg *Config) error {
	validator := NewValidator(cfg)
	return validator.ValidateAll()
}

type configLoader struct {
	configDir string
}

func (l *configLoader) loadYAMLConfig() (*YAMLConfig, error) {
	var cfg YAMLConfig

	path := filepath.Join(l.configDir, "promptforge.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// No file is a valid configuration: every section defaults.
			return &cfg, nil
		}
		return nil, err
	}

	// Expand ${VAR}/$VAR references before parsing so secrets (API keys,
	// DSNs) never need to live in the YAML file itself.
	data = ExpandEnv(data)

	// KnownFields rejects unrecognized keys at load time (spec.md §9:
	// "unknown options MUST be rejected at startup") instead of silently
	// dropping a typo'd section.
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return &cfg, nil
}
