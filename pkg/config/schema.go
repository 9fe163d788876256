package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nsxbet/sql-optimizer/pkg/types"
)

// Template returns a configuration that lists every rule type as enabled, for use
// as a starting point when writing a config file.
func Template(ruleTypes []string, dialect types.Dialect) *Config {
	cfg := DefaultConfig("default")
	cfg.Dialect = dialect
	for _, t := range ruleTypes {
		cfg.Rules = append(cfg.Rules, &RuleConfig{Type: t, Level: RuleLevelEnabled})
	}
	return cfg
}

// WriteFile writes cfg as YAML.
func WriteFile(cfg *Config, filename string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write config file %s", filename)
	}
	return nil
}
