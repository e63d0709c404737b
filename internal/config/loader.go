package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".pagefold"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .pagefold configuration file.
// Every field is optional; absent fields keep their defaults.
type File struct {
	// BaseHref is the path prefix of the static host.
	BaseHref string `yaml:"baseHref,omitempty"`

	// OriginalDomains are hostnames whose absolute URLs are made site-relative.
	OriginalDomains []string `yaml:"originalDomains,omitempty"`

	// Strict promotes path warnings to hard failures.
	Strict *bool `yaml:"strict,omitempty"`

	// RootRelative resolves leading-"/" references against the site root.
	RootRelative *bool `yaml:"rootRelative,omitempty"`

	// SkipFiles replaces the default skip set when non-empty.
	SkipFiles []string `yaml:"skipFiles,omitempty"`

	// KnownPrefixes replaces the default flattened-filename prefix list
	// when non-empty.
	KnownPrefixes []string `yaml:"knownPrefixes,omitempty"`

	// LegacyScripts replaces the default legacy asset blocklist when non-empty.
	LegacyScripts []string `yaml:"legacyScripts,omitempty"`

	// Concurrency overrides the parallel document-processing bound.
	Concurrency int `yaml:"concurrency,omitempty"`

	// MappingFile overrides the mapping file path.
	MappingFile string `yaml:"mappingFile,omitempty"`
}

// LoadConfigFile loads settings from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound. Callers should
// handle this based on whether the path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
//  1. If configPath is specified, use it directly
//  2. Look for .pagefold in the site root
//  3. Look for .pagefold in the user's home directory
//
// Returns the path to the configuration file, or empty string if not found.
func FindConfigFile(configPath, siteRoot string) string {
	// If explicit path is provided, use it
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	// Check site root
	if siteRoot != "" {
		rootConfig := filepath.Join(siteRoot, DefaultConfigFile)
		if _, err := os.Stat(rootConfig); err == nil {
			return rootConfig
		}
	}

	// Check home directory
	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}

// Apply overlays the file's settings onto cfg.
// Only fields present in the file are applied; CLI flags are applied after
// this, so the precedence is defaults < file < flags.
func (cf *File) Apply(cfg *Config) {
	if cf.BaseHref != "" {
		cfg.BaseHref = cf.BaseHref
	}
	if len(cf.OriginalDomains) > 0 {
		cfg.OriginalDomains = cf.OriginalDomains
	}
	if cf.Strict != nil {
		cfg.Strict = *cf.Strict
	}
	if cf.RootRelative != nil {
		cfg.RootRelative = *cf.RootRelative
	}
	if len(cf.SkipFiles) > 0 {
		cfg.SkipFiles = cf.SkipFiles
	}
	if len(cf.KnownPrefixes) > 0 {
		cfg.KnownPrefixes = cf.KnownPrefixes
	}
	if len(cf.LegacyScripts) > 0 {
		cfg.LegacyScripts = cf.LegacyScripts
	}
	if cf.Concurrency > 0 {
		cfg.Concurrency = cf.Concurrency
	}
	if cf.MappingFile != "" {
		cfg.MappingFile = cf.MappingFile
	}
}
