package client

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const configFileName = "config.yaml"

// GlobalConfig is what `sevak auth login` remembers between runs.
type GlobalConfig struct {
	APIURL   string `yaml:"api_url"`
	AdminKey string `yaml:"admin_key,omitempty"`
}

// configDir is swapped out in tests.
var configDir = func() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(base, "sevak"), nil
}

// ConfigPath returns the location of the client config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// LoadGlobalConfig returns (nil, nil) when no config file exists yet.
func LoadGlobalConfig() (*GlobalConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &cfg, nil
}

// SaveGlobalConfig writes cfg readable by the owner only, since it may hold the admin key.
func SaveGlobalConfig(cfg *GlobalConfig) error {
	if cfg == nil {
		return errors.New("config cannot be nil")
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// DeleteGlobalConfig removes the config file. A missing file is not an error.
func DeleteGlobalConfig() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete config file: %w", err)
	}
	return nil
}

// CredentialSource records which layer of the cascade supplied a setting.
type CredentialSource string

const (
	SourceFlag         CredentialSource = "flag"
	SourceEnvFile      CredentialSource = "env_file"
	SourceGlobalConfig CredentialSource = "global_config"
	SourceDefault      CredentialSource = "default"
	SourceNone         CredentialSource = "none"
)

// Settings is the resolved server location and optional admin key.
type Settings struct {
	APIURL         string
	AdminKey       string
	URLSource      CredentialSource
	AdminKeySource CredentialSource
}

// ResolveSettings applies the cascade flag -> env -> global config -> default
// to the API URL and the admin key independently.
func ResolveSettings(flagAPIURL, flagAdminKey string) (*Settings, error) {
	global, err := LoadGlobalConfig()
	if err != nil {
		return nil, err
	}
	if global == nil {
		global = &GlobalConfig{}
	}

	s := &Settings{}
	s.APIURL, s.URLSource = firstSet(
		setting{flagAPIURL, SourceFlag},
		setting{os.Getenv(envAPIURL), SourceEnvFile},
		setting{global.APIURL, SourceGlobalConfig},
		setting{defaultAPIURL, SourceDefault},
	)
	s.AdminKey, s.AdminKeySource = firstSet(
		setting{flagAdminKey, SourceFlag},
		setting{os.Getenv(envAdminKey), SourceEnvFile},
		setting{global.AdminKey, SourceGlobalConfig},
	)
	return s, nil
}

type setting struct {
	value  string
	source CredentialSource
}

func firstSet(candidates ...setting) (string, CredentialSource) {
	for _, c := range candidates {
		if c.value != "" {
			return c.value, c.source
		}
	}
	return "", SourceNone
}
