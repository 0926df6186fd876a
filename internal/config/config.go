package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

type Config struct {
	Addr      string `yaml:"addr"`
	Home      string `yaml:"home"`
	DataDir   string `yaml:"data_dir"`
	LogDir    string `yaml:"log_dir"`
	LogLevel  string `yaml:"log_level"`
	UserFile  string `yaml:"user_file"`
	EnableTLS bool   `yaml:"enable_tls"`
	TLSCert   string `yaml:"tls_cert"`
	TLSKey    string `yaml:"tls_key"`
}

func LoadConfig(homeOverride, configOverride string) (*Config, error) {
	home, err := resolveHome(homeOverride)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Addr:     "127.0.0.1:57084",
		Home:     home,
		DataDir:  filepath.Join(home, "data"),
		LogDir:   filepath.Join(home, "log"),
		LogLevel: "info",
		UserFile: filepath.Join(home, "users.json"),
	}

	cfgPath := configOverride
	if cfgPath == "" {
		cfgPath = filepath.Join(home, "config.yaml")
	}

	if f, err := os.Open(cfgPath); err == nil {
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", cfgPath, err)
		}
	} else if configOverride != "" {
		// an explicit config file has to exist
		return nil, err
	}

	if cfg.EnableTLS && (cfg.TLSCert == "" || cfg.TLSKey == "") {
		return nil, fmt.Errorf("enable_tls needs tls_cert and tls_key")
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		return nil, err
	}

	return cfg, nil
}
