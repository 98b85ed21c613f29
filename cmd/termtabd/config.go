package main

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config is termtabd's on-disk configuration, following the teacher's
// convention (cmd/tempo/app.Config) of one YAML document per process.
type Config struct {
	RPCAddr  string        `yaml:"rpc_addr"`
	HTTPAddr string        `yaml:"http_addr"`
	LogLevel string        `yaml:"log_level"`
	Tables   []TableConfig `yaml:"tables"`
}

// TableConfig pre-creates a table at startup, so termtabd can be
// deployed with a fixed schema instead of requiring a client to call
// Create first.
type TableConfig struct {
	Name       string `yaml:"name"`
	Semantics  string `yaml:"semantics"`
	KeyPos     int    `yaml:"keypos"`
	Compressed bool   `yaml:"compressed"`
}

func defaultConfig() Config {
	return Config{
		RPCAddr:  "127.0.0.1:7654",
		HTTPAddr: "127.0.0.1:7655",
		LogLevel: "info",
	}
}

func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
