package internal

import (
	"errors"
	"fmt"
	"net"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the client settings. Everything session-related is fixed
// once the Client is built from it.
type Config struct {
	Addr     string `yaml:"addr"`      // host:port of the chat endpoint
	LogFile  string `yaml:"log_file"`  // empty disables logging
	LogLevel string `yaml:"log_level"` // debug, info, warn, error
	UI       bool   `yaml:"ui"`        // run the terminal UI instead of plain stdin/stdout
}

func DefaultConfig() Config {
	return Config{
		Addr:     "127.0.0.1:8080",
		LogFile:  "chat.log",
		LogLevel: "info",
	}
}

// LoadConfig reads a YAML file over the defaults. A missing file yields the
// defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	host, port, err := net.SplitHostPort(c.Addr)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", c.Addr, err)
	}
	if host == "" || port == "" {
		return fmt.Errorf("invalid address %q: host and port are required", c.Addr)
	}
	return nil
}
