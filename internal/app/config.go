package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// ChainPath points at a .hcl chain definition file or a directory of them.
	ChainPath string
	// RepoRoot is the root of the local directory artifact repository.
	RepoRoot string
	// WorkDir is where transform steps write their outputs.
	WorkDir string
	// EnvFile optionally names a dotenv file with object-store credentials.
	EnvFile string

	LogFormat   string
	LogLevel    string
	WorkerCount int
}

// NewConfig validates a Config and applies defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ChainPath == "" {
		return nil, errors.New("ChainPath is a required configuration field and cannot be empty")
	}
	if cfg.RepoRoot == "" {
		cfg.RepoRoot = "."
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = "artifex-out"
	}
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 4
	}
	return &cfg, nil
}
