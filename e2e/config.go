package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_SERVER_URL points the smoke test at a live simulator; empty skips.
	ServerURL string `envconfig:"E2E_SERVER_URL"`
	// E2E_BADGER_DIR holds the throwaway settings store; empty uses a temp dir.
	BadgerDir string `envconfig:"E2E_BADGER_DIR"`
	// E2E_AUTOJOIN is the comma-separated room list joined during the smoke test.
	Autojoin string `envconfig:"E2E_AUTOJOIN" default:"lobby"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
