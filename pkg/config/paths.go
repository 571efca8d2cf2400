package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/am2r-community-developers/am2rbot/internal/infra"
)

const (
	EnvConfig = "AM2RBOT_CONFIG"
	EnvHome   = infra.EnvHome
)

// ResolveConfigPath returns $AM2RBOT_CONFIG when set, otherwise
// config.json in the am2rbot home directory.
func ResolveConfigPath() string {
	if configPath := expandHome(strings.TrimSpace(os.Getenv(EnvConfig))); configPath != "" {
		return configPath
	}
	return filepath.Join(infra.ResolveHomeDir(), "config.json")
}

func expandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if len(path) > 1 && (path[1] == '/' || path[1] == '\\') {
		return filepath.Join(home, path[2:])
	}
	return home
}
