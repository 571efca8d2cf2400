package infra

import (
	"os"
	"path/filepath"
	"strings"
)

// EnvHome overrides the bot's home directory.
const EnvHome = "AM2RBOT_HOME"

// ResolveHomeDir returns the effective home directory for am2rbot.
// It checks AM2RBOT_HOME first and falls back to ~/.am2rbot.
func ResolveHomeDir() string {
	if envHome := strings.TrimSpace(os.Getenv(EnvHome)); envHome != "" {
		return envHome
	}
	home, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		return filepath.Join(os.TempDir(), ".am2rbot")
	}
	return filepath.Join(home, ".am2rbot")
}
