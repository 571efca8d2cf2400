package internal

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/am2r-community-developers/am2rbot/pkg/config"
	"github.com/am2r-community-developers/am2rbot/pkg/logger"
)

const Logo = "🤖"

var (
	version   = "dev"
	gitCommit string
	buildTime string
	goVersion string
)

// ConfigPathFlag is bound to the root --config flag.
var ConfigPathFlag string

func GetConfigPath() string {
	if p := strings.TrimSpace(ConfigPathFlag); p != "" {
		return p
	}
	return config.ResolveConfigPath()
}

func LoadConfig() (*config.Config, error) {
	return config.LoadConfig(GetConfigPath())
}

// ConfigureLogging applies the logging section of cfg. debug forces the
// debug level regardless of the configured one.
func ConfigureLogging(cfg *config.Config, debug bool) error {
	level, err := logger.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if debug {
		level = logger.DEBUG
	}
	logger.SetLevel(level)
	logger.SetRedactionEnabled(!cfg.Logging.DisableRedaction)

	if cfg.Logging.File != "" {
		if err := logger.EnableFileLogging(cfg.Logging.File); err != nil {
			return fmt.Errorf("enable file logging: %w", err)
		}
	}
	return nil
}

// FormatVersion returns the version string with optional git commit
func FormatVersion() string {
	v := version
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	return v
}

// FormatBuildInfo returns build time and go version info
func FormatBuildInfo() (string, string) {
	build := buildTime
	goVer := goVersion
	if goVer == "" {
		goVer = runtime.Version()
	}
	return build, goVer
}

func GetVersion() string {
	return version
}
