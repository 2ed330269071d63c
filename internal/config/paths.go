package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Paths contains the standard directories for svgpro data.
type Paths struct {
	Data   string // ~/.local/share/svgpro
	Config string // ~/.config/svgpro
	State  string // ~/.local/state/svgpro
}

// GetPaths returns the XDG paths for svgpro.
func GetPaths() *Paths {
	return &Paths{
		Data:   filepath.Join(envOr("XDG_DATA_HOME", defaultDataHome()), "svgpro"),
		Config: filepath.Join(envOr("XDG_CONFIG_HOME", defaultConfigHome()), "svgpro"),
		State:  filepath.Join(envOr("XDG_STATE_HOME", defaultStateHome()), "svgpro"),
	}
}

// EnsurePaths creates the directories if missing.
func (p *Paths) EnsurePaths() error {
	for _, dir := range []string{p.Data, p.Config, p.State} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// StoragePath returns the record storage directory.
func (p *Paths) StoragePath() string {
	return filepath.Join(p.Data, "storage")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultDataHome() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("APPDATA")
	}
	return filepath.Join(os.Getenv("HOME"), ".local", "share")
}

func defaultConfigHome() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("APPDATA")
	}
	return filepath.Join(os.Getenv("HOME"), ".config")
}

func defaultStateHome() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("APPDATA")
	}
	return filepath.Join(os.Getenv("HOME"), ".local", "state")
}
