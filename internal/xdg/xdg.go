// Package xdg resolves crab's XDG Base Directory locations.
package xdg

import (
	"os"
	"path/filepath"
	"strings"
)

const appName = "crab"

// defaultDataDirs applies when XDG_DATA_DIRS is unset.
var defaultDataDirs = []string{"/usr/local/share", "/usr/share"}

// home returns env, or $HOME joined with fallback when env is unset.
func home(env string, fallback ...string) string {
	if base := os.Getenv(env); base != "" {
		return base
	}
	return filepath.Join(append([]string{os.Getenv("HOME")}, fallback...)...)
}

// ConfigDir returns $XDG_CONFIG_HOME/crab, defaulting to ~/.config/crab.
func ConfigDir() string {
	return filepath.Join(home("XDG_CONFIG_HOME", ".config"), appName)
}

// DataDir returns $XDG_DATA_HOME/crab, defaulting to ~/.local/share/crab.
func DataDir() string {
	return filepath.Join(home("XDG_DATA_HOME", ".local", "share"), appName)
}

// ConfigFile returns the config file read when no --config is given.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// PluginDir returns the user plugin directory.
func PluginDir() string {
	return filepath.Join(DataDir(), "plugins")
}

// SystemPluginDirs returns the shared plugin directory under every entry of
// XDG_DATA_DIRS, most important first. Relative entries are ignored.
func SystemPluginDirs() []string {
	dirs := defaultDataDirs
	if v := os.Getenv("XDG_DATA_DIRS"); v != "" {
		dirs = filepath.SplitList(v)
	}
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		d = strings.TrimSpace(d)
		if d == "" || !filepath.IsAbs(d) {
			continue
		}
		out = append(out, filepath.Join(d, appName, "plugins"))
	}
	return out
}
