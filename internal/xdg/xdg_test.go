package xdg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirs(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		fn   func() string
		want string
	}{
		{"config from env", map[string]string{"XDG_CONFIG_HOME": "/custom/config"}, ConfigDir, "/custom/config/crab"},
		{"config default", map[string]string{"XDG_CONFIG_HOME": "", "HOME": "/home/rigger"}, ConfigDir, "/home/rigger/.config/crab"},
		{"data from env", map[string]string{"XDG_DATA_HOME": "/custom/data"}, DataDir, "/custom/data/crab"},
		{"data default", map[string]string{"XDG_DATA_HOME": "", "HOME": "/home/rigger"}, DataDir, "/home/rigger/.local/share/crab"},
		{"config file", map[string]string{"XDG_CONFIG_HOME": "/custom/config"}, ConfigFile, "/custom/config/crab/config.yaml"},
		{"plugin dir", map[string]string{"XDG_DATA_HOME": "/custom/data"}, PluginDir, "/custom/data/crab/plugins"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			assert.Equal(t, tt.want, tt.fn())
		})
	}
}

func TestSystemPluginDirs(t *testing.T) {
	t.Setenv("XDG_DATA_DIRS", "")
	assert.Equal(t, []string{"/usr/local/share/crab/plugins", "/usr/share/crab/plugins"}, SystemPluginDirs())

	t.Setenv("XDG_DATA_DIRS", "/opt/studio/share::relative:/srv/share")
	assert.Equal(t, []string{"/opt/studio/share/crab/plugins", "/srv/share/crab/plugins"}, SystemPluginDirs())
}
