package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/projweave/internal/emit"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg, err := NewConfig(Config{ProjectPath: "game", Output: StdoutOutput})
	require.NoError(t, err)
	assert.Equal(t, emit.FormatJSON, cfg.Format)
	assert.Equal(t, emit.DefaultTimeout, cfg.EmitTimeout)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestNewConfig_FormatFromOutput(t *testing.T) {
	cfg, err := NewConfig(Config{ProjectPath: "game", Output: "build/manifest.yaml"})
	require.NoError(t, err)
	assert.Equal(t, emit.FormatYAML, cfg.Format)

	cfg, err = NewConfig(Config{ProjectPath: "game", Output: "build/manifest.yaml", Format: "msgpack"})
	require.NoError(t, err)
	assert.Equal(t, emit.FormatMsgpack, cfg.Format, "explicit format wins over extension")
}

func TestNewConfig_Invalid(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "missing project", cfg: Config{}, wantErr: "ProjectPath is a required"},
		{name: "bad format", cfg: Config{ProjectPath: "p", Format: "toml"}, wantErr: "unsupported manifest format"},
		{name: "negative timeout", cfg: Config{ProjectPath: "p", EmitTimeout: -time.Second}, wantErr: "emit timeout"},
		{name: "namespace without url", cfg: Config{ProjectPath: "p", EmitNamespace: "/builds"}, wantErr: "without an emit URL"},
		{name: "negative watch delay", cfg: Config{ProjectPath: "p", WatchDelay: -time.Second}, wantErr: "watch delay"},
		{name: "bad log format", cfg: Config{ProjectPath: "p", LogFormat: "xml"}, wantErr: "invalid log format"},
		{name: "bad log level", cfg: Config{ProjectPath: "p", LogLevel: "trace"}, wantErr: "invalid log level"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewConfig(tc.cfg)
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}
