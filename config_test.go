package pointmorph

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gekko3d/pointmorph/morphrt/rt/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, float32(core.DefaultStaggerDuration), cfg.Schedule().Duration)
	assert.Equal(t, time.Second/60, cfg.FrameStep())
}

func TestReadConfig_OverridesDefaults(t *testing.T) {
	cfg, err := ReadConfig(strings.NewReader(`
[particles]
size = 0.8
preemption = "queue"
color_a = "#ffffff"

[pointer]
decay = 0.9
decay_mode = "time"

[headless]
enabled = true
fps = 30
`))
	require.NoError(t, err)

	assert.Equal(t, float32(0.8), cfg.Particles.Size)
	assert.Equal(t, "queue", cfg.Particles.Preemption)
	assert.Equal(t, float32(0.9), cfg.Pointer.Decay)
	assert.Equal(t, DecayPerTime, cfg.Pointer.DecayMode)
	assert.Equal(t, time.Second/30, cfg.FrameStep())

	// untouched keys keep their defaults
	assert.Equal(t, DefaultConfig().Window, cfg.Window)
	assert.Equal(t, DefaultConfig().Particles.ColorB, cfg.Particles.ColorB)

	u := cfg.Uniforms()
	assert.InDelta(t, 1, u.ColorA.X(), 1e-6)
	assert.InDelta(t, 1, u.ColorA.Y(), 1e-6)
	assert.Equal(t, float32(0.8), u.Size)
	assert.Equal(t, float32(0.9), cfg.DisplacerConfig().Decay)
}

func TestReadConfig_UnknownKey(t *testing.T) {
	_, err := ReadConfig(strings.NewReader("[particles]\nsizee = 1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config keys")
}

func TestReadConfig_ValidationErrorsAreJoined(t *testing.T) {
	_, err := ReadConfig(strings.NewReader(`
[particles]
size = -1
preemption = "sometimes"
color_b = "blue"

[pointer]
decay = 2.0
`))
	require.ErrorIs(t, err, ErrInvalidConfig)
	msg := err.Error()
	assert.Contains(t, msg, "particles.size")
	assert.Contains(t, msg, "particles.preemption")
	assert.Contains(t, msg, "particles.color_b")
	assert.Contains(t, msg, "pointer.decay")
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pointmorph.toml")
	require.NoError(t, os.WriteFile(path, []byte("[camera]\nfov = 50.0\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, float32(50), cfg.Camera.Fov)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#ff7300")
	require.NoError(t, err)
	assert.InDelta(t, 1, c.X(), 1e-4)
	assert.InDelta(t, 0.1714, c.Y(), 1e-3)
	assert.InDelta(t, 0, c.Z(), 1e-6)

	black, err := ParseColor("#000000")
	require.NoError(t, err)
	assert.Equal(t, float32(0), black.Len())

	_, err = ParseColor("orange")
	assert.Error(t, err)
}
