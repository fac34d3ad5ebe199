package shaders

import (
	"strings"
	"testing"

	"github.com/gekko3d/pointmorph/morphrt/rt/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_BakesScheduleConstants(t *testing.T) {
	src, err := Generate(core.DefaultSchedule())
	require.NoError(t, err)

	assert.Contains(t, src, "const STAGGER_DURATION: f32 = 0.6;")
	assert.Contains(t, src, "const NOISE_FREQUENCY: f32 = 0.2;")
	assert.Contains(t, src, "const GLOW_SCALE: f32 = 0.05;")
	assert.Contains(t, src, "fn snoise3(")
	assert.Contains(t, src, "fn vs_main(")
	assert.Contains(t, src, "fn fs_main(")
	assert.NotContains(t, src, "{{")
}

func TestGenerate_CustomSchedule(t *testing.T) {
	src, err := Generate(core.Schedule{Duration: 1, NoiseFrequency: 0.125})
	require.NoError(t, err)

	assert.Contains(t, src, "const STAGGER_DURATION: f32 = 1.0;")
	assert.Contains(t, src, "const NOISE_FREQUENCY: f32 = 0.125;")
}

func TestFormatF32(t *testing.T) {
	assert.Equal(t, "2.0", formatF32(2))
	assert.Equal(t, "0.6", formatF32(0.6))
	assert.Equal(t, "-0.5", formatF32(-0.5))
}

func TestParticleWGSL_BindingsMatchPass(t *testing.T) {
	src, err := ParticleWGSL(ParamsFromSchedule(core.DefaultSchedule()))
	require.NoError(t, err)

	for loc := 0; loc < 4; loc++ {
		assert.Contains(t, src, "@location("+string(rune('0'+loc))+")")
	}
	assert.Equal(t, 1, strings.Count(src, "@group(0) @binding(0)"))
}
