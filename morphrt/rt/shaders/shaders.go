package shaders

import (
	"bytes"
	_ "embed"
	"strconv"
	"strings"
	"text/template"

	"github.com/gekko3d/pointmorph/morphrt/rt/core"
)

//go:embed noise.wgsl
var NoiseWGSL string

//go:embed particles.wgsl.tmpl
var particlesTemplate string

const (
	DefaultGlowScale  = 0.05
	DefaultGlowOffset = 0.1
)

// ParticleParams are baked into the particle program as constants.
type ParticleParams struct {
	Duration       float32
	NoiseFrequency float32
	GlowScale      float32
	GlowOffset     float32
	Noise          string
}

func ParamsFromSchedule(s core.Schedule) ParticleParams {
	return ParticleParams{
		Duration:       s.Duration,
		NoiseFrequency: s.NoiseFrequency,
		GlowScale:      DefaultGlowScale,
		GlowOffset:     DefaultGlowOffset,
		Noise:          NoiseWGSL,
	}
}

var funcs = template.FuncMap{
	"f32": formatF32,
}

var particles = template.Must(template.New("particles").Funcs(funcs).Parse(particlesTemplate))

// formatF32 prints a float literal WGSL parses as a float, never as an int.
func formatF32(v float32) string {
	s := strconv.FormatFloat(float64(v), 'f', -1, 32)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// ParticleWGSL renders the particle program for the given parameters.
func ParticleWGSL(p ParticleParams) (string, error) {
	if p.Noise == "" {
		p.Noise = NoiseWGSL
	}
	var buf bytes.Buffer
	if err := particles.Execute(&buf, p); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Generate renders the particle program for a schedule.
func Generate(s core.Schedule) (string, error) {
	return ParticleWGSL(ParamsFromSchedule(s))
}
