package pointmorph

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gekko3d/pointmorph/morphrt/rt/core"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pelletier/go-toml/v2"
)

// ErrInvalidConfig wraps every validation failure returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

type DecayMode string

const (
	DecayPerFrame DecayMode = "frame"
	DecayPerTime  DecayMode = "time"
)

type Config struct {
	Window    WindowConfig    `toml:"window"`
	Particles ParticlesConfig `toml:"particles"`
	Pointer   PointerConfig   `toml:"pointer"`
	Camera    CameraConfig    `toml:"camera"`
	Debug     DebugConfig     `toml:"debug"`
	Headless  HeadlessConfig  `toml:"headless"`
	Log       LogConfig       `toml:"log"`
}

type WindowConfig struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Title  string `toml:"title"`
}

type ParticlesConfig struct {
	// Sources become morph targets in order. A source may yield several.
	Sources         []string `toml:"sources"`
	Seed            int64    `toml:"seed"` // 0 seeds from the clock
	Size            float32  `toml:"size"`
	ColorA          string   `toml:"color_a"`
	ColorB          string   `toml:"color_b"`
	Preemption      string   `toml:"preemption"`
	TweenDuration   float32  `toml:"tween_duration"`
	StaggerDuration float32  `toml:"stagger_duration"`
	NoiseFrequency  float32  `toml:"noise_frequency"`
	FitRadius       float32  `toml:"fit_radius"`
	Cells           int      `toml:"cells"`
}

type PointerConfig struct {
	InfluenceRadius float32   `toml:"influence_radius"`
	RayFalloff      float32   `toml:"ray_falloff"`
	VelocityGain    float32   `toml:"velocity_gain"`
	MaxPush         float32   `toml:"max_push"`
	PushScale       float32   `toml:"push_scale"`
	Decay           float32   `toml:"decay"`
	DecayMode       DecayMode `toml:"decay_mode"`
	PickThreshold   float32   `toml:"pick_threshold"`
}

type CameraConfig struct {
	Fov              float32 `toml:"fov"`
	Distance         float32 `toml:"distance"`
	DampingFrequency float64 `toml:"damping_frequency"`
	DampingRatio     float64 `toml:"damping_ratio"`
}

type DebugConfig struct {
	// Listen is the websocket panel address; empty disables the panel.
	Listen          string `toml:"listen"`
	BroadcastFrames int    `toml:"broadcast_frames"`
}

type HeadlessConfig struct {
	Enabled     bool   `toml:"enabled"`
	Frames      int    `toml:"frames"`
	Out         string `toml:"out"`
	Every       int    `toml:"every"`
	Width       int    `toml:"width"`
	Height      int    `toml:"height"`
	Supersample int    `toml:"supersample"`
	// MorphEvery schedules a morph to the next target every N frames.
	MorphEvery int `toml:"morph_every"`
	FPS        int `toml:"fps"`
}

type LogConfig struct {
	Debug bool `toml:"debug"`
}

func DefaultConfig() Config {
	return Config{
		Window: WindowConfig{Width: 1280, Height: 720, Title: "pointmorph"},
		Particles: ParticlesConfig{
			Sources:         []string{"sdf:sphere", "sdf:box", "sdf:ring", "sdf:cross"},
			Size:            0.4,
			ColorA:          "#ff7300",
			ColorB:          "#0091ff",
			Preemption:      core.PreemptRestart.String(),
			TweenDuration:   core.DefaultTweenDuration,
			StaggerDuration: core.DefaultStaggerDuration,
			NoiseFrequency:  core.DefaultNoiseFrequency,
			FitRadius:       3.5,
			Cells:           48,
		},
		Pointer: PointerConfig{
			InfluenceRadius: core.DefaultInfluenceRadius,
			RayFalloff:      core.DefaultRayFalloff,
			VelocityGain:    core.DefaultVelocityGain,
			MaxPush:         core.DefaultMaxPush,
			PushScale:       core.DefaultPushScale,
			Decay:           core.DefaultDecay,
			DecayMode:       DecayPerFrame,
			PickThreshold:   core.DefaultPickThreshold,
		},
		Camera: CameraConfig{
			Fov:              35,
			Distance:         16,
			DampingFrequency: 6,
			DampingRatio:     1,
		},
		Debug: DebugConfig{BroadcastFrames: 30},
		Headless: HeadlessConfig{
			Frames:      360,
			Out:         "frames",
			Every:       6,
			Width:       640,
			Height:      360,
			Supersample: 2,
			MorphEvery:  150,
			FPS:         60,
		},
	}
}

// LoadConfig reads a TOML file over DefaultConfig. Unknown keys are errors.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()

	cfg, err := ReadConfig(bufio.NewReader(f))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func ReadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("unknown config keys:\n%s", strict.String())
		}
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	p := c.Particles
	check(len(p.Sources) > 0, "particles.sources is empty")
	check(p.Size > 0, "particles.size must be positive")
	check(p.TweenDuration >= 0, "particles.tween_duration must not be negative")
	check(p.StaggerDuration > 0 && p.StaggerDuration <= 1, "particles.stagger_duration must be in (0, 1]")
	check(p.NoiseFrequency > 0, "particles.noise_frequency must be positive")
	check(p.FitRadius > 0, "particles.fit_radius must be positive")
	if _, err := core.ParsePreemption(p.Preemption); err != nil {
		errs = append(errs, fmt.Errorf("particles.preemption: %w", err))
	}
	if _, err := ParseColor(p.ColorA); err != nil {
		errs = append(errs, fmt.Errorf("particles.color_a: %w", err))
	}
	if _, err := ParseColor(p.ColorB); err != nil {
		errs = append(errs, fmt.Errorf("particles.color_b: %w", err))
	}

	ptr := c.Pointer
	check(ptr.InfluenceRadius > 0, "pointer.influence_radius must be positive")
	check(ptr.RayFalloff > 0, "pointer.ray_falloff must be positive")
	check(ptr.Decay > 0 && ptr.Decay <= 1, "pointer.decay must be in (0, 1]")
	check(ptr.MaxPush >= 0, "pointer.max_push must not be negative")
	check(ptr.PickThreshold >= 0, "pointer.pick_threshold must not be negative")
	check(ptr.DecayMode == DecayPerFrame || ptr.DecayMode == DecayPerTime,
		"pointer.decay_mode must be %q or %q", DecayPerFrame, DecayPerTime)

	check(c.Camera.Fov > 0 && c.Camera.Fov < 180, "camera.fov must be in (0, 180)")
	check(c.Camera.Distance > 0, "camera.distance must be positive")
	check(c.Window.Width > 0 && c.Window.Height > 0, "window size must be positive")
	check(c.Debug.BroadcastFrames > 0, "debug.broadcast_frames must be positive")

	if c.Headless.Enabled {
		h := c.Headless
		check(h.Width > 0 && h.Height > 0, "headless size must be positive")
		check(h.Frames > 0, "headless.frames must be positive")
		check(h.FPS > 0, "headless.fps must be positive")
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w:\n%w", ErrInvalidConfig, errors.Join(errs...))
}

// ParseColor reads a CSS hex colour and returns it in linear RGB.
func ParseColor(hex string) (mgl32.Vec3, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return mgl32.Vec3{}, err
	}
	r, g, b := c.LinearRgb()
	return mgl32.Vec3{float32(r), float32(g), float32(b)}, nil
}

// Uniforms builds the initial shader uniforms. Call after Validate.
func (c Config) Uniforms() core.Uniforms {
	u := core.DefaultUniforms()
	u.Size = c.Particles.Size
	u.Resolution = mgl32.Vec2{float32(c.Window.Width), float32(c.Window.Height)}
	if a, err := ParseColor(c.Particles.ColorA); err == nil {
		u.ColorA = a
	}
	if b, err := ParseColor(c.Particles.ColorB); err == nil {
		u.ColorB = b
	}
	return u
}

func (c Config) Schedule() core.Schedule {
	return core.Schedule{Duration: c.Particles.StaggerDuration, NoiseFrequency: c.Particles.NoiseFrequency}
}

func (c Config) DisplacerConfig() core.PointerConfig {
	cfg := core.DefaultPointerConfig()
	cfg.InfluenceRadius = c.Pointer.InfluenceRadius
	cfg.RayFalloff = c.Pointer.RayFalloff
	cfg.VelocityGain = c.Pointer.VelocityGain
	cfg.MaxPush = c.Pointer.MaxPush
	cfg.PushScale = c.Pointer.PushScale
	cfg.Decay = c.Pointer.Decay
	cfg.PickThreshold = c.Pointer.PickThreshold
	return cfg
}

// FrameStep is the fixed time step headless runs advance by.
func (c Config) FrameStep() time.Duration {
	if c.Headless.FPS <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(c.Headless.FPS)
}
