package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/gekko3d/pointmorph"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "TOML config file")
	headless := flag.Bool("headless", false, "Render with the software renderer and write PNG frames")
	frames := flag.Int("frames", 0, "Frames to run in headless mode (0 keeps the config value)")
	out := flag.String("out", "", "Output directory for headless frames")
	panel := flag.String("panel", "", "Debug panel listen address, e.g. 127.0.0.1:8090")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [source ...]\n\n", os.Args[0])
		fmt.Fprintf(flag.CommandLine.Output(), "Sources are sdf:<shape>, .gltf/.glb or .vox files; each becomes a morph target.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg := pointmorph.DefaultConfig()
	if *configPath != "" {
		loaded, err := pointmorph.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		cfg = loaded
	}

	if *headless {
		cfg.Headless.Enabled = true
	}
	if *frames > 0 {
		cfg.Headless.Frames = *frames
	}
	if *out != "" {
		cfg.Headless.Out = *out
	}
	if *panel != "" {
		cfg.Debug.Listen = *panel
	}
	if *debug {
		cfg.Log.Debug = true
	}
	if flag.NArg() > 0 {
		cfg.Particles.Sources = flag.Args()
	}

	exp, err := pointmorph.NewExperience(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
	if err := exp.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// exitCode is 2 for configuration problems and 1 for everything else.
func exitCode(err error) int {
	if errors.Is(err, pointmorph.ErrInvalidConfig) {
		return 2
	}
	return 1
}
