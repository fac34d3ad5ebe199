package main

import (
	"errors"
	"testing"

	"github.com/gekko3d/pointmorph"
	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	cfg := pointmorph.DefaultConfig()
	cfg.Headless.Enabled = true
	cfg.Particles.Size = -1
	_, err := pointmorph.NewExperience(cfg)
	assert.Equal(t, 2, exitCode(err))

	assert.Equal(t, 1, exitCode(errors.New("window: no display")))
}
