package core

import (
	"errors"
	"fmt"
)

var (
	ErrNoSourceMeshes = errors.New("no source meshes")
	ErrEmptyMesh      = errors.New("source mesh has no vertices")
)

// Rand is the random source used for padding and particle sizes.
// *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
	Float32() float32
}

// SourceMesh is a named, flat xyz position list as produced by a loader.
type SourceMesh struct {
	Name      string
	Positions []float32
}

func NewSourceMesh(name string, positions []float32) SourceMesh {
	return SourceMesh{Name: name, Positions: positions}
}

func (m SourceMesh) Count() int {
	return len(m.Positions) / 3
}

func (m SourceMesh) validate() error {
	if len(m.Positions) == 0 || len(m.Positions)%3 != 0 {
		return fmt.Errorf("%w: %q has %d floats", ErrEmptyMesh, m.Name, len(m.Positions))
	}
	return nil
}

// MorphTargetBuffer holds 3*maxCount floats. Never mutated once built.
type MorphTargetBuffer []float32

func (b MorphTargetBuffer) Count() int {
	return len(b) / 3
}

func (b MorphTargetBuffer) At(i int) [3]float32 {
	return [3]float32{b[i*3], b[i*3+1], b[i*3+2]}
}

// MaxCount returns the largest vertex count among meshes.
func MaxCount(meshes []SourceMesh) int {
	maxCount := 0
	for _, m := range meshes {
		if c := m.Count(); c > maxCount {
			maxCount = c
		}
	}
	return maxCount
}

// Normalize resamples every mesh to the same vertex count. Slots past a
// mesh's own count are filled with copies of uniformly drawn vertices of
// that mesh, one independent draw per slot.
func Normalize(meshes []SourceMesh, rng Rand) ([]MorphTargetBuffer, error) {
	if len(meshes) == 0 {
		return nil, ErrNoSourceMeshes
	}
	for _, m := range meshes {
		if err := m.validate(); err != nil {
			return nil, err
		}
	}

	maxCount := MaxCount(meshes)
	targets := make([]MorphTargetBuffer, len(meshes))
	for i, m := range meshes {
		count := m.Count()
		buf := make(MorphTargetBuffer, maxCount*3)
		copy(buf, m.Positions)

		for j := count; j < maxCount; j++ {
			src := rng.Intn(count) * 3
			copy(buf[j*3:j*3+3], m.Positions[src:src+3])
		}
		targets[i] = buf
	}
	return targets, nil
}
