package core

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	AttrPosition       = "position"
	AttrPositionTarget = "aPositionTarget"
	AttrSize           = "aSize"
	AttrDisplacement   = "aDisplacement"
)

// Attribute is a per-vertex float stream consumed by a renderer. Name labels
// the backing storage, not the shader slot it is bound to.
// Renderers re-upload Data whenever Version differs from what they hold.
type Attribute struct {
	Name     string
	Data     []float32
	ItemSize int
	Version  uint64
}

func NewAttribute(name string, data []float32, itemSize int) *Attribute {
	return &Attribute{Name: name, Data: data, ItemSize: itemSize, Version: 1}
}

func (a *Attribute) Count() int {
	if a.ItemSize == 0 {
		return 0
	}
	return len(a.Data) / a.ItemSize
}

func (a *Attribute) MarkNeedsUpdate() {
	a.Version++
}

// Geometry maps shader attribute names to streams. Several names may alias
// the same *Attribute; re-pointing a name swaps the pointer, so renderers
// key their GPU buffers by *Attribute.
type Geometry struct {
	attributes map[string]*Attribute
}

func NewGeometry() *Geometry {
	return &Geometry{attributes: make(map[string]*Attribute)}
}

func (g *Geometry) SetAttribute(name string, attr *Attribute) {
	g.attributes[name] = attr
}

func (g *Geometry) Attribute(name string) *Attribute {
	return g.attributes[name]
}

func (g *Geometry) Names() []string {
	names := make([]string, 0, len(g.attributes))
	for name := range g.attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Uniforms are shared by every particle of a draw.
type Uniforms struct {
	Progress   float32
	Size       float32
	Resolution mgl32.Vec2
	ColorA     mgl32.Vec3
	ColorB     mgl32.Vec3
}

// DefaultUniforms uses #ff7300 and #0091ff, expressed in linear RGB.
func DefaultUniforms() Uniforms {
	return Uniforms{
		Progress:   0,
		Size:       0.4,
		Resolution: mgl32.Vec2{1280, 720},
		ColorA:     mgl32.Vec3{1, 0.1714, 0},
		ColorB:     mgl32.Vec3{0, 0.2831, 1},
	}
}
