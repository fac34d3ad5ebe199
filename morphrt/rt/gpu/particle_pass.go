package gpu

import (
	"fmt"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/pointmorph/morphrt/rt/core"
	"github.com/gekko3d/pointmorph/morphrt/rt/shaders"
	"github.com/go-gl/mathgl/mgl32"
)

// ParticleUniforms matches the WGSL Uniforms struct.
type ParticleUniforms struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
	Model      mgl32.Mat4
	ColorA     [4]float32
	ColorB     [4]float32
	Resolution [2]float32
	Progress   float32
	Size       float32
}

const particleUniformsSize = uint64(unsafe.Sizeof(ParticleUniforms{}))

// Six vertices (two triangles) per particle quad.
const quadVertices = 6

// DepthRemap maps GL clip depth [-w, w] to the WebGPU range [0, w].
var DepthRemap = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// slots lists the instance attributes in shader location order.
var slots = []struct {
	name   string
	format wgpu.VertexFormat
	stride uint64
}{
	{core.AttrPosition, wgpu.VertexFormatFloat32x3, 12},
	{core.AttrPositionTarget, wgpu.VertexFormatFloat32x3, 12},
	{core.AttrSize, wgpu.VertexFormatFloat32, 4},
	{core.AttrDisplacement, wgpu.VertexFormatFloat32x3, 12},
}

type attributeBuffer struct {
	buffer  *wgpu.Buffer
	version uint64
}

// ParticlePass draws the morphing point cloud with additive blending and
// no depth writes.
type ParticlePass struct {
	Device        *wgpu.Device
	Pipeline      *wgpu.RenderPipeline
	UniformBuffer *wgpu.Buffer
	BindGroup     *wgpu.BindGroup

	buffers   map[*core.Attribute]*attributeBuffer
	bound     [4]*wgpu.Buffer
	instances uint32
}

func NewParticlePass(device *wgpu.Device, format wgpu.TextureFormat, schedule core.Schedule) (*ParticlePass, error) {
	code, err := shaders.Generate(schedule)
	if err != nil {
		return nil, fmt.Errorf("generate particle shader: %w", err)
	}

	shaderModule, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "ParticleShader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: code},
	})
	if err != nil {
		return nil, err
	}
	defer shaderModule.Release()

	bgl, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "ParticleUniformsBGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: particleUniformsSize,
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}
	defer bgl.Release()

	pipelineLayout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "ParticlePipelineLayout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{bgl},
	})
	if err != nil {
		return nil, err
	}
	defer pipelineLayout.Release()

	layouts := make([]wgpu.VertexBufferLayout, len(slots))
	for i, s := range slots {
		layouts[i] = wgpu.VertexBufferLayout{
			ArrayStride: s.stride,
			StepMode:    wgpu.VertexStepModeInstance,
			Attributes: []wgpu.VertexAttribute{
				{Format: s.format, Offset: 0, ShaderLocation: uint32(i)},
			},
		}
	}

	pipeline, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "ParticlePipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     shaderModule,
			EntryPoint: "vs_main",
			Buffers:    layouts,
		},
		Fragment: &wgpu.FragmentState{
			Module:     shaderModule,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    format,
					WriteMask: wgpu.ColorWriteMaskAll,
					// additive
					Blend: &wgpu.BlendState{
						Color: wgpu.BlendComponent{
							Operation: wgpu.BlendOperationAdd,
							SrcFactor: wgpu.BlendFactorSrcAlpha,
							DstFactor: wgpu.BlendFactorOne,
						},
						Alpha: wgpu.BlendComponent{
							Operation: wgpu.BlendOperationAdd,
							SrcFactor: wgpu.BlendFactorOne,
							DstFactor: wgpu.BlendFactorOne,
						},
					},
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		DepthStencil: nil,
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, err
	}

	uniformBuffer, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "ParticleUniforms",
		Size:  particleUniformsSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		pipeline.Release()
		return nil, err
	}

	bindGroup, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "ParticleUniformsBG",
		Layout: pipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{
				Binding: 0,
				Buffer:  uniformBuffer,
				Size:    particleUniformsSize,
			},
		},
	})
	if err != nil {
		uniformBuffer.Release()
		pipeline.Release()
		return nil, err
	}

	return &ParticlePass{
		Device:        device,
		Pipeline:      pipeline,
		UniformBuffer: uniformBuffer,
		BindGroup:     bindGroup,
		buffers:       make(map[*core.Attribute]*attributeBuffer),
	}, nil
}

// NewParticleUniforms packs the controller uniforms and camera matrices.
func NewParticleUniforms(u core.Uniforms, cam *core.Camera) ParticleUniforms {
	return ParticleUniforms{
		View:       cam.View(),
		Projection: DepthRemap.Mul4(cam.Projection()),
		Model:      mgl32.Ident4(),
		ColorA:     [4]float32{u.ColorA[0], u.ColorA[1], u.ColorA[2], 1},
		ColorB:     [4]float32{u.ColorB[0], u.ColorB[1], u.ColorB[2], 1},
		Resolution: [2]float32{u.Resolution[0], u.Resolution[1]},
		Progress:   u.Progress,
		Size:       u.Size,
	}
}

// Update uploads attributes whose version changed since the last frame and
// rewrites the uniform buffer.
func (p *ParticlePass) Update(queue *wgpu.Queue, geometry *core.Geometry, uniforms ParticleUniforms) error {
	var instances uint32
	for i, s := range slots {
		attr := geometry.Attribute(s.name)
		if attr == nil {
			p.instances = 0
			return fmt.Errorf("geometry has no %s attribute", s.name)
		}
		buf, err := p.sync(queue, attr)
		if err != nil {
			return err
		}
		p.bound[i] = buf
		if i == 0 {
			instances = uint32(attr.Count())
		}
	}
	p.instances = instances

	return queue.WriteBuffer(p.UniformBuffer, 0, unsafe.Slice((*byte)(unsafe.Pointer(&uniforms)), particleUniformsSize))
}

func (p *ParticlePass) sync(queue *wgpu.Queue, attr *core.Attribute) (*wgpu.Buffer, error) {
	size := uint64(len(attr.Data) * 4)
	ab, ok := p.buffers[attr]
	if !ok || ab.buffer.GetSize() < size {
		if ok {
			ab.buffer.Release()
		}
		buffer, err := p.Device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "Particle_" + attr.Name,
			Size:  size,
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return nil, err
		}
		ab = &attributeBuffer{buffer: buffer}
		p.buffers[attr] = ab
	}
	if ab.version != attr.Version && size > 0 {
		if err := queue.WriteBuffer(ab.buffer, 0, unsafe.Slice((*byte)(unsafe.Pointer(&attr.Data[0])), size)); err != nil {
			return nil, err
		}
		ab.version = attr.Version
	}
	return ab.buffer, nil
}

func (p *ParticlePass) Draw(pass *wgpu.RenderPassEncoder) {
	if p.instances == 0 {
		return
	}
	pass.SetPipeline(p.Pipeline)
	pass.SetBindGroup(0, p.BindGroup, nil)
	for i, buf := range p.bound {
		pass.SetVertexBuffer(uint32(i), buf, 0, buf.GetSize())
	}
	pass.Draw(quadVertices, p.instances, 0, 0)
}

// Release frees every GPU object owned by the pass.
func (p *ParticlePass) Release() {
	for attr, ab := range p.buffers {
		ab.buffer.Release()
		delete(p.buffers, attr)
	}
	p.bound = [4]*wgpu.Buffer{}
	p.instances = 0
	if p.BindGroup != nil {
		p.BindGroup.Release()
		p.BindGroup = nil
	}
	if p.UniformBuffer != nil {
		p.UniformBuffer.Release()
		p.UniformBuffer = nil
	}
	if p.Pipeline != nil {
		p.Pipeline.Release()
		p.Pipeline = nil
	}
}
