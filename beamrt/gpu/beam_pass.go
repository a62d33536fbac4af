// Package gpu draws beam renderers with WebGPU.
package gpu

import (
	"fmt"
	"slices"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/lightbeam/beamrt/asset"
	"github.com/gekko3d/lightbeam/beamrt/core"
	"github.com/gekko3d/lightbeam/beamrt/geometry"
	"github.com/gekko3d/lightbeam/beamrt/material"
	"github.com/gekko3d/lightbeam/beamrt/mesh"
	"github.com/gekko3d/lightbeam/beamrt/texture"
)

// BeamVertex matches the WGSL vertex input: position at 0, uv at 1.
type BeamVertex struct {
	Pos [3]float32
	UV  [2]float32
}

type meshBuffers struct {
	vertex     *wgpu.Buffer
	index      *wgpu.Buffer
	indexCount uint32
}

type pipelineState struct {
	pipeline *wgpu.RenderPipeline
}

type textureState struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
}

type instanceState struct {
	uniform   *wgpu.Buffer
	bindGroup *wgpu.BindGroup
	material  asset.Id
}

// BeamPass owns every GPU object derived from the shared caches. Objects
// are created lazily on first draw and dropped through the Release hooks.
type BeamPass struct {
	Device *wgpu.Device
	Format wgpu.TextureFormat

	sampler   *wgpu.Sampler
	meshes    map[asset.Id]*meshBuffers
	pipelines map[asset.Id]*pipelineState
	textures  map[asset.Id]*textureState
	instances map[*geometry.MeshRenderer]*instanceState
}

func NewBeamPass(device *wgpu.Device, format wgpu.TextureFormat) (*BeamPass, error) {
	sampler, err := device.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMinClamp:   0.,
		LodMaxClamp:   1.,
		Compare:       wgpu.CompareFunctionUndefined,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return nil, err
	}
	return &BeamPass{
		Device:    device,
		Format:    format,
		sampler:   sampler,
		meshes:    make(map[asset.Id]*meshBuffers),
		pipelines: make(map[asset.Id]*pipelineState),
		textures:  make(map[asset.Id]*textureState),
		instances: make(map[*geometry.MeshRenderer]*instanceState),
	}, nil
}

// DrawOrder returns the drawable renderers sorted by render queue. Equal
// queues keep their input order.
func DrawOrder(renderers []*geometry.MeshRenderer) []*geometry.MeshRenderer {
	out := make([]*geometry.MeshRenderer, 0, len(renderers))
	for _, r := range renderers {
		if r.Drawable() {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b *geometry.MeshRenderer) int {
		return a.Material.RenderQueue - b.Material.RenderQueue
	})
	return out
}

// Draw records every drawable renderer into pass.
func (p *BeamPass) Draw(pass *wgpu.RenderPassEncoder, renderers []*geometry.MeshRenderer, frame FrameParams) error {
	queue := p.Device.GetQueue()
	for _, r := range DrawOrder(renderers) {
		mb, err := p.ensureMesh(r.Mesh)
		if err != nil {
			return err
		}
		ps, err := p.ensurePipeline(r.Material)
		if err != nil {
			return err
		}
		inst, err := p.ensureInstance(r, ps)
		if err != nil {
			return err
		}

		if err := queue.WriteBuffer(inst.uniform, 0, PackUniforms(r.Model, r.Params, frame)); err != nil {
			return err
		}

		pass.SetPipeline(ps.pipeline)
		pass.SetBindGroup(0, inst.bindGroup, nil)
		pass.SetVertexBuffer(0, mb.vertex, 0, mb.vertex.GetSize())
		pass.SetIndexBuffer(mb.index, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
		pass.DrawIndexed(mb.indexCount, 1, 0, 0, 0)
	}
	return nil
}

func (p *BeamPass) ensureMesh(m *mesh.Mesh) (*meshBuffers, error) {
	if mb, ok := p.meshes[m.ID]; ok {
		return mb, nil
	}

	vertices := make([]BeamVertex, len(m.Positions))
	for i, pos := range m.Positions {
		vertices[i] = BeamVertex{Pos: pos, UV: m.UVs[i]}
	}

	vertex, err := p.Device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "BeamVertexBuffer",
		Contents: wgpu.ToBytes(vertices),
		Usage:    wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	index, err := p.Device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "BeamIndexBuffer",
		Contents: wgpu.ToBytes(m.Indices),
		Usage:    wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		vertex.Release()
		return nil, err
	}

	mb := &meshBuffers{vertex: vertex, index: index, indexCount: uint32(len(m.Indices))}
	p.meshes[m.ID] = mb
	return mb, nil
}

func cullMode(c material.CullMode) wgpu.CullMode {
	if c == material.CullFront {
		return wgpu.CullModeFront
	}
	return wgpu.CullModeBack
}

func (p *BeamPass) ensurePipeline(m *material.Material) (*pipelineState, error) {
	if ps, ok := p.pipelines[m.ID]; ok {
		return ps, nil
	}

	shaderModule, err := p.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "BeamShader " + m.Name,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: ShaderSource(m)},
	})
	if err != nil {
		return nil, fmt.Errorf("beam shader %s: %w", m.Name, err)
	}
	defer shaderModule.Release()

	pipeline, err := p.Device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "BeamPipeline " + m.Name,
		Vertex: wgpu.VertexState{
			Module:     shaderModule,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: uint64(unsafe.Sizeof(BeamVertex{})),
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes: []wgpu.VertexAttribute{
						{
							Format:         wgpu.VertexFormatFloat32x3,
							Offset:         0,
							ShaderLocation: 0,
						},
						{
							Format:         wgpu.VertexFormatFloat32x2,
							Offset:         12,
							ShaderLocation: 1,
						},
					},
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     shaderModule,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    p.Format,
					WriteMask: wgpu.ColorWriteMaskAll,
					// Beams add light.
					Blend: &wgpu.BlendState{
						Color: wgpu.BlendComponent{
							Operation: wgpu.BlendOperationAdd,
							SrcFactor: wgpu.BlendFactorSrcAlpha,
							DstFactor: wgpu.BlendFactorOne,
						},
						Alpha: wgpu.BlendComponent{
							Operation: wgpu.BlendOperationAdd,
							SrcFactor: wgpu.BlendFactorZero,
							DstFactor: wgpu.BlendFactorOne,
						},
					},
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  cullMode(m.Cull),
		},
		DepthStencil: nil,
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("beam pipeline %s: %w", m.Name, err)
	}

	ps := &pipelineState{pipeline: pipeline}
	p.pipelines[m.ID] = ps
	return ps, nil
}

func (p *BeamPass) ensureTexture(t *texture.Texture) (*textureState, error) {
	if ts, ok := p.textures[t.ID]; ok {
		return ts, nil
	}

	extent := wgpu.Extent3D{Width: t.Width(), Height: t.Height(), DepthOrArrayLayers: 1}
	tex, err := p.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "BeamTexture " + t.Name,
		Size:          extent,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, err
	}
	p.Device.GetQueue().WriteTexture(tex.AsImageCopy(), t.Texels(), &wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  4 * t.Width(),
		RowsPerImage: t.Height(),
	}, &extent)

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, err
	}

	ts := &textureState{texture: tex, view: view}
	p.textures[t.ID] = ts
	return ts, nil
}

func (p *BeamPass) ensureInstance(r *geometry.MeshRenderer, ps *pipelineState) (*instanceState, error) {
	inst, ok := p.instances[r]
	if ok && inst.material == r.Material.ID && inst.bindGroup != nil {
		return inst, nil
	}
	if !ok {
		uniform, err := p.Device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "BeamUniforms",
			Size:  uint64(layout.Size),
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return nil, err
		}
		inst = &instanceState{uniform: uniform}
		p.instances[r] = inst
	}
	if inst.bindGroup != nil {
		inst.bindGroup.Release()
		inst.bindGroup = nil
	}

	entries := []wgpu.BindGroupEntry{
		{
			Binding: 0,
			Buffer:  inst.uniform,
			Size:    wgpu.WholeSize,
		},
	}
	if r.Material.Key.LOD == core.LOD1 && r.Material.Texture != nil {
		ts, err := p.ensureTexture(r.Material.Texture)
		if err != nil {
			return nil, err
		}
		entries = append(entries,
			wgpu.BindGroupEntry{Binding: 1, TextureView: ts.view},
			wgpu.BindGroupEntry{Binding: 2, Sampler: p.sampler},
		)
	}

	bindGroup, err := p.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   "BeamBindGroup " + r.Material.Name,
		Layout:  ps.pipeline.GetBindGroupLayout(0),
		Entries: entries,
	})
	if err != nil {
		return nil, err
	}
	inst.bindGroup = bindGroup
	inst.material = r.Material.ID
	return inst, nil
}

// ReleaseMaterial drops the pipeline of a destroyed material and the bind
// groups built against it.
func (p *BeamPass) ReleaseMaterial(m *material.Material) {
	if ps, ok := p.pipelines[m.ID]; ok {
		ps.pipeline.Release()
		delete(p.pipelines, m.ID)
	}
	for _, inst := range p.instances {
		if inst.material == m.ID && inst.bindGroup != nil {
			inst.bindGroup.Release()
			inst.bindGroup = nil
		}
	}
}

func (p *BeamPass) ReleaseMesh(m *mesh.Mesh) {
	if mb, ok := p.meshes[m.ID]; ok {
		mb.vertex.Release()
		mb.index.Release()
		delete(p.meshes, m.ID)
	}
}

// ReleaseRenderer frees the uniform buffer of a renderer that went away.
func (p *BeamPass) ReleaseRenderer(r *geometry.MeshRenderer) {
	inst, ok := p.instances[r]
	if !ok {
		return
	}
	if inst.bindGroup != nil {
		inst.bindGroup.Release()
	}
	inst.uniform.Release()
	delete(p.instances, r)
}

func (p *BeamPass) Release() {
	for r := range p.instances {
		p.ReleaseRenderer(r)
	}
	for _, ps := range p.pipelines {
		ps.pipeline.Release()
	}
	for _, mb := range p.meshes {
		mb.vertex.Release()
		mb.index.Release()
	}
	for _, ts := range p.textures {
		ts.view.Release()
		ts.texture.Release()
	}
	clear(p.pipelines)
	clear(p.meshes)
	clear(p.textures)
	if p.sampler != nil {
		p.sampler.Release()
		p.sampler = nil
	}
}
