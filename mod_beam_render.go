package lightbeam

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/gekko3d/lightbeam/beamrt/gpu"
	"github.com/gekko3d/lightbeam/beamrt/material"
	"github.com/gekko3d/lightbeam/beamrt/mesh"
)

const beamRendererName = "lightbeam-wgpu"

// BeamRenderModule opens a window and draws every beam of the BeamWorld
// with additive blending. BeamModule must be installed first.
type BeamRenderModule struct {
	Width      int
	Height     int
	Title      string
	ClearColor wgpu.Color
}

type beamRenderState struct {
	gpu  *GpuState
	pass *gpu.BeamPass
}

func (mod BeamRenderModule) Install(app *App, cmd *Commands) {
	ensureSingleRenderer(app, beamRendererName)

	world, ok := resource[BeamWorld](app)
	if !ok {
		panic("BeamRenderModule needs BeamModule to be installed first")
	}

	width, height, title := mod.Width, mod.Height, mod.Title
	if width <= 0 {
		width = 1280
	}
	if height <= 0 {
		height = 720
	}
	if title == "" {
		title = "lightbeam"
	}

	ws, err := createWindowState(width, height, title)
	if err != nil {
		panic(err)
	}
	gs, err := createGpuState(ws)
	if err != nil {
		panic(err)
	}
	pass, err := gpu.NewBeamPass(gs.device, gs.surfaceConfig.Format)
	if err != nil {
		panic(fmt.Sprintf("beam pass: %v", err))
	}

	world.OnRelease(
		func(m *mesh.Mesh) { pass.ReleaseMesh(m) },
		func(m *material.Material) { pass.ReleaseMaterial(m) },
	)
	world.OnDespawn(func(b *VolumetricBeam) {
		for _, r := range b.Renderers() {
			pass.ReleaseRenderer(r)
		}
	})

	if cam, ok := resource[Camera](app); ok {
		cam.Aspect = float32(width) / float32(height)
	}

	cmd.AddResources(ws, &beamRenderState{gpu: gs, pass: pass}, &clearColor{mod.ClearColor})

	app.UseSystem(
		System(windowEventsSystem).
			InStage(Prelude).
			RunAlways(),
	)
	app.UseSystem(
		System(beamRenderSystem).
			InStage(Render).
			RunAlways(),
	)
}

type clearColor struct {
	wgpu.Color
}

func windowEventsSystem(ws *WindowState, rs *beamRenderState, cam *Camera, cmd *Commands) {
	clear(ws.pressed)
	glfw.PollEvents()
	if ws.ShouldClose() {
		cmd.Quit()
		return
	}
	if ws.resized {
		ws.resized = false
		rs.gpu.resize(ws.WindowWidth, ws.WindowHeight)
		if ws.WindowHeight > 0 {
			cam.Aspect = float32(ws.WindowWidth) / float32(ws.WindowHeight)
		}
	}
}

func beamRenderSystem(world *BeamWorld, rs *beamRenderState, cam *Camera, cc *clearColor) {
	if err := renderBeams(world, rs, cam, cc.Color); err != nil {
		world.logger.Errorf("render: %v", err)
	}
}

func renderBeams(world *BeamWorld, rs *beamRenderState, cam *Camera, cc wgpu.Color) error {
	gs := rs.gpu
	nextTexture, err := gs.surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("get current texture: %w", err)
	}
	defer nextTexture.Release()

	view, err := nextTexture.CreateView(nil)
	if err != nil {
		return fmt.Errorf("create view: %w", err)
	}
	defer view.Release()

	encoder, err := gs.device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	defer encoder.Release()

	renderPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       view,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: cc,
			},
		},
	})

	frame := gpu.FrameParams{
		ViewProj:   cam.ViewProjection(),
		CameraPos:  cam.Position,
		GammaColor: !isSrgb(gs.surfaceConfig.Format),
	}
	drawErr := rs.pass.Draw(renderPass, world.Renderers(), frame)
	if err := renderPass.End(); err != nil {
		return fmt.Errorf("end render pass: %w", err)
	}
	renderPass.Release()
	if drawErr != nil {
		return drawErr
	}

	cmdBuffer, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish encoder: %w", err)
	}
	defer cmdBuffer.Release()

	gs.queue.Submit(cmdBuffer)
	gs.surface.Present()
	return nil
}
