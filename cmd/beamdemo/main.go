package main

import (
	_ "embed"
	"flag"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/lightbeam"
	"github.com/gekko3d/lightbeam/beamrt/core"
)

//go:embed shaders/beam_level0.wgsl
var level0WGSL string

//go:embed shaders/beam_level1.wgsl
var level1WGSL string

const (
	SceneStage lightbeam.State = iota
	SceneCorridor
	SceneExit
)

func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "JSON config file (defaults when empty)")
	level0 := flag.String("level0", "", "Level-0 WGSL shader file (embedded when empty)")
	level1 := flag.String("level1", "", "Level-1 WGSL shader file (embedded when empty)")
	preset := flag.String("preset", "beams.json", "file written by P and read by L")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg := lightbeam.DefaultConfig()
	if *configPath != "" {
		loaded, err := lightbeam.LoadConfig(*configPath)
		if err != nil {
			panic(err)
		}
		cfg = loaded
	}
	if cfg.Level0Shader.Path == "" {
		cfg.Level0Shader.Path = *level0
		cfg.Level0Shader.Source = level0WGSL
	}
	if cfg.Level1Shader.Path == "" {
		cfg.Level1Shader.Path = *level1
		cfg.Level1Shader.Source = level1WGSL
	}
	defer glfw.Terminate()

	app := lightbeam.NewAppBuilder().
		UseStates(SceneStage, SceneExit).
		UseModule(
			lightbeam.LoggingModule{Prefix: "beamdemo", Debug: *debug},
			lightbeam.TimeModule{},
			lightbeam.BeamModule{Config: cfg},
			lightbeam.OcclusionModule{},
			lightbeam.BeamRenderModule{
				Width:      1280,
				Height:     720,
				Title:      "lightbeam demo",
				ClearColor: wgpu.Color{R: 0.02, G: 0.02, B: 0.04, A: 1},
			},
			lightbeam.FlyingCameraModule{},
			demoModule{presetPath: *preset},
		).
		Build()

	app.Run()
}

type demoModule struct {
	presetPath string
}

type demoState struct {
	presetPath string
	spot       lightbeam.BeamId
	sky        bool
}

func (m demoModule) Install(app *lightbeam.App, cmd *lightbeam.Commands) {
	cmd.AddResources(&demoState{presetPath: m.presetPath})

	app.UseSystem(
		lightbeam.System(enterStageSystem).
			InStage(lightbeam.Update).
			InState(lightbeam.OnEnter(SceneStage)),
	)
	app.UseSystem(
		lightbeam.System(enterCorridorSystem).
			InStage(lightbeam.Update).
			InState(lightbeam.OnEnter(SceneCorridor)),
	)
	app.UseSystem(
		lightbeam.System(demoControlSystem).
			InStage(lightbeam.Update).
			RunAlways(),
	)
}

func spotParams(color core.Color, angle float32) *core.BeamParams {
	p := core.DefaultBeamParams()
	p.Color = color
	p.SpotAngle = angle
	p.FadeEnd = 6
	p.TrackChanges = true
	return &p
}

func enterStageSystem(cmd *lightbeam.Commands, demo *demoState, occluders *lightbeam.OccluderSet) {
	occ := lightbeam.DefaultDynamicOcclusion()
	down := mgl32.QuatRotate(mgl32.DegToRad(180), mgl32.Vec3{1, 0, 0})

	demo.spot = cmd.SpawnBeam(lightbeam.BeamDef{
		Name:      "spot",
		Position:  mgl32.Vec3{0, 0, 4},
		Rotation:  down,
		Params:    spotParams(core.Color{R: 1, G: 0.85, B: 0.6, A: 1}, 35),
		Occlusion: &occ,
	})
	if !demo.sky {
		demo.sky = true
		cmd.SpawnBeam(lightbeam.BeamDef{
			Name:       "sky",
			Position:   mgl32.Vec3{-3, 2, 0},
			Rotation:   mgl32.QuatRotate(mgl32.DegToRad(-60), mgl32.Vec3{1, 0, 0}),
			Params:     spotParams(core.Color{R: 0.4, G: 0.6, B: 1, A: 1}, 20),
			Persistent: true,
		})
	}

	occluders.Occluders = occluders.Occluders[:0]
	occluders.Add(lightbeam.Occluder{
		Name:   "table",
		Bounds: core.Bounds{Center: mgl32.Vec3{0.5, 0, 1}, Extents: mgl32.Vec3{1, 1, 0.1}},
	})
}

func enterCorridorSystem(cmd *lightbeam.Commands, occluders *lightbeam.OccluderSet) {
	occluders.Occluders = occluders.Occluders[:0]
	down := mgl32.QuatRotate(mgl32.DegToRad(180), mgl32.Vec3{1, 0, 0})
	for i := 0; i < 5; i++ {
		p := spotParams(core.Color{R: 1, G: 1, B: 1, A: 1}, 25)
		p.LOD = core.LOD1
		cmd.SpawnBeam(lightbeam.BeamDef{
			Name:     "corridor",
			Position: mgl32.Vec3{0, float32(i) * 3, 3},
			Rotation: down,
			Params:   p,
		})
	}
}

func demoControlSystem(ws *lightbeam.WindowState, world *lightbeam.BeamWorld, demo *demoState, cmd *lightbeam.Commands) {
	if ws.KeyPressed(glfw.KeyEscape) {
		cmd.Quit()
		return
	}
	if ws.KeyPressed(glfw.Key1) {
		cmd.ChangeScene(SceneStage)
	}
	if ws.KeyPressed(glfw.Key2) {
		cmd.ChangeScene(SceneCorridor)
	}
	if ws.KeyPressed(glfw.KeyP) {
		if err := lightbeam.SaveBeamPreset(world, demo.presetPath); err != nil {
			cmd.Logger().Errorf("save preset: %v", err)
		}
	}
	if ws.KeyPressed(glfw.KeyL) {
		if _, err := lightbeam.LoadBeamPreset(cmd, demo.presetPath); err != nil {
			cmd.Logger().Errorf("load preset: %v", err)
		}
	}

	spot, ok := world.Beam(demo.spot)
	if !ok {
		return
	}
	if ws.KeyPressed(glfw.KeyN) {
		spot.Params.NoiseEnabled = !spot.Params.NoiseEnabled
	}
	if ws.KeyPressed(glfw.KeyO) {
		spot.Params.LOD = 1 - spot.Params.LOD
	}
	if ws.KeyPressed(glfw.KeyM) {
		cmd.Logger().Infof("%s", spot.MeshStats())
	}
	if ws.KeyDown(glfw.KeyEqual) {
		spot.Params.SpotAngle = min(spot.Params.SpotAngle+0.5, core.MaxSpotAngle)
	}
	if ws.KeyDown(glfw.KeyMinus) {
		spot.Params.SpotAngle = max(spot.Params.SpotAngle-0.5, core.MinSpotAngle)
	}
	if ws.KeyPressed(glfw.KeyG) {
		spot.Params.GeomSides = spot.Params.GeomSides%32 + 4
		if err := spot.GenerateGeometry(); err != nil {
			cmd.Logger().Errorf("generate geometry: %v", err)
		}
	}
}
