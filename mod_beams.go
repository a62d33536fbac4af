package lightbeam

import (
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/lightbeam/beamrt/core"
	"github.com/gekko3d/lightbeam/beamrt/geometry"
	"github.com/gekko3d/lightbeam/beamrt/material"
	"github.com/gekko3d/lightbeam/beamrt/mesh"
	"github.com/gekko3d/lightbeam/beamrt/texture"
)

// BeamWorld owns the shared caches and every beam of the current scene.
type BeamWorld struct {
	Config    Config
	Meshes    *mesh.SharedCache
	Materials *material.VariantCache

	beams    map[BeamId]*VolumetricBeam
	order    []BeamId
	textures map[string]*texture.Texture
	logger   Logger

	meshReleased     []func(*mesh.Mesh)
	materialReleased []func(*material.Material)
	despawned        []func(*VolumetricBeam)
}

func NewBeamWorld(cfg Config, logger Logger) (*BeamWorld, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	settings, err := cfg.MaterialSettings()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = NewNopLogger()
	}

	w := &BeamWorld{
		Config:    cfg,
		Meshes:    mesh.NewSharedCache(),
		Materials: material.NewVariantCache(settings),
		beams:     make(map[BeamId]*VolumetricBeam),
		textures:  make(map[string]*texture.Texture),
		logger:    logger,
	}

	w.Meshes.OnCreate = func(m *mesh.Mesh) {
		w.logger.Debugf("shared mesh %s created (%s)", m.ID, m.Stats())
	}
	w.Meshes.OnDestroy = func(m *mesh.Mesh) {
		w.logger.Debugf("shared mesh %s destroyed", m.ID)
		for _, fn := range w.meshReleased {
			fn(m)
		}
	}
	w.Materials.OnCreate = func(m *material.Material) {
		w.logger.Debugf("material %s created (queue %d, cull %s, keywords %v)", m.Name, m.RenderQueue, m.Cull, m.Keywords)
	}
	w.Materials.OnDestroy = func(m *material.Material) {
		w.logger.Debugf("material %s destroyed", m.Name)
		for _, fn := range w.materialReleased {
			fn(m)
		}
	}
	return w, nil
}

// OnRelease registers callbacks run for every mesh and material a purge
// destroys. They run with the cache locked and must not call back into it.
func (w *BeamWorld) OnRelease(meshFn func(*mesh.Mesh), materialFn func(*material.Material)) {
	if meshFn != nil {
		w.meshReleased = append(w.meshReleased, meshFn)
	}
	if materialFn != nil {
		w.materialReleased = append(w.materialReleased, materialFn)
	}
}

// OnDespawn registers a callback run before a beam drops its renderers.
func (w *BeamWorld) OnDespawn(fn func(*VolumetricBeam)) {
	w.despawned = append(w.despawned, fn)
}

// Spawn creates, activates and builds a beam from def.
func (w *BeamWorld) Spawn(id BeamId, def BeamDef) (*VolumetricBeam, error) {
	if _, ok := w.beams[id]; ok {
		return nil, fmt.Errorf("beam %d already exists", id)
	}

	params := def.BeamParams(w.Config)
	if def.TexturePath != "" {
		tex, err := w.texture(def.TexturePath)
		if err != nil {
			return nil, err
		}
		params.OverrideTexture = tex
	}

	b := newVolumetricBeam(w, id, def.Name, params, def.Transform())
	b.Persistent = def.Persistent
	if def.Occlusion != nil {
		occ := *def.Occlusion
		occ.Validate()
		b.Occlusion = &occ
	}

	b.OnActivate()
	if err := b.GenerateGeometry(); err != nil {
		b.OnTeardown()
		return nil, err
	}

	w.beams[id] = b
	w.order = append(w.order, id)
	w.logger.Debugf("beam %d %q spawned: %s", id, b.Name, b.MeshStats())
	return b, nil
}

// texture loads each override texture once so beams naming the same file
// share one material.
func (w *BeamWorld) texture(path string) (*texture.Texture, error) {
	if t, ok := w.textures[path]; ok {
		return t, nil
	}
	t, err := texture.Load(path, w.Config.TextureSize)
	if err != nil {
		return nil, err
	}
	w.textures[path] = t
	return t, nil
}

func (w *BeamWorld) texturePath(t *texture.Texture) string {
	if t == nil {
		return ""
	}
	for path, loaded := range w.textures {
		if loaded == t {
			return path
		}
	}
	return ""
}

func (w *BeamWorld) Despawn(id BeamId) error {
	b, ok := w.beams[id]
	if !ok {
		return fmt.Errorf("beam %d not found", id)
	}
	b.OnDeactivate()
	for _, fn := range w.despawned {
		fn(b)
	}
	b.OnTeardown()
	delete(w.beams, id)
	w.order = slices.DeleteFunc(w.order, func(other BeamId) bool { return other == id })
	return nil
}

func (w *BeamWorld) Beam(id BeamId) (*VolumetricBeam, bool) {
	b, ok := w.beams[id]
	return b, ok
}

// Beams returns the beams in spawn order.
func (w *BeamWorld) Beams() []*VolumetricBeam {
	out := make([]*VolumetricBeam, 0, len(w.order))
	for _, id := range w.order {
		out = append(out, w.beams[id])
	}
	return out
}

func (w *BeamWorld) Len() int { return len(w.order) }

func (w *BeamWorld) Renderers() []*geometry.MeshRenderer {
	var out []*geometry.MeshRenderer
	for _, b := range w.Beams() {
		out = append(out, b.Renderers()...)
	}
	return out
}

// Teardown ends the current scene: non persistent beams are removed, both
// shared caches are purged and the surviving beams rebind on their next
// refresh.
func (w *BeamWorld) Teardown() {
	for _, b := range w.Beams() {
		if b.Persistent {
			b.needsRefresh = true
			continue
		}
		if err := w.Despawn(b.Id); err != nil {
			w.logger.Warnf("teardown: %v", err)
		}
	}
	meshes, materials := w.Meshes.Len(), w.Materials.Len()
	w.Meshes.Purge()
	w.Materials.Purge()
	w.logger.Infof("scene teardown: purged %d meshes and %d materials, %d persistent beams kept",
		meshes, materials, w.Len())
}

// Camera is the view the beams are rendered from.
type Camera struct {
	core.CameraState
	Aspect float32
}

func (c *Camera) ViewProjection() mgl32.Mat4 {
	return c.GetProjectionMatrix(c.Aspect).Mul4(c.GetViewMatrix())
}

// BeamModule installs the BeamWorld resource and the systems keeping every
// beam in sync with its parameters and the camera.
type BeamModule struct {
	Config Config
}

func (mod BeamModule) Install(app *App, cmd *Commands) {
	world, err := NewBeamWorld(mod.Config, app.Logger())
	if err != nil {
		panic(fmt.Sprintf("lightbeam: %v", err))
	}
	cmd.AddResources(world)

	if _, ok := resource[Camera](app); !ok {
		cmd.AddResources(&Camera{CameraState: *core.NewCameraState(), Aspect: 16.0 / 9.0})
	}

	app.UseSystem(
		System(beamRefreshSystem).
			InStage(PostUpdate).
			RunAlways(),
	)
	app.UseSystem(
		System(beamCameraSystem).
			InStage(PreRender).
			RunAlways(),
	)
	for _, state := range app.States() {
		app.UseSystem(
			System(beamSceneTeardownSystem).
				InStage(Finale).
				InState(OnExit(state)),
		)
	}
}

// beamRefreshSystem re-derives beams that track changes or lost their
// shared resources, and keeps every model matrix current.
func beamRefreshSystem(world *BeamWorld) {
	for _, b := range world.Beams() {
		if b.active && (b.Params.TrackChanges || b.needsRefresh) {
			if err := b.UpdateAfterPropertyChange(); err != nil {
				world.logger.Errorf("refresh beam %d: %v", b.Id, err)
				continue
			}
		}
		b.syncModel()
	}
}

func beamCameraSystem(world *BeamWorld, cam *Camera) {
	planes := cam.ExtractFrustum(cam.ViewProjection())
	for _, b := range world.Beams() {
		if !b.active {
			continue
		}
		b.UpdateCamera(&cam.CameraState)
		for _, r := range b.Renderers() {
			r.Culled = !core.AABBInFrustum(r.WorldBounds().AABB(), planes)
		}
	}
}

func beamSceneTeardownSystem(world *BeamWorld) {
	world.Teardown()
}
