package lightbeam

type Commands struct {
	app *App
}

// ChangeScene schedules a state transition. Leaving a scene tears down its
// non persistent beams and purges the shared caches.
func (cmd *Commands) ChangeScene(newState State) *Commands {
	cmd.app.changeState(newState)
	return cmd
}

func (cmd *Commands) AddResources(resources ...any) *Commands {
	cmd.app.addResources(resources...)
	return cmd
}

func (cmd *Commands) UseSystem(system systemScheduleBuilder) *Commands {
	cmd.app.UseSystem(system)
	return cmd
}

// SpawnBeam reserves an id now; the beam is created at the end of the stage.
func (cmd *Commands) SpawnBeam(def BeamDef) BeamId {
	cmd.app.nextBeamId++
	id := cmd.app.nextBeamId
	cmd.app.pendingSpawns = append(cmd.app.pendingSpawns, pendingSpawn{id: id, def: def})
	return id
}

func (cmd *Commands) DespawnBeam(id BeamId) {
	cmd.app.pendingDespawns = append(cmd.app.pendingDespawns, id)
}

func (cmd *Commands) Logger() Logger {
	return cmd.app.Logger()
}

// Quit stops the app after the current tick.
func (cmd *Commands) Quit() {
	cmd.app.quit = true
}
