package lightbeam

import (
	"fmt"
	"reflect"
	"runtime"
)

type systemFn any

type App struct {
	stateful           bool
	stateTransitioning bool
	initialState       State
	finalState         State
	nextState          State
	state              State
	modules            []Module
	stages             []Stage
	systems            map[string]map[State]map[statePhase][]systemFn
	systemsStateless   map[string][]systemFn
	resources          map[reflect.Type]any

	started bool
	done    bool
	quit    bool

	// Command Buffering
	nextBeamId      BeamId
	pendingSpawns   []pendingSpawn
	pendingDespawns []BeamId
}

type pendingSpawn struct {
	id  BeamId
	def BeamDef
}

func (app *App) Commands() *Commands {
	return &Commands{
		app: app,
	}
}

// Scene returns the current state. Stateless apps always report zero.
func (app *App) Scene() State {
	return app.state
}

func (app *App) Run() {
	if app.stateful {
		app.Logger().Infof("Running in stateful mode...")
	} else {
		app.Logger().Infof("Running in stateless mode...")
	}

	for !app.Tick() {
	}
}

// Tick executes a single frame and reports whether the app has finished,
// either by reaching its final state or through Commands.Quit.
func (app *App) Tick() bool {
	app.start()
	if app.done {
		return true
	}

	app.callSystems(app.state, execute)

	if app.stateful {
		if app.stateTransitioning {
			app.stateTransitioning = false
			app.executeChangeState(app.nextState)
		}

		if app.state == app.finalState {
			app.callSystems(app.state, exit)
			app.done = true
		}
	}

	if app.quit && !app.done {
		if app.stateful {
			app.callSystems(app.state, exit)
		}
		app.done = true
	}
	return app.done
}

func (app *App) start() {
	if app.started {
		return
	}
	app.started = true

	if app.stateful {
		app.state = app.initialState
		app.callSystems(app.state, enter)
	}
}

func (app *App) callSystems(state State, phase statePhase) {
	for _, stage := range app.stages {
		// On execute, call stateless/always run systems first
		if execute == phase {
			for _, system := range app.systemsStateless[stage.Name] {
				app.callSystem(system)
			}
		}

		if app.stateful {
			for _, system := range app.systems[stage.Name][state][phase] {
				app.callSystem(system)
			}
		}
		app.FlushCommands()
	}
}

func (app *App) changeState(newState State) {
	app.nextState = newState
	app.stateTransitioning = true
}

func (app *App) executeChangeState(newState State) {
	app.callSystems(app.state, exit)
	app.state = newState
	app.callSystems(app.state, enter)
}

func (app *App) addResources(resources ...any) *App {
	for _, resource := range resources {
		resourceType := reflect.TypeOf(resource)
		if _, ok := app.resources[resourceType.Elem()]; ok {
			panic(fmt.Sprintf("%s is already in resources", resourceType))
		}

		app.resources[resourceType.Elem()] = resource
	}
	return app
}

// resource looks up a resource by its element type.
func resource[T any](app *App) (*T, bool) {
	r, ok := app.resources[reflect.TypeOf((*T)(nil)).Elem()]
	if !ok {
		return nil, false
	}
	typed, ok := r.(*T)
	return typed, ok
}

func (app *App) callSystem(system systemFn) {
	app.callSystemInternal(system)
}

var typeOfCommands = reflect.TypeOf(Commands{})

func (app *App) callSystemInternal(system systemFn) {
	systemType := reflect.TypeOf(system)
	systemValue := reflect.ValueOf(system)

	args := make([]reflect.Value, systemType.NumIn())

	for i := 0; i < systemType.NumIn(); i++ {
		argType := systemType.In(i)
		if argType.Kind() != reflect.Pointer {
			panic(fmt.Sprintf("System %s takes %s by value, resources are injected as pointers",
				runtime.FuncForPC(systemValue.Pointer()).Name(), argType))
		}
		underlyingType := argType.Elem()

		if underlyingType == typeOfCommands {
			args[i] = reflect.ValueOf(&Commands{app: app})
		} else if resource, argIsResource := app.resources[underlyingType]; argIsResource {
			resourceVal := reflect.ValueOf(resource)
			typedResourceVal := reflect.NewAt(underlyingType, resourceVal.UnsafePointer())

			args[i] = typedResourceVal
		} else {
			msg := fmt.Sprintf("Unable to resolve System dependency.\nSystem: %s\nSystem type: %s\nDependency: %s",
				runtime.FuncForPC(systemValue.Pointer()).Name(),
				fmt.Sprint(systemType),
				fmt.Sprint(argType),
			)
			app.Logger().Errorf("%s", msg)
			panic(msg)
		}
	}
	systemValue.Call(args)
}

// FlushCommands applies buffered beam spawns and despawns.
func (app *App) FlushCommands() {
	if len(app.pendingSpawns) == 0 && len(app.pendingDespawns) == 0 {
		return
	}

	world, ok := resource[BeamWorld](app)
	if !ok {
		app.Logger().Warnf("dropping %d spawns and %d despawns: no BeamWorld installed",
			len(app.pendingSpawns), len(app.pendingDespawns))
		app.pendingSpawns = app.pendingSpawns[:0]
		app.pendingDespawns = app.pendingDespawns[:0]
		return
	}

	// 1. Removals first, so a spawn reusing a name is not torn down.
	for _, id := range app.pendingDespawns {
		if err := world.Despawn(id); err != nil {
			app.Logger().Warnf("despawn beam %d: %v", id, err)
		}
	}
	app.pendingDespawns = app.pendingDespawns[:0]

	// 2. Additions
	for _, sp := range app.pendingSpawns {
		if _, err := world.Spawn(sp.id, sp.def); err != nil {
			app.Logger().Errorf("spawn beam %q: %v", sp.def.Name, err)
		}
	}
	app.pendingSpawns = app.pendingSpawns[:0]
}
