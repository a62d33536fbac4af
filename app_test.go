package lightbeam

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockResource1 struct {
	name string
}
type MockResource2 struct {
	name string
}

func NewMockResource1(name string) *MockResource1 {
	return &MockResource1{name: name}
}
func NewMockResource2(name string) *MockResource2 {
	return &MockResource2{name: name}
}

func TestApp_changeState(t *testing.T) {
	app := &App{
		stateful:     true,
		initialState: 1,
		state:        1,
		finalState:   2,
	}

	app.changeState(2)
	if app.nextState != State(2) {
		t.Errorf("The nextState should be set correctly.")
	}
	if !app.stateTransitioning {
		t.Errorf("The stateTransitioning flag should be true.")
	}

	app.executeChangeState(2)
	if app.state != State(2) {
		t.Errorf("The app state should change correctly.")
	}
}

func TestApp_addResources(t *testing.T) {
	app := &App{
		resources: make(map[reflect.Type]any),
	}

	resource1 := NewMockResource1("Resource1")
	app.addResources(resource1)

	assert.Contains(t, app.resources, reflect.TypeOf(resource1).Elem(), "Resource1 should be in resources map.")

	require.PanicsWithValue(t, fmt.Sprintf("%s is already in resources", reflect.TypeOf(resource1)), func() {
		app.addResources(resource1)
	})

	resource2 := NewMockResource2("Resource2")
	app.addResources(resource2)

	assert.Contains(t, app.resources, reflect.TypeOf(resource2).Elem(), "Resource2 should be in resources map.")

	got, ok := resource[MockResource2](app)
	require.True(t, ok)
	assert.Same(t, resource2, got)
}

type trace struct {
	calls []string
}

func TestApp_TickRunsStagesInOrder(t *testing.T) {
	app := NewAppBuilder().Build()
	tr := &trace{}
	app.addResources(tr)

	app.UseSystem(System(func(tr *trace) { tr.calls = append(tr.calls, "render") }).InStage(Render))
	app.UseSystem(System(func(tr *trace) { tr.calls = append(tr.calls, "prelude") }).InStage(Prelude))
	app.UseSystem(System(func(tr *trace) { tr.calls = append(tr.calls, "update") }))

	done := app.Tick()

	assert.False(t, done)
	assert.Equal(t, []string{"prelude", "update", "render"}, tr.calls)
}

func TestApp_StatePhases(t *testing.T) {
	app := NewAppBuilder().UseStates(0, 2).Build()
	tr := &trace{}
	app.addResources(tr)

	record := func(name string) func(tr *trace) {
		return func(tr *trace) { tr.calls = append(tr.calls, name) }
	}
	app.UseSystem(System(record("enter0")).InState(OnEnter(0)))
	app.UseSystem(System(record("exec0")).InState(OnExecute(0)))
	app.UseSystem(System(record("exit0")).InState(OnExit(0)))
	app.UseSystem(System(record("enter1")).InState(OnEnter(1)))
	app.UseSystem(System(func(cmd *Commands) { cmd.ChangeScene(1) }).InState(OnExecute(0)))

	require.False(t, app.Tick())
	assert.Equal(t, []string{"enter0", "exec0", "exit0", "enter1"}, tr.calls)
	assert.Equal(t, State(1), app.Scene())
}

func TestApp_QuitRunsExitOnce(t *testing.T) {
	app := NewAppBuilder().UseStates(0, 3).Build()
	tr := &trace{}
	app.addResources(tr)

	app.UseSystem(System(func(cmd *Commands) { cmd.Quit() }).InStage(PostUpdate))
	app.UseSystem(System(func(tr *trace) { tr.calls = append(tr.calls, "exit") }).InState(OnExit(0)))

	assert.True(t, app.Tick())
	assert.True(t, app.Tick())
	assert.Equal(t, []string{"exit"}, tr.calls)
}

func TestApp_UnresolvedDependencyPanics(t *testing.T) {
	app := NewAppBuilder().Build()
	app.UseSystem(System(func(r *MockResource1) {}))

	assert.Panics(t, func() { app.Tick() })
}

func TestApp_UseSystem_UnknownStagePanics(t *testing.T) {
	app := NewAppBuilder().Build()

	require.PanicsWithValue(t, "Stage Nowhere doesn't exist", func() {
		app.UseSystem(System(func() {}).InStage(Stage{Name: "Nowhere"}))
	})
}

func TestApp_UseStage(t *testing.T) {
	app := NewAppBuilder().Build()
	custom := Stage{Name: "Occlusion"}
	app.UseStage(custom, AfterStage(Update))

	names := make([]string, 0, len(app.stages))
	for _, s := range app.stages {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"Prelude", "PreUpdate", "Update", "Occlusion", "PostUpdate", "PreRender", "Render", "PostRender", "Finale"}, names)

	app.UseStage(Stage{Name: "Early"}, BeforeStage(Prelude))
	assert.Equal(t, "Early", app.stages[0].Name)

	require.PanicsWithValue(t, "Stage Missing not found", func() {
		app.UseStage(Stage{Name: "Late"}, AfterStage(Stage{Name: "Missing"}))
	})
}

func TestApp_StatefulSystemInStatelessAppPanics(t *testing.T) {
	app := NewAppBuilder().Build()

	assert.Panics(t, func() {
		app.UseSystem(System(func() {}).InState(OnEnter(0)))
	})
}

func TestApp_LoggerNeverNil(t *testing.T) {
	var nilApp *App
	assert.NotNil(t, nilApp.Logger())

	app := NewAppBuilder().UseModule(LoggingModule{Prefix: "test"}).Build()
	_, isDefault := app.Logger().(*DefaultLogger)
	assert.True(t, isDefault)
}

func TestEnsureSingleRenderer(t *testing.T) {
	app := NewAppBuilder().Build()

	ensureSingleRenderer(app, "a")
	ensureSingleRenderer(app, "a")
	require.PanicsWithValue(t, "Multiple renderers installed: a and b", func() {
		ensureSingleRenderer(app, "b")
	})
}
