package lightbeam

import (
	"math"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

const flyingCameraTurnRate = 1.5 // radians per second

// FlyingCameraModule moves the beam camera with WASD, Space and Left Control,
// and turns it with the arrow keys. It needs BeamRenderModule for input.
type FlyingCameraModule struct{}

func (m FlyingCameraModule) Install(app *App, cmd *Commands) {
	app.UseSystem(
		System(FlyingCameraControlSystem).
			InStage(Update).
			RunAlways(),
	)
}

// flyInput is the movement (right, up, forward) and look (yaw, pitch)
// requested this frame.
type flyInput struct {
	Move mgl32.Vec3
	Look mgl32.Vec2
}

func readFlyInput(ws *WindowState) flyInput {
	var in flyInput
	axis := func(neg, pos glfw.Key) float32 {
		var v float32
		if ws.KeyDown(neg) {
			v -= 1
		}
		if ws.KeyDown(pos) {
			v += 1
		}
		return v
	}
	in.Move = mgl32.Vec3{
		axis(glfw.KeyA, glfw.KeyD),
		axis(glfw.KeyLeftControl, glfw.KeySpace),
		axis(glfw.KeyS, glfw.KeyW),
	}
	in.Look = mgl32.Vec2{
		axis(glfw.KeyLeft, glfw.KeyRight),
		axis(glfw.KeyDown, glfw.KeyUp),
	}
	return in
}

func FlyingCameraControlSystem(ws *WindowState, cam *Camera, time *Time) {
	applyFlyInput(cam, readFlyInput(ws), time.Seconds())
}

func applyFlyInput(cam *Camera, in flyInput, dt float32) {
	if dt <= 0 {
		return
	}

	cam.Yaw += in.Look[0] * flyingCameraTurnRate * dt
	cam.Pitch += in.Look[1] * flyingCameraTurnRate * dt

	// Clamp pitch
	const maxPitch = 89 * math.Pi / 180
	cam.Pitch = mgl32.Clamp(cam.Pitch, -maxPitch, maxPitch)

	speed := cam.Speed
	if speed == 0 {
		speed = 4.0
	}

	up := mgl32.Vec3{0, 0, 1}
	moveDir := cam.GetRight().Mul(in.Move[0]).
		Add(up.Mul(in.Move[1])).
		Add(cam.GetForward().Mul(in.Move[2]))

	if moveDir.Len() > 0 {
		cam.Position = cam.Position.Add(moveDir.Normalize().Mul(speed * dt))
	}
}
