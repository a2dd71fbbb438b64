package simulation

import "racetrack/vehicle"

// Keys sent by the renderer.
const (
	KeyUp    = "up"
	KeyDown  = "down"
	KeyLeft  = "left"
	KeyRight = "right"
	// KeyRays toggles the debug rays when pressed.
	KeyRays = "rays"
)

// Command is a key event from the renderer.
type Command struct {
	Key     string `json:"key"`
	Pressed bool   `json:"pressed"`
}

// Input is the renderer's state as seen by a tick: the held keys as controls, and
// whether rays are drawn.
type Input struct {
	Controls vehicle.Controls
	ShowRays bool
}

// Apply folds a key event into the input. Unknown keys are ignored.
func (in *Input) Apply(cmd Command) {
	switch cmd.Key {
	case KeyUp:
		in.Controls.Accelerate = cmd.Pressed
	case KeyDown:
		in.Controls.Brake = cmd.Pressed
	case KeyLeft:
		in.Controls.SteerLeft = cmd.Pressed
	case KeyRight:
		in.Controls.SteerRight = cmd.Pressed
	case KeyRays:
		if cmd.Pressed {
			in.ShowRays = !in.ShowRays
		}
	}
}
