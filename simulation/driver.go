// Package simulation runs the episode loop: each tick the car senses the track,
// the agent (or the keyboard) picks controls, physics advances, and the resulting
// transition is remembered. Episodes end when the car reaches a wall, at which
// point the agent trains on replay memory and the track is regenerated.
package simulation

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"racetrack/collector"
	"racetrack/config"
	"racetrack/geometry"
	"racetrack/reinforcement"
	"racetrack/sensors"
	"racetrack/track"
	"racetrack/vehicle"

	channerics "github.com/niceyeti/channerics/channels"
	"gonum.org/v1/gonum/floats"
)

// Learner picks actions and learns from transitions. *reinforcement.DQN satisfies it.
type Learner interface {
	SelectAction(state []float64) []float64
	Remember(reinforcement.Transition)
	TrainLongMemory() (float64, error)
	Epsilon() float64
}

// Recorder receives the stats of every finished episode.
type Recorder interface {
	Record(collector.EpisodeStats)
}

// SimulationState is everything a tick reads and writes. It is owned by a single
// goroutine; Snapshot copies what other goroutines may read.
type SimulationState struct {
	Track         *track.Track
	Car           *vehicle.Vehicle
	Episode       int
	Ticks         int
	EpisodeReward float64
	Checkpoints   int
	// LastLoss is the loss of the most recent training step.
	LastLoss float64
}

// Step describes the outcome of one tick.
type Step struct {
	// Action is the agent's action index, or -1 under manual control.
	Action   int
	Reward   float64
	Crossed  bool
	Terminal bool
	// Finished is set when the car reached the end of a finite track. The tick is
	// terminal but not penalized.
	Finished bool
	// Trained is set when a terminal tick trained the agent; Loss is then its loss.
	Trained bool
	Loss    float64
	// Skipped is set when the tick was refused because another was in progress.
	Skipped bool
}

// Driver advances simulation states.
type Driver struct {
	cfg      *config.Config
	gen      *track.Generator
	learner  Learner
	recorder Recorder
	logger   *log.Logger
	busy     atomic.Bool
}

// NewDriver returns a driver that builds tracks from gen. The learner is only
// consulted under agent control; recorder may be nil.
func NewDriver(
	cfg *config.Config,
	gen *track.Generator,
	learner Learner,
	recorder Recorder,
	logger *log.Logger,
) *Driver {
	return &Driver{
		cfg:      cfg,
		gen:      gen,
		learner:  learner,
		recorder: recorder,
		logger:   logger,
	}
}

// NewState returns the first episode's state: a fresh track with the car at its spawn.
func (d *Driver) NewState() *SimulationState {
	state := &SimulationState{}
	d.reset(state)
	return state
}

func (d *Driver) manual() bool {
	return d.cfg.Simulation.Control == config.Manual
}

// Tick advances the state by one step: observe, act, move, observe again, reward,
// remember. A terminal tick also trains, records the episode and resets the state.
// Concurrent or re-entrant calls are refused with Step.Skipped.
func (d *Driver) Tick(state *SimulationState, input Input) (step Step) {
	if !d.busy.CompareAndSwap(false, true) {
		step.Skipped = true
		return
	}
	defer d.busy.Store(false)

	obs := sensors.Observe(state.Car, state.Track.Walls()...)

	var action []float64
	controls := input.Controls
	step.Action = -1
	if !d.manual() {
		action = d.learner.SelectAction(obs.Features)
		step.Action = floats.MaxIdx(action)
		controls = vehicle.ControlsForAction(step.Action)
	}

	from := vehicle.FrontCenter(state.Car.Shape)
	state.Car.Step(controls)
	path := geometry.Segment{A: from, B: vehicle.FrontCenter(state.Car.Shape)}

	step.Crossed = state.Car.CheckCheckpoint(state.Track)
	walls := state.Track.Walls()
	next := sensors.Observe(state.Car, walls...)
	if finish, ok := state.Track.Finish(); ok {
		step.Finished, _ = geometry.Intersect(path, finish)
	}
	// A fast car can pass through a wall between two observations.
	crashed := next.Terminal || geometry.Crosses(path, walls...)
	step.Terminal = crashed || step.Finished

	if step.Crossed {
		state.Checkpoints++
	}
	if step.Crossed || step.Finished {
		step.Reward = d.cfg.Reward.Checkpoint
	}
	if crashed && !step.Finished {
		step.Reward = d.cfg.Reward.Penalty
	}
	state.Ticks++
	state.EpisodeReward += step.Reward

	if !d.manual() {
		d.learner.Remember(reinforcement.Transition{
			State:     obs.Features,
			Action:    action,
			Reward:    step.Reward,
			NextState: next.Features,
			Done:      step.Terminal,
		})
	}

	if step.Terminal {
		d.finish(state, &step)
	}
	return
}

// finish trains on replay memory, reports the episode and starts the next one.
func (d *Driver) finish(state *SimulationState, step *Step) {
	if d.manual() {
		outcome := "crashed"
		if step.Finished {
			outcome = "finished"
		}
		d.logger.Printf("episode %d: %s after %d ticks", state.Episode, outcome, state.Ticks)
		d.reset(state)
		return
	}

	start := time.Now()
	loss, err := d.learner.TrainLongMemory()
	switch {
	case errors.Is(err, reinforcement.ErrEmptyMemory):
		d.logger.Printf("episode %d: training skipped: %v", state.Episode, err)
	case err != nil:
		d.logger.Printf("episode %d: training failed: %v", state.Episode, err)
	default:
		step.Trained = true
		step.Loss = loss
		state.LastLoss = loss
	}

	stats := collector.EpisodeStats{
		Episode:     state.Episode,
		Ticks:       state.Ticks,
		Checkpoints: state.Checkpoints,
		Reward:      state.EpisodeReward,
		Loss:        step.Loss,
		Trained:     step.Trained,
		Epsilon:     d.learner.Epsilon(),
		Finished:    step.Finished,
	}
	if d.recorder != nil {
		d.recorder.Record(stats)
	}
	d.logger.Println(summarize(stats, time.Since(start)))

	d.reset(state)
}

// reset regenerates the track and places a stationary car at its spawn.
func (d *Driver) reset(state *SimulationState) {
	state.Track = d.gen.NewTrack()
	state.Car = vehicle.New(d.cfg.Vehicle, state.Track.Spawn.Position, state.Track.Spawn.Heading)
	state.Episode++
	state.Ticks = 0
	state.EpisodeReward = 0
	state.Checkpoints = 0
}

// Run ticks a fresh state until ctx is done, applying renderer commands between
// ticks. Ticks are paced by the configured tick rate, or run back to back when it
// is zero. Every SnapshotEvery ticks a snapshot is offered to frames; it is dropped
// if the receiver is not ready. frames may be nil.
func (d *Driver) Run(
	ctx context.Context,
	commands <-chan Command,
	frames chan<- Snapshot,
) error {
	state := d.NewState()
	input := Input{ShowRays: d.cfg.Simulation.ShowRays}

	var ticks <-chan time.Time
	if rate := d.cfg.Simulation.TickRate; rate > 0 {
		ticks = channerics.NewTicker(ctx.Done(), rate)
	} else {
		always := make(chan time.Time)
		close(always)
		ticks = always
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd, ok := <-commands:
			if !ok {
				commands = nil
				continue
			}
			input.Apply(cmd)
		case <-ticks:
			step := d.Tick(state, input)
			if frames == nil || step.Skipped || state.Ticks%d.cfg.Simulation.SnapshotEvery != 0 {
				continue
			}
			select {
			case frames <- d.Snapshot(state, input.ShowRays):
			default:
			}
		}
	}
}
