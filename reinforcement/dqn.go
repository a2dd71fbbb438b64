package reinforcement

import (
	"errors"
	"math"

	"racetrack/atomic_float"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var ErrEmptyMemory error = errors.New("replay memory is empty")

// Approximator maps a batch of states (one per row) to action values and
// regresses toward targets. *network.Network satisfies it.
type Approximator interface {
	Predict(x mat.Matrix) *mat.Dense
	Fit(x, targets *mat.Dense) float64
}

// Source supplies the agent's randomness: exploration draws, random actions and
// replay sampling. *rand.Rand satisfies it.
type Source interface {
	IntSource
	Float64() float64
}

// Params holds the agent's learning parameters.
type Params struct {
	Gamma        float64
	Epsilon      float64
	EpsilonMin   float64
	EpsilonDecay float64
	// BatchSize is the number of transitions sampled per long-memory training step.
	BatchSize int
	Actions   int
}

// DQN is an epsilon-greedy deep Q-learning agent trained from replay memory.
// Only Epsilon is safe to call from other goroutines; everything else must be
// called from the goroutine that owns the episode loop.
type DQN struct {
	params  Params
	epsilon *atomic_float.AtomicFloat64
	model   Approximator
	memory  *Memory
	rng     Source
}

// NewDQN returns an agent that explores with params.Epsilon and learns through model.
func NewDQN(params Params, model Approximator, memory *Memory, rng Source) *DQN {
	return &DQN{
		params:  params,
		epsilon: atomic_float.NewAtomicFloat64(params.Epsilon),
		model:   model,
		memory:  memory,
		rng:     rng,
	}
}

// Epsilon is the current exploration rate.
func (agent *DQN) Epsilon() float64 {
	return agent.epsilon.Load()
}

// Memory is the agent's replay memory.
func (agent *DQN) Memory() *Memory {
	return agent.memory
}

// SelectAction returns an action-value shaped vector; callers take its argmax.
// With probability epsilon the vector is a random one-hot and epsilon decays
// toward its floor. Otherwise it is the model's estimate for state.
func (agent *DQN) SelectAction(state []float64) []float64 {
	if agent.rng.Float64() <= agent.epsilon.Load() {
		agent.decay()
		action := make([]float64, agent.params.Actions)
		action[agent.rng.Intn(agent.params.Actions)] = 1
		return action
	}

	x := mat.NewDense(1, len(state), state)
	return mat.Row(nil, 0, agent.model.Predict(x))
}

func (agent *DQN) decay() {
	agent.epsilon.Update(func(eps float64) float64 {
		if eps <= agent.params.EpsilonMin {
			return eps
		}
		return math.Max(eps*agent.params.EpsilonDecay, agent.params.EpsilonMin)
	})
}

// Remember stores a transition in replay memory.
func (agent *DQN) Remember(t Transition) {
	agent.memory.Push(t)
}

// TrainStep fits the model one epoch toward one-step Q-learning targets and
// returns the loss. The target row for sample i copies the current prediction,
// overwriting the taken action's column with r if the transition was terminal,
// else r + gamma * max Q(s').
func (agent *DQN) TrainStep(batch Batch) float64 {
	n := batch.Len()
	if n == 0 {
		return 0
	}

	states := rows(batch.States)
	next := agent.model.Predict(rows(batch.NextStates))
	targets := mat.DenseCopyOf(agent.model.Predict(states))

	for i := 0; i < n; i++ {
		target := batch.Rewards[i]
		if !batch.Dones[i] {
			target += agent.params.Gamma * floats.Max(next.RawRowView(i))
		}
		targets.Set(i, floats.MaxIdx(batch.Actions[i]), target)
	}

	return agent.model.Fit(states, targets)
}

// TrainShortMemory trains on a single transition.
func (agent *DQN) TrainShortMemory(t Transition) float64 {
	var batch Batch
	batch.add(t)
	return agent.TrainStep(batch)
}

// TrainLongMemory trains on a batch sampled from replay memory. Sampling from an
// empty memory is skipped and reported as ErrEmptyMemory.
func (agent *DQN) TrainLongMemory() (float64, error) {
	if agent.memory.Len() == 0 {
		return 0, ErrEmptyMemory
	}
	return agent.TrainStep(agent.memory.Sample(agent.params.BatchSize, agent.rng)), nil
}

// rows packs equal-width vectors into a matrix with one vector per row.
func rows(vecs [][]float64) *mat.Dense {
	width := len(vecs[0])
	data := make([]float64, 0, len(vecs)*width)
	for _, v := range vecs {
		data = append(data, v...)
	}
	return mat.NewDense(len(vecs), width, data)
}
