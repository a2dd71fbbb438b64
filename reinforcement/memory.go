package reinforcement

// Transition is one recorded experience. Actions are one-hot (or action-value
// shaped) vectors; the taken action is their argmax. Transitions are not mutated
// once pushed.
type Transition struct {
	State     []float64
	Action    []float64
	Reward    float64
	NextState []float64
	Done      bool
}

// Batch is a set of transitions unzipped into parallel slices; index i of every
// slice belongs to the same transition.
type Batch struct {
	States     [][]float64
	Actions    [][]float64
	Rewards    []float64
	NextStates [][]float64
	Dones      []bool
}

// Len is the number of transitions in the batch.
func (b Batch) Len() int {
	return len(b.States)
}

func (b *Batch) add(t Transition) {
	b.States = append(b.States, t.State)
	b.Actions = append(b.Actions, t.Action)
	b.Rewards = append(b.Rewards, t.Reward)
	b.NextStates = append(b.NextStates, t.NextState)
	b.Dones = append(b.Dones, t.Done)
}

// IntSource yields uniform ints in [0,n). *rand.Rand satisfies it.
type IntSource interface {
	Intn(n int) int
}

// Memory is a fixed-capacity ring buffer of transitions. Once full, each push
// evicts the oldest transition.
type Memory struct {
	items    []Transition
	capacity int
	next     int
}

// NewMemory returns an empty memory holding at most capacity transitions.
func NewMemory(capacity int) *Memory {
	if capacity < 1 {
		capacity = 1
	}
	return &Memory{
		items:    make([]Transition, 0, capacity),
		capacity: capacity,
	}
}

// Push appends a transition, evicting the oldest when full.
func (m *Memory) Push(t Transition) {
	if len(m.items) < m.capacity {
		m.items = append(m.items, t)
		return
	}
	m.items[m.next] = t
	m.next = (m.next + 1) % m.capacity
}

// Len is the number of stored transitions.
func (m *Memory) Len() int {
	return len(m.items)
}

// Capacity is the maximum number of stored transitions.
func (m *Memory) Capacity() int {
	return m.capacity
}

// Sample draws min(k, Len()) distinct transitions uniformly without replacement.
// Each draw picks an index among the remaining candidates and swaps it to the end
// of the candidate range, which then shrinks by one.
func (m *Memory) Sample(k int, src IntSource) (batch Batch) {
	n := len(m.items)
	if k > n {
		k = n
	}
	if k <= 0 {
		return
	}

	candidates := make([]int, n)
	for i := range candidates {
		candidates[i] = i
	}
	for remaining := n; remaining > n-k; remaining-- {
		j := src.Intn(remaining)
		candidates[j], candidates[remaining-1] = candidates[remaining-1], candidates[j]
		batch.add(m.items[candidates[remaining-1]])
	}
	return
}
