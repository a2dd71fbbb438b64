package reinforcement

import (
	"math/rand"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

// firstSource always picks the first remaining candidate.
type firstSource struct{}

func (firstSource) Intn(int) int { return 0 }

func transition(id int) Transition {
	return Transition{
		State:     []float64{float64(id)},
		Action:    []float64{1, 0, 0, 0},
		Reward:    float64(id),
		NextState: []float64{float64(id + 1)},
		Done:      id%2 == 0,
	}
}

func fill(m *Memory, n int) {
	for i := 0; i < n; i++ {
		m.Push(transition(i))
	}
}

func TestSample(t *testing.T) {
	Convey("Given a memory larger than the sample size", t, func() {
		m := NewMemory(100)
		fill(m, 50)
		rng := rand.New(rand.NewSource(7))

		Convey("Samples contain k distinct transitions", func() {
			for trial := 0; trial < 20; trial++ {
				batch := m.Sample(20, rng)
				So(batch.Len(), ShouldEqual, 20)
				seen := map[float64]bool{}
				for _, r := range batch.Rewards {
					So(seen[r], ShouldBeFalse)
					seen[r] = true
				}
			}
		})

		Convey("Unzipped slices stay aligned per transition", func() {
			batch := m.Sample(10, rng)
			So(len(batch.Actions), ShouldEqual, 10)
			So(len(batch.NextStates), ShouldEqual, 10)
			So(len(batch.Dones), ShouldEqual, 10)
			for i := range batch.States {
				id := batch.States[i][0]
				So(batch.Rewards[i], ShouldEqual, id)
				So(batch.NextStates[i][0], ShouldEqual, id+1)
				So(batch.Dones[i], ShouldEqual, int(id)%2 == 0)
			}
		})

		Convey("A fixed random source yields a predictable selection", func() {
			batch := m.Sample(3, firstSource{})
			So(batch.Rewards, ShouldResemble, []float64{0, 49, 48})
		})

		Convey("Sampling everything yields every transition once", func() {
			batch := m.Sample(50, rng)
			seen := map[float64]bool{}
			for _, r := range batch.Rewards {
				seen[r] = true
			}
			So(len(seen), ShouldEqual, 50)
		})
	})

	Convey("Given a memory smaller than the sample size", t, func() {
		m := NewMemory(100)
		fill(m, 7)
		So(m.Sample(32, rand.New(rand.NewSource(1))).Len(), ShouldEqual, 7)
	})

	Convey("Given an empty memory", t, func() {
		m := NewMemory(10)
		So(m.Sample(32, firstSource{}).Len(), ShouldEqual, 0)
	})
}

func TestPush(t *testing.T) {
	Convey("Given a memory at capacity", t, func() {
		m := NewMemory(5)
		fill(m, 8)

		Convey("The oldest transitions were evicted", func() {
			So(m.Len(), ShouldEqual, 5)
			So(m.Capacity(), ShouldEqual, 5)
			batch := m.Sample(5, firstSource{})
			seen := map[float64]bool{}
			for _, r := range batch.Rewards {
				seen[r] = true
			}
			So(seen, ShouldResemble, map[float64]bool{3: true, 4: true, 5: true, 6: true, 7: true})
		})
	})
}
