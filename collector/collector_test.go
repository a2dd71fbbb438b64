package collector

import (
	"path/filepath"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/xuri/excelize/v2"
)

func TestCollector(t *testing.T) {
	Convey("Given recorded episodes", t, func() {
		c := NewCollector()
		c.Record(EpisodeStats{Episode: 1, Ticks: 40, Checkpoints: 2, Reward: -190, Loss: 12.5, Trained: true, Epsilon: 0.9})
		c.Record(EpisodeStats{Episode: 2, Ticks: 3, Reward: -200, Epsilon: 0.89})
		c.Record(EpisodeStats{Episode: 3, Ticks: 80, Checkpoints: 5, Reward: -175, Loss: 8, Trained: true, Epsilon: 0.8, Finished: true})

		Convey("Losses skip untrained episodes", func() {
			So(c.Len(), ShouldEqual, 3)
			So(c.Losses(), ShouldResemble, []float64{12.5, 8})
		})

		Convey("Episodes is a copy", func() {
			eps := c.Episodes()
			eps[0].Ticks = 0
			So(c.Episodes()[0].Ticks, ShouldEqual, 40)
		})

		Convey("Save writes one row per episode under a header", func() {
			path := filepath.Join(t.TempDir(), "reports", "episodes.xlsx")
			So(c.Save(path), ShouldBeNil)

			f, err := excelize.OpenFile(path)
			So(err, ShouldBeNil)
			defer f.Close()

			So(f.GetSheetList(), ShouldResemble, []string{episodeSheet})
			rows, err := f.GetRows(episodeSheet)
			So(err, ShouldBeNil)
			So(len(rows), ShouldEqual, 4)
			So(rows[0], ShouldResemble, []string{"Episode", "Ticks", "Checkpoints", "Reward", "Loss", "Epsilon", "Finished"})
			So(rows[1][0], ShouldEqual, "1")
			So(rows[1][4], ShouldEqual, "12.5")
			So(rows[2][4], ShouldEqual, "")
			So(rows[3][2], ShouldEqual, "5")
			So(rows[1][6], ShouldEqual, "FALSE")
			So(rows[3][6], ShouldEqual, "TRUE")
		})
	})

	Convey("Given concurrent writers and readers", t, func() {
		c := NewCollector()
		wg := sync.WaitGroup{}
		wg.Add(20)
		for i := 0; i < 10; i++ {
			go func(i int) {
				defer wg.Done()
				c.Record(EpisodeStats{Episode: i, Trained: true})
			}(i)
			go func() {
				defer wg.Done()
				_ = c.Losses()
			}()
		}
		wg.Wait()
		So(c.Len(), ShouldEqual, 10)
	})
}
