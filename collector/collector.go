// Package collector records per-episode training statistics and writes them as an
// xlsx report.
package collector

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/xuri/excelize/v2"
)

const episodeSheet = "Episodes"

// EpisodeStats summarizes one finished episode.
type EpisodeStats struct {
	Episode     int
	Ticks       int
	Checkpoints int
	Reward      float64
	// Loss is the training loss after the episode; Trained is false if training was skipped.
	Loss    float64
	Trained bool
	Epsilon float64
	// Finished is set when the car reached the end of a finite track instead of crashing.
	Finished bool
}

// Collector accumulates episode stats. It is safe for concurrent use: the driver
// records while the server reads.
type Collector struct {
	mu       sync.RWMutex
	episodes []EpisodeStats
}

func NewCollector() *Collector {
	return &Collector{}
}

// Record appends the stats of a finished episode.
func (c *Collector) Record(stats EpisodeStats) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.episodes = append(c.episodes, stats)
}

// Episodes returns a copy of every recorded episode, in order.
func (c *Collector) Episodes() []EpisodeStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]EpisodeStats(nil), c.episodes...)
}

// Losses returns the loss of every trained episode, in order.
func (c *Collector) Losses() (losses []float64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, ep := range c.episodes {
		if ep.Trained {
			losses = append(losses, ep.Loss)
		}
	}
	return
}

// Len is the number of recorded episodes.
func (c *Collector) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.episodes)
}

// Save writes every recorded episode to an xlsx workbook at path, creating its directory.
func (c *Collector) Save(path string) (err error) {
	f := excelize.NewFile()
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()

	if _, err = f.NewSheet(episodeSheet); err != nil {
		return
	}
	if err = f.DeleteSheet("Sheet1"); err != nil {
		return
	}

	headers := []string{"Episode", "Ticks", "Checkpoints", "Reward", "Loss", "Epsilon", "Finished"}
	if err = f.SetSheetRow(episodeSheet, "A1", &headers); err != nil {
		return
	}

	for i, ep := range c.Episodes() {
		row := []interface{}{ep.Episode, ep.Ticks, ep.Checkpoints, ep.Reward, nil, ep.Epsilon, ep.Finished}
		if ep.Trained {
			row[4] = ep.Loss
		}
		if err = f.SetSheetRow(episodeSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err = os.MkdirAll(dir, 0755); err != nil {
			return
		}
	}
	err = f.SaveAs(path)
	return
}
