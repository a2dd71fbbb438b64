package simulation

import (
	"fmt"
	"time"

	"racetrack/collector"

	"github.com/logrusorgru/aurora"
)

// summarize formats a finished episode for the console: checkpoints in green,
// a crash in red.
func summarize(stats collector.EpisodeStats, trainTime time.Duration) string {
	outcome := aurora.Red(fmt.Sprintf("crashed after %d ticks", stats.Ticks))
	if stats.Finished {
		outcome = aurora.Green(fmt.Sprintf("finished after %d ticks", stats.Ticks))
	}
	loss := aurora.Yellow("untrained").String()
	if stats.Trained {
		loss = fmt.Sprintf("%.4f (%v)", stats.Loss, trainTime.Round(time.Millisecond))
	}
	return fmt.Sprintf("episode %d: %s, %s, reward %.1f, loss %s, epsilon %.3f",
		stats.Episode,
		aurora.Green(fmt.Sprintf("%d checkpoints", stats.Checkpoints)),
		outcome,
		stats.Reward,
		loss,
		stats.Epsilon)
}
