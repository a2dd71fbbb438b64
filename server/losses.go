package server

import (
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// lossChart plots the training loss of each trained episode.
func lossChart(losses []float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Training loss",
			Subtitle: fmt.Sprintf("%d training steps", len(losses)),
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: "shine",
		}),
	)

	steps := make([]string, 0, len(losses))
	items := make([]opts.LineData, 0, len(losses))
	for i, loss := range losses {
		steps = append(steps, fmt.Sprintf("%d", i+1))
		items = append(items, opts.LineData{Value: loss})
	}

	line.SetXAxis(steps).AddSeries("loss", items)
	return line
}
