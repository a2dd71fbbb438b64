// track_views contains views derived from the Frame view-model. Frame is an
// svg-ready rendition of a simulation snapshot: every field is immediately usable
// as an attribute value.
package track_views

import (
	"fmt"
	"strings"

	"racetrack/geometry"
	"racetrack/simulation"

	"gonum.org/v1/gonum/spatial/r2"
)

// The scene's size in pixels; the camera keeps the car at its center.
const (
	sceneWidth  = 900
	sceneHeight = 600
)

// Frame is the view-model of one snapshot.
type Frame struct {
	// Camera is the transform that centers the car in the scene.
	Camera string
	// Left and Right are polyline points.
	Left, Right string
	// Checkpoints and Rays are path data, one move-line pair per segment.
	Checkpoints string
	Rays        string
	// Car is the polygon points of the car's corners.
	Car   string
	Stats Stats
}

// Stats are the numbers shown beside the track, preformatted.
type Stats struct {
	Episode     string
	Ticks       string
	Checkpoints string
	Speed       string
	Reward      string
	Epsilon     string
	Loss        string
}

// Convert builds the view-model of a snapshot.
func Convert(snap simulation.Snapshot) Frame {
	c := snap.Car
	return Frame{
		Camera: fmt.Sprintf("translate(%.1f %.1f)",
			sceneWidth/2-snap.Position.X,
			sceneHeight/2-snap.Position.Y),
		Left:        points(snap.Left...),
		Right:       points(snap.Right...),
		Checkpoints: path(snap.Checkpoints),
		Rays:        path(snap.Rays),
		Car:         points(c.FrontLeft, c.FrontRight, c.BackRight, c.BackLeft),
		Stats: Stats{
			Episode:     fmt.Sprintf("%d", snap.Episode),
			Ticks:       fmt.Sprintf("%d", snap.Ticks),
			Checkpoints: fmt.Sprintf("%d", snap.Crossed),
			Speed:       fmt.Sprintf("%.2f", snap.Speed),
			Reward:      fmt.Sprintf("%.1f", snap.EpisodeReward),
			Epsilon:     fmt.Sprintf("%.3f", snap.Epsilon),
			Loss:        fmt.Sprintf("%.4f", snap.Loss),
		},
	}
}

// points formats vectors for the svg 'points' attribute. Values are rounded to a
// tenth of a pixel.
func points(vs ...r2.Vec) string {
	sb := strings.Builder{}
	for i, v := range vs {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%.1f,%.1f", v.X, v.Y)
	}
	return sb.String()
}

// path formats segments as svg path data.
func path(segs []geometry.Segment) string {
	sb := strings.Builder{}
	for i, s := range segs {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "M%.1f %.1f L%.1f %.1f", s.A.X, s.A.Y, s.B.X, s.B.Y)
	}
	return sb.String()
}
