package track_views

import (
	"fmt"
	"html/template"

	"racetrack/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// TrackView draws the walls, live checkpoints, the car and its rays, following the car.
type TrackView struct {
	id      string
	updates <-chan []fastview.EleUpdate
}

func NewTrackView(
	done <-chan struct{},
	frames <-chan Frame,
) (tv *TrackView) {
	tv = &TrackView{id: "trackview"}
	tv.updates = channerics.Convert(done, frames, tv.onUpdate)
	return
}

func (tv *TrackView) Updates() <-chan []fastview.EleUpdate {
	return tv.updates
}

func (tv *TrackView) eleId(part string) string {
	return tv.id + "-" + part
}

// Returns the set of view updates needed for the view to reflect the frame.
func (tv *TrackView) onUpdate(frame Frame) []fastview.EleUpdate {
	set := func(part, key, value string) fastview.EleUpdate {
		return fastview.EleUpdate{
			EleId: tv.eleId(part),
			Ops:   []fastview.Op{{Key: key, Value: value}},
		}
	}
	return []fastview.EleUpdate{
		set("camera", "transform", frame.Camera),
		set("left", "points", frame.Left),
		set("right", "points", frame.Right),
		set("checkpoints", "d", frame.Checkpoints),
		set("rays", "d", frame.Rays),
		set("car", "points", frame.Car),
	}
}

// Parse defines the track svg. Its data is the initial Frame.
func (tv *TrackView) Parse(
	t *template.Template,
) (name string, err error) {
	name = tv.id
	_, err = t.Parse(
		`{{ define "` + name + `" }}
		<div style="padding:20px;">
			<svg id="` + tv.id + `" xmlns='http://www.w3.org/2000/svg'
				width="` + fmt.Sprint(sceneWidth) + `px"
				height="` + fmt.Sprint(sceneHeight) + `px"
				style="background: #f4f1ea; border: 1px solid lightgrey;">
				<g id="` + tv.eleId("camera") + `" transform="{{ .Camera }}">
					<polyline id="` + tv.eleId("left") + `" points="{{ .Left }}"
						fill="none" stroke="black" stroke-width="3"/>
					<polyline id="` + tv.eleId("right") + `" points="{{ .Right }}"
						fill="none" stroke="black" stroke-width="3"/>
					<path id="` + tv.eleId("checkpoints") + `" d="{{ .Checkpoints }}"
						stroke="seagreen" stroke-width="1" stroke-dasharray="4 4"/>
					<path id="` + tv.eleId("rays") + `" d="{{ .Rays }}"
						stroke="crimson" stroke-width="1"/>
					<polygon id="` + tv.eleId("car") + `" points="{{ .Car }}"
						fill="steelblue" stroke="black" stroke-width="1"/>
				</g>
			</svg>
		</div>
		{{ end }}`)
	return
}
