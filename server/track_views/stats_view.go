package track_views

import (
	"html/template"

	"racetrack/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// StatsView is a small table of episode progress.
type StatsView struct {
	id      string
	updates <-chan []fastview.EleUpdate
}

func NewStatsView(
	done <-chan struct{},
	frames <-chan Frame,
) (sv *StatsView) {
	sv = &StatsView{id: "statsview"}
	sv.updates = channerics.Convert(done, frames, sv.onUpdate)
	return
}

func (sv *StatsView) Updates() <-chan []fastview.EleUpdate {
	return sv.updates
}

func (sv *StatsView) onUpdate(frame Frame) (ops []fastview.EleUpdate) {
	for _, row := range statRows(frame.Stats) {
		ops = append(ops, fastview.EleUpdate{
			EleId: sv.id + "-" + row.Key,
			Ops:   []fastview.Op{{Key: "textContent", Value: row.Value}},
		})
	}
	return
}

type statRow struct {
	Key, Label, Value string
}

func statRows(s Stats) []statRow {
	return []statRow{
		{"episode", "Episode", s.Episode},
		{"ticks", "Ticks", s.Ticks},
		{"checkpoints", "Checkpoints", s.Checkpoints},
		{"speed", "Speed", s.Speed},
		{"reward", "Reward", s.Reward},
		{"epsilon", "Epsilon", s.Epsilon},
		{"loss", "Loss", s.Loss},
	}
}

// Parse defines the stats table. Its data is the initial Frame.
func (sv *StatsView) Parse(
	t *template.Template,
) (name string, err error) {
	name = sv.id
	_, err = t.Funcs(template.FuncMap{"statRows": statRows}).Parse(
		`{{ define "` + name + `" }}
		<table id="` + sv.id + `" style="padding:20px; font-family: monospace;">
			{{ range statRows .Stats }}
			<tr><td>{{ .Label }}</td><td id="` + sv.id + `-{{ .Key }}">{{ .Value }}</td></tr>
			{{ end }}
		</table>
		{{ end }}`)
	return
}
