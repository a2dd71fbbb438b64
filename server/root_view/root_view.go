package root_view

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"racetrack/server/fastview"
	"racetrack/server/track_views"
	"racetrack/simulation"

	channerics "github.com/niceyeti/channerics/channels"
)

// RootView is the main page's index.html, which is the container for all the
// view components, the wiring for their channels, and the client bootstrap code
// that pushes key presses back to the server.
type RootView struct {
	views   []fastview.ViewComponent
	updates <-chan []fastview.EleUpdate
}

// NewRootView creates the main page and the views it contains.
func NewRootView(
	ctx context.Context,
	snapshots <-chan simulation.Snapshot,
) (*RootView, error) {
	views, err := fastview.NewViewBuilder(ctx, snapshots, track_views.Convert).
		WithView(
			func(done <-chan struct{}, frames <-chan track_views.Frame) fastview.ViewComponent {
				return track_views.NewTrackView(done, frames)
			},
			func(done <-chan struct{}, frames <-chan track_views.Frame) fastview.ViewComponent {
				return track_views.NewStatsView(done, frames)
			}).
		Build()
	if err != nil {
		return nil, err
	}

	return &RootView{
		views:   views,
		updates: fanIn(ctx.Done(), views),
	}, nil
}

// Updates returns the main ele-update channel for all the views.
func (rv *RootView) Updates() <-chan []fastview.EleUpdate {
	return rv.updates
}

// Parse builds the main page's template, with websocket bootstrap code, and returns its name.
func (rv *RootView) Parse(
	parent *template.Template,
) (name string, err error) {
	var body strings.Builder
	for _, vc := range rv.views {
		tname, parseErr := vc.Parse(parent)
		if parseErr != nil {
			return "", fmt.Errorf("parse view: %w", parseErr)
		}
		fmt.Fprintf(&body, `{{ template %q . }}`, tname)
	}

	// The main template bootstraps the rest: sets up the client websocket, applies
	// pushed updates, and sends key events back.
	name = "mainpage"
	indexTemplate := `
	{{ define "` + name + `" }}
	<!DOCTYPE html>
	<html>
		<head>
			<link rel="icon" href="data:,">
			<script>
				const ws = new WebSocket("ws://" + location.host + "/ws");
				ws.onopen = function (event) {
					console.log("Web socket opened")
				};

				ws.onerror = function (event) {
					console.log('WebSocket error: ', event);
				};

				// When the server pushes view updates, find these eles and update them.
				ws.onmessage = function (event) {
					const items = JSON.parse(event.data)
					for (const update of items) {
						const ele = document.getElementById(update.EleId)
						if (!ele) {
							continue
						}
						for (const op of update.Ops) {
							if (op.Key === "textContent") {
								ele.textContent = op.Value;
							} else {
								ele.setAttribute(op.Key, op.Value)
							}
						}
					}
				}

				const keys = {
					ArrowUp: "up",
					ArrowDown: "down",
					ArrowLeft: "left",
					ArrowRight: "right",
					r: "rays",
				};
				function sendKey(event, pressed) {
					const key = keys[event.key];
					if (!key || event.repeat || ws.readyState !== WebSocket.OPEN) {
						return
					}
					event.preventDefault();
					ws.send(JSON.stringify({ key: key, pressed: pressed }));
				}
				document.addEventListener("keydown", (e) => sendKey(e, true));
				document.addEventListener("keyup", (e) => sendKey(e, false));
			</script>
		</head>
		<body style="display: flex; align-items: flex-start;">
		` + body.String() + `
		<p style="padding:20px; font-family: monospace;">
			Arrow keys drive in manual mode, r toggles rays.
			<a href="/losses">losses</a> <a href="/stats">stats</a>
		</p>
		</body></html>
	{{ end }}
	`

	_, err = parent.Parse(indexTemplate)
	return
}

// fanIn merges the views' update channels. The websocket client coalesces them
// before they reach the page.
func fanIn(
	done <-chan struct{},
	views []fastview.ViewComponent,
) <-chan []fastview.EleUpdate {
	inputs := make([]<-chan []fastview.EleUpdate, len(views))
	for i, view := range views {
		inputs[i] = view.Updates()
	}
	return channerics.Merge(done, inputs...)
}
