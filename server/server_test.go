package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"racetrack/collector"
	"racetrack/simulation"

	. "github.com/smartystreets/goconvey/convey"
)

func newTestServer(ctx context.Context, commands chan simulation.Command) (*Server, *collector.Collector) {
	rec := collector.NewCollector()
	rec.Record(collector.EpisodeStats{Episode: 1, Ticks: 10, Reward: -200, Loss: 3, Trained: true, Epsilon: 0.9})
	rec.Record(collector.EpisodeStats{Episode: 2, Ticks: 20, Reward: -195, Loss: 2, Trained: true, Epsilon: 0.8})
	srv, err := NewServer(ctx, ":0", make(chan simulation.Snapshot), commands, rec, func() float64 { return 0.8 })
	So(err, ShouldBeNil)
	return srv, rec
}

func get(t *testing.T, ts *httptest.Server, path string) (*http.Response, string) {
	resp, err := http.Get(ts.URL + path)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, string(body)
}

func TestServer(t *testing.T) {
	Convey("Given a server with recorded episodes", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		srv, _ := newTestServer(ctx, make(chan simulation.Command, 1))
		ts := httptest.NewServer(srv.Handler())
		defer ts.Close()

		Convey("The index page contains the views", func() {
			resp, body := get(t, ts, "/")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(body, ShouldContainSubstring, `id="trackview"`)
			So(body, ShouldContainSubstring, `id="statsview"`)
		})

		Convey("Stats are served as json", func() {
			resp, body := get(t, ts, "/stats")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			var stats Stats
			So(json.Unmarshal([]byte(body), &stats), ShouldBeNil)
			So(stats.Episodes, ShouldEqual, 2)
			So(stats.Epsilon, ShouldEqual, 0.8)
			So(stats.Losses, ShouldResemble, []float64{3, 2})
			So(stats.Last.Episode, ShouldEqual, 2)
		})

		Convey("Losses are charted", func() {
			resp, body := get(t, ts, "/losses")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(body, ShouldContainSubstring, "Training loss")
			So(body, ShouldContainSubstring, "echarts")
		})

		Convey("Unknown routes and methods are rejected", func() {
			resp, _ := get(t, ts, "/nowhere")
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)

			post, err := http.Post(ts.URL+"/stats", "application/json", nil)
			So(err, ShouldBeNil)
			post.Body.Close()
			So(post.StatusCode, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestOnMessage(t *testing.T) {
	Convey("Given page messages", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		commands := make(chan simulation.Command, 1)
		srv, _ := newTestServer(ctx, commands)

		Convey("Key events become commands", func() {
			So(srv.onMessage([]byte(`{"key":"left","pressed":true}`)), ShouldBeNil)
			select {
			case cmd := <-commands:
				So(cmd, ShouldResemble, simulation.Command{Key: simulation.KeyLeft, Pressed: true})
			case <-time.After(time.Second):
				t.Fatal("no command")
			}
		})

		Convey("Malformed messages are dropped", func() {
			So(srv.onMessage([]byte(`not json`)), ShouldBeNil)
			So(len(commands), ShouldEqual, 0)
		})

		Convey("Forwarding stops once the server is done", func() {
			commands <- simulation.Command{}
			cancel()
			So(srv.onMessage([]byte(`{"key":"up","pressed":true}`)), ShouldBeNil)
		})
	})
}
