package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"time"

	"racetrack/collector"
	"racetrack/server/fastview"
	"racetrack/server/root_view"
	"racetrack/server/track_views"
	"racetrack/simulation"

	"github.com/gorilla/mux"
)

const shutdownGracePeriod = 5 * time.Second

// EpisodeSource provides the recorded training history. *collector.Collector satisfies it.
type EpisodeSource interface {
	Episodes() []collector.EpisodeStats
	Losses() []float64
}

// Server serves the track page to a single client over a single websocket, plus
// the training history as a chart and as json. Key presses read from the socket
// are forwarded to the simulation as commands.
type Server struct {
	addr     string
	ctx      context.Context
	rootView *root_view.RootView
	commands chan<- simulation.Command
	episodes EpisodeSource
	epsilon  func() float64
}

// NewServer initializes all of the views and returns a server. epsilon may be nil.
func NewServer(
	ctx context.Context,
	addr string,
	snapshots <-chan simulation.Snapshot,
	commands chan<- simulation.Command,
	episodes EpisodeSource,
	epsilon func() float64,
) (*Server, error) {
	rootView, err := root_view.NewRootView(ctx, snapshots)
	if err != nil {
		return nil, fmt.Errorf("root view: %w", err)
	}
	if epsilon == nil {
		epsilon = func() float64 { return 0 }
	}

	return &Server{
		addr:     addr,
		ctx:      ctx,
		rootView: rootView,
		commands: commands,
		episodes: episodes,
		epsilon:  epsilon,
	}, nil
}

// Handler routes the server's endpoints.
func (server *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/", server.serveIndex).Methods(http.MethodGet)
	router.HandleFunc("/ws", server.serveWebsocket)
	router.HandleFunc("/losses", server.serveLosses).Methods(http.MethodGet)
	router.HandleFunc("/stats", server.serveStats).Methods(http.MethodGet)
	return router
}

// Serve listens until the server's context is done, then shuts down.
func (server *Server) Serve() (err error) {
	srv := &http.Server{
		Addr:    server.addr,
		Handler: server.Handler(),
	}

	go func() {
		<-server.ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("serving on %s", server.addr)
	if err = srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// serveWebsocket publishes view updates to the client and forwards its key presses.
// This assumes a single client; a second page would compete for the same updates.
func (server *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	cli, err := fastview.NewClient(server.rootView.Updates(), server.onMessage, w, r)
	if err != nil {
		log.Println("upgrade:", err)
		return
	}

	if err = cli.Sync(server.ctx); err != nil {
		log.Println("client sync:", err)
	}
}

// onMessage decodes a key event from the page and hands it to the simulation.
func (server *Server) onMessage(msg []byte) error {
	var cmd simulation.Command
	if err := json.Unmarshal(msg, &cmd); err != nil {
		log.Printf("ignoring malformed message %q: %v", msg, err)
		return nil
	}

	select {
	case server.commands <- cmd:
	case <-server.ctx.Done():
	}
	return nil
}

// Serve the index.html main page.
func (server *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	if err := renderTemplate(w, server.rootView, track_views.Frame{}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Stats is the json body of /stats.
type Stats struct {
	Episodes int                     `json:"episodes"`
	Epsilon  float64                 `json:"epsilon"`
	Losses   []float64               `json:"losses"`
	Last     *collector.EpisodeStats `json:"last,omitempty"`
}

func (server *Server) serveStats(w http.ResponseWriter, r *http.Request) {
	episodes := server.episodes.Episodes()
	stats := Stats{
		Episodes: len(episodes),
		Epsilon:  server.epsilon(),
		Losses:   server.episodes.Losses(),
	}
	if n := len(episodes); n > 0 {
		stats.Last = &episodes[n-1]
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		log.Println("stats:", err)
	}
}

func (server *Server) serveLosses(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	if err := lossChart(server.episodes.Losses()).Render(w); err != nil {
		log.Println("losses:", err)
	}
}

func renderTemplate(
	w io.Writer,
	vc fastview.ViewComponent,
	data interface{},
) (err error) {
	t := template.New("index.html")
	var tname string
	if tname, err = vc.Parse(t); err != nil {
		return
	}
	if _, err = t.Parse(`{{ template "` + tname + `" . }}`); err != nil {
		return
	}

	err = t.Execute(w, data)
	return
}
