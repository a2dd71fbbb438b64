/*
Racetrack drives a car around a procedurally generated track with a deep Q-network
trained online, tick by tick, as the car drives. The car senses the walls with a fan
of rays; the agent picks accelerate/steer actions from those distances; every crash
ends the episode, trains the network on replay memory, and regenerates the track.
The browser view follows the car over a websocket, and in manual mode the arrow keys
drive it instead.
*/

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"

	"racetrack/collector"
	"racetrack/config"
	"racetrack/network"
	"racetrack/reinforcement"
	"racetrack/server"
	"racetrack/simulation"
	"racetrack/track"

	"golang.org/x/sync/errgroup"
)

type options struct {
	configPath string
	host       string
	port       string
	headless   bool
	manual     bool
	debug      bool
}

func parseFlags() (opts options) {
	flag.StringVar(&opts.configPath, "config", "./config.yaml", "path of the yaml config")
	flag.StringVar(&opts.host, "host", "", "The host ip")
	flag.StringVar(&opts.port, "port", "8080", "The host port")
	flag.BoolVar(&opts.headless, "headless", false, "train without serving views, as fast as possible")
	flag.BoolVar(&opts.manual, "manual", false, "drive with the arrow keys instead of the agent")
	flag.BoolVar(&opts.debug, "debug", false, "debug mode: draw rays and log file positions")
	flag.Parse()
	return
}

func (opts options) addr() string {
	return opts.host + ":" + opts.port
}

// apply overrides the config with the command line.
func (opts options) apply(cfg *config.Config) {
	if opts.manual {
		cfg.Simulation.Control = config.Manual
	}
	if opts.headless {
		cfg.Simulation.TickRate = 0
	}
	if opts.debug {
		cfg.Simulation.ShowRays = true
	}
}

func runApp(ctx context.Context, opts options) (err error) {
	var cfg *config.Config
	if cfg, err = config.FromYaml(opts.configPath); err != nil {
		return
	}
	opts.apply(cfg)

	trainingCtx, cancel, err := cfg.WithTrainingDeadline(ctx)
	if err != nil {
		return
	}
	defer cancel()

	rng := rand.New(rand.NewSource(cfg.Track.Seed))
	var model *network.Network
	if model, err = network.New(cfg.NetworkConfig(), rng); err != nil {
		return
	}
	agent := reinforcement.NewDQN(
		cfg.AgentParams(),
		model,
		reinforcement.NewMemory(cfg.MemoryCapacity()),
		rng)

	log.Printf("training with epsilon %.3f and up to %d remembered transitions",
		agent.Epsilon(), agent.Memory().Capacity())

	episodes := collector.NewCollector()
	driver := simulation.NewDriver(
		cfg,
		track.NewGenerator(cfg.Track),
		agent,
		episodes,
		log.Default())

	group, groupCtx := errgroup.WithContext(trainingCtx)

	var frames chan simulation.Snapshot
	var commands chan simulation.Command
	if !opts.headless {
		frames = make(chan simulation.Snapshot, 1)
		commands = make(chan simulation.Command)
		var srv *server.Server
		if srv, err = server.NewServer(groupCtx, opts.addr(), frames, commands, episodes, agent.Epsilon); err != nil {
			return
		}
		group.Go(srv.Serve)
	}

	group.Go(func() error {
		return driver.Run(groupCtx, commands, frames)
	})

	err = group.Wait()
	log.Printf("finished after %d episodes", episodes.Len())

	if path := cfg.Report.Path; path != "" {
		if saveErr := episodes.Save(path); saveErr != nil {
			err = fmt.Errorf("report: %w", saveErr)
		} else {
			log.Printf("episode report saved to %s", path)
		}
	}
	return
}

func main() {
	opts := parseFlags()
	if opts.debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := runApp(ctx, opts); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
