// Package config loads the racetrack's training and simulation settings from yaml.
package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"racetrack/network"
	"racetrack/reinforcement"
	"racetrack/sensors"
	"racetrack/track"
	"racetrack/vehicle"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig error = errors.New("invalid config")

// Control selects who drives the car.
type Control string

const (
	Agent  Control = "agent"
	Manual Control = "manual"
)

type OuterConfig struct {
	Kind string      `mapstructure:"kind"`
	Def  interface{} `mapstructure:"def"`
}

type HyperParameter struct {
	Key string  `yaml:"key"`
	Val float64 `yaml:"val"`
}

// Reward shapes the scalar reward of each tick.
type Reward struct {
	// Checkpoint is earned for every checkpoint crossed.
	Checkpoint float64 `yaml:"checkpoint"`
	// Penalty replaces the tick's reward when the car hits a wall.
	Penalty float64 `yaml:"penalty"`
}

// Network holds the network shape; its sizes and learning rates come from the
// vehicle and the hyperparameters.
type Network struct {
	Hidden           []int              `yaml:"hidden"`
	OutputActivation network.Activation `yaml:"outputactivation"`
}

type Simulation struct {
	Control Control `yaml:"control"`
	// TickRate paces the episode loop; zero runs ticks back to back.
	TickRate time.Duration `yaml:"tickrate"`
	// SnapshotEvery publishes a frame every n ticks.
	SnapshotEvery int  `yaml:"snapshotevery"`
	ShowRays      bool `yaml:"showrays"`
}

type Report struct {
	// Path of the xlsx episode report written on shutdown; empty disables it.
	Path string `yaml:"path"`
}

// Config is the full application config. Keys are matched case-insensitively.
type Config struct {
	// HyperParams is a key-val pair of param names and their value.
	HyperParams []HyperParameter `yaml:"hyperparams"`
	// TrainingDeadline is a duration describing when to stop training.
	TrainingDeadline map[string]string `yaml:"trainingdeadline"`
	Track            track.Config      `yaml:"track"`
	Vehicle          vehicle.Config    `yaml:"vehicle"`
	Network          Network           `yaml:"network"`
	Reward           Reward            `yaml:"reward"`
	Simulation       Simulation        `yaml:"simulation"`
	Report           Report            `yaml:"report"`
}

// Default returns the config used when a file omits a section.
func Default() *Config {
	net := network.DefaultConfig()
	return &Config{
		Track:   track.DefaultConfig(),
		Vehicle: vehicle.DefaultConfig(),
		Network: Network{
			Hidden:           net.Hidden,
			OutputActivation: net.OutputActivation,
		},
		Reward: Reward{
			Checkpoint: 5,
			Penalty:    -200,
		},
		Simulation: Simulation{
			Control:       Agent,
			TickRate:      time.Second / 60,
			SnapshotEvery: 1,
		},
	}
}

// FromYaml reads the outer {kind, def} document with viper, then decodes def over
// the defaults.
func FromYaml(path string) (*Config, error) {
	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	var err error
	if err = vp.ReadInConfig(); err != nil {
		return nil, err
	}

	outerConfig := &OuterConfig{}
	if err = vp.Unmarshal(outerConfig); err != nil {
		return nil, err
	}

	var spec []byte
	if spec, err = yaml.Marshal(outerConfig.Def); err != nil {
		return nil, err
	}

	innerConfig := Default()
	if err = yaml.Unmarshal(spec, innerConfig); err != nil {
		return nil, err
	}

	if err = innerConfig.Validate(); err != nil {
		return nil, err
	}
	return innerConfig, nil
}

func (cfg *Config) GetHyperParamOrDefault(param string, defaultVal float64) float64 {
	for _, kvp := range cfg.HyperParams {
		if kvp.Key == param {
			return kvp.Val
		}
	}
	return defaultVal
}

// WithTrainingDeadline returns a context extended by the training deadline, if one is specified.
func (cfg *Config) WithTrainingDeadline(
	ctx context.Context,
) (context.Context, context.CancelFunc, error) {
	if val, ok := cfg.TrainingDeadline["duration"]; ok {
		duration, err := time.ParseDuration(val)
		if err != nil {
			return nil, nil, err
		}
		innerCtx, cancel := context.WithTimeout(ctx, duration)
		return innerCtx, cancel, nil
	}
	defaultCtx, cancel := context.WithCancel(ctx)
	return defaultCtx, cancel, nil
}

// AgentParams returns the DQN parameters.
func (cfg *Config) AgentParams() reinforcement.Params {
	return reinforcement.Params{
		Gamma:        cfg.GetHyperParamOrDefault("gamma", 0.95),
		Epsilon:      cfg.GetHyperParamOrDefault("epsilon", 1.0),
		EpsilonMin:   cfg.GetHyperParamOrDefault("epsilonMin", 0.001),
		EpsilonDecay: cfg.GetHyperParamOrDefault("epsilonDecay", 0.995),
		BatchSize:    int(cfg.GetHyperParamOrDefault("batchSize", 1000)),
		Actions:      vehicle.NumActions,
	}
}

// MemoryCapacity is the replay memory size.
func (cfg *Config) MemoryCapacity() int {
	return int(cfg.GetHyperParamOrDefault("memoryCapacity", 50000))
}

// NetworkConfig sizes the network to the car's sensors and action set.
func (cfg *Config) NetworkConfig() network.Config {
	return network.Config{
		Inputs:           sensors.Width(cfg.Vehicle),
		Outputs:          vehicle.NumActions,
		Hidden:           cfg.Network.Hidden,
		OutputActivation: cfg.Network.OutputActivation,
		LearningRate:     cfg.GetHyperParamOrDefault("learningRate", 0.001),
		FitBatchSize:     int(cfg.GetHyperParamOrDefault("fitBatchSize", 32)),
	}
}

// Validate checks every section, wrapping the first failure in ErrInvalidConfig.
func (cfg *Config) Validate() error {
	params := cfg.AgentParams()
	checks := []func() error{
		cfg.Track.Validate,
		cfg.Vehicle.Validate,
		cfg.NetworkConfig().Validate,
		func() error {
			switch {
			case params.Gamma < 0 || params.Gamma > 1:
				return fmt.Errorf("gamma must be within [0,1]: %v", params.Gamma)
			case params.Epsilon < 0 || params.Epsilon > 1:
				return fmt.Errorf("epsilon must be within [0,1]: %v", params.Epsilon)
			case params.EpsilonMin < 0 || params.EpsilonMin > params.Epsilon:
				return fmt.Errorf("epsilonMin must be within [0,epsilon]: %v", params.EpsilonMin)
			case params.EpsilonDecay <= 0 || params.EpsilonDecay > 1:
				return fmt.Errorf("epsilonDecay must be within (0,1]: %v", params.EpsilonDecay)
			case params.BatchSize < 1:
				return fmt.Errorf("batchSize must be positive: %d", params.BatchSize)
			case cfg.MemoryCapacity() < 1:
				return fmt.Errorf("memoryCapacity must be positive: %d", cfg.MemoryCapacity())
			case cfg.NetworkConfig().FitBatchSize < 1:
				return fmt.Errorf("fitBatchSize must be positive: %d", cfg.NetworkConfig().FitBatchSize)
			}
			return nil
		},
		func() error {
			if cfg.Simulation.Control != Agent && cfg.Simulation.Control != Manual {
				return fmt.Errorf("simulation control %q: must be %q or %q", cfg.Simulation.Control, Agent, Manual)
			}
			if cfg.Simulation.TickRate < 0 {
				return fmt.Errorf("simulation tick rate must not be negative: %v", cfg.Simulation.TickRate)
			}
			if cfg.Simulation.SnapshotEvery < 1 {
				return fmt.Errorf("simulation snapshotEvery must be positive: %d", cfg.Simulation.SnapshotEvery)
			}
			return nil
		},
		func() error {
			if val, ok := cfg.TrainingDeadline["duration"]; ok {
				if _, err := time.ParseDuration(val); err != nil {
					return fmt.Errorf("training deadline: %w", err)
				}
			}
			return nil
		},
	}

	for _, check := range checks {
		if err := check(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}
