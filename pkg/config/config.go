package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Config is the static per-deployment configuration of the counting service.
type Config struct {
	// SpikeTolerance is the net movement threshold at which a reading is
	// considered a sensor spike.
	SpikeTolerance int `yaml:"spiketolerance"`
	// SpikeWindowMinutes is how soon after the previous reading a spike is
	// still discarded. Once the window has elapsed large deltas are accepted.
	SpikeWindowMinutes int `yaml:"spikewindowminutes"`

	// Timezone used for elapsed-time and day-difference calculations.
	Timezone string `yaml:"timezone"`

	// ExcludedVehicles are never spike-discarded, matched case-insensitively.
	ExcludedVehicles []string `yaml:"excludedvehicles"`

	AsyncWorkers   int `yaml:"asyncworkers"`
	AsyncQueueSize int `yaml:"asyncqueuesize"`
}

func defaults() *Config {
	return &Config{
		SpikeTolerance:     150,
		SpikeWindowMinutes: 30,
		Timezone:           "UTC",
		AsyncWorkers:       2,
		AsyncQueueSize:     500,
	}
}

// Load builds the configuration from defaults, an optional yaml file pointed
// at by AFORO_CONFIG, and finally per-field environment overrides.
func Load() (*Config, error) {
	config := defaults()

	if path := os.Getenv("AFORO_CONFIG"); path != "" {
		contents, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(contents, config); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}

		log.Debug().Str("path", path).Msg("Loaded config file")
	}

	applyEnvironmentOverrides(config)

	if _, err := time.LoadLocation(config.Timezone); err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", config.Timezone, err)
	}

	return config, nil
}

func applyEnvironmentOverrides(config *Config) {
	if value := os.Getenv("AFORO_SPIKE_TOLERANCE"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			config.SpikeTolerance = parsed
		}
	}

	if value := os.Getenv("AFORO_SPIKE_WINDOW_MINUTES"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			config.SpikeWindowMinutes = parsed
		}
	}

	if value := os.Getenv("AFORO_TIMEZONE"); value != "" {
		config.Timezone = value
	}

	if value := os.Getenv("AFORO_EXCLUDED_VEHICLES"); value != "" {
		config.ExcludedVehicles = strings.Split(value, ",")
	}

	if value := os.Getenv("AFORO_ASYNC_WORKERS"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			config.AsyncWorkers = parsed
		}
	}

	if value := os.Getenv("AFORO_ASYNC_QUEUE_SIZE"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			config.AsyncQueueSize = parsed
		}
	}
}

// IsExcluded reports whether the vehicle is exempt from spike discard.
func (c *Config) IsExcluded(vehicleID string) bool {
	for _, excluded := range c.ExcludedVehicles {
		if strings.EqualFold(strings.TrimSpace(excluded), vehicleID) {
			return true
		}
	}

	return false
}

// Location resolves the configured timezone. Load has already validated it.
func (c *Config) Location() *time.Location {
	location, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}

	return location
}
