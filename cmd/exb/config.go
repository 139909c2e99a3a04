package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tailscale/hujson"
)

var (
	errConfigRead    = errors.New("cannot read config file")
	errConfigInvalid = errors.New("invalid config file")
	errNoScenarios   = errors.New("config defines no scenarios")
)

// Scenario describes one benchmark run.
type Scenario struct {
	Name       string `json:"name"`
	Goroutines int    `json:"goroutines"`
	Iterations int    `json:"iterations"`
	Blocking   bool   `json:"blocking"`
	Mode       string `json:"mode"` // "try", "wait", or "mixed"
}

// configFile is the top-level shape of the HuJSON scenario file.
type configFile struct {
	Scenarios []Scenario `json:"scenarios"`
}

// defaultScenarios cover the three acquisition modes at moderate
// contention.
func defaultScenarios() []Scenario {
	return []Scenario{
		{Name: "try-nonblocking", Goroutines: 8, Iterations: 10000, Blocking: false, Mode: modeTry},
		{Name: "try-blocking", Goroutines: 8, Iterations: 10000, Blocking: true, Mode: modeTry},
		{Name: "wait", Goroutines: 8, Iterations: 10000, Blocking: true, Mode: modeWait},
		{Name: "mixed", Goroutines: 8, Iterations: 10000, Blocking: true, Mode: modeMixed},
	}
}

// loadScenarios reads scenarios from path, or returns the defaults when
// path is empty. The file is HuJSON: JSON with comments and trailing
// commas, standardized before unmarshalling.
func loadScenarios(path string) ([]Scenario, error) {
	if path == "" {
		return defaultScenarios(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errConfigRead, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", errConfigInvalid, path, err)
	}

	var cfg configFile

	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return nil, fmt.Errorf("%w %s: %w", errConfigInvalid, path, err)
	}

	if len(cfg.Scenarios) == 0 {
		return nil, fmt.Errorf("%w: %s", errNoScenarios, path)
	}

	for i, sc := range cfg.Scenarios {
		if err := validateScenario(sc); err != nil {
			return nil, fmt.Errorf("%w %s: scenario %d: %w", errConfigInvalid, path, i, err)
		}
	}

	return cfg.Scenarios, nil
}

func validateScenario(sc Scenario) error {
	if sc.Name == "" {
		return errors.New("missing name")
	}

	if sc.Goroutines <= 0 || sc.Iterations <= 0 {
		return errors.New("goroutines and iterations must be positive")
	}

	switch sc.Mode {
	case modeTry, modeWait, modeMixed:
		return nil
	default:
		return fmt.Errorf("%w: %q", errUnknownMode, sc.Mode)
	}
}
