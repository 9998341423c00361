package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"
)

type Config struct {
	Port              string
	Env               string
	PolicyFile        string
	Location          *time.Location
	SweepAt           string
	RequestsPerMinute float64
	RequestBurst      int
}

func Load() (*Config, error) {
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	tz := os.Getenv("LEDGER_TIMEZONE")
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("LEDGER_TIMEZONE %q: %w", tz, err)
	}

	// An explicitly empty SWEEP_AT disables the scheduler.
	sweepAt, ok := os.LookupEnv("SWEEP_AT")
	if !ok {
		sweepAt = "23:55"
	}

	rpm, err := floatEnv("REQUESTS_PER_MINUTE", 600)
	if err != nil {
		return nil, err
	}
	burst, err := intEnv("REQUEST_BURST", 20)
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:              port,
		Env:               env,
		PolicyFile:        os.Getenv("POLICY_FILE"),
		Location:          loc,
		SweepAt:           sweepAt,
		RequestsPerMinute: rpm,
		RequestBurst:      burst,
	}, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return v, nil
}

func intEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return v, nil
}
