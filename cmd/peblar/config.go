package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/thinkgos/gopeblar"
	"github.com/thinkgos/gopeblar/modbus"
)

// transport backends
const (
	transportNative      = "native"
	transportGoburrow    = "goburrow"
	transportSimonvetter = "simonvetter"
)

type config struct {
	Host      string
	Port      int
	UnitID    int
	Timeout   time.Duration
	Transport string
	Write     string
	Poll      time.Duration
	Metrics   string
	Debug     bool
}

// Address host:port of the charger.
func (sf config) Address() string {
	return fmt.Sprintf("%s:%d", sf.Host, sf.Port)
}

// loadConfig reads envFile when it exists, then parses args.
// Environment values become flag defaults.
func loadConfig(envFile string, args []string) (config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := config{
		Host:      os.Getenv("PEBLAR_HOST"),
		Port:      modbus.DefaultTCPPort,
		UnitID:    peblar.DefaultUnitID,
		Timeout:   modbus.DefaultTimeout,
		Transport: transportNative,
	}
	if v := os.Getenv("PEBLAR_TRANSPORT"); v != "" {
		cfg.Transport = v
	}
	var err error
	if cfg.Port, err = envInt("PEBLAR_PORT", cfg.Port); err != nil {
		return config{}, err
	}
	if cfg.UnitID, err = envInt("PEBLAR_UNIT_ID", cfg.UnitID); err != nil {
		return config{}, err
	}

	fs := flag.NewFlagSet("peblar", flag.ContinueOnError)
	fs.StringVar(&cfg.Host, "host", cfg.Host, "charger host name or ip")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "modbus tcp port")
	fs.IntVar(&cfg.UnitID, "unit", cfg.UnitID, "modbus unit id")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "connect & read timeout")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "native, goburrow or simonvetter")
	fs.StringVar(&cfg.Write, "write", "", "value written to every writable register")
	fs.DurationVar(&cfg.Poll, "poll", 0, "poll interval, 0 reads once")
	fs.StringVar(&cfg.Metrics, "metrics", "", "metrics listen address while polling, e.g. :9100")
	fs.BoolVar(&cfg.Debug, "debug", false, "enable debug logging")
	if err = fs.Parse(args); err != nil {
		return config{}, err
	}

	switch {
	case cfg.Host == "":
		return config{}, fmt.Errorf("host is required, set -host or PEBLAR_HOST")
	case cfg.Port <= 0 || cfg.Port > 65535:
		return config{}, fmt.Errorf("port '%d' out of range", cfg.Port)
	case cfg.UnitID < modbus.AddressMin || cfg.UnitID > modbus.AddressMax:
		return config{}, fmt.Errorf("unit id '%d' must be between '%d' and '%d'",
			cfg.UnitID, modbus.AddressMin, modbus.AddressMax)
	case cfg.Poll < 0:
		return config{}, fmt.Errorf("poll interval '%v' must not be negative", cfg.Poll)
	}
	switch cfg.Transport {
	case transportNative, transportGoburrow, transportSimonvetter:
	default:
		return config{}, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
	return cfg, nil
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

// parseValue the -write argument: a bool or an integer.
func parseValue(s string) (interface{}, error) {
	if b, err := strconv.ParseBool(s); err == nil && s != "0" && s != "1" {
		return b, nil
	}
	n, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return nil, fmt.Errorf("write value %q is neither a bool nor an integer", s)
	}
	return n, nil
}
