// Command peblar reads and writes the modbus registers of a Peblar charger.
//
//	peblar -host 192.168.1.10             read every readable register once
//	peblar -host charger -write 16000     also write 16000 to the writable registers
//	peblar -host charger -poll 5s -metrics :9100
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/thinkgos/gopeblar"
	"github.com/thinkgos/gopeblar/mb"
	"github.com/thinkgos/gopeblar/modbus"
	"github.com/thinkgos/gopeblar/transport/goburrow"
	"github.com/thinkgos/gopeblar/transport/simonvetter"
)

func main() {
	cfg, err := loadConfig(".env", os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := newLogger(os.Stderr, cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err = run(ctx, cfg, os.Stdout, log); err != nil {
		log.Error().Err(err).Msg("peblar")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config, out io.Writer, log zerolog.Logger) error {
	t, closer, err := dial(cfg, log)
	if err != nil {
		return err
	}
	defer closer.Close()

	opts := []peblar.Option{peblar.WithLogProvider(zeroLogProvider{log})}
	if cfg.Debug {
		opts = append(opts, peblar.WithEnableLogger())
	}
	c := peblar.NewClient(t, opts...)

	if cfg.Poll > 0 {
		return poll(ctx, c, cfg, log)
	}
	readAll(c, out)
	if cfg.Write != "" {
		v, err := parseValue(cfg.Write)
		if err != nil {
			return err
		}
		writeAll(c, out, cfg.Write, v)
	}
	return nil
}

// dial connects the configured transport backend.
func dial(cfg config, log zerolog.Logger) (peblar.Transport, io.Closer, error) {
	address := cfg.Address()
	unitID := byte(cfg.UnitID)
	log.Debug().Str("address", address).Str("transport", cfg.Transport).Msg("connecting")

	switch cfg.Transport {
	case transportGoburrow:
		t := goburrow.New(address, unitID, goburrow.WithTimeout(cfg.Timeout))
		if err := t.Connect(); err != nil {
			return nil, nil, err
		}
		return t, t, nil
	case transportSimonvetter:
		t, err := simonvetter.New(address, unitID, cfg.Timeout)
		if err != nil {
			return nil, nil, err
		}
		if err = t.Connect(); err != nil {
			return nil, nil, err
		}
		return t, t, nil
	default:
		opts := []modbus.Option{
			modbus.WithUnitID(unitID),
			modbus.WithTimeout(cfg.Timeout),
			modbus.WithLogProvider(zeroLogProvider{log}),
		}
		if cfg.Debug {
			opts = append(opts, modbus.WithEnableLogger())
		}
		mc := modbus.NewClient(address, opts...)
		if err := mc.Connect(); err != nil {
			return nil, nil, err
		}
		return mc, mc, nil
	}
}

// readAll prints every readable register, failures do not stop the sweep.
func readAll(c *peblar.Client, out io.Writer) {
	for _, id := range peblar.Registers() {
		if !id.Spec().Readable() {
			continue
		}
		fmt.Fprintf(out, "Read %s: ", id)
		v, err := c.ReadRegister(id)
		if err != nil {
			fmt.Fprintln(out, "Failure")
			continue
		}
		fmt.Fprintln(out, v)
	}
}

// writeAll writes v to every writable register.
func writeAll(c *peblar.Client, out io.Writer, raw string, v interface{}) {
	for _, id := range peblar.Registers() {
		if !id.Spec().Writable() {
			continue
		}
		fmt.Fprintf(out, "Write '%s' to %s: ", raw, id)
		if err := c.WriteRegister(id, v); err != nil {
			fmt.Fprintln(out, "Failure")
			continue
		}
		fmt.Fprintln(out, "Success")
	}
}

// poll gathers every readable register each cfg.Poll until ctx is done.
func poll(ctx context.Context, c *peblar.Client, cfg config, log zerolog.Logger) error {
	reg := prometheus.NewRegistry()
	p := mb.New(c,
		mb.WitchHandler(&logHandler{log}),
		mb.WithRegisterer(reg),
		mb.WitchPanicHandle(func(v interface{}) {
			log.Error().Interface("panic", v).Msg("poll")
		}))
	if err := p.Start(); err != nil {
		return err
	}
	defer p.Close()

	for _, id := range peblar.Registers() {
		if !id.Spec().Readable() {
			continue
		}
		if err := p.AddGatherJob(mb.Request{Register: id, ScanRate: cfg.Poll}); err != nil {
			return err
		}
	}

	if cfg.Metrics == "" {
		<-ctx.Done()
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: cfg.Metrics, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	log.Info().Str("address", cfg.Metrics).Msg("serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type logHandler struct {
	log zerolog.Logger
}

func (sf *logHandler) ProcValue(id peblar.RegisterID, value interface{}) {
	sf.log.Info().Str("register", id.String()).Interface("value", value).Msg("read")
}

func (sf *logHandler) ProcResult(err error, result *mb.Result) {
	if err != nil {
		sf.log.Warn().Err(err).
			Str("register", result.Register.String()).
			Uint64("tx", result.TxCnt).
			Uint64("errors", result.ErrCnt).
			Msg("read failed")
	}
}
