package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	acmecapture "github.com/ptitiano/acme-utils"
)

var (
	// overridden during build with ldflags
	version = "dev"
	commit  = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cli.Command {
	return &cli.Command{
		Name:    "acmecapture",
		Usage:   "Synchronized power measurement capture for ACME probes",
		Version: fmt.Sprintf("%s (%s)", version, commit),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			level := slog.LevelInfo
			if cmd.Bool("debug") {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			return ctx, nil
		},
		Commands: []*cli.Command{
			captureCmd(),
			validateCmd(),
		},
	}
}

func captureCmd() *cli.Command {
	return &cli.Command{
		Name:  "capture",
		Usage: "Run a synchronized capture across the configured probes",
		Description: `Attach to every configured probe, capture the selected channels for the
requested duration, and report per-probe voltage, current and power
statistics.

Probes are given either in a YAML configuration file or on the command
line as HOST:SLOTS specs. Slot lists support ranges:

  acmecapture capture --probes acme1:1,3 --probes acme2:5..8 --virtual

Each probe may be given a display name via --names, matched to the
expanded slot list in order.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML configuration file",
				Sources: cli.EnvVars("ACMECAPTURE_CONFIG"),
			},
			&cli.StringSliceFlag{
				Name:    "probes",
				Aliases: []string{"p"},
				Usage:   "Probe spec HOST:SLOT[,SLOT|LO..HI]... (repeatable)",
			},
			&cli.StringSliceFlag{
				Name:    "names",
				Aliases: []string{"n"},
				Usage:   "Display names matched to the expanded probe list in order",
			},
			&cli.DurationFlag{
				Name:    "duration",
				Aliases: []string{"d"},
				Usage:   "Capture duration",
				Value:   10 * time.Second,
			},
			&cli.IntFlag{
				Name:  "bufsize",
				Usage: "Capture buffer size in samples",
				Value: 127,
			},
			&cli.BoolFlag{
				Name:  "virtual",
				Usage: "Use software-simulated probes instead of hardware",
			},
			&cli.StringFlag{
				Name:  "outdir",
				Usage: "Directory for trace and report files",
			},
			&cli.StringFlag{
				Name:  "out",
				Usage: "Basename for output files (default: timestamp)",
			},
			&cli.BoolFlag{
				Name:  "norecord",
				Usage: "Do not write trace or report files",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Listen address for the Prometheus metrics endpoint",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := buildConfig(cmd)
			if err != nil {
				return err
			}

			rt, err := acmecapture.NewRuntime(cfg)
			if err != nil {
				return fmt.Errorf("initialize runtime: %w", err)
			}

			slog.Info("starting capture",
				"run_id", rt.RunID(),
				"probes", len(cfg.Probes),
				"duration", cfg.Capture.Duration)

			results, err := rt.Run(ctx)
			if err != nil {
				return err
			}

			for _, r := range results {
				if r.Failed {
					slog.Warn("probe capture completed with errors", "probe", r.Probe)
				}
			}
			return nil
		},
	}
}

func validateCmd() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Validate a configuration file without running a capture",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Required: true,
				Usage:    "Path to the YAML configuration file to validate",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := acmecapture.LoadConfig(cmd.String("config"))
			if err != nil {
				return fmt.Errorf("configuration invalid: %w", err)
			}
			fmt.Printf("configuration OK: %d probe(s), %s capture\n",
				len(cfg.Probes), cfg.Capture.Duration)
			return nil
		},
	}
}

// buildConfig assembles the runtime configuration from the config file,
// then lets command-line flags override it.
func buildConfig(cmd *cli.Command) (*acmecapture.Config, error) {
	var cfg *acmecapture.Config
	if path := cmd.String("config"); path != "" {
		loaded, err := acmecapture.LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
		cfg = loaded
	} else {
		cfg = &acmecapture.Config{}
	}

	if specs := cmd.StringSlice("probes"); len(specs) > 0 {
		probes, err := acmecapture.ParseProbeSpecs(specs, cmd.StringSlice("names"))
		if err != nil {
			return nil, err
		}
		cfg.Probes = probes
	}
	if cmd.IsSet("duration") {
		cfg.Capture.Duration = acmecapture.Duration(cmd.Duration("duration"))
	}
	if cmd.IsSet("bufsize") {
		cfg.Capture.BufferSize = cmd.Int("bufsize")
	}
	if cmd.Bool("virtual") {
		cfg.Virtual = true
	}
	if dir := cmd.String("outdir"); dir != "" {
		cfg.Output.Dir = dir
	}
	if out := cmd.String("out"); out != "" {
		cfg.Output.Basename = out
	}
	if cmd.Bool("norecord") {
		cfg.Output.Disable = true
	}
	if addr := cmd.String("metrics-addr"); addr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = addr
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
