package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	acmecapture "github.com/ptitiano/acme-utils"
)

func main() {
	cfg := &acmecapture.Config{
		Virtual: true,
		Probes: []acmecapture.ProbeConfig{
			{Host: "virtual", Slot: 1, Name: "cpu"},
			{Host: "virtual", Slot: 2, Name: "gpu"},
		},
	}
	cfg.Capture.Duration = acmecapture.Duration(3 * time.Second)
	cfg.Output.Dir = "./out"
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	rt, err := acmecapture.NewRuntime(cfg)
	if err != nil {
		log.Fatalf("runtime: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := rt.Run(ctx); err != nil {
		log.Fatalf("capture exited: %v", err)
	}
}
