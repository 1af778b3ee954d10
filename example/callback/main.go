package main

import (
	"context"
	"fmt"
	"log"
	"time"

	acmecapture "github.com/ptitiano/acme-utils"
)

func main() {
	cfg := &acmecapture.Config{
		Virtual: true,
		Probes: []acmecapture.ProbeConfig{
			{Host: "virtual", Slot: 1, Name: "soc"},
		},
	}
	cfg.Capture.Duration = acmecapture.Duration(2 * time.Second)
	cfg.Output.Disable = true
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	callback := func(results []*acmecapture.Reduced) error {
		for _, r := range results {
			fmt.Printf("%s: %d samples @ %.0f Hz, Vbat avg %.1f mV, power avg %.1f mW\n",
				r.Probe,
				r.SampleCount,
				r.SampleRateHz,
				r.VbatStats.Avg,
				r.PowerStats.Avg,
			)
		}
		return nil
	}

	rt, err := acmecapture.NewRuntime(cfg, acmecapture.WithSink(acmecapture.NewCallbackSink("stdout", callback)))
	if err != nil {
		log.Fatalf("runtime: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := rt.Run(ctx); err != nil {
		log.Fatalf("capture error: %v", err)
	}
}
