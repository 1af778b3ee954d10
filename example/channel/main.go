package main

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	acmecapture "github.com/ptitiano/acme-utils"
)

func main() {
	cfg := &acmecapture.Config{
		Virtual: true,
		Probes: []acmecapture.ProbeConfig{
			{Host: "virtual", Slot: 1, Name: "core"},
			{Host: "virtual", Slot: 2, Name: "mem"},
		},
	}
	cfg.Capture.Duration = acmecapture.Duration(2 * time.Second)
	cfg.Output.Disable = true
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	sink, results, closeResults := acmecapture.NewChannelSink("fanout", 4)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		consumeResults(results)
	}()

	rt, err := acmecapture.NewRuntime(cfg, acmecapture.WithSink(sink))
	if err != nil {
		log.Fatalf("runtime: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := rt.Run(ctx); err != nil {
		log.Fatalf("capture error: %v", err)
	}

	closeResults()
	wg.Wait()
}

func consumeResults(results <-chan []*acmecapture.Reduced) {
	for batch := range results {
		for _, r := range batch {
			fmt.Printf("%s: power min/max/avg = %.1f/%.1f/%.1f mW\n",
				r.Probe, r.PowerStats.Min, r.PowerStats.Max, r.PowerStats.Avg)
		}
	}
}
