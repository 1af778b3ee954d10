package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseProbeSpecs expands the probe selection syntax into probe configs.
// Accepted forms, in any combination:
//
//	host:slot
//	host:slotA,slotB,slotC
//	host:slotStart..slotEnd
//
// Hostnames may be IP addresses or network names. Slots are 1-based as
// labelled on the cape. When names is non-empty it must pair one label per
// expanded probe, in order.
func ParseProbeSpecs(specs []string, names []string) ([]ProbeConfig, error) {
	var probes []ProbeConfig
	for _, spec := range specs {
		host, slotList, ok := strings.Cut(spec, ":")
		if !ok || host == "" || slotList == "" {
			return nil, fmt.Errorf("probe spec %q: want host:slot(s)", spec)
		}
		for _, part := range strings.Split(slotList, ",") {
			slots, err := expandSlots(part)
			if err != nil {
				return nil, fmt.Errorf("probe spec %q: %w", spec, err)
			}
			for _, slot := range slots {
				probes = append(probes, ProbeConfig{Host: host, Slot: slot})
			}
		}
	}

	if len(names) > 0 {
		if len(names) != len(probes) {
			return nil, fmt.Errorf("names count (%d) does not match probes count (%d)",
				len(names), len(probes))
		}
		for i := range probes {
			probes[i].Name = names[i]
		}
	}
	return probes, nil
}

func expandSlots(part string) ([]int, error) {
	if first, last, ok := strings.Cut(part, ".."); ok {
		start, err := parseSlot(first)
		if err != nil {
			return nil, err
		}
		end, err := parseSlot(last)
		if err != nil {
			return nil, err
		}
		if end < start {
			return nil, fmt.Errorf("slot range %s..%s is reversed", first, last)
		}
		slots := make([]int, 0, end-start+1)
		for s := start; s <= end; s++ {
			slots = append(slots, s)
		}
		return slots, nil
	}

	slot, err := parseSlot(part)
	if err != nil {
		return nil, err
	}
	return []int{slot}, nil
}

func parseSlot(s string) (int, error) {
	slot, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid slot %q", s)
	}
	if slot < 1 {
		return 0, fmt.Errorf("slot %d out of range, slots start at 1", slot)
	}
	return slot, nil
}
