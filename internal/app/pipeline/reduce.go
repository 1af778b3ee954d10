package pipeline

import (
	"fmt"

	"github.com/ptitiano/acme-utils/internal/domain"
	"github.com/ptitiano/acme-utils/internal/ports"
)

// Reduce post-processes one probe's raw capture result: timestamps are
// normalized to a zero origin, the derived power channel is computed, and
// per-channel min/max/avg statistics are produced. Pure computation, no
// device access.
//
// Equal-length Time, Vbat, and Ishunt sequences are required: a mismatch
// indicates an upstream capture failure and is reported, never truncated or
// padded.
func Reduce(result *domain.CaptureResult, probe ports.Probe) (*domain.Reduced, error) {
	timeSeries, err := requireSeries(result, domain.ChannelTime)
	if err != nil {
		return nil, err
	}
	vbat, err := requireSeries(result, domain.ChannelVbat)
	if err != nil {
		return nil, err
	}
	ishunt, err := requireSeries(result, domain.ChannelIshunt)
	if err != nil {
		return nil, err
	}
	if len(vbat.Samples) != len(ishunt.Samples) {
		return nil, domain.DataIntegrityError(result.Probe,
			fmt.Errorf("channel length mismatch: Vbat=%d Ishunt=%d",
				len(vbat.Samples), len(ishunt.Samples)))
	}
	if len(timeSeries.Samples) != len(vbat.Samples) {
		return nil, domain.DataIntegrityError(result.Probe,
			fmt.Errorf("channel length mismatch: Time=%d Vbat=%d",
				len(timeSeries.Samples), len(vbat.Samples)))
	}

	// Normalize timestamps so every series starts at zero.
	timeNs := make([]float64, len(timeSeries.Samples))
	origin := timeSeries.Samples[0]
	for i, ts := range timeSeries.Samples {
		timeNs[i] = ts - origin
	}

	// Per-sample time deltas in milliseconds, plus the achieved rate.
	var deltaStats domain.Stats
	var rateHz float64
	if len(timeNs) > 1 {
		deltas := make([]float64, len(timeNs)-1)
		for i := 1; i < len(timeNs); i++ {
			deltas[i-1] = (timeNs[i] - timeNs[i-1]) / 1e6
		}
		deltaStats = seriesStats(deltas)
		if last := timeNs[len(timeNs)-1]; last > 0 {
			rateHz = float64(len(timeNs)) / (last / 1e9)
		}
	}

	// Derived power channel: mV * mA = uW, so divide by 1000 for mW.
	power := domain.Series{
		Unit:    domain.ChannelPower.Unit(),
		Samples: make([]float64, len(vbat.Samples)),
	}
	for i := range vbat.Samples {
		power.Samples[i] = vbat.Samples[i] * ishunt.Samples[i] / 1000
	}

	return &domain.Reduced{
		Probe:          result.Probe,
		ShuntMicroOhm:  probe.ShuntMicroOhm(),
		Type:           probe.Type(),
		HasPowerSwitch: probe.HasPowerSwitch(),
		Duration:       result.Duration,
		Failed:         result.Failed,
		Time:           timeNs,
		Vbat:           *vbat,
		Ishunt:         *ishunt,
		Power:          power,
		VbatStats:      seriesStats(vbat.Samples),
		IshuntStats:    seriesStats(ishunt.Samples),
		PowerStats:     seriesStats(power.Samples),
		SampleCount:    len(timeNs),
		SampleRateHz:   rateHz,
		TimeDeltaStats: deltaStats,
	}, nil
}

func requireSeries(result *domain.CaptureResult, ch domain.Channel) (*domain.Series, error) {
	series, ok := result.Series[ch]
	if !ok {
		return nil, domain.DataIntegrityError(result.Probe,
			fmt.Errorf("channel %s missing from capture result", ch))
	}
	if len(series.Samples) == 0 {
		return nil, domain.DataIntegrityError(result.Probe,
			fmt.Errorf("channel %s is empty", ch))
	}
	return series, nil
}

func seriesStats(samples []float64) domain.Stats {
	if len(samples) == 0 {
		return domain.Stats{}
	}
	stats := domain.Stats{Min: samples[0], Max: samples[0]}
	var sum float64
	for _, v := range samples {
		if v < stats.Min {
			stats.Min = v
		}
		if v > stats.Max {
			stats.Max = v
		}
		sum += v
	}
	stats.Avg = sum / float64(len(samples))
	return stats
}
