package domain

import "time"

// ChannelRead is one buffer's worth of scaled samples for a single channel.
type ChannelRead struct {
	Channel Channel
	Unit    string
	Samples []float64
}

// Series is a growing per-channel sample sequence accumulated across refills.
type Series struct {
	Unit    string
	Samples []float64
}

// Span is a wall-clock interval recorded around one refill or read call.
// Retained for diagnostics only.
type Span struct {
	Start time.Time
	End   time.Time
}

func (s Span) Duration() time.Duration { return s.End.Sub(s.Start) }

// CaptureResult accumulates everything one capture worker collected for one
// probe. Channel series of a clean run have equal length; a mismatch means an
// upstream failure and must be surfaced, not truncated.
type CaptureResult struct {
	Probe    string
	Channels []Channel
	Duration time.Duration

	Series map[Channel]*Series

	// Failed is true if any refill or read call errored during the run.
	// The loop keeps going so a transient blip does not discard data
	// already collected.
	Failed bool

	RefillSpans []Span
	ReadSpans   []Span
}

// Stats holds the reduced scalar statistics of one channel.
type Stats struct {
	Min float64
	Max float64
	Avg float64
}

// Reduced is the post-capture reduction of one probe's CaptureResult,
// the data contract handed to reporting sinks.
type Reduced struct {
	Probe          string
	ShuntMicroOhm  int
	Type           ProbeType
	HasPowerSwitch bool
	Duration       time.Duration
	Failed         bool

	// Time is normalized to a zero origin, in nanoseconds.
	Time   []float64
	Vbat   Series
	Ishunt Series
	Power  Series

	VbatStats   Stats
	IshuntStats Stats
	PowerStats  Stats

	// Achieved sampling diagnostics.
	SampleCount    int
	SampleRateHz   float64
	TimeDeltaStats Stats // milliseconds between consecutive samples
}
