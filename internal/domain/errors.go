package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the capture engine. Callers classify failures with
// errors.Is; the wrapping error carries probe and operation context.
var (
	// ErrAttach covers unreachable hosts, session failures, missing or
	// unparsable probe metadata, and slot-to-index resolution failures.
	// Fatal: the whole run is aborted before capture starts.
	ErrAttach = errors.New("probe attach failed")

	// ErrConfig is returned when the device rejects a configuration write
	// or is not attached. Fatal during capture configuration.
	ErrConfig = errors.New("probe configuration failed")

	// ErrChannelNotFound is returned when a logical channel cannot be
	// resolved to a device channel.
	ErrChannelNotFound = errors.New("capture channel not found")

	// ErrAllocation is returned when the device rejects the capture
	// buffer allocation.
	ErrAllocation = errors.New("capture buffer allocation failed")

	// ErrRefill is a non-fatal capture loop error: the run is flagged
	// failed but the loop continues.
	ErrRefill = errors.New("capture buffer refill failed")

	// ErrRead is a non-fatal capture loop error raised while unpacking
	// or scaling one channel's samples.
	ErrRead = errors.New("capture buffer read failed")

	// ErrParse is returned when the probe-info blob cannot be parsed.
	ErrParse = errors.New("probe info unparsable")

	// ErrDataIntegrity is raised by the reduction pipeline on channel
	// length mismatches or empty channels. Must never be masked with
	// truncation or zero-fill.
	ErrDataIntegrity = errors.New("capture data integrity violation")

	// ErrNotAttached is returned by operations that require a completed
	// attach.
	ErrNotAttached = errors.New("probe not attached")
)

// AttachError wraps a failure during the attach sequence with the probe it
// concerns.
func AttachError(probe string, err error) error {
	return fmt.Errorf("probe %s: %w: %w", probe, ErrAttach, err)
}

// ConfigError wraps a device configuration rejection.
func ConfigError(probe, setting string, err error) error {
	return fmt.Errorf("probe %s: %s: %w: %w", probe, setting, ErrConfig, err)
}

// RefillError wraps a failed buffer refill.
func RefillError(probe string, err error) error {
	return fmt.Errorf("probe %s: %w: %w", probe, ErrRefill, err)
}

// ReadError wraps a failed channel read.
func ReadError(probe string, ch Channel, err error) error {
	return fmt.Errorf("probe %s: channel %s: %w: %w", probe, ch, ErrRead, err)
}

// DataIntegrityError wraps a reduction-time invariant violation.
func DataIntegrityError(probe string, err error) error {
	return fmt.Errorf("probe %s: %w: %w", probe, ErrDataIntegrity, err)
}
