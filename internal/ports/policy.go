package ports

import (
	"time"

	"github.com/ptitiano/acme-utils/internal/domain"
)

// CapturePolicy carries the acquisition parameters shared by every capture
// worker in a run. Explicit configuration, not ambient globals.
type CapturePolicy struct {
	Channels          []domain.Channel
	Duration          time.Duration
	BufferSize        int
	OversamplingRatio int
	AsynchronousReads bool
}
