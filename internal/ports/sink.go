package ports

import "github.com/ptitiano/acme-utils/internal/domain"

// ResultSink receives the reduced per-probe results at the end of a capture
// run. Implementations cover the text report, CSV traces, and the summary
// database.
type ResultSink interface {
	WriteResults(results []*domain.Reduced) error
	Name() string
}
