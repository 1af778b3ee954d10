package sink

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ptitiano/acme-utils/internal/domain"
	"github.com/ptitiano/acme-utils/internal/ports"
)

// TraceSink writes one CSV trace file per probe: normalized timestamps plus
// the voltage, current, and derived power sequences.
type TraceSink struct {
	dir      string
	basename string
}

func NewTraceSink(dir, basename string) *TraceSink {
	return &TraceSink{dir: dir, basename: basename}
}

func (s *TraceSink) Name() string { return "csv-trace" }

// TracePath returns the trace file location for one probe.
func (s *TraceSink) TracePath(probe string) string {
	return filepath.Join(s.dir, s.basename+"_"+probe+".csv")
}

func (s *TraceSink) WriteResults(results []*domain.Reduced) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("trace sink: %w", err)
	}
	for _, r := range results {
		if err := s.writeTrace(r); err != nil {
			return err
		}
	}
	return nil
}

func (s *TraceSink) writeTrace(r *domain.Reduced) error {
	f, err := os.Create(s.TracePath(r.Probe))
	if err != nil {
		return fmt.Errorf("trace sink: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"Time (ns)",
		fmt.Sprintf("%s Voltage (%s)", r.Probe, r.Vbat.Unit),
		fmt.Sprintf("%s Current (%s)", r.Probe, r.Ishunt.Unit),
		fmt.Sprintf("%s Power (%s)", r.Probe, r.Power.Unit),
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("trace sink: %w", err)
	}

	// The reduction pipeline already guaranteed Time, Vbat, Ishunt, and
	// Power have equal length.
	for i := range r.Power.Samples {
		row := []string{
			strconv.FormatFloat(r.Time[i], 'f', -1, 64),
			strconv.FormatFloat(r.Vbat.Samples[i], 'f', -1, 64),
			strconv.FormatFloat(r.Ishunt.Samples[i], 'f', -1, 64),
			strconv.FormatFloat(r.Power.Samples[i], 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("trace sink: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("trace sink: %w", err)
	}
	return nil
}

var _ ports.ResultSink = (*TraceSink)(nil)
