package sink

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ptitiano/acme-utils/internal/domain"
	"github.com/ptitiano/acme-utils/internal/ports"
)

// PostgresSink persists one summary row per probe for trend tracking across
// capture runs. Traces stay on disk; only the reduced scalars go to the
// database.
type PostgresSink struct {
	db        *sql.DB
	tableName string
	runID     string
	now       func() time.Time
}

func NewPostgresSink(db *sql.DB, table, runID string) *PostgresSink {
	return &PostgresSink{db: db, tableName: table, runID: runID, now: time.Now}
}

func (p *PostgresSink) Name() string { return "postgres" }

func (p *PostgresSink) WriteResults(results []*domain.Reduced) error {
	if len(results) == 0 {
		return nil
	}

	const cols = 18
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(p.tableName)
	b.WriteString(" (run_id, probe, captured_at, duration_s, probe_type, shunt_uohm, failed," +
		" sample_count, sample_rate_hz," +
		" vbat_min_mv, vbat_max_mv, vbat_avg_mv," +
		" ishunt_min_ma, ishunt_max_ma, ishunt_avg_ma," +
		" power_min_mw, power_max_mw, power_avg_mw) VALUES ")

	capturedAt := p.now()
	args := make([]any, 0, len(results)*cols)
	for i, r := range results {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(")
		for c := 0; c < cols; c++ {
			if c > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, "$%d", len(args)+c+1)
		}
		b.WriteString(")")

		args = append(args,
			p.runID,
			r.Probe,
			capturedAt,
			r.Duration.Seconds(),
			string(r.Type),
			r.ShuntMicroOhm,
			r.Failed,
			r.SampleCount,
			r.SampleRateHz,
			r.VbatStats.Min,
			r.VbatStats.Max,
			r.VbatStats.Avg,
			r.IshuntStats.Min,
			r.IshuntStats.Max,
			r.IshuntStats.Avg,
			r.PowerStats.Min,
			r.PowerStats.Max,
			r.PowerStats.Avg,
		)
	}

	b.WriteString(" ON CONFLICT (run_id, probe) DO NOTHING")

	_, err := p.db.Exec(b.String(), args...)
	return err
}

var _ ports.ResultSink = (*PostgresSink)(nil)
