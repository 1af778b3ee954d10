package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ptitiano/acme-utils/internal/domain"
	"github.com/ptitiano/acme-utils/internal/ports"
)

const (
	reportFirstColWidth = 13
	reportColWidthMin   = 7
	reportColPad        = 2
)

// ReportParams carries the run metadata printed in the report header.
type ReportParams struct {
	RunID             string
	Channels          []domain.Channel
	OversamplingRatio int
	AsynchronousReads bool
	Duration          time.Duration
}

// ReportSink renders the per-rail min/max/avg table as a text report,
// written to a file and optionally echoed to stdout.
type ReportSink struct {
	dir      string
	basename string
	params   ReportParams
	echo     bool
}

func NewReportSink(dir, basename string, params ReportParams, echo bool) *ReportSink {
	return &ReportSink{dir: dir, basename: basename, params: params, echo: echo}
}

func (s *ReportSink) Name() string { return "report" }

// Path returns the report file location.
func (s *ReportSink) Path() string {
	return filepath.Join(s.dir, s.basename+"-report.txt")
}

func (s *ReportSink) WriteResults(results []*domain.Reduced) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("report sink: %w", err)
	}

	report := RenderReport(results, s.params)
	if s.echo {
		fmt.Println(report)
	}
	if err := os.WriteFile(s.Path(), []byte(report+"\n"), 0o644); err != nil {
		return fmt.Errorf("report sink: %w", err)
	}
	return nil
}

// RenderReport formats the measurement report: a header with the capture
// parameters followed by one column per power rail.
func RenderReport(results []*domain.Reduced, params ReportParams) string {
	lines := []string{
		fmt.Sprintf("Date: %s", time.Now().Format("20060102-150405")),
		fmt.Sprintf("Run ID: %s", params.RunID),
		fmt.Sprintf("Captured Channels: %s", joinChannels(params.Channels)),
		fmt.Sprintf("Oversampling ratio: %d", params.OversamplingRatio),
		fmt.Sprintf("Asynchronous reads: %t", params.AsynchronousReads),
		fmt.Sprintf("Power Rails: %d", len(results)),
		fmt.Sprintf("Duration: %s", params.Duration),
		"",
	}

	// Column widths grow with rail names so names are never truncated.
	widths := make([]int, len(results))
	for i, r := range results {
		widths[i] = reportColPad + max(reportColWidthMin, len(r.Probe))
	}

	rows := []struct {
		label string
		value func(*domain.Reduced) string
	}{
		{"Name", func(r *domain.Reduced) string { return r.Probe }},
		{"Shunt (mohm)", func(r *domain.Reduced) string {
			return fmt.Sprintf("%g", float64(r.ShuntMicroOhm)/1000)
		}},
		{"Failed", func(r *domain.Reduced) string { return fmt.Sprintf("%t", r.Failed) }},
		{"Voltage", nil},
		{" Min (mV)", func(r *domain.Reduced) string { return fmt.Sprintf("%.1f", r.VbatStats.Min) }},
		{" Max (mV)", func(r *domain.Reduced) string { return fmt.Sprintf("%.1f", r.VbatStats.Max) }},
		{" Avg (mV)", func(r *domain.Reduced) string { return fmt.Sprintf("%.1f", r.VbatStats.Avg) }},
		{"Current", nil},
		{" Min (mA)", func(r *domain.Reduced) string { return fmt.Sprintf("%.1f", r.IshuntStats.Min) }},
		{" Max (mA)", func(r *domain.Reduced) string { return fmt.Sprintf("%.1f", r.IshuntStats.Max) }},
		{" Avg (mA)", func(r *domain.Reduced) string { return fmt.Sprintf("%.1f", r.IshuntStats.Avg) }},
		{"Power", nil},
		{" Min (mW)", func(r *domain.Reduced) string { return fmt.Sprintf("%.1f", r.PowerStats.Min) }},
		{" Max (mW)", func(r *domain.Reduced) string { return fmt.Sprintf("%.1f", r.PowerStats.Max) }},
		{" Avg (mW)", func(r *domain.Reduced) string { return fmt.Sprintf("%.1f", r.PowerStats.Avg) }},
	}

	for _, row := range rows {
		var b strings.Builder
		b.WriteString(padRight(row.label, reportFirstColWidth))
		if row.value != nil {
			for i, r := range results {
				b.WriteString(padLeft(row.value(r), widths[i]))
			}
		}
		lines = append(lines, strings.TrimRight(b.String(), " "))
	}

	width := 0
	for _, l := range lines {
		if len(l) > width {
			width = len(l)
		}
	}
	title := " Power Measurement Report "
	dashes := (width - len(title)) / 2
	if dashes < 3 {
		dashes = 3
	}
	header := strings.Repeat("-", dashes) + title + strings.Repeat("-", width-len(title)-dashes)

	return header + "\n" + strings.Join(lines, "\n") + "\n" + strings.Repeat("-", width)
}

func joinChannels(channels []domain.Channel) string {
	names := make([]string, len(channels))
	for i, ch := range channels {
		names[i] = string(ch)
	}
	return strings.Join(names, ", ")
}

func padRight(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(s))
}

func padLeft(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return strings.Repeat(" ", w-len(s)) + s
}

var _ ports.ResultSink = (*ReportSink)(nil)
