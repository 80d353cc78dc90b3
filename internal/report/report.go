package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/stat"
)

// SessionSummary aggregates one session's composite-risk series.
type SessionSummary struct {
	SessionID     string  `json:"session_id"`
	Frames        int     `json:"frames"`
	MeanComposite float64 `json:"mean_composite"`
	P50Composite  float64 `json:"p50_composite"`
	P95Composite  float64 `json:"p95_composite"`
	MaxComposite  float64 `json:"max_composite"`
	Alarms        int     `json:"alarms"`
}

// Summarize computes percentile statistics over a composite-risk series.
// An empty series yields a zero summary.
func Summarize(sessionID string, composite []float64, alarms int) SessionSummary {
	summary := SessionSummary{
		SessionID: sessionID,
		Frames:    len(composite),
		Alarms:    alarms,
	}
	if len(composite) == 0 {
		return summary
	}

	sorted := make([]float64, len(composite))
	copy(sorted, composite)
	sort.Float64s(sorted)

	summary.MeanComposite = stat.Mean(sorted, nil)
	summary.P50Composite = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	summary.P95Composite = stat.Quantile(0.95, stat.Empirical, sorted, nil)
	summary.MaxComposite = sorted[len(sorted)-1]
	return summary
}

// String renders the summary as a single log-friendly line.
func (s SessionSummary) String() string {
	return fmt.Sprintf("session=%s frames=%d alarms=%d composite mean=%.1f p50=%.1f p95=%.1f max=%.1f",
		s.SessionID, s.Frames, s.Alarms,
		s.MeanComposite, s.P50Composite, s.P95Composite, s.MaxComposite)
}

// WriteRiskChart renders an HTML line chart of the composite-risk series
// (one point per processed frame) with alarm frames marked.
func WriteRiskChart(w io.Writer, summary SessionSummary, composite []float64, alarmFrames []uint64) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Fall Risk Timeline", Width: "100%", Height: "540px"}),
		charts.WithTitleOpts(opts.Title{Title: "Composite Fall Risk", Subtitle: summary.String()}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "frame", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 100, Name: "risk", NameLocation: "middle", NameGap: 30}),
	)

	xAxis := make([]string, len(composite))
	series := make([]opts.LineData, len(composite))
	for i, v := range composite {
		xAxis[i] = fmt.Sprintf("%d", i+1)
		series[i] = opts.LineData{Value: v}
	}

	alarmSet := make(map[uint64]bool, len(alarmFrames))
	for _, f := range alarmFrames {
		alarmSet[f] = true
	}
	alarmSeries := make([]opts.LineData, len(composite))
	for i := range composite {
		if alarmSet[uint64(i+1)] {
			alarmSeries[i] = opts.LineData{Value: composite[i]}
		} else {
			alarmSeries[i] = opts.LineData{Value: nil}
		}
	}

	line.SetXAxis(xAxis).
		AddSeries("composite", series).
		AddSeries("alarm", alarmSeries)

	if err := line.Render(w); err != nil {
		return fmt.Errorf("failed to render risk chart: %w", err)
	}
	return nil
}
