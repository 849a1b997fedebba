// Package analytics derives performance statistics from a portfolio's snapshot history.
package analytics

import (
	"math"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/investtrack/internal/domain"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var hundred = decimal.NewFromInt(100)

// Summary performance of a snapshot series. Step returns are in percent.
type Summary struct {
	Samples        int
	First          decimal.Decimal
	Last           decimal.Decimal
	Peak           decimal.Decimal
	TotalReturnPct decimal.Decimal
	MeanStepPct    float64
	StdDevStepPct  float64
	MaxDrawdownPct float64
}

// Summarize computes the summary of history, oldest snapshot first.
func Summarize(history []domain.Snapshot) Summary {
	if len(history) == 0 {
		return Summary{}
	}

	values := make([]float64, len(history))
	peak := decimal.Zero
	for i, snap := range history {
		total := snap.TotalAssetValue()
		values[i], _ = total.Float64()
		if total.GreaterThan(peak) {
			peak = total
		}
	}

	s := Summary{
		Samples: len(history),
		First:   history[0].TotalAssetValue(),
		Last:    history[len(history)-1].TotalAssetValue(),
		Peak:    peak,
	}
	if !s.First.IsZero() {
		s.TotalReturnPct = s.Last.Sub(s.First).Div(s.First).Mul(hundred)
	}

	returns := stepReturns(values)
	switch {
	case len(returns) == 1:
		s.MeanStepPct = returns[0]
	case len(returns) > 1:
		s.MeanStepPct, s.StdDevStepPct = stat.MeanStdDev(returns, nil)
	}
	s.MaxDrawdownPct = maxDrawdown(values)

	return s
}

// stepReturns percent change between consecutive values; steps from zero are skipped.
func stepReturns(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			continue
		}
		returns = append(returns, (values[i]-values[i-1])/values[i-1]*100)
	}
	return returns
}

// maxDrawdown largest peak-to-trough decline in percent of the peak.
func maxDrawdown(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	drawdowns := make([]float64, len(values))
	peak := values[0]
	for i, v := range values {
		peak = math.Max(peak, v)
		if peak > 0 {
			drawdowns[i] = (peak - v) / peak * 100
		}
	}
	return floats.Max(drawdowns)
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (s Summary) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt("samples", s.Samples)
	enc.AddString("first", s.First.String())
	enc.AddString("last", s.Last.String())
	enc.AddString("peak", s.Peak.String())
	enc.AddString("total_return_pct", s.TotalReturnPct.StringFixed(4))
	enc.AddFloat64("mean_step_pct", s.MeanStepPct)
	enc.AddFloat64("stddev_step_pct", s.StdDevStepPct)
	enc.AddFloat64("max_drawdown_pct", s.MaxDrawdownPct)
	return nil
}

// Field wraps the summary for structured logging.
func (s Summary) Field() zap.Field {
	return zap.Object("performance", s)
}
