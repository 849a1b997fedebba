// Package indicators computes technical indicators (EMA, MACD, RSI) over a price series.
package indicators

import (
	"math"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	// ShortEMAPeriod period of the fast moving average in a Snapshot.
	ShortEMAPeriod = 9
	// LongEMAPeriod period of the slow moving average in a Snapshot.
	LongEMAPeriod = 21
	// RSIPeriod period of the relative strength index in a Snapshot.
	RSIPeriod = 14
	// MACDMinPoints closes required before MACD produces output.
	MACDMinPoints = 26
)

// ErrNotEnoughData series is shorter than the indicator warmup.
var ErrNotEnoughData = errors.New("not enough data points")

// Snapshot latest indicator values of a series. A value is nil when the
// series is too short to compute it.
type Snapshot struct {
	ShortEMA *decimal.Decimal
	LongEMA  *decimal.Decimal
	RSI      *decimal.Decimal
	MACD     *decimal.Decimal
}

// CalculateEMA calculates the Exponential Moving Average for the given period.
func CalculateEMA(closes []decimal.Decimal, period int) ([]decimal.Decimal, error) {
	values, err := computeEMA(closes, period)
	if err != nil {
		return nil, err
	}
	return float64ToDecimals(values), nil
}

// CalculateMACD calculates MACD line values.
func CalculateMACD(closes []decimal.Decimal) ([]decimal.Decimal, error) {
	values, err := computeMACD(closes)
	if err != nil {
		return nil, err
	}
	return float64ToDecimals(values), nil
}

// CalculateRSI calculates the Relative Strength Index for the given period.
func CalculateRSI(closes []decimal.Decimal, period int) ([]decimal.Decimal, error) {
	values, err := computeRSI(closes, period)
	if err != nil {
		return nil, err
	}
	return float64ToDecimals(values), nil
}

func computeEMA(closes []decimal.Decimal, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.Errorf("invalid EMA period %d", period)
	}
	if len(closes) < period {
		return nil, errors.Wrapf(ErrNotEnoughData, "EMA%d needs %d, got %d", period, period, len(closes))
	}

	ema := trend.NewEmaWithPeriod[float64](period)
	return helper.ChanToSlice(ema.Compute(helper.SliceToChan(decimalsToFloat64(closes)))), nil
}

func computeMACD(closes []decimal.Decimal) ([]float64, error) {
	if len(closes) < MACDMinPoints {
		return nil, errors.Wrapf(ErrNotEnoughData, "MACD needs %d, got %d", MACDMinPoints, len(closes))
	}

	macd := trend.NewMacd[float64]()
	macdChan, signalChan := macd.Compute(helper.SliceToChan(decimalsToFloat64(closes)))
	// drain signal channel to prevent blocking
	go func() {
		for range signalChan {
		}
	}()

	return helper.ChanToSlice(macdChan), nil
}

func computeRSI(closes []decimal.Decimal, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.Errorf("invalid RSI period %d", period)
	}
	if len(closes) < period+1 {
		return nil, errors.Wrapf(ErrNotEnoughData, "RSI%d needs %d, got %d", period, period+1, len(closes))
	}

	rsi := momentum.NewRsiWithPeriod[float64](period)
	return helper.ChanToSlice(rsi.Compute(helper.SliceToChan(decimalsToFloat64(closes)))), nil
}

// Latest computes the most recent value of every indicator the series is long
// enough for. A value whose latest point is undefined, such as RSI over a flat
// window, is nil.
func Latest(closes []decimal.Decimal) Snapshot {
	var s Snapshot

	if v, err := computeEMA(closes, ShortEMAPeriod); err == nil {
		s.ShortEMA = last(v)
	}
	if v, err := computeEMA(closes, LongEMAPeriod); err == nil {
		s.LongEMA = last(v)
	}
	if v, err := computeRSI(closes, RSIPeriod); err == nil {
		s.RSI = last(v)
	}
	if v, err := computeMACD(closes); err == nil {
		s.MACD = last(v)
	}

	return s
}

// last returns the final value, or nil when there is none or it is not finite.
func last(values []float64) *decimal.Decimal {
	if len(values) == 0 {
		return nil
	}
	f := values[len(values)-1]
	if !finite(f) {
		return nil
	}
	v := decimal.NewFromFloat(f)
	return &v
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func decimalsToFloat64(decimals []decimal.Decimal) []float64 {
	result := make([]float64, len(decimals))
	for i, d := range decimals {
		result[i], _ = d.Float64()
	}
	return result
}

// float64ToDecimals drops non-finite values; RSI over a flat series yields NaN.
func float64ToDecimals(floats []float64) []decimal.Decimal {
	result := make([]decimal.Decimal, 0, len(floats))
	for _, f := range floats {
		if !finite(f) {
			continue
		}
		result = append(result, decimal.NewFromFloat(f))
	}
	return result
}
