package core

import (
	"errors"
	"fmt"
	"math"

	"github.com/carbonlens/emforecast/schema"
	"gonum.org/v1/gonum/stat"
)

// ARIMAGrid bounds the order search. Each bound is inclusive.
type ARIMAGrid struct {
	MaxP int
	MaxD int
	MaxQ int
}

// DefaultARIMAGrid searches p in 0..2, d in 0..1 and q in 0..2.
var DefaultARIMAGrid = ARIMAGrid{MaxP: 2, MaxD: 1, MaxQ: 2}

// MaxARIMAOrder is the largest value accepted for any grid bound.
const MaxARIMAOrder = 4

var errNotConverged = errors.New("order did not converge")

// sigma2Floor keeps the log likelihood finite for perfectly fitted series.
const sigma2Floor = 1e-10

// difference applies first differencing d times.
func difference(y []float64, d int) []float64 {
	out := y
	for range d {
		if len(out) < 2 {
			return nil
		}
		next := make([]float64, len(out)-1)
		for i := 1; i < len(out); i++ {
			next[i-1] = out[i] - out[i-1]
		}
		out = next
	}
	return out
}

// lagRow collects [const?, w[t-1..t-p], e[t-1..t-q]].
func lagRow(w, e []float64, t, p, q int, constant bool) []float64 {
	row := make([]float64, 0, p+q+1)
	if constant {
		row = append(row, 1)
	}
	for i := 1; i <= p; i++ {
		row = append(row, w[t-i])
	}
	for j := 1; j <= q; j++ {
		row = append(row, e[t-j])
	}
	return row
}

// longAROrder is the autoregression length used to estimate innovations for MA terms.
func longAROrder(n, p, q int) int {
	m := max(p+q+1, int(math.Ceil(2*math.Log(float64(n)))))
	return min(m, n/3)
}

// fitARIMA estimates an ARIMA(p,d,q) model with Hannan-Rissanen regressions and
// scores it by conditional sum of squares. A constant is fitted only when d = 0.
func fitARIMA(y []float64, order schema.ARIMAOrder) (*schema.ARIMAState, error) {
	p, d, q := order.P, order.D, order.Q
	w := difference(y, d)
	n := len(w)
	constant := d == 0
	params := p + q
	if constant {
		params++
	}
	if n < max(10, 3*(params+1)) {
		return nil, fmt.Errorf("%w: %d points for order %s", errNotConverged, n, order)
	}

	// Stage one: innovations from a long autoregression
	innov := make([]float64, n)
	start := p
	if q > 0 {
		m := longAROrder(n, p, q)
		if m < 1 {
			return nil, fmt.Errorf("%w: series too short for MA terms", errNotConverged)
		}
		var X [][]float64
		var target []float64
		for t := m; t < n; t++ {
			X = append(X, lagRow(w, nil, t, m, 0, constant))
			target = append(target, w[t])
		}
		coef, err := leastSquares(designMatrix(X, false), target)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errNotConverged, err)
		}
		for t := m; t < n; t++ {
			innov[t] = w[t] - dot(coef, lagRow(w, nil, t, m, 0, constant))
		}
		start = max(p, m+q)
	}
	if n-start < params+2 {
		return nil, fmt.Errorf("%w: too few rows after warm-up", errNotConverged)
	}

	// Stage two: regress on own lags and lagged innovations
	var X [][]float64
	var target []float64
	for t := start; t < n; t++ {
		X = append(X, lagRow(w, innov, t, p, q, constant))
		target = append(target, w[t])
	}
	var coef []float64
	if len(X[0]) == 0 {
		coef = []float64{}
	} else {
		var err error
		coef, err = leastSquares(designMatrix(X, false), target)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errNotConverged, err)
		}
	}

	state := &schema.ARIMAState{Order: order, HasConstant: constant}
	i := 0
	if constant {
		state.Constant = coef[0]
		i++
	}
	state.AR = append([]float64{}, coef[i:i+p]...)
	state.MA = append([]float64{}, coef[i+p:]...)

	resid := filterResiduals(state, w)
	if resid == nil {
		return nil, fmt.Errorf("%w: residual filter diverged", errNotConverged)
	}
	eff := resid[p:]
	var ss float64
	for _, e := range eff {
		ss += e * e
	}
	sigma2 := ss / float64(len(eff))
	if math.IsNaN(sigma2) || math.IsInf(sigma2, 0) {
		return nil, fmt.Errorf("%w: non-finite variance", errNotConverged)
	}
	if _, variance := stat.PopMeanVariance(w, nil); variance > 0 && sigma2 > 100*variance {
		return nil, fmt.Errorf("%w: residual variance exploded", errNotConverged)
	}
	sigma2 = math.Max(sigma2, sigma2Floor)

	nEff := float64(len(eff))
	logLik := -nEff / 2 * (math.Log(2*math.Pi*sigma2) + 1)
	k := float64(params + 1)
	state.Sigma2 = sigma2
	state.AIC = 2*k - 2*logLik

	setContinuation(state, y, resid)
	return state, nil
}

// filterResiduals runs the conditional one-step recursion with pre-sample innovations at zero.
// It returns nil when the recursion produces non-finite values.
func filterResiduals(state *schema.ARIMAState, w []float64) []float64 {
	p := len(state.AR)
	e := make([]float64, len(w))
	for t := p; t < len(w); t++ {
		pred := state.Constant
		for i, phi := range state.AR {
			pred += phi * w[t-1-i]
		}
		for j, theta := range state.MA {
			if t-1-j >= 0 {
				pred += theta * e[t-1-j]
			}
		}
		e[t] = w[t] - pred
		if math.IsNaN(e[t]) || math.IsInf(e[t], 0) {
			return nil
		}
	}
	return e
}

// setContinuation stores the history needed to forecast past the end of y.
func setContinuation(state *schema.ARIMAState, y, resid []float64) {
	tailLen := min(len(state.AR)+state.Order.D, len(y))
	state.Tail = append([]float64{}, y[len(y)-tailLen:]...)
	q := min(len(state.MA), len(resid))
	state.Residuals = append([]float64{}, resid[len(resid)-q:]...)
}

// continueARIMA refilters a full series with fitted coefficients so forecasts start after its end.
func continueARIMA(state *schema.ARIMAState, y []float64) error {
	w := difference(y, state.Order.D)
	if len(w) < len(state.AR) {
		return fmt.Errorf("%w: series too short to continue", errNotConverged)
	}
	resid := filterResiduals(state, w)
	if resid == nil {
		return fmt.Errorf("%w: residual filter diverged", errNotConverged)
	}
	setContinuation(state, y, resid)
	return nil
}

// forecastARIMA projects horizon steps ahead with future innovations at zero and integrates back.
func forecastARIMA(state *schema.ARIMAState, horizon int) []float64 {
	p, d := len(state.AR), state.Order.D

	// Last value of every difference order up to d-1
	levels := make([]float64, d)
	current := state.Tail
	for k := range d {
		levels[k] = current[len(current)-1]
		current = difference(current, 1)
	}
	w := append([]float64{}, current[len(current)-p:]...)
	e := append([]float64{}, state.Residuals...)

	out := make([]float64, horizon)
	for h := range horizon {
		next := state.Constant
		for i, phi := range state.AR {
			next += phi * w[len(w)-1-i]
		}
		for j, theta := range state.MA {
			if idx := len(e) - 1 - j; idx >= 0 {
				next += theta * e[idx]
			}
		}
		w = append(w, next)
		e = append(e, 0)

		value := next
		for k := d - 1; k >= 0; k-- {
			levels[k] += value
			value = levels[k]
		}
		out[h] = value
	}
	return out
}

// searchARIMA fits every order in the grid and keeps the lowest AIC. Failed orders are skipped.
func searchARIMA(y []float64, grid ARIMAGrid) (*schema.ARIMAState, error) {
	var best *schema.ARIMAState
	for p := 0; p <= grid.MaxP; p++ {
		for d := 0; d <= grid.MaxD; d++ {
			for q := 0; q <= grid.MaxQ; q++ {
				state, err := fitARIMA(y, schema.ARIMAOrder{P: p, D: d, Q: q})
				if err != nil {
					continue
				}
				if best == nil || state.AIC < best.AIC {
					best = state
				}
			}
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: no order in p<=%d d<=%d q<=%d", errNotConverged, grid.MaxP, grid.MaxD, grid.MaxQ)
	}
	return best, nil
}

// trainARIMA searches the grid on the head of the raw series and scores the tail.
func trainARIMA(series schema.ObservationSeries, grid ARIMAGrid) (schema.TrainedModelRecord, error) {
	cut := splitIndex(series.Len())
	if cut < 1 || cut >= series.Len() {
		return schema.TrainedModelRecord{}, fmt.Errorf("%w: %d points cannot be split", schema.ErrInsufficientData, series.Len())
	}
	train, test := series.Values[:cut], series.Values[cut:]

	state, err := searchARIMA(train, grid)
	if err != nil {
		return schema.TrainedModelRecord{}, err
	}
	forecast := forecastARIMA(state, len(test))
	perf := schema.Performance{
		TestMAE:  meanAbsoluteError(test, forecast),
		TestRMSE: rootMeanSquaredError(test, forecast),
	}
	aic := state.AIC
	order := state.Order
	perf.AIC, perf.Order = &aic, &order

	if err := continueARIMA(state, series.Values); err != nil {
		return schema.TrainedModelRecord{}, err
	}
	return schema.TrainedModelRecord{
		Kind:        schema.ARIMAModel,
		ARIMA:       state,
		Performance: perf,
	}, nil
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
