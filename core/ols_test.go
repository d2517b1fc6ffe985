package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeastSquaresExactFit(t *testing.T) {
	rows := [][]float64{{1}, {2}, {3}, {4}}
	y := []float64{3, 5, 7, 9} // 1 + 2x
	coef, err := leastSquares(designMatrix(rows, true), y)
	require.NoError(t, err)
	require.Len(t, coef, 2)
	assert.InDelta(t, 1.0, coef[0], 1e-9)
	assert.InDelta(t, 2.0, coef[1], 1e-9)
}

func TestLeastSquaresRejectsNonFiniteInput(t *testing.T) {
	tests := []struct {
		name string
		rows [][]float64
		y    []float64
	}{
		{name: "nan feature", rows: [][]float64{{1}, {math.NaN()}, {3}}, y: []float64{1, 2, 3}},
		{name: "inf target", rows: [][]float64{{1}, {2}, {3}}, y: []float64{1, math.Inf(1), 3}},
		{name: "overflowing normal equations", rows: [][]float64{{1e200}, {2e200}, {3e200}}, y: []float64{1, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			assert.NotPanics(t, func() {
				_, err = leastSquares(designMatrix(tt.rows, true), tt.y)
			})
			assert.ErrorIs(t, err, errDegenerateDesign)
		})
	}
}

func TestRidgeRejectsOverflow(t *testing.T) {
	rows := [][]float64{{1e200, 1}, {2e200, 1}, {3e200, 1}}
	var err error
	assert.NotPanics(t, func() {
		_, err = ridge(designMatrix(rows, false), []float64{1, 2, 3}, []float64{0, 0})
	})
	assert.ErrorIs(t, err, errDegenerateDesign)
}
