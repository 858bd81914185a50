package processor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterpret(t *testing.T) {
	cases := []struct {
		r, p         float64
		strength     Strength
		direction    Direction
		significance Significance
		label        string
		stars        string
	}{
		{0.05, 0.8, Negligible, Positive, NotSignificant, "negligible positive", "ns"},
		{-0.1, 0.04, Weak, Negative, Significant, "weak negative", "*"},
		{0.3, 0.009, Moderate, Positive, VerySignificant, "moderate positive", "**"},
		{-0.69, 0.0009, Strong, Negative, HighlySignificant, "strong negative", "***"},
		{0.7, 0.05, VeryStrong, Positive, NotSignificant, "very strong positive", "ns"},
		{-1, 1, VeryStrong, Negative, NotSignificant, "very strong negative", "ns"},
		{0, 0.5, Negligible, Negative, NotSignificant, "negligible negative", "ns"},
	}
	for _, tc := range cases {
		in := Interpret(tc.r, tc.p)
		assert.Equal(t, tc.strength, in.Strength, "r=%v", tc.r)
		assert.Equal(t, tc.direction, in.Direction, "r=%v", tc.r)
		assert.Equal(t, tc.significance, in.Significance, "p=%v", tc.p)
		assert.Equal(t, tc.label, in.Label())
		assert.Equal(t, tc.stars, in.Significance.Stars())
	}
}

func TestInterpretUndefined(t *testing.T) {
	in := Interpret(math.NaN(), math.NaN())
	assert.Equal(t, "undefined", in.Label())
	assert.Equal(t, "n/a", in.Significance.Stars())
	assert.Equal(t, "undefined (insufficient data)", in.Significance.String())

	// 两点相关：系数有定义但 p 值不可用
	in = InterpretResult(CorrelationResult{Coefficient: -1, PValue: math.NaN(), N: 2})
	assert.Equal(t, "very strong negative", in.Label())
	assert.Equal(t, SignificanceUndefined, in.Significance)
}

func TestSignificanceWording(t *testing.T) {
	assert.Equal(t, "significant (p < 0.05)", Significant.String())
	assert.Equal(t, "not statistically significant (p ≥ 0.05)", NotSignificant.String())
}
