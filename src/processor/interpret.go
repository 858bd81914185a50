package processor

import (
	"fmt"
	"math"
)

// Strength 相关强度
type Strength int

const (
	StrengthUndefined Strength = iota
	Negligible
	Weak
	Moderate
	Strong
	VeryStrong
)

func (s Strength) String() string {
	switch s {
	case Negligible:
		return "negligible"
	case Weak:
		return "weak"
	case Moderate:
		return "moderate"
	case Strong:
		return "strong"
	case VeryStrong:
		return "very strong"
	default:
		return "undefined"
	}
}

// Direction 相关方向
type Direction int

const (
	DirectionUndefined Direction = iota
	Negative
	Positive
)

func (d Direction) String() string {
	switch d {
	case Negative:
		return "negative"
	case Positive:
		return "positive"
	default:
		return "undefined"
	}
}

// Significance 显著性等级
type Significance int

const (
	SignificanceUndefined Significance = iota
	NotSignificant
	Significant
	VerySignificant
	HighlySignificant
)

func (s Significance) String() string {
	switch s {
	case NotSignificant:
		return "not statistically significant (p ≥ 0.05)"
	case Significant:
		return "significant (p < 0.05)"
	case VerySignificant:
		return "very significant (p < 0.01)"
	case HighlySignificant:
		return "highly significant (p < 0.001)"
	default:
		return "undefined (insufficient data)"
	}
}

// Stars 表格中使用的星号标记
func (s Significance) Stars() string {
	switch s {
	case HighlySignificant:
		return "***"
	case VerySignificant:
		return "**"
	case Significant:
		return "*"
	case NotSignificant:
		return "ns"
	default:
		return "n/a"
	}
}

// Interpretation 相关性结果的文字解读
type Interpretation struct {
	Strength     Strength
	Direction    Direction
	Significance Significance
}

// Label 例如 "weak negative"
func (i Interpretation) Label() string {
	if i.Strength == StrengthUndefined {
		return "undefined"
	}
	return fmt.Sprintf("%s %s", i.Strength, i.Direction)
}

// Interpret 仅依赖 (r, p) 的纯函数
func Interpret(r, p float64) Interpretation {
	var in Interpretation

	if !math.IsNaN(r) {
		switch abs := math.Abs(r); {
		case abs < 0.1:
			in.Strength = Negligible
		case abs < 0.3:
			in.Strength = Weak
		case abs < 0.5:
			in.Strength = Moderate
		case abs < 0.7:
			in.Strength = Strong
		default:
			in.Strength = VeryStrong
		}
		if r > 0 {
			in.Direction = Positive
		} else {
			in.Direction = Negative
		}
	}

	if !math.IsNaN(p) {
		switch {
		case p < 0.001:
			in.Significance = HighlySignificant
		case p < 0.01:
			in.Significance = VerySignificant
		case p < 0.05:
			in.Significance = Significant
		default:
			in.Significance = NotSignificant
		}
	}
	return in
}

// InterpretResult 解读一个相关性结果
func InterpretResult(r CorrelationResult) Interpretation {
	return Interpret(r.Coefficient, r.PValue)
}
