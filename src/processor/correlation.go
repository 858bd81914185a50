package processor

import (
	"math"
	"strings"
)

// Method 相关性检验方法
type Method int

const (
	Pearson Method = iota
	Spearman
	Kendall
)

// Methods 全部支持的方法，按报告展示顺序
var Methods = []Method{Pearson, Spearman, Kendall}

func (m Method) String() string {
	switch m {
	case Pearson:
		return "pearson"
	case Spearman:
		return "spearman"
	case Kendall:
		return "kendall"
	default:
		return "unknown"
	}
}

// ParseMethod 解析方法名，未知方法返回 ErrInvalidArgument
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pearson":
		return Pearson, nil
	case "spearman":
		return Spearman, nil
	case "kendall":
		return Kendall, nil
	}
	return 0, invalidArgument("unknown correlation method %q", s)
}

func (m Method) valid() bool {
	return m == Pearson || m == Spearman || m == Kendall
}

// CorrelationResult 相关系数、p 值与有效样本量
//
// 有效配对不足 2 个时 Coefficient 与 PValue 均为 NaN 且 N 为 0，表示"数据不足、无法判断"，
// 与计算得到的 0 相关不同。
type CorrelationResult struct {
	Coefficient float64
	PValue      float64
	N           int
	Method      Method
}

// Defined 系数是否可用
func (r CorrelationResult) Defined() bool {
	return !math.IsNaN(r.Coefficient)
}

func undefined(method Method, n int) CorrelationResult {
	return CorrelationResult{Coefficient: math.NaN(), PValue: math.NaN(), N: n, Method: method}
}

// Correlate 计算两列数值的相关性，任一侧为 NaN 的配对被剔除
func Correlate(x, y []float64, method Method) (CorrelationResult, error) {
	if !method.valid() {
		return CorrelationResult{}, invalidArgument("unknown correlation method %d", int(method))
	}
	if len(x) != len(y) {
		return CorrelationResult{}, invalidArgument("series length mismatch: %d vs %d", len(x), len(y))
	}

	px := make([]float64, 0, len(x))
	py := make([]float64, 0, len(y))
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		px = append(px, x[i])
		py = append(py, y[i])
	}
	if len(px) < 2 {
		return undefined(method, 0), nil
	}
	// 任一列方差为 0 时相关系数无定义
	if isConstant(px) || isConstant(py) {
		return undefined(method, len(px)), nil
	}

	var r, p float64
	switch method {
	case Pearson:
		r, p = pearson(px, py)
	case Spearman:
		r, p = spearman(px, py)
	case Kendall:
		r, p = kendall(px, py)
	}
	return CorrelationResult{Coefficient: r, PValue: p, N: len(px), Method: method}, nil
}

// Metric 合并记录中可参与相关性分析的数值列
type Metric int

const (
	MetricLoadFactor Metric = iota
	MetricDepOnTime
	MetricArrOnTime
	MetricCancellation
	MetricDiversion
	MetricPassengers
	MetricSeats
	MetricTotalFlights
)

func (m Metric) String() string {
	switch m {
	case MetricLoadFactor:
		return "LOAD_FACTOR"
	case MetricDepOnTime:
		return "DEP_ONTIME_PCT"
	case MetricArrOnTime:
		return "ARR_ONTIME_PCT"
	case MetricCancellation:
		return "CANCELLATION_PCT"
	case MetricDiversion:
		return "DIVERSION_PCT"
	case MetricPassengers:
		return "PASSENGERS"
	case MetricSeats:
		return "SEATS"
	case MetricTotalFlights:
		return "TOTAL_FLIGHTS"
	default:
		return "UNKNOWN"
	}
}

// Of 取记录中对应列的值
func (m Metric) Of(r MergedRouteMonth) float64 {
	switch m {
	case MetricLoadFactor:
		return r.LoadFactor
	case MetricDepOnTime:
		return r.DepOnTimePct
	case MetricArrOnTime:
		return r.ArrOnTimePct
	case MetricCancellation:
		return r.CancellationPct
	case MetricDiversion:
		return r.DiversionPct
	case MetricPassengers:
		return r.Passengers
	case MetricSeats:
		return r.Seats
	case MetricTotalFlights:
		return float64(r.TotalFlights)
	}
	return math.NaN()
}

// Column 取整列
func (m Metric) Column(records []MergedRouteMonth) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = m.Of(r)
	}
	return out
}

// CorrelateMetrics 选取合并记录中的两列做相关性分析
func CorrelateMetrics(records []MergedRouteMonth, x, y Metric, method Method) (CorrelationResult, error) {
	if x < MetricLoadFactor || x > MetricTotalFlights || y < MetricLoadFactor || y > MetricTotalFlights {
		return CorrelationResult{}, invalidArgument("unknown metric pair %d/%d", int(x), int(y))
	}
	return Correlate(x.Column(records), y.Column(records), method)
}
