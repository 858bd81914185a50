package processor

import (
	"fmt"
	"math"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// RouteSummary 单条航线的汇总统计，标准差均为样本标准差（N-1）
type RouteSummary struct {
	Route              string
	Months             int
	TotalFlights       int
	AvgLoadFactor      float64
	StdLoadFactor      float64
	MinLoadFactor      float64
	MaxLoadFactor      float64
	AvgDepOnTimePct    float64
	StdDepOnTimePct    float64
	AvgArrOnTimePct    float64
	StdArrOnTimePct    float64
	AvgCancellationPct float64
	DepCorrelation     CorrelationResult // 载客率 vs 出港准点率
	ArrCorrelation     CorrelationResult // 载客率 vs 到港准点率
}

func dropNaN(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// describe 忽略 NaN 后的均值与样本标准差；少于 2 个值时标准差为 NaN
func describe(x []float64) (mean, std float64) {
	clean := dropNaN(x)
	switch len(clean) {
	case 0:
		return math.NaN(), math.NaN()
	case 1:
		return clean[0], math.NaN()
	}
	return stat.MeanStdDev(clean, nil)
}

func minMax(x []float64) (float64, float64) {
	clean := dropNaN(x)
	if len(clean) == 0 {
		return math.NaN(), math.NaN()
	}
	return floats.Min(clean), floats.Max(clean)
}

// RouteSummaryStats 计算指定航线的汇总统计，没有匹配行时返回 nil
func RouteSummaryStats(merged []MergedRouteMonth, route string, method Method) (*RouteSummary, error) {
	if !method.valid() {
		return nil, invalidArgument("unknown correlation method %d", int(method))
	}
	rows := make([]MergedRouteMonth, 0)
	for _, r := range merged {
		if r.Route == route {
			rows = append(rows, r)
		}
	}
	if len(rows) == 0 {
		return nil, nil
	}

	s := &RouteSummary{Route: route, Months: len(rows)}
	for _, r := range rows {
		s.TotalFlights += r.TotalFlights
	}
	lf := MetricLoadFactor.Column(rows)
	s.AvgLoadFactor, s.StdLoadFactor = describe(lf)
	s.MinLoadFactor, s.MaxLoadFactor = minMax(lf)
	s.AvgDepOnTimePct, s.StdDepOnTimePct = describe(MetricDepOnTime.Column(rows))
	s.AvgArrOnTimePct, s.StdArrOnTimePct = describe(MetricArrOnTime.Column(rows))
	s.AvgCancellationPct, _ = describe(MetricCancellation.Column(rows))

	var err error
	if s.DepCorrelation, err = CorrelateMetrics(rows, MetricLoadFactor, MetricDepOnTime, method); err != nil {
		return nil, err
	}
	if s.ArrCorrelation, err = CorrelateMetrics(rows, MetricLoadFactor, MetricArrOnTime, method); err != nil {
		return nil, err
	}
	return s, nil
}

// RouteSummaries 并行计算各航线汇总，输出顺序与 routes 一致，无数据的航线被跳过
func RouteSummaries(merged []MergedRouteMonth, routes []string, method Method) ([]RouteSummary, error) {
	results := make([]*RouteSummary, len(routes))

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, route := range routes {
		g.Go(func() error {
			s, err := RouteSummaryStats(merged, route, method)
			if err != nil {
				return fmt.Errorf("route %s: %w", route, err)
			}
			results[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]RouteSummary, 0, len(routes))
	for _, s := range results {
		if s != nil {
			out = append(out, *s)
		}
	}
	return out, nil
}

// RouteTotal 航线在整个期间的运量合计
type RouteTotal struct {
	Route         string
	Passengers    float64
	Seats         float64
	Departures    float64
	FirstDate     time.Time
	LastDate      time.Time
	AvgLoadFactor float64
}

// RouteTotals 按航线汇总旅客、座位、架次及起止月份，按旅客数降序
func RouteTotals(records []LoadFactorRecord) []RouteTotal {
	idx := make(map[string]*RouteTotal)
	for _, r := range records {
		t, ok := idx[r.Route]
		if !ok {
			t = &RouteTotal{Route: r.Route, FirstDate: r.Date, LastDate: r.Date}
			idx[r.Route] = t
		}
		t.Passengers += r.Passengers
		t.Seats += r.Seats
		t.Departures += r.DeparturesPerformed
		if r.Date.Before(t.FirstDate) {
			t.FirstDate = r.Date
		}
		if r.Date.After(t.LastDate) {
			t.LastDate = r.Date
		}
	}

	out := make([]RouteTotal, 0, len(idx))
	for _, t := range idx {
		t.AvgLoadFactor = LoadFactorPct(t.Passengers, t.Seats)
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Passengers != out[j].Passengers {
			return out[i].Passengers > out[j].Passengers
		}
		return out[i].Route < out[j].Route
	})
	return out
}

// OverallLoadFactor 各月整体载客率的平均值
func OverallLoadFactor(records []LoadFactorRecord) float64 {
	monthly, err := AggregateLoadFactor(records, []GroupField{GroupByYear, GroupByMonth})
	if err != nil {
		return math.NaN()
	}
	values := make([]float64, len(monthly))
	for i, m := range monthly {
		values[i] = m.LoadFactorPct
	}
	mean, _ := describe(values)
	return mean
}

// DefaultLoadFactorBins 载客率分段边界
var DefaultLoadFactorBins = []float64{0, 70, 75, 80, 85, 100}

// BinSummary 一个载客率分段内的准点表现
type BinSummary struct {
	Label              string
	Lower              float64
	Upper              float64
	Months             int
	AvgDepOnTimePct    float64
	AvgArrOnTimePct    float64
	AvgCancellationPct float64
	TotalFlights       int
}

// BinLabels 生成分段标签，如 "<70%", "70-75%", "85%+"
func BinLabels(edges []float64) []string {
	labels := make([]string, 0, len(edges)-1)
	for i := 0; i+1 < len(edges); i++ {
		switch {
		case i == 0:
			labels = append(labels, fmt.Sprintf("<%g%%", edges[1]))
		case i == len(edges)-2:
			labels = append(labels, fmt.Sprintf("%g%%+", edges[i]))
		default:
			labels = append(labels, fmt.Sprintf("%g-%g%%", edges[i], edges[i+1]))
		}
	}
	return labels
}

// LoadFactorBins 按载客率分段（左开右闭）统计准点率；空分段的均值为 NaN
func LoadFactorBins(merged []MergedRouteMonth, edges []float64) ([]BinSummary, error) {
	if len(edges) < 2 {
		return nil, invalidArgument("need at least two bin edges, got %d", len(edges))
	}
	for i := 1; i < len(edges); i++ {
		if !(edges[i] > edges[i-1]) {
			return nil, invalidArgument("bin edges must be strictly increasing: %v", edges)
		}
	}

	labels := BinLabels(edges)
	members := make([][]MergedRouteMonth, len(labels))
	for _, r := range merged {
		if math.IsNaN(r.LoadFactor) {
			continue
		}
		for i := 0; i+1 < len(edges); i++ {
			if r.LoadFactor > edges[i] && r.LoadFactor <= edges[i+1] {
				members[i] = append(members[i], r)
				break
			}
		}
	}

	out := make([]BinSummary, len(labels))
	for i, rows := range members {
		b := BinSummary{Label: labels[i], Lower: edges[i], Upper: edges[i+1], Months: len(rows)}
		b.AvgDepOnTimePct, _ = describe(MetricDepOnTime.Column(rows))
		b.AvgArrOnTimePct, _ = describe(MetricArrOnTime.Column(rows))
		b.AvgCancellationPct, _ = describe(MetricCancellation.Column(rows))
		for _, r := range rows {
			b.TotalFlights += r.TotalFlights
		}
		out[i] = b
	}
	return out, nil
}
