package processor

import (
	"sort"
	"time"
)

// MergedRouteMonth 同时具备载客率与准点率的航线-月份记录，是相关性分析的基本单位
type MergedRouteMonth struct {
	Route      string
	Year       int
	Month      int
	Date       time.Time // 月份锚点，仅用于排序与展示
	Passengers float64
	Seats      float64
	LoadFactor float64

	TotalFlights    int
	TotalDepDelayed float64
	TotalArrDelayed float64
	TotalCancelled  float64
	TotalDiverted   float64
	DepOnTimePct    float64
	ArrOnTimePct    float64
	CancellationPct float64
	DiversionPct    float64
}

// MergeByRouteMonth 以 (航线, 年, 月) 内连接两侧的聚合结果
//
// 只在一侧出现的键被直接丢弃；任一侧出现重复键说明上游聚合有误，返回 DuplicateKeyError。
func MergeByRouteMonth(lf []LoadFactorAggregate, otp []OTPAggregate) ([]MergedRouteMonth, error) {
	lfIndex := make(map[RouteMonthKey]int, len(lf))
	for i, a := range lf {
		k := a.Key.RouteMonth()
		if _, dup := lfIndex[k]; dup {
			return nil, &DuplicateKeyError{Side: "load factor", Key: k}
		}
		lfIndex[k] = i
	}

	seen := make(map[RouteMonthKey]bool, len(otp))
	var out []MergedRouteMonth
	for _, o := range otp {
		k := o.Key.RouteMonth()
		if seen[k] {
			return nil, &DuplicateKeyError{Side: "on-time", Key: k}
		}
		seen[k] = true

		i, ok := lfIndex[k]
		if !ok {
			continue
		}
		l := lf[i]
		out = append(out, MergedRouteMonth{
			Route:           k.Route,
			Year:            k.Year,
			Month:           k.Month,
			Date:            MonthAnchor(k.Year, k.Month),
			Passengers:      l.Passengers,
			Seats:           l.Seats,
			LoadFactor:      l.LoadFactorPct,
			TotalFlights:    o.TotalFlights,
			TotalDepDelayed: o.TotalDepDelayed,
			TotalArrDelayed: o.TotalArrDelayed,
			TotalCancelled:  o.TotalCancelled,
			TotalDiverted:   o.TotalDiverted,
			DepOnTimePct:    o.DepOnTimePct,
			ArrOnTimePct:    o.ArrOnTimePct,
			CancellationPct: o.CancellationPct,
			DiversionPct:    o.DiversionPct,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		a := RouteMonthKey{out[i].Route, out[i].Year, out[i].Month}
		b := RouteMonthKey{out[j].Route, out[j].Year, out[j].Month}
		return a.less(b)
	})
	return out, nil
}
