package processor

import (
	"math"
	"sort"
)

// GroupField 可用于分组的字段
type GroupField int

const (
	GroupByRoute GroupField = iota
	GroupByRouteDirected
	GroupByOrigin
	GroupByDest
	GroupByCarrier
	GroupByYear
	GroupByMonth
)

// RouteMonthFields 主流程使用的分组：航线、年、月
var RouteMonthFields = []GroupField{GroupByRoute, GroupByYear, GroupByMonth}

// GroupKey 分组键，未参与分组的字段保持零值
type GroupKey struct {
	Route         string
	RouteDirected string
	Origin        string
	Dest          string
	Carrier       string
	Year          int
	Month         int
}

// RouteMonth 提取合并键
func (k GroupKey) RouteMonth() RouteMonthKey {
	return RouteMonthKey{Route: k.Route, Year: k.Year, Month: k.Month}
}

func validateFields(fields []GroupField) error {
	for _, f := range fields {
		if f < GroupByRoute || f > GroupByMonth {
			return invalidArgument("unknown group field %d", int(f))
		}
	}
	return nil
}

type keySource struct {
	route, directed, origin, dest, carrier string
	year, month                            int
}

func (s keySource) key(fields []GroupField) GroupKey {
	var k GroupKey
	for _, f := range fields {
		switch f {
		case GroupByRoute:
			k.Route = s.route
		case GroupByRouteDirected:
			k.RouteDirected = s.directed
		case GroupByOrigin:
			k.Origin = s.origin
		case GroupByDest:
			k.Dest = s.dest
		case GroupByCarrier:
			k.Carrier = s.carrier
		case GroupByYear:
			k.Year = s.year
		case GroupByMonth:
			k.Month = s.month
		}
	}
	return k
}

// compareKeys 按分组字段顺序比较
func compareKeys(a, b GroupKey, fields []GroupField) int {
	str := func(x, y string) int {
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	num := func(x, y int) int {
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	for _, f := range fields {
		var c int
		switch f {
		case GroupByRoute:
			c = str(a.Route, b.Route)
		case GroupByRouteDirected:
			c = str(a.RouteDirected, b.RouteDirected)
		case GroupByOrigin:
			c = str(a.Origin, b.Origin)
		case GroupByDest:
			c = str(a.Dest, b.Dest)
		case GroupByCarrier:
			c = str(a.Carrier, b.Carrier)
		case GroupByYear:
			c = num(a.Year, b.Year)
		case GroupByMonth:
			c = num(a.Month, b.Month)
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// LoadFactorAggregate 一个分组的载客率聚合结果
type LoadFactorAggregate struct {
	Key           GroupKey
	Records       int
	Passengers    float64
	Seats         float64
	Departures    float64
	LoadFactorPct float64 // 座位合计为 0 时为 NaN
}

// OTPAggregate 一个分组的准点率聚合结果
type OTPAggregate struct {
	Key                    GroupKey
	TotalFlights           int
	TotalDepDelayed        float64
	TotalArrDelayed        float64
	TotalCancelled         float64
	TotalDiverted          float64
	TotalCarrierDelay      float64
	TotalWeatherDelay      float64
	TotalNASDelay          float64
	TotalSecurityDelay     float64
	TotalLateAircraftDelay float64
	DepOnTimePct           float64
	ArrOnTimePct           float64
	CancellationPct        float64
	DiversionPct           float64
}

// LoadFactorPct 旅客数 / 座位数 × 100，座位数为 0 时返回 NaN
func LoadFactorPct(passengers, seats float64) float64 {
	if seats == 0 {
		return math.NaN()
	}
	return passengers / seats * 100
}

// AggregateLoadFactor 按 fields 分组计算载客率；fields 为空时整体作为一个分组
func AggregateLoadFactor(records []LoadFactorRecord, fields []GroupField) ([]LoadFactorAggregate, error) {
	if err := validateFields(fields); err != nil {
		return nil, err
	}
	groups := make(map[GroupKey]*LoadFactorAggregate)
	for _, r := range records {
		k := keySource{r.Route, r.RouteDirected, r.Origin, r.Dest, r.Carrier, r.Year, r.Month}.key(fields)
		g, ok := groups[k]
		if !ok {
			g = &LoadFactorAggregate{Key: k}
			groups[k] = g
		}
		g.Records++
		g.Passengers += r.Passengers
		g.Seats += r.Seats
		g.Departures += r.DeparturesPerformed
	}

	out := make([]LoadFactorAggregate, 0, len(groups))
	for _, g := range groups {
		g.LoadFactorPct = LoadFactorPct(g.Passengers, g.Seats)
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return compareKeys(out[i].Key, out[j].Key, fields) < 0 })
	return out, nil
}

// AggregateOTP 按 fields 分组计算准点率指标
//
// 航班总数为分组内的行数；取消率、备降率与准点率共用同一分母，互不扣减。
func AggregateOTP(records []OTPRecord, fields []GroupField) ([]OTPAggregate, error) {
	if err := validateFields(fields); err != nil {
		return nil, err
	}
	groups := make(map[GroupKey]*OTPAggregate)
	for _, r := range records {
		k := keySource{r.Route, r.RouteDirected, r.Origin, r.Dest, r.Carrier, r.Year, r.Month}.key(fields)
		g, ok := groups[k]
		if !ok {
			g = &OTPAggregate{Key: k}
			groups[k] = g
		}
		g.TotalFlights++
		g.TotalDepDelayed += r.DepDel15
		g.TotalArrDelayed += r.ArrDel15
		g.TotalCancelled += r.Cancelled
		g.TotalDiverted += r.Diverted
		g.TotalCarrierDelay += r.CarrierDelay
		g.TotalWeatherDelay += r.WeatherDelay
		g.TotalNASDelay += r.NASDelay
		g.TotalSecurityDelay += r.SecurityDelay
		g.TotalLateAircraftDelay += r.LateAircraftDelay
	}

	out := make([]OTPAggregate, 0, len(groups))
	for _, g := range groups {
		g.finish()
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return compareKeys(out[i].Key, out[j].Key, fields) < 0 })
	return out, nil
}

func (g *OTPAggregate) finish() {
	g.DepOnTimePct = 100 - sharePct(g.TotalDepDelayed, g.TotalFlights)
	g.ArrOnTimePct = 100 - sharePct(g.TotalArrDelayed, g.TotalFlights)
	g.CancellationPct = sharePct(g.TotalCancelled, g.TotalFlights)
	g.DiversionPct = sharePct(g.TotalDiverted, g.TotalFlights)
}

// sharePct 占航班总数的百分比，总数为 0 时返回 NaN
func sharePct(count float64, total int) float64 {
	if total == 0 {
		return math.NaN()
	}
	return count / float64(total) * 100
}
