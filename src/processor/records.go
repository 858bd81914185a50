package processor

import (
	"sort"
	"strings"
	"time"
)

// 派生列名，清洗后的表格会附带这些列
const (
	ColRoute         = "ROUTE"
	ColRouteDirected = "ROUTE_DIRECTED"
	ColDate          = "DATE"
)

// LoadFactorColumns 载客率（T-100 航段）原始表的列名映射
type LoadFactorColumns struct {
	Carrier             string
	Origin              string
	Dest                string
	Year                string
	Month               string
	DeparturesScheduled string
	DeparturesPerformed string
	Seats               string
	Passengers          string
}

// DefaultLoadFactorColumns 返回 BTS T-100 Segment 文件的默认列名
func DefaultLoadFactorColumns() LoadFactorColumns {
	return LoadFactorColumns{
		Carrier:             "CARRIER",
		Origin:              "ORIGIN",
		Dest:                "DEST",
		Year:                "YEAR",
		Month:               "MONTH",
		DeparturesScheduled: "DEPARTURES_SCHEDULED",
		DeparturesPerformed: "DEPARTURES_PERFORMED",
		Seats:               "SEATS",
		Passengers:          "PASSENGERS",
	}
}

func (c LoadFactorColumns) required() []string {
	return []string{c.Carrier, c.Origin, c.Dest, c.Year, c.Month,
		c.DeparturesScheduled, c.DeparturesPerformed, c.Seats, c.Passengers}
}

// OTPColumns 准点率（On-Time Performance）原始表的列名映射
type OTPColumns struct {
	Carrier           string
	Origin            string
	Dest              string
	Year              string
	Month             string
	DepDel15          string
	ArrDel15          string
	Cancelled         string
	Diverted          string
	CarrierDelay      string
	WeatherDelay      string
	NASDelay          string
	SecurityDelay     string
	LateAircraftDelay string
}

// DefaultOTPColumns 返回 BTS 准点率文件的默认列名
func DefaultOTPColumns() OTPColumns {
	return OTPColumns{
		Carrier:           "OP_UNIQUE_CARRIER",
		Origin:            "ORIGIN",
		Dest:              "DEST",
		Year:              "YEAR",
		Month:             "MONTH",
		DepDel15:          "DEP_DEL15",
		ArrDel15:          "ARR_DEL15",
		Cancelled:         "CANCELLED",
		Diverted:          "DIVERTED",
		CarrierDelay:      "CARRIER_DELAY",
		WeatherDelay:      "WEATHER_DELAY",
		NASDelay:          "NAS_DELAY",
		SecurityDelay:     "SECURITY_DELAY",
		LateAircraftDelay: "LATE_AIRCRAFT_DELAY",
	}
}

func (c OTPColumns) required() []string {
	return []string{c.Carrier, c.Origin, c.Dest, c.Year, c.Month}
}

// delay 列缺失时按 0 处理
func (c OTPColumns) delay() []string {
	return []string{c.DepDel15, c.ArrDel15, c.Cancelled, c.Diverted,
		c.CarrierDelay, c.WeatherDelay, c.NASDelay, c.SecurityDelay, c.LateAircraftDelay}
}

// LoadFactorRecord 清洗后的一条载客率记录
type LoadFactorRecord struct {
	Carrier             string
	Origin              string
	Dest                string
	Year                int
	Month               int
	DeparturesScheduled float64 // 无法解析时为 NaN
	DeparturesPerformed float64
	Seats               float64
	Passengers          float64
	Route               string
	RouteDirected       string
	Date                time.Time
}

// OTPRecord 清洗后的一条航班准点记录，标志位缺失时为 0
type OTPRecord struct {
	Carrier           string
	Origin            string
	Dest              string
	Year              int
	Month             int
	DepDel15          float64
	ArrDel15          float64
	Cancelled         float64
	Diverted          float64
	CarrierDelay      float64
	WeatherDelay      float64
	NASDelay          float64
	SecurityDelay     float64
	LateAircraftDelay float64
	Route             string
	RouteDirected     string
	Date              time.Time
}

// Route 返回与方向无关的航线标识，例如 ("LAS","DEN") -> "DEN-LAS"
func Route(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return strings.Join(pair, "-")
}

// DirectedRoute 保留方向的航线标识
func DirectedRoute(origin, dest string) string {
	return origin + "-" + dest
}

// MonthAnchor 月份桶的锚点日期（当月 1 日，UTC），并非真实航班日期
func MonthAnchor(year, month int) time.Time {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
}

// RouteMonthKey 合并键
type RouteMonthKey struct {
	Route string
	Year  int
	Month int
}

func (k RouteMonthKey) less(o RouteMonthKey) bool {
	if k.Route != o.Route {
		return k.Route < o.Route
	}
	if k.Year != o.Year {
		return k.Year < o.Year
	}
	return k.Month < o.Month
}
