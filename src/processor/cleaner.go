package processor

import (
	"LoadFactorOTP/src/utils"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Cleaner 按航司过滤原始记录，派生航线与月份字段并完成数值转换
type Cleaner struct {
	CarrierCode       string
	LoadFactorColumns LoadFactorColumns
	OTPColumns        OTPColumns
	logger            Logger
}

// NewCleaner 创建清洗器，航司代码由调用方提供，核心逻辑不设默认值
func NewCleaner(carrierCode string, logger Logger) *Cleaner {
	return &Cleaner{
		CarrierCode:       carrierCode,
		LoadFactorColumns: DefaultLoadFactorColumns(),
		OTPColumns:        DefaultOTPColumns(),
		logger:            orNop(logger),
	}
}

// CleanLoadFactor 清洗载客率数据
//
// 缺少执行架次、座位数或旅客数的行被丢弃，执行架次 <= 0 的行被丢弃。
// 输入表不会被修改。
func (c *Cleaner) CleanLoadFactor(df dataframe.DataFrame) ([]LoadFactorRecord, error) {
	const table = "load factor"
	cols := c.LoadFactorColumns
	if err := c.precheck(df, table, cols.required()); err != nil {
		return nil, err
	}
	c.logger.Info(fmt.Sprintf("清洗载客率数据... 原始记录数: %d", df.Nrow()))

	carrier := df.Col(cols.Carrier)
	origin, dest := df.Col(cols.Origin), df.Col(cols.Dest)
	year, month := df.Col(cols.Year), df.Col(cols.Month)
	scheduled := df.Col(cols.DeparturesScheduled)
	performed := df.Col(cols.DeparturesPerformed)
	seats, pax := df.Col(cols.Seats), df.Col(cols.Passengers)

	var (
		out      = make([]LoadFactorRecord, 0, df.Nrow())
		matched  int
		missing  int
		notFlown int
	)
	for i := 0; i < df.Nrow(); i++ {
		if cellString(carrier.Elem(i)) != c.CarrierCode {
			continue
		}
		matched++

		p, okP := cellNumber(performed.Elem(i))
		s, okS := cellNumber(seats.Elem(i))
		x, okX := cellNumber(pax.Elem(i))
		if !okP || !okS || !okX {
			missing++
			continue
		}
		if p <= 0 || s < 0 || x < 0 {
			notFlown++
			continue
		}

		o, d, err := endpoints(origin, dest, i, table)
		if err != nil {
			return nil, err
		}
		y, m, err := yearMonth(year, month, i, table, cols.Year, cols.Month)
		if err != nil {
			return nil, err
		}
		sched, _ := cellNumber(scheduled.Elem(i))

		out = append(out, LoadFactorRecord{
			Carrier:             c.CarrierCode,
			Origin:              o,
			Dest:                d,
			Year:                y,
			Month:               m,
			DeparturesScheduled: sched,
			DeparturesPerformed: p,
			Seats:               s,
			Passengers:          x,
			Route:               Route(o, d),
			RouteDirected:       DirectedRoute(o, d),
			Date:                MonthAnchor(y, m),
		})
	}

	c.logger.Info(fmt.Sprintf("过滤航司 %s 后: %d 条记录", c.CarrierCode, matched))
	c.logger.Info(fmt.Sprintf("移除关键字段缺失的记录 %d 条, 未执行航班 %d 条", missing, notFlown))
	c.logger.Info(fmt.Sprintf("最终载客率记录数: %d", len(out)))
	return out, nil
}

// CleanOTP 清洗准点率数据
//
// 延误、取消、备降标志缺失或无法解析时一律按 0 处理（即视为正常），不会因此丢弃任何行。
func (c *Cleaner) CleanOTP(df dataframe.DataFrame) ([]OTPRecord, error) {
	const table = "on-time"
	cols := c.OTPColumns
	if err := c.precheck(df, table, cols.required()); err != nil {
		return nil, err
	}
	c.logger.Info(fmt.Sprintf("清洗准点率数据... 原始记录数: %d", df.Nrow()))

	carrier := df.Col(cols.Carrier)
	origin, dest := df.Col(cols.Origin), df.Col(cols.Dest)
	year, month := df.Col(cols.Year), df.Col(cols.Month)

	// 不存在的延误列保持零值 series
	delayCols := cols.delay()
	delaySeries := make([]*series.Series, len(delayCols))
	for k, name := range delayCols {
		if utils.HasColumn(df, name) {
			s := df.Col(name)
			delaySeries[k] = &s
		} else {
			c.logger.Warning(fmt.Sprintf("准点率数据缺少列 %s, 按 0 处理", name))
		}
	}
	flag := func(k, i int) float64 {
		if delaySeries[k] == nil {
			return 0
		}
		v, ok := cellNumber(delaySeries[k].Elem(i))
		if !ok {
			return 0
		}
		return v
	}

	out := make([]OTPRecord, 0, df.Nrow())
	for i := 0; i < df.Nrow(); i++ {
		if cellString(carrier.Elem(i)) != c.CarrierCode {
			continue
		}
		o, d, err := endpoints(origin, dest, i, table)
		if err != nil {
			return nil, err
		}
		y, m, err := yearMonth(year, month, i, table, cols.Year, cols.Month)
		if err != nil {
			return nil, err
		}
		out = append(out, OTPRecord{
			Carrier:           c.CarrierCode,
			Origin:            o,
			Dest:              d,
			Year:              y,
			Month:             m,
			DepDel15:          flag(0, i),
			ArrDel15:          flag(1, i),
			Cancelled:         flag(2, i),
			Diverted:          flag(3, i),
			CarrierDelay:      flag(4, i),
			WeatherDelay:      flag(5, i),
			NASDelay:          flag(6, i),
			SecurityDelay:     flag(7, i),
			LateAircraftDelay: flag(8, i),
			Route:             Route(o, d),
			RouteDirected:     DirectedRoute(o, d),
			Date:              MonthAnchor(y, m),
		})
	}

	c.logger.Info(fmt.Sprintf("过滤航司 %s 后: %d 条记录", c.CarrierCode, len(out)))
	c.logger.Info(fmt.Sprintf("最终准点率记录数: %d", len(out)))
	return out, nil
}

func (c *Cleaner) precheck(df dataframe.DataFrame, table string, required []string) error {
	if c.CarrierCode == "" {
		return invalidArgument("carrier code must not be empty")
	}
	if df.Err != nil {
		return fmt.Errorf("%w: %s table: %v", ErrMalformedInput, table, df.Err)
	}
	for _, col := range required {
		if !utils.HasColumn(df, col) {
			return &SchemaError{Table: table, Column: col}
		}
	}
	return nil
}

func cellString(el series.Element) string {
	if el.IsNA() {
		return ""
	}
	return el.String()
}

// cellNumber 返回单元格数值，缺失或无法解析时返回 (NaN, false)
func cellNumber(el series.Element) (float64, bool) {
	if el.IsNA() {
		return math.NaN(), false
	}
	var f float64
	if el.Type() == series.String {
		v, err := strconv.ParseFloat(strings.TrimSpace(el.String()), 64)
		if err != nil {
			return math.NaN(), false
		}
		f = v
	} else {
		f = el.Float()
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return math.NaN(), false
	}
	return f, true
}

func endpoints(origin, dest series.Series, i int, table string) (string, string, error) {
	o, d := cellString(origin.Elem(i)), cellString(dest.Elem(i))
	if o == "" || d == "" {
		return "", "", fmt.Errorf("%w: %s row %d: missing airport code", ErrMalformedInput, table, i)
	}
	return o, d, nil
}

func yearMonth(year, month series.Series, i int, table, yearCol, monthCol string) (int, int, error) {
	y, ok := cellNumber(year.Elem(i))
	if !ok || y != math.Trunc(y) {
		return 0, 0, fmt.Errorf("%w: %s row %d: invalid %s %q", ErrMalformedInput, table, i, yearCol, year.Elem(i).String())
	}
	m, ok := cellNumber(month.Elem(i))
	if !ok || m != math.Trunc(m) || m < 1 || m > 12 {
		return 0, 0, fmt.Errorf("%w: %s row %d: invalid %s %q", ErrMalformedInput, table, i, monthCol, month.Elem(i).String())
	}
	return int(y), int(m), nil
}
