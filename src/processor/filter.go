package processor

import (
	"fmt"
	"time"
)

// MonthRange 闭区间的月份范围，零值端点表示不限
type MonthRange struct {
	Start time.Time
	End   time.Time
}

// ParseMonth 解析 "2006-01" 或 "2006-01-02"，返回当月锚点
func ParseMonth(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return MonthAnchor(t.Year(), int(t.Month())), nil
		}
	}
	return time.Time{}, invalidArgument("invalid month %q, want YYYY-MM", s)
}

// NewMonthRange 由字符串构造范围，空字符串表示该端不限
func NewMonthRange(start, end string) (MonthRange, error) {
	var r MonthRange
	var err error
	if start != "" {
		if r.Start, err = ParseMonth(start); err != nil {
			return r, err
		}
	}
	if end != "" {
		if r.End, err = ParseMonth(end); err != nil {
			return r, err
		}
	}
	if !r.Start.IsZero() && !r.End.IsZero() && r.End.Before(r.Start) {
		return r, invalidArgument("date range end %s before start %s", end, start)
	}
	return r, nil
}

// IsZero 未设置任何端点
func (r MonthRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// Contains 判断月份锚点是否落在范围内
func (r MonthRange) Contains(t time.Time) bool {
	t = MonthAnchor(t.Year(), int(t.Month()))
	if !r.Start.IsZero() && t.Before(MonthAnchor(r.Start.Year(), int(r.Start.Month()))) {
		return false
	}
	if !r.End.IsZero() && t.After(MonthAnchor(r.End.Year(), int(r.End.Month()))) {
		return false
	}
	return true
}

func (r MonthRange) String() string {
	format := func(t time.Time) string {
		if t.IsZero() {
			return "..."
		}
		return t.Format("2006-01")
	}
	return fmt.Sprintf("%s to %s", format(r.Start), format(r.End))
}

func filter[T any](in []T, keep func(T) bool) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// FilterLoadFactorByDate 按月份范围过滤载客率记录
func FilterLoadFactorByDate(records []LoadFactorRecord, r MonthRange) []LoadFactorRecord {
	return filter(records, func(x LoadFactorRecord) bool { return r.Contains(x.Date) })
}

// FilterOTPByDate 按月份范围过滤准点率记录
func FilterOTPByDate(records []OTPRecord, r MonthRange) []OTPRecord {
	return filter(records, func(x OTPRecord) bool { return r.Contains(x.Date) })
}

func routeSet(routes []string) map[string]bool {
	set := make(map[string]bool, len(routes))
	for _, r := range routes {
		set[r] = true
	}
	return set
}

// FilterLoadFactorRoutes 只保留指定航线
func FilterLoadFactorRoutes(records []LoadFactorRecord, routes []string) []LoadFactorRecord {
	set := routeSet(routes)
	return filter(records, func(x LoadFactorRecord) bool { return set[x.Route] })
}

// FilterOTPRoutes 只保留指定航线
func FilterOTPRoutes(records []OTPRecord, routes []string) []OTPRecord {
	set := routeSet(routes)
	return filter(records, func(x OTPRecord) bool { return set[x.Route] })
}
