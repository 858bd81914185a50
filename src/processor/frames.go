package processor

import (
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

const dateLayout = "2006-01-02"

// LoadFactorFrame 将清洗后的载客率记录转回 DataFrame，列名沿用 cols
func LoadFactorFrame(records []LoadFactorRecord, cols LoadFactorColumns) dataframe.DataFrame {
	n := len(records)
	var (
		carrier, origin, dest  = make([]string, n), make([]string, n), make([]string, n)
		year, month            = make([]int, n), make([]int, n)
		sched, perf, seats, px = make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n)
		route, directed, date  = make([]string, n), make([]string, n), make([]string, n)
	)
	for i, r := range records {
		carrier[i], origin[i], dest[i] = r.Carrier, r.Origin, r.Dest
		year[i], month[i] = r.Year, r.Month
		sched[i], perf[i], seats[i], px[i] = r.DeparturesScheduled, r.DeparturesPerformed, r.Seats, r.Passengers
		route[i], directed[i], date[i] = r.Route, r.RouteDirected, r.Date.Format(dateLayout)
	}
	return dataframe.New(
		series.New(carrier, series.String, cols.Carrier),
		series.New(origin, series.String, cols.Origin),
		series.New(dest, series.String, cols.Dest),
		series.New(year, series.Int, cols.Year),
		series.New(month, series.Int, cols.Month),
		series.New(sched, series.Float, cols.DeparturesScheduled),
		series.New(perf, series.Float, cols.DeparturesPerformed),
		series.New(seats, series.Float, cols.Seats),
		series.New(px, series.Float, cols.Passengers),
		series.New(route, series.String, ColRoute),
		series.New(directed, series.String, ColRouteDirected),
		series.New(date, series.String, ColDate),
	)
}

// OTPFrame 将清洗后的准点率记录转回 DataFrame
func OTPFrame(records []OTPRecord, cols OTPColumns) dataframe.DataFrame {
	n := len(records)
	carrier, origin, dest := make([]string, n), make([]string, n), make([]string, n)
	year, month := make([]int, n), make([]int, n)
	route, directed, date := make([]string, n), make([]string, n), make([]string, n)
	delays := make([][]float64, 9)
	for k := range delays {
		delays[k] = make([]float64, n)
	}
	for i, r := range records {
		carrier[i], origin[i], dest[i] = r.Carrier, r.Origin, r.Dest
		year[i], month[i] = r.Year, r.Month
		for k, v := range []float64{r.DepDel15, r.ArrDel15, r.Cancelled, r.Diverted,
			r.CarrierDelay, r.WeatherDelay, r.NASDelay, r.SecurityDelay, r.LateAircraftDelay} {
			delays[k][i] = v
		}
		route[i], directed[i], date[i] = r.Route, r.RouteDirected, r.Date.Format(dateLayout)
	}

	list := []series.Series{
		series.New(carrier, series.String, cols.Carrier),
		series.New(origin, series.String, cols.Origin),
		series.New(dest, series.String, cols.Dest),
		series.New(year, series.Int, cols.Year),
		series.New(month, series.Int, cols.Month),
	}
	for k, name := range cols.delay() {
		list = append(list, series.New(delays[k], series.Float, name))
	}
	list = append(list,
		series.New(route, series.String, ColRoute),
		series.New(directed, series.String, ColRouteDirected),
		series.New(date, series.String, ColDate),
	)
	return dataframe.New(list...)
}

// MergedFrame 合并后的航线-月份表
func MergedFrame(records []MergedRouteMonth) dataframe.DataFrame {
	n := len(records)
	route, date := make([]string, n), make([]string, n)
	year, month, flights := make([]int, n), make([]int, n), make([]int, n)
	cols := map[string][]float64{}
	floatNames := []string{"PASSENGERS", "SEATS", "LOAD_FACTOR", "TOTAL_DEP_DELAYED", "TOTAL_ARR_DELAYED",
		"TOTAL_CANCELLED", "TOTAL_DIVERTED", "DEP_ONTIME_PCT", "ARR_ONTIME_PCT", "CANCELLATION_PCT", "DIVERSION_PCT"}
	for _, name := range floatNames {
		cols[name] = make([]float64, n)
	}
	for i, r := range records {
		route[i], year[i], month[i], date[i] = r.Route, r.Year, r.Month, r.Date.Format(dateLayout)
		flights[i] = r.TotalFlights
		for k, v := range []float64{r.Passengers, r.Seats, r.LoadFactor, r.TotalDepDelayed, r.TotalArrDelayed,
			r.TotalCancelled, r.TotalDiverted, r.DepOnTimePct, r.ArrOnTimePct, r.CancellationPct, r.DiversionPct} {
			cols[floatNames[k]][i] = v
		}
	}

	list := []series.Series{
		series.New(route, series.String, ColRoute),
		series.New(year, series.Int, "YEAR"),
		series.New(month, series.Int, "MONTH"),
	}
	for _, name := range floatNames[:3] {
		list = append(list, series.New(cols[name], series.Float, name))
	}
	list = append(list, series.New(flights, series.Int, "TOTAL_FLIGHTS"))
	for _, name := range floatNames[3:] {
		list = append(list, series.New(cols[name], series.Float, name))
	}
	list = append(list, series.New(date, series.String, ColDate))
	return dataframe.New(list...)
}

// SummaryFrame 航线汇总统计表
func SummaryFrame(summaries []RouteSummary) dataframe.DataFrame {
	n := len(summaries)
	route := make([]string, n)
	months, flights := make([]int, n), make([]int, n)
	names := []string{"avg_load_factor", "std_load_factor", "min_load_factor", "max_load_factor",
		"avg_dep_ontime_pct", "std_dep_ontime_pct", "avg_arr_ontime_pct", "std_arr_ontime_pct",
		"avg_cancellation_pct", "corr_lf_dep_ontime", "corr_lf_dep_pvalue", "corr_lf_arr_ontime", "corr_lf_arr_pvalue"}
	vals := make([][]float64, len(names))
	for k := range vals {
		vals[k] = make([]float64, n)
	}
	for i, s := range summaries {
		route[i], months[i], flights[i] = s.Route, s.Months, s.TotalFlights
		for k, v := range []float64{s.AvgLoadFactor, s.StdLoadFactor, s.MinLoadFactor, s.MaxLoadFactor,
			s.AvgDepOnTimePct, s.StdDepOnTimePct, s.AvgArrOnTimePct, s.StdArrOnTimePct,
			s.AvgCancellationPct, s.DepCorrelation.Coefficient, s.DepCorrelation.PValue,
			s.ArrCorrelation.Coefficient, s.ArrCorrelation.PValue} {
			vals[k][i] = v
		}
	}

	list := []series.Series{
		series.New(route, series.String, "route"),
		series.New(months, series.Int, "n_months"),
		series.New(flights, series.Int, "total_flights"),
	}
	for k, name := range names {
		list = append(list, series.New(vals[k], series.Float, name))
	}
	return dataframe.New(list...)
}
