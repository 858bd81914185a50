package report

import (
	"LoadFactorOTP/src/processor"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// 输出文件名
const (
	FileLoadFactorClean = "lf_clean.csv"
	FileOTPClean        = "otp_clean.csv"
	FileTopRoutes       = "top_routes.csv"
	FileLoadFactorTop   = "lf_top_routes.csv"
	FileMerged          = "merged_lf_otp.csv"
	FileSummary         = "route_summary_statistics.csv"
	FileBins            = "lf_bin_analysis.csv"
	FileCorrelations    = "overall_correlations.csv"
)

func columns(a *processor.Analysis) (processor.LoadFactorColumns, processor.OTPColumns) {
	lfCols, otpCols := a.Options.LoadFactorColumns, a.Options.OTPColumns
	if lfCols == (processor.LoadFactorColumns{}) {
		lfCols = processor.DefaultLoadFactorColumns()
	}
	if otpCols == (processor.OTPColumns{}) {
		otpCols = processor.DefaultOTPColumns()
	}
	return lfCols, otpCols
}

// RouteTotalsFrame 前 n 条航线的排名与运量合计
func RouteTotalsFrame(a *processor.Analysis) dataframe.DataFrame {
	totals := make(map[string]processor.RouteTotal, len(a.RouteTotals))
	for _, t := range a.RouteTotals {
		totals[t.Route] = t
	}

	n := len(a.TopRoutes)
	rank, route := make([]int, n), make([]string, n)
	metric, pax, seats, deps, lf := make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n)
	first, last := make([]string, n), make([]string, n)
	for i, r := range a.TopRoutes {
		t := totals[r.Route]
		rank[i], route[i], metric[i] = i+1, r.Route, r.Total
		pax[i], seats[i], deps[i], lf[i] = t.Passengers, t.Seats, t.Departures, t.AvgLoadFactor
		if !t.FirstDate.IsZero() {
			first[i], last[i] = t.FirstDate.Format("2006-01"), t.LastDate.Format("2006-01")
		}
	}
	return dataframe.New(
		series.New(rank, series.Int, "RANK"),
		series.New(route, series.String, processor.ColRoute),
		series.New(metric, series.Float, "RANKING_"+strings.ToUpper(a.Options.RankingMetric.String())),
		series.New(pax, series.Float, "TOTAL_PASSENGERS"),
		series.New(seats, series.Float, "TOTAL_SEATS"),
		series.New(deps, series.Float, "TOTAL_FLIGHTS"),
		series.New(first, series.String, "FIRST_MONTH"),
		series.New(last, series.String, "LAST_MONTH"),
		series.New(lf, series.Float, "AVG_LOAD_FACTOR"),
	)
}

// BinsFrame 载客率分段表
func BinsFrame(bins []processor.BinSummary) dataframe.DataFrame {
	n := len(bins)
	label := make([]string, n)
	lower, upper, dep, arr, canc := make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n)
	months, flights := make([]int, n), make([]int, n)
	for i, b := range bins {
		label[i], lower[i], upper[i] = b.Label, b.Lower, b.Upper
		months[i], flights[i] = b.Months, b.TotalFlights
		dep[i], arr[i], canc[i] = b.AvgDepOnTimePct, b.AvgArrOnTimePct, b.AvgCancellationPct
	}
	return dataframe.New(
		series.New(label, series.String, "LF_BIN"),
		series.New(lower, series.Float, "LOWER"),
		series.New(upper, series.Float, "UPPER"),
		series.New(months, series.Int, "N_MONTHS"),
		series.New(dep, series.Float, "DEP_ONTIME_PCT"),
		series.New(arr, series.Float, "ARR_ONTIME_PCT"),
		series.New(canc, series.Float, "CANCELLATION_PCT"),
		series.New(flights, series.Int, "TOTAL_FLIGHTS"),
	)
}

// CorrelationsFrame 整体相关性，每种方法两行(出港/到港)
func CorrelationsFrame(overall []processor.OverallCorrelation) dataframe.DataFrame {
	var method, pair, label, sig []string
	var coef, pval []float64
	var n []int
	for _, o := range overall {
		for _, row := range []struct {
			name string
			res  processor.CorrelationResult
		}{{"LOAD_FACTOR~DEP_ONTIME_PCT", o.Dep}, {"LOAD_FACTOR~ARR_ONTIME_PCT", o.Arr}} {
			in := processor.InterpretResult(row.res)
			method = append(method, o.Method.String())
			pair = append(pair, row.name)
			coef = append(coef, row.res.Coefficient)
			pval = append(pval, row.res.PValue)
			n = append(n, row.res.N)
			label = append(label, in.Label())
			sig = append(sig, in.Significance.Stars())
		}
	}
	return dataframe.New(
		series.New(method, series.String, "METHOD"),
		series.New(pair, series.String, "PAIR"),
		series.New(coef, series.Float, "COEFFICIENT"),
		series.New(pval, series.Float, "P_VALUE"),
		series.New(n, series.Int, "N"),
		series.New(label, series.String, "INTERPRETATION"),
		series.New(sig, series.String, "SIGNIFICANCE"),
	)
}

func writeCSV(path string, df dataframe.DataFrame) error {
	if df.Err != nil {
		return fmt.Errorf("生成 %s 失败: %w", filepath.Base(path), df.Err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建文件失败: %w", err)
	}
	if err := df.WriteCSV(f); err != nil {
		f.Close()
		return fmt.Errorf("写入 %s 失败: %w", path, err)
	}
	return f.Close()
}

// WriteTables 把清洗结果、排名、合并表和统计表写为 CSV，返回写出的文件路径
func WriteTables(dir string, a *processor.Analysis) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("创建输出目录失败: %w", err)
	}
	lfCols, otpCols := columns(a)

	tables := []struct {
		name string
		df   dataframe.DataFrame
	}{
		{FileLoadFactorClean, processor.LoadFactorFrame(a.LoadFactor, lfCols)},
		{FileOTPClean, processor.OTPFrame(a.OTP, otpCols)},
		{FileTopRoutes, RouteTotalsFrame(a)},
		{FileLoadFactorTop, processor.LoadFactorFrame(a.TopLoadFactor, lfCols)},
		{FileMerged, processor.MergedFrame(a.Merged)},
		{FileSummary, processor.SummaryFrame(a.Summaries)},
		{FileBins, BinsFrame(a.Bins)},
		{FileCorrelations, CorrelationsFrame(a.Overall)},
	}

	paths := make([]string, 0, len(tables))
	for _, t := range tables {
		path := filepath.Join(dir, t.name)
		if err := writeCSV(path, t.df); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
