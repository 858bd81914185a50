package processor

import (
	"fmt"
	"time"

	"github.com/go-gota/gota/dataframe"
)

// Options 单次分析的参数
type Options struct {
	CarrierCode       string
	TopN              int
	RankingMetric     RankingMetric
	CorrelationMethod Method
	DateRange         MonthRange
	LoadFactorBins    []float64
	LoadFactorColumns LoadFactorColumns
	OTPColumns        OTPColumns
}

// DefaultOptions 除航司代码外的默认参数
func DefaultOptions() Options {
	return Options{
		TopN:              5,
		RankingMetric:     RankByPassengers,
		CorrelationMethod: Pearson,
		LoadFactorBins:    append([]float64(nil), DefaultLoadFactorBins...),
		LoadFactorColumns: DefaultLoadFactorColumns(),
		OTPColumns:        DefaultOTPColumns(),
	}
}

// Validate 检查参数，错误均包装 ErrInvalidArgument
func (o Options) Validate() error {
	if o.CarrierCode == "" {
		return invalidArgument("carrier code must not be empty")
	}
	if o.TopN <= 0 {
		return invalidArgument("top_n must be positive, got %d", o.TopN)
	}
	if _, err := o.RankingMetric.value(LoadFactorRecord{}); err != nil {
		return err
	}
	if !o.CorrelationMethod.valid() {
		return invalidArgument("unknown correlation method %d", int(o.CorrelationMethod))
	}
	if !o.DateRange.Start.IsZero() && !o.DateRange.End.IsZero() && o.DateRange.End.Before(o.DateRange.Start) {
		return invalidArgument("date range end before start: %s", o.DateRange)
	}
	for i := 1; i < len(o.LoadFactorBins); i++ {
		if !(o.LoadFactorBins[i] > o.LoadFactorBins[i-1]) {
			return invalidArgument("bin edges must be strictly increasing: %v", o.LoadFactorBins)
		}
	}
	return nil
}

// OverallCorrelation 全部航线合并后的载客率与准点率相关性
type OverallCorrelation struct {
	Method Method
	Dep    CorrelationResult
	Arr    CorrelationResult
}

// Analysis 一次完整分析的全部产出
type Analysis struct {
	Options     Options
	GeneratedAt time.Time

	LoadFactor []LoadFactorRecord // 清洗并按日期过滤后的全部记录
	OTP        []OTPRecord

	TopRoutes     []RouteRank
	RouteTotals   []RouteTotal // 仅前 n 条航线
	TopLoadFactor []LoadFactorRecord
	TopOTP        []OTPRecord

	Merged            []MergedRouteMonth
	Summaries         []RouteSummary
	Overall           []OverallCorrelation // 每种方法一项，顺序同 Methods
	Bins              []BinSummary
	NetworkLoadFactor float64      // 航司全网各月载客率均值
	TopLoadFactorPct  float64      // 前 n 条航线合计的各月载客率均值
	DelayCauses       OTPAggregate // 前 n 条航线的延误原因合计
}

// Routes 前 n 条航线标识
func (a *Analysis) Routes() []string {
	routes := make([]string, len(a.TopRoutes))
	for i, r := range a.TopRoutes {
		routes[i] = r.Route
	}
	return routes
}

// Primary 配置方法对应的整体相关性
func (a *Analysis) Primary() OverallCorrelation {
	for _, o := range a.Overall {
		if o.Method == a.Options.CorrelationMethod {
			return o
		}
	}
	return OverallCorrelation{Method: a.Options.CorrelationMethod,
		Dep: undefined(a.Options.CorrelationMethod, 0), Arr: undefined(a.Options.CorrelationMethod, 0)}
}

// Analyze 清洗、排名、过滤、聚合、合并并计算相关性
func Analyze(lfRaw, otpRaw dataframe.DataFrame, opts Options, logger Logger) (*Analysis, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	logger = orNop(logger)

	cleaner := NewCleaner(opts.CarrierCode, logger)
	if opts.LoadFactorColumns != (LoadFactorColumns{}) {
		cleaner.LoadFactorColumns = opts.LoadFactorColumns
	}
	if opts.OTPColumns != (OTPColumns{}) {
		cleaner.OTPColumns = opts.OTPColumns
	}

	lf, err := cleaner.CleanLoadFactor(lfRaw)
	if err != nil {
		return nil, fmt.Errorf("清洗载客率数据失败: %w", err)
	}
	otp, err := cleaner.CleanOTP(otpRaw)
	if err != nil {
		return nil, fmt.Errorf("清洗准点率数据失败: %w", err)
	}
	if !opts.DateRange.IsZero() {
		lf = FilterLoadFactorByDate(lf, opts.DateRange)
		otp = FilterOTPByDate(otp, opts.DateRange)
		logger.Info(fmt.Sprintf("日期范围 %s 内: 载客率 %d 条, 准点率 %d 条", opts.DateRange, len(lf), len(otp)))
	}

	a := &Analysis{
		Options:           opts,
		GeneratedAt:       time.Now(),
		LoadFactor:        lf,
		OTP:               otp,
		NetworkLoadFactor: OverallLoadFactor(lf),
	}

	if a.TopRoutes, err = TopRouteRanks(lf, opts.TopN, opts.RankingMetric, logger); err != nil {
		return nil, err
	}
	routes := a.Routes()
	a.TopLoadFactor = FilterLoadFactorRoutes(lf, routes)
	a.TopOTP = FilterOTPRoutes(otp, routes)
	a.RouteTotals = RouteTotals(a.TopLoadFactor)
	a.TopLoadFactorPct = OverallLoadFactor(a.TopLoadFactor)

	lfAgg, err := AggregateLoadFactor(a.TopLoadFactor, RouteMonthFields)
	if err != nil {
		return nil, err
	}
	otpAgg, err := AggregateOTP(a.TopOTP, RouteMonthFields)
	if err != nil {
		return nil, err
	}
	if a.Merged, err = MergeByRouteMonth(lfAgg, otpAgg); err != nil {
		return nil, fmt.Errorf("合并数据失败: %w", err)
	}
	logger.Info(fmt.Sprintf("合并后的航线-月份记录: %d 条", len(a.Merged)))

	causes, err := AggregateOTP(a.TopOTP, nil)
	if err != nil {
		return nil, err
	}
	if len(causes) == 1 {
		a.DelayCauses = causes[0]
	}

	for _, m := range Methods {
		o := OverallCorrelation{Method: m}
		if o.Dep, err = CorrelateMetrics(a.Merged, MetricLoadFactor, MetricDepOnTime, m); err != nil {
			return nil, err
		}
		if o.Arr, err = CorrelateMetrics(a.Merged, MetricLoadFactor, MetricArrOnTime, m); err != nil {
			return nil, err
		}
		a.Overall = append(a.Overall, o)
		logger.Debug(fmt.Sprintf("整体相关性 %s: 出港 r=%.4f p=%.6f, 到港 r=%.4f p=%.6f (n=%d)",
			m, o.Dep.Coefficient, o.Dep.PValue, o.Arr.Coefficient, o.Arr.PValue, o.Dep.N))
	}

	if a.Summaries, err = RouteSummaries(a.Merged, routes, opts.CorrelationMethod); err != nil {
		return nil, err
	}

	edges := opts.LoadFactorBins
	if len(edges) == 0 {
		edges = DefaultLoadFactorBins
	}
	if a.Bins, err = LoadFactorBins(a.Merged, edges); err != nil {
		return nil, err
	}
	return a, nil
}
