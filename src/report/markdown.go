package report

import (
	"LoadFactorOTP/src/processor"
	"LoadFactorOTP/src/utils"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// RouteNamer 把 "DEN-LAS" 展开为带城市名的标识，*config.DataConfig 满足该接口
type RouteNamer interface {
	RouteName(route string) string
}

type plainNames struct{}

func (plainNames) RouteName(route string) string { return route }

var printer = message.NewPrinter(language.English)

// count 千分位整数，NaN 输出 n/a
func count(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return printer.Sprintf("%d", int64(math.Round(v)))
}

func pct(v float64, prec int) string {
	s := utils.FormatFloat(v, prec)
	if s == "n/a" {
		return s
	}
	return s + "%"
}

func num(v float64, prec int) string { return utils.FormatFloat(v, prec) }

// period 合并数据覆盖的月份范围，如 "January 2023 - June 2024"
func period(merged []processor.MergedRouteMonth) string {
	if len(merged) == 0 {
		return "no overlapping months"
	}
	first, last := merged[0].Date, merged[0].Date
	for _, m := range merged[1:] {
		if m.Date.Before(first) {
			first = m.Date
		}
		if m.Date.After(last) {
			last = m.Date
		}
	}
	return first.Format("January 2006") + " - " + last.Format("January 2006")
}

func describeResult(r processor.CorrelationResult) (string, string) {
	in := processor.InterpretResult(r)
	return in.Label(), in.Significance.String()
}

// RenderMarkdown 生成文字报告，names 为 nil 时只显示航线代码
func RenderMarkdown(a *processor.Analysis, names RouteNamer) string {
	if names == nil {
		names = plainNames{}
	}
	var b strings.Builder
	primary := a.Primary()
	depLabel, depSig := describeResult(primary.Dep)
	arrLabel, arrSig := describeResult(primary.Arr)

	var passengers, departures float64
	for _, r := range a.TopLoadFactor {
		passengers += r.Passengers
		departures += r.DeparturesPerformed
	}
	var allPassengers float64
	for _, r := range a.LoadFactor {
		allPassengers += r.Passengers
	}
	flights := 0
	var depSum, arrSum float64
	for _, m := range a.Merged {
		flights += m.TotalFlights
		depSum += m.DepOnTimePct
		arrSum += m.ArrOnTimePct
	}
	avgDep, avgArr := math.NaN(), math.NaN()
	if n := float64(len(a.Merged)); n > 0 {
		avgDep, avgArr = depSum/n, arrSum/n
	}

	// ---- 标题与摘要
	fmt.Fprintf(&b, "# %s: Relationship Between Load Factor and On-Time Performance\n\n", a.Options.CarrierCode)
	fmt.Fprintf(&b, "## Analysis of Top %d Domestic Routes (%s)\n\n---\n\n", len(a.TopRoutes), period(a.Merged))

	b.WriteString("## Executive Summary\n\n")
	fmt.Fprintf(&b, "This analysis examines the relationship between %s load factor (capacity utilization) "+
		"and on-time performance (OTP) across its top %d domestic routes ranked by %s.\n\n",
		a.Options.CarrierCode, len(a.TopRoutes), a.Options.RankingMetric)

	b.WriteString("### Key Findings\n\n")
	fmt.Fprintf(&b, "1. **Overall Correlation**: a **%s correlation** (%s r = %s) between load factor and "+
		"departure on-time performance across all routes combined. This relationship is **%s**.\n",
		depLabel, primary.Method, num(primary.Dep.Coefficient, 3), depSig)
	b.WriteString("2. **Route-Specific Patterns**:\n")
	for _, s := range a.Summaries {
		status := "not significant"
		if s.DepCorrelation.PValue < 0.05 {
			status = "significant"
		}
		if !s.DepCorrelation.Defined() {
			status = "insufficient data"
		}
		fmt.Fprintf(&b, "   - **%s**: r = %s (%s)\n", s.Route, num(s.DepCorrelation.Coefficient, 3), status)
	}
	if low, high, ok := edgeBins(a.Bins); ok {
		trend := "OTP increases"
		if high.AvgDepOnTimePct < low.AvgDepOnTimePct {
			trend = "OTP decreases"
		}
		fmt.Fprintf(&b, "3. **Load Factor Impact**: months with load factor **%s** averaged %s departure OTP, "+
			"months with **%s** averaged %s; %s as load factors increase.\n",
			low.Label, pct(low.AvgDepOnTimePct, 1), high.Label, pct(high.AvgDepOnTimePct, 1), trend)
	}
	fmt.Fprintf(&b, "4. **Data Coverage**: %s route-month observations across %d routes, representing %s passengers and %s flights.\n\n---\n\n",
		count(float64(len(a.Merged))), len(a.TopRoutes), count(passengers), count(departures))

	// ---- 排名
	b.WriteString("## 1. Top Routes\n\n")
	b.WriteString("| Rank | Route | Cities | Total Passengers | Total Flights | Avg Load Factor |\n")
	b.WriteString("|------|-------|--------|------------------|---------------|-----------------|\n")
	totals := make(map[string]processor.RouteTotal, len(a.RouteTotals))
	for _, t := range a.RouteTotals {
		totals[t.Route] = t
	}
	for i, r := range a.TopRoutes {
		t := totals[r.Route]
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s |\n", i+1, r.Route, names.RouteName(r.Route),
			count(t.Passengers), count(t.Departures), pct(t.AvgLoadFactor, 1))
	}
	share := math.NaN()
	if allPassengers > 0 {
		share = passengers / allPassengers * 100
	}
	fmt.Fprintf(&b, "\nThese routes account for %s of all %s passengers in the period. "+
		"The carrier-wide monthly load factor averaged %s.\n\n---\n\n",
		pct(share, 1), a.Options.CarrierCode, pct(a.NetworkLoadFactor, 1))

	// ---- 整体相关性
	fmt.Fprintf(&b, "## 2. Overall Relationship: Load Factor vs OTP\n\n**All Routes Combined (N = %d route-months)**\n\n", len(a.Merged))
	b.WriteString("| Method | LF vs Dep OTP | p-value | LF vs Arr OTP | p-value | Interpretation (Dep) |\n")
	b.WriteString("|--------|---------------|---------|---------------|---------|----------------------|\n")
	for _, o := range a.Overall {
		label, _ := describeResult(o.Dep)
		stars := processor.InterpretResult(o.Dep).Significance.Stars()
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s (%s) |\n", o.Method,
			num(o.Dep.Coefficient, 3), num(o.Dep.PValue, 4), num(o.Arr.Coefficient, 3), num(o.Arr.PValue, 4), label, stars)
	}
	b.WriteString("\n**Significance levels:** * p<0.05, ** p<0.01, *** p<0.001\n\n")
	b.WriteString(overallNarrative(primary, depLabel, depSig, arrLabel, arrSig))
	b.WriteString("\n---\n\n")

	// ---- 分航线
	b.WriteString("## 3. Route-by-Route Analysis\n\n")
	for i, s := range a.Summaries {
		label, sig := describeResult(s.DepCorrelation)
		fmt.Fprintf(&b, "### Route %d: %s (%s)\n\n", i+1, s.Route, names.RouteName(s.Route))
		fmt.Fprintf(&b, "- Months analyzed: %d\n", s.Months)
		fmt.Fprintf(&b, "- Average Load Factor: %s (σ = %s, range %s to %s)\n",
			pct(s.AvgLoadFactor, 1), pct(s.StdLoadFactor, 1), pct(s.MinLoadFactor, 1), pct(s.MaxLoadFactor, 1))
		fmt.Fprintf(&b, "- Average Departure OTP: %s (σ = %s)\n", pct(s.AvgDepOnTimePct, 1), pct(s.StdDepOnTimePct, 1))
		fmt.Fprintf(&b, "- Average Arrival OTP: %s (σ = %s)\n", pct(s.AvgArrOnTimePct, 1), pct(s.StdArrOnTimePct, 1))
		fmt.Fprintf(&b, "- Average Cancellation Rate: %s\n", pct(s.AvgCancellationPct, 2))
		fmt.Fprintf(&b, "- Total Flights Analyzed: %s\n", count(float64(s.TotalFlights)))
		fmt.Fprintf(&b, "- Correlation (LF vs Dep OTP): %s (p = %s)\n", num(s.DepCorrelation.Coefficient, 3), num(s.DepCorrelation.PValue, 4))
		fmt.Fprintf(&b, "- Correlation (LF vs Arr OTP): %s (p = %s)\n\n", num(s.ArrCorrelation.Coefficient, 3), num(s.ArrCorrelation.PValue, 4))

		if !s.DepCorrelation.Defined() {
			b.WriteString("Too few months with varying load factor to estimate a correlation for this route.\n\n---\n\n")
			continue
		}
		fmt.Fprintf(&b, "This route shows a %s correlation between load factor and departure OTP, which is %s. ", label, sig)
		switch r := s.DepCorrelation.Coefficient; {
		case r < -0.2:
			b.WriteString("Operational pressure appears to rise as flights fill up on this route.\n\n")
		case r > 0.2:
			b.WriteString("Fuller flights coincide with better punctuality on this route.\n\n")
		default:
			b.WriteString("Load factor has minimal impact on OTP for this route.\n\n")
		}
		b.WriteString("---\n\n")
	}

	// ---- 分段
	b.WriteString("## 4. Load Factor Threshold Analysis\n\n")
	b.WriteString("| Load Factor Range | Months | Avg Dep OTP | Avg Arr OTP | Cancellation Rate | Flights |\n")
	b.WriteString("|-------------------|--------|-------------|-------------|-------------------|---------|\n")
	for _, bin := range a.Bins {
		fmt.Fprintf(&b, "| %s | %d | %s | %s | %s | %s |\n", bin.Label, bin.Months,
			pct(bin.AvgDepOnTimePct, 1), pct(bin.AvgArrOnTimePct, 1), pct(bin.AvgCancellationPct, 2), count(float64(bin.TotalFlights)))
	}
	b.WriteString("\n")
	b.WriteString(binNarrative(a.Bins))
	b.WriteString("\n---\n\n")

	// ---- 延误原因
	b.WriteString("## 5. Delay Causes (Top Routes)\n\n")
	b.WriteString(delayCauses(a.DelayCauses))
	b.WriteString("\n---\n\n")

	// ---- 结论
	b.WriteString("## 6. Conclusion\n\n")
	fmt.Fprintf(&b, "Across %s monthly observations the analysis finds a **%s correlation** (r = %s, %s) "+
		"between load factor and departure on-time performance. ",
		count(float64(len(a.Merged))), depLabel, num(primary.Dep.Coefficient, 3), depSig)
	switch r := primary.Dep.Coefficient; {
	case math.IsNaN(r):
		b.WriteString("There is not enough overlapping data to draw a conclusion.\n\n")
	case math.Abs(r) < 0.2:
		fmt.Fprintf(&b, "Load factor and punctuality are largely independent on these routes; the carrier can pursue "+
			"load factors around %s without a measurable OTP penalty (average departure OTP %s, arrival OTP %s).\n\n",
			pct(a.TopLoadFactorPct, 1), pct(avgDep, 1), pct(avgArr, 1))
	case r < 0:
		b.WriteString("Operational performance deteriorates as flights become fuller, which should be weighed in capacity planning.\n\n")
	default:
		b.WriteString("Operational performance improves as flights become fuller, likely reflecting favourable conditions in high-demand months.\n\n")
	}

	fmt.Fprintf(&b, "---\n\n**Report Generated:** %s  \n", generatedAt(a).Format("January 02, 2006"))
	fmt.Fprintf(&b, "**Analysis Period:** %s  \n", period(a.Merged))
	fmt.Fprintf(&b, "**Total Observations:** %s route-months  \n", count(float64(len(a.Merged))))
	fmt.Fprintf(&b, "**Total Flights:** %s  \n", count(float64(flights)))
	fmt.Fprintf(&b, "**Total Passengers:** %s\n", count(passengers))
	return b.String()
}

// edgeBins 第一个与最后一个有数据的分段
func edgeBins(bins []processor.BinSummary) (processor.BinSummary, processor.BinSummary, bool) {
	var filled []processor.BinSummary
	for _, b := range bins {
		if b.Months > 0 {
			filled = append(filled, b)
		}
	}
	if len(filled) < 2 {
		return processor.BinSummary{}, processor.BinSummary{}, false
	}
	return filled[0], filled[len(filled)-1], true
}

func overallNarrative(o processor.OverallCorrelation, depLabel, depSig, arrLabel, arrSig string) string {
	r := o.Dep.Coefficient
	switch {
	case math.IsNaN(r):
		return "There are too few route-months with varying values to estimate the overall relationship.\n"
	case r < -0.1:
		return fmt.Sprintf("The analysis reveals a **%s correlation**: as flights become fuller, on-time performance tends "+
			"to decrease. The relationship is %s. Arrival OTP shows a %s correlation (r = %s, %s).\n",
			depLabel, depSig, arrLabel, num(o.Arr.Coefficient, 3), arrSig)
	case r > 0.1:
		return fmt.Sprintf("The analysis reveals a **%s correlation**: fuller flights coincide with slightly better "+
			"punctuality. The relationship is %s. Arrival OTP shows a %s correlation (r = %s, %s).\n",
			depLabel, depSig, arrLabel, num(o.Arr.Coefficient, 3), arrSig)
	default:
		return fmt.Sprintf("The analysis reveals a **%s correlation** (r = %s), which is %s. Load factor and OTP are "+
			"largely independent; weather, air traffic control and airport constraints likely dominate punctuality.\n",
			depLabel, num(r, 3), depSig)
	}
}

func binNarrative(bins []processor.BinSummary) string {
	low, high, ok := edgeBins(bins)
	if !ok {
		return "Fewer than two load factor ranges contain data, so no threshold comparison is possible.\n"
	}
	diff := high.AvgDepOnTimePct - low.AvgDepOnTimePct
	switch {
	case math.Abs(diff) < 2:
		return fmt.Sprintf("OTP is consistent across load factor ranges, with only a %s percentage point difference "+
			"between %s and %s.\n", num(math.Abs(diff), 1), low.Label, high.Label)
	case diff < 0:
		return fmt.Sprintf("OTP degrades as load factors increase, with a %s percentage point decline from %s to %s.\n",
			num(math.Abs(diff), 1), low.Label, high.Label)
	default:
		return fmt.Sprintf("OTP improves by %s percentage points from %s to %s.\n", num(diff, 1), low.Label, high.Label)
	}
}

func delayCauses(g processor.OTPAggregate) string {
	causes := []struct {
		name    string
		minutes float64
	}{
		{"Carrier", g.TotalCarrierDelay},
		{"Weather", g.TotalWeatherDelay},
		{"NAS", g.TotalNASDelay},
		{"Security", g.TotalSecurityDelay},
		{"Late Aircraft", g.TotalLateAircraftDelay},
	}
	var total float64
	for _, c := range causes {
		total += c.minutes
	}
	if total == 0 {
		return fmt.Sprintf("No delay cause minutes were reported for the %s flights on the top routes.\n", count(float64(g.TotalFlights)))
	}

	var b strings.Builder
	b.WriteString("| Cause | Delay Minutes | Share |\n|-------|---------------|-------|\n")
	for _, c := range causes {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", c.name, count(c.minutes), pct(c.minutes/total*100, 1))
	}
	fmt.Fprintf(&b, "\nDeparture OTP %s, arrival OTP %s, cancellations %s over %s flights.\n",
		pct(g.DepOnTimePct, 1), pct(g.ArrOnTimePct, 1), pct(g.CancellationPct, 2), count(float64(g.TotalFlights)))
	return b.String()
}

// Headline 推送到群机器人的简短摘要
func Headline(a *processor.Analysis, names RouteNamer) string {
	if names == nil {
		names = plainNames{}
	}
	var b strings.Builder
	primary := a.Primary()
	depLabel, depSig := describeResult(primary.Dep)

	fmt.Fprintf(&b, "### %s 载客率与准点率分析\n\n", a.Options.CarrierCode)
	fmt.Fprintf(&b, "- 数据范围: %s\n", period(a.Merged))
	fmt.Fprintf(&b, "- 全网平均载客率: %s\n", pct(a.NetworkLoadFactor, 1))
	fmt.Fprintf(&b, "- 整体 %s r = %s (%s, %s)\n", primary.Method, num(primary.Dep.Coefficient, 3), depLabel, depSig)
	for i, s := range a.Summaries {
		fmt.Fprintf(&b, "%d. %s: 载客率 %s, 出港准点率 %s, r = %s\n", i+1, names.RouteName(s.Route),
			pct(s.AvgLoadFactor, 1), pct(s.AvgDepOnTimePct, 1), num(s.DepCorrelation.Coefficient, 3))
	}
	return b.String()
}

// WriteMarkdown 渲染并写入文件
func WriteMarkdown(path string, a *processor.Analysis, names RouteNamer) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建输出目录失败: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(RenderMarkdown(a, names)), 0644); err != nil {
		return fmt.Errorf("写入报告失败: %w", err)
	}
	return nil
}

// 生成时间为零值时用当前时间
func generatedAt(a *processor.Analysis) time.Time {
	if a.GeneratedAt.IsZero() {
		return time.Now()
	}
	return a.GeneratedAt
}
