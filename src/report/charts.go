package report

import (
	"LoadFactorOTP/src/processor"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"
	"gonum.org/v1/gonum/stat"
)

// 每条航线一种颜色，超出后循环
var routeColors = [][3]int{
	{0x1f, 0x77, 0xb4},
	{0xff, 0x7f, 0x0e},
	{0x2c, 0xa0, 0x2c},
	{0xd6, 0x27, 0x28},
	{0x94, 0x67, 0xbd},
	{0x8c, 0x56, 0x4b},
	{0xe3, 0x77, 0xc2},
	{0x7f, 0x7f, 0x7f},
}

// plotGrid 把 (x, y) 数值映射到页面坐标，原点在左下角
type plotGrid struct {
	*gofpdf.Fpdf

	OffsetU, OffsetV float64 // 网格左上角的页面坐标(mm)
	W, H             float64

	MinX, MaxX, MinY, MaxY float64
	XStep, YStep           float64
	NoXTicks               bool
	XLabel, YLabel         string
}

func (g plotGrid) U(x float64) float64 {
	return g.OffsetU + (x-g.MinX)/(g.MaxX-g.MinX)*g.W
}

func (g plotGrid) V(y float64) float64 {
	return g.OffsetV + g.H - (y-g.MinY)/(g.MaxY-g.MinY)*g.H
}

func (g plotGrid) inside(x, y float64) bool {
	return x >= g.MinX && x <= g.MaxX && y >= g.MinY && y <= g.MaxY
}

// DrawGridlines 网格线、刻度与坐标轴标题
func (g plotGrid) DrawGridlines() {
	g.SetFont("Arial", "", 8)
	g.SetTextColor(0, 0, 0)
	g.SetLineWidth(0.1)
	g.SetDrawColor(0xe0, 0xe0, 0xe0)

	for x := g.MinX; x <= g.MaxX+1e-9; x += g.XStep {
		g.Line(g.U(x), g.V(g.MinY), g.U(x), g.V(g.MaxY))
		if g.NoXTicks {
			continue
		}
		g.SetXY(g.U(x)-5, g.V(g.MinY)+1)
		g.CellFormat(10, 4, fmt.Sprintf("%g", x), "", 0, "C", false, 0, "")
	}
	for y := g.MinY; y <= g.MaxY+1e-9; y += g.YStep {
		g.Line(g.U(g.MinX), g.V(y), g.U(g.MaxX), g.V(y))
		g.SetXY(g.U(g.MinX)-12, g.V(y)-2)
		g.CellFormat(11, 4, fmt.Sprintf("%g", y), "", 0, "R", false, 0, "")
	}

	g.SetDrawColor(0, 0, 0)
	g.SetLineWidth(0.3)
	g.Rect(g.OffsetU, g.OffsetV, g.W, g.H, "D")

	g.SetFont("Arial", "", 9)
	g.SetXY(g.OffsetU, g.OffsetV+g.H+7)
	g.CellFormat(g.W, 5, g.XLabel, "", 0, "C", false, 0, "")

	g.TransformBegin()
	g.TransformRotate(90, g.OffsetU-15, g.OffsetV+g.H/2)
	g.SetXY(g.OffsetU-15-g.H/2, g.OffsetV+g.H/2-3)
	g.CellFormat(g.H, 5, g.YLabel, "", 0, "C", false, 0, "")
	g.TransformEnd()
}

// Point 画散点，超出网格范围的点不画
func (g plotGrid) Point(x, y float64, rgb [3]int) {
	if math.IsNaN(x) || math.IsNaN(y) || !g.inside(x, y) {
		return
	}
	g.SetFillColor(rgb[0], rgb[1], rgb[2])
	g.Circle(g.U(x), g.V(y), 0.9, "F")
}

// FitLine 最小二乘拟合线，有效点少于 2 个或 x 无变化时不画
func (g plotGrid) FitLine(xs, ys []float64, rgb [3]int) bool {
	var x, y []float64
	for i := range xs {
		if !math.IsNaN(xs[i]) && !math.IsNaN(ys[i]) {
			x = append(x, xs[i])
			y = append(y, ys[i])
		}
	}
	if len(x) < 2 || stat.Variance(x, nil) == 0 {
		return false
	}
	alpha, beta := stat.LinearRegression(x, y, nil, false)

	// 在 x 范围内裁剪到网格
	y1, y2 := alpha+beta*g.MinX, alpha+beta*g.MaxX
	g.SetDrawColor(rgb[0], rgb[1], rgb[2])
	g.SetLineWidth(0.4)
	g.SetDashPattern([]float64{2, 1}, 0)
	g.Line(g.U(g.MinX), g.V(clamp(y1, g.MinY, g.MaxY)), g.U(g.MaxX), g.V(clamp(y2, g.MinY, g.MaxY)))
	g.SetDashPattern([]float64{}, 0)
	return true
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// axisRange 按 step 取整的数值范围，限制在 [0, 100]
func axisRange(values []float64, step float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	if math.IsInf(lo, 1) {
		return 0, 100
	}
	lo = math.Floor(lo/step) * step
	hi = math.Ceil(hi/step) * step
	if hi <= lo {
		lo, hi = lo-step, hi+step
	}
	return math.Max(0, lo), math.Min(100, hi)
}

func routeRows(merged []processor.MergedRouteMonth, route string) []processor.MergedRouteMonth {
	var out []processor.MergedRouteMonth
	for _, m := range merged {
		if m.Route == route {
			out = append(out, m)
		}
	}
	return out
}

func title(pdf *gofpdf.Fpdf, text, sub string) {
	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(15, 10)
	pdf.CellFormat(267, 8, text, "", 1, "L", false, 0, "")
	if sub != "" {
		pdf.SetFont("Arial", "", 9)
		pdf.SetX(15)
		pdf.CellFormat(267, 5, sub, "", 1, "L", false, 0, "")
	}
}

func corrText(r processor.CorrelationResult) string {
	return fmt.Sprintf("%s r = %s, p = %s, n = %d", r.Method, num(r.Coefficient, 3), num(r.PValue, 4), r.N)
}

// buildCharts 第一页为全部航线散点，第二页为载客率分段柱状图，之后每条航线一页
func buildCharts(a *processor.Analysis, names RouteNamer) *gofpdf.Fpdf {
	if names == nil {
		names = plainNames{}
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetAutoPageBreak(false, 0)

	lf := processor.MetricLoadFactor.Column(a.Merged)
	dep := processor.MetricDepOnTime.Column(a.Merged)
	arr := processor.MetricArrOnTime.Column(a.Merged)
	minX, maxX := axisRange(lf, 5)
	minY, maxY := axisRange(append(append([]float64{}, dep...), arr...), 5)

	// 全部航线
	pdf.AddPage()
	primary := a.Primary()
	title(pdf, tr("Load Factor vs Departure OTP: all top routes"), tr(corrText(primary.Dep)))
	g := plotGrid{Fpdf: pdf, OffsetU: 35, OffsetV: 30, W: 180, H: 150,
		MinX: minX, MaxX: maxX, MinY: minY, MaxY: maxY, XStep: 5, YStep: 5,
		XLabel: "Load factor (%)", YLabel: "Departure on-time (%)"}
	g.DrawGridlines()
	for i, route := range a.Routes() {
		rgb := routeColors[i%len(routeColors)]
		rows := routeRows(a.Merged, route)
		for _, m := range rows {
			g.Point(m.LoadFactor, m.DepOnTimePct, rgb)
		}
		pdf.SetFillColor(rgb[0], rgb[1], rgb[2])
		pdf.Circle(228, 34+float64(i)*6, 1.2, "F")
		pdf.SetFont("Arial", "", 8)
		pdf.SetXY(231, 32+float64(i)*6)
		pdf.CellFormat(55, 4, tr(names.RouteName(route)), "", 0, "L", false, 0, "")
	}
	g.FitLine(lf, dep, [3]int{0, 0, 0})

	// 载客率分段
	pdf.AddPage()
	title(pdf, "Departure OTP by load factor range", "")
	drawBins(pdf, a.Bins, minY, maxY)

	// 分航线
	for i, s := range a.Summaries {
		rgb := routeColors[i%len(routeColors)]
		rows := routeRows(a.Merged, s.Route)
		x := processor.MetricLoadFactor.Column(rows)

		pdf.AddPage()
		title(pdf, tr(fmt.Sprintf("Route %d: %s", i+1, names.RouteName(s.Route))),
			fmt.Sprintf("%d months, avg load factor %s, avg dep OTP %s", s.Months, pct(s.AvgLoadFactor, 1), pct(s.AvgDepOnTimePct, 1)))

		for k, panel := range []struct {
			metric processor.Metric
			label  string
			corr   processor.CorrelationResult
		}{
			{processor.MetricDepOnTime, "Departure on-time (%)", s.DepCorrelation},
			{processor.MetricArrOnTime, "Arrival on-time (%)", s.ArrCorrelation},
		} {
			y := panel.metric.Column(rows)
			pg := plotGrid{Fpdf: pdf, OffsetU: 30 + float64(k)*135, OffsetV: 35, W: 110, H: 130,
				MinX: minX, MaxX: maxX, MinY: minY, MaxY: maxY, XStep: 5, YStep: 5,
				XLabel: "Load factor (%)", YLabel: panel.label}
			pg.DrawGridlines()
			for j := range x {
				pg.Point(x[j], y[j], rgb)
			}
			pg.FitLine(x, y, rgb)
			pdf.SetFont("Arial", "", 8)
			pdf.SetTextColor(0, 0, 0)
			pdf.SetXY(pg.OffsetU, pg.OffsetV-6)
			pdf.CellFormat(pg.W, 4, tr(corrText(panel.corr)), "", 0, "L", false, 0, "")
		}
	}
	return pdf
}

func drawBins(pdf *gofpdf.Fpdf, bins []processor.BinSummary, minY, maxY float64) {
	if len(bins) == 0 {
		return
	}
	g := plotGrid{Fpdf: pdf, OffsetU: 35, OffsetV: 30, W: 220, H: 140,
		MinX: 0, MaxX: float64(len(bins)), MinY: minY, MaxY: maxY, XStep: 1, YStep: 5, NoXTicks: true,
		XLabel: "Load factor range", YLabel: "Departure on-time (%)"}
	g.DrawGridlines()

	slot := g.W / float64(len(bins))
	for i, b := range bins {
		left := g.OffsetU + float64(i)*slot
		pdf.SetFont("Arial", "", 8)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetXY(left, g.OffsetV+g.H+1)
		pdf.CellFormat(slot, 4, fmt.Sprintf("%s (n=%d)", b.Label, b.Months), "", 0, "C", false, 0, "")
		if math.IsNaN(b.AvgDepOnTimePct) {
			continue
		}
		top := g.V(clamp(b.AvgDepOnTimePct, minY, maxY))
		rgb := routeColors[0]
		pdf.SetFillColor(rgb[0], rgb[1], rgb[2])
		pdf.Rect(left+slot*0.2, top, slot*0.6, g.V(minY)-top, "F")
		pdf.SetXY(left, top-5)
		pdf.CellFormat(slot, 4, pct(b.AvgDepOnTimePct, 1), "", 0, "C", false, 0, "")
	}
}

// WriteCharts 生成载客率与准点率散点图 PDF
func WriteCharts(path string, a *processor.Analysis, names RouteNamer) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建输出目录失败: %w", err)
		}
	}
	pdf := buildCharts(a, names)
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("生成图表失败: %w", err)
	}
	return nil
}
