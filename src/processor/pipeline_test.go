package processor

import (
	"math"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoRouteScenario 航线 A (DEN-LAS) 载客率 70%/90%，出港准点率 85%/80%；
// 航线 B (BWI-MDW) 载客率 75%/75%，出港准点率 80%/80%
func twoRouteScenario(t *testing.T) (dataframe.DataFrame, dataframe.DataFrame) {
	lf := frame(t, lfHeader,
		[]string{"WN", "LAS", "DEN", "2023", "1", "10", "10", "100", "70"},
		[]string{"WN", "DEN", "LAS", "2023", "2", "10", "10", "100", "90"},
		[]string{"WN", "MDW", "BWI", "2023", "1", "10", "10", "100", "75"},
		[]string{"WN", "BWI", "MDW", "2023", "2", "10", "10", "100", "75"},
		[]string{"WN", "OAK", "SAN", "2023", "1", "10", "10", "100", "20"},
		[]string{"AA", "LAS", "DEN", "2023", "1", "10", "10", "100", "100"},
	)

	var rows [][]string
	rows = append(rows, otpRows("LAS", "DEN", 2023, 1, 20, 3)...)
	rows = append(rows, otpRows("DEN", "LAS", 2023, 2, 20, 4)...)
	rows = append(rows, otpRows("MDW", "BWI", 2023, 1, 20, 4)...)
	rows = append(rows, otpRows("BWI", "MDW", 2023, 2, 20, 4)...)
	rows = append(rows, otpRows("OAK", "SAN", 2023, 1, 10, 0)...)
	otp := frame(t, otpHeader, rows...)
	return lf, otp
}

func scenarioOptions() Options {
	opts := DefaultOptions()
	opts.CarrierCode = "WN"
	opts.TopN = 2
	return opts
}

func TestAnalyzeTwoRouteScenario(t *testing.T) {
	lf, otp := twoRouteScenario(t)

	a, err := Analyze(lf, otp, scenarioOptions(), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"DEN-LAS", "BWI-MDW"}, a.Routes())
	assert.Len(t, a.LoadFactor, 5)
	assert.Len(t, a.TopLoadFactor, 4)
	assert.Len(t, a.TopOTP, 80)
	require.Len(t, a.Merged, 4)

	require.Len(t, a.Summaries, 2)
	routeA, routeB := a.Summaries[0], a.Summaries[1]

	assert.Equal(t, "DEN-LAS", routeA.Route)
	assert.Equal(t, -1.0, routeA.DepCorrelation.Coefficient)
	assert.Equal(t, 2, routeA.DepCorrelation.N)
	assert.Equal(t, "very strong negative", InterpretResult(routeA.DepCorrelation).Label())

	assert.Equal(t, "BWI-MDW", routeB.Route)
	assert.True(t, math.IsNaN(routeB.DepCorrelation.Coefficient))
	assert.Equal(t, "undefined", InterpretResult(routeB.DepCorrelation).Label())

	require.Len(t, a.Overall, len(Methods))
	assert.Equal(t, Pearson, a.Primary().Method)
	assert.Equal(t, 4, a.Primary().Dep.N)
	assert.Less(t, a.Primary().Dep.Coefficient, 0.0)

	assert.Equal(t, 80, a.DelayCauses.TotalFlights)
	assert.Equal(t, 15.0, a.DelayCauses.TotalDepDelayed)

	require.Len(t, a.Bins, 5)
	assert.Equal(t, 1, a.Bins[0].Months)
	assert.Equal(t, 2, a.Bins[1].Months)
	assert.Equal(t, 1, a.Bins[4].Months)

	require.Len(t, a.RouteTotals, 2)
	assert.Equal(t, 160.0, a.RouteTotals[0].Passengers)

	// 全网含 OAK-SAN: 1月 165/300，2月 165/200；前两条航线: 1月 145/200，2月 165/200
	assert.InDelta(t, 68.75, a.NetworkLoadFactor, 1e-9)
	assert.InDelta(t, 77.5, a.TopLoadFactorPct, 1e-9)
}

func TestAnalyzeDateRange(t *testing.T) {
	lf, otp := twoRouteScenario(t)
	opts := scenarioOptions()
	var err error
	opts.DateRange, err = NewMonthRange("2023-02", "2023-02")
	require.NoError(t, err)

	a, err := Analyze(lf, otp, opts, nil)
	require.NoError(t, err)
	assert.Len(t, a.Merged, 2)
	for _, s := range a.Summaries {
		assert.Equal(t, 1, s.Months)
		assert.False(t, s.DepCorrelation.Defined())
		assert.Equal(t, 0, s.DepCorrelation.N)
	}
}

func TestAnalyzeInvalidOptions(t *testing.T) {
	lf, otp := twoRouteScenario(t)

	cases := []struct {
		name   string
		mutate func(*Options)
	}{
		{"empty carrier", func(o *Options) { o.CarrierCode = "" }},
		{"zero top n", func(o *Options) { o.TopN = 0 }},
		{"unknown metric", func(o *Options) { o.RankingMetric = RankingMetric(9) }},
		{"unknown method", func(o *Options) { o.CorrelationMethod = Method(9) }},
		{"bad bins", func(o *Options) { o.LoadFactorBins = []float64{10, 5} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts := scenarioOptions()
			tc.mutate(&opts)
			_, err := Analyze(lf, otp, opts, nil)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestAnalyzeSchemaError(t *testing.T) {
	_, otp := twoRouteScenario(t)
	lf := frame(t, []string{"CARRIER", "ORIGIN"}, []string{"WN", "LAS"})

	_, err := Analyze(lf, otp, scenarioOptions(), nil)
	assert.ErrorIs(t, err, ErrSchema)
}

func TestAnalyzeKendallSummaries(t *testing.T) {
	lf, otp := twoRouteScenario(t)
	opts := scenarioOptions()
	opts.CorrelationMethod = Kendall

	a, err := Analyze(lf, otp, opts, nil)
	require.NoError(t, err)
	assert.Equal(t, Kendall, a.Summaries[0].DepCorrelation.Method)
	assert.Equal(t, -1.0, a.Summaries[0].DepCorrelation.Coefficient)
	assert.Equal(t, Kendall, a.Primary().Method)
}
