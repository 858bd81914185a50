package processor

import (
	"strconv"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/require"
)

var (
	lfHeader  = []string{"CARRIER", "ORIGIN", "DEST", "YEAR", "MONTH", "DEPARTURES_SCHEDULED", "DEPARTURES_PERFORMED", "SEATS", "PASSENGERS"}
	otpHeader = []string{"OP_UNIQUE_CARRIER", "ORIGIN", "DEST", "YEAR", "MONTH", "DEP_DEL15", "ARR_DEL15", "CANCELLED", "DIVERTED"}
)

// frame 以全字符串列构造表格，与读取 CSV 的方式一致
func frame(t *testing.T, header []string, rows ...[]string) dataframe.DataFrame {
	t.Helper()
	records := append([][]string{header}, rows...)
	df := dataframe.LoadRecords(records,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	require.NoError(t, df.Err)
	return df
}

func lfRecord(origin, dest string, year, month int, seats, pax float64) LoadFactorRecord {
	return LoadFactorRecord{
		Carrier:             "WN",
		Origin:              origin,
		Dest:                dest,
		Year:                year,
		Month:               month,
		DeparturesScheduled: 10,
		DeparturesPerformed: 10,
		Seats:               seats,
		Passengers:          pax,
		Route:               Route(origin, dest),
		RouteDirected:       DirectedRoute(origin, dest),
		Date:                MonthAnchor(year, month),
	}
}

func otpRecord(origin, dest string, year, month int, depDelayed, arrDelayed bool) OTPRecord {
	flag := func(b bool) float64 {
		if b {
			return 1
		}
		return 0
	}
	return OTPRecord{
		Carrier:       "WN",
		Origin:        origin,
		Dest:          dest,
		Year:          year,
		Month:         month,
		DepDel15:      flag(depDelayed),
		ArrDel15:      flag(arrDelayed),
		Route:         Route(origin, dest),
		RouteDirected: DirectedRoute(origin, dest),
		Date:          MonthAnchor(year, month),
	}
}

// otpRows 生成 total 行航班，其中前 delayed 行出港延误
func otpRows(origin, dest string, year, month, total, delayed int) [][]string {
	rows := make([][]string, 0, total)
	for i := 0; i < total; i++ {
		dep := "0"
		if i < delayed {
			dep = "1"
		}
		rows = append(rows, []string{"WN", origin, dest, strconv.Itoa(year), strconv.Itoa(month), dep, dep, "0", "0"})
	}
	return rows
}
