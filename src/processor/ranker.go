package processor

import (
	"fmt"
	"sort"
	"strings"
)

// RankingMetric 航线排名所用的指标
type RankingMetric int

const (
	RankByPassengers RankingMetric = iota
	RankByDeparturesPerformed
	RankBySeats
)

func (m RankingMetric) String() string {
	switch m {
	case RankByPassengers:
		return "passengers"
	case RankByDeparturesPerformed:
		return "departures_performed"
	case RankBySeats:
		return "seats"
	default:
		return "unknown"
	}
}

// ParseRankingMetric 解析排名指标，大小写不敏感
func ParseRankingMetric(s string) (RankingMetric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "passengers":
		return RankByPassengers, nil
	case "departures_performed":
		return RankByDeparturesPerformed, nil
	case "seats":
		return RankBySeats, nil
	}
	return 0, invalidArgument("unknown ranking metric %q", s)
}

func (m RankingMetric) value(r LoadFactorRecord) (float64, error) {
	switch m {
	case RankByPassengers:
		return r.Passengers, nil
	case RankByDeparturesPerformed:
		return r.DeparturesPerformed, nil
	case RankBySeats:
		return r.Seats, nil
	}
	return 0, invalidArgument("unknown ranking metric %d", int(m))
}

// RouteRank 航线及其排名指标合计
type RouteRank struct {
	Route string
	Total float64
}

// RankRoutes 按航线汇总指标并排序：合计降序，相同时按航线标识升序
func RankRoutes(records []LoadFactorRecord, metric RankingMetric) ([]RouteRank, error) {
	totals := make(map[string]float64)
	for _, r := range records {
		v, err := metric.value(r)
		if err != nil {
			return nil, err
		}
		totals[r.Route] += v
	}

	ranks := make([]RouteRank, 0, len(totals))
	for route, total := range totals {
		ranks = append(ranks, RouteRank{Route: route, Total: total})
	}
	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].Total != ranks[j].Total {
			return ranks[i].Total > ranks[j].Total
		}
		return ranks[i].Route < ranks[j].Route
	})
	return ranks, nil
}

// TopRoutes 返回前 n 条航线（不足 n 条时返回全部）
func TopRoutes(records []LoadFactorRecord, n int, metric RankingMetric) ([]string, error) {
	ranks, err := TopRouteRanks(records, n, metric, nil)
	if err != nil {
		return nil, err
	}
	routes := make([]string, len(ranks))
	for i, r := range ranks {
		routes[i] = r.Route
	}
	return routes, nil
}

// TopRouteRanks 同 TopRoutes，但保留合计值供报告使用
func TopRouteRanks(records []LoadFactorRecord, n int, metric RankingMetric, logger Logger) ([]RouteRank, error) {
	if n <= 0 {
		return nil, invalidArgument("top_n must be positive, got %d", n)
	}
	ranks, err := RankRoutes(records, metric)
	if err != nil {
		return nil, err
	}
	if len(ranks) > n {
		ranks = ranks[:n]
	}

	logger = orNop(logger)
	logger.Info(fmt.Sprintf("按 %s 排名前 %d 的航线:", metric, n))
	for i, r := range ranks {
		logger.Info(fmt.Sprintf("%d. %s: %.0f", i+1, r.Route, r.Total))
	}
	return ranks, nil
}
