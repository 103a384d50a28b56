package projections

import (
	"context"

	"catequesis/internal/application/statscache"
	"catequesis/internal/domain/attendance"
	"catequesis/internal/domain/roster"
	"catequesis/internal/domain/stats"
)

// GetGroupStatisticsQuery carries input for the group statistics projection.
type GetGroupStatisticsQuery struct {
	GroupID string
	Range   attendance.DateRange // optional period
}

// GetGroupStatisticsResult is one coherent view of a group over a period:
// a per-date snapshot series plus the overall rollup of that series.
type GetGroupStatisticsResult struct {
	Group   roster.Group          `json:"group"`
	Series  []stats.GroupSnapshot `json:"snapshot_series"`
	Trend   []stats.TrendPoint    `json:"trend"`
	Overall stats.Overall         `json:"overall"`
}

// GetGroupStatisticsDeps holds dependencies for the group statistics projection.
type GetGroupStatisticsDeps struct {
	AttendanceStore AttendanceStore
	RosterStore     RosterStore
	Cache           *statscache.Cache[GetGroupStatisticsResult] // optional
}

// QueryGetGroupStatistics aggregates a group's records over the period.
// PRE: query.GroupID is non-empty
// POST: Series ascending by date with no zero-filled dates; every snapshot
// reflects either the whole of a registration batch or none of it
func QueryGetGroupStatistics(ctx context.Context, query GetGroupStatisticsQuery, deps GetGroupStatisticsDeps) (GetGroupStatisticsResult, error) {
	const op = "projections.GetGroupStatistics"
	if query.GroupID == "" {
		return GetGroupStatisticsResult{}, invalidFilter(op, attendance.ErrEmptyGroupID)
	}
	if err := query.Range.Validate(); err != nil {
		return GetGroupStatisticsResult{}, invalidFilter(op, err)
	}

	key := "group:" + query.GroupID + "|" + query.Range.From + "|" + query.Range.To
	var gen uint64
	if deps.Cache != nil {
		if cached, ok := deps.Cache.Get(key); ok {
			return cached, nil
		}
		gen = deps.Cache.Generation()
	}

	group, err := deps.RosterStore.GetGroup(ctx, query.GroupID)
	if err != nil {
		return GetGroupStatisticsResult{}, err
	}
	// A single query, so every (group, date) in the result comes from one snapshot.
	records, err := deps.AttendanceStore.QueryByFilter(ctx, attendance.Filter{GroupID: query.GroupID, Range: query.Range})
	if err != nil {
		return GetGroupStatisticsResult{}, err
	}

	series := stats.DailySnapshots(query.GroupID, records)
	trend := stats.GroupTrend(query.GroupID, query.Range, records)
	result := GetGroupStatisticsResult{
		Group:   group,
		Series:  series,
		Trend:   trend,
		Overall: stats.OverallOf(trend),
	}

	if deps.Cache != nil {
		tags := []string{statscache.GroupTag(query.GroupID)}
		for _, s := range series {
			tags = append(tags, statscache.DateTag(s.Date))
		}
		deps.Cache.Set(key, result, gen, tags...)
	}
	return result, nil
}
