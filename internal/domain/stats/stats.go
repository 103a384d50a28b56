// Package stats holds the read-only attendance rollups. Every function is pure
// over the records passed in.
package stats

import (
	"sort"

	"catequesis/internal/domain/attendance"
	"catequesis/internal/domain/risk"
)

// Trend is the direction of attendance between the earlier and later halves
// of a date series.
type Trend string

// Trend directions.
const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// LearnerSummary is the derived attendance rollup for one enrollment.
type LearnerSummary struct {
	EnrollmentID     string              `json:"enrollment_id"`
	TotalSessions    int                 `json:"total_sessions"`
	AttendedCount    int                 `json:"attended_count"`
	AbsentCount      int                 `json:"absent_count"`
	Percentage       float64             `json:"percentage"`
	LastAttendedDate *string             `json:"last_attended_date"`
	Classification   risk.Classification `json:"classification"`
}

// HasData reports whether the summary is backed by at least one session.
func (s LearnerSummary) HasData() bool {
	return s.TotalSessions > 0
}

// AtRisk reports whether the learner is below the at-risk threshold.
// Summaries without data are never at risk.
func (s LearnerSummary) AtRisk() bool {
	return s.HasData() && risk.IsAtRisk(s.Percentage)
}

// GroupSnapshot aggregates one group's records for one session date.
type GroupSnapshot struct {
	GroupID    string  `json:"group_id"`
	Date       string  `json:"date"`
	Present    int     `json:"present"`
	Absent     int     `json:"absent"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// TrendPoint is one (date, percentage) sample of a group trend.
type TrendPoint struct {
	Date       string  `json:"date"`
	Percentage float64 `json:"percentage"`
}

// Overall summarizes a date series of percentages.
type Overall struct {
	Sessions          int     `json:"sessions"`
	AveragePercentage float64 `json:"average_percentage"`
	BestPercentage    float64 `json:"best_percentage"`
	WorstPercentage   float64 `json:"worst_percentage"`
	Trend             Trend   `json:"trend"`
}

// LearnerSummaryOf computes the summary for the records of one enrollment.
// PRE: every record belongs to enrollmentID
// POST: AttendedCount + AbsentCount == TotalSessions; zero records yields
// Classification == risk.InsufficientData
func LearnerSummaryOf(enrollmentID string, records []attendance.Record) LearnerSummary {
	s := LearnerSummary{EnrollmentID: enrollmentID, TotalSessions: len(records)}

	var last string
	for _, r := range records {
		if !r.Attended {
			continue
		}
		s.AttendedCount++
		if r.SessionDate > last {
			last = r.SessionDate
		}
	}
	s.AbsentCount = s.TotalSessions - s.AttendedCount
	s.Percentage = risk.Percentage(s.AttendedCount, s.TotalSessions)
	if last != "" {
		s.LastAttendedDate = &last
	}

	if s.TotalSessions == 0 {
		s.Classification = risk.InsufficientData
	} else {
		s.Classification = risk.Classify(s.Percentage)
	}
	return s
}

// SummariesByEnrollment groups records by enrollment and summarizes each.
// Every id in enrollmentIDs gets a summary, including those without records.
func SummariesByEnrollment(enrollmentIDs []string, records []attendance.Record) map[string]LearnerSummary {
	byEnrollment := make(map[string][]attendance.Record, len(enrollmentIDs))
	for _, r := range records {
		byEnrollment[r.EnrollmentID] = append(byEnrollment[r.EnrollmentID], r)
	}
	out := make(map[string]LearnerSummary, len(enrollmentIDs))
	for _, id := range enrollmentIDs {
		out[id] = LearnerSummaryOf(id, byEnrollment[id])
	}
	return out
}

// GroupSnapshotByDate aggregates the records dated date.
// PRE: records belong to groupID
// POST: Present + Absent == Total
func GroupSnapshotByDate(groupID, date string, records []attendance.Record) GroupSnapshot {
	snap := GroupSnapshot{GroupID: groupID, Date: date}
	for _, r := range records {
		if r.SessionDate != date {
			continue
		}
		snap.Total++
		if r.Attended {
			snap.Present++
		}
	}
	snap.Absent = snap.Total - snap.Present
	snap.Percentage = risk.Percentage(snap.Present, snap.Total)
	return snap
}

// DailySnapshots returns one snapshot per distinct date in records, ascending.
// Dates without records do not appear.
func DailySnapshots(groupID string, records []attendance.Record) []GroupSnapshot {
	byDate := make(map[string]*GroupSnapshot)
	for _, r := range records {
		snap, ok := byDate[r.SessionDate]
		if !ok {
			snap = &GroupSnapshot{GroupID: groupID, Date: r.SessionDate}
			byDate[r.SessionDate] = snap
		}
		snap.Total++
		if r.Attended {
			snap.Present++
		}
	}

	out := make([]GroupSnapshot, 0, len(byDate))
	for _, snap := range byDate {
		snap.Absent = snap.Total - snap.Present
		snap.Percentage = risk.Percentage(snap.Present, snap.Total)
		out = append(out, *snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// GroupTrend returns (date, percentage) samples for records inside rng,
// ascending by date, one per distinct date present.
func GroupTrend(groupID string, rng attendance.DateRange, records []attendance.Record) []TrendPoint {
	var inRange []attendance.Record
	for _, r := range records {
		if rng.Contains(r.SessionDate) {
			inRange = append(inRange, r)
		}
	}
	snaps := DailySnapshots(groupID, inRange)
	points := make([]TrendPoint, len(snaps))
	for i, s := range snaps {
		points[i] = TrendPoint{Date: s.Date, Percentage: s.Percentage}
	}
	return points
}

// OverallStatistics summarizes the per-date percentage series of records.
func OverallStatistics(records []attendance.Record) Overall {
	snaps := DailySnapshots("", records)
	points := make([]TrendPoint, len(snaps))
	for i, s := range snaps {
		points[i] = TrendPoint{Date: s.Date, Percentage: s.Percentage}
	}
	return OverallOf(points)
}

// OverallOf summarizes an ascending date series.
// PRE: points are ordered by date ascending
// POST: an empty series yields zero percentages and TrendStable
func OverallOf(points []TrendPoint) Overall {
	o := Overall{Sessions: len(points), Trend: TrendStable}
	if len(points) == 0 {
		return o
	}

	o.BestPercentage = points[0].Percentage
	o.WorstPercentage = points[0].Percentage
	var sum float64
	for _, p := range points {
		sum += p.Percentage
		if p.Percentage > o.BestPercentage {
			o.BestPercentage = p.Percentage
		}
		if p.Percentage < o.WorstPercentage {
			o.WorstPercentage = p.Percentage
		}
	}
	o.AveragePercentage = risk.Round(sum / float64(len(points)))
	o.Trend = trendOf(points)
	return o
}

// trendOf compares the mean of the later half of the series against the
// earlier half. With an odd length the middle point belongs to the later half.
func trendOf(points []TrendPoint) Trend {
	if len(points) < 2 {
		return TrendStable
	}
	mid := len(points) / 2
	earlier := risk.Round(mean(points[:mid]))
	recent := risk.Round(mean(points[mid:]))
	switch {
	case recent > earlier:
		return TrendUp
	case recent < earlier:
		return TrendDown
	default:
		return TrendStable
	}
}

func mean(points []TrendPoint) float64 {
	var sum float64
	for _, p := range points {
		sum += p.Percentage
	}
	return sum / float64(len(points))
}
