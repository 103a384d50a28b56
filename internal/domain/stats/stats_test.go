package stats

import (
	"testing"

	"catequesis/internal/domain/attendance"
	"catequesis/internal/domain/risk"
)

func rec(enrollmentID, date string, attended bool) attendance.Record {
	return attendance.Record{EnrollmentID: enrollmentID, SessionDate: date, Attended: attended}
}

// TestLearnerSummaryOf_Counts verifies totals, percentage and last attended date.
func TestLearnerSummaryOf_Counts(t *testing.T) {
	records := []attendance.Record{
		rec("e1", "2024-02-05", true),
		rec("e1", "2024-02-12", false),
		rec("e1", "2024-02-19", true),
	}
	s := LearnerSummaryOf("e1", records)

	if s.TotalSessions != 3 || s.AttendedCount != 2 || s.AbsentCount != 1 {
		t.Fatalf("counts = %d/%d/%d, want 3/2/1", s.TotalSessions, s.AttendedCount, s.AbsentCount)
	}
	if s.AttendedCount+s.AbsentCount != s.TotalSessions {
		t.Error("attended + absent must equal total")
	}
	if s.Percentage != 66.67 {
		t.Errorf("Percentage = %v, want 66.67", s.Percentage)
	}
	if s.LastAttendedDate == nil || *s.LastAttendedDate != "2024-02-19" {
		t.Errorf("LastAttendedDate = %v, want 2024-02-19", s.LastAttendedDate)
	}
	if s.Classification != risk.Deficient {
		t.Errorf("Classification = %q, want deficient", s.Classification)
	}
	if !s.AtRisk() {
		t.Error("66.67% should be at risk")
	}
}

// TestLearnerSummaryOf_InsufficientData keeps zero samples distinct from Deficient.
func TestLearnerSummaryOf_InsufficientData(t *testing.T) {
	s := LearnerSummaryOf("e1", nil)
	if s.Classification != risk.InsufficientData {
		t.Fatalf("Classification = %q, want insufficient_data", s.Classification)
	}
	if s.Percentage != 0 || s.LastAttendedDate != nil {
		t.Errorf("unexpected summary %+v", s)
	}
	if s.HasData() || s.AtRisk() {
		t.Error("zero-sample summary must not report data or risk")
	}
}

// TestLearnerSummaryOf_NeverAttended has a nil last attended date but a real classification.
func TestLearnerSummaryOf_NeverAttended(t *testing.T) {
	s := LearnerSummaryOf("e1", []attendance.Record{rec("e1", "2024-02-05", false)})
	if s.LastAttendedDate != nil {
		t.Errorf("LastAttendedDate = %v, want nil", *s.LastAttendedDate)
	}
	if s.Classification != risk.Deficient {
		t.Errorf("Classification = %q, want deficient", s.Classification)
	}
}

// TestGroupSnapshotByDate matches the three-learner scenario.
func TestGroupSnapshotByDate(t *testing.T) {
	records := []attendance.Record{
		rec("e1", "2024-02-19", true),
		rec("e2", "2024-02-19", false),
		rec("e3", "2024-02-19", true),
		rec("e1", "2024-02-12", false),
	}
	snap := GroupSnapshotByDate("g", "2024-02-19", records)
	if snap.Present != 2 || snap.Absent != 1 || snap.Total != 3 {
		t.Fatalf("snapshot = %+v, want 2/1/3", snap)
	}
	if snap.Percentage != 66.67 {
		t.Errorf("Percentage = %v, want 66.67", snap.Percentage)
	}

	empty := GroupSnapshotByDate("g", "2024-03-01", records)
	if empty.Total != 0 || empty.Percentage != 0 {
		t.Errorf("empty snapshot = %+v", empty)
	}
}

// TestGroupTrend_OrderedAndSparse verifies ascending order and no zero-fill.
func TestGroupTrend_OrderedAndSparse(t *testing.T) {
	records := []attendance.Record{
		rec("e1", "2024-02-19", true),
		rec("e2", "2024-02-19", true),
		rec("e1", "2024-02-05", false),
		rec("e2", "2024-02-05", true),
		rec("e1", "2024-01-15", true),
	}
	got := GroupTrend("g", attendance.DateRange{From: "2024-02-01", To: "2024-02-29"}, records)
	if len(got) != 2 {
		t.Fatalf("points = %d, want 2 (%+v)", len(got), got)
	}
	if got[0].Date != "2024-02-05" || got[0].Percentage != 50 {
		t.Errorf("point[0] = %+v", got[0])
	}
	if got[1].Date != "2024-02-19" || got[1].Percentage != 100 {
		t.Errorf("point[1] = %+v", got[1])
	}
}

// TestOverallStatistics_Trend covers up, down and stable series.
func TestOverallStatistics_Trend(t *testing.T) {
	up := []attendance.Record{
		rec("e1", "2024-02-05", false), rec("e2", "2024-02-05", true), // 50
		rec("e1", "2024-02-12", true), rec("e2", "2024-02-12", true), // 100
	}
	o := OverallStatistics(up)
	if o.Trend != TrendUp {
		t.Errorf("Trend = %q, want up", o.Trend)
	}
	if o.AveragePercentage != 75 || o.BestPercentage != 100 || o.WorstPercentage != 50 {
		t.Errorf("overall = %+v", o)
	}
	if o.Sessions != 2 {
		t.Errorf("Sessions = %d, want 2", o.Sessions)
	}

	down := OverallOf([]TrendPoint{{"2024-02-05", 90}, {"2024-02-12", 80}, {"2024-02-19", 70}})
	if down.Trend != TrendDown {
		t.Errorf("Trend = %q, want down", down.Trend)
	}
	if down.AveragePercentage != 80 {
		t.Errorf("AveragePercentage = %v, want 80", down.AveragePercentage)
	}

	flat := OverallOf([]TrendPoint{{"2024-02-05", 80}, {"2024-02-12", 60}, {"2024-02-19", 100}, {"2024-02-26", 40}})
	if flat.Trend != TrendStable {
		t.Errorf("Trend = %q, want stable on equal halves", flat.Trend)
	}
}

// TestOverallOf_Empty yields a stable zero result.
func TestOverallOf_Empty(t *testing.T) {
	o := OverallOf(nil)
	if o.Trend != TrendStable || o.Sessions != 0 || o.AveragePercentage != 0 {
		t.Errorf("empty overall = %+v", o)
	}
	single := OverallOf([]TrendPoint{{"2024-02-05", 42}})
	if single.Trend != TrendStable || single.BestPercentage != 42 || single.WorstPercentage != 42 {
		t.Errorf("single overall = %+v", single)
	}
}

// TestSummariesByEnrollment includes roster members without records.
func TestSummariesByEnrollment(t *testing.T) {
	records := []attendance.Record{rec("e1", "2024-02-05", true)}
	got := SummariesByEnrollment([]string{"e1", "e2"}, records)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got["e1"].Percentage != 100 {
		t.Errorf("e1 = %+v", got["e1"])
	}
	if got["e2"].Classification != risk.InsufficientData {
		t.Errorf("e2 = %+v", got["e2"])
	}
}
