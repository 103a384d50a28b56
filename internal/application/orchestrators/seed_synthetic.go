package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	attendanceStore "catequesis/internal/adapters/storage/attendance"
	"catequesis/internal/domain/attendance"
	"catequesis/internal/domain/roster"
)

// SyntheticSeedDeps holds the stores needed for development seeding.
type SyntheticSeedDeps struct {
	RosterStore     synRosterStore
	AttendanceStore synAttendanceStore
	Now             func() time.Time // optional: if nil, time.Now is used
}

type synRosterStore interface {
	ListGroups(ctx context.Context, parish string) ([]roster.Group, error)
	SaveGroup(ctx context.Context, g roster.Group) error
	SaveEnrollment(ctx context.Context, e roster.Enrollment) error
}

type synAttendanceStore interface {
	UpsertBatch(ctx context.Context, groupID string, date string, entries []attendance.Entry) (attendanceStore.BatchResult, error)
}

// SyntheticSeedResult counts what the seed created.
type SyntheticSeedResult struct {
	Groups      int
	Enrollments int
	Sessions    int
	Skipped     bool
}

// seedWeeks is how many weekly sessions of history each group gets.
const seedWeeks = 6

type groupSeed struct {
	Name   string
	Parish string
	Level  string
	// Attendance rate per learner in percent; drives the synthetic marks.
	Rates []int
}

var syntheticGroups = []groupSeed{
	{"Primera Comunión A", "San José", "Primera Comunión", []int{100, 95, 85, 75, 60, 40}},
	{"Confirmación A", "San José", "Confirmación", []int{90, 80, 70, 65}},
	{"Primera Comunión B", "Santa Ana", "Primera Comunión", []int{100, 100, 85, 50, 30}},
}

var syntheticLearners = [][2]string{
	{"María", "González"}, {"José", "Rodríguez"}, {"Lucía", "Fernández"},
	{"Mateo", "López"}, {"Valentina", "Martínez"}, {"Santiago", "Sánchez"},
	{"Camila", "Pérez"}, {"Sebastián", "Gómez"}, {"Isabella", "Díaz"},
	{"Nicolás", "Torres"}, {"Sofía", "Ramírez"}, {"Tomás", "Flores"},
	{"Emma", "Castro"}, {"Benjamín", "Romero"}, {"Martina", "Vargas"},
}

// ExecuteSeedSynthetic populates an empty database with parishes, groups,
// enrollments and several weeks of attendance. It skips when groups exist.
// PRE: database migrated
// POST: Every seeded group has seedWeeks sessions, the newest on the most recent Saturday
func ExecuteSeedSynthetic(ctx context.Context, deps SyntheticSeedDeps) (SyntheticSeedResult, error) {
	existing, err := deps.RosterStore.ListGroups(ctx, "")
	if err != nil {
		return SyntheticSeedResult{}, fmt.Errorf("seed_synthetic: list groups: %w", err)
	}
	if len(existing) > 0 {
		slog.Info("seed_event", "event", "synthetic_skip", "reason", "already_seeded")
		return SyntheticSeedResult{Skipped: true}, nil
	}
	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}
	period := fmt.Sprintf("%d", now().Year())
	dates := saturdaysBefore(now(), seedWeeks)

	var res SyntheticSeedResult
	learner := 0
	for _, gs := range syntheticGroups {
		g := roster.Group{ID: uuid.NewString(), Name: gs.Name, ParishName: gs.Parish, LevelName: gs.Level, Period: period}
		if err := deps.RosterStore.SaveGroup(ctx, g); err != nil {
			return res, fmt.Errorf("seed group %s: %w", gs.Name, err)
		}
		res.Groups++

		enrollments := make([]roster.Enrollment, len(gs.Rates))
		for i := range gs.Rates {
			name := syntheticLearners[learner%len(syntheticLearners)]
			learner++
			enrollments[i] = roster.Enrollment{
				ID:             uuid.NewString(),
				LearnerName:    name[0],
				LearnerSurname: name[1],
				DocumentID:     fmt.Sprintf("%08d", 10000000+learner*7919),
				GroupID:        g.ID,
			}
			if err := deps.RosterStore.SaveEnrollment(ctx, enrollments[i]); err != nil {
				return res, fmt.Errorf("seed enrollment: %w", err)
			}
			res.Enrollments++
		}

		for week, date := range dates {
			entries := make([]attendance.Entry, len(enrollments))
			for i, e := range enrollments {
				entries[i] = attendance.Entry{EnrollmentID: e.ID, Attended: attendsWeek(gs.Rates[i], week)}
			}
			if _, err := deps.AttendanceStore.UpsertBatch(ctx, g.ID, date, entries); err != nil {
				return res, fmt.Errorf("seed attendance %s %s: %w", gs.Name, date, err)
			}
			res.Sessions++
		}
	}

	slog.Info("seed_event", "event", "synthetic_seeded",
		"groups", res.Groups, "enrollments", res.Enrollments, "sessions", res.Sessions)
	return res, nil
}

// saturdaysBefore returns the n most recent Saturdays on or before now, ascending.
func saturdaysBefore(now time.Time, n int) []string {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	for day.Weekday() != time.Saturday {
		day = day.AddDate(0, 0, -1)
	}
	dates := make([]string, n)
	for i := n - 1; i >= 0; i-- {
		dates[i] = attendance.DateOf(day)
		day = day.AddDate(0, 0, -7)
	}
	return dates
}

// attendsWeek spreads absences evenly so a learner's rate over seedWeeks
// sessions approximates ratePct.
func attendsWeek(ratePct, week int) bool {
	return (week+1)*ratePct/100 > week*ratePct/100
}
