package projections

import (
	"context"
	"sort"
	"sync/atomic"

	rosterStore "catequesis/internal/adapters/storage/roster"
	"catequesis/internal/domain/attendance"
	"catequesis/internal/domain/roster"
)

// --- Mock roster store ---

type mockRosterStore struct {
	groups      map[string]roster.Group
	enrollments []roster.Enrollment
}

func newMockRosterStore() *mockRosterStore {
	return &mockRosterStore{groups: make(map[string]roster.Group)}
}

func (m *mockRosterStore) addGroup(g roster.Group, enrollments ...roster.Enrollment) {
	m.groups[g.ID] = g
	for _, e := range enrollments {
		e.GroupID = g.ID
		m.enrollments = append(m.enrollments, e)
	}
}

// GetEnrollment returns a seeded enrollment or NOT_FOUND.
func (m *mockRosterStore) GetEnrollment(_ context.Context, id string) (roster.Enrollment, error) {
	for _, e := range m.enrollments {
		if e.ID == id {
			return e, nil
		}
	}
	return roster.Enrollment{}, &attendance.Error{Kind: attendance.KindNotFound, Op: "mock.get_enrollment"}
}

// GetGroup returns a seeded group or NOT_FOUND.
func (m *mockRosterStore) GetGroup(_ context.Context, id string) (roster.Group, error) {
	g, ok := m.groups[id]
	if !ok {
		return roster.Group{}, &attendance.Error{Kind: attendance.KindNotFound, Op: "mock.get_group"}
	}
	return g, nil
}

// ListEnrollments filters seeded enrollments by group and parish.
func (m *mockRosterStore) ListEnrollments(_ context.Context, filter rosterStore.ListFilter) ([]roster.Enrollment, error) {
	var out []roster.Enrollment
	for _, e := range m.enrollments {
		if filter.GroupID != "" && e.GroupID != filter.GroupID {
			continue
		}
		if filter.Parish != "" && m.groups[e.GroupID].ParishName != filter.Parish {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// ListGroups filters seeded groups by parish.
func (m *mockRosterStore) ListGroups(_ context.Context, parish string) ([]roster.Group, error) {
	var out []roster.Group
	for _, g := range m.groups {
		if parish == "" || g.ParishName == parish {
			out = append(out, g)
		}
	}
	return out, nil
}

// --- Mock attendance store ---

type mockAttendanceStore struct {
	roster  *mockRosterStore
	records []attendance.Record
	err     error
	calls   atomic.Int32
}

func (m *mockAttendanceStore) mark(date string, marks map[string]bool) {
	for id, attended := range marks {
		m.records = append(m.records, attendance.Record{ID: id + date, EnrollmentID: id, SessionDate: date, Attended: attended})
	}
}

// GetByEnrollment returns seeded records of one enrollment inside rng, by date.
func (m *mockAttendanceStore) GetByEnrollment(_ context.Context, enrollmentID string, rng attendance.DateRange) ([]attendance.Record, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	var out []attendance.Record
	for _, r := range m.records {
		if r.EnrollmentID == enrollmentID && rng.Contains(r.SessionDate) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SessionDate < out[j].SessionDate })
	return out, nil
}

// QueryByFilter resolves group and parish through the mock roster.
func (m *mockAttendanceStore) QueryByFilter(ctx context.Context, filter attendance.Filter) ([]attendance.Record, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	var out []attendance.Record
	for _, r := range m.records {
		e, err := m.roster.GetEnrollment(ctx, r.EnrollmentID)
		if err != nil {
			continue
		}
		if filter.GroupID != "" && e.GroupID != filter.GroupID {
			continue
		}
		if filter.Parish != "" && m.roster.groups[e.GroupID].ParishName != filter.Parish {
			continue
		}
		if filter.EnrollmentID != "" && r.EnrollmentID != filter.EnrollmentID {
			continue
		}
		if !filter.Range.Contains(r.SessionDate) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SessionDate < out[j].SessionDate })
	return out, nil
}

// fixture builds group G (San José) with E1..E3 and group H (Santa Ana) with F1.
func fixture() (*mockAttendanceStore, *mockRosterStore) {
	rs := newMockRosterStore()
	rs.addGroup(roster.Group{ID: "G", Name: "Confirmación A", ParishName: "San José", Period: "2024"},
		roster.Enrollment{ID: "E1", LearnerName: "Ana", LearnerSurname: "Vera", DocumentID: "1"},
		roster.Enrollment{ID: "E2", LearnerName: "Beto", LearnerSurname: "Paz", DocumentID: "2"},
		roster.Enrollment{ID: "E3", LearnerName: "Carla", LearnerSurname: "Ruiz", DocumentID: "3"},
	)
	rs.addGroup(roster.Group{ID: "H", Name: "Comunión B", ParishName: "Santa Ana", Period: "2024"},
		roster.Enrollment{ID: "F1", LearnerName: "Diego", LearnerSurname: "Soto", DocumentID: "4"},
	)
	return &mockAttendanceStore{roster: rs}, rs
}
