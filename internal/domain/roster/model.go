package roster

import (
	"errors"
	"strings"
)

// Domain errors.
var (
	ErrEmptyID      = errors.New("id is required")
	ErrEmptyGroupID = errors.New("group_id is required")
	ErrEmptyName    = errors.New("name is required")
	ErrEmptyParish  = errors.New("parish_name is required")
)

// Enrollment is a learner's membership in one group for one period.
// Owned by the enrollment service; read-only for attendance.
type Enrollment struct {
	ID             string `json:"enrollment_id"`
	LearnerName    string `json:"learner_name"`
	LearnerSurname string `json:"learner_surname"`
	DocumentID     string `json:"document_id"`
	GroupID        string `json:"group_id"`
}

// Validate checks if the Enrollment has valid data.
// PRE: Enrollment struct is initialized
// POST: Returns error if validation fails, nil otherwise
func (e *Enrollment) Validate() error {
	if e.ID == "" {
		return ErrEmptyID
	}
	if e.GroupID == "" {
		return ErrEmptyGroupID
	}
	if strings.TrimSpace(e.LearnerName) == "" {
		return ErrEmptyName
	}
	return nil
}

// FullName returns "Name Surname".
func (e Enrollment) FullName() string {
	return strings.TrimSpace(e.LearnerName + " " + e.LearnerSurname)
}

// Group is a catechesis class: one level, one parish, one period.
type Group struct {
	ID         string `json:"group_id"`
	Name       string `json:"name"`
	ParishName string `json:"parish_name"`
	LevelName  string `json:"level_name"`
	Period     string `json:"period"`
}

// Validate checks if the Group has valid data.
// PRE: Group struct is initialized
// POST: Returns error if validation fails, nil otherwise
func (g *Group) Validate() error {
	if g.ID == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(g.ParishName) == "" {
		return ErrEmptyParish
	}
	return nil
}

// Label is the group's display name in reports, e.g. "Confirmación A (2024)".
func (g Group) Label() string {
	if g.Period == "" {
		return g.Name
	}
	return g.Name + " (" + g.Period + ")"
}

// IDs returns the enrollment ids of a roster, preserving order.
func IDs(enrollments []Enrollment) []string {
	ids := make([]string, len(enrollments))
	for i, e := range enrollments {
		ids[i] = e.ID
	}
	return ids
}
