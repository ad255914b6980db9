package models

import (
	"time"

	"github.com/lib/pq"
)

// CandidateProfile represents a teacher's hiring profile. The profile is
// owned by the teacher-facing editor; the pipeline only reads it.
type CandidateProfile struct {
	ID              string         `db:"id" json:"id"`
	UserID          string         `db:"user_id" json:"user_id"`
	FullName        string         `db:"full_name" json:"full_name"`
	Email           string         `db:"email" json:"email"`
	Subjects        pq.StringArray `db:"subjects" json:"subjects"`
	GradeLevels     pq.StringArray `db:"grade_levels" json:"grade_levels"`
	Archetype       *string        `db:"archetype" json:"archetype,omitempty"`
	Location        string         `db:"location" json:"location"`
	ExperienceBand  *string        `db:"experience_band" json:"experience_band,omitempty"`
	ResumeURL       *string        `db:"resume_url" json:"resume_url,omitempty"`
	PortfolioURL    *string        `db:"portfolio_url" json:"portfolio_url,omitempty"`
	ProfileComplete bool           `db:"profile_complete" json:"profile_complete"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// HasSubject reports whether the candidate teaches the given subject.
func (p *CandidateProfile) HasSubject(subject string) bool {
	for _, s := range p.Subjects {
		if s == subject {
			return true
		}
	}
	return false
}

// HasGradeLevel reports whether the candidate covers the given grade level.
func (p *CandidateProfile) HasGradeLevel(level string) bool {
	for _, g := range p.GradeLevels {
		if g == level {
			return true
		}
	}
	return false
}
