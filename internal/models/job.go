package models

import (
	"time"

	"github.com/lib/pq"
)

// GradeLevelAll is the sentinel meaning a posting accepts every grade level.
const GradeLevelAll = "All Grades"

// JobPosting represents an open teaching position at a school. Postings are
// created by the school-facing flow; the pipeline only reads them.
type JobPosting struct {
	ID            string         `db:"id" json:"id"`
	SchoolID      string         `db:"school_id" json:"school_id"`
	SchoolName    string         `db:"school_name" json:"school_name"`
	Title         string         `db:"title" json:"title"`
	Subject       string         `db:"subject" json:"subject"`
	GradeLevel    string         `db:"grade_level" json:"grade_level"`
	ArchetypeTags pq.StringArray `db:"archetype_tags" json:"archetype_tags"`
	Location      string         `db:"location" json:"location"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// AcceptsAllGrades reports whether the posting waives the grade-level filter.
func (j *JobPosting) AcceptsAllGrades() bool {
	return j.GradeLevel == "" || j.GradeLevel == GradeLevelAll
}
