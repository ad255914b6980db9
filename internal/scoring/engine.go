// Package scoring computes compatibility between a candidate profile and a
// job posting. Scoring is deterministic, performs no I/O, and never fails:
// missing fields degrade to neutral sub-scores.
package scoring

import (
	"fmt"
	"math"

	"github.com/schoolhire/match-api/internal/models"
)

// Factor weights. They must sum to 1.
const (
	weightSubject    = 0.35
	weightGradeLevel = 0.25
	weightArchetype  = 0.20
	weightLocation   = 0.15
	weightExperience = 0.05
)

// Experience carries a fixed neutral sub-score. Experience bands are
// free-form ordinal buckets and no structured comparison is attempted; this
// is a documented limitation of the scorer.
const experienceNeutral = 80

// Score returns a compatibility score in [0,100] and human-readable reason
// fragments for each factor.
func Score(candidate models.CandidateProfile, job models.JobPosting) (int, []string) {
	reasons := make([]string, 0, 5)

	subject := 0.0
	if job.Subject != "" && candidate.HasSubject(job.Subject) {
		subject = 100
		reasons = append(reasons, fmt.Sprintf("Teaches %s", job.Subject))
	} else if job.Subject != "" {
		reasons = append(reasons, fmt.Sprintf("Does not list %s", job.Subject))
	}

	grade := 0.0
	if job.GradeLevel != "" && candidate.HasGradeLevel(job.GradeLevel) {
		grade = 100
		reasons = append(reasons, fmt.Sprintf("Covers grades %s", job.GradeLevel))
	} else if job.GradeLevel != "" {
		reasons = append(reasons, fmt.Sprintf("Does not cover grades %s", job.GradeLevel))
	}

	archetype := archetypeScore(candidate, job, &reasons)
	location := locationScore(candidate, job, &reasons)

	total := subject*weightSubject +
		grade*weightGradeLevel +
		archetype*weightArchetype +
		location*weightLocation +
		experienceNeutral*weightExperience

	return clamp(int(math.Round(total))), reasons
}

// archetypeScore is 100 on an explicit tag hit, 50 when the posting declares
// no tags or the candidate has no archetype (neutral), and 50 on a miss
// (soft penalty rather than exclusion).
func archetypeScore(candidate models.CandidateProfile, job models.JobPosting, reasons *[]string) float64 {
	if len(job.ArchetypeTags) == 0 || candidate.Archetype == nil || *candidate.Archetype == "" {
		return 50
	}
	for _, tag := range job.ArchetypeTags {
		if tag == *candidate.Archetype {
			*reasons = append(*reasons, fmt.Sprintf("%s archetype fits the school", *candidate.Archetype))
			return 100
		}
	}
	return 50
}

// locationScore is lenient: location strings are unstructured free text, so
// anything short of exact equality takes a soft penalty, never a hard fail.
func locationScore(candidate models.CandidateProfile, job models.JobPosting, reasons *[]string) float64 {
	if candidate.Location != "" && candidate.Location == job.Location {
		*reasons = append(*reasons, "Located in the school's area")
		return 100
	}
	return 70
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
