package algorithms

import (
	"math"

	"interview_backend/internal/models"
)

// Scoring weights; they sum to 100.
const (
	WeightRequiredSkills  = 50.0
	WeightPreferredSkills = 20.0
	WeightExperience      = 30.0
)

// CandidateProfile is the scoring view of a candidate: a flat skill list and
// years of experience. Category grouping plays no part in scoring.
type CandidateProfile struct {
	Name            string
	Skills          []string
	ExperienceYears float64
}

type JobProfile struct {
	Title              string
	RequiredSkills     []string
	PreferredSkills    []string
	MinExperienceYears float64
}

// Breakdown is the deterministic output of one scoring. Every score is rounded
// to two decimals, and Final is the rounded sum of the rounded components.
type Breakdown struct {
	RequiredSkillsScore  float64
	PreferredSkillsScore float64
	ExperienceScore      float64
	Final                float64

	MatchedRequired  []string
	MissingRequired  []string
	MatchedPreferred []string
}

func CandidateProfileFrom(c *models.Candidate) CandidateProfile {
	return CandidateProfile{
		Name:            c.FullName,
		Skills:          c.FlattenedSkills(),
		ExperienceYears: c.ExperienceYears(),
	}
}

func JobProfileFrom(j *models.Job) JobProfile {
	return JobProfile{
		Title:              j.Title,
		RequiredSkills:     j.GetRequiredSkills(),
		PreferredSkills:    j.GetPreferredSkills(),
		MinExperienceYears: j.MinExperienceYears(),
	}
}

// CalculateMatchScore scores a stored candidate against a stored job.
func CalculateMatchScore(candidate *models.Candidate, job *models.Job) Breakdown {
	return ScoreProfiles(CandidateProfileFrom(candidate), JobProfileFrom(job))
}

// ScoreProfiles is a total function: empty or missing inputs mean "no
// constraint" and never produce an error. Negative experience is taken literally.
func ScoreProfiles(candidate CandidateProfile, job JobProfile) Breakdown {
	candidateSkills := NormalizeSkills(candidate.Skills)
	required := NormalizeSkills(job.RequiredSkills)
	preferred := NormalizeSkills(job.PreferredSkills)

	matchedRequired := required.Intersect(candidateSkills)
	missingRequired := required.Difference(candidateSkills)
	matchedPreferred := preferred.Intersect(candidateSkills)

	// No stated requirements counts as fully satisfied
	reqScore := WeightRequiredSkills
	if required.Len() > 0 {
		reqScore = float64(matchedRequired.Len()) / float64(required.Len()) * WeightRequiredSkills
	}

	// No preferred skills means no credit is available
	prefScore := 0.0
	if preferred.Len() > 0 {
		prefScore = float64(matchedPreferred.Len()) / float64(preferred.Len()) * WeightPreferredSkills
	}

	expScore := experienceScore(candidate.ExperienceYears, job.MinExperienceYears)

	reqScore = round2(reqScore)
	prefScore = round2(prefScore)
	expScore = round2(expScore)

	return Breakdown{
		RequiredSkillsScore:  reqScore,
		PreferredSkillsScore: prefScore,
		ExperienceScore:      expScore,
		Final:                round2(reqScore + prefScore + expScore),
		MatchedRequired:      matchedRequired.Sorted(),
		MissingRequired:      missingRequired.Sorted(),
		MatchedPreferred:     matchedPreferred.Sorted(),
	}
}

func experienceScore(years, minYears float64) float64 {
	if minYears == 0 || years >= minYears {
		return WeightExperience
	}
	return years / minYears * WeightExperience
}

// round2 rounds to two decimals, ties to even: 3.125 becomes 3.12.
func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}
