package algorithms

import (
	"sort"
	"strings"
)

// NormalizeSkill canonicalizes a raw skill token: trimmed and lowercased.
// Two tokens are the same skill iff their normalized forms are equal.
func NormalizeSkill(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// SkillSet is a set of normalized skills.
type SkillSet map[string]struct{}

func NormalizeSkills(raw []string) SkillSet {
	set := make(SkillSet, len(raw))
	for _, s := range raw {
		set[NormalizeSkill(s)] = struct{}{}
	}
	return set
}

func (s SkillSet) Len() int {
	return len(s)
}

func (s SkillSet) Contains(skill string) bool {
	_, ok := s[skill]
	return ok
}

// Intersect returns the skills present in both sets.
func (s SkillSet) Intersect(other SkillSet) SkillSet {
	out := SkillSet{}
	for skill := range s {
		if other.Contains(skill) {
			out[skill] = struct{}{}
		}
	}
	return out
}

// Difference returns the skills of s missing from other.
func (s SkillSet) Difference(other SkillSet) SkillSet {
	out := SkillSet{}
	for skill := range s {
		if !other.Contains(skill) {
			out[skill] = struct{}{}
		}
	}
	return out
}

// Sorted returns the skills in lexicographic order; never nil.
func (s SkillSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for skill := range s {
		out = append(out, skill)
	}
	sort.Strings(out)
	return out
}
