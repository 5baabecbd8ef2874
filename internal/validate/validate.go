// Package validate holds the local field validators for the intake form.
// They are intentionally permissive pattern checks: the conversation layer
// consults an advisory LLM opinion first and uses these as the local
// override, so a validator saying yes always wins.
package validate

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	nameRE     = regexp.MustCompile(`^[A-Za-z][A-Za-z' -]+[A-Za-z]$`)
	emailRE    = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	positionRE = regexp.MustCompile(`^[A-Za-z ]+$`)
	locationRE = regexp.MustCompile(`^[A-Za-z ,-]+$`)
	skillSepRE = regexp.MustCompile(`[,;]`)
)

// Name reports whether s looks like a full name: letters, spaces,
// hyphens and apostrophes only, at least two space-separated tokens.
func Name(s string) bool {
	s = strings.TrimSpace(s)
	return nameRE.MatchString(s) && len(strings.Fields(s)) >= 2
}

// Email reports whether s matches local@domain.tld with a 2+ letter suffix.
func Email(s string) bool {
	return emailRE.MatchString(strings.TrimSpace(s))
}

// Phone reports whether s is a plausible phone number: no letters at
// all, and 7-15 digits once spaces and hyphens are stripped.
func Phone(s string) bool {
	s = strings.TrimSpace(s)
	if HasLetter(s) {
		return false
	}

	digits := strings.NewReplacer(" ", "", "-", "").Replace(s)
	if len(digits) < 7 || len(digits) > 15 {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}

// Experience reports whether s parses as a number of years in [0, 50].
func Experience(s string) bool {
	years, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return false
	}
	return years >= 0 && years <= 50
}

// Position reports whether s looks like a job title: letters and spaces
// only, at least two words, minimum 5 characters.
func Position(s string) bool {
	s = strings.TrimSpace(s)
	return positionRE.MatchString(s) && len(s) >= 5 && len(strings.Fields(s)) >= 2
}

// Location reports whether s looks like "City, Country": letters,
// spaces, commas and hyphens only, at least two words, minimum 5 characters.
func Location(s string) bool {
	s = strings.TrimSpace(s)
	return locationRE.MatchString(s) && len(s) >= 5 && len(strings.Fields(s)) >= 2
}

// HasLetter reports whether s contains any alphabetic rune.
func HasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// SplitSkills splits a free-text tech stack on commas and semicolons,
// trimming tokens and dropping empty ones.
func SplitSkills(s string) []string {
	parts := skillSepRE.Split(s, -1)
	skills := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			skills = append(skills, p)
		}
	}
	return skills
}

// ValidSkills reports whether the parsed skill list is usable: at least
// one skill and every token at least 2 runes long.
func ValidSkills(skills []string) bool {
	if len(skills) == 0 {
		return false
	}
	for _, skill := range skills {
		if utf8.RuneCountInString(skill) < 2 {
			return false
		}
	}
	return true
}
