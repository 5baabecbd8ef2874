package conversation

import (
	"fmt"

	"github.com/talentscout/intake/internal/validate"
)

// fieldSpec drives one scalar intake stage: how to validate the input,
// what to say on rejection, where to write the value and which stage
// and prompt come next. The table replaces per-stage branching so the
// transition order lives in one place.
type fieldSpec struct {
	// label names the field in the advisory validation prompt.
	label    string
	validate func(string) bool
	// hardReject refuses the input outright, before the advisory
	// opinion is even consulted. Only the phone stage uses it.
	hardReject func(string) bool
	corrective string
	next       Stage
	assign     func(*Record, string)
	followUp   func(name string) string
}

var fieldSpecs = map[Stage]fieldSpec{
	StageName: {
		label:      "name",
		validate:   validate.Name,
		corrective: "Please enter a valid full name (no numbers or special characters).",
		next:       StageEmail,
		assign:     func(r *Record, v string) { r.Name = v },
		followUp: func(name string) string {
			return personalize("Thanks, %s! What's your email address?", "Thanks! What's your email address?", name)
		},
	},
	StageEmail: {
		label:      "email",
		validate:   validate.Email,
		corrective: "Please enter a valid email address (e.g., user@email.com).",
		next:       StagePhone,
		assign:     func(r *Record, v string) { r.Email = v },
		followUp: func(name string) string {
			return personalize("Great, %s. And your phone number?", "And your phone number?", name)
		},
	},
	StagePhone: {
		label:      "phone number",
		validate:   validate.Phone,
		hardReject: validate.HasLetter,
		corrective: "Please enter a valid phone number (digits only, no letters, and a reasonable length).",
		next:       StageExperience,
		assign:     func(r *Record, v string) { r.Phone = v },
		followUp: func(name string) string {
			return personalize(
				"Thank you, %s. How many years of professional experience do you have?",
				"How many years of professional experience do you have?", name)
		},
	},
	StageExperience: {
		label:      "years of professional experience",
		validate:   validate.Experience,
		corrective: "Please enter a valid number of years of professional experience (e.g., 3, 5, 10).",
		next:       StagePosition,
		assign:     func(r *Record, v string) { r.Experience = v },
		followUp: func(name string) string {
			return personalize(
				"Thanks, %s. What position(s) are you interested in?",
				"What position(s) are you interested in?", name)
		},
	},
	StagePosition: {
		label:      "job position",
		validate:   validate.Position,
		corrective: "Please enter a valid job position or role (at least two words, only letters and spaces, minimum 5 characters, no symbols or numbers).",
		next:       StageLocation,
		assign:     func(r *Record, v string) { r.Position = v },
		followUp: func(name string) string {
			return personalize(
				"Thank you, %s. Where are you currently located? (City, Country)",
				"Where are you currently located? (City, Country)", name)
		},
	},
	StageLocation: {
		label:      "location",
		validate:   validate.Location,
		corrective: "Please enter a valid location (e.g., City, Country). Use only letters, spaces, commas, and hyphens.",
		next:       StageTechStack,
		assign:     func(r *Record, v string) { r.Location = v },
		followUp: func(name string) string {
			return personalize(
				"Thanks, %s. Please list your tech stack (programming languages, frameworks, databases, tools).",
				"Please list your tech stack (programming languages, frameworks, databases, tools).", name)
		},
	},
}

func personalize(named, generic, name string) string {
	if name == "" {
		return generic
	}
	return fmt.Sprintf(named, name)
}
