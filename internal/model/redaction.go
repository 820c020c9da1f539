package model

// RedactionCategory is the category assigned to a single token.
type RedactionCategory string

// Redaction categories.
const (
	RedactPerson  RedactionCategory = "PERSON"
	RedactOrg     RedactionCategory = "ORG"
	RedactGPE     RedactionCategory = "GPE"
	RedactPhone   RedactionCategory = "PHONE"
	RedactEmail   RedactionCategory = "EMAIL"
	RedactDOB     RedactionCategory = "DOB"
	RedactGender  RedactionCategory = "GENDER"
	RedactAddress RedactionCategory = "ADDRESS"
	RedactNone    RedactionCategory = "NONE"
)

// Placeholder returns the literal replacement text, e.g. "[PHONE]".
// RedactNone has no placeholder.
func (c RedactionCategory) Placeholder() string {
	if c == RedactNone || c == "" {
		return ""
	}
	return "[" + string(c) + "]"
}

// RedactionCounts tallies redacted tokens per category for one document.
type RedactionCounts map[RedactionCategory]int

// Total returns the number of redacted tokens.
func (rc RedactionCounts) Total() int {
	total := 0
	for _, n := range rc {
		total += n
	}
	return total
}
