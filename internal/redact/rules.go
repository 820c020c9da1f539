// Package redact classifies conversation tokens into redaction categories and
// rebuilds the text with placeholders in place of personal information.
//
// The rule table is evaluated top to bottom and the first matching rule wins.
// Entity rules come first because the NER collaborator has sentence context
// the shape heuristics lack.
package redact

import (
	"regexp"
	"strings"

	"github.com/Veraticus/lumos/internal/model"
	mapset "github.com/deckarep/golang-set/v2"
)

// Rule maps a token predicate to a redaction category.
type Rule struct {
	Match    func(model.Token) bool
	Name     string
	Category model.RedactionCategory
}

// Shape patterns are anchored at the start of the token only, so a token that
// begins with a matching shape is redacted even when trailing text follows.
var (
	phoneDigitsRe    = regexp.MustCompile(`^\d{10}`)
	phoneFormattedRe = regexp.MustCompile(`^(?:\(\d{3}\)\s?\d{3}-\d{4}|\d{3}\.\d{3}\.\d{4}|\d{3}-\d{3}-\d{4})`)
	emailRe          = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}`)
	dobRe            = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}`)
	addressRe        = regexp.MustCompile(`^\d{1,5}\s\w+\s\w+`)
)

var genderTerms = mapset.NewSet[string]("male", "female", "non-binary")

func entityIs(tag model.EntityTag) func(model.Token) bool {
	return func(tok model.Token) bool {
		return tok.Entity == tag
	}
}

func textMatches(re *regexp.Regexp) func(model.Token) bool {
	return func(tok model.Token) bool {
		return re.MatchString(tok.Text)
	}
}

var rules = []Rule{
	{Name: "entity-person", Category: model.RedactPerson, Match: entityIs(model.EntityPerson)},
	{Name: "entity-org", Category: model.RedactOrg, Match: entityIs(model.EntityOrg)},
	{Name: "entity-gpe", Category: model.RedactGPE, Match: entityIs(model.EntityGPE)},
	{Name: "phone-digits", Category: model.RedactPhone, Match: textMatches(phoneDigitsRe)},
	{Name: "phone-formatted", Category: model.RedactPhone, Match: textMatches(phoneFormattedRe)},
	{Name: "email", Category: model.RedactEmail, Match: textMatches(emailRe)},
	{Name: "date-of-birth", Category: model.RedactDOB, Match: textMatches(dobRe)},
	{Name: "gender", Category: model.RedactGender, Match: func(tok model.Token) bool {
		return genderTerms.Contains(strings.ToLower(tok.Text))
	}},
	{Name: "street-address", Category: model.RedactAddress, Match: textMatches(addressRe)},
}

// Rules returns the ordered rule table.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Classify returns the redaction category for tok. It never fails: tokens no
// rule matches are RedactNone.
func Classify(tok model.Token) model.RedactionCategory {
	for _, r := range rules {
		if r.Match(tok) {
			return r.Category
		}
	}
	return model.RedactNone
}

// Redact replaces every classified token with its placeholder and joins the
// surface forms with single spaces, in token order.
func Redact(tokens []model.Token) (string, model.RedactionCounts) {
	counts := model.RedactionCounts{}
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		category := Classify(tok)
		if category == model.RedactNone {
			parts[i] = tok.Text
			continue
		}
		parts[i] = category.Placeholder()
		counts[category]++
	}
	return strings.Join(parts, " "), counts
}
