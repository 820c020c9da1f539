package model

import "strings"

// EntityTag is the named-entity label attached to a token by the NER collaborator.
type EntityTag string

// Entity tags understood by the redaction rules.
const (
	EntityNone   EntityTag = "NONE"
	EntityPerson EntityTag = "PERSON"
	EntityOrg    EntityTag = "ORG"
	EntityGPE    EntityTag = "GPE"
)

// ParseEntityTag normalizes a collaborator-supplied label. Unknown or empty
// labels map to EntityNone.
func ParseEntityTag(label string) EntityTag {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "PERSON", "PER":
		return EntityPerson
	case "ORG", "ORGANIZATION":
		return EntityOrg
	case "GPE":
		return EntityGPE
	default:
		return EntityNone
	}
}

// Token is a contiguous span of text in tokenizer order.
type Token struct {
	Text   string
	Entity EntityTag
}
