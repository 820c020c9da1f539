// Package model defines the core domain models used throughout the application.
package model

// Origin records where a conversation's text came from. It is metadata only
// and never influences redaction or sentiment decisions.
type Origin string

// Origin constants.
const (
	OriginTyped Origin = "typed"
	OriginAudio Origin = "audio"
)

// Conversation is one input document for the pipeline.
type Conversation struct {
	ID     string
	Source string // file name or other caller-supplied label
	Origin Origin
	Text   string
}
