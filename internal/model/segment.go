package model

// Segment is a contiguous character slice [Start, End) of an anonymized text.
// Offsets count runes, not bytes.
type Segment struct {
	Text  string `json:"text" yaml:"text"`
	Index int    `json:"index" yaml:"index"`
	Start int    `json:"start" yaml:"start"`
	End   int    `json:"end" yaml:"end"`
}

// Len returns the segment length in characters.
func (s Segment) Len() int {
	return s.End - s.Start
}
