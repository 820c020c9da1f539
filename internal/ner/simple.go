package ner

import (
	"context"
	"strings"

	"github.com/Veraticus/lumos/internal/model"
)

// trailingPunct is split off the end of each word as its own token.
const trailingPunct = ".,;:!?"

// SimpleTokenizer splits on whitespace and never tags entities. It is meant
// for offline runs where only the pattern rules matter.
type SimpleTokenizer struct{}

// Tokenize implements service.Tokenizer.
func (SimpleTokenizer) Tokenize(ctx context.Context, text string) ([]model.Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var tokens []model.Token
	for _, word := range strings.Fields(text) {
		core := strings.TrimRight(word, trailingPunct)
		if core != "" {
			tokens = append(tokens, model.Token{Text: core, Entity: model.EntityNone})
		}
		for _, r := range word[len(core):] {
			tokens = append(tokens, model.Token{Text: string(r), Entity: model.EntityNone})
		}
	}
	return tokens, nil
}
