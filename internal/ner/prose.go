package ner

import (
	"context"

	"github.com/Veraticus/lumos/internal/common"
	"github.com/Veraticus/lumos/internal/model"
	"github.com/jdkato/prose/v2"
)

// ProseTokenizer tokenizes and tags entities in-process with prose's
// averaged-perceptron models.
type ProseTokenizer struct{}

// NewProseTokenizer creates a ProseTokenizer.
func NewProseTokenizer() *ProseTokenizer {
	return &ProseTokenizer{}
}

// Tokenize implements service.Tokenizer.
func (p *ProseTokenizer) Tokenize(ctx context.Context, text string) ([]model.Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if text == "" {
		return nil, nil
	}

	doc, err := prose.NewDocument(text, prose.WithSegmentation(false))
	if err != nil {
		return nil, common.Unavailable("prose tokenizer", err)
	}

	proseTokens := doc.Tokens()
	tokens := make([]model.Token, 0, len(proseTokens))
	for _, tok := range proseTokens {
		tokens = append(tokens, model.Token{
			Text:   tok.Text,
			Entity: model.ParseEntityTag(stripIOB(tok.Label)),
		})
	}
	return tokens, nil
}
