package ner

import (
	"context"
	"fmt"

	"github.com/Veraticus/lumos/internal/googleauth"
	"github.com/Veraticus/lumos/internal/model"
	"google.golang.org/api/language/v1"
)

// GoogleTokenizer uses the Natural Language API's annotateText call for both
// syntax tokens and entity mentions.
type GoogleTokenizer struct {
	service *language.Service
}

// NewGoogleTokenizer creates a GoogleTokenizer authenticated with cfg.
func NewGoogleTokenizer(ctx context.Context, cfg googleauth.Config) (*GoogleTokenizer, error) {
	svc, err := googleauth.NewService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("google tokenizer: %w", err)
	}
	return &GoogleTokenizer{service: svc}, nil
}

// Tokenize implements service.Tokenizer.
func (g *GoogleTokenizer) Tokenize(ctx context.Context, text string) ([]model.Token, error) {
	req := &language.AnnotateTextRequest{
		Document: &language.Document{
			Content: text,
			Type:    "PLAIN_TEXT",
		},
		EncodingType: "UTF8",
		Features: &language.AnnotateTextRequestFeatures{
			ExtractSyntax:   true,
			ExtractEntities: true,
		},
	}

	resp, err := g.service.Documents.AnnotateText(req).Context(ctx).Do()
	if err != nil {
		return nil, googleauth.ClassifyError("google tokenizer", err)
	}
	return tokensFromAnnotation(resp), nil
}

// entitySpan is a byte range of a proper-noun mention.
type entitySpan struct {
	tag        model.EntityTag
	begin, end int64
}

// tokensFromAnnotation tags each syntax token with the type of the proper
// entity mention covering it. LOCATION is the closest Natural Language type
// to a geopolitical entity.
func tokensFromAnnotation(resp *language.AnnotateTextResponse) []model.Token {
	var spans []entitySpan
	for _, entity := range resp.Entities {
		var tag model.EntityTag
		switch entity.Type {
		case "PERSON":
			tag = model.EntityPerson
		case "ORGANIZATION":
			tag = model.EntityOrg
		case "LOCATION":
			tag = model.EntityGPE
		default:
			continue
		}
		for _, mention := range entity.Mentions {
			if mention.Type != "PROPER" || mention.Text == nil {
				continue
			}
			begin := mention.Text.BeginOffset
			spans = append(spans, entitySpan{tag: tag, begin: begin, end: begin + int64(len(mention.Text.Content))})
		}
	}

	tokens := make([]model.Token, 0, len(resp.Tokens))
	for _, tok := range resp.Tokens {
		if tok.Text == nil {
			continue
		}
		entity := model.EntityNone
		offset := tok.Text.BeginOffset
		for _, span := range spans {
			if offset >= span.begin && offset < span.end {
				entity = span.tag
				break
			}
		}
		tokens = append(tokens, model.Token{Text: tok.Text.Content, Entity: entity})
	}
	return tokens
}
