package ner

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Veraticus/lumos/internal/googleauth"
	"github.com/Veraticus/lumos/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"google.golang.org/api/language/v1"
)

func span(content string, offset int64) *language.TextSpan {
	return &language.TextSpan{Content: content, BeginOffset: offset}
}

func TestTokensFromAnnotation(t *testing.T) {
	// "Mary Smith from Acme visited London and her friend"
	resp := &language.AnnotateTextResponse{
		Tokens: []*language.Token{
			{Text: span("Mary", 0)},
			{Text: span("Smith", 5)},
			{Text: span("from", 11)},
			{Text: span("Acme", 16)},
			{Text: span("visited", 21)},
			{Text: span("London", 29)},
			{Text: span("and", 36)},
			{Text: span("her", 40)},
			{Text: span("friend", 44)},
		},
		Entities: []*language.Entity{
			{Type: "PERSON", Mentions: []*language.EntityMention{{Type: "PROPER", Text: span("Mary Smith", 0)}}},
			{Type: "ORGANIZATION", Mentions: []*language.EntityMention{{Type: "PROPER", Text: span("Acme", 16)}}},
			{Type: "LOCATION", Mentions: []*language.EntityMention{{Type: "PROPER", Text: span("London", 29)}}},
			{Type: "PERSON", Mentions: []*language.EntityMention{{Type: "COMMON", Text: span("friend", 44)}}},
			{Type: "EVENT", Mentions: []*language.EntityMention{{Type: "PROPER", Text: span("and", 36)}}},
		},
	}

	tokens := tokensFromAnnotation(resp)
	want := []model.EntityTag{
		model.EntityPerson, model.EntityPerson, model.EntityNone, model.EntityOrg,
		model.EntityNone, model.EntityGPE, model.EntityNone, model.EntityNone, model.EntityNone,
	}
	if assert.Len(t, tokens, len(want)) {
		for i, tok := range tokens {
			assert.Equal(t, want[i], tok.Entity, tok.Text)
		}
	}
}

func TestGoogleTokenizerRequestsSyntaxAndEntities(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "documents:annotateText"), r.URL.Path)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.True(t, gjson.GetBytes(body, "features.extractSyntax").Bool())
		assert.True(t, gjson.GetBytes(body, "features.extractEntities").Bool())
		assert.Equal(t, "Ada called", gjson.GetBytes(body, "document.content").String())

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"tokens": [
				{"text": {"content": "Ada", "beginOffset": 0}},
				{"text": {"content": "called", "beginOffset": 4}}
			],
			"entities": [
				{"type": "PERSON", "mentions": [{"type": "PROPER", "text": {"content": "Ada", "beginOffset": 0}}]}
			]
		}`)
	}))
	defer srv.Close()

	tok, err := NewGoogleTokenizer(context.Background(), googleauth.Config{APIKey: "k", Endpoint: srv.URL + "/"})
	require.NoError(t, err)

	tokens, err := tok.Tokenize(context.Background(), "Ada called")
	require.NoError(t, err)
	assert.Equal(t, []model.Token{
		{Text: "Ada", Entity: model.EntityPerson},
		{Text: "called", Entity: model.EntityNone},
	}, tokens)
}
