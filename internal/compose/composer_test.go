package compose

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/careline/chatbot-backend/internal/models"
)

type stubTranslator struct {
	out   string
	errs  []error
	calls []string
}

func (s *stubTranslator) Translate(ctx context.Context, text, to, from string) (string, error) {
	s.calls = append(s.calls, to)
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return "", err
		}
	}
	if s.out != "" {
		return s.out, nil
	}
	return text, nil
}

func newTestComposer(translator Translator) *Composer {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewComposer(nil, translator, logger)
}

func spanishQuery() *models.Query {
	return &models.Query{DetectedLang: "es", DetectScore: 1.0, UserLanguageCode: "EN"}
}

func TestComposer_TranslateFromEnglishSkipsEnglish(t *testing.T) {
	translator := &stubTranslator{}
	c := newTestComposer(translator)
	q := &models.Query{DetectedLang: "en", DetectScore: 1.0}

	got := c.TranslateFromEnglish(context.Background(), q, "hello")

	assert.Equal(t, "hello", got)
	assert.Empty(t, translator.calls)
}

func TestComposer_TranslateFromEnglishTargetsDetectedLanguage(t *testing.T) {
	translator := &stubTranslator{out: "hola"}
	c := newTestComposer(translator)

	got := c.TranslateFromEnglish(context.Background(), spanishQuery(), "hello")

	assert.Equal(t, "hola", got)
	assert.Equal(t, []string{"es"}, translator.calls)
}

func TestComposer_TranslateFromEnglishRetriesTowardEnglish(t *testing.T) {
	translator := &stubTranslator{out: "hello again", errs: []error{errors.New("quota")}}
	c := newTestComposer(translator)

	got := c.TranslateFromEnglish(context.Background(), spanishQuery(), "hello")

	assert.Equal(t, "hello again", got)
	assert.Equal(t, []string{"es", "en"}, translator.calls)
}

func TestComposer_TranslateFromEnglishPassesThroughOnDoubleFailure(t *testing.T) {
	translator := &stubTranslator{errs: []error{errors.New("quota"), errors.New("quota")}}
	c := newTestComposer(translator)

	got := c.TranslateFromEnglish(context.Background(), spanishQuery(), "hello")

	assert.Equal(t, "hello", got)
	assert.Equal(t, []string{"es", "en"}, translator.calls)
}

func TestComposer_PostProcessAnswerFallsBackWithoutDocuments(t *testing.T) {
	c := newTestComposer(&stubTranslator{})
	q := &models.Query{DetectedLang: "en", DetectScore: 1.0}

	got := c.PostProcessAnswer(context.Background(), q, "ignored", models.EmptyRetrievalResult(), "")

	assert.Equal(t, FallbackMessage, got)
}

func TestComposer_PostProcessAnswerPrependsAdvisory(t *testing.T) {
	c := newTestComposer(&stubTranslator{})
	q := &models.Query{DetectedLang: "en", DetectScore: 1.0}
	result := &models.RetrievalResult{Result: models.Pad([]models.Document{{Title: "doc", MainText: "body", DataID: "d-1"}})}

	got := c.PostProcessAnswer(context.Background(), q, "the answer", result, "product mismatch notice")

	assert.Equal(t, "[Inform]\n\nproduct mismatch notice\n\nthe answer", got)
}

func TestComposer_PostProcessAnswerPassesCleanAnswer(t *testing.T) {
	c := newTestComposer(&stubTranslator{})
	q := &models.Query{DetectedLang: "en", DetectScore: 1.0}
	result := &models.RetrievalResult{Result: models.Pad([]models.Document{{Title: "doc", MainText: "body", DataID: "d-1"}})}

	got := c.PostProcessAnswer(context.Background(), q, "the answer", result, "")

	assert.Equal(t, "the answer", got)
}

func TestComposer_ApplySolutionFlagBlanksResultView(t *testing.T) {
	c := newTestComposer(&stubTranslator{})
	q := &models.Query{DetectedLang: "en", DetectScore: 1.0}
	result := &models.RetrievalResult{Result: models.Pad([]models.Document{{Title: "doc", MainText: "body", DataID: "d-1"}})}
	a := &Answer{Response: "not solved", AdditionalQuestions: "1. follow up"}

	got := c.ApplySolutionFlag(context.Background(), q, a, result)

	assert.Equal(t, "not solved", got)
	assert.Equal(t, "", a.AdditionalQuestions)
	assert.False(t, result.HasDocuments())
	assert.Len(t, result.Result, models.ResultSize)
}

func TestThoughts_SubstitutesAndSquaresBrackets(t *testing.T) {
	q := &models.Query{Question: "why?", DetectScore: 1.0, TransLanguage: "English"}

	got := Thoughts("prompt <rules> {chat} {context} {question} {detectLang}", q, "hist", "docs", "ANSWER")

	assert.Equal(t, "prompt [rules] hist docs why? EnglishANSWER", got)
}

func TestThoughts_BreaksSectionSeparators(t *testing.T) {
	q := &models.Query{DetectScore: 1.0}

	got := Thoughts("a\n==============\nb", q, "", "", "")

	assert.Contains(t, got, "<br>==============<br>")
}
