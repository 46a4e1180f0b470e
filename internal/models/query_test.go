package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleRequest() *ChatRequest {
	return &ChatRequest{
		ChatID:           "chat-1",
		ChatSessionID:    "sess-1",
		RAGOrder:         2,
		CountryCode:      "us",
		LanguageCode:     "ES",
		LocaleCode:       "en_US",
		ProductGroupCode: "wm",
		ProductCode:      "wm",
		ProductModelCode: "f4v909wts",
		Question:         "my washer is noisy",
	}
}

func TestNewQuery(t *testing.T) {
	q := NewQuery(sampleRequest())

	assert.Equal(t, "US", q.ISOCode)
	assert.Equal(t, "WM", q.ProductGroupCode)
	assert.Equal(t, "WM", q.ProductCode)
	assert.Equal(t, "F4V909WTS", q.ProductModelCode)
	assert.Equal(t, "ES", q.UserLanguageCode)
	assert.Equal(t, "ES", q.LanguageCode)
}

func TestNewQuery_GBBecomesUK(t *testing.T) {
	req := sampleRequest()
	req.CountryCode = "gb"

	assert.Equal(t, "UK", NewQuery(req).ISOCode)
}

func TestQuery_SessionKey(t *testing.T) {
	q := NewQuery(sampleRequest())

	assert.Equal(t, "chat-1_sess-1_2", q.SessionKey())
}

func TestQuery_ResolveIndexName(t *testing.T) {
	q := &Query{LocaleCode: "en_US", LanguageCode: "EN"}
	q.ResolveIndexName()
	assert.Equal(t, "en-en", q.IndexName)

	q = &Query{LocaleCode: "fr", LanguageCode: "FR"}
	q.ResolveIndexName()
	assert.Equal(t, "fr-fr", q.IndexName)
}

func TestQuery_SearchText(t *testing.T) {
	q := &Query{TransQuestion: "translated"}
	assert.Equal(t, "translated", q.SearchText())

	q.RefinedQuery = "question: refined"
	assert.Equal(t, "question: refined", q.SearchText())
}

func TestQuery_TargetLanguage(t *testing.T) {
	q := &Query{
		UserLanguageCode: "es",
		UserLanguageName: "Spanish",
		DetectedLang:     "de",
		TransLanguage:    "German",
	}

	// A perfect detection score trusts the detector
	q.DetectScore = 1
	assert.Equal(t, "de", q.TargetLanguage())
	assert.Equal(t, "German", q.TargetLanguageName())

	// Anything less falls back to the user's selection
	q.DetectScore = 0.87
	assert.Equal(t, "es", q.TargetLanguage())
	assert.Equal(t, "Spanish", q.TargetLanguageName())
}

func TestQuery_ExtractedErrorCode(t *testing.T) {
	q := &Query{RefinedQuery: "question: x\nretrieve_error_code: IE\n"}
	code, ok := q.ExtractedErrorCode()
	assert.True(t, ok)
	assert.Equal(t, "IE", code)

	q = &Query{RefinedQuery: "question: x"}
	_, ok = q.ExtractedErrorCode()
	assert.False(t, ok)

	q = &Query{RefinedQuery: "retrieve_error_code: None"}
	_, ok = q.ExtractedErrorCode()
	assert.False(t, ok)
}
