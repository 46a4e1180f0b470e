package models

import (
	"fmt"
	"strings"
)

// RefinedQueryMarker switches the category searches into error-code
// retrieval mode when present in the refined query string.
const RefinedQueryMarker = "retrieve_error_code:"

// Query is the per-request working state. It is created at request
// entry, mutated through the pipeline stages and never shared between
// requests.
type Query struct {
	ChatID        string
	ChatSessionID string
	RAGOrder      int
	Platform      string
	CurrentUser   int

	ISOCode      string
	CorpCode     string
	LocaleCode   string
	LanguageCode string
	LanguageName string
	IndexName    string

	// The language the user picked in the widget, kept separately
	// because LanguageCode is overwritten with the locale's language.
	UserLanguageCode string
	UserLanguageName string

	ProductGroupCode string
	ProductCode      string
	ProductModelCode string
	ProductGroupName string

	Question      string
	TransQuestion string
	TransLanguage string
	DetectedLang  string
	DetectScore   float64

	RefinedQuery  string
	RefinedAnswer string
	Keywords      string
	Symptom       string
	ModelNumber   string
	ErrorCode     string
	Information   string
	Flag          string
	Intent        string
	EventCode     string

	Timings TimeInfo
}

// NewQuery builds the working state from a validated chat request.
// Country code GB arrives from some storefronts where the index and
// master data use UK.
func NewQuery(req *ChatRequest) *Query {
	iso := strings.ToUpper(req.CountryCode)
	if iso == "GB" {
		iso = "UK"
	}
	return &Query{
		ChatID:           req.ChatID,
		ChatSessionID:    req.ChatSessionID,
		RAGOrder:         req.RAGOrder,
		Platform:         req.Platform,
		CurrentUser:      req.CurrentUser,
		ISOCode:          iso,
		LocaleCode:       req.LocaleCode,
		LanguageCode:     req.LanguageCode,
		UserLanguageCode: req.LanguageCode,
		ProductGroupCode: strings.ToUpper(req.ProductGroupCode),
		ProductCode:      strings.ToUpper(req.ProductCode),
		ProductModelCode: strings.ToUpper(req.ProductModelCode),
		Question:         req.Question,
	}
}

// SessionKey identifies this request's log lines and history records.
func (q *Query) SessionKey() string {
	return fmt.Sprintf("%s_%s_%d", q.ChatID, q.ChatSessionID, q.RAGOrder)
}

// ResolveIndexName derives the search index from locale and language,
// e.g. locale "en_US" with language "EN" becomes "en-en".
func (q *Query) ResolveIndexName() {
	prefix := q.LocaleCode
	if i := strings.Index(prefix, "_"); i >= 0 {
		prefix = prefix[:i]
	}
	q.IndexName = strings.ToLower(prefix) + "-" + strings.ToLower(q.LanguageCode)
}

// SearchText returns the text the retrieval engine vectorizes: the
// refined query when refinement ran, else the translated question.
func (q *Query) SearchText() string {
	if q.RefinedQuery != "" {
		return q.RefinedQuery
	}
	return q.TransQuestion
}

// TargetLanguage is the code responses are translated into. A perfect
// detection score means the detector is trusted, anything lower falls
// back to the language the user picked.
func (q *Query) TargetLanguage() string {
	if q.DetectScore != 1 {
		return q.UserLanguageCode
	}
	return q.DetectedLang
}

// TargetLanguageName is the display-name counterpart of TargetLanguage,
// used where prompts want a language name rather than a code.
func (q *Query) TargetLanguageName() string {
	if q.DetectScore != 1 {
		return q.UserLanguageName
	}
	return q.TransLanguage
}

// ExtractedErrorCode pulls the error code out of the refined query when
// the retrieval marker is present. Second return is false otherwise.
func (q *Query) ExtractedErrorCode() (string, bool) {
	idx := strings.Index(q.RefinedQuery, RefinedQueryMarker)
	if idx < 0 {
		return "", false
	}
	code := q.RefinedQuery[idx+len(RefinedQueryMarker):]
	if nl := strings.Index(code, "\n"); nl >= 0 {
		code = code[:nl]
	}
	code = strings.TrimSpace(code)
	if code == "" || strings.EqualFold(code, "None") {
		return "", false
	}
	return code, true
}
