package models

import (
	"sort"
	"strconv"
	"strings"
)

// Document category type tags as stored in the search index.
const (
	TypeContents       = "contents"
	TypeManual         = "manual"
	TypeSpec           = "spec"
	TypeYoutube        = "youtube"
	TypeGeneralInquiry = "general-inquiry"
	TypeMicrosites     = "microsites"
)

// ResultSize is the fixed number of slots every result set exposes.
// Downstream code indexes positions 0, 1 and 2 unconditionally.
const ResultSize = 3

// Document is one retrievable unit from the search index together with
// its loaded body text and query-time relevance score.
type Document struct {
	Type         string  `json:"type"`
	ISOCode      string  `json:"iso_cd"`
	LanguageCode string  `json:"language_cd"`
	ProductGroup string  `json:"prod_g_cd"`
	ProductCode  string  `json:"prod_cd"`
	ModelCode    string  `json:"model_cd"`
	DataID       string  `json:"data_id"`
	MappingKey   string  `json:"mapping_key"`
	ChunkNum     string  `json:"chunk_num"`
	FilePath     string  `json:"file_path"`
	Title        string  `json:"title"`
	URL          string  `json:"url"`
	Pages        string  `json:"pages"`
	MainText     string  `json:"main_text"`
	Score        float64 `json:"score"`

	// Intent fields populated only for general-inquiry hits.
	Intent          string `json:"intent,omitempty"`
	EventCode       string `json:"event_cd,omitempty"`
	RelatedLinkURL  string `json:"related_link_url,omitempty"`
	RelatedLinkName string `json:"related_link_name,omitempty"`
}

// EmptyDocument returns the placeholder used to pad result sets.
func EmptyDocument() Document {
	return Document{}
}

// IsPlaceholder reports whether the document is a padding entry.
func (d Document) IsPlaceholder() bool {
	return d.Title == "" && d.MainText == "" && d.DataID == ""
}

// IntentCodeSuffix extracts the intent code from a mapping key of the
// form type_locale_language_group_code_INTENT. Returns "" when the key
// has fewer than six segments.
func (d Document) IntentCodeSuffix() string {
	parts := strings.SplitN(d.MappingKey, "_", 6)
	if len(parts) < 6 {
		return ""
	}
	return parts[5]
}

// Pad extends docs with placeholder documents to exactly ResultSize
// entries, truncating first when longer.
func Pad(docs []Document) []Document {
	if len(docs) > ResultSize {
		docs = docs[:ResultSize]
	}
	out := make([]Document, 0, ResultSize)
	out = append(out, docs...)
	for len(out) < ResultSize {
		out = append(out, EmptyDocument())
	}
	return out
}

// MergeByScore concatenates category result lists, sorts them by score
// descending with a stable order for ties, and pads to ResultSize.
func MergeByScore(lists ...[]Document) []Document {
	var all []Document
	for _, l := range lists {
		for _, d := range l {
			if !d.IsPlaceholder() {
				all = append(all, d)
			}
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Score > all[j].Score
	})
	return Pad(all)
}

// RetrievalResult carries the two parallel views of one retrieval run:
// the merged ranked view used for the answer prompt and the per-category
// views used for citations. Every slice holds exactly ResultSize entries.
type RetrievalResult struct {
	Result   []Document `json:"result"`
	Total    []Document `json:"total_result"`
	Contents []Document `json:"contents"`
	Manual   []Document `json:"manual"`
	Youtube  []Document `json:"youtube"`
	Spec     []Document `json:"spec"`
}

// EmptyRetrievalResult returns a fully padded result with no real hits.
func EmptyRetrievalResult() *RetrievalResult {
	return &RetrievalResult{
		Result:   Pad(nil),
		Total:    Pad(nil),
		Contents: Pad(nil),
		Manual:   Pad(nil),
		Youtube:  Pad(nil),
		Spec:     Pad(nil),
	}
}

// HasDocuments reports whether any primary-result slot holds a real hit.
func (r *RetrievalResult) HasDocuments() bool {
	for _, d := range r.Result {
		if d.Title != "" {
			return true
		}
	}
	return false
}

// PromptContext renders the primary results as the numbered context block
// substituted into the answer prompt. Square brackets inside document
// text collide with the numbering markers and are rewritten to parens.
func (r *RetrievalResult) PromptContext() string {
	var b strings.Builder
	for i, d := range r.Result {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("[")
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString("]\n")
		b.WriteString(EscapeBrackets(d.MainText))
	}
	return b.String()
}

// EscapeBrackets rewrites [ and ] to ( and ).
func EscapeBrackets(s string) string {
	s = strings.ReplaceAll(s, "[", "(")
	return strings.ReplaceAll(s, "]", ")")
}
