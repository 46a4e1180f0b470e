package models

type ChatRequest struct {
	ChatID           string `json:"chatId" binding:"required"`
	ChatSessionID    string `json:"chatSessionId" binding:"required"`
	RAGOrder         int    `json:"ragOrder"`
	CountryCode      string `json:"countryCode" binding:"required"`
	LanguageCode     string `json:"language"`
	LocaleCode       string `json:"localeCode"`
	ProductGroupCode string `json:"productGroupCode"`
	ProductCode      string `json:"productCode"`
	ProductModelCode string `json:"productModelCode"`
	Platform         string `json:"platform"`
	CurrentUser      int    `json:"currentUser"`
	Question         string `json:"question" binding:"required"`
}

// ChatResponse is the uniform answer payload. Degraded and error paths
// return the same shape with empty citation fields, always HTTP 200.
type ChatResponse struct {
	Answer             string         `json:"gpt"`
	EventCode          string         `json:"eventCd"`
	DetectLanguage     string         `json:"detectLanguage"`
	UserSelectLanguage string         `json:"userSelectLanguage"`
	IndexName          string         `json:"indexName"`
	ContentKeywords    []string       `json:"contentKeywords"`
	ContentIDs         []string       `json:"contentIds"`
	YoutubeIDs         []string       `json:"youtubeIds"`
	SpecIDs            []string       `json:"specIds"`
	ItemIDs            []string       `json:"itemIds"`
	AdditionalInfo     AdditionalInfo `json:"additionalInfo"`
}

// CategoryView is the reduced payload persisted for each per-category
// retrieval view alongside the primary response.
type CategoryView struct {
	OriginalQuery      string           `json:"originalQuery"`
	EventCode          string           `json:"eventCd"`
	DetectLanguage     string           `json:"detectLanguage"`
	UserSelectLanguage string           `json:"userSelectLanguage"`
	IndexName          string           `json:"indexName"`
	ContentIDs         []string         `json:"contentIds"`
	YoutubeIDs         []string         `json:"youtubeIds"`
	SpecIDs            []string         `json:"specIds"`
	ItemIDs            []string         `json:"itemIds"`
	AdditionalInfo     CategoryViewInfo `json:"additionalInfo"`
}

type CategoryViewInfo struct {
	Intent       string   `json:"intent"`
	RefDocName   []string `json:"refDocName"`
	RefDocURL    []string `json:"refDocUrl"`
	RefDocScore  []string `json:"refDocScore"`
	Contexts     []string `json:"contexts"`
	RefinedQuery string   `json:"refinedQuery"`
}

// AnswerRecord is the document persisted per request: the primary
// response, the per-category views and the request identifiers.
type AnswerRecord struct {
	ID            string                  `json:"id"`
	ChatID        string                  `json:"chatid"`
	ChatSessionID string                  `json:"chat_session_id"`
	RAGOrder      int                     `json:"rag_order"`
	Result        ChatResponse            `json:"result"`
	Views         map[string]CategoryView `json:"views"`
}

type AdditionalInfo struct {
	Intent               string   `json:"intent"`
	EventCode            string   `json:"eventCd"`
	RefDocName           []string `json:"refDocName"`
	RefDocURL            []string `json:"refDocUrl"`
	RefDocScore          []string `json:"refDocScore"`
	EtcLinkName          []string `json:"etcLinkName"`
	EtcLinkURL           []string `json:"etcLinkUrl"`
	Call1PromptToken     int      `json:"call1PromptToken"`
	Call1CompletionToken int      `json:"call1CompletionToken"`
	Call2PromptToken     int      `json:"call2PromptToken"`
	Call2CompletionToken int      `json:"call2CompletionToken"`
	Time                 TimeInfo `json:"time"`
	Contexts             []string `json:"contexts"`
	PAA                  []string `json:"paa"`
	OriginalQuery        string   `json:"originalQuery"`
	RefinedQuery         string   `json:"refinedQuery"`
	Thoughts             string   `json:"thoughts"`
}

type TimeInfo struct {
	Refinement float64 `json:"Refinement"`
	IR         float64 `json:"ir"`
	Answer     float64 `json:"answer"`
	Total      float64 `json:"total"`
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
}
