package chat

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/careline/chatbot-backend/internal/compose"
	"github.com/careline/chatbot-backend/internal/models"
	"github.com/careline/chatbot-backend/internal/refine"
	"github.com/careline/chatbot-backend/pkg/utils"
)

// manualLinkExpiry bounds how long a signed manual link stays usable.
const manualLinkExpiry = time.Hour

func (d *Driver) buildResponse(ctx context.Context, q *models.Query, t *turn) *models.ChatResponse {
	docs := t.result.Result
	urls := d.citationURLs(ctx, docs)

	var call1Prompt, call1Completion int
	if t.refUsage != nil {
		call1Prompt = t.refUsage.PromptTokens
		call1Completion = t.refUsage.CompletionTokens
	}
	var call2Prompt, call2Completion int
	if q.Flag == refine.FlagRAG && t.ansUsage != nil {
		call2Prompt = t.ansUsage.PromptTokens
		call2Completion = t.ansUsage.CompletionTokens
	}

	citation := []string{models.TypeContents, models.TypeManual, models.TypeGeneralInquiry, models.TypeMicrosites}

	return &models.ChatResponse{
		Answer:             compose.FormatAnswer(t.answer),
		EventCode:          q.EventCode,
		DetectLanguage:     q.DetectedLang,
		UserSelectLanguage: q.UserLanguageCode,
		IndexName:          q.IndexName,
		ContentKeywords:    contentKeywords(q.RefinedQuery),
		ContentIDs:         idsByType(docs, models.TypeContents, models.TypeMicrosites),
		YoutubeIDs:         idsByType(docs, models.TypeYoutube),
		SpecIDs:            idsByType(docs, models.TypeSpec),
		ItemIDs:            idsByType(docs, models.TypeManual),
		AdditionalInfo: models.AdditionalInfo{
			Intent:               q.Intent,
			EventCode:            q.EventCode,
			RefDocName:           compose.RemoveDuplicates(titlesByType(docs, citation...)),
			RefDocURL:            compose.RemoveDuplicates(urlsByType(docs, urls, citation...)),
			RefDocScore:          scoreStrings(docs),
			EtcLinkName:          titlesByType(docs, models.TypeYoutube),
			EtcLinkURL:           urlsByType(docs, urls, models.TypeYoutube),
			Call1PromptToken:     call1Prompt,
			Call1CompletionToken: call1Completion,
			Call2PromptToken:     call2Prompt,
			Call2CompletionToken: call2Completion,
			Time:                 q.Timings,
			Contexts:             contexts(docs),
			PAA:                  compose.PAAList(t.paa),
			OriginalQuery:        q.Question,
			RefinedQuery:         q.RefinedQuery,
			Thoughts:             t.thoughts,
		},
	}
}

// persist writes the answer record to the document store and the
// flattened analytics row. Both are best-effort, the response has
// already been produced.
func (d *Driver) persist(ctx context.Context, q *models.Query, t *turn, resp *models.ChatResponse) {
	record := models.AnswerRecord{
		ID:            uuid.NewString(),
		ChatID:        q.ChatID,
		ChatSessionID: q.ChatSessionID,
		RAGOrder:      q.RAGOrder,
		Result:        *resp,
		Views:         d.categoryViews(ctx, q, t),
	}
	if err := d.recorder.Create(ctx, record); err != nil {
		d.logger.WithError(err).WithField("session", q.SessionKey()).Warn("Answer record write failed")
	}

	summary := &models.ChatSummary{
		ChatID:           q.ChatID,
		SessionID:        q.ChatSessionID,
		RAGOrder:         q.RAGOrder,
		ISOCode:          strings.ToUpper(q.ISOCode),
		LanguageCode:     strings.ToLower(q.LanguageCode),
		ProductGroup:     q.ProductGroupCode,
		ProductCode:      q.ProductCode,
		ProductModelCode: q.ProductModelCode,
		Platform:         q.Platform,
		Question:         q.Question,
		Answer:           compose.RemoveEmojis(resp.Answer),
		Flag:             q.Flag,
		Intent:           q.Intent,
		PromptTokens:     resp.AdditionalInfo.Call1PromptToken + resp.AdditionalInfo.Call2PromptToken,
		CompletionTokens: resp.AdditionalInfo.Call1CompletionToken + resp.AdditionalInfo.Call2CompletionToken,
		ElapsedMs:        int(q.Timings.Total * 1000),
	}
	if err := d.repos.ChatSummary.Create(summary); err != nil {
		d.logger.WithError(err).WithField("session", q.SessionKey()).Warn("Chat summary write failed")
	}
}

// categoryViews renders the per-category citation views persisted with
// the record. Only the retrieval path produces them, the short-circuit
// paths have a primary view only.
func (d *Driver) categoryViews(ctx context.Context, q *models.Query, t *turn) map[string]models.CategoryView {
	if q.Flag != refine.FlagRAG {
		return nil
	}
	return map[string]models.CategoryView{
		"total_result": d.categoryView(ctx, q, t.result.Total),
		"contents":     d.categoryView(ctx, q, t.result.Contents),
		"manual":       d.categoryView(ctx, q, t.result.Manual),
		"youtube":      d.categoryView(ctx, q, t.result.Youtube),
		"spec":         d.categoryView(ctx, q, t.result.Spec),
	}
}

func (d *Driver) categoryView(ctx context.Context, q *models.Query, docs []models.Document) models.CategoryView {
	return models.CategoryView{
		OriginalQuery:      q.Question,
		EventCode:          q.EventCode,
		DetectLanguage:     q.DetectedLang,
		UserSelectLanguage: q.UserLanguageCode,
		IndexName:          q.IndexName,
		ContentIDs:         idsByType(docs, models.TypeContents, models.TypeMicrosites),
		YoutubeIDs:         idsByType(docs, models.TypeYoutube),
		SpecIDs:            idsByType(docs, models.TypeSpec),
		ItemIDs:            idsByType(docs, models.TypeManual),
		AdditionalInfo: models.CategoryViewInfo{
			Intent:       q.Intent,
			RefDocName:   titles(docs),
			RefDocURL:    d.citationURLs(ctx, docs),
			RefDocScore:  scoreStrings(docs),
			Contexts:     contexts(docs),
			RefinedQuery: q.RefinedQuery,
		},
	}
}

// citationURLs resolves the display link per document. Manuals live in
// private storage and get a signed link anchored to their first cited
// page; everything else already carries a public URL.
func (d *Driver) citationURLs(ctx context.Context, docs []models.Document) []string {
	urls := make([]string, len(docs))
	for i, doc := range docs {
		if doc.Type != models.TypeManual {
			urls[i] = doc.URL
			continue
		}
		page, ok := firstPage(doc.Pages)
		if !ok {
			continue
		}
		signed, err := d.web.SASURL(ctx, doc.URL, manualLinkExpiry)
		if err != nil {
			d.logger.WithError(err).WithField("url", doc.URL).Warn("Manual link signing failed")
			continue
		}
		urls[i] = signed + "#page" + strconv.Itoa(page)
	}
	return urls
}

// firstPage returns the smallest page number in a comma-separated list.
func firstPage(pages string) (int, bool) {
	first := 0
	found := false
	for _, part := range strings.Split(pages, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return 0, false
		}
		if !found || n < first {
			first = n
			found = true
		}
	}
	return first, found
}

func contentKeywords(refinedQuery string) []string {
	raw := utils.ExtractFirst(refinedQuery, "keywords:", "symptom")
	parts := strings.Split(raw, ",")
	keywords := make([]string, len(parts))
	for i, p := range parts {
		keywords[i] = strings.TrimSpace(strings.ReplaceAll(p, "None", ""))
	}
	return keywords
}

func idsByType(docs []models.Document, types ...string) []string {
	out := make([]string, len(docs))
	for i, doc := range docs {
		if typeIn(doc.Type, types) {
			out[i] = doc.DataID
		}
	}
	return out
}

func titlesByType(docs []models.Document, types ...string) []string {
	out := make([]string, len(docs))
	for i, doc := range docs {
		if typeIn(doc.Type, types) {
			out[i] = doc.Title
		}
	}
	return out
}

func urlsByType(docs []models.Document, urls []string, types ...string) []string {
	out := make([]string, len(docs))
	for i, doc := range docs {
		if typeIn(doc.Type, types) {
			out[i] = urls[i]
		}
	}
	return out
}

func titles(docs []models.Document) []string {
	out := make([]string, len(docs))
	for i, doc := range docs {
		out[i] = doc.Title
	}
	return out
}

func contexts(docs []models.Document) []string {
	out := make([]string, len(docs))
	for i, doc := range docs {
		out[i] = doc.MainText
	}
	return out
}

func scoreStrings(docs []models.Document) []string {
	out := make([]string, len(docs))
	for i, doc := range docs {
		if !doc.IsPlaceholder() {
			out[i] = strconv.FormatFloat(doc.Score, 'g', -1, 64)
		}
	}
	return out
}

func typeIn(t string, types []string) bool {
	for _, candidate := range types {
		if t == candidate {
			return true
		}
	}
	return false
}

func blank3() []string {
	return []string{"", "", ""}
}

// EmptyResponse is the apology payload for requests that never entered
// the pipeline, such as failed authorization.
func EmptyResponse() *models.ChatResponse {
	return emptyResponse(apologyMessage)
}

// emptyResponse is the degraded payload: the same shape as a real
// answer with every citation field blanked.
func emptyResponse(text string) *models.ChatResponse {
	return &models.ChatResponse{
		Answer:          text,
		ContentKeywords: []string{""},
		ContentIDs:      blank3(),
		YoutubeIDs:      blank3(),
		SpecIDs:         blank3(),
		ItemIDs:         blank3(),
		AdditionalInfo: models.AdditionalInfo{
			RefDocName:  blank3(),
			RefDocURL:   blank3(),
			RefDocScore: blank3(),
			EtcLinkName: blank3(),
			EtcLinkURL:  blank3(),
			Contexts:    blank3(),
			PAA:         blank3(),
		},
	}
}
