package search

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careline/chatbot-backend/internal/models"
)

type fakeSearcher struct {
	mu       sync.Mutex
	requests []Request
	respond  func(req Request) []models.Document
}

func (f *fakeSearcher) Search(ctx context.Context, req Request) ([]models.Document, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.respond != nil {
		return f.respond(req), nil
	}
	return nil, nil
}

func (f *fakeSearcher) requestWithType(docType string) (Request, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, req := range f.requests {
		if strings.Contains(Render(req.Filter), "type eq '"+docType+"'") {
			return req, true
		}
	}
	return Request{}, false
}

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2}, nil
}

type fakeStore struct {
	texts map[string]string
}

func (f *fakeStore) GetText(ctx context.Context, path string) string {
	return f.texts[path]
}

type fakeProducts struct {
	rows []models.ProductMaster
}

func (f *fakeProducts) GetByGroup(iso, language, group string) ([]models.ProductMaster, error) {
	return f.rows, nil
}
func (f *fakeProducts) GetByGroupAndCode(iso, language, group, code string) ([]models.ProductMaster, error) {
	return nil, nil
}
func (f *fakeProducts) GetNamesByGroup(iso, group string) ([]string, error) { return nil, nil }
func (f *fakeProducts) GroupCodeForProduct(code string) (string, error)    { return "", nil }

type fakeSalesMap struct {
	matched    []string
	prodModels []string
}

func (f *fakeSalesMap) MatchedModelCodes(salesCodes []string, limit int) ([]string, error) {
	return f.matched, nil
}
func (f *fakeSalesMap) ProductModelCodes(salesCodes []string, limit int) ([]string, error) {
	return f.prodModels, nil
}

type fakeManuals struct {
	items []string
}

func (f *fakeManuals) ItemIDs(productModelCodes []string, limit int) ([]string, error) {
	return f.items, nil
}

type fakeIntents struct {
	intent *models.IntentMaster
}

func (f *fakeIntents) GetByCodeAndLocale(intentCode, locale string) (*models.IntentMaster, error) {
	return f.intent, nil
}

func newTestEngine(searcher *fakeSearcher, store *fakeStore, salesMap *fakeSalesMap, manuals *fakeManuals, intents *fakeIntents) *Engine {
	if store == nil {
		store = &fakeStore{}
	}
	if salesMap == nil {
		salesMap = &fakeSalesMap{}
	}
	if manuals == nil {
		manuals = &fakeManuals{}
	}
	if intents == nil {
		intents = &fakeIntents{}
	}
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewEngine(searcher, fakeEmbedder{}, store, &fakeProducts{}, salesMap, manuals, intents, nil, 3, logger)
}

func testQuery() *models.Query {
	return &models.Query{
		ISOCode:       "US",
		LocaleCode:    "en_US",
		LanguageCode:  "EN",
		IndexName:     "en-en",
		TransQuestion: "how do I reset my washer",
	}
}

func TestEngine_IntentSearch_Hit(t *testing.T) {
	searcher := &fakeSearcher{
		respond: func(req Request) []models.Document {
			return []models.Document{{
				Type:       models.TypeGeneralInquiry,
				Score:      0.05,
				MappingKey: "general-inquiry_en_US_EN_OTH_GI0001",
			}}
		},
	}
	intents := &fakeIntents{intent: &models.IntentMaster{
		IntentCode:      "GI0001",
		EventCode:       "EV01",
		ChatbotResponse: "You can reach support at the contact page.",
	}}
	engine := newTestEngine(searcher, nil, nil, nil, intents)

	doc, err := engine.IntentSearch(context.Background(), testQuery())

	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "GI0001", doc.Intent)
	assert.Equal(t, "EV01", doc.EventCode)
	assert.Equal(t, "You can reach support at the contact page.", doc.MainText)

	require.Len(t, searcher.requests, 1)
	req := searcher.requests[0]
	assert.Equal(t, "en-en", req.Index)
	assert.Equal(t, []string{"title"}, req.SearchFields)
	assert.Equal(t, 50, req.Top)
	assert.Contains(t, Render(req.Filter), "type eq 'general-inquiry'")
}

func TestEngine_IntentSearch_BelowThreshold(t *testing.T) {
	searcher := &fakeSearcher{
		respond: func(req Request) []models.Document {
			return []models.Document{{
				Type:       models.TypeGeneralInquiry,
				Score:      0.01,
				MappingKey: "general-inquiry_en_US_EN_OTH_GI0001",
			}}
		},
	}
	engine := newTestEngine(searcher, nil, nil, nil, nil)

	doc, err := engine.IntentSearch(context.Background(), testQuery())

	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestEngine_IntentSearch_MalformedMappingKey(t *testing.T) {
	searcher := &fakeSearcher{
		respond: func(req Request) []models.Document {
			return []models.Document{{Type: models.TypeGeneralInquiry, Score: 0.2, MappingKey: "bad_key"}}
		},
	}
	engine := newTestEngine(searcher, nil, nil, nil, nil)

	doc, err := engine.IntentSearch(context.Background(), testQuery())

	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestEngine_Retrieve_MergesAndPads(t *testing.T) {
	searcher := &fakeSearcher{
		respond: func(req Request) []models.Document {
			filter := Render(req.Filter)
			switch {
			case strings.Contains(filter, "type eq 'contents'"):
				return []models.Document{{Type: "contents", Title: "c1", DataID: "c1", Score: 0.5}}
			case strings.Contains(filter, "type eq 'manual'"):
				return []models.Document{{Type: "manual", Title: "m1", DataID: "m1", Score: 0.9}}
			default:
				return nil
			}
		},
	}
	engine := newTestEngine(searcher, nil, nil, nil, nil)

	result, err := engine.Retrieve(context.Background(), testQuery())

	require.NoError(t, err)
	require.Len(t, result.Result, models.ResultSize)
	assert.Equal(t, "m1", result.Result[0].Title)
	assert.Equal(t, "c1", result.Result[1].Title)
	assert.True(t, result.Result[2].IsPlaceholder())

	assert.Len(t, result.Contents, models.ResultSize)
	assert.Len(t, result.Manual, models.ResultSize)
	assert.Len(t, result.Youtube, models.ResultSize)
	assert.Len(t, result.Spec, models.ResultSize)
	assert.Equal(t, result.Result, result.Total)

	// contents plus manual plus spec plus youtube
	assert.Len(t, searcher.requests, 4)
}

func TestEngine_Retrieve_ErrorCodeMode(t *testing.T) {
	searcher := &fakeSearcher{}
	engine := newTestEngine(searcher, nil, nil, nil, nil)

	q := testQuery()
	q.RefinedQuery = "question: error on display\nretrieve_error_code: IE"

	_, err := engine.Retrieve(context.Background(), q)
	require.NoError(t, err)

	req, ok := searcher.requestWithType("contents")
	require.True(t, ok)
	assert.Equal(t, "IE", req.SearchText)
	assert.Equal(t, []string{"title"}, req.SearchFields)
	assert.Equal(t, 50, req.KNearest)
}

func TestEngine_Retrieve_UnresolvableModelBlocksCategory(t *testing.T) {
	searcher := &fakeSearcher{}
	// Sales map resolves the model code to nothing
	engine := newTestEngine(searcher, nil, &fakeSalesMap{}, &fakeManuals{}, nil)

	q := testQuery()
	q.ProductModelCode = "UNKNOWN1"

	_, err := engine.Retrieve(context.Background(), q)
	require.NoError(t, err)

	// The spec category uses matched-model resolution; with nothing
	// resolved its filter pins data_id to an impossible value.
	req, ok := searcher.requestWithType("spec")
	require.True(t, ok)
	assert.Contains(t, Render(req.Filter), "data_id eq '")
}

func TestEngine_Retrieve_ResolvedModelsUseMembership(t *testing.T) {
	searcher := &fakeSearcher{}
	salesMap := &fakeSalesMap{matched: []string{"MODEL1", "MODEL2"}}
	engine := newTestEngine(searcher, nil, salesMap, nil, nil)

	q := testQuery()
	q.ProductModelCode = "F4V909WTS"

	_, err := engine.Retrieve(context.Background(), q)
	require.NoError(t, err)

	req, ok := searcher.requestWithType("spec")
	require.True(t, ok)
	assert.Contains(t, Render(req.Filter), "search.in(data_id, 'MODEL1,MODEL2', ',')")
}

func TestEngine_Retrieve_LoadsEnvelopeBodies(t *testing.T) {
	searcher := &fakeSearcher{
		respond: func(req Request) []models.Document {
			if strings.Contains(Render(req.Filter), "type eq 'manual'") {
				return []models.Document{{Type: "manual", Title: "m1", DataID: "m1", Score: 0.5, FilePath: "manual/ch1.json"}}
			}
			return nil
		},
	}
	store := &fakeStore{texts: map[string]string{
		"manual/ch1.json": `{"main_text": "Open the filter cover at the bottom."}`,
	}}
	engine := newTestEngine(searcher, store, nil, nil, nil)

	result, err := engine.Retrieve(context.Background(), testQuery())

	require.NoError(t, err)
	assert.Equal(t, "Open the filter cover at the bottom.", result.Manual[0].MainText)
}
