package search

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/careline/chatbot-backend/internal/database"
	"github.com/careline/chatbot-backend/internal/models"
)

// GeneralInquiryThreshold is the minimum score for an intent hit to
// short-circuit the pipeline with a canned response.
const GeneralInquiryThreshold = 0.03

// errorCodeKNearest widens the neighbor pool when searching for a
// literal error code in titles.
const errorCodeKNearest = 50

// maxResolvedModels caps the model-code membership filter.
const maxResolvedModels = 30

const masterCacheTTL = time.Hour

type Searcher interface {
	Search(ctx context.Context, req Request) ([]models.Document, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type BodyLoader interface {
	GetText(ctx context.Context, path string) string
}

type bodyFormat int

const (
	bodyFlat bodyFormat = iota
	bodyEnvelope
)

type modelFilterMode int

const (
	modelFilterNone modelFilterMode = iota
	modelFilterMatched
	modelFilterManualItem
)

// category describes how one document type is retrieved: which type
// clauses the filter carries, whether model-code resolution applies and
// how the stored body deserializes.
type category struct {
	Name        string
	Type        string
	AltTypes    []string
	ModelFilter modelFilterMode
	Body        bodyFormat
}

var (
	categoryContents = category{
		Name:     "contents",
		Type:     models.TypeContents,
		AltTypes: []string{models.TypeMicrosites},
		Body:     bodyFlat,
	}
	categoryManual = category{
		Name:        "manual",
		Type:        models.TypeManual,
		ModelFilter: modelFilterManualItem,
		Body:        bodyEnvelope,
	}
	categorySpec = category{
		Name:        "spec",
		Type:        models.TypeSpec,
		ModelFilter: modelFilterMatched,
		Body:        bodyFlat,
	}
	categoryYoutube = category{
		Name: "youtube",
		Type: models.TypeYoutube,
		Body: bodyEnvelope,
	}
)

// Engine issues the category-scoped retrieval queries and merges their
// results into the fixed-size views the rest of the pipeline indexes.
type Engine struct {
	search   Searcher
	embedder Embedder
	store    BodyLoader
	products models.ProductMasterRepository
	salesMap models.SalesProductMapRepository
	manuals  models.ManualListRepository
	intents  models.IntentMasterRepository
	cache    *database.Cache
	topK     int
	logger   *logrus.Logger
}

func NewEngine(
	search Searcher,
	embedder Embedder,
	store BodyLoader,
	products models.ProductMasterRepository,
	salesMap models.SalesProductMapRepository,
	manuals models.ManualListRepository,
	intents models.IntentMasterRepository,
	cache *database.Cache,
	topK int,
	logger *logrus.Logger,
) *Engine {
	if topK <= 0 {
		topK = models.ResultSize
	}
	return &Engine{
		search:   search,
		embedder: embedder,
		store:    store,
		products: products,
		salesMap: salesMap,
		manuals:  manuals,
		intents:  intents,
		cache:    cache,
		topK:     topK,
		logger:   logger,
	}
}

// IntentSearch probes for a general-inquiry canned answer. It returns
// nil when nothing scores above the threshold; a non-nil document
// short-circuits the rest of the pipeline.
func (e *Engine) IntentSearch(ctx context.Context, q *models.Query) (*models.Document, error) {
	vector, err := e.embedder.Embed(ctx, q.TransQuestion)
	if err != nil {
		return nil, err
	}

	filter := And(
		Eq("type", models.TypeGeneralInquiry),
		Eq("iso_cd", q.ISOCode),
		Eq("language_cd", q.LanguageCode),
	)

	docs, err := e.search.Search(ctx, Request{
		Index:        q.IndexName,
		SearchText:   q.TransQuestion,
		SearchFields: []string{"title"},
		Vector:       vector,
		KNearest:     errorCodeKNearest,
		Filter:       filter,
		Top:          50,
	})
	if err != nil {
		return nil, err
	}

	for i := range docs[:min(len(docs), models.ResultSize)] {
		d := docs[i]
		if d.Type != models.TypeGeneralInquiry || d.Score < GeneralInquiryThreshold {
			continue
		}
		code := d.IntentCodeSuffix()
		if code == "" {
			continue
		}
		intent, err := e.lookupIntent(ctx, code, q.LocaleCode)
		if err != nil {
			e.logger.WithError(err).WithFields(logrus.Fields{
				"intent_code": code,
				"locale":      q.LocaleCode,
			}).Error("Intent master lookup failed")
			continue
		}
		d.Intent = intent.IntentCode
		d.EventCode = intent.EventCode
		d.RelatedLinkURL = intent.RelatedLinkURL
		d.RelatedLinkName = intent.RelatedLinkName
		d.MainText = intent.ChatbotResponse
		return &d, nil
	}
	return nil, nil
}

// Retrieve runs the four category searches concurrently and merges
// their results by score. Every view in the returned result holds
// exactly three entries.
func (e *Engine) Retrieve(ctx context.Context, q *models.Query) (*models.RetrievalResult, error) {
	vector, err := e.embedder.Embed(ctx, q.SearchText())
	if err != nil {
		return nil, err
	}

	var contents, manual, spec, youtube []models.Document
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		contents, err = e.searchCategory(gctx, q, categoryContents, vector)
		return err
	})
	g.Go(func() error {
		var err error
		manual, err = e.searchCategory(gctx, q, categoryManual, vector)
		return err
	})
	g.Go(func() error {
		var err error
		spec, err = e.searchCategory(gctx, q, categorySpec, vector)
		return err
	})
	g.Go(func() error {
		var err error
		youtube, err = e.searchCategory(gctx, q, categoryYoutube, vector)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := models.MergeByScore(contents, manual, youtube, spec)
	total := make([]models.Document, len(merged))
	copy(total, merged)

	return &models.RetrievalResult{
		Result:   merged,
		Total:    total,
		Contents: models.Pad(contents),
		Manual:   models.Pad(manual),
		Youtube:  models.Pad(youtube),
		Spec:     models.Pad(spec),
	}, nil
}

func (e *Engine) searchCategory(ctx context.Context, q *models.Query, cat category, vector []float32) ([]models.Document, error) {
	typeClauses := []Expr{Eq("type", cat.Type)}
	for _, t := range cat.AltTypes {
		typeClauses = append(typeClauses, Eq("type", t))
	}

	clauses := []Expr{
		Or(typeClauses...),
		Eq("iso_cd", q.ISOCode),
		Eq("language_cd", q.LanguageCode),
		e.productClause(ctx, q),
	}
	if cat.ModelFilter != modelFilterNone {
		clauses = append(clauses, e.modelClause(ctx, q, cat.ModelFilter))
	}

	req := Request{
		Index:    q.IndexName,
		Vector:   vector,
		KNearest: e.topK,
		Filter:   And(clauses...),
		Top:      e.topK,
	}
	if code, ok := q.ExtractedErrorCode(); ok {
		req.SearchText = code
		req.SearchFields = []string{"title"}
		req.KNearest = errorCodeKNearest
	}

	docs, err := e.search.Search(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(docs) > models.ResultSize {
		docs = docs[:models.ResultSize]
	}

	for i := range docs {
		e.loadBody(ctx, &docs[i], cat)
	}

	e.logger.WithFields(logrus.Fields{
		"category": cat.Name,
		"index":    q.IndexName,
		"hits":     len(docs),
	}).Debug("Category search complete")

	return docs, nil
}

// loadBody fills the document's text from storage. Manual and youtube
// chunks are stored as a JSON envelope around main_text; contents and
// spec chunks are flat text. Load failures degrade to empty text.
func (e *Engine) loadBody(ctx context.Context, d *models.Document, cat category) {
	if d.FilePath == "" {
		return
	}
	text := e.store.GetText(ctx, d.FilePath)
	if cat.Body == bodyEnvelope && text != "" {
		var envelope struct {
			MainText string `json:"main_text"`
		}
		if err := json.Unmarshal([]byte(text), &envelope); err != nil {
			e.logger.WithError(err).WithField("path", d.FilePath).Warn("Malformed body envelope")
			text = ""
		} else {
			text = envelope.MainText
		}
	}
	d.MainText = text
}

// productClause scopes the filter to the selected product group and,
// when known, the product codes under it. An unresolvable master lookup
// falls back to the group-only filter.
func (e *Engine) productClause(ctx context.Context, q *models.Query) Expr {
	if q.ProductGroupCode == "" {
		return nil
	}
	clauses := []Expr{Eq("prod_g_cd", q.ProductGroupCode)}

	if q.ProductCode != "" {
		clauses = append(clauses, Eq("prod_cd", q.ProductCode))
		return And(clauses...)
	}

	codes, err := e.productCodes(ctx, q)
	if err != nil {
		e.logger.WithError(err).WithField("group", q.ProductGroupCode).Error("Product master lookup failed, filtering by group only")
		return And(clauses...)
	}
	if len(codes) > 0 {
		eqs := make([]Expr, 0, len(codes))
		for _, code := range codes {
			eqs = append(eqs, Eq("prod_cd", code))
		}
		clauses = append(clauses, Or(eqs...))
	}
	return And(clauses...)
}

func (e *Engine) productCodes(ctx context.Context, q *models.Query) ([]string, error) {
	if e.cache != nil {
		if codes, err := e.cache.GetCachedProductCodes(ctx, q.ISOCode, q.LanguageCode, q.ProductGroupCode); err == nil {
			return codes, nil
		}
	}

	rows, err := e.products.GetByGroup(q.ISOCode, q.LanguageCode, q.ProductGroupCode)
	if err != nil {
		return nil, err
	}
	codes := make([]string, 0, len(rows))
	seen := make(map[string]bool)
	for _, r := range rows {
		if r.ProductCode != "" && !seen[r.ProductCode] {
			seen[r.ProductCode] = true
			codes = append(codes, r.ProductCode)
		}
	}

	if e.cache != nil {
		if err := e.cache.CacheProductCodes(ctx, q.ISOCode, q.LanguageCode, q.ProductGroupCode, codes, masterCacheTTL); err != nil {
			e.logger.WithError(err).Debug("Product code cache write failed")
		}
	}
	return codes, nil
}

// modelClause resolves the user's sales/model codes into index data ids.
// When the user supplied a code that resolves to nothing, the clause is
// an equality against a fresh UUID: the category then returns zero rows
// instead of unscoped ones.
func (e *Engine) modelClause(ctx context.Context, q *models.Query, mode modelFilterMode) Expr {
	salesCodes := collectSalesCodes(q)
	if len(salesCodes) == 0 {
		return nil
	}

	resolved, err := e.resolveModelCodes(ctx, salesCodes, mode)
	if err != nil {
		e.logger.WithError(err).WithField("sales_codes", salesCodes).Error("Model code resolution failed")
		resolved = nil
	}
	if len(resolved) == 0 {
		return Eq("data_id", uuid.NewString())
	}
	if len(resolved) > maxResolvedModels {
		resolved = resolved[:maxResolvedModels]
	}
	return In("data_id", resolved)
}

func (e *Engine) resolveModelCodes(ctx context.Context, salesCodes []string, mode modelFilterMode) ([]string, error) {
	cacheMode := "spec"
	if mode == modelFilterManualItem {
		cacheMode = "manual"
	}
	cacheKey := strings.Join(salesCodes, "|")

	if e.cache != nil {
		if codes, err := e.cache.GetCachedModelCodes(ctx, cacheMode, cacheKey); err == nil {
			return codes, nil
		}
	}

	var resolved []string
	var err error
	switch mode {
	case modelFilterMatched:
		resolved, err = e.salesMap.MatchedModelCodes(salesCodes, maxResolvedModels)
	case modelFilterManualItem:
		var prodModels []string
		prodModels, err = e.salesMap.ProductModelCodes(salesCodes, maxResolvedModels)
		if err == nil {
			resolved, err = e.manuals.ItemIDs(prodModels, maxResolvedModels)
		}
	}
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		if err := e.cache.CacheModelCodes(ctx, cacheMode, cacheKey, resolved, masterCacheTTL); err != nil {
			e.logger.WithError(err).Debug("Model code cache write failed")
		}
	}
	return resolved, nil
}

func (e *Engine) lookupIntent(ctx context.Context, code, locale string) (*models.IntentMaster, error) {
	if e.cache != nil {
		if intent, err := e.cache.GetCachedIntent(ctx, code, locale); err == nil {
			return intent, nil
		}
	}
	intent, err := e.intents.GetByCodeAndLocale(code, locale)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		if err := e.cache.CacheIntent(ctx, code, locale, intent, masterCacheTTL); err != nil {
			e.logger.WithError(err).Debug("Intent cache write failed")
		}
	}
	return intent, nil
}

func collectSalesCodes(q *models.Query) []string {
	var codes []string
	seen := make(map[string]bool)
	for _, c := range []string{q.ProductModelCode, q.ModelNumber} {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c == "" || strings.EqualFold(c, "None") || seen[c] {
			continue
		}
		seen[c] = true
		codes = append(codes, c)
	}
	return codes
}
