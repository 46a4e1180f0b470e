package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/careline/chatbot-backend/internal/compose"
	"github.com/careline/chatbot-backend/internal/config"
	"github.com/careline/chatbot-backend/internal/llm"
	"github.com/careline/chatbot-backend/internal/models"
	"github.com/careline/chatbot-backend/internal/refine"
	"github.com/careline/chatbot-backend/internal/repository"
)

// Code master groups. B00003 names the languages selectable per locale,
// B00006 names the languages the detector can report.
const (
	codeGroupLocaleLanguages = "B00003"
	codeGroupDetectLanguages = "B00006"
)

const (
	overloadMessage = "Due to high user requests, we are currently experiencing delays in our chatbot response times.\n \nPlease attempt your request again shortly."
	apologyMessage  = "Apologies for the inconvenience. Could you please try again later?"
)

// Translator is the translation gateway surface the driver needs.
type Translator interface {
	Detect(ctx context.Context, text string) (string, float64, error)
	Translate(ctx context.Context, text, to, from string) (string, error)
	TranslateOrPassthrough(ctx context.Context, text, to, from string) string
}

// Completer runs chat completions.
type Completer interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResult, error)
}

// Retriever is the retrieval engine surface the driver needs.
type Retriever interface {
	IntentSearch(ctx context.Context, q *models.Query) (*models.Document, error)
	Retrieve(ctx context.Context, q *models.Query) (*models.RetrievalResult, error)
}

// Recorder persists one answer record per turn.
type Recorder interface {
	Create(ctx context.Context, document interface{}) error
}

// SASProvider signs short-lived links for manual documents.
type SASProvider interface {
	SASURL(ctx context.Context, path string, expiry time.Duration) (string, error)
}

// LogFlusher ships a request's buffered log lines once its response is
// decided. Optional, a nil flusher disables log shipping.
type LogFlusher interface {
	Flush(ctx context.Context, q *models.Query, failed bool)
}

// Driver runs one chat turn end to end: language handling, intent
// short-circuit, refinement routing, retrieval, answer composition and
// persistence. A well-formed request always yields a response payload,
// failures degrade to a translated apology in the same shape.
type Driver struct {
	cfg        *config.Config
	translator Translator
	llm        Completer
	engine     Retriever
	composer   *compose.Composer
	historian  Historian
	recorder   Recorder
	web        SASProvider
	repos      *repository.RepositoryManager
	logs       LogFlusher
	logger     *logrus.Logger
}

func NewDriver(
	cfg *config.Config,
	translator Translator,
	completer Completer,
	engine Retriever,
	composer *compose.Composer,
	historian Historian,
	recorder Recorder,
	web SASProvider,
	repos *repository.RepositoryManager,
	logs LogFlusher,
	logger *logrus.Logger,
) *Driver {
	return &Driver{
		cfg:        cfg,
		translator: translator,
		llm:        completer,
		engine:     engine,
		composer:   composer,
		historian:  historian,
		recorder:   recorder,
		web:        web,
		repos:      repos,
		logs:       logs,
		logger:     logger,
	}
}

// turn collects everything one request produces before the final
// payload is assembled.
type turn struct {
	answer   string
	paa      string
	prompts  string
	thoughts string
	history  string
	result   *models.RetrievalResult
	refUsage *llm.CompletionResult
	ansUsage *llm.CompletionResult
}

// Handle runs the pipeline and never returns an error: degraded paths
// produce the same payload shape with empty citation fields.
func (d *Driver) Handle(ctx context.Context, req *models.ChatRequest) *models.ChatResponse {
	q := models.NewQuery(req)

	resp, err := d.run(ctx, q)
	if err == nil {
		d.flushLogs(ctx, q, false)
		return resp
	}

	if errors.Is(err, llm.ErrResourceExhausted) {
		d.logger.WithError(err).WithField("session", q.SessionKey()).Error("Resources exhausted")
	} else {
		d.logger.WithError(err).WithField("session", q.SessionKey()).Error("Chat pipeline failed")
	}

	message := apologyMessage
	if errors.Is(err, llm.ErrResourceExhausted) {
		message = overloadMessage
	}
	resp = d.degraded(ctx, q, message)
	d.flushLogs(ctx, q, true)
	return resp
}

func (d *Driver) flushLogs(ctx context.Context, q *models.Query, failed bool) {
	if d.logs != nil {
		d.logs.Flush(ctx, q, failed)
	}
}

func (d *Driver) run(ctx context.Context, q *models.Query) (*models.ChatResponse, error) {
	start := time.Now()

	if q.CurrentUser > d.cfg.Server.MaxConcurrent {
		return nil, fmt.Errorf("current users %d over cap %d: %w",
			q.CurrentUser, d.cfg.Server.MaxConcurrent, llm.ErrResourceExhausted)
	}

	if err := d.resolveLocale(q); err != nil {
		return nil, err
	}
	d.detectLanguage(ctx, q)
	q.TransQuestion = d.translator.TranslateOrPassthrough(ctx, q.Question, q.LanguageCode, q.DetectedLang)

	if q.ProductCode == "W/M" {
		q.ProductCode = "WM"
	}
	if q.ProductGroupCode == "" && q.ProductCode != "" {
		group, err := d.repos.ProductMaster.GroupCodeForProduct(q.ProductCode)
		if err != nil {
			return nil, fmt.Errorf("resolve product group for %s: %w", q.ProductCode, err)
		}
		q.ProductGroupCode = group
	}

	intentDoc, err := d.engine.IntentSearch(ctx, q)
	if err != nil {
		return nil, err
	}

	t := &turn{
		history: LoadHistory(ctx, d.historian, q, d.logger),
		result:  models.EmptyRetrievalResult(),
	}
	var ansStart time.Time

	switch {
	case intentDoc != nil:
		q.Flag = models.TypeGeneralInquiry
		q.Timings.IR = time.Since(start).Seconds()
		ansStart = time.Now()

		answer, err := d.translator.Translate(ctx, intentDoc.MainText, q.TargetLanguage(), "")
		if err != nil {
			return nil, fmt.Errorf("translate general-inquiry response: %w", err)
		}
		q.EventCode = intentDoc.EventCode
		q.Intent = intentDoc.Intent
		t.answer = answer
		t.result.Result = models.Pad([]models.Document{*intentDoc})

	default:
		refRes, err := d.llm.Complete(ctx, llm.CompletionRequest{
			System:   refine.SystemPrompt,
			Human:    refine.HumanPrompt,
			Question: q.TransQuestion,
			Variables: map[string]string{
				"chat":               t.history,
				"detectLang":         q.TargetLanguageName(),
				"error_code_list":    strings.Join(refine.KnownErrorCodes(q.ProductGroupCode, q.ProductCode), ", "),
				"product_group_name": refine.GroupName(q.ProductGroupCode, q.ProductCode),
			},
		})
		if err != nil {
			return nil, err
		}
		t.refUsage = refRes

		out := refine.Parse(refRes.Text)
		q.RefinedAnswer = refRes.Text
		q.RefinedQuery = out.RefinedQuery(q.TransQuestion)
		q.Keywords = out.Keywords
		q.Symptom = out.Symptom
		q.ModelNumber = out.ModelNumber
		q.ErrorCode = out.ErrorCode
		if q.ProductModelCode == "" && out.ModelNumber != "" && !strings.EqualFold(out.ModelNumber, "None") {
			q.ProductModelCode = strings.ToUpper(out.ModelNumber)
		}

		decision := refine.Decide(out, q.ProductGroupCode, q.ProductCode)
		q.Flag = decision.Flag
		q.Information = decision.Information
		q.Timings.Refinement = time.Since(start).Seconds()

		d.logger.WithFields(logrus.Fields{
			"session": q.SessionKey(),
			"flag":    decision.Flag,
			"device":  out.DeviceScore,
			"intent":  out.IntentionScore,
		}).Info("Refinement decided")

		if refine.IsFixed(decision.Flag) {
			ansStart = time.Now()
			canned, _ := refine.FixedAnswer(decision.Flag)
			t.answer = d.composer.TranslateFromEnglish(ctx, q, canned)
			q.EventCode = "FIX"
			q.Intent = "FIX"
			break
		}

		// RAG path. Broad groups search better without a product
		// filter, the group alone is selective enough.
		switch q.ProductGroupCode {
		case "REF", "TV", "WM":
			q.ProductCode = ""
		}

		irStart := time.Now()
		result, err := d.engine.Retrieve(ctx, q)
		if err != nil {
			return nil, err
		}
		t.result = result
		q.Timings.IR = time.Since(irStart).Seconds()

		ansStart = time.Now()
		answer, usage, prompts, err := d.composer.GenerateAnswer(ctx, q, t.history, result)
		if err != nil {
			return nil, err
		}
		t.ansUsage = usage
		t.prompts = prompts

		if answer.Solution != "Yes" {
			t.answer = d.composer.ApplySolutionFlag(ctx, q, answer, result)
			t.paa = answer.AdditionalQuestions
			q.Intent = "FIX"
		} else {
			t.paa = answer.AdditionalQuestions
			t.answer = d.composer.PostProcessAnswer(ctx, q, answer.Response, result, q.Information)
			q.Intent = "RAG"
		}
		q.Flag = refine.FlagRAG
		q.EventCode = "RAG"
	}

	t.thoughts = compose.Thoughts(t.prompts, q, t.history, t.result.PromptContext(), t.answer)
	q.Timings.Answer = time.Since(ansStart).Seconds()
	q.Timings.Total = q.Timings.IR + q.Timings.Refinement + q.Timings.Answer

	resp := d.buildResponse(ctx, q, t)
	d.persist(ctx, q, t, resp)
	return resp, nil
}

// resolveLocale fills the corp, language and index fields from the
// master tables. A locale the masters do not know is unanswerable and
// surfaces as the generic degraded response.
func (d *Driver) resolveLocale(q *models.Query) error {
	name, err := d.repos.CodeMaster.GetName(codeGroupLocaleLanguages, q.UserLanguageCode)
	if err != nil {
		return fmt.Errorf("language %s not in code master: %w", q.UserLanguageCode, err)
	}
	q.UserLanguageName = name

	corp, err := d.repos.CorpLanguage.GetByLocale(q.LocaleCode)
	if err != nil {
		return fmt.Errorf("locale %s not in corp map: %w", q.LocaleCode, err)
	}
	q.CorpCode = corp.CorpCode
	q.LanguageCode = corp.LanguageCode

	name, err = d.repos.CodeMaster.GetName(codeGroupLocaleLanguages, q.LanguageCode)
	if err != nil {
		return fmt.Errorf("language %s not in code master: %w", q.LanguageCode, err)
	}
	q.LanguageName = name

	q.ResolveIndexName()
	return nil
}

// detectLanguage fills the detected language fields. Detection is
// best-effort: any failure falls back to the user's selected language
// with a perfect score so translation targets stay deterministic.
func (d *Driver) detectLanguage(ctx context.Context, q *models.Query) {
	lang, score, err := d.translator.Detect(ctx, q.Question)
	if err == nil {
		if i := strings.Index(lang, "-"); i >= 0 {
			lang = lang[:i]
		}
		name, nerr := d.repos.CodeMaster.GetName(codeGroupDetectLanguages, lang)
		if nerr == nil {
			q.DetectedLang = lang
			q.DetectScore = score
			q.TransLanguage = name
			return
		}
		err = nerr
	}

	d.logger.WithError(err).WithField("session", q.SessionKey()).Warn("Language detection failed, using selected language")
	q.DetectedLang = q.UserLanguageCode
	q.DetectScore = 1.0
	q.TransLanguage = q.UserLanguageName
}

// degraded builds the apology payload. One best-effort re-detection
// and translation is attempted for the message itself; if that also
// fails the English apology goes out untranslated.
func (d *Driver) degraded(ctx context.Context, q *models.Query, message string) *models.ChatResponse {
	text := apologyMessage
	if lang, score, err := d.translator.Detect(ctx, q.Question); err == nil {
		if i := strings.Index(lang, "-"); i >= 0 {
			lang = lang[:i]
		}
		q.DetectedLang = lang
		q.DetectScore = score
		if translated, terr := d.translator.Translate(ctx, message, q.TargetLanguage(), "en"); terr == nil {
			text = strings.ReplaceAll(translated, "\n", "<br>")
		}
	}
	return emptyResponse(text)
}
