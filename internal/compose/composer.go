package compose

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/careline/chatbot-backend/internal/llm"
	"github.com/careline/chatbot-backend/internal/models"
)

// Completer runs one chat completion against the language model gateway.
type Completer interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResult, error)
}

// Translator converts text between languages. from may be empty, in
// which case the service detects the source itself.
type Translator interface {
	Translate(ctx context.Context, text, to, from string) (string, error)
}

// Composer turns retrieved documents into the final customer answer.
type Composer struct {
	llm        Completer
	translator Translator
	logger     *logrus.Logger
}

func NewComposer(completer Completer, translator Translator, logger *logrus.Logger) *Composer {
	return &Composer{
		llm:        completer,
		translator: translator,
		logger:     logger,
	}
}

// GenerateAnswer runs the answer completion over the merged retrieval
// view and parses the model output. The returned string is the raw
// prompt pair, kept for the debug trail.
func (c *Composer) GenerateAnswer(ctx context.Context, q *models.Query, history string, result *models.RetrievalResult) (*Answer, *llm.CompletionResult, string, error) {
	res, err := c.llm.Complete(ctx, llm.CompletionRequest{
		System:    SystemPrompt,
		Human:     HumanPrompt,
		Question:  q.TransQuestion,
		Documents: result.PromptContext(),
		Variables: map[string]string{
			"chat":       history,
			"detectLang": q.TargetLanguageName(),
		},
	})
	if err != nil {
		return nil, nil, "", err
	}

	c.logger.WithFields(logrus.Fields{
		"session":           q.SessionKey(),
		"prompt_tokens":     res.PromptTokens,
		"completion_tokens": res.CompletionTokens,
	}).Info("Answer completion finished")

	return ParseAnswer(res.Text), res, SystemPrompt + HumanPrompt, nil
}

// ApplySolutionFlag handles completions the model marked as unresolved.
// Follow-up questions are dropped, the merged result view is blanked to
// placeholders and the raw response is translated for the user.
func (c *Composer) ApplySolutionFlag(ctx context.Context, q *models.Query, a *Answer, result *models.RetrievalResult) string {
	a.AdditionalQuestions = ""
	result.Result = models.Pad(nil)
	return c.TranslateFromEnglish(ctx, q, a.Response)
}

// PostProcessAnswer finalizes a resolved answer. With no retrieved
// documents the answer is replaced by the live-chat handoff message;
// an advisory from refinement is translated and prepended.
func (c *Composer) PostProcessAnswer(ctx context.Context, q *models.Query, answer string, result *models.RetrievalResult, advisory string) string {
	if !result.HasDocuments() {
		return c.TranslateFromEnglish(ctx, q, FallbackMessage)
	}
	if advisory != "" {
		advisory = c.TranslateFromEnglish(ctx, q, advisory)
		return "[Inform]\n\n" + advisory + "\n\n" + answer
	}
	return answer
}

// TranslateFromEnglish translates service-authored English text into
// the user's language. English questions skip translation entirely.
// On failure the text is retried toward English, then passed through.
func (c *Composer) TranslateFromEnglish(ctx context.Context, q *models.Query, text string) string {
	if q.DetectedLang == "en" {
		return text
	}

	target := q.TargetLanguage()
	translated, err := c.translator.Translate(ctx, text, target, "en")
	if err == nil {
		return translated
	}
	c.logger.WithError(err).WithField("to", target).Warn("Translation failed, retrying toward English")

	translated, err = c.translator.Translate(ctx, text, "en", "")
	if err == nil {
		return translated
	}
	c.logger.WithError(err).Warn("Fallback translation failed, passing text through")
	return text
}

// Thoughts renders the prompt trail returned to the client for the
// debug view. Angle brackets are squared so prompt text is not taken
// for markup, and section separators get line breaks of their own.
func Thoughts(prompts string, q *models.Query, history, documents, answer string) string {
	s := strings.ReplaceAll(prompts, "{chat}", history)
	s = strings.ReplaceAll(s, "{context}", documents)
	s = strings.ReplaceAll(s, "{question}", q.Question)
	s = strings.ReplaceAll(s, "{detectLang}", q.TargetLanguageName())
	s = strings.ReplaceAll(s, "<", "[")
	s = strings.ReplaceAll(s, ">", "]")
	s = strings.ReplaceAll(s, "==============", "<br>==============<br>")
	return s + answer
}
