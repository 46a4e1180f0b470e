package refine

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/careline/chatbot-backend/pkg/utils"
)

// Routing flags produced by the refinement decision.
const (
	FlagFix1  = "FIX_1"
	FlagFix2  = "FIX_2"
	FlagFix3  = "FIX_3"
	FlagInfo1 = "INFO_1"
	FlagInfo2 = "INFO_2"
	FlagRAG   = "RAG"
)

// Canned replies for the fixed-answer flags, in English; the driver
// translates them to the user's language.
var fixedAnswers = map[string]string{
	FlagFix1: "I'm sorry that i can't understand your issue.\n\nCould you tell me in detail the issue or check Error Code on display window.\n\nThank you for your patience",
	FlagFix2: "It seems the product previously selected differs from your current query.\n\nPlease choose the relevant product again to ensure accurate assistance.",
	FlagFix3: "The Error Code identified in your query could not be verified.\n\nPlease check the Error Code on the display window.\n\nIf you require further assistance, click on the 'Live Chat' button to connect with one of our agents who will be happy to assist you.",
}

// FixedAnswer returns the canned reply for a fixed-answer flag.
func FixedAnswer(flag string) (string, bool) {
	answer, ok := fixedAnswers[flag]
	return answer, ok
}

// IsFixed reports whether a flag terminates the pipeline with a canned
// reply. INFO flags do not: they carry an advisory into the RAG path.
func IsFixed(flag string) bool {
	return strings.HasPrefix(flag, "FIX")
}

// Output is the structured refinement record parsed from the model.
type Output struct {
	ResponseLanguage    string
	DeviceScore         float64
	IntentionScore      float64
	Question            string
	AdditionalSentences []string
	Keywords            string
	Symptom             string
	ModelNumber         string
	ErrorCode           string
	Stopped             bool
}

// flexFloat tolerates scores arriving as numbers or quoted strings.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" || strings.EqualFold(s, "None") {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// flexString tolerates fields arriving as a string or a list, joining
// list members with commas.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*f = flexString(strings.Join(list, ","))
	return nil
}

type refinementJSON struct {
	ResponseLanguage string `json:"response_language"`
	Evaluation       struct {
		DeviceScore    flexFloat `json:"device_score"`
		IntentionScore flexFloat `json:"intention_score"`
	} `json:"evaluation"`
	Refinement struct {
		Question            string     `json:"question"`
		RefinedQuestion     string     `json:"refined_question"`
		AdditionalSentences []string   `json:"additional_sentences"`
		Keywords            string     `json:"keywords"`
		Symptom             string     `json:"symptom"`
		ModelNumber         flexString `json:"Model_Number"`
		ErrorCode           flexString `json:"Error_Code"`
	} `json:"refinement"`
}

// Parse turns the refinement model output into a structured record.
// Tier one is a strict JSON parse; tier two anchors on the field names
// and slices the text between them; when both fail the record is
// zero-scored and marked stopped so the decision yields a fixed answer.
func Parse(raw string) *Output {
	cleaned := strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(raw, "```json", ""), "```", ""))

	var parsed refinementJSON
	if err := json.Unmarshal([]byte(cleaned), &parsed); err == nil {
		question := parsed.Refinement.Question
		if question == "" {
			question = parsed.Refinement.RefinedQuestion
		}
		return &Output{
			ResponseLanguage:    parsed.ResponseLanguage,
			DeviceScore:         float64(parsed.Evaluation.DeviceScore),
			IntentionScore:      float64(parsed.Evaluation.IntentionScore),
			Question:            question,
			AdditionalSentences: parsed.Refinement.AdditionalSentences,
			Keywords:            parsed.Refinement.Keywords,
			Symptom:             parsed.Refinement.Symptom,
			ModelNumber:         string(parsed.Refinement.ModelNumber),
			ErrorCode:           string(parsed.Refinement.ErrorCode),
		}
	}

	if out, ok := parseMarkers(cleaned); ok {
		return out
	}

	return &Output{Stopped: true}
}

func parseMarkers(text string) (*Output, bool) {
	stripped := strings.ReplaceAll(strings.ReplaceAll(text, "{", ""), "}", "")

	deviceScore, err1 := parseScore(utils.ExtractFirst(stripped, "device_score", "intention_score"))
	intentionScore, err2 := parseScore(utils.ExtractFirst(stripped, "intention_score", "refinement"))
	if err1 != nil || err2 != nil {
		return nil, false
	}

	return &Output{
		DeviceScore:         deviceScore,
		IntentionScore:      intentionScore,
		Question:            cleanScalar(utils.ExtractFirst(stripped, "refined_question", "additional_sentences")),
		AdditionalSentences: cleanList(utils.ExtractFirst(stripped, "additional_sentences", "keywords")),
		Keywords:            cleanScalar(utils.ExtractFirst(stripped, "keywords", "symptom")),
		Symptom:             cleanScalar(utils.ExtractFirst(stripped, "symptom", "Model_Number")),
		ModelNumber:         cleanScalar(utils.ExtractFirst(stripped, "Model_Number", "Error_Code")),
		ErrorCode:           cleanScalar(utils.ExtractFirst(stripped, "Error_Code", "")),
	}, true
}

func parseScore(s string) (float64, error) {
	s = cleanScalar(strings.ReplaceAll(s, "None", "0.0"))
	return strconv.ParseFloat(s, 64)
}

func cleanScalar(s string) string {
	r := strings.NewReplacer(`"`, "", ":", "", "\n", "", ",", "")
	return strings.TrimSpace(r.Replace(s))
}

func cleanList(s string) []string {
	r := strings.NewReplacer("[", "", "]", "", `"`, "", ":", "", "    ", "")
	var items []string
	for _, item := range strings.Split(r.Replace(s), ",\n") {
		item = strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(item, "\n", ""), "\t", ""))
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

// RefinedQuery assembles the refined query string the retrieval engine
// vectorizes. The error-code marker line is appended only when a code
// was extracted; its presence flips retrieval into error-code mode.
func (o *Output) RefinedQuery(transQuestion string) string {
	question := o.Question
	if question == "" {
		question = transQuestion
	}
	keywords := defaultNone(o.Keywords)
	symptom := defaultNone(o.Symptom)

	additional := o.AdditionalSentences
	if additional == nil {
		additional = []string{"", "", ""}
	}

	q := "question: " + question +
		"\nadditional_questions: " + strings.Join(additional, "\n") +
		"\nkeywords: " + keywords +
		"\nsymptom: " + symptom
	if code := o.extractedCode(); code != "" {
		q += "\nretrieve_error_code: " + code
	}
	return q
}

func defaultNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}

func (o *Output) extractedCode() string {
	if o.ErrorCode == "" || strings.EqualFold(o.ErrorCode, "None") {
		return ""
	}
	return o.ErrorCode
}

// Decision is the routing outcome: which path the driver takes and the
// advisory text the composer prepends on the INFO paths.
type Decision struct {
	Flag        string
	Information string
}

// Decide applies the ordered decision rules to a parsed refinement.
func Decide(out *Output, groupCode, productCode string) Decision {
	if out.IntentionScore == 0.0 {
		return Decision{Flag: FlagFix1}
	}

	groupName := GroupName(groupCode, productCode)
	if out.DeviceScore == 0.0 {
		return Decision{
			Flag:        FlagInfo1,
			Information: fmt.Sprintf("It seems the product %s previously selected differs from your current query.\n\nI have done my best to answer your question, though it might not be suitable.\n========", groupName),
		}
	}

	if code := out.extractedCode(); code != "" && !VerifyErrorCode(groupCode, productCode, code) {
		return Decision{
			Flag:        FlagInfo2,
			Information: fmt.Sprintf("The Error Code [%s] identified in your query could not be verified.\n\nI have done my best to answer your question, though it might not be suitable.\n========", code),
		}
	}

	return Decision{Flag: FlagRAG}
}
