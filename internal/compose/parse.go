package compose

import (
	"encoding/json"
	"strings"

	"github.com/careline/chatbot-backend/pkg/utils"
)

// FallbackMessage is the safety-net reply used when the answer model
// output cannot be parsed at all, and also when retrieval found no
// documents to answer from.
const FallbackMessage = "I am constantly learning to assist you better. In the meantime, please click on the “Live Chat” button to connect with one of our agents who will be happy to help you."

// Answer is the parsed answer-model output.
type Answer struct {
	ResponseLanguage    string
	ResponseBody        []string
	Solution            string
	AdditionalQuestions string
	Response            string
}

type answerJSON struct {
	ResponseLanguage    string   `json:"response_language"`
	ResponseBody        []string `json:"response_body"`
	Solution            string   `json:"solution"`
	AdditionalQuestions []string `json:"additional_questions"`
}

// ParseAnswer applies the two-tier parse plus the fixed fallback. It
// never fails: malformed model output degrades, it does not error.
func ParseAnswer(raw string) *Answer {
	cleaned := strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(raw, "```json", ""), "```", ""))

	var parsed answerJSON
	if err := json.Unmarshal([]byte(cleaned), &parsed); err == nil && len(parsed.ResponseBody) > 0 {
		return &Answer{
			ResponseLanguage:    parsed.ResponseLanguage,
			ResponseBody:        parsed.ResponseBody,
			Solution:            parsed.Solution,
			AdditionalQuestions: strings.Join(parsed.AdditionalQuestions, " "),
			Response:            strings.Join(parsed.ResponseBody, "\n"),
		}
	}

	if a, ok := parseAnswerMarkers(cleaned); ok {
		return a
	}

	return &Answer{
		ResponseBody:        []string{FallbackMessage},
		Solution:            "No",
		AdditionalQuestions: "",
		Response:            FallbackMessage,
	}
}

func parseAnswerMarkers(text string) (*Answer, bool) {
	stripped := strings.ReplaceAll(strings.ReplaceAll(text, "{", ""), "}", "")
	if !strings.Contains(stripped, "response_body") {
		return nil, false
	}

	language := cleanScalar(utils.ExtractFirst(stripped, "response_language", "response_body"))
	body := cleanList(utils.ExtractFirst(stripped, "response_body", "solution"))
	if len(body) == 0 {
		return nil, false
	}

	solution := "No"
	if strings.Contains(utils.ExtractFirst(stripped, "solution", "additional_questions"), "Yes") {
		solution = "Yes"
	}

	questions := cleanList(utils.ExtractFirst(stripped, "additional_questions", ""))

	return &Answer{
		ResponseLanguage:    language,
		ResponseBody:        body,
		Solution:            solution,
		AdditionalQuestions: strings.Join(questions, " "),
		Response:            strings.Join(body, "\n"),
	}, true
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
