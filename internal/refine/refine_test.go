package refine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRefinement = "```json\n{\n" +
	`  "response_language": "English",
  "evaluation": {"device_score": 0.9, "intention_score": 0.8},
  "refinement": {
    "question": "Washing machine makes loud noise during spin",
    "additional_sentences": ["Why is my washer noisy?", "How do I stop washer vibration?", "Is a noisy spin cycle dangerous?"],
    "keywords": "noise, spin, vibration",
    "symptom": "loud noise during spin cycle",
    "Model_Number": "F4V909WTS",
    "Error_Code": "None"
  }
}` + "\n```"

func TestParse_StrictJSON(t *testing.T) {
	out := Parse(sampleRefinement)

	require.NotNil(t, out)
	assert.False(t, out.Stopped)
	assert.Equal(t, "English", out.ResponseLanguage)
	assert.Equal(t, 0.9, out.DeviceScore)
	assert.Equal(t, 0.8, out.IntentionScore)
	assert.Equal(t, "Washing machine makes loud noise during spin", out.Question)
	assert.Len(t, out.AdditionalSentences, 3)
	assert.Equal(t, "noise, spin, vibration", out.Keywords)
	assert.Equal(t, "F4V909WTS", out.ModelNumber)
	assert.Equal(t, "None", out.ErrorCode)
}

func TestParse_ScoresAsStrings(t *testing.T) {
	raw := `{"evaluation": {"device_score": "0.5", "intention_score": "1"}, "refinement": {"question": "q"}}`
	out := Parse(raw)

	assert.Equal(t, 0.5, out.DeviceScore)
	assert.Equal(t, 1.0, out.IntentionScore)
}

func TestParse_ModelNumberAsList(t *testing.T) {
	raw := `{"evaluation": {"device_score": 1, "intention_score": 1}, "refinement": {"question": "q", "Model_Number": ["A1", "B2"]}}`
	out := Parse(raw)

	assert.Equal(t, "A1,B2", out.ModelNumber)
}

func TestParse_MarkerFallback(t *testing.T) {
	// Truncated model output that no longer parses as JSON
	raw := `"response_language": "English",
"device_score": 0.7,
"intention_score": 0.9,
"refinement":
"refined_question": "Fridge is not cooling",
"additional_sentences": ["Why is my fridge warm?",
"How cold should a fridge be?"],
"keywords": "cooling, temperature",
"symptom": "not cooling",
"Model_Number": "None",
"Error_Code": "None"`

	out := Parse(raw)

	require.False(t, out.Stopped)
	assert.Equal(t, 0.7, out.DeviceScore)
	assert.Equal(t, 0.9, out.IntentionScore)
	assert.Equal(t, "Fridge is not cooling", out.Question)
	assert.Equal(t, "cooling temperature", out.Keywords)
	assert.Equal(t, "not cooling", out.Symptom)
}

func TestParse_Garbage(t *testing.T) {
	out := Parse("I cannot help with that.")

	assert.True(t, out.Stopped)
	assert.Zero(t, out.IntentionScore)
}

func TestRefinedQuery(t *testing.T) {
	out := &Output{
		Question:            "washer noisy",
		AdditionalSentences: []string{"a", "b", "c"},
		Keywords:            "noise",
		Symptom:             "loud spin",
	}

	q := out.RefinedQuery("ignored")

	assert.Contains(t, q, "question: washer noisy")
	assert.Contains(t, q, "additional_questions: a\nb\nc")
	assert.Contains(t, q, "keywords: noise")
	assert.Contains(t, q, "symptom: loud spin")
	assert.NotContains(t, q, "retrieve_error_code")
}

func TestRefinedQuery_ErrorCodeMarker(t *testing.T) {
	out := &Output{Question: "q", ErrorCode: "IE"}

	assert.Contains(t, out.RefinedQuery(""), "\nretrieve_error_code: IE")
}

func TestRefinedQuery_FallsBackToTranslatedQuestion(t *testing.T) {
	out := &Output{}

	q := out.RefinedQuery("original question")

	assert.True(t, strings.HasPrefix(q, "question: original question"))
	assert.Contains(t, q, "keywords: None")
	assert.Contains(t, q, "symptom: None")
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name     string
		out      *Output
		group    string
		product  string
		wantFlag string
	}{
		{
			name:     "no intention yields fix",
			out:      &Output{IntentionScore: 0},
			group:    "WM",
			product:  "WM",
			wantFlag: FlagFix1,
		},
		{
			name:     "stopped parse yields fix",
			out:      &Output{Stopped: true},
			group:    "WM",
			product:  "WM",
			wantFlag: FlagFix1,
		},
		{
			name:     "device mismatch yields product advisory",
			out:      &Output{IntentionScore: 0.9, DeviceScore: 0},
			group:    "REF",
			product:  "REF",
			wantFlag: FlagInfo1,
		},
		{
			name:     "unknown error code yields code advisory",
			out:      &Output{IntentionScore: 0.9, DeviceScore: 0.9, ErrorCode: "ZZ99"},
			group:    "WM",
			product:  "WM",
			wantFlag: FlagInfo2,
		},
		{
			name:     "known error code passes through",
			out:      &Output{IntentionScore: 0.9, DeviceScore: 0.9, ErrorCode: "IE"},
			group:    "WM",
			product:  "W/M",
			wantFlag: FlagRAG,
		},
		{
			name:     "clean refinement goes to rag",
			out:      &Output{IntentionScore: 1, DeviceScore: 1},
			group:    "TV",
			product:  "TV",
			wantFlag: FlagRAG,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.out, tt.group, tt.product)
			assert.Equal(t, tt.wantFlag, d.Flag)
			if strings.HasPrefix(d.Flag, "INFO") {
				assert.NotEmpty(t, d.Information)
			} else {
				assert.Empty(t, d.Information)
			}
		})
	}
}

func TestDecide_AdvisoryNamesProduct(t *testing.T) {
	d := Decide(&Output{IntentionScore: 1, DeviceScore: 0}, "REF", "REF")

	assert.Contains(t, d.Information, "Refrigerator")
}

func TestIsFixed(t *testing.T) {
	assert.True(t, IsFixed(FlagFix1))
	assert.True(t, IsFixed(FlagFix3))
	assert.False(t, IsFixed(FlagInfo1))
	assert.False(t, IsFixed(FlagRAG))
}

func TestFixedAnswer(t *testing.T) {
	for _, flag := range []string{FlagFix1, FlagFix2, FlagFix3} {
		answer, ok := FixedAnswer(flag)
		assert.True(t, ok)
		assert.NotEmpty(t, answer)
	}

	_, ok := FixedAnswer(FlagRAG)
	assert.False(t, ok)
}

func TestVerifyErrorCode(t *testing.T) {
	assert.True(t, VerifyErrorCode("WM", "WM", ""))
	assert.True(t, VerifyErrorCode("WM", "WM", "None"))
	assert.True(t, VerifyErrorCode("WM", "WM", "IE"))
	assert.True(t, VerifyErrorCode("WM", "WM", "ie"))
	assert.True(t, VerifyErrorCode("WM", "WM", "IE, OE"))
	assert.False(t, VerifyErrorCode("WM", "WM", "IE, ZZ99"))
	assert.False(t, VerifyErrorCode("WM", "WM", "ZZ99"))

	// Substring containment: CH verifies against the CHxx family
	assert.True(t, VerifyErrorCode("ACN", "WRA", "CH"))
}

func TestKnownErrorCodes_Precedence(t *testing.T) {
	// Group+product entry wins over the group entry
	dryer := KnownErrorCodes("WM", "DRR")
	assert.Contains(t, dryer, "EHE")

	// Group entry when no group+product entry exists
	fridge := KnownErrorCodes("REF", "REF")
	assert.Contains(t, fridge, "FF")

	// Product entry when the group is unknown
	microwave := KnownErrorCodes("COK", "MWO")
	assert.Contains(t, microwave, "E-01")

	assert.Nil(t, KnownErrorCodes("XX", "YY"))
}

func TestGroupName(t *testing.T) {
	assert.Equal(t, "WashingMachine", GroupName("WM", "WM"))
	assert.Equal(t, "Laundry Dryer", GroupName("WM", "DRR"))
	assert.Equal(t, "Refrigerator", GroupName("REF", "REF"))
	assert.Equal(t, "Appliances - Air Cleaner", GroupName("XXX", "ACL"))
}
