package compose

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/careline/chatbot-backend/pkg/utils"
)

// FormatAnswer converts the plain-text answer into the HTML the client
// renders. Three passes: a forward scan marking the first header-style
// notice, a backward scan breaking a trailing notice off the final
// list, then bolding of section headers. The two scans are independent
// and each stops at its first qualifying line.
func FormatAnswer(answer string) string {
	lines := strings.Split(answer, "\n")

	// A header notice is a ":"-terminated line directly followed by
	// another one. Its colon is dropped so the bold pass skips it.
	for i := 0; i < len(lines); i++ {
		if !strings.HasSuffix(lines[i], ":") {
			continue
		}
		if i+1 >= len(lines) {
			break
		}
		if strings.HasSuffix(lines[i+1], ":") {
			if i == 0 {
				lines[i] = lines[i][:len(lines[i])-1]
			} else {
				lines[i] = "<br>" + lines[i][:len(lines[i])-1]
			}
			break
		}
	}

	// Scanning backward, the first bullet or numbered line marks the
	// end of a closing list; the line after it is a footer notice.
	for i := len(lines) - 1; i > 0; i-- {
		if !strings.Contains(lines[i], "-") && !startsNumbered(lines[i]) {
			continue
		}
		if i+1 >= len(lines) || strings.TrimSpace(lines[i+1]) == "" {
			continue
		}
		next := strings.TrimSpace(lines[i+1])
		if !strings.HasPrefix(next, "-") && !startsNumbered(next) {
			lines[i+1] = "<br>" + lines[i+1]
		}
		break
	}

	var pretty strings.Builder
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasSuffix(line, ":") {
			pretty.WriteString("\n<strong>" + line + "</strong>\n")
		} else {
			pretty.WriteString(line + "\n")
		}
	}

	out := strings.TrimSpace(pretty.String())
	return strings.ReplaceAll(out, "\n", "<br>")
}

// startsNumbered reports whether the line starts with an enumeration
// like "1." or "12.".
func startsNumbered(line string) bool {
	head, _, _ := strings.Cut(strings.TrimSpace(line), ".")
	if head == "" {
		return false
	}
	for _, r := range head {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// RemoveDuplicates blanks repeated entries instead of removing them so
// positions stay aligned with the parallel score list.
func RemoveDuplicates(list []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(list))
	for _, item := range list {
		if seen[item] {
			result = append(result, "")
		} else {
			seen[item] = true
			result = append(result, item)
		}
	}
	return result
}

// PAAList splits the follow-up suggestions into the three display
// slots, anchored on the "1." "2." "3." enumeration markers.
func PAAList(paa string) []string {
	if paa == "" {
		return []string{"", "", ""}
	}
	return []string{
		strings.ReplaceAll(utils.ExtractFirst(paa, "1.", "2."), "None", ""),
		strings.ReplaceAll(utils.ExtractFirst(paa, "2.", "3."), "None", ""),
		strings.ReplaceAll(utils.ExtractFirst(paa, "3.", ""), "None", ""),
	}
}

var emojiPattern = regexp.MustCompile(`[\x{1F600}-\x{1F64F}\x{1F300}-\x{1F5FF}\x{1F680}-\x{1F6FF}\x{1F700}-\x{1F77F}\x{1F780}-\x{1F7FF}\x{1F800}-\x{1F8FF}\x{1F900}-\x{1F9FF}\x{1FA00}-\x{1FA6F}\x{1FA70}-\x{1FAFF}\x{2702}-\x{27B0}\x{24C2}-\x{1F251}]`)

// RemoveEmojis strips emoji before text lands in the analytics row.
func RemoveEmojis(text string) string {
	return emojiPattern.ReplaceAllString(text, "")
}
