package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatAnswer_BoldsSectionHeaders(t *testing.T) {
	out := FormatAnswer("Try the following:\n- Unplug the unit\n- Wait ten minutes")

	assert.Contains(t, out, "<strong>Try the following:</strong>")
	assert.Contains(t, out, "- Unplug the unit<br>- Wait ten minutes")
}

func TestFormatAnswer_HeaderNotice(t *testing.T) {
	// Two consecutive ":"-terminated lines mark a notice; the first
	// loses its colon so it renders as plain text, not a bold header.
	out := FormatAnswer("Before you start:\nCheck these items:\n- Power cord")

	assert.Contains(t, out, "Before you start<br>")
	assert.Contains(t, out, "<strong>Check these items:</strong>")
}

func TestFormatAnswer_FooterNotice(t *testing.T) {
	out := FormatAnswer("Steps:\n- Reset the breaker\nContact support if the issue persists.")

	assert.Contains(t, out, "<br>Contact support if the issue persists.")
}

func TestFormatAnswer_PlainText(t *testing.T) {
	assert.Equal(t, "Just a sentence.", FormatAnswer("Just a sentence."))
}

func TestStartsNumbered(t *testing.T) {
	assert.True(t, startsNumbered("1. First step"))
	assert.True(t, startsNumbered("12. Later step"))
	assert.False(t, startsNumbered("First step"))
	assert.False(t, startsNumbered(""))
	assert.False(t, startsNumbered("a. lettered"))
}

func TestRemoveDuplicates_KeepsPositions(t *testing.T) {
	in := []string{"Manual A", "Manual B", "Manual A"}

	assert.Equal(t, []string{"Manual A", "Manual B", ""}, RemoveDuplicates(in))
}

func TestRemoveDuplicates_AllBlank(t *testing.T) {
	// The first empty entry is kept, repeats of it are blanked anyway
	assert.Equal(t, []string{"", "", ""}, RemoveDuplicates([]string{"", "", ""}))
}

func TestPAAList(t *testing.T) {
	paa := "1. How do I clean the filter? 2. Why does the drum smell? 3. What cycle is quietest?"

	got := PAAList(paa)

	assert.Equal(t, "How do I clean the filter?", got[0])
	assert.Equal(t, "Why does the drum smell?", got[1])
	assert.Equal(t, "What cycle is quietest?", got[2])
}

func TestPAAList_Empty(t *testing.T) {
	assert.Equal(t, []string{"", "", ""}, PAAList(""))
}

func TestPAAList_NoneBecomesBlank(t *testing.T) {
	got := PAAList("anything without markers")

	assert.Equal(t, []string{"", "", ""}, got)
}

func TestRemoveEmojis(t *testing.T) {
	assert.Equal(t, "Fixed! ", RemoveEmojis("Fixed! 🎉"))
	assert.Equal(t, "no emoji here", RemoveEmojis("no emoji here"))
}
