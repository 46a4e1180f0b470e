package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender_Eq(t *testing.T) {
	assert.Equal(t, "type eq 'manual'", Render(Eq("type", "manual")))
}

func TestRender_EscapesQuotes(t *testing.T) {
	assert.Equal(t, "title eq 'won''t start'", Render(Eq("title", "won't start")))
}

func TestRender_And(t *testing.T) {
	got := Render(And(Eq("type", "manual"), Eq("iso_cd", "US")))

	assert.Equal(t, "(type eq 'manual' and iso_cd eq 'US')", got)
}

func TestRender_Or(t *testing.T) {
	got := Render(Or(Eq("type", "contents"), Eq("type", "microsites")))

	assert.Equal(t, "(type eq 'contents' or type eq 'microsites')", got)
}

func TestRender_SingleMemberUnwrapped(t *testing.T) {
	assert.Equal(t, "type eq 'spec'", Render(And(Eq("type", "spec"))))
}

func TestRender_SkipsNilMembers(t *testing.T) {
	got := Render(And(Eq("type", "manual"), nil, Eq("iso_cd", "US")))

	assert.Equal(t, "(type eq 'manual' and iso_cd eq 'US')", got)
}

func TestRender_In(t *testing.T) {
	got := Render(In("data_id", []string{"a1", "b2"}))

	assert.Equal(t, "search.in(data_id, 'a1,b2', ',')", got)
}

func TestRender_InStripsCommas(t *testing.T) {
	got := Render(In("data_id", []string{"a,1"}))

	assert.Equal(t, "search.in(data_id, 'a1', ',')", got)
}

func TestRender_Nil(t *testing.T) {
	assert.Equal(t, "", Render(nil))
}

func TestRender_Nested(t *testing.T) {
	got := Render(And(
		Eq("prod_g_cd", "WM"),
		Or(Eq("prod_cd", "WM"), Eq("prod_cd", "DRR")),
	))

	assert.Equal(t, "(prod_g_cd eq 'WM' and (prod_cd eq 'WM' or prod_cd eq 'DRR'))", got)
}
