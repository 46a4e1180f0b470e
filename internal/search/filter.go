package search

import (
	"strings"
)

// Filter expressions are built from typed nodes and rendered once at
// query time. Values are escaped during rendering, never interpolated
// by callers.

type Expr interface {
	render(b *strings.Builder)
}

type eqExpr struct {
	field string
	value string
}

type andExpr struct {
	exprs []Expr
}

type orExpr struct {
	exprs []Expr
}

type inExpr struct {
	field  string
	values []string
}

// Eq matches documents whose field equals value exactly.
func Eq(field, value string) Expr {
	return eqExpr{field: field, value: value}
}

// And joins expressions conjunctively. Nil members are skipped.
func And(exprs ...Expr) Expr {
	return andExpr{exprs: compact(exprs)}
}

// Or joins expressions disjunctively. Nil members are skipped.
func Or(exprs ...Expr) Expr {
	return orExpr{exprs: compact(exprs)}
}

// In matches documents whose field equals any of values, using the
// service's comma-list membership function.
func In(field string, values []string) Expr {
	return inExpr{field: field, values: values}
}

// Render serializes an expression to the service's filter grammar.
// A nil expression renders to "".
func Render(e Expr) string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	e.render(&b)
	return b.String()
}

func (e eqExpr) render(b *strings.Builder) {
	b.WriteString(e.field)
	b.WriteString(" eq '")
	b.WriteString(escape(e.value))
	b.WriteString("'")
}

func (e andExpr) render(b *strings.Builder) {
	renderJoined(b, e.exprs, " and ")
}

func (e orExpr) render(b *strings.Builder) {
	renderJoined(b, e.exprs, " or ")
}

func (e inExpr) render(b *strings.Builder) {
	b.WriteString("search.in(")
	b.WriteString(e.field)
	b.WriteString(", '")
	for i, v := range e.values {
		if i > 0 {
			b.WriteString(",")
		}
		// Commas are the list delimiter and cannot appear in members.
		b.WriteString(strings.ReplaceAll(escape(v), ",", ""))
	}
	b.WriteString("', ',')")
}

func renderJoined(b *strings.Builder, exprs []Expr, sep string) {
	switch len(exprs) {
	case 0:
		return
	case 1:
		exprs[0].render(b)
		return
	}
	b.WriteString("(")
	for i, e := range exprs {
		if i > 0 {
			b.WriteString(sep)
		}
		e.render(b)
	}
	b.WriteString(")")
}

func compact(exprs []Expr) []Expr {
	out := exprs[:0]
	for _, e := range exprs {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

// escape doubles single quotes per the filter grammar's string rules.
func escape(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
