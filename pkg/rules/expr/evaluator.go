package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-typeform/pkg/value"
)

// ErrEmpty is returned when compiling a blank expression.
var ErrEmpty = errors.New("rules/expr: empty expression")

// Expression is a compiled rule expression.
//
// Supported syntax:
//   - truthiness: `newsletter`, `!newsletter`
//   - comparisons against literals: `age < 18`, `plan == "pro"`, `end != null`
//   - comparisons between fields: `password != confirm`, `start > end`
//   - composition: `a && (b || !c)`
//
// Identifiers are dotted value paths (`owner.email`, `items.0.qty`,
// `items[0].qty`). A missing path reads as null. A bare identifier on the right
// hand side refers to a field when that path exists and is a string literal
// otherwise. String literals compared with a date field are parsed as RFC 3339
// or YYYY-MM-DD.
type Expression struct {
	src  string
	root exprNode
	refs []string
}

// Compile parses src once for repeated evaluation.
func Compile(src string) (*Expression, error) {
	trimmed := strings.TrimSpace(src)
	if trimmed == "" {
		return nil, ErrEmpty
	}
	tokens, err := tokenize(trimmed)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, ErrEmpty
	}
	root, err := parseExpression(tokens)
	if err != nil {
		return nil, err
	}

	var refs []string
	seen := map[string]bool{}
	for _, tok := range tokens {
		if tok.kind == tokenIdentifier && !seen[tok.raw] {
			seen[tok.raw] = true
			refs = append(refs, tok.raw)
		}
	}
	return &Expression{src: trimmed, root: root, refs: refs}, nil
}

// MustCompile is Compile for expressions known to be valid. It panics on error.
func MustCompile(src string) *Expression {
	e, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return e
}

// Eval compiles and evaluates src in one step.
func Eval(src string, values value.Value) (bool, error) {
	e, err := Compile(src)
	if err != nil {
		return false, err
	}
	return e.Eval(values)
}

// String returns the source text.
func (e *Expression) String() string { return e.src }

// Identifiers lists the identifiers the expression mentions, in order of
// first appearance. Right hand side identifiers are included even when they
// end up read as string literals.
func (e *Expression) Identifiers() []string {
	return append([]string(nil), e.refs...)
}

// Eval evaluates the expression against values.
func (e *Expression) Eval(values value.Value) (bool, error) {
	return e.root.eval(values)
}

type tokenKind int

const (
	tokenIdentifier tokenKind = iota
	tokenString
	tokenNumber
	tokenBool
	tokenNull
	tokenEq
	tokenNeq
	tokenLt
	tokenLte
	tokenGt
	tokenGte
	tokenAnd
	tokenOr
	tokenNot
	tokenLParen
	tokenRParen
)

type token struct {
	kind tokenKind
	raw  string
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	i := 0

	next := func() byte {
		if i >= len(input) {
			return 0
		}
		return input[i]
	}

	consume := func() byte {
		if i >= len(input) {
			return 0
		}
		ch := input[i]
		i++
		return ch
	}

	for i < len(input) {
		ch := next()
		if ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' {
			i++
			continue
		}

		switch ch {
		case '(':
			consume()
			tokens = append(tokens, token{kind: tokenLParen, raw: "("})
			continue
		case ')':
			consume()
			tokens = append(tokens, token{kind: tokenRParen, raw: ")"})
			continue
		case '!':
			consume()
			if next() == '=' {
				consume()
				tokens = append(tokens, token{kind: tokenNeq, raw: "!="})
				continue
			}
			tokens = append(tokens, token{kind: tokenNot, raw: "!"})
			continue
		case '<', '>':
			consume()
			kind, raw := tokenLt, "<"
			if ch == '>' {
				kind, raw = tokenGt, ">"
			}
			if next() == '=' {
				consume()
				kind++
				raw += "="
			}
			tokens = append(tokens, token{kind: kind, raw: raw})
			continue
		case '=':
			consume()
			if next() != '=' {
				return nil, fmt.Errorf("rules/expr: unexpected '='; use '=='")
			}
			consume()
			tokens = append(tokens, token{kind: tokenEq, raw: "=="})
			continue
		case '&':
			consume()
			if next() != '&' {
				return nil, fmt.Errorf("rules/expr: unexpected '&'; use '&&'")
			}
			consume()
			tokens = append(tokens, token{kind: tokenAnd, raw: "&&"})
			continue
		case '|':
			consume()
			if next() != '|' {
				return nil, fmt.Errorf("rules/expr: unexpected '|'; use '||'")
			}
			consume()
			tokens = append(tokens, token{kind: tokenOr, raw: "||"})
			continue
		case '"', '\'':
			quote := consume()
			start := i
			escaped := false
			closed := false
			for i < len(input) {
				c := consume()
				if escaped {
					escaped = false
					continue
				}
				if c == '\\' {
					escaped = true
					continue
				}
				if c == quote {
					body := input[start : i-1]
					if quote == '\'' {
						body = strings.ReplaceAll(strings.ReplaceAll(body, `\'`, `'`), `"`, `\"`)
					}
					text, err := strconv.Unquote(`"` + body + `"`)
					if err != nil {
						return nil, fmt.Errorf("rules/expr: invalid string literal: %w", err)
					}
					tokens = append(tokens, token{kind: tokenString, raw: text})
					closed = true
					break
				}
			}
			if !closed {
				return nil, errors.New("rules/expr: unterminated string literal")
			}
			continue
		}

		// identifier / number / keyword
		start := i
		for i < len(input) {
			c := input[i]
			if strings.IndexByte(" \t\n\r()!=&|<>", c) >= 0 {
				break
			}
			i++
		}
		raw := input[start:i]
		switch strings.ToLower(raw) {
		case "true", "false":
			tokens = append(tokens, token{kind: tokenBool, raw: strings.ToLower(raw)})
		case "null", "nil":
			tokens = append(tokens, token{kind: tokenNull, raw: "null"})
		default:
			if looksLikeNumber(raw) {
				tokens = append(tokens, token{kind: tokenNumber, raw: raw})
			} else {
				tokens = append(tokens, token{kind: tokenIdentifier, raw: raw})
			}
		}
	}

	return tokens, nil
}

func looksLikeNumber(raw string) bool {
	if raw == "" {
		return false
	}
	ch := raw[0]
	return (ch >= '0' && ch <= '9') || ch == '-' || ch == '+' || ch == '.'
}

type exprNode interface {
	eval(values value.Value) (bool, error)
}

type exprOr struct {
	left  exprNode
	right exprNode
}

func (n exprOr) eval(values value.Value) (bool, error) {
	ok, err := n.left.eval(values)
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}
	return n.right.eval(values)
}

type exprAnd struct {
	left  exprNode
	right exprNode
}

func (n exprAnd) eval(values value.Value) (bool, error) {
	ok, err := n.left.eval(values)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return n.right.eval(values)
}

type exprNot struct {
	inner exprNode
}

func (n exprNot) eval(values value.Value) (bool, error) {
	ok, err := n.inner.eval(values)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

type literalKind int

const (
	litString literalKind = iota
	litNumber
	litBool
	litNull
	litField
)

type literal struct {
	kind literalKind
	raw  string
}

type exprCompare struct {
	identifier string
	op         tokenKind
	literal    literal
}

func (n exprCompare) eval(values value.Value) (bool, error) {
	got := lookup(values, n.identifier)

	lit := n.literal
	if lit.kind == litField {
		other, ok := value.Get(values, lit.raw)
		if ok {
			return n.compareValues(got, other)
		}
		lit = literal{kind: litString, raw: lit.raw}
	}

	switch lit.kind {
	case litNull:
		switch n.op {
		case tokenEq:
			return got.IsNull(), nil
		case tokenNeq:
			return !got.IsNull(), nil
		}
		return false, n.unsupported("null")
	case litBool:
		want := lit.raw == "true"
		switch n.op {
		case tokenEq:
			return coerceBool(got) == want, nil
		case tokenNeq:
			return coerceBool(got) != want, nil
		}
		return false, n.unsupported("bool")
	case litNumber:
		want, err := strconv.ParseFloat(lit.raw, 64)
		if err != nil {
			return false, fmt.Errorf("rules/expr: invalid number literal %q", lit.raw)
		}
		return n.order(compareFloat(coerceNumber(got), want)), nil
	case litString:
		if got.Kind() == value.KindDate {
			want, err := parseDate(lit.raw)
			if err != nil {
				return false, err
			}
			return n.order(got.AsDate().Compare(want)), nil
		}
		return n.order(strings.Compare(coerceString(got), lit.raw)), nil
	default:
		return false, fmt.Errorf("rules/expr: unsupported literal")
	}
}

func (n exprCompare) compareValues(a, b value.Value) (bool, error) {
	switch {
	case a.Kind() == value.KindNumber && b.Kind() == value.KindNumber:
		return n.order(compareFloat(a.AsNumber(), b.AsNumber())), nil
	case a.Kind() == value.KindDate && b.Kind() == value.KindDate:
		return n.order(a.AsDate().Compare(b.AsDate())), nil
	case a.Kind() == value.KindString && b.Kind() == value.KindString:
		return n.order(strings.Compare(a.AsString(), b.AsString())), nil
	}
	switch n.op {
	case tokenEq:
		return value.Equal(a, b), nil
	case tokenNeq:
		return !value.Equal(a, b), nil
	}
	return false, fmt.Errorf("rules/expr: cannot order %s and %s in %q", a.Kind(), b.Kind(), n.identifier)
}

// order maps a three-way comparison result onto the operator.
func (n exprCompare) order(c int) bool {
	switch n.op {
	case tokenEq:
		return c == 0
	case tokenNeq:
		return c != 0
	case tokenLt:
		return c < 0
	case tokenLte:
		return c <= 0
	case tokenGt:
		return c > 0
	case tokenGte:
		return c >= 0
	}
	return false
}

func (n exprCompare) unsupported(kind string) error {
	return fmt.Errorf("rules/expr: unsupported operator %q for %s literal", opString(n.op), kind)
}

func opString(op tokenKind) string {
	switch op {
	case tokenEq:
		return "=="
	case tokenNeq:
		return "!="
	case tokenLt:
		return "<"
	case tokenLte:
		return "<="
	case tokenGt:
		return ">"
	case tokenGte:
		return ">="
	default:
		return "?"
	}
}

type exprTruthy struct {
	identifier string
}

func (n exprTruthy) eval(values value.Value) (bool, error) {
	return truthy(lookup(values, n.identifier)), nil
}

type tokenStream struct {
	tokens []token
	pos    int
}

func parseExpression(tokens []token) (exprNode, error) {
	stream := &tokenStream{tokens: tokens}
	node, err := parseOr(stream)
	if err != nil {
		return nil, err
	}
	if stream.pos < len(stream.tokens) {
		return nil, fmt.Errorf("rules/expr: unexpected token %q", stream.tokens[stream.pos].raw)
	}
	return node, nil
}

func parseOr(stream *tokenStream) (exprNode, error) {
	left, err := parseAnd(stream)
	if err != nil {
		return nil, err
	}
	for stream.match(tokenOr) {
		right, err := parseAnd(stream)
		if err != nil {
			return nil, err
		}
		left = exprOr{left: left, right: right}
	}
	return left, nil
}

func parseAnd(stream *tokenStream) (exprNode, error) {
	left, err := parseUnary(stream)
	if err != nil {
		return nil, err
	}
	for stream.match(tokenAnd) {
		right, err := parseUnary(stream)
		if err != nil {
			return nil, err
		}
		left = exprAnd{left: left, right: right}
	}
	return left, nil
}

func parseUnary(stream *tokenStream) (exprNode, error) {
	if stream.match(tokenNot) {
		inner, err := parseUnary(stream)
		if err != nil {
			return nil, err
		}
		return exprNot{inner: inner}, nil
	}
	return parsePrimary(stream)
}

func parsePrimary(stream *tokenStream) (exprNode, error) {
	if stream.match(tokenLParen) {
		inner, err := parseOr(stream)
		if err != nil {
			return nil, err
		}
		if !stream.match(tokenRParen) {
			return nil, errors.New("rules/expr: missing closing ')'")
		}
		return inner, nil
	}

	ident, ok := stream.consume(tokenIdentifier)
	if !ok {
		if stream.pos >= len(stream.tokens) {
			return nil, ErrEmpty
		}
		return nil, fmt.Errorf("rules/expr: expected identifier, got %q", stream.tokens[stream.pos].raw)
	}

	for _, op := range []tokenKind{tokenEq, tokenNeq, tokenLt, tokenLte, tokenGt, tokenGte} {
		if stream.match(op) {
			lit, err := stream.consumeLiteral()
			if err != nil {
				return nil, err
			}
			return exprCompare{identifier: ident.raw, op: op, literal: lit}, nil
		}
	}

	return exprTruthy{identifier: ident.raw}, nil
}

func (s *tokenStream) match(kind tokenKind) bool {
	if s.pos >= len(s.tokens) {
		return false
	}
	if s.tokens[s.pos].kind != kind {
		return false
	}
	s.pos++
	return true
}

func (s *tokenStream) consume(kind tokenKind) (token, bool) {
	if s.pos >= len(s.tokens) {
		return token{}, false
	}
	if s.tokens[s.pos].kind != kind {
		return token{}, false
	}
	out := s.tokens[s.pos]
	s.pos++
	return out, true
}

func (s *tokenStream) consumeLiteral() (literal, error) {
	if s.pos >= len(s.tokens) {
		return literal{}, errors.New("rules/expr: missing literal")
	}
	tok := s.tokens[s.pos]
	s.pos++
	switch tok.kind {
	case tokenString:
		return literal{kind: litString, raw: tok.raw}, nil
	case tokenNumber:
		return literal{kind: litNumber, raw: tok.raw}, nil
	case tokenBool:
		return literal{kind: litBool, raw: tok.raw}, nil
	case tokenNull:
		return literal{kind: litNull, raw: "null"}, nil
	case tokenIdentifier:
		return literal{kind: litField, raw: tok.raw}, nil
	default:
		return literal{}, fmt.Errorf("rules/expr: expected literal, got %q", tok.raw)
	}
}

func lookup(values value.Value, path string) value.Value {
	v, ok := value.Get(values, path)
	if !ok {
		return value.Null()
	}
	return v
}

func truthy(v value.Value) bool {
	switch v.Kind() {
	case value.KindBool:
		return v.AsBool()
	case value.KindString:
		return strings.TrimSpace(v.AsString()) != ""
	case value.KindNumber:
		return v.AsNumber() != 0
	case value.KindDate:
		return !v.AsDate().IsZero()
	case value.KindArray, value.KindObject:
		return v.Len() > 0
	default:
		return false
	}
}

func coerceBool(v value.Value) bool {
	if v.Kind() == value.KindString {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(v.AsString())); err == nil {
			return parsed
		}
	}
	return truthy(v)
}

func coerceNumber(v value.Value) float64 {
	switch v.Kind() {
	case value.KindNumber:
		return v.AsNumber()
	case value.KindString:
		n, err := strconv.ParseFloat(strings.TrimSpace(v.AsString()), 64)
		if err != nil {
			return 0
		}
		return n
	case value.KindBool:
		if v.AsBool() {
			return 1
		}
		return 0
	case value.KindArray, value.KindObject:
		return float64(v.Len())
	default:
		return 0
	}
}

func coerceString(v value.Value) string {
	switch v.Kind() {
	case value.KindNull:
		return ""
	case value.KindString:
		return v.AsString()
	case value.KindNumber:
		return value.FormatNumber(v.AsNumber())
	case value.KindDate:
		return v.AsDate().Format(time.RFC3339)
	default:
		return v.String()
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("rules/expr: %q is not a date", raw)
}
