package expr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
)

// Evaluate resolves an expression against a runtime snapshot.
// It never fails: malformed input evaluates to false, empty input to true.
func Evaluate(expression string, state domain.RuntimeState) bool {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return true
	}

	p := &parser{tokens: tokenize(expression), state: state}
	result, err := p.parseOr()
	if err != nil || !p.atEnd() {
		return false
	}
	return result
}

// --- Tokenizer ---

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokNumber
	tokString
	tokOp     // == != >= <= > < && || !
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
}

func tokenize(src string) []token {
	var tokens []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			tokens = append(tokens, token{tokLParen, "("})
			i++
		case c == ')':
			tokens = append(tokens, token{tokRParen, ")"})
			i++
		case c == '\'' || c == '"':
			quote := c
			j := i + 1
			for j < len(src) && src[j] != quote {
				j++
			}
			tokens = append(tokens, token{tokString, src[i+1 : j]})
			i = j + 1
		case strings.HasPrefix(src[i:], "&&"), strings.HasPrefix(src[i:], "||"),
			strings.HasPrefix(src[i:], "=="), strings.HasPrefix(src[i:], "!="),
			strings.HasPrefix(src[i:], ">="), strings.HasPrefix(src[i:], "<="):
			tokens = append(tokens, token{tokOp, src[i : i+2]})
			i += 2
		case c == '>' || c == '<' || c == '!':
			tokens = append(tokens, token{tokOp, string(c)})
			i++
		case c >= '0' && c <= '9' || c == '-' && i+1 < len(src) && src[i+1] >= '0' && src[i+1] <= '9':
			j := i + 1
			for j < len(src) && (src[j] >= '0' && src[j] <= '9' || src[j] == '.') {
				j++
			}
			tokens = append(tokens, token{tokNumber, src[i:j]})
			i = j
		case isIdentChar(c):
			j := i
			for j < len(src) && isIdentChar(src[j]) {
				j++
			}
			tokens = append(tokens, token{tokIdent, src[i:j]})
			i = j
		default:
			// Unknown byte: emit as an operator token the parser will
			// reject, keeping the evaluator total.
			tokens = append(tokens, token{tokOp, string(c)})
			i++
		}
	}
	return tokens
}

func isIdentChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '.'
}

// --- Parser / evaluator ---

type parser struct {
	tokens []token
	pos    int
	state  domain.RuntimeState
}

func (p *parser) atEnd() bool { return p.pos >= len(p.tokens) }

func (p *parser) peek() (token, bool) {
	if p.atEnd() {
		return token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) acceptOp(ops ...string) (string, bool) {
	tok, ok := p.peek()
	if !ok || tok.kind != tokOp {
		return "", false
	}
	for _, op := range ops {
		if tok.text == op {
			p.pos++
			return op, true
		}
	}
	return "", false
}

func (p *parser) parseOr() (bool, error) {
	left, err := p.parseAnd()
	if err != nil {
		return false, err
	}
	for {
		if _, ok := p.acceptOp("||"); !ok {
			return left, nil
		}
		right, err := p.parseAnd()
		if err != nil {
			return false, err
		}
		left = left || right
	}
}

func (p *parser) parseAnd() (bool, error) {
	left, err := p.parseUnary()
	if err != nil {
		return false, err
	}
	for {
		if _, ok := p.acceptOp("&&"); !ok {
			return left, nil
		}
		right, err := p.parseUnary()
		if err != nil {
			return false, err
		}
		left = left && right
	}
}

func (p *parser) parseUnary() (bool, error) {
	if _, ok := p.acceptOp("!"); ok {
		inner, err := p.parseUnary()
		return !inner, err
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (bool, error) {
	if tok, ok := p.peek(); ok && tok.kind == tokLParen {
		p.pos++
		inner, err := p.parseOr()
		if err != nil {
			return false, err
		}
		if tok, ok := p.peek(); !ok || tok.kind != tokRParen {
			return false, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return inner, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (bool, error) {
	left, err := p.parseValue()
	if err != nil {
		return false, err
	}
	op, ok := p.acceptOp("==", "!=", ">=", "<=", ">", "<")
	if !ok {
		return truthy(left), nil
	}
	right, err := p.parseValue()
	if err != nil {
		return false, err
	}
	return compare(left, op, right), nil
}

// value is the resolved form of an atom. missing marks an identifier with
// no backing data; it compares unequal to everything and is falsy.
type value struct {
	data    any
	missing bool
}

func (p *parser) parseValue() (value, error) {
	tok, ok := p.peek()
	if !ok {
		return value{}, fmt.Errorf("unexpected end of expression")
	}
	p.pos++

	switch tok.kind {
	case tokNumber:
		n, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return value{}, fmt.Errorf("invalid number %q", tok.text)
		}
		return value{data: n}, nil
	case tokString:
		return value{data: tok.text}, nil
	case tokIdent:
		return p.resolveIdent(tok.text), nil
	default:
		return value{}, fmt.Errorf("unexpected token %q", tok.text)
	}
}

func (p *parser) resolveIdent(name string) value {
	switch strings.ToLower(name) {
	case "true":
		return value{data: true}
	case "false":
		return value{data: false}
	case "success":
		return value{data: p.state.Status == domain.StatusRunning}
	case "failure":
		return value{data: p.state.Status == domain.StatusFailed}
	case "status":
		return value{data: string(p.state.Status)}
	case "iteration_count":
		return value{data: float64(p.state.IterationCount)}
	case "build.success":
		return p.outputValue("build_success")
	case "test.success":
		return p.outputValue("test_success")
	}

	if key, ok := strings.CutPrefix(name, "output."); ok {
		return p.outputValue(key)
	}
	return p.outputValue(name)
}

func (p *parser) outputValue(key string) value {
	v, ok := p.state.OutputData[key]
	if !ok {
		return value{missing: true}
	}
	return value{data: v}
}

// --- Semantics ---

func truthy(v value) bool {
	if v.missing {
		return false
	}
	switch d := v.data.(type) {
	case bool:
		return d
	case string:
		return d != "" && !strings.EqualFold(d, "false") && d != "0"
	case nil:
		return false
	default:
		if n, ok := asNumber(v.data); ok {
			return n != 0
		}
		return true
	}
}

func compare(left value, op string, right value) bool {
	// Missing identifiers are never equal to anything.
	if left.missing || right.missing {
		return op == "!=" && left.missing != right.missing
	}

	ln, lok := asNumber(left.data)
	rn, rok := asNumber(right.data)
	if lok && rok {
		switch op {
		case "==":
			return ln == rn
		case "!=":
			return ln != rn
		case ">=":
			return ln >= rn
		case "<=":
			return ln <= rn
		case ">":
			return ln > rn
		case "<":
			return ln < rn
		}
	}

	// Ordered comparison on non-numeric values is false, not an error:
	// the evaluator stays total.
	ls := stringify(left.data)
	rs := stringify(right.data)
	switch op {
	case "==":
		return ls == rs
	case "!=":
		return ls != rs
	}
	return false
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	case nil:
		return ""
	default:
		if n, ok := asNumber(v); ok {
			return strconv.FormatFloat(n, 'f', -1, 64)
		}
		return fmt.Sprintf("%v", v)
	}
}
