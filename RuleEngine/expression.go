package RuleEngine

import (
	"fmt"
	"strconv"
	"strings"
)

// Completion rules are restricted to comparisons of the single variable
// "value" against a literal, optionally joined by && and grouped with
// parentheses:
//
//	expr       := term { "&&" term }
//	term       := "(" expr ")" | comparison
//	comparison := "value" op literal
//	op         := ">=" | "<=" | ">" | "<" | "==" | "!="
//
// Rule strings are persisted data authored through the admin API, so they
// are never executed; they are parsed into comparison nodes and evaluated
// directly.

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokOp
	tokAnd
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	num  float64
}

func isIdentChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func tokenize(src string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '(':
			tokens = append(tokens, token{kind: tokLParen, text: "("})
			i++
		case c == ')':
			tokens = append(tokens, token{kind: tokRParen, text: ")"})
			i++
		case c == '&':
			if i+1 < len(src) && src[i+1] == '&' {
				tokens = append(tokens, token{kind: tokAnd, text: "&&"})
				i += 2
			} else {
				return nil, fmt.Errorf("unexpected '&' at position %d: %w", i, ErrInvalidRuleSyntax)
			}
		case c == '>' || c == '<':
			op := string(c)
			i++
			if i < len(src) && src[i] == '=' {
				op += "="
				i++
			}
			tokens = append(tokens, token{kind: tokOp, text: op})
		case c == '=' || c == '!':
			if i+1 < len(src) && src[i+1] == '=' {
				tokens = append(tokens, token{kind: tokOp, text: string(c) + "="})
				i += 2
			} else {
				return nil, fmt.Errorf("unexpected %q at position %d: %w", string(c), i, ErrInvalidRuleSyntax)
			}
		case c == '\'' || c == '"':
			quote := c
			j := i + 1
			for j < len(src) && src[j] != quote {
				j++
			}
			if j >= len(src) {
				return nil, fmt.Errorf("unterminated string at position %d: %w", i, ErrInvalidRuleSyntax)
			}
			tokens = append(tokens, token{kind: tokString, text: src[i+1 : j]})
			i = j + 1
		case isDigit(c) || c == '.' || (c == '-' && i+1 < len(src) && (isDigit(src[i+1]) || src[i+1] == '.')):
			j := i + 1
			for j < len(src) && (isDigit(src[j]) || src[j] == '.') {
				j++
			}
			num, err := strconv.ParseFloat(src[i:j], 64)
			if err != nil {
				return nil, fmt.Errorf("malformed number %q: %w", src[i:j], ErrInvalidRuleSyntax)
			}
			tokens = append(tokens, token{kind: tokNumber, text: src[i:j], num: num})
			i = j
		case isIdentChar(c):
			j := i + 1
			for j < len(src) && (isIdentChar(src[j]) || isDigit(src[j])) {
				j++
			}
			tokens = append(tokens, token{kind: tokIdent, text: src[i:j]})
			i = j
		default:
			return nil, fmt.Errorf("unexpected character %q at position %d: %w", string(c), i, ErrInvalidRuleSyntax)
		}
	}
	tokens = append(tokens, token{kind: tokEOF})
	return tokens, nil
}

type litKind int

const (
	litNumber litKind = iota
	litBool
	litString
)

type literal struct {
	kind litKind
	num  float64
	str  string
}

type node interface {
	eval(value float64) (bool, error)
}

type andNode struct {
	left, right node
}

func (n andNode) eval(value float64) (bool, error) {
	left, err := n.left.eval(value)
	if err != nil {
		return false, err
	}
	if !left {
		return false, nil
	}
	return n.right.eval(value)
}

type cmpNode struct {
	op  string
	lit literal
}

func (n cmpNode) eval(value float64) (bool, error) {
	if n.lit.kind == litString {
		return false, fmt.Errorf("cannot compare numeric value with string %q: %w", n.lit.str, ErrTypeMismatch)
	}
	lit := n.lit.num
	switch n.op {
	case ">=":
		return value >= lit, nil
	case "<=":
		return value <= lit, nil
	case ">":
		return value > lit, nil
	case "<":
		return value < lit, nil
	case "==":
		return value == lit, nil
	case "!=":
		return value != lit, nil
	}
	return false, fmt.Errorf("unknown operator %q: %w", n.op, ErrInvalidRuleSyntax)
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) parseExpr() (node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokAnd {
		p.next()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = andNode{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseTerm() (node, error) {
	if p.peek().kind == tokLParen {
		p.next()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.next().kind != tokRParen {
			return nil, fmt.Errorf("missing closing parenthesis: %w", ErrInvalidRuleSyntax)
		}
		return expr, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (node, error) {
	tok := p.next()
	if tok.kind != tokIdent || tok.text != "value" {
		return nil, fmt.Errorf("expected \"value\", got %q: %w", tok.text, ErrInvalidRuleSyntax)
	}
	op := p.next()
	if op.kind != tokOp {
		return nil, fmt.Errorf("expected comparison operator, got %q: %w", op.text, ErrInvalidRuleSyntax)
	}
	lit, err := p.parseLiteral()
	if err != nil {
		return nil, err
	}
	return cmpNode{op: op.text, lit: lit}, nil
}

func (p *parser) parseLiteral() (literal, error) {
	tok := p.next()
	switch tok.kind {
	case tokNumber:
		return literal{kind: litNumber, num: tok.num}, nil
	case tokString:
		return literal{kind: litString, str: tok.text}, nil
	case tokIdent:
		switch tok.text {
		case "true":
			return literal{kind: litBool, num: 1}, nil
		case "false":
			return literal{kind: litBool, num: 0}, nil
		}
		return literal{}, fmt.Errorf("unknown identifier %q: %w", tok.text, ErrInvalidRuleSyntax)
	}
	return literal{}, fmt.Errorf("expected literal, got %q: %w", tok.text, ErrInvalidRuleSyntax)
}

// Rule is a parsed completion rule, ready for repeated evaluation.
type Rule struct {
	src  string
	root node
}

// ParseRule parses a completion rule against the comparison grammar.
func ParseRule(src string) (*Rule, error) {
	if strings.TrimSpace(src) == "" {
		return nil, fmt.Errorf("empty rule: %w", ErrInvalidRuleSyntax)
	}
	tokens, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if trailing := p.peek(); trailing.kind != tokEOF {
		return nil, fmt.Errorf("unexpected %q after expression: %w", trailing.text, ErrInvalidRuleSyntax)
	}
	return &Rule{src: src, root: root}, nil
}

// Eval evaluates the rule against a recorded value. Boolean inputs are
// coerced to 0/1 before they reach this point.
func (r *Rule) Eval(value float64) (bool, error) {
	return r.root.eval(value)
}

func (r *Rule) String() string {
	return r.src
}

// EvaluateCompletionRule parses and evaluates a rule in one step.
func EvaluateCompletionRule(value float64, rule string) (bool, error) {
	parsed, err := ParseRule(rule)
	if err != nil {
		return false, err
	}
	return parsed.Eval(value)
}

// ValidateRule is the parse-only check used when task types are created
// or edited, so rule authoring defects surface immediately.
func ValidateRule(rule string) error {
	_, err := ParseRule(rule)
	return err
}
