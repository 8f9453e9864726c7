package query

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// specialChars are the characters forbidden in a tag/value name unless
// escaped with '\', per spec.md §4.3.
const specialChars = `\()!=<>`

// keywordSeparators mirrors the original nom grammar's peek(one_of(" ()")):
// an operator keyword is only recognized when immediately followed by a
// literal space, '(' or ')' (not an arbitrary whitespace rune, nor EOF).
const keywordSeparators = " ()"

// Parse parses a query expression per spec.md §4.3. Whitespace-only input
// yields (nil, nil) (the "absent expression"); the parser must otherwise
// consume the entire input, or a *ParseError is returned.
func Parse(input string) (Expression, error) {
	p := &parser{runes: []rune(input)}
	p.skipWS()
	if p.atEnd() {
		return nil, nil
	}

	expr, err := p.parseOr()
	if err != nil {
		return nil, wrapParseError(input, err)
	}
	p.skipWS()
	if !p.atEnd() {
		return nil, &ParseError{Input: input, Message: "unexpected trailing input: " + string(p.runes[p.pos:])}
	}
	return expr, nil
}

// ParseError reports a malformed query expression.
type ParseError struct {
	Input   string
	Message string
}

func (e *ParseError) Error() string {
	return "could not parse query '" + e.Input + "': " + e.Message
}

type parser struct {
	runes []rune
	pos   int
}

func (p *parser) atEnd() bool { return p.pos >= len(p.runes) }

func (p *parser) peek() (rune, bool) {
	if p.atEnd() {
		return 0, false
	}
	return p.runes[p.pos], true
}

func (p *parser) skipWS() {
	for !p.atEnd() && unicode.IsSpace(p.runes[p.pos]) {
		p.pos++
	}
}

// matchKeyword consumes keyword (case-sensitive, only the all-lowercase or
// all-uppercase form) when followed by a keywordSeparators rune, without
// consuming the separator. It does not advance on failure.
func (p *parser) matchKeyword(keyword string) bool {
	lower := strings.ToLower(keyword)
	upper := strings.ToUpper(keyword)
	remaining := string(p.runes[p.pos:])
	var matchLen int
	if strings.HasPrefix(remaining, lower) {
		matchLen = len(lower)
	} else if strings.HasPrefix(remaining, upper) {
		matchLen = len(upper)
	} else {
		return false
	}
	rest := remaining[matchLen:]
	if rest == "" || !strings.ContainsRune(keywordSeparators, rune(rest[0])) {
		return false
	}
	p.pos += len([]rune(lower))
	return true
}

// peekKeyword reports whether keyword would match at the current position,
// without consuming it.
func (p *parser) peekKeyword(keyword string) bool {
	save := p.pos
	matched := p.matchKeyword(keyword)
	p.pos = save
	return matched
}

// parseOr implements Or := And (WS "or" WS And)*, folded right-associatively.
func (p *parser) parseOr() (Expression, error) {
	first, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	terms := []Expression{first}
	for {
		save := p.pos
		p.skipWS()
		if !p.matchKeyword("or") {
			p.pos = save
			break
		}
		p.skipWS()
		next, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		terms = append(terms, next)
	}
	return foldRightOr(terms), nil
}

func foldRightOr(terms []Expression) Expression {
	result := terms[len(terms)-1]
	for i := len(terms) - 2; i >= 0; i-- {
		result = Or{Left: terms[i], Right: result}
	}
	return result
}

func foldRightAnd(terms []Expression) Expression {
	result := terms[len(terms)-1]
	for i := len(terms) - 2; i >= 0; i-- {
		result = And{Left: terms[i], Right: result}
	}
	return result
}

// parseAnd implements And := Operand (WS ("and" WS)? Operand)*.
func (p *parser) parseAnd() (Expression, error) {
	first, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	terms := []Expression{first}
	for {
		save := p.pos
		p.skipWS()

		if p.atEnd() {
			break
		}
		if ch, _ := p.peek(); ch == ')' {
			p.pos = save
			break
		}
		if p.peekKeyword("or") {
			p.pos = save
			break
		}

		explicitAnd := p.matchKeyword("and")
		if explicitAnd {
			p.skipWS()
		}

		operand, err := p.parseOperand()
		if err != nil {
			if explicitAnd {
				return nil, err
			}
			p.pos = save
			break
		}
		terms = append(terms, operand)
	}
	return foldRightAnd(terms), nil
}

// parseOperand implements Operand := Parens | Not | Comparison | TagName.
func (p *parser) parseOperand() (Expression, error) {
	p.skipWS()
	if ch, ok := p.peek(); ok && ch == '(' {
		return p.parseParens()
	}
	if p.matchKeyword("not") {
		return p.parseNot()
	}
	return p.parseTagOrComparison()
}

// parseParens implements Parens := "(" WS Full WS ")".
func (p *parser) parseParens() (Expression, error) {
	p.pos++ // consume '('
	p.skipWS()
	if ch, ok := p.peek(); ok && ch == ')' {
		return nil, &ParseError{Message: "empty parenthesized expression"}
	}
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	p.skipWS()
	if ch, ok := p.peek(); !ok || ch != ')' {
		return nil, &ParseError{Message: "expected closing ')'"}
	}
	p.pos++ // consume ')'
	return expr, nil
}

// parseNot implements Not := "not" Space (TagName | Comparison | Parens).
// The "not" keyword itself was already consumed by the caller.
func (p *parser) parseNot() (Expression, error) {
	if p.atEnd() || !unicode.IsSpace(p.runes[p.pos]) {
		return nil, &ParseError{Message: "'not' must be followed by whitespace"}
	}
	p.skipWS()

	var operand Expression
	var err error
	if ch, ok := p.peek(); ok && ch == '(' {
		operand, err = p.parseParens()
	} else {
		operand, err = p.parseTagOrComparison()
	}
	if err != nil {
		return nil, err
	}
	return Not{Operand: operand}, nil
}

// keywordOperators maps a lowercase operator keyword to its Operator value.
var keywordOperators = map[string]Operator{
	"eq": Equal, "ne": NotEqual,
	"lt": LessThan, "le": LessOrEqual,
	"gt": GreaterThan, "ge": GreaterOrEqual,
}

// symbolOperators is checked longest-prefix-first.
var symbolOperators = []struct {
	symbol string
	op     Operator
}{
	{"==", Equal}, {"!=", NotEqual}, {"<=", LessOrEqual}, {">=", GreaterOrEqual},
	{"=", Equal}, {"<", LessThan}, {">", GreaterThan},
}

// parseTagOrComparison implements TagName and Comparison (they share a
// left-hand TagName production, disambiguated by what follows).
func (p *parser) parseTagOrComparison() (Expression, error) {
	name, err := p.parseTagName()
	if err != nil {
		return nil, err
	}

	// Symbol operators never require surrounding whitespace, but may still
	// be preceded by optional whitespace (e.g. "c = 2" as well as "c=2").
	if op, ok := p.matchSymbolOperator(); ok {
		p.skipWS()
		value, err := p.parseTagName()
		if err != nil {
			return nil, err
		}
		return Comparison{Tag: name, Op: op, Value: value}, nil
	}

	save := p.pos
	p.skipWS()
	if op, ok := p.matchSymbolOperator(); ok {
		p.skipWS()
		value, err := p.parseTagName()
		if err != nil {
			return nil, err
		}
		return Comparison{Tag: name, Op: op, Value: value}, nil
	}
	// Keyword operators require whitespace (or a boundary like parens)
	// around them.
	for kw, op := range keywordOperators {
		if p.matchKeyword(kw) {
			p.skipWS()
			value, err := p.parseTagName()
			if err != nil {
				return nil, err
			}
			return Comparison{Tag: name, Op: op, Value: value}, nil
		}
	}
	p.pos = save

	return Tag{Name: name}, nil
}

// matchSymbolOperator consumes the longest matching symbol operator at the
// current position, if any.
func (p *parser) matchSymbolOperator() (Operator, bool) {
	remaining := string(p.runes[p.pos:])
	for _, so := range symbolOperators {
		if strings.HasPrefix(remaining, so.symbol) {
			p.pos += len([]rune(so.symbol))
			return so.op, true
		}
	}
	return 0, false
}

// parseTagName implements TagName := (EscapedChar | ¬Special ¬WS)+, with
// the reserved-keyword check comparing consumed input length against the
// keyword length (so that "\or" is not rejected, only "or").
func (p *parser) parseTagName() (string, error) {
	start := p.pos
	var sb strings.Builder
	for !p.atEnd() {
		ch := p.runes[p.pos]
		if ch == '\\' {
			p.pos++
			if p.atEnd() {
				// Trailing lone backslash: dropped silently (legacy, spec.md §9 open question a).
				break
			}
			sb.WriteRune(p.runes[p.pos])
			p.pos++
			continue
		}
		if strings.ContainsRune(specialChars, ch) || unicode.IsSpace(ch) {
			break
		}
		sb.WriteRune(ch)
		p.pos++
	}
	consumed := p.pos - start
	value := sb.String()
	if value == "" {
		return "", &ParseError{Message: "expected a tag name"}
	}
	if isReservedToken(value, consumed) {
		return "", &ParseError{Message: "'" + value + "' is a reserved keyword and cannot be used as a tag or value name"}
	}
	return value, nil
}

var reservedTokens = map[string]bool{
	"and": true, "or": true, "not": true,
	"eq": true, "ne": true, "lt": true, "le": true, "gt": true, "ge": true,
}

// isReservedToken reports whether value (with consumedLen raw source
// characters behind it) is an unescaped occurrence of a reserved keyword,
// in either all-lowercase or all-uppercase form.
func isReservedToken(value string, consumedLen int) bool {
	lower := strings.ToLower(value)
	if !reservedTokens[lower] {
		return false
	}
	if value != lower && value != strings.ToUpper(value) {
		return false // mixed case, e.g. "AnD", is allowed
	}
	return consumedLen == len([]rune(value))
}

// wrapParseError attaches the original query text to a *ParseError raised
// deep in the recursive descent, for a caller that wants the full context.
func wrapParseError(input string, err error) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		pe.Input = input
		return pe
	}
	return err
}
