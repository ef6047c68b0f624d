// Package target parses cargo's dependency-target strings — either a bare
// platform triple or a `cfg(...)` predicate expression — and evaluates them
// against the current build's triple and cfg atoms.
package target

import (
	"fmt"
	"strings"
)

// Info describes the build a Predicate is evaluated against: the platform
// triple and the set of cfg atoms rustc would report for it. An atom with no
// value (e.g. "unix") is a bare flag; an atom with a value is recorded as
// `key="value"` (no surrounding spaces), matching rustc --print=cfg output.
type Info struct {
	Triple string
	Cfgs   []string
}

func (info Info) hasAtom(key, value string) bool {
	want := key
	if value != "" {
		want = fmt.Sprintf(`%s="%s"`, key, value)
	}
	for _, c := range info.Cfgs {
		if c == want {
			return true
		}
	}
	return false
}

// kind enumerates the shapes a parsed Predicate can take.
type kind int

const (
	kindTriple kind = iota
	kindAtom
	kindAll
	kindAny
	kindNot
)

// Predicate is a parsed `[target.'cfg(...)'.dependencies]`-style expression,
// or a bare platform triple. A nil *Predicate always satisfies (absent
// target = unconditional dependency).
type Predicate struct {
	kind     kind
	triple   string
	key      string
	value    string
	children []*Predicate
}

// Parse parses a dependency's raw target string, as it appears in cargo
// metadata's `dependencies[].target` field. An empty string denotes no
// predicate (the dependency applies unconditionally) and returns (nil, nil).
func Parse(raw string) (*Predicate, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if strings.HasPrefix(raw, "cfg(") {
		if !strings.HasSuffix(raw, ")") {
			return nil, fmt.Errorf("malformed cfg() expression %q: missing closing paren", raw)
		}
		inner := raw[len("cfg(") : len(raw)-1]
		p := &parser{toks: lex(inner)}
		pred, err := p.parsePredicate()
		if err != nil {
			return nil, fmt.Errorf("cfg(%s): %w", inner, err)
		}
		if p.peek().kind != tokEOF {
			return nil, fmt.Errorf("cfg(%s): unexpected trailing input", inner)
		}
		return pred, nil
	}
	return &Predicate{kind: kindTriple, triple: raw}, nil
}

// Satisfies reports whether p holds against info. A nil predicate always
// satisfies.
func (p *Predicate) Satisfies(info Info) bool {
	if p == nil {
		return true
	}
	switch p.kind {
	case kindTriple:
		return p.triple == info.Triple
	case kindAtom:
		return info.hasAtom(p.key, p.value)
	case kindAll:
		for _, c := range p.children {
			if !c.Satisfies(info) {
				return false
			}
		}
		return true
	case kindAny:
		for _, c := range p.children {
			if c.Satisfies(info) {
				return true
			}
		}
		return false
	case kindNot:
		return !p.children[0].Satisfies(info)
	default:
		return false
	}
}

// --- tokenizer ---

type tokKind int

const (
	tokEOF tokKind = iota
	tokIdent
	tokString
	tokLParen
	tokRParen
	tokComma
	tokEq
)

type token struct {
	kind tokKind
	val  string
}

func lex(s string) []token {
	var toks []token
	r := []rune(s)
	i := 0
	for i < len(r) {
		c := r[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '(':
			toks = append(toks, token{tokLParen, "("})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")"})
			i++
		case c == ',':
			toks = append(toks, token{tokComma, ","})
			i++
		case c == '=':
			toks = append(toks, token{tokEq, "="})
			i++
		case c == '"':
			j := i + 1
			for j < len(r) && r[j] != '"' {
				j++
			}
			toks = append(toks, token{tokString, string(r[i+1 : j])})
			i = j + 1
		case isIdentRune(c):
			j := i
			for j < len(r) && isIdentRune(r[j]) {
				j++
			}
			toks = append(toks, token{tokIdent, string(r[i:j])})
			i = j
		default:
			i++
		}
	}
	toks = append(toks, token{tokEOF, ""})
	return toks
}

func isIdentRune(c rune) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// --- parser ---

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) expect(k tokKind) (token, error) {
	t := p.next()
	if t.kind != k {
		return t, fmt.Errorf("unexpected token %q", t.val)
	}
	return t, nil
}

// parsePredicate parses one cfg() inner expression: a bare atom, a
// key = "value" atom, or a all(...)/any(...)/not(...) combinator.
func (p *parser) parsePredicate() (*Predicate, error) {
	name, err := p.expect(tokIdent)
	if err != nil {
		return nil, err
	}

	if p.peek().kind == tokLParen {
		p.next()
		var children []*Predicate
		for {
			child, err := p.parsePredicate()
			if err != nil {
				return nil, err
			}
			children = append(children, child)
			if p.peek().kind == tokComma {
				p.next()
				continue
			}
			break
		}
		if _, err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		switch name.val {
		case "all":
			return &Predicate{kind: kindAll, children: children}, nil
		case "any":
			return &Predicate{kind: kindAny, children: children}, nil
		case "not":
			if len(children) != 1 {
				return nil, fmt.Errorf("not() takes exactly one argument")
			}
			return &Predicate{kind: kindNot, children: children}, nil
		default:
			return nil, fmt.Errorf("unknown cfg combinator %q", name.val)
		}
	}

	if p.peek().kind == tokEq {
		p.next()
		str, err := p.expect(tokString)
		if err != nil {
			return nil, err
		}
		return &Predicate{kind: kindAtom, key: name.val, value: str.val}, nil
	}

	return &Predicate{kind: kindAtom, key: name.val}, nil
}
