// Package filter selects chunks with small boolean expressions.
//
// Examples:
//
//	ancillary and not public
//	type = "tEXt" or type = "zTXt"
//	critical and length > 1024
//	not (safe or type != "ruSt")
//
// Bare words test chunk type properties: critical, ancillary, public,
// private, safe, unsafe, valid, invalid and text (payload is UTF-8).
// Comparisons are available for type (= and != against a quoted code)
// and length (= != < <= > >= against an integer).
package filter

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/JxBP/pngme/core/png"
)

// expression is the participle grammar root: a disjunction of conjunctions.
//
//nolint:govet // participle grammar tags are not standard struct tags
type expression struct {
	Or []*conjunction `@@ ( "or" @@ )*`
}

//nolint:govet // participle grammar tags are not standard struct tags
type conjunction struct {
	And []*factor `@@ ( "and" @@ )*`
}

//nolint:govet // participle grammar tags are not standard struct tags
type factor struct {
	Not        *factor     `  "not" @@`
	Group      *expression `| "(" @@ ")"`
	Comparison *comparison `| @@`
	Flag       *string     `| @Ident`
}

//nolint:govet // participle grammar tags are not standard struct tags
type comparison struct {
	Field  string  `@( "type" | "length" )`
	Op     string  `@Op`
	String *string `( @String`
	Int    *uint64 `| @Int )`
}

// filterLexer keeps keywords apart from property names so a bare word can
// never be mistaken for an operator.
var filterLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Keyword", Pattern: `\b(?:and|or|not|type|length)\b`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "String", Pattern: `"[^"]*"`},
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Op", Pattern: `!=|<=|>=|==|=|<|>`},
	{Name: "Punct", Pattern: `[()]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// filterParser is the participle parser for chunk filter expressions.
var filterParser = participle.MustBuild[expression](
	participle.Lexer(filterLexer),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
	participle.UseLookahead(2),
)

// predicate reports whether a chunk satisfies one compiled node.
type predicate func(c *png.Chunk) bool

var flags = map[string]predicate{
	"critical":  func(c *png.Chunk) bool { return c.Type().IsCritical() },
	"ancillary": func(c *png.Chunk) bool { return !c.Type().IsCritical() },
	"public":    func(c *png.Chunk) bool { return c.Type().IsPublic() },
	"private":   func(c *png.Chunk) bool { return !c.Type().IsPublic() },
	"safe":      func(c *png.Chunk) bool { return c.Type().IsSafeToCopy() },
	"unsafe":    func(c *png.Chunk) bool { return !c.Type().IsSafeToCopy() },
	"valid":     func(c *png.Chunk) bool { return c.Type().IsValid() },
	"invalid":   func(c *png.Chunk) bool { return !c.Type().IsValid() },
	"text":      func(c *png.Chunk) bool { return utf8.Valid(c.Data()) },
}

// Filter is a compiled chunk selector. The zero value and a nil *Filter
// match every chunk.
type Filter struct {
	source string
	match  predicate
}

// Compile parses src into a Filter. An empty or blank src matches everything.
func Compile(src string) (*Filter, error) {
	if strings.TrimSpace(src) == "" {
		return &Filter{}, nil
	}

	parsed, err := filterParser.ParseString("", src)
	if err != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", src, err)
	}

	match, err := compileExpression(parsed)
	if err != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", src, err)
	}
	return &Filter{source: src, match: match}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(src string) *Filter {
	f, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return f
}

// Match reports whether c is selected.
func (f *Filter) Match(c *png.Chunk) bool {
	if f == nil || f.match == nil {
		return true
	}
	return f.match(c)
}

// Select returns the chunks of p that match, in stored order.
func (f *Filter) Select(p *png.Png) []*png.Chunk {
	var out []*png.Chunk
	for _, c := range p.Chunks() {
		if f.Match(c) {
			out = append(out, c)
		}
	}
	return out
}

// String returns the source expression.
func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.source
}

func compileExpression(e *expression) (predicate, error) {
	terms := make([]predicate, 0, len(e.Or))
	for _, c := range e.Or {
		p, err := compileConjunction(c)
		if err != nil {
			return nil, err
		}
		terms = append(terms, p)
	}
	if len(terms) == 1 {
		return terms[0], nil
	}
	return func(c *png.Chunk) bool {
		for _, p := range terms {
			if p(c) {
				return true
			}
		}
		return false
	}, nil
}

func compileConjunction(e *conjunction) (predicate, error) {
	factors := make([]predicate, 0, len(e.And))
	for _, f := range e.And {
		p, err := compileFactor(f)
		if err != nil {
			return nil, err
		}
		factors = append(factors, p)
	}
	if len(factors) == 1 {
		return factors[0], nil
	}
	return func(c *png.Chunk) bool {
		for _, p := range factors {
			if !p(c) {
				return false
			}
		}
		return true
	}, nil
}

func compileFactor(f *factor) (predicate, error) {
	switch {
	case f.Not != nil:
		inner, err := compileFactor(f.Not)
		if err != nil {
			return nil, err
		}
		return func(c *png.Chunk) bool { return !inner(c) }, nil
	case f.Group != nil:
		return compileExpression(f.Group)
	case f.Comparison != nil:
		return compileComparison(f.Comparison)
	case f.Flag != nil:
		p, ok := flags[*f.Flag]
		if !ok {
			return nil, fmt.Errorf("unknown property %q", *f.Flag)
		}
		return p, nil
	}
	return nil, fmt.Errorf("empty expression")
}

func compileComparison(cmp *comparison) (predicate, error) {
	switch cmp.Field {
	case "type":
		if cmp.String == nil {
			return nil, fmt.Errorf("type must be compared with a quoted chunk type")
		}
		want, err := png.ChunkTypeFromString(*cmp.String)
		if err != nil {
			return nil, fmt.Errorf("type %q: %w", *cmp.String, err)
		}
		switch cmp.Op {
		case "=", "==":
			return func(c *png.Chunk) bool { return c.Type() == want }, nil
		case "!=":
			return func(c *png.Chunk) bool { return c.Type() != want }, nil
		}
		return nil, fmt.Errorf("operator %s not supported for type", cmp.Op)

	case "length":
		if cmp.Int == nil {
			return nil, fmt.Errorf("length must be compared with an integer")
		}
		n := *cmp.Int
		var test func(l uint64) bool
		switch cmp.Op {
		case "=", "==":
			test = func(l uint64) bool { return l == n }
		case "!=":
			test = func(l uint64) bool { return l != n }
		case "<":
			test = func(l uint64) bool { return l < n }
		case "<=":
			test = func(l uint64) bool { return l <= n }
		case ">":
			test = func(l uint64) bool { return l > n }
		case ">=":
			test = func(l uint64) bool { return l >= n }
		default:
			return nil, fmt.Errorf("operator %s not supported for length", cmp.Op)
		}
		return func(c *png.Chunk) bool { return test(uint64(c.Length())) }, nil
	}
	return nil, fmt.Errorf("unknown field %q", cmp.Field)
}
