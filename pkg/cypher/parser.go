package cypher

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/haigpapa/Chromatoverse/pkg/cypher/ast"
)

// DefaultMaxHops bounds a variable-length edge written without an upper limit
const DefaultMaxHops = 10

// MaxHopsLimit is the largest hop count a query may ask for
const MaxHopsLimit = 25

// RelImports is the only relationship type in an analysis graph
const RelImports = "imports"

// Parse parses a graph query into its AST
func Parse(query string) (*ast.Query, error) {
	tokens, err := lex(query)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	p := &parser{tokens: tokens}
	q, err := p.parseQuery()
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return q, nil
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(kind tokenKind) (token, error) {
	t := p.next()
	if t.kind != kind {
		return t, p.unexpected(t, kind.String())
	}
	return t, nil
}

func (p *parser) expectKeyword(kw string) error {
	t := p.next()
	if !t.keyword(kw) {
		return p.unexpected(t, kw)
	}
	return nil
}

func (p *parser) accept(kind tokenKind) bool {
	if p.peek().kind == kind {
		p.next()
		return true
	}
	return false
}

func (p *parser) acceptKeyword(kw string) bool {
	if p.peek().keyword(kw) {
		p.next()
		return true
	}
	return false
}

func (p *parser) unexpected(t token, want string) error {
	got := t.kind.String()
	if t.kind == tokIdent || t.kind == tokInt {
		got = fmt.Sprintf("%q", t.lit)
	}
	return fmt.Errorf("expected %s at %d, got %s", want, t.pos, got)
}

func (p *parser) parseQuery() (*ast.Query, error) {
	if err := p.expectKeyword("MATCH"); err != nil {
		return nil, err
	}
	pattern, err := p.parsePattern()
	if err != nil {
		return nil, err
	}

	if err := p.expectKeyword("RETURN"); err != nil {
		return nil, err
	}
	ret, err := p.parseReturn()
	if err != nil {
		return nil, err
	}

	q := &ast.Query{
		Match:  &ast.MatchClause{Pattern: pattern},
		Return: ret,
	}

	if p.acceptKeyword("ORDER") {
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		if q.OrderBy, err = p.parseOrderBy(); err != nil {
			return nil, err
		}
	}

	if p.acceptKeyword("LIMIT") {
		t, err := p.expect(tokInt)
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(t.lit)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("LIMIT must be a positive integer, got %s", t.lit)
		}
		q.Limit = &ast.LimitClause{Count: n}
	}

	if t := p.peek(); t.kind != tokEOF {
		return nil, p.unexpected(t, "end of query")
	}

	if err := validateVariables(q); err != nil {
		return nil, err
	}
	return q, nil
}

func (p *parser) parsePattern() (*ast.PathPattern, error) {
	source, err := p.parseNode()
	if err != nil {
		return nil, err
	}
	pattern := &ast.PathPattern{SourceNode: source}

	switch p.peek().kind {
	case tokDash, tokArrowLeft:
	default:
		return pattern, nil
	}

	edge, err := p.parseEdge()
	if err != nil {
		return nil, err
	}
	target, err := p.parseNode()
	if err != nil {
		return nil, err
	}

	if source.Variable != "" && source.Variable == target.Variable {
		return nil, fmt.Errorf("variable %s used for both ends of the pattern", source.Variable)
	}

	pattern.Edge = edge
	pattern.TargetNode = target
	return pattern, nil
}

func (p *parser) parseNode() (*ast.Node, error) {
	if _, err := p.expect(tokLParen); err != nil {
		return nil, err
	}
	node := &ast.Node{}
	if p.peek().kind == tokIdent {
		node.Variable = p.next().lit
	}
	if p.accept(tokColon) {
		t, err := p.expect(tokIdent)
		if err != nil {
			return nil, err
		}
		node.Label = t.lit
	}
	if _, err := p.expect(tokRParen); err != nil {
		return nil, err
	}
	return node, nil
}

// parseEdge reads -[...]->, <-[...]-, --> or <--
func (p *parser) parseEdge() (*ast.Edge, error) {
	edge := &ast.Edge{}

	if p.accept(tokArrowLeft) {
		edge.Direction = ast.DirectionBackward
		if p.accept(tokDash) {
			return edge, nil
		}
		if err := p.parseEdgeBody(edge); err != nil {
			return nil, err
		}
		if _, err := p.expect(tokDash); err != nil {
			return nil, err
		}
		return edge, nil
	}

	if _, err := p.expect(tokDash); err != nil {
		return nil, err
	}
	if p.accept(tokArrowRight) {
		edge.Direction = ast.DirectionForward
		return edge, nil
	}
	if err := p.parseEdgeBody(edge); err != nil {
		return nil, err
	}
	switch t := p.next(); t.kind {
	case tokArrowRight:
		edge.Direction = ast.DirectionForward
	case tokDash:
		return nil, fmt.Errorf("undirected edges not supported")
	default:
		return nil, p.unexpected(t, "'->'")
	}
	return edge, nil
}

func (p *parser) parseEdgeBody(edge *ast.Edge) error {
	if _, err := p.expect(tokLBracket); err != nil {
		return err
	}
	if p.accept(tokColon) {
		t, err := p.expect(tokIdent)
		if err != nil {
			return err
		}
		if !strings.EqualFold(t.lit, RelImports) {
			return fmt.Errorf("unknown relationship type %q", t.lit)
		}
		edge.Type = RelImports
	}
	if p.accept(tokStar) {
		if err := p.parseHops(edge); err != nil {
			return err
		}
	}
	_, err := p.expect(tokRBracket)
	return err
}

// parseHops reads the range after *: "", "n", "n..", "..m" or "n..m"
func (p *parser) parseHops(edge *ast.Edge) error {
	edge.VarLength = true
	edge.MinHops, edge.MaxHops = 1, DefaultMaxHops

	readInt := func() (int, error) {
		t := p.next()
		return strconv.Atoi(t.lit)
	}

	if p.peek().kind == tokInt {
		n, err := readInt()
		if err != nil {
			return err
		}
		edge.MinHops = n
		if !p.accept(tokDotDot) {
			edge.MaxHops = n
			return checkHops(edge)
		}
		if p.peek().kind == tokInt {
			if edge.MaxHops, err = readInt(); err != nil {
				return err
			}
		}
		return checkHops(edge)
	}

	if p.accept(tokDotDot) {
		t, err := p.expect(tokInt)
		if err != nil {
			return err
		}
		if edge.MaxHops, err = strconv.Atoi(t.lit); err != nil {
			return err
		}
	}
	return checkHops(edge)
}

func checkHops(edge *ast.Edge) error {
	if edge.MinHops < 1 {
		return fmt.Errorf("minimum hops must be at least 1, got %d", edge.MinHops)
	}
	if edge.MaxHops < edge.MinHops {
		return fmt.Errorf("maximum hops %d is below minimum %d", edge.MaxHops, edge.MinHops)
	}
	if edge.MaxHops > MaxHopsLimit {
		return fmt.Errorf("maximum hops %d exceeds limit %d", edge.MaxHops, MaxHopsLimit)
	}
	return nil
}

func (p *parser) parseReturn() (*ast.ReturnClause, error) {
	ret := &ast.ReturnClause{}
	for {
		item, err := p.parseReturnItem()
		if err != nil {
			return nil, err
		}
		ret.Items = append(ret.Items, item)
		if !p.accept(tokComma) {
			return ret, nil
		}
	}
}

func (p *parser) parseReturnItem() (ast.ReturnItem, error) {
	var item ast.ReturnItem

	t, err := p.expect(tokIdent)
	if err != nil {
		return item, err
	}

	if t.keyword("COUNT") && p.peek().kind == tokLParen {
		p.next()
		agg := &ast.AggregateFunction{Function: "COUNT"}
		if !p.accept(tokStar) {
			v, err := p.expect(tokIdent)
			if err != nil {
				return item, err
			}
			agg.Variable = v.lit
			if p.accept(tokDot) {
				prop, err := p.expect(tokIdent)
				if err != nil {
					return item, err
				}
				agg.Property = prop.lit
			}
		}
		if _, err := p.expect(tokRParen); err != nil {
			return item, err
		}
		item.Aggregate = agg
	} else {
		item.Variable = t.lit
		if p.accept(tokDot) {
			prop, err := p.expect(tokIdent)
			if err != nil {
				return item, err
			}
			item.Property = prop.lit
		}
	}

	if p.acceptKeyword("AS") {
		alias, err := p.expect(tokIdent)
		if err != nil {
			return item, err
		}
		item.Alias = alias.lit
	}
	return item, nil
}

func (p *parser) parseOrderBy() (*ast.OrderByClause, error) {
	clause := &ast.OrderByClause{}
	for {
		t, err := p.expect(tokIdent)
		if err != nil {
			return nil, err
		}
		expr := t.lit
		if p.accept(tokDot) {
			prop, err := p.expect(tokIdent)
			if err != nil {
				return nil, err
			}
			expr += "." + prop.lit
		}

		item := ast.OrderByItem{Expression: expr, Ascending: true}
		if p.acceptKeyword("DESC") {
			item.Ascending = false
		} else {
			p.acceptKeyword("ASC")
		}
		clause.Items = append(clause.Items, item)

		if !p.accept(tokComma) {
			return clause, nil
		}
	}
}

// validateVariables checks that RETURN only names pattern variables
func validateVariables(q *ast.Query) error {
	known := map[string]bool{}
	for _, v := range q.Match.Pattern.Variables() {
		known[v] = true
	}
	for _, item := range q.Return.Items {
		v := item.Variable
		if item.Aggregate != nil {
			v = item.Aggregate.Variable
			if v == "" {
				continue
			}
		}
		if !known[v] {
			return fmt.Errorf("unknown variable in RETURN: %s", v)
		}
	}
	return nil
}
