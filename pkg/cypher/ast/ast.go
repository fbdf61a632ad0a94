// Package ast holds the parsed form of a graph query.
package ast

import (
	"fmt"
	"strings"
)

// Query represents a complete graph query
type Query struct {
	Match   *MatchClause
	Return  *ReturnClause
	OrderBy *OrderByClause
	Limit   *LimitClause
}

// MatchClause represents the MATCH part
type MatchClause struct {
	Pattern *PathPattern
}

// PathPattern is a single node, or a node-edge-node pattern when Edge is set
type PathPattern struct {
	SourceNode *Node
	Edge       *Edge
	TargetNode *Node
}

// Node represents a node in the pattern
type Node struct {
	Variable string
	Label    string // role or language filter
}

// Direction of an edge as written in the pattern
const (
	DirectionForward  = "->"
	DirectionBackward = "<-"
)

// Edge represents an edge in the pattern
type Edge struct {
	Type      string // relation type filter; only imports edges exist
	Direction string // "->" or "<-"
	VarLength bool   // written with *
	MinHops   int    // set when VarLength
	MaxHops   int    // set when VarLength
}

// ReturnClause represents the RETURN part
type ReturnClause struct {
	Items []ReturnItem
}

// ReturnItem represents what to return
type ReturnItem struct {
	Variable  string
	Property  string             // empty if returning whole variable
	Aggregate *AggregateFunction // non-nil if this is an aggregate
	Alias     string             // AS alias (empty if none)
}

// AggregateFunction represents COUNT
type AggregateFunction struct {
	Function string // "COUNT"
	Variable string // empty for COUNT(*)
	Property string
}

// OrderByClause represents ORDER BY
type OrderByClause struct {
	Items []OrderByItem
}

// OrderByItem represents a single ORDER BY expression
type OrderByItem struct {
	Expression string // variable, variable.property or alias
	Ascending  bool   // true for ASC, false for DESC
}

// LimitClause represents LIMIT
type LimitClause struct {
	Count int
}

// Variables returns the pattern variables in source, target order
func (p *PathPattern) Variables() []string {
	vars := []string{}
	if p.SourceNode != nil && p.SourceNode.Variable != "" {
		vars = append(vars, p.SourceNode.Variable)
	}
	if p.TargetNode != nil && p.TargetNode.Variable != "" {
		vars = append(vars, p.TargetNode.Variable)
	}
	return vars
}

// HasAggregate reports whether any return item aggregates
func (r *ReturnClause) HasAggregate() bool {
	for _, item := range r.Items {
		if item.Aggregate != nil {
			return true
		}
	}
	return false
}

func (n *Node) String() string {
	if n.Label == "" {
		return "(" + n.Variable + ")"
	}
	return fmt.Sprintf("(%s:%s)", n.Variable, n.Label)
}

func (e *Edge) String() string {
	var body strings.Builder
	if e.Type != "" {
		body.WriteString(":" + e.Type)
	}
	if e.VarLength {
		fmt.Fprintf(&body, "*%d..%d", e.MinHops, e.MaxHops)
	}
	if e.Direction == DirectionBackward {
		return "<-[" + body.String() + "]-"
	}
	return "-[" + body.String() + "]->"
}

func (item ReturnItem) String() string {
	var s string
	switch {
	case item.Aggregate != nil && item.Aggregate.Variable == "":
		s = item.Aggregate.Function + "(*)"
	case item.Aggregate != nil && item.Aggregate.Property != "":
		s = fmt.Sprintf("%s(%s.%s)", item.Aggregate.Function, item.Aggregate.Variable, item.Aggregate.Property)
	case item.Aggregate != nil:
		s = fmt.Sprintf("%s(%s)", item.Aggregate.Function, item.Aggregate.Variable)
	case item.Property != "":
		s = item.Variable + "." + item.Property
	default:
		s = item.Variable
	}
	if item.Alias != "" {
		s += " AS " + item.Alias
	}
	return s
}

// String renders the query back in canonical form
func (q *Query) String() string {
	var b strings.Builder
	p := q.Match.Pattern
	b.WriteString("MATCH ")
	b.WriteString(p.SourceNode.String())
	if p.Edge != nil {
		b.WriteString(p.Edge.String())
		b.WriteString(p.TargetNode.String())
	}

	items := make([]string, 0, len(q.Return.Items))
	for _, item := range q.Return.Items {
		items = append(items, item.String())
	}
	b.WriteString(" RETURN " + strings.Join(items, ", "))

	if q.OrderBy != nil {
		order := make([]string, 0, len(q.OrderBy.Items))
		for _, item := range q.OrderBy.Items {
			dir := "ASC"
			if !item.Ascending {
				dir = "DESC"
			}
			order = append(order, item.Expression+" "+dir)
		}
		b.WriteString(" ORDER BY " + strings.Join(order, ", "))
	}
	if q.Limit != nil {
		fmt.Fprintf(&b, " LIMIT %d", q.Limit.Count)
	}
	return b.String()
}
