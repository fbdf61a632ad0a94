package cypher

import (
	"fmt"
	"strings"

	"github.com/haigpapa/Chromatoverse/pkg/classify"
	"github.com/haigpapa/Chromatoverse/pkg/cypher/ast"
)

// TranspileOptions contains options for transpiling a query to SQL
type TranspileOptions struct {
	AnalysisID string // stored analysis to query (required)
}

// TranspileResult contains the generated SQL and bind parameters
type TranspileResult struct {
	SQL  string
	Args []interface{}
}

// Properties are the node columns a query may return or order by
var Properties = []string{"path", "label", "language", "role", "summary", "size"}

// Transpile converts a graph query to SQL with prepared statement placeholders
func Transpile(query string, opts TranspileOptions) (*TranspileResult, error) {
	if opts.AnalysisID == "" {
		return nil, fmt.Errorf("analysis id is required")
	}

	q, err := Parse(query)
	if err != nil {
		return nil, err
	}

	return generateSQL(q, opts)
}

// labelFilter maps a node label to the column it filters and the value.
// Role labels are upper snake case ("UI_COMPONENT"); anything else is a language.
func labelFilter(label string) (column, value string, err error) {
	for _, role := range classify.AllRoles {
		if strings.EqualFold(label, RoleLabel(role)) {
			return "role", role, nil
		}
	}
	for _, lang := range classify.Languages() {
		if strings.EqualFold(label, lang) {
			return "language", lang, nil
		}
	}
	if strings.EqualFold(label, classify.UnknownLanguage) {
		return "language", classify.UnknownLanguage, nil
	}
	return "", "", fmt.Errorf("unknown label %q", label)
}

// RoleLabel is the query label for a role: "UI Component" -> "UI_COMPONENT"
func RoleLabel(role string) string {
	return strings.ToUpper(strings.ReplaceAll(role, " ", "_"))
}

func validProperty(prop string) bool {
	for _, p := range Properties {
		if p == prop {
			return true
		}
	}
	return false
}

// scope maps pattern variables to SQL table aliases
type scope struct {
	aliases map[string]string // variable -> n1/n2
	labels  map[string]string // n1/n2 -> label
}

func (s *scope) column(variable, prop string) (string, error) {
	alias, ok := s.aliases[variable]
	if !ok {
		return "", fmt.Errorf("unknown variable: %s", variable)
	}
	if prop == "" {
		prop = "path"
	}
	if !validProperty(prop) {
		return "", fmt.Errorf("unknown property %s.%s (want one of %s)", variable, prop, strings.Join(Properties, ", "))
	}
	return alias + "." + prop, nil
}

// generateSQL walks the AST and builds SQL with placeholders
func generateSQL(q *ast.Query, opts TranspileOptions) (*TranspileResult, error) {
	pattern := q.Match.Pattern
	edge := pattern.Edge

	s := &scope{aliases: map[string]string{}, labels: map[string]string{}}

	// n1 is always the link source and n2 the link target,
	// whichever side of the arrow they were written on
	var n1, n2 *ast.Node
	switch {
	case edge == nil:
		n1 = pattern.SourceNode
	case edge.Direction == ast.DirectionForward:
		n1, n2 = pattern.SourceNode, pattern.TargetNode
	case edge.Direction == ast.DirectionBackward:
		n1, n2 = pattern.TargetNode, pattern.SourceNode
	default:
		return nil, fmt.Errorf("undirected edges not supported")
	}

	if n1.Variable != "" {
		s.aliases[n1.Variable] = "n1"
	}
	s.labels["n1"] = n1.Label
	if n2 != nil {
		if n2.Variable != "" {
			s.aliases[n2.Variable] = "n2"
		}
		s.labels["n2"] = n2.Label
	}

	selectSQL, groupBy, err := buildSelect(q, s)
	if err != nil {
		return nil, err
	}

	var sql strings.Builder
	var args []interface{}

	switch {
	case edge == nil:
		sql.WriteString(selectSQL)
		sql.WriteString("\nFROM nodes n1")
		sql.WriteString("\nWHERE n1.analysis_id = ?")
		args = append(args, opts.AnalysisID)

	case !edge.VarLength:
		sql.WriteString(selectSQL)
		sql.WriteString("\nFROM links l")
		sql.WriteString("\nJOIN nodes n1 ON n1.analysis_id = l.analysis_id AND n1.path = l.source")
		sql.WriteString("\nJOIN nodes n2 ON n2.analysis_id = l.analysis_id AND n2.path = l.target")
		sql.WriteString("\nWHERE l.analysis_id = ?")
		args = append(args, opts.AnalysisID)

	default:
		// Recursive CTE over links; UNION drops repeated (source, target, depth) rows
		sql.WriteString("WITH RECURSIVE paths(source, target, depth) AS (\n")
		sql.WriteString("  SELECT l.source, l.target, 1\n")
		sql.WriteString("  FROM links l\n")
		sql.WriteString("  WHERE l.analysis_id = ?\n")
		sql.WriteString("\n  UNION\n\n")
		sql.WriteString("  SELECT p.source, l.target, p.depth + 1\n")
		sql.WriteString("  FROM paths p\n")
		sql.WriteString("  JOIN links l ON l.analysis_id = ? AND l.source = p.target\n")
		sql.WriteString("  WHERE p.depth < ?\n")
		sql.WriteString(")\n")
		args = append(args, opts.AnalysisID, opts.AnalysisID, edge.MaxHops)

		sql.WriteString(selectSQL)
		sql.WriteString("\nFROM paths p")
		sql.WriteString("\nJOIN nodes n1 ON n1.analysis_id = ? AND n1.path = p.source")
		sql.WriteString("\nJOIN nodes n2 ON n2.analysis_id = ? AND n2.path = p.target")
		sql.WriteString("\nWHERE p.depth >= ?")
		args = append(args, opts.AnalysisID, opts.AnalysisID, edge.MinHops)
	}

	// Label filters
	for _, alias := range []string{"n1", "n2"} {
		label := s.labels[alias]
		if label == "" {
			continue
		}
		column, value, err := labelFilter(label)
		if err != nil {
			return nil, err
		}
		sql.WriteString(fmt.Sprintf("\n  AND %s.%s = ?", alias, column))
		args = append(args, value)
	}

	if len(groupBy) > 0 {
		sql.WriteString("\nGROUP BY ")
		sql.WriteString(strings.Join(groupBy, ", "))
	}

	if q.OrderBy != nil {
		orderSQL, err := buildOrderBy(q, s)
		if err != nil {
			return nil, err
		}
		sql.WriteString("\nORDER BY ")
		sql.WriteString(orderSQL)
	}

	if q.Limit != nil {
		sql.WriteString("\nLIMIT ?")
		args = append(args, q.Limit.Count)
	}

	return &TranspileResult{
		SQL:  sql.String(),
		Args: args,
	}, nil
}

// buildSelect renders the SELECT list and, when aggregating, the GROUP BY columns
func buildSelect(q *ast.Query, s *scope) (string, []string, error) {
	aggregating := q.Return.HasAggregate()

	var items, groupBy []string
	for _, item := range q.Return.Items {
		if item.Aggregate != nil {
			expr, err := aggregateExpr(item.Aggregate, s)
			if err != nil {
				return "", nil, err
			}
			alias := item.Alias
			if alias == "" {
				alias = "count"
				if item.Aggregate.Variable != "" {
					alias = item.Aggregate.Variable + "_count"
				}
			}
			items = append(items, expr+" AS "+alias)
			continue
		}

		col, err := s.column(item.Variable, item.Property)
		if err != nil {
			return "", nil, fmt.Errorf("RETURN: %w", err)
		}
		alias := item.Alias
		if alias == "" {
			alias = item.Variable
			if item.Property != "" {
				alias += "_" + item.Property
			}
		}
		items = append(items, col+" AS "+alias)
		if aggregating {
			groupBy = append(groupBy, col)
		}
	}

	head := "SELECT DISTINCT "
	if aggregating {
		head = "SELECT "
	}
	return head + strings.Join(items, ", "), groupBy, nil
}

func aggregateExpr(agg *ast.AggregateFunction, s *scope) (string, error) {
	if !strings.EqualFold(agg.Function, "COUNT") {
		return "", fmt.Errorf("aggregate function %s not supported", agg.Function)
	}
	if agg.Variable == "" {
		return "COUNT(*)", nil
	}
	col, err := s.column(agg.Variable, agg.Property)
	if err != nil {
		return "", fmt.Errorf("COUNT: %w", err)
	}
	return fmt.Sprintf("COUNT(DISTINCT %s)", col), nil
}

// buildOrderBy resolves each expression to a return alias or a node column
func buildOrderBy(q *ast.Query, s *scope) (string, error) {
	aliases := map[string]bool{}
	for _, item := range q.Return.Items {
		if item.Alias != "" {
			aliases[item.Alias] = true
		}
	}

	var items []string
	for _, item := range q.OrderBy.Items {
		expr := item.Expression
		if !aliases[expr] {
			variable, prop, _ := strings.Cut(expr, ".")
			col, err := s.column(variable, prop)
			if err != nil {
				return "", fmt.Errorf("ORDER BY: %w", err)
			}
			expr = col
		}
		direction := "ASC"
		if !item.Ascending {
			direction = "DESC"
		}
		items = append(items, expr+" "+direction)
	}
	return strings.Join(items, ", "), nil
}
