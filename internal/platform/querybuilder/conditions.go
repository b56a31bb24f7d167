package querybuilder

import (
	"strconv"
	"strings"
)

// Condition is one WHERE predicate. Conditions are joined with AND.
type Condition interface {
	appendSQL(buf *strings.Builder, args *[]any, argIndex *int)
}

func placeholder(i int) string {
	return "$" + strconv.Itoa(i)
}

type binaryCondition struct {
	column string
	op     string
	value  any
}

func (c binaryCondition) appendSQL(buf *strings.Builder, args *[]any, argIndex *int) {
	buf.WriteString(c.column)
	buf.WriteString(" ")
	buf.WriteString(c.op)
	buf.WriteString(" ")
	buf.WriteString(placeholder(*argIndex))
	*args = append(*args, c.value)
	*argIndex++
}

func Eq(column string, value any) Condition  { return binaryCondition{column, "=", value} }
func Neq(column string, value any) Condition { return binaryCondition{column, "<>", value} }
func Lte(column string, value any) Condition { return binaryCondition{column, "<=", value} }
func Gte(column string, value any) Condition { return binaryCondition{column, ">=", value} }

// ILike matches case-insensitively; callers wrap the needle in %% themselves.
func ILike(column string, value string) Condition {
	return binaryCondition{column, "ILIKE", value}
}

type inCondition struct {
	column string
	values []any
}

func In(column string, values []any) Condition {
	return inCondition{column: column, values: values}
}

func (c inCondition) appendSQL(buf *strings.Builder, args *[]any, argIndex *int) {
	if len(c.values) == 0 {
		buf.WriteString("1=0")
		return
	}
	buf.WriteString(c.column)
	buf.WriteString(" IN (")
	for i, v := range c.values {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(placeholder(*argIndex))
		*args = append(*args, v)
		*argIndex++
	}
	buf.WriteString(")")
}

type nullCondition struct {
	column string
	isNull bool
}

func IsNull(column string) Condition  { return nullCondition{column: column, isNull: true} }
func NotNull(column string) Condition { return nullCondition{column: column, isNull: false} }

func (c nullCondition) appendSQL(buf *strings.Builder, _ *[]any, _ *int) {
	buf.WriteString(c.column)
	if c.isNull {
		buf.WriteString(" IS NULL")
	} else {
		buf.WriteString(" IS NOT NULL")
	}
}

type exprCondition struct {
	expr string
	args []any
}

// Expr injects a raw predicate with ? placeholders rewritten to $n.
func Expr(expr string, args ...any) Condition {
	return exprCondition{expr: expr, args: args}
}

func (c exprCondition) appendSQL(buf *strings.Builder, args *[]any, argIndex *int) {
	buf.WriteString(rewritePlaceholders(c.expr, c.args, args, argIndex))
}

type orCondition struct {
	conditions []Condition
}

// Or groups predicates with OR inside parentheses.
func Or(conditions ...Condition) Condition {
	return orCondition{conditions: conditions}
}

func (c orCondition) appendSQL(buf *strings.Builder, args *[]any, argIndex *int) {
	if len(c.conditions) == 0 {
		buf.WriteString("1=0")
		return
	}
	buf.WriteString("(")
	for i, cond := range c.conditions {
		if i > 0 {
			buf.WriteString(" OR ")
		}
		cond.appendSQL(buf, args, argIndex)
	}
	buf.WriteString(")")
}

func rewritePlaceholders(expr string, exprArgs []any, args *[]any, argIndex *int) string {
	var out strings.Builder
	argPos := 0
	for _, r := range expr {
		if r != '?' {
			out.WriteRune(r)
			continue
		}
		out.WriteString(placeholder(*argIndex))
		if argPos < len(exprArgs) {
			*args = append(*args, exprArgs[argPos])
			argPos++
		}
		*argIndex++
	}
	return out.String()
}

func appendWhereClause(buf *strings.Builder, conditions []Condition, args *[]any, argIndex *int) {
	if len(conditions) == 0 {
		return
	}
	buf.WriteString(" WHERE ")
	for i, c := range conditions {
		if i > 0 {
			buf.WriteString(" AND ")
		}
		c.appendSQL(buf, args, argIndex)
	}
}
