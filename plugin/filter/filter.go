// Package filter evaluates CEL expressions against records.
//
// An expression sees one record at a time through these variables:
//
//	category  int     0 (none) to 5
//	hour      int     0-23, wall clock
//	minute    int     0-59
//	weekday   int     0 (Sunday) to 6
//	origin    string  "quick", "manual", "import" or "sample"
//	date      string  "YYYY-MM-DD"
//	ephemeral bool
//
// For example `category == 5 && hour >= 18` or `date.startsWith("2025-10")`.
package filter

import (
	"time"

	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"

	"github.com/hrygo/poplog/store"
)

// ErrInvalidFilter wraps every compile-time problem of an expression.
var ErrInvalidFilter = errors.New("invalid filter expression")

var env = mustNewEnv()

func mustNewEnv() *cel.Env {
	e, err := cel.NewEnv(
		cel.Variable("category", cel.IntType),
		cel.Variable("hour", cel.IntType),
		cel.Variable("minute", cel.IntType),
		cel.Variable("weekday", cel.IntType),
		cel.Variable("origin", cel.StringType),
		cel.Variable("date", cel.StringType),
		cel.Variable("ephemeral", cel.BoolType),
	)
	if err != nil {
		panic(err)
	}
	return e
}

// Filter is a compiled boolean expression.
type Filter struct {
	expr    string
	program cel.Program
}

// Compile parses and type-checks expr. The expression must yield a bool.
func Compile(expr string) (*Filter, error) {
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, errors.Wrapf(ErrInvalidFilter, "%s", issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, errors.Wrapf(ErrInvalidFilter, "expression must be boolean, got %s", ast.OutputType())
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidFilter, "%s", err)
	}
	return &Filter{expr: expr, program: program}, nil
}

// String returns the source expression.
func (f *Filter) String() string {
	return f.expr
}

// Match evaluates the filter for r with wall-clock fields taken in loc.
func (f *Filter) Match(r *store.Record, loc *time.Location) (bool, error) {
	t := r.Time(loc)
	out, _, err := f.program.Eval(map[string]any{
		"category":  int64(r.Category),
		"hour":      int64(t.Hour()),
		"minute":    int64(t.Minute()),
		"weekday":   int64(t.Weekday()),
		"origin":    string(r.Origin),
		"date":      t.Format("2006-01-02"),
		"ephemeral": r.Ephemeral,
	})
	if err != nil {
		return false, errors.Wrapf(err, "failed to evaluate filter %q", f.expr)
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, errors.Errorf("filter %q returned %T", f.expr, out.Value())
	}
	return matched, nil
}

// Apply returns the records that match, keeping their order.
func (f *Filter) Apply(records []*store.Record, loc *time.Location) ([]*store.Record, error) {
	matched := make([]*store.Record, 0, len(records))
	for _, r := range records {
		ok, err := f.Match(r, loc)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, r)
		}
	}
	return matched, nil
}
