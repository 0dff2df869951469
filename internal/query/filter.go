package query

import (
	"strings"
	"time"

	"github.com/google/cel-go/cel"
)

// Filter wraps a compiled CEL program evaluated against stored lines. An
// empty expression matches everything.
type Filter struct {
	prog    cel.Program
	enabled bool
	now     func() time.Time
}

// NewFilter compiles expr. Available variables:
//
//	text       string  the raw stored line
//	message    string  the line without timestamp, level, component and caller
//	level      string  DEBUG, INFO, WARN, ERROR, FATAL or ""
//	component  string  the [component] tag or ""
//	caller     string  file.go:line or ""
//	file       string  base name of the log file
//	line       int     1-based line number within the file
//	ts_ms      int     line timestamp in Unix milliseconds (0 if unparsable)
//	now_ms     int     current time in Unix milliseconds
func NewFilter(expr string) (Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Filter{enabled: false}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("text", cel.StringType),
		cel.Variable("message", cel.StringType),
		cel.Variable("level", cel.StringType),
		cel.Variable("component", cel.StringType),
		cel.Variable("caller", cel.StringType),
		cel.Variable("file", cel.StringType),
		cel.Variable("line", cel.IntType),
		cel.Variable("ts_ms", cel.IntType),
		cel.Variable("now_ms", cel.IntType),
	)
	if err != nil {
		return Filter{}, err
	}
	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return Filter{}, iss.Err()
	}
	checked, iss2 := env.Check(ast)
	if iss2 != nil && iss2.Err() != nil {
		return Filter{}, iss2.Err()
	}
	if !checked.OutputType().IsExactType(cel.BoolType) {
		return Filter{}, &TypeError{Expr: expr, Got: checked.OutputType().String()}
	}
	prog, err := env.Program(checked)
	if err != nil {
		return Filter{}, err
	}
	return Filter{prog: prog, enabled: true, now: time.Now}, nil
}

// TypeError reports an expression that does not evaluate to a bool.
type TypeError struct {
	Expr string
	Got  string
}

func (e *TypeError) Error() string {
	return "query: expression " + e.Expr + " must evaluate to bool, got " + e.Got
}

// Match evaluates the filter against l. Evaluation errors count as no match.
func (f Filter) Match(l Line) bool {
	if !f.enabled {
		return true
	}
	var ts int64
	if !l.Time.IsZero() {
		ts = l.Time.UnixMilli()
	}
	out, _, err := f.prog.Eval(map[string]any{
		"text":      l.Text,
		"message":   l.Message,
		"level":     l.Level,
		"component": l.Component,
		"caller":    l.Caller,
		"file":      l.File,
		"line":      int64(l.Number),
		"ts_ms":     ts,
		"now_ms":    f.now().UnixMilli(),
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
