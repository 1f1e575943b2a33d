package filter

import (
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/iancoleman/strcase"
)

// exprFilter implements CompiledFilter using the expr language
type exprFilter struct {
	expression string
	program    *vm.Program
	helpers    map[string]any
}

// ExprCompilerOption configures an expr compiler
type ExprCompilerOption func(*exprCompiler)

// WithCache enables filter caching with the specified size
func WithCache(size int) ExprCompilerOption {
	return func(c *exprCompiler) {
		if size > 0 {
			c.cache = newLRUCache[string, CompiledFilter](size)
		}
	}
}

// WithCustomFunctions adds custom helper functions
func WithCustomFunctions(funcs map[string]any) ExprCompilerOption {
	return func(c *exprCompiler) {
		maps.Copy(c.helperFuncs, funcs)
	}
}

// NewExprCompiler creates a new expr-based filter compiler
func NewExprCompiler(opts ...ExprCompilerOption) CachingCompiler {
	c := &exprCompiler{
		helperFuncs: staticHelpers(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CompileFilter compiles expression with a non-caching compiler.
func CompileFilter(expression string) (CompiledFilter, error) {
	return NewExprCompiler().Compile(expression)
}

// exprCompiler implements CachingCompiler for expr-based filters
type exprCompiler struct {
	helperFuncs map[string]any
	cache       *lruCache[string, CompiledFilter]
}

// Compile compiles an expression into an executable filter
func (c *exprCompiler) Compile(expression string) (CompiledFilter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
		}
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(expression); ok {
			return cached, nil
		}
	}

	// Record helpers are bound per evaluation; compile against stand-ins
	// with the same signatures so calls type-check.
	env := maps.Clone(c.helperFuncs)
	maps.Copy(env, recordHelpers(Record{}))

	program, err := expr.Compile(expression,
		expr.Env(env),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	filter := &exprFilter{
		expression: expression,
		program:    program,
		helpers:    c.helperFuncs,
	}

	if c.cache != nil {
		c.cache.Put(expression, filter)
	}
	return filter, nil
}

// Clear removes all cached filters
func (c *exprCompiler) Clear() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// Size returns the number of cached filters
func (c *exprCompiler) Size() int {
	if c.cache != nil {
		return c.cache.Size()
	}
	return 0
}

// Evaluate reports whether record matches; evaluation errors count as no match
func (f *exprFilter) Evaluate(record Record) bool {
	ok, err := f.Match(record)
	return err == nil && ok
}

// Match evaluates the filter against record
func (f *exprFilter) Match(record Record) (bool, error) {
	result, err := expr.Run(f.program, f.environment(record))
	if err != nil {
		return false, &EvaluationError{
			Expression: f.expression,
			Record:     describe(record),
			Reason:     "expression failed",
			Err:        err,
		}
	}
	// AsBool() guarantees the type
	return result.(bool), nil
}

// Expression returns the original expression
func (f *exprFilter) Expression() string {
	return f.expression
}

// environment exposes every record field under its JSON name and its
// PascalCase form, followed by the helpers, which win on collisions.
func (f *exprFilter) environment(record Record) map[string]any {
	env := make(map[string]any, 2*len(record)+len(f.helpers)+16)
	for key, value := range record {
		env[key] = value
		env[strcase.ToCamel(key)] = value
	}
	env["Record"] = record
	maps.Copy(env, f.helpers)
	maps.Copy(env, recordHelpers(record))
	return env
}

// staticHelpers returns the helpers that do not depend on a record
func staticHelpers() map[string]any {
	return map[string]any{
		// dates
		"daysSince": func(t time.Time) int {
			return int(time.Since(t).Hours() / 24)
		},
		"daysAgo": func(days int) time.Time {
			return time.Now().AddDate(0, 0, -days)
		},
		"monthsAgo": func(months int) time.Time {
			return time.Now().AddDate(0, -months, 0)
		},
		"yearsAgo": func(years int) time.Time {
			return time.Now().AddDate(-years, 0, 0)
		},
		"parseDate": parseTime,
		"now":       time.Now,
		// strings, case-insensitive; the contains/startsWith/endsWith
		// operators are the case-sensitive forms
		"hasSubstr": func(str, substr string) bool {
			return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
		},
		"hasPrefix": func(str, prefix string) bool {
			return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
		},
		"hasSuffix": func(str, suffix string) bool {
			return strings.HasSuffix(strings.ToLower(str), strings.ToLower(suffix))
		},
		"lower": strings.ToLower,
		"upper": strings.ToUpper,
	}
}

// recordHelpers returns the helpers bound to one record
func recordHelpers(record Record) map[string]any {
	tagNames := tagNamesOf(record)
	names := lowerAll(stringsOf(record["names"]))
	flags := lowerAll(stringsOf(record["flags"]))

	return map[string]any{
		"hasTag": func(tag string) bool {
			return slices.Contains(tagNames, strings.ToLower(tag))
		},
		"tagCount": func() int {
			if tags, ok := record["tags"].([]any); ok {
				return len(tags)
			}
			return 0
		},
		"hasFlag": func(flag string) bool {
			return slices.Contains(flags, strings.ToLower(flag))
		},
		"hasName": func(name string) bool {
			name = strings.ToLower(name)
			if single, ok := record["name"].(string); ok && strings.ToLower(single) == name {
				return true
			}
			return slices.Contains(names, name)
		},
		"primaryName": func() string {
			if list := stringsOf(record["names"]); len(list) > 0 {
				return list[0]
			}
			name, _ := record["name"].(string)
			return name
		},
		"created": func() time.Time {
			s, _ := record["creationTime"].(string)
			return parseTime(s)
		},
		"edited": func() time.Time {
			s, _ := record["lastEditTime"].(string)
			return parseTime(s)
		},
	}
}

// parseTime accepts any common date layout; unparseable input yields the zero time
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// tagNamesOf collects every name of every tag on a post record, lowercased
func tagNamesOf(record Record) []string {
	tags, _ := record["tags"].([]any)
	var out []string
	for _, tag := range tags {
		switch t := tag.(type) {
		case string:
			out = append(out, strings.ToLower(t))
		case map[string]any:
			out = append(out, lowerAll(stringsOf(t["names"]))...)
		}
	}
	return out
}

func stringsOf(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func lowerAll(in []string) []string {
	for i, s := range in {
		in[i] = strings.ToLower(s)
	}
	return in
}
