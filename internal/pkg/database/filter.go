package database

import (
	"fmt"
	"strings"
)

// Filter collects WHERE predicates with positional arguments.
// Each condition uses "?" for its single argument; Where renumbers them to $n.
type Filter struct {
	conds []string
	args  []interface{}
}

// NewFilter returns an empty filter
func NewFilter() *Filter {
	return &Filter{}
}

// Add appends a condition like "status = ?" with its argument.
func (f *Filter) Add(cond string, arg interface{}) *Filter {
	f.conds = append(f.conds, cond)
	f.args = append(f.args, arg)
	return f
}

// AddIf appends the condition only when ok is true.
func (f *Filter) AddIf(ok bool, cond string, arg interface{}) *Filter {
	if ok {
		f.Add(cond, arg)
	}
	return f
}

// Where renders " WHERE ..." (or "" when empty) with $1..$n placeholders.
func (f *Filter) Where() string {
	if len(f.conds) == 0 {
		return ""
	}
	parts := make([]string, len(f.conds))
	for i, c := range f.conds {
		parts[i] = strings.Replace(c, "?", fmt.Sprintf("$%d", i+1), 1)
	}
	return " WHERE " + strings.Join(parts, " AND ")
}

// Args returns the filter arguments in placeholder order.
func (f *Filter) Args() []interface{} {
	out := make([]interface{}, len(f.args))
	copy(out, f.args)
	return out
}

// Page renders " LIMIT $n OFFSET $n+1" after the filter placeholders and
// returns the args extended with limit and offset.
func (f *Filter) Page(limit, offset int) (string, []interface{}) {
	n := len(f.args)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", n+1, n+2), append(f.Args(), limit, offset)
}
