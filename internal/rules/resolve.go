// internal/rules/resolve.go
package rules

import "github.com/solatis/querybuilder/internal/types"

/*
 * Field/operator resolution.
 *
 * A Resolver answers per-field questions the tree needs when creating and
 * editing rules. Every answer may be empty, which means "no override": the
 * builder then falls back to its configured operators, the text editor and
 * input, no permitted values and no placeholder.
 *
 * Two-level operators: Operators(field, true, "") asks for the parent
 * operator set of a field. When it is non-empty, the first parent operator
 * parameterizes Operators(field, false, parent) for the actual set.
 */

// Resolver supplies field metadata overrides.
type Resolver interface {
	Operators(field string, parent bool, parentOperator string) []types.NameLabelPair
	ValueEditorType(field, operator, parentOperator string) ValueEditorType
	InputType(field, operator string) string
	Values(field, operator string) []types.NameLabelPair
	Placeholder(field, operator, parentOperator string) string
}

// ResolverFuncs adapts optional functions to Resolver. Nil funcs answer empty.
type ResolverFuncs struct {
	OperatorsFunc       func(field string, parent bool, parentOperator string) []types.NameLabelPair
	ValueEditorTypeFunc func(field, operator, parentOperator string) ValueEditorType
	InputTypeFunc       func(field, operator string) string
	ValuesFunc          func(field, operator string) []types.NameLabelPair
	PlaceholderFunc     func(field, operator, parentOperator string) string
}

func (f ResolverFuncs) Operators(field string, parent bool, parentOperator string) []types.NameLabelPair {
	if f.OperatorsFunc == nil {
		return nil
	}
	return f.OperatorsFunc(field, parent, parentOperator)
}

func (f ResolverFuncs) ValueEditorType(field, operator, parentOperator string) ValueEditorType {
	if f.ValueEditorTypeFunc == nil {
		return ""
	}
	return f.ValueEditorTypeFunc(field, operator, parentOperator)
}

func (f ResolverFuncs) InputType(field, operator string) string {
	if f.InputTypeFunc == nil {
		return ""
	}
	return f.InputTypeFunc(field, operator)
}

func (f ResolverFuncs) Values(field, operator string) []types.NameLabelPair {
	if f.ValuesFunc == nil {
		return nil
	}
	return f.ValuesFunc(field, operator)
}

func (f ResolverFuncs) Placeholder(field, operator, parentOperator string) string {
	if f.PlaceholderFunc == nil {
		return ""
	}
	return f.PlaceholderFunc(field, operator, parentOperator)
}

// fieldResolver applies the documented fallbacks on top of an optional Resolver.
type fieldResolver struct {
	custom    Resolver
	operators []types.NameLabelPair
}

// Operators returns the operator set for a field.
// Parent queries without an override return nil: the field has no parent tier.
func (r fieldResolver) Operators(field string, parent bool, parentOperator string) []types.NameLabelPair {
	if r.custom != nil {
		if ops := r.custom.Operators(field, parent, parentOperator); len(ops) > 0 {
			return ops
		}
	}
	if parent {
		return nil
	}
	return r.operators
}

func (r fieldResolver) ValueEditorType(field, operator, parentOperator string) ValueEditorType {
	if r.custom != nil {
		if t := r.custom.ValueEditorType(field, operator, parentOperator); t != "" {
			return t
		}
	}
	return EditorText
}

func (r fieldResolver) InputType(field, operator string) string {
	if r.custom != nil {
		if t := r.custom.InputType(field, operator); t != "" {
			return t
		}
	}
	return DefaultInputType
}

func (r fieldResolver) Values(field, operator string) []types.NameLabelPair {
	if r.custom != nil {
		if vals := r.custom.Values(field, operator); len(vals) > 0 {
			return vals
		}
	}
	return []types.NameLabelPair{}
}

func (r fieldResolver) Placeholder(field, operator, parentOperator string) string {
	if r.custom != nil {
		return r.custom.Placeholder(field, operator, parentOperator)
	}
	return ""
}

// deriveOperators picks the parent operator and operator for a field using
// the two-tier logic. parentOperator is empty when the field has no parent tier.
func (r fieldResolver) deriveOperators(field string) (operator, parentOperator string) {
	if parents := r.Operators(field, true, ""); len(parents) > 0 {
		parentOperator = parents[0].Name
		return firstName(r.Operators(field, false, parentOperator)), parentOperator
	}
	return firstName(r.Operators(field, false, "")), ""
}

func firstName(pairs []types.NameLabelPair) string {
	if len(pairs) == 0 {
		return ""
	}
	return pairs[0].Name
}
