// internal/rules/operators.go
package rules

import "github.com/solatis/querybuilder/internal/types"

/*
 * Operator and editor vocabulary.
 *
 * The default operator set is offered for every field that has no override.
 * Operators are names only here: the tree never evaluates them, it just
 * records which comparison the caller picked.
 *
 * Editor kinds:
 *   - text: free text input (default)
 *   - select: pick from the permitted values list
 *   - checkbox/radio: boolean style editors, default value false/true
 */

// ValueEditorType is the kind of widget used to edit a rule value.
type ValueEditorType string

const (
	EditorText     ValueEditorType = "text"
	EditorSelect   ValueEditorType = "select"
	EditorCheckbox ValueEditorType = "checkbox"
	EditorRadio    ValueEditorType = "radio"
)

// DefaultInputType is used when no input type override applies.
const DefaultInputType = "text"

// DefaultOperators is the fixed fallback operator set.
var DefaultOperators = []types.NameLabelPair{
	{Name: "in", Label: "in"},
	{Name: "null", Label: "is null"},
	{Name: "notNull", Label: "is not null"},
	{Name: "notIn", Label: "not in"},
	{Name: "=", Label: "="},
	{Name: "!=", Label: "!="},
	{Name: "<", Label: "<"},
	{Name: ">", Label: ">"},
	{Name: "<=", Label: "<="},
	{Name: ">=", Label: ">="},
	{Name: "contains", Label: "contains"},
	{Name: "beginsWith", Label: "begins with"},
	{Name: "endsWith", Label: "ends with"},
	{Name: "doesNotContain", Label: "does not contain"},
	{Name: "doesNotBeginWith", Label: "does not begin with"},
	{Name: "doesNotEndWith", Label: "does not end with"},
}

// isBooleanEditor reports whether an editor holds true/false values.
func isBooleanEditor(t ValueEditorType) bool {
	return t == EditorCheckbox || t == EditorRadio
}
