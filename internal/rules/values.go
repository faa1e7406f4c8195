// internal/rules/values.go
package rules

import "github.com/solatis/querybuilder/internal/types"

/*
 * Default and transition values.
 *
 * Creation: a field with permitted values starts empty (the editor selects
 * the first option), a checkbox starts false, anything else starts empty.
 *
 * Operator change: only the editor kind matters. When the kind implied by the
 * new operator differs from the previous one, boolean editors restart at true
 * and everything else restarts empty; otherwise the value survives.
 *
 * Person and last-updated-by values arrive as objects from the picker and are
 * stored by id or label, with the e-mail kept in ValueMeta for display.
 */

// DefaultValue returns the value a rule holds on creation or after a field change.
func (r fieldResolver) DefaultValue(rule *types.Rule) any {
	if len(r.Values(rule.Field, rule.Operator)) > 0 {
		return ""
	}
	if r.ValueEditorType(rule.Field, rule.Operator, rule.ParentOperator) == EditorCheckbox {
		return false
	}
	return ""
}

// OperatorChangeValue returns the value after rule.Operator replaced prevOperator.
func (r fieldResolver) OperatorChangeValue(rule *types.Rule, prevOperator string) any {
	prev := r.ValueEditorType(rule.Field, prevOperator, rule.ParentOperator)
	cur := r.ValueEditorType(rule.Field, rule.Operator, rule.ParentOperator)
	if prev == cur {
		return rule.Value
	}
	if isBooleanEditor(cur) {
		return true
	}
	return ""
}

// normalizeValue maps picker objects to their stored form.
// special is false when value is stored verbatim and ValueMeta left alone.
func normalizeValue(field string, value any) (stored, meta any, special bool) {
	obj, isObj := value.(map[string]any)
	lastUpdated := field == types.LastUpdatedByField
	person := false
	if isObj {
		_, person = obj[types.KeyID]
	}
	if !lastUpdated && !person {
		return value, nil, false
	}

	stored = value
	if lastUpdated && isObj {
		if label, ok := obj[types.KeyLabel]; ok && label != nil && label != "" {
			stored = label
		}
	}
	if person {
		stored = obj[types.KeyID]
	}
	if isObj {
		meta = obj[types.KeyEmail]
	}
	return stored, meta, true
}
