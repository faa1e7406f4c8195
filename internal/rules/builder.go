// internal/rules/builder.go
package rules

import (
	"github.com/rs/zerolog/log"

	"github.com/solatis/querybuilder/internal/types"
)

/*
 * Query builder controller.
 *
 * Builder owns the current snapshot of one query tree and exposes the fixed
 * set of edits a renderer can request. Every edit follows the same path:
 *
 *   1. Deep-copy the current snapshot
 *   2. Locate the target by id (unknown ids: no-op, returns false)
 *   3. Apply one structural edit
 *   4. Force AND on groups holding column/measure rules
 *   5. Commit the copy as the new snapshot
 *   6. Hand each listener its own deep copy, synchronously
 *
 * Removals additionally rebuild the whole tree through the validity
 * projector so that groups left empty disappear, up to but excluding the root.
 *
 * Snapshots are never edited after commit; anything that kept an earlier
 * tree keeps seeing it unchanged. Builder is not safe for concurrent use:
 * callers serialize edits, one user interaction at a time.
 */

// Property names a rule property that ChangeProperty can set.
type Property string

const (
	PropField          Property = "field"
	PropOperator       Property = "operator"
	PropValue          Property = "value"
	PropParentOperator Property = "parentOperator"
)

// Listener receives every committed snapshot. prop and ruleID are set only
// for ChangeProperty commits.
type Listener func(query *types.Group, prop Property, ruleID string)

// Options configures a Builder.
type Options struct {
	Fields      []types.Field
	Operators   []types.NameLabelPair // fallback operator set; DefaultOperators when empty
	Combinators []types.NameLabelPair // first entry is the combinator of new groups
	Resolver    Resolver
	IDs         types.IDProvider

	// SelectedColumn names the field of new default rules when it returns non-empty.
	SelectedColumn func() string
	OnChange       Listener
	// OnAdvanced is the escape hatch out of the normal view.
	OnAdvanced func()

	ResetOnFieldChange          bool
	ResetOnOperatorChange       bool
	ShowAddGroup                bool
	ShowAddRule                 bool
	ShowCombinatorsBetweenRules bool
	ShowNotToggle               bool
	EnableNormalView            bool
	EnableDrilldown             bool
	RemoveIconAtStart           bool
}

// DefaultOptions returns options with the documented defaults and the given fields.
func DefaultOptions(fields ...types.Field) Options {
	return Options{
		Fields:             fields,
		Operators:          DefaultOperators,
		Combinators:        types.DefaultCombinators,
		IDs:                types.UUIDProvider{},
		ResetOnFieldChange: true,
		ShowAddGroup:       true,
		ShowAddRule:        true,
	}
}

// Schema is the read-only view handed to renderers.
type Schema struct {
	Fields                      []types.Field
	Combinators                 []types.NameLabelPair
	ShowAddGroup                bool
	ShowAddRule                 bool
	ShowCombinatorsBetweenRules bool
	ShowNotToggle               bool
	EnableNormalView            bool
	EnableDrilldown             bool
	RemoveIconAtStart           bool
	NoRulesApplied              bool // normal view with nothing to show
}

type subscription struct {
	id int
	fn Listener
}

// Builder is the controller over one query tree.
type Builder struct {
	opts       Options
	resolver   fieldResolver
	categories categoryIndex
	root       *types.Group
	listeners  []subscription
	nextSubID  int
}

// NewBuilder creates a builder for query, which may be nil, a group or a bare rule.
// OnChange, when set, is notified once with the initial snapshot.
func NewBuilder(query types.Node, opts Options) (*Builder, error) {
	if len(opts.Fields) == 0 {
		return nil, types.ErrNoFields
	}
	if len(opts.Operators) == 0 {
		opts.Operators = DefaultOperators
	}
	if len(opts.Combinators) == 0 {
		opts.Combinators = types.DefaultCombinators
	}
	if opts.IDs == nil {
		opts.IDs = types.UUIDProvider{}
	}

	b := &Builder{
		opts:       opts,
		resolver:   fieldResolver{custom: opts.Resolver, operators: opts.Operators},
		categories: newCategoryIndex(opts.Fields),
	}
	b.root = b.normalize(query)

	if opts.OnChange != nil {
		b.Subscribe(opts.OnChange)
	}
	b.notify("", "")
	return b, nil
}

// Load replaces the current snapshot with a new external query without notifying.
func (b *Builder) Load(query types.Node) {
	b.root = b.normalize(query)
}

// normalize turns an external input into a canonical, valid, group-rooted tree.
func (b *Builder) normalize(query types.Node) *types.Group {
	var root *types.Group
	switch v := query.(type) {
	case *types.Group:
		if v == nil {
			root = b.CreateGroup()
			break
		}
		root = ProjectRoot(v)
	case *types.Rule:
		root = b.CreateGroup()
		if v != nil {
			root.Rules = append(root.Rules, projectRule(v))
		}
	default:
		root = b.CreateGroup()
	}

	b.assignIDs(root, make(map[string]struct{}))
	b.fixCombinators(root)
	b.categories.Enforce(root)
	return root
}

// assignIDs gives every node lacking a unique id a fresh one.
func (b *Builder) assignIDs(n types.Node, seen map[string]struct{}) {
	switch v := n.(type) {
	case *types.Group:
		if _, dup := seen[v.ID]; v.ID == "" || dup {
			v.ID = b.opts.IDs.GroupID()
		}
		seen[v.ID] = struct{}{}
		for _, child := range v.Rules {
			b.assignIDs(child, seen)
		}
	case *types.Rule:
		if _, dup := seen[v.ID]; v.ID == "" || dup {
			v.ID = b.opts.IDs.RuleID()
		}
		seen[v.ID] = struct{}{}
	}
}

func (b *Builder) fixCombinators(g *types.Group) {
	if !g.Combinator.Valid() {
		g.Combinator = b.defaultCombinator()
	}
	for _, child := range g.Rules {
		if sub, ok := child.(*types.Group); ok {
			b.fixCombinators(sub)
		}
	}
}

func (b *Builder) defaultCombinator() types.Combinator {
	if c := types.Combinator(b.opts.Combinators[0].Name); c.Valid() {
		return c
	}
	return types.CombinatorAnd
}

// CreateGroup returns a new empty group with a fresh id.
func (b *Builder) CreateGroup() *types.Group {
	return &types.Group{
		ID:         b.opts.IDs.GroupID(),
		Combinator: b.defaultCombinator(),
		Rules:      []types.Node{},
	}
}

// CreateRule returns a new default rule. Its field comes from SelectedColumn
// when that yields a name, else the first configured field; the operators
// follow the two-tier derivation.
func (b *Builder) CreateRule() *types.Rule {
	field := b.opts.Fields[0].Name
	if b.opts.SelectedColumn != nil {
		if selected := b.opts.SelectedColumn(); selected != "" {
			field = selected
		}
	}
	operator, parentOperator := b.resolver.deriveOperators(field)
	return &types.Rule{
		ID:             b.opts.IDs.RuleID(),
		Field:          field,
		Operator:       operator,
		ParentOperator: parentOperator,
		Value:          "",
	}
}

// AddRule inserts a copy of rule into the group parentID, ahead of the
// group's first nested group. The rule's value is reset to its creation default.
func (b *Builder) AddRule(rule *types.Rule, parentID string) bool {
	next := CloneGroup(b.root)
	parent, ok := FindGroup(parentID, next)
	if !ok {
		b.skipped("add_rule", parentID)
		return false
	}

	r := b.newRule(rule, next)
	parent.InsertRule(r)
	b.commit(next, "", "")
	return true
}

// AddRuleAtRoot inserts a fresh default rule at the root.
func (b *Builder) AddRuleAtRoot() bool {
	next := CloneGroup(b.root)
	next.InsertRule(b.newRule(nil, next))
	b.commit(next, "", "")
	return true
}

// newRule copies rule (or creates a default one), makes its id unique within
// tree and applies the creation value.
func (b *Builder) newRule(rule *types.Rule, tree *types.Group) *types.Rule {
	var r *types.Rule
	if rule == nil {
		r = b.CreateRule()
	} else {
		r = CloneRule(rule)
	}
	seen := make(map[string]struct{})
	collectIDs(tree, seen)
	b.assignIDs(r, seen)
	r.Value = b.resolver.DefaultValue(r)
	return r
}

// AddGroup appends a copy of group, seeded with one default rule, to parentID.
// A nil group is replaced by CreateGroup().
func (b *Builder) AddGroup(group *types.Group, parentID string) bool {
	next := CloneGroup(b.root)
	parent, ok := FindGroup(parentID, next)
	if !ok {
		b.skipped("add_group", parentID)
		return false
	}

	var g *types.Group
	if group == nil {
		g = b.CreateGroup()
	} else {
		g = CloneGroup(group)
	}
	b.fixCombinators(g)

	seen := make(map[string]struct{})
	collectIDs(next, seen)
	b.assignIDs(g, seen)

	g.Rules = append(g.Rules, b.newRule(nil, next))
	parent.Rules = append(parent.Rules, g)
	b.commit(next, "", "")
	return true
}

// RemoveRule deletes rule ruleID from group parentID and prunes groups left empty.
func (b *Builder) RemoveRule(ruleID, parentID string) bool {
	return b.remove("remove_rule", ruleID, parentID, func(n types.Node) bool {
		_, ok := n.(*types.Rule)
		return ok
	})
}

// RemoveGroup deletes group groupID from group parentID and prunes groups left empty.
func (b *Builder) RemoveGroup(groupID, parentID string) bool {
	return b.remove("remove_group", groupID, parentID, func(n types.Node) bool {
		_, ok := n.(*types.Group)
		return ok
	})
}

func (b *Builder) remove(op, id, parentID string, kind func(types.Node) bool) bool {
	next := CloneGroup(b.root)
	parent, ok := FindGroup(parentID, next)
	if !ok {
		b.skipped(op, parentID)
		return false
	}

	found := false
	for _, child := range parent.Rules {
		if child.NodeID() == id && kind(child) {
			found = true
			break
		}
	}
	if !found {
		b.skipped(op, id)
		return false
	}
	parent.RemoveChild(id)

	b.commit(ProjectRoot(next), "", "")
	return true
}

// ChangeProperty sets one property of rule ruleID and applies the configured
// reset policies. Field, operator and parent operator values must be strings.
func (b *Builder) ChangeProperty(prop Property, value any, ruleID string) bool {
	next := CloneGroup(b.root)
	rule, ok := FindRule(ruleID, next)
	if !ok {
		b.skipped("change_property", ruleID)
		return false
	}

	prevOperator := rule.Operator
	switch prop {
	case PropValue:
		stored, meta, special := normalizeValue(rule.Field, value)
		rule.Value = cloneValue(stored)
		if special {
			rule.ValueMeta = cloneValue(meta)
		}
	case PropField, PropOperator, PropParentOperator:
		s, ok := value.(string)
		if !ok {
			log.Warn().Str("prop", string(prop)).Str("rule_id", ruleID).Msg("non-string value for rule property ignored")
			return false
		}
		setStringProperty(rule, prop, s)
	default:
		log.Warn().Str("prop", string(prop)).Err(types.ErrUnknownProperty).Msg("property change ignored")
		return false
	}

	switch {
	case prop == PropField && b.opts.ResetOnFieldChange:
		rule.Operator, rule.ParentOperator = b.resolver.deriveOperators(rule.Field)
		rule.Value = b.resolver.DefaultValue(rule)
	case prop == PropOperator && b.opts.ResetOnOperatorChange:
		rule.Value = b.resolver.OperatorChangeValue(rule, prevOperator)
	case prop == PropParentOperator && b.opts.ResetOnOperatorChange:
		rule.Operator = firstName(b.resolver.Operators(rule.Field, false, rule.ParentOperator))
		rule.Value = ""
	}

	b.commit(next, prop, ruleID)
	return true
}

func setStringProperty(rule *types.Rule, prop Property, s string) {
	switch prop {
	case PropField:
		rule.Field = s
	case PropOperator:
		rule.Operator = s
	case PropParentOperator:
		rule.ParentOperator = s
	}
}

// Clear empties the root, keeping its id, metadata and combinator.
func (b *Builder) Clear() bool {
	next := CloneGroup(b.root)
	next.Rules = []types.Node{}
	b.commit(next, "", "")
	return true
}

// commit enforces combinators on next, makes it current and notifies.
func (b *Builder) commit(next *types.Group, prop Property, ruleID string) {
	b.categories.Enforce(next)
	b.root = next
	b.notify(prop, ruleID)
}

func (b *Builder) notify(prop Property, ruleID string) {
	for _, sub := range b.listeners {
		sub.fn(CloneGroup(b.root), prop, ruleID)
	}
}

func (b *Builder) skipped(op, id string) {
	log.Debug().Str("op", op).Str("id", id).Msg("mutation target not found")
}

// Subscribe registers an additional listener and returns its cancel func.
func (b *Builder) Subscribe(fn Listener) func() {
	b.nextSubID++
	id := b.nextSubID
	b.listeners = append(b.listeners, subscription{id: id, fn: fn})
	return func() {
		for i, sub := range b.listeners {
			if sub.id == id {
				b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
				return
			}
		}
	}
}

// Query returns a deep copy of the current snapshot.
func (b *Builder) Query() *types.Group {
	return CloneGroup(b.root)
}

// View returns the tree a renderer should display: the normal view when
// enabled, else the full snapshot.
func (b *Builder) View() *types.Group {
	if b.opts.EnableNormalView {
		return NormalView(b.root)
	}
	return CloneGroup(b.root)
}

// Advanced invokes the escape hatch out of the normal view.
// Reports false when the hatch is not offered.
func (b *Builder) Advanced() bool {
	if !b.opts.EnableNormalView || b.opts.EnableDrilldown || b.opts.OnAdvanced == nil {
		return false
	}
	b.opts.OnAdvanced()
	return true
}

// Schema returns the read-only configuration renderers need.
func (b *Builder) Schema() Schema {
	return Schema{
		Fields:                      append([]types.Field(nil), b.opts.Fields...),
		Combinators:                 append([]types.NameLabelPair(nil), b.opts.Combinators...),
		ShowAddGroup:                b.opts.ShowAddGroup,
		ShowAddRule:                 b.opts.ShowAddRule,
		ShowCombinatorsBetweenRules: b.opts.ShowCombinatorsBetweenRules,
		ShowNotToggle:               b.opts.ShowNotToggle,
		EnableNormalView:            b.opts.EnableNormalView,
		EnableDrilldown:             b.opts.EnableDrilldown,
		RemoveIconAtStart:           b.opts.RemoveIconAtStart,
		NoRulesApplied:              b.opts.EnableNormalView && len(NormalView(b.root).Rules) == 0,
	}
}

// Level returns the depth of id in the current snapshot, or NotFoundLevel.
func (b *Builder) Level(id string) int {
	return Level(id, b.root)
}

// HasColumnDescendant reports whether the current root holds a column rule below it.
func (b *Builder) HasColumnDescendant() bool {
	return b.categories.HasColumnDescendant(b.root)
}

// HasMeasureDescendant reports whether the current root holds a measure rule below it.
func (b *Builder) HasMeasureDescendant() bool {
	return b.categories.HasMeasureDescendant(b.root)
}

// Operators returns the effective operator set for a field.
func (b *Builder) Operators(field string, parent bool, parentOperator string) []types.NameLabelPair {
	return b.resolver.Operators(field, parent, parentOperator)
}

// ValueEditorType returns the effective editor kind.
func (b *Builder) ValueEditorType(field, operator, parentOperator string) ValueEditorType {
	return b.resolver.ValueEditorType(field, operator, parentOperator)
}

// InputType returns the effective input kind.
func (b *Builder) InputType(field, operator string) string {
	return b.resolver.InputType(field, operator)
}

// Values returns the permitted values, empty when unrestricted.
func (b *Builder) Values(field, operator string) []types.NameLabelPair {
	return b.resolver.Values(field, operator)
}

// Placeholder returns the placeholder text, empty by default.
func (b *Builder) Placeholder(field, operator, parentOperator string) string {
	return b.resolver.Placeholder(field, operator, parentOperator)
}
