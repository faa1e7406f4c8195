// Package types provides the query tree model shared across querybuilder components.
//
// A query is a tree of groups and rules. Groups join their children with a
// combinator and may be negated; rules compare one field against a value.
// The JSON codec lives in json.go and the identifier helpers in ids.go.
package types

// Combinator is the AND/OR join semantics of a group.
type Combinator string

const (
	CombinatorAnd Combinator = "and"
	CombinatorOr  Combinator = "or"
)

// Valid reports whether c is one of the two supported combinators.
func (c Combinator) Valid() bool {
	return c == CombinatorAnd || c == CombinatorOr
}

// FieldType tags a field with a semantic category.
// Column and measure fields force ancestor groups to AND semantics.
type FieldType string

const (
	FieldTypeColumn  FieldType = "column"
	FieldTypeMeasure FieldType = "measure"
)

// NameLabelPair describes an operator, combinator or permitted value.
type NameLabelPair struct {
	Name  string `json:"name" yaml:"name"`
	Label string `json:"label" yaml:"label"`
}

// Field is externally owned field metadata.
type Field struct {
	Name      string    `json:"name" yaml:"name"`
	Label     string    `json:"label" yaml:"label"`
	FieldType FieldType `json:"fieldType,omitempty" yaml:"fieldType,omitempty"`
}

// Node is either a *Group or a *Rule.
type Node interface {
	NodeID() string
	isNode()
}

// Group combines child nodes with a combinator.
// Name, Email, IsActive and Disabled are display metadata carried through unchanged.
type Group struct {
	ID         string
	Combinator Combinator
	Not        bool
	Rules      []Node
	Name       string
	Email      string
	IsActive   *bool
	Disabled   *bool
}

// Rule is a single field/operator/value comparison.
type Rule struct {
	ID             string
	Field          string
	Operator       string
	Value          any
	ParentOperator string
	ValueMeta      any // denormalized label for person and last-updated-by fields
}

func (g *Group) NodeID() string { return g.ID }
func (r *Rule) NodeID() string  { return r.ID }

func (*Group) isNode() {}
func (*Rule) isNode()  {}

// HasGroups reports whether any direct child is a group.
func (g *Group) HasGroups() bool {
	return g.firstGroupIndex() >= 0
}

// firstGroupIndex returns the index of the first nested group, or -1.
func (g *Group) firstGroupIndex() int {
	for i, child := range g.Rules {
		if _, ok := child.(*Group); ok {
			return i
		}
	}
	return -1
}

// InsertRule places r ahead of the first nested group, or appends it when
// there is none. Sibling rules therefore stay in front of sibling groups.
func (g *Group) InsertRule(r *Rule) {
	idx := g.firstGroupIndex()
	if idx < 0 {
		g.Rules = append(g.Rules, r)
		return
	}
	g.Rules = append(g.Rules, nil)
	copy(g.Rules[idx+1:], g.Rules[idx:])
	g.Rules[idx] = r
}

// RemoveChild deletes the direct child with the given id.
// Returns false if no direct child matches.
func (g *Group) RemoveChild(id string) bool {
	for i, child := range g.Rules {
		if child.NodeID() == id {
			g.Rules = append(g.Rules[:i], g.Rules[i+1:]...)
			return true
		}
	}
	return false
}

// Shell returns a copy of g without children, preserving identity and metadata.
func (g *Group) Shell() *Group {
	return &Group{
		ID:         g.ID,
		Combinator: g.Combinator,
		Not:        g.Not,
		Rules:      []Node{},
		Name:       g.Name,
		Email:      g.Email,
		IsActive:   g.IsActive,
		Disabled:   g.Disabled,
	}
}

// DefaultCombinators are offered when the caller configures none.
var DefaultCombinators = []NameLabelPair{
	{Name: string(CombinatorAnd), Label: "And"},
	{Name: string(CombinatorOr), Label: "Or"},
}

// Special field and key names recognised on value changes.
const (
	// LastUpdatedByField values are stored by label.
	LastUpdatedByField = "LAST_UPDATED_BY"

	KeyID    = "id"
	KeyLabel = "label"
	KeyEmail = "email"
)
