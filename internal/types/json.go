package types

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

/*
 * JSON codec for query trees.
 *
 * Groups and rules share one sequence on the wire. A node is decoded as a
 * group iff its object carries a "combinator" key; everything else is a rule.
 * Discrimination happens here, once, so the rest of the code works on the
 * sealed Node interface with type switches.
 */

type groupWire struct {
	ID         string     `json:"id,omitempty"`
	Combinator Combinator `json:"combinator"`
	Not        bool       `json:"not"`
	Rules      []Node     `json:"rules"`
	Name       string     `json:"name,omitempty"`
	Email      string     `json:"email,omitempty"`
	IsActive   *bool      `json:"isActive,omitempty"`
	Disabled   *bool      `json:"disabled,omitempty"`
}

type groupWireIn struct {
	ID         string            `json:"id"`
	Combinator Combinator        `json:"combinator"`
	Not        bool              `json:"not"`
	Rules      []json.RawMessage `json:"rules"`
	Name       string            `json:"name"`
	Email      string            `json:"email"`
	IsActive   *bool             `json:"isActive"`
	Disabled   *bool             `json:"disabled"`
}

type ruleWire struct {
	ID             string `json:"id,omitempty"`
	Field          string `json:"field"`
	Operator       string `json:"operator"`
	Value          any    `json:"value"`
	ParentOperator string `json:"parentOperator,omitempty"`
	ValueMeta      any    `json:"valueMeta,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (g *Group) MarshalJSON() ([]byte, error) {
	rules := g.Rules
	if rules == nil {
		rules = []Node{}
	}
	return json.Marshal(groupWire{
		ID:         g.ID,
		Combinator: g.Combinator,
		Not:        g.Not,
		Rules:      rules,
		Name:       g.Name,
		Email:      g.Email,
		IsActive:   g.IsActive,
		Disabled:   g.Disabled,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
// Children are discriminated by the presence of a combinator key.
func (g *Group) UnmarshalJSON(data []byte) error {
	var in groupWireIn
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if !in.Combinator.Valid() {
		return fmt.Errorf("group %q: %w", in.ID, ErrInvalidCombinator)
	}

	rules := make([]Node, 0, len(in.Rules))
	for _, raw := range in.Rules {
		child, err := decodeNode(raw)
		if err != nil {
			return err
		}
		rules = append(rules, child)
	}

	*g = Group{
		ID:         in.ID,
		Combinator: in.Combinator,
		Not:        in.Not,
		Rules:      rules,
		Name:       in.Name,
		Email:      in.Email,
		IsActive:   in.IsActive,
		Disabled:   in.Disabled,
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (r *Rule) MarshalJSON() ([]byte, error) {
	return json.Marshal(ruleWire{
		ID:             r.ID,
		Field:          r.Field,
		Operator:       r.Operator,
		Value:          r.Value,
		ParentOperator: r.ParentOperator,
		ValueMeta:      r.ValueMeta,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Rule) UnmarshalJSON(data []byte) error {
	var in ruleWire
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = Rule(in)
	return nil
}

// ParseNode decodes a query document holding either a group or a bare rule.
func ParseNode(data []byte) (Node, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, ErrEmptyQuery
	}
	return decodeNode(trimmed)
}

// decodeNode inspects the object keys to pick the node variant.
func decodeNode(raw json.RawMessage) (Node, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("decoding node: %w", err)
	}

	if _, ok := probe["combinator"]; ok {
		g := &Group{}
		if err := g.UnmarshalJSON(raw); err != nil {
			return nil, err
		}
		return g, nil
	}

	r := &Rule{}
	if err := r.UnmarshalJSON(raw); err != nil {
		return nil, err
	}
	return r, nil
}

// MarshalNode encodes a node as indented JSON.
func MarshalNode(n Node) ([]byte, error) {
	return json.MarshalIndent(n, "", "  ")
}
