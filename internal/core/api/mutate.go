package api

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/querybuilder/internal/rules"
	"github.com/solatis/querybuilder/internal/types"
)

// Mutation operations accepted by Mutate.
const (
	OpAddRule        = "add_rule"
	OpAddRuleAtRoot  = "add_rule_at_root"
	OpAddGroup       = "add_group"
	OpRemoveRule     = "remove_rule"
	OpRemoveGroup    = "remove_group"
	OpChangeProperty = "change_property"
	OpClear          = "clear"
	OpAdvanced       = "advanced"
)

// Mutate applies one edit to a session's builder. Edits whose target does
// not exist are reported with applied=false and leave the version unchanged.
func (s *QueryEditorService) Mutate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := sessionIDField(req)
	if err != nil {
		return nil, err
	}
	sess, err := s.lookup(id)
	if err != nil {
		return nil, statusFromError(err)
	}

	op := stringField(req, "op")

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.lastProp, sess.lastRuleID = "", ""
	applied, err := s.apply(sess.builder, op, req)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordMutation(op, applied)

	log.Debug().
		Str("session_id", id).
		Str("op", op).
		Bool("applied", applied).
		Int64("version", sess.version).
		Msg("Mutation handled")

	return respond(map[string]any{
		"applied":     applied,
		"version":     float64(sess.version),
		"query":       sess.builder.Query(),
		"view":        sess.builder.View(),
		"prop":        string(sess.lastProp),
		"rule_id":     sess.lastRuleID,
		"has_column":  sess.builder.HasColumnDescendant(),
		"has_measure": sess.builder.HasMeasureDescendant(),
		"advanced":    sess.advanced,
	})
}

// apply dispatches op. Only malformed requests return an error.
func (s *QueryEditorService) apply(b *rules.Builder, op string, req *structpb.Struct) (bool, error) {
	switch op {
	case OpAddRule:
		n, err := nodeField(req, "rule")
		if err != nil {
			return false, err
		}
		var rule *types.Rule
		if n != nil {
			r, ok := n.(*types.Rule)
			if !ok {
				return false, status.Error(codes.InvalidArgument, "rule must be a rule object")
			}
			rule = r
		}
		return b.AddRule(rule, stringField(req, "parent_id")), nil

	case OpAddRuleAtRoot:
		return b.AddRuleAtRoot(), nil

	case OpAddGroup:
		n, err := nodeField(req, "group")
		if err != nil {
			return false, err
		}
		var group *types.Group
		if n != nil {
			g, ok := n.(*types.Group)
			if !ok {
				return false, status.Error(codes.InvalidArgument, "group must be a group object")
			}
			group = g
		}
		return b.AddGroup(group, stringField(req, "parent_id")), nil

	case OpRemoveRule:
		return b.RemoveRule(stringField(req, "id"), stringField(req, "parent_id")), nil

	case OpRemoveGroup:
		return b.RemoveGroup(stringField(req, "id"), stringField(req, "parent_id")), nil

	case OpChangeProperty:
		prop := rules.Property(stringField(req, "prop"))
		switch prop {
		case rules.PropField, rules.PropOperator, rules.PropValue, rules.PropParentOperator:
		default:
			return false, statusFromError(fmt.Errorf("%q: %w", prop, types.ErrUnknownProperty))
		}
		return b.ChangeProperty(prop, req.GetFields()["value"].AsInterface(), stringField(req, "id")), nil

	case OpClear:
		return b.Clear(), nil

	case OpAdvanced:
		return b.Advanced(), nil

	case "":
		return false, status.Error(codes.InvalidArgument, "op is required")
	default:
		return false, status.Error(codes.InvalidArgument, fmt.Sprintf("unknown op %q", op))
	}
}
