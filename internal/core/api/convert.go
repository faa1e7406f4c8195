package api

import (
	"fmt"

	"github.com/goccy/go-json"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/querybuilder/internal/rules"
	"github.com/solatis/querybuilder/internal/types"
)

// stringField returns a string request field, "" when absent.
func stringField(req *structpb.Struct, key string) string {
	return req.GetFields()[key].GetStringValue()
}

func boolField(req *structpb.Struct, key string) bool {
	return req.GetFields()[key].GetBoolValue()
}

// nodeField decodes a query tree field. Absent and null fields yield nil.
func nodeField(req *structpb.Struct, key string) (types.Node, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return nil, nil
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return nil, nil
	}
	data, err := protojson.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, fmt.Sprintf("%s: %v", key, err))
	}
	n, err := types.ParseNode(data)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, fmt.Sprintf("%s: %v", key, err))
	}
	return n, nil
}

// plain converts a JSON-encodable value to the generic form structpb accepts.
func plain(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// respond builds a response struct. Trees are encoded through their JSON form.
func respond(fields map[string]any) (*structpb.Struct, error) {
	for k, v := range fields {
		g, ok := v.(*types.Group)
		if !ok {
			continue
		}
		p, err := plain(g)
		if err != nil {
			return nil, status.Error(codes.Internal, fmt.Sprintf("encoding %s: %v", k, err))
		}
		fields[k] = p
	}
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encoding response: %v", err))
	}
	return out, nil
}

// schemaJSON is the wire form of rules.Schema.
func schemaJSON(s rules.Schema) map[string]any {
	fields := make([]any, 0, len(s.Fields))
	for _, f := range s.Fields {
		fields = append(fields, map[string]any{"name": f.Name, "label": f.Label, "fieldType": string(f.FieldType)})
	}
	combinators := make([]any, 0, len(s.Combinators))
	for _, c := range s.Combinators {
		combinators = append(combinators, map[string]any{"name": c.Name, "label": c.Label})
	}
	return map[string]any{
		"fields":                      fields,
		"combinators":                 combinators,
		"showAddGroup":                s.ShowAddGroup,
		"showAddRule":                 s.ShowAddRule,
		"showCombinatorsBetweenRules": s.ShowCombinatorsBetweenRules,
		"showNotToggle":               s.ShowNotToggle,
		"enableNormalView":            s.EnableNormalView,
		"enableDrilldown":             s.EnableDrilldown,
		"removeIconAtStart":           s.RemoveIconAtStart,
		"noRulesApplied":              s.NoRulesApplied,
	}
}
