package api

import (
	"context"
	"net"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/querybuilder/internal/catalog"
	"github.com/solatis/querybuilder/internal/core/config"
	"github.com/solatis/querybuilder/internal/core/db"
	"github.com/solatis/querybuilder/internal/core/observability"
	"github.com/solatis/querybuilder/internal/core/store"
	"github.com/solatis/querybuilder/internal/types"
)

const testCatalog = `
fields:
  - name: name
    label: Name
  - name: region
    fieldType: column
    values: [{name: north, label: North}]
  - name: revenue
    fieldType: measure
`

type testEnv struct {
	client  *QueryEditorClient
	service *QueryEditorService
	metrics *observability.Metrics
}

func newTestEnv(t *testing.T, withStore bool, maxSessions int) *testEnv {
	t.Helper()

	cat, err := catalog.Parse([]byte(testCatalog))
	if err != nil {
		t.Fatalf("catalog.Parse failed: %v", err)
	}

	var st *store.Store
	if withStore {
		database, err := db.Open(db.MemoryURL)
		if err != nil {
			t.Fatalf("db.Open failed: %v", err)
		}
		t.Cleanup(func() { database.Close() })
		if _, err := db.MigrateUp(database); err != nil {
			t.Fatalf("MigrateUp failed: %v", err)
		}
		if st, err = store.New(database); err != nil {
			t.Fatalf("store.New failed: %v", err)
		}
	}

	cfg := config.DefaultServerConfig()
	cfg.MaxSessions = maxSessions
	metrics := observability.NewMetrics(prometheus.NewRegistry())

	svc, err := NewQueryEditorService(cat, st, metrics, cfg)
	if err != nil {
		t.Fatalf("NewQueryEditorService failed: %v", err)
	}

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterQueryEditorServer(srv, svc)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("grpc.NewClient failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return &testEnv{client: NewQueryEditorClient(conn), service: svc, metrics: metrics}
}

func req(t *testing.T, fields map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(fields)
	if err != nil {
		t.Fatalf("structpb.NewStruct failed: %v", err)
	}
	return s
}

func (e *testEnv) open(t *testing.T, fields map[string]any) (string, *structpb.Struct) {
	t.Helper()
	resp, err := e.client.Open(context.Background(), req(t, fields))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return resp.Fields["session_id"].GetStringValue(), resp
}

func (e *testEnv) mutate(t *testing.T, sessionID string, fields map[string]any) *structpb.Struct {
	t.Helper()
	fields["session_id"] = sessionID
	resp, err := e.client.Mutate(context.Background(), req(t, fields))
	if err != nil {
		t.Fatalf("Mutate(%v) failed: %v", fields["op"], err)
	}
	return resp
}

func queryOf(resp *structpb.Struct) *structpb.Struct {
	return resp.Fields["query"].GetStructValue()
}

func childrenOf(g *structpb.Struct) []*structpb.Value {
	return g.Fields["rules"].GetListValue().GetValues()
}

func assertCode(t *testing.T, err error, want codes.Code) {
	t.Helper()
	if status.Code(err) != want {
		t.Fatalf("expected %s, got %v", want, err)
	}
}

func TestOpen_EmptyQuery(t *testing.T) {
	env := newTestEnv(t, false, 10)

	id, resp := env.open(t, map[string]any{})

	if _, err := types.ParseSessionID(id); err != nil {
		t.Fatalf("invalid session id %q: %v", id, err)
	}
	if v := resp.Fields["version"].GetNumberValue(); v != 1 {
		t.Errorf("version = %v, want 1", v)
	}
	root := queryOf(resp)
	if c := root.Fields["combinator"].GetStringValue(); c != "and" {
		t.Errorf("combinator = %q, want and", c)
	}
	if n := len(childrenOf(root)); n != 0 {
		t.Errorf("expected empty root, got %d children", n)
	}
	fields := resp.Fields["schema"].GetStructValue().Fields["fields"].GetListValue().GetValues()
	if len(fields) != 3 {
		t.Errorf("schema fields = %d, want 3", len(fields))
	}
	if env.service.SessionCount() != 1 {
		t.Errorf("SessionCount() = %d, want 1", env.service.SessionCount())
	}
}

func TestOpen_InlineQueryNormalized(t *testing.T) {
	env := newTestEnv(t, false, 10)

	_, resp := env.open(t, map[string]any{
		"query": map[string]any{"field": "name", "operator": "=", "value": "x"},
	})

	root := queryOf(resp)
	children := childrenOf(root)
	if len(children) != 1 {
		t.Fatalf("expected bare rule wrapped in a root, got %d children", len(children))
	}
	if id := children[0].GetStructValue().Fields["id"].GetStringValue(); id == "" {
		t.Error("wrapped rule has no id")
	}
}

func TestOpen_InvalidQuery(t *testing.T) {
	env := newTestEnv(t, false, 10)

	_, err := env.client.Open(context.Background(), req(t, map[string]any{
		"query": map[string]any{"combinator": "xor", "rules": []any{}},
	}))
	assertCode(t, err, codes.InvalidArgument)

	_, err = env.client.Open(context.Background(), req(t, map[string]any{
		"query":  map[string]any{"combinator": "and", "rules": []any{}},
		"filter": "north",
	}))
	assertCode(t, err, codes.InvalidArgument)
}

func TestOpen_SessionLimit(t *testing.T) {
	env := newTestEnv(t, false, 1)
	env.open(t, map[string]any{})

	_, err := env.client.Open(context.Background(), req(t, map[string]any{}))
	assertCode(t, err, codes.ResourceExhausted)
}

func TestMutate_AddChangeRemove(t *testing.T) {
	env := newTestEnv(t, false, 10)
	id, _ := env.open(t, map[string]any{})

	resp := env.mutate(t, id, map[string]any{"op": OpAddRuleAtRoot})
	if !resp.Fields["applied"].GetBoolValue() || resp.Fields["version"].GetNumberValue() != 2 {
		t.Fatalf("add_rule_at_root: %v", resp)
	}
	root := queryOf(resp)
	rule := childrenOf(root)[0].GetStructValue()
	ruleID := rule.Fields["id"].GetStringValue()
	if f := rule.Fields["field"].GetStringValue(); f != "name" {
		t.Errorf("default rule field = %q, want name", f)
	}

	resp = env.mutate(t, id, map[string]any{
		"op": OpChangeProperty, "prop": "field", "value": "region", "id": ruleID,
	})
	if p := resp.Fields["prop"].GetStringValue(); p != "field" {
		t.Errorf("prop = %q, want field", p)
	}
	if r := resp.Fields["rule_id"].GetStringValue(); r != ruleID {
		t.Errorf("rule_id = %q, want %q", r, ruleID)
	}

	resp = env.mutate(t, id, map[string]any{
		"op": OpRemoveRule, "id": ruleID, "parent_id": root.Fields["id"].GetStringValue(),
	})
	if !resp.Fields["applied"].GetBoolValue() || len(childrenOf(queryOf(resp))) != 0 {
		t.Errorf("remove_rule: %v", resp)
	}
	if v := resp.Fields["version"].GetNumberValue(); v != 4 {
		t.Errorf("version = %v, want 4", v)
	}
	if got := testutil.ToFloat64(env.metrics.MutationsTotal.WithLabelValues(OpRemoveRule, "true")); got != 1 {
		t.Errorf("remove_rule mutations = %v, want 1", got)
	}
}

func TestMutate_MissingTargetNotApplied(t *testing.T) {
	env := newTestEnv(t, false, 10)
	id, _ := env.open(t, map[string]any{})

	resp := env.mutate(t, id, map[string]any{"op": OpRemoveRule, "id": "missing", "parent_id": "missing"})

	if resp.Fields["applied"].GetBoolValue() {
		t.Error("expected applied=false")
	}
	if v := resp.Fields["version"].GetNumberValue(); v != 1 {
		t.Errorf("version = %v, want 1", v)
	}
}

func TestMutate_ColumnForcesAnd(t *testing.T) {
	env := newTestEnv(t, false, 10)
	id, resp := env.open(t, map[string]any{
		"query": map[string]any{"id": "root", "combinator": "or", "rules": []any{}},
	})
	if c := queryOf(resp).Fields["combinator"].GetStringValue(); c != "or" {
		t.Fatalf("initial combinator = %q, want or", c)
	}

	resp = env.mutate(t, id, map[string]any{
		"op":        OpAddGroup,
		"parent_id": "root",
		"group":     map[string]any{"id": "g1", "combinator": "or", "rules": []any{}},
	})
	nested := childrenOf(queryOf(resp))[0].GetStructValue()
	seeded := childrenOf(nested)[0].GetStructValue().Fields["id"].GetStringValue()

	resp = env.mutate(t, id, map[string]any{
		"op": OpChangeProperty, "prop": "field", "value": "region", "id": seeded,
	})

	if !resp.Fields["has_column"].GetBoolValue() {
		t.Error("expected has_column")
	}
	root := queryOf(resp)
	if c := root.Fields["combinator"].GetStringValue(); c != "and" {
		t.Errorf("root combinator = %q, want and", c)
	}
	if c := childrenOf(root)[0].GetStructValue().Fields["combinator"].GetStringValue(); c != "and" {
		t.Errorf("nested combinator = %q, want and", c)
	}
}

func TestMutate_Errors(t *testing.T) {
	env := newTestEnv(t, false, 10)
	id, _ := env.open(t, map[string]any{})
	ctx := context.Background()

	tests := []struct {
		name   string
		fields map[string]any
		want   codes.Code
	}{
		{name: "missing session", fields: map[string]any{"op": OpClear}, want: codes.InvalidArgument},
		{name: "malformed session", fields: map[string]any{"session_id": "nope", "op": OpClear}, want: codes.InvalidArgument},
		{name: "unknown session", fields: map[string]any{"session_id": types.NewSessionID(), "op": OpClear}, want: codes.NotFound},
		{name: "missing op", fields: map[string]any{"session_id": id}, want: codes.InvalidArgument},
		{name: "unknown op", fields: map[string]any{"session_id": id, "op": "rotate"}, want: codes.InvalidArgument},
		{name: "unknown prop", fields: map[string]any{"session_id": id, "op": OpChangeProperty, "prop": "color"}, want: codes.InvalidArgument},
		{
			name:   "group passed as rule",
			fields: map[string]any{"session_id": id, "op": OpAddRule, "rule": map[string]any{"combinator": "and", "rules": []any{}}},
			want:   codes.InvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.client.Mutate(ctx, req(t, tt.fields))
			assertCode(t, err, tt.want)
		})
	}
}

func TestMutate_Advanced(t *testing.T) {
	env := newTestEnv(t, false, 10)
	env.service.cfg.Builder.EnableNormalView = true
	id, _ := env.open(t, map[string]any{})

	resp := env.mutate(t, id, map[string]any{"op": OpAdvanced})

	if !resp.Fields["applied"].GetBoolValue() || !resp.Fields["advanced"].GetBoolValue() {
		t.Errorf("advanced: %v", resp)
	}
}

func TestClose(t *testing.T) {
	env := newTestEnv(t, false, 10)
	id, _ := env.open(t, map[string]any{})
	ctx := context.Background()

	if _, err := env.client.Close(ctx, req(t, map[string]any{"session_id": id})); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if env.service.SessionCount() != 0 {
		t.Errorf("SessionCount() = %d, want 0", env.service.SessionCount())
	}

	_, err := env.client.Close(ctx, req(t, map[string]any{"session_id": id}))
	assertCode(t, err, codes.NotFound)
}

func TestSaveListOpenFilter(t *testing.T) {
	env := newTestEnv(t, true, 10)
	ctx := context.Background()
	id, _ := env.open(t, map[string]any{
		"query": map[string]any{
			"combinator": "and",
			"email":      "ann@example.com",
			"rules":      []any{map[string]any{"field": "region", "operator": "=", "value": "north"}},
		},
	})

	_, err := env.client.Save(ctx, req(t, map[string]any{"session_id": id}))
	assertCode(t, err, codes.InvalidArgument)

	saved, err := env.client.Save(ctx, req(t, map[string]any{"session_id": id, "name": "north"}))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if saved.Fields["filter_id"].GetStringValue() == "" {
		t.Error("Save returned no filter_id")
	}

	_, err = env.client.Save(ctx, req(t, map[string]any{"session_id": id, "name": "north"}))
	assertCode(t, err, codes.AlreadyExists)

	if _, err := env.client.Save(ctx, req(t, map[string]any{"session_id": id, "name": "north", "overwrite": true})); err != nil {
		t.Fatalf("Save with overwrite failed: %v", err)
	}

	list, err := env.client.List(ctx, req(t, map[string]any{"owner": "ann@example.com"}))
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	filters := list.Fields["filters"].GetListValue().GetValues()
	if len(filters) != 1 || filters[0].GetStructValue().Fields["name"].GetStringValue() != "north" {
		t.Fatalf("List returned %v", filters)
	}

	_, resp := env.open(t, map[string]any{"filter": "north"})
	root := queryOf(resp)
	if n := root.Fields["name"].GetStringValue(); n != "north" {
		t.Errorf("reopened filter name = %q, want north", n)
	}
	if len(childrenOf(root)) != 1 {
		t.Errorf("reopened filter lost its rule: %v", root)
	}

	_, err = env.client.Open(ctx, req(t, map[string]any{"filter": "south"}))
	assertCode(t, err, codes.NotFound)
}

func TestSave_WithoutStore(t *testing.T) {
	env := newTestEnv(t, false, 10)
	id, _ := env.open(t, map[string]any{})
	ctx := context.Background()

	_, err := env.client.Save(ctx, req(t, map[string]any{"session_id": id, "name": "x"}))
	assertCode(t, err, codes.FailedPrecondition)

	_, err = env.client.List(ctx, req(t, map[string]any{}))
	assertCode(t, err, codes.FailedPrecondition)
}

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{types.ErrSessionNotFound, codes.NotFound},
		{types.ErrFilterNotFound, codes.NotFound},
		{types.ErrFilterExists, codes.AlreadyExists},
		{types.ErrTooManySessions, codes.ResourceExhausted},
		{types.ErrFilterNameRequired, codes.InvalidArgument},
		{context.DeadlineExceeded, codes.DeadlineExceeded},
		{net.ErrClosed, codes.Unavailable},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := status.Code(statusFromError(tt.err)); got != tt.want {
				t.Errorf("statusFromError(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}
