package api

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/querybuilder/internal/types"
)

// Open starts an editor session. The initial tree is the inline query, the
// saved filter named by filter, or an empty root when neither is given.
func (s *QueryEditorService) Open(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	query, err := nodeField(req, "query")
	if err != nil {
		return nil, err
	}
	filterName := stringField(req, "filter")

	if query != nil && filterName != "" {
		return nil, status.Error(codes.InvalidArgument, "query and filter are mutually exclusive")
	}

	if filterName != "" {
		if s.store == nil {
			return nil, status.Error(codes.FailedPrecondition, "saved filters are disabled")
		}
		f, err := s.store.Get(ctx, filterName)
		if err != nil {
			return nil, statusFromError(err)
		}
		root, err := f.Query()
		if err != nil {
			return nil, status.Error(codes.DataLoss, err.Error())
		}
		query = root
	}

	sess, err := s.newSession(query, stringField(req, "selected_column"))
	if err != nil {
		return nil, status.Error(codes.FailedPrecondition, fmt.Sprintf("creating builder: %v", err))
	}
	if err := s.register(sess); err != nil {
		return nil, statusFromError(err)
	}

	log.Info().
		Str("session_id", sess.id).
		Str("filter", filterName).
		Msg("Editor session opened")

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return respond(map[string]any{
		"session_id": sess.id,
		"version":    float64(sess.version),
		"query":      sess.builder.Query(),
		"view":       sess.builder.View(),
		"schema":     schemaJSON(sess.builder.Schema()),
	})
}

// Close ends a session.
func (s *QueryEditorService) Close(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := sessionIDField(req)
	if err != nil {
		return nil, err
	}
	if err := s.remove(id); err != nil {
		return nil, statusFromError(err)
	}
	return respond(map[string]any{"session_id": id})
}

// sessionIDField validates the session_id request field.
func sessionIDField(req *structpb.Struct) (string, error) {
	raw := stringField(req, "session_id")
	if raw == "" {
		return "", status.Error(codes.InvalidArgument, "session_id is required")
	}
	id, err := types.ParseSessionID(raw)
	if err != nil {
		return "", status.Error(codes.InvalidArgument, fmt.Sprintf("invalid session_id: %v", err))
	}
	return id, nil
}
