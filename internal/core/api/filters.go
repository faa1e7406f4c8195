package api

import (
	"context"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Save stores the session's current tree under its root name, or under name
// when given. Overwriting an existing filter requires overwrite=true.
func (s *QueryEditorService) Save(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.store == nil {
		return nil, status.Error(codes.FailedPrecondition, "saved filters are disabled")
	}
	id, err := sessionIDField(req)
	if err != nil {
		return nil, err
	}
	sess, err := s.lookup(id)
	if err != nil {
		return nil, statusFromError(err)
	}

	sess.mu.Lock()
	root := sess.builder.Query()
	sess.mu.Unlock()

	if name := stringField(req, "name"); name != "" {
		root.Name = name
	}

	f, err := s.store.Save(ctx, root, boolField(req, "overwrite"))
	if err != nil {
		return nil, statusFromError(err)
	}

	mode := "create"
	if f.CreatedAt != f.UpdatedAt {
		mode = "overwrite"
	}
	s.metrics.FiltersSaved.WithLabelValues(mode).Inc()

	log.Info().
		Str("session_id", id).
		Str("filter_id", f.ID).
		Str("name", f.Name).
		Str("mode", mode).
		Msg("Filter saved")

	return respond(map[string]any{
		"filter_id":  f.ID,
		"name":       f.Name,
		"created_at": float64(f.CreatedAt),
		"updated_at": float64(f.UpdatedAt),
	})
}

// List returns saved filter summaries ordered by name.
func (s *QueryEditorService) List(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.store == nil {
		return nil, status.Error(codes.FailedPrecondition, "saved filters are disabled")
	}

	filters, err := s.store.List(ctx, stringField(req, "owner"))
	if err != nil {
		return nil, statusFromError(err)
	}

	out := make([]any, 0, len(filters))
	for _, f := range filters {
		out = append(out, map[string]any{
			"filter_id":   f.ID,
			"name":        f.Name,
			"owner_email": f.OwnerEmail,
			"is_active":   f.IsActive,
			"updated_at":  float64(f.UpdatedAt),
		})
	}
	return respond(map[string]any{"filters": out})
}
