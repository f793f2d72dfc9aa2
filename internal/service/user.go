// Package service contains the domain logic for user metadata records.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/usermeta/usermeta/internal/model"
	"github.com/usermeta/usermeta/internal/telemetry"
)

// UserCollection is the document store capability the service needs.
// Satisfied by *docstore.Collection[model.UserRecord].
type UserCollection interface {
	Create(ctx context.Context, item *model.UserRecord, pk string) error
	Get(ctx context.Context, id, pk string) (model.UserRecord, bool, error)
	Query(ctx context.Context, query string, args ...any) ([]model.UserRecord, error)
	Upsert(ctx context.Context, id, pk string, item *model.UserRecord) error
	Delete(ctx context.Context, id, pk string) error
	Table() string
}

// UserService orchestrates reads and writes of user metadata records.
// Stateless; safe to share across concurrent requests.
type UserService struct {
	users  UserCollection
	logger *slog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(users UserCollection, logger *slog.Logger) *UserService {
	return &UserService{
		users:  users,
		logger: logger,
	}
}

// SaveUser validates the record and writes it in one unconditional
// upsert. A read-then-branch (get, then create or update) would race
// with concurrent writers to the same owner between the existence check
// and the write; a single upsert closes that window and keeps the
// one-record-per-owner invariant.
func (s *UserService) SaveUser(ctx context.Context, record model.UserRecord) error {
	ctx, span := telemetry.StartSpan(ctx, "service.SaveUser",
		attribute.String("user.id", record.ID()),
	)
	defer span.End()

	if err := record.Validate(); err != nil {
		span.RecordError(err)
		return err
	}

	if err := s.users.Upsert(ctx, record.ID(), record.OwnerID, &record); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to save user: %w", err)
	}

	s.logger.Info("user_saved", "user_id", record.ID())
	return nil
}

// ListUsers returns every record in the owner's partition, in store
// order. A never-written owner yields an empty slice, not an error.
func (s *UserService) ListUsers(ctx context.Context, ownerID string) ([]model.UserRecord, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.ListUsers",
		attribute.String("user.owner_id", ownerID),
	)
	defer span.End()

	if ownerID == "" {
		span.RecordError(model.ErrMissingOwnerID)
		return nil, model.ErrMissingOwnerID
	}

	query := fmt.Sprintf(`SELECT doc FROM %s WHERE partition_key = $1`, s.users.Table())

	records, err := s.users.Query(ctx, query, ownerID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return records, nil
}

// DeleteUser removes the owner's record. Deleting a never-written owner
// is success; the store-level delete is idempotent.
func (s *UserService) DeleteUser(ctx context.Context, ownerID string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.DeleteUser",
		attribute.String("user.owner_id", ownerID),
	)
	defer span.End()

	if ownerID == "" {
		span.RecordError(model.ErrMissingOwnerID)
		return model.ErrMissingOwnerID
	}

	if err := s.users.Delete(ctx, ownerID, ownerID); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.Info("user_deleted", "user_id", ownerID)
	return nil
}
