package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	jsoniter "github.com/json-iterator/go"
	"go.opentelemetry.io/otel/attribute"

	"github.com/usermeta/usermeta/internal/telemetry"
)

// jsonCodec encodes document bodies. Drop-in compatible with
// encoding/json, so custom Marshal/Unmarshal methods on payload types
// are honored.
var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

// Collection provides CRUD operations for one document type stored in
// one table. It is generic over the payload shape so the same store
// logic serves any entity; the zero-cost constraint is that payloads
// derive their own id and can render themselves for tracing.
//
// A Collection is stateless apart from its pool handle and is safe for
// concurrent use.
type Collection[T Document] struct {
	store *Store
	table string
}

// NewCollection creates a collection bound to the given table.
// The table name is a trusted identifier, never caller input.
func NewCollection[T Document](store *Store, table string) *Collection[T] {
	return &Collection[T]{store: store, table: table}
}

// Table returns the table name backing this collection, for callers
// that build query expressions.
func (c *Collection[T]) Table() string {
	return c.table
}

// Create inserts a new document under the given partition key.
// Returns ErrConflict if a document with the same key already exists.
func (c *Collection[T]) Create(ctx context.Context, item *T, pk string) error {
	if item == nil {
		return ErrNilItem
	}
	if pk == "" {
		return ErrEmptyPartitionKey
	}

	ctx, span := telemetry.StartSpan(ctx, "docstore.Create",
		attribute.String("db.collection", c.table),
		attribute.String("doc.pk", pk),
		attribute.String("doc.item", (*item).String()),
	)
	defer span.End()

	body, err := jsonCodec.Marshal(item)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to encode document: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (id, partition_key, doc) VALUES ($1, $2, $3)`, c.table)

	if _, err := c.store.pool.Exec(ctx, query, (*item).ID(), pk, body); err != nil {
		if isUniqueViolation(err) {
			span.RecordError(ErrConflict)
			return ErrConflict
		}
		span.RecordError(err)
		return fmt.Errorf("failed to create document: %w", err)
	}

	return nil
}

// Get retrieves a document by id and partition key. A missing document
// is a normal outcome, reported as found == false with a nil error, so
// callers can use Get for existence checks.
func (c *Collection[T]) Get(ctx context.Context, id, pk string) (T, bool, error) {
	var zero T

	if id == "" {
		return zero, false, ErrEmptyID
	}
	if pk == "" {
		return zero, false, ErrEmptyPartitionKey
	}

	ctx, span := telemetry.StartSpan(ctx, "docstore.Get",
		attribute.String("db.collection", c.table),
		attribute.String("doc.id", id),
		attribute.String("doc.pk", pk),
	)
	defer span.End()

	query := fmt.Sprintf(`SELECT doc FROM %s WHERE id = $1 AND partition_key = $2`, c.table)

	var body []byte
	err := c.store.pool.QueryRow(ctx, query, id, pk).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return zero, false, nil
	}
	if err != nil {
		span.RecordError(err)
		return zero, false, fmt.Errorf("failed to get document: %w", err)
	}

	var item T
	if err := jsonCodec.Unmarshal(body, &item); err != nil {
		span.RecordError(err)
		return zero, false, fmt.Errorf("failed to decode document: %w", err)
	}

	return item, true, nil
}

// Query executes a parameterized query returning document bodies and
// drains every row into one materialized slice, in store-returned order.
func (c *Collection[T]) Query(ctx context.Context, query string, args ...any) ([]T, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}

	ctx, span := telemetry.StartSpan(ctx, "docstore.Query",
		attribute.String("db.collection", c.table),
		attribute.String("db.statement", query),
	)
	defer span.End()

	rows, err := c.store.pool.Query(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	items := make([]T, 0)
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}

		var item T
		if err := jsonCodec.Unmarshal(body, &item); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read query results: %w", err)
	}

	return items, nil
}

// Upsert inserts the document if absent or replaces it if present,
// unconditionally, in one statement.
func (c *Collection[T]) Upsert(ctx context.Context, id, pk string, item *T) error {
	if id == "" {
		return ErrEmptyID
	}
	if pk == "" {
		return ErrEmptyPartitionKey
	}
	if item == nil {
		return ErrNilItem
	}

	ctx, span := telemetry.StartSpan(ctx, "docstore.Upsert",
		attribute.String("db.collection", c.table),
		attribute.String("doc.id", id),
		attribute.String("doc.pk", pk),
		attribute.String("doc.item", (*item).String()),
	)
	defer span.End()

	body, err := jsonCodec.Marshal(item)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to encode document: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, partition_key, doc)
		VALUES ($1, $2, $3)
		ON CONFLICT (id, partition_key) DO UPDATE SET doc = EXCLUDED.doc
	`, c.table)

	if _, err := c.store.pool.Exec(ctx, query, id, pk, body); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to upsert document: %w", err)
	}

	return nil
}

// Delete removes a document. Deleting an absent document is success;
// delete is idempotent by design.
func (c *Collection[T]) Delete(ctx context.Context, id, pk string) error {
	ctx, span := telemetry.StartSpan(ctx, "docstore.Delete",
		attribute.String("db.collection", c.table),
		attribute.String("doc.id", id),
		attribute.String("doc.pk", pk),
	)
	defer span.End()

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND partition_key = $2`, c.table)

	if _, err := c.store.pool.Exec(ctx, query, id, pk); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete document: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique
// constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
