package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/auralab/aura/engine/core"
	"github.com/auralab/aura/pkg/logger"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrReadingNotFound reports a lookup that matched no row.
var ErrReadingNotFound = errors.New("postgres: reading not found")

// engineNamePattern bounds the identifiers we splice into table names.
var engineNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// DBTX is the pool surface the repository needs; *pgxpool.Pool and
// transactions both satisfy it.
type DBTX interface {
	pgxscan.Querier
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ReadingRepo persists reading envelopes, one table per engine.
type ReadingRepo struct {
	db      DBTX
	engines []string
}

// NewReadingRepo builds a repository over the given engine set; the set
// drives PurgeExpired's table sweep.
func NewReadingRepo(db DBTX, engines []string) *ReadingRepo {
	return &ReadingRepo{db: db, engines: engines}
}

// readingRow is the scan target for reading tables.
type readingRow struct {
	ID           string     `db:"id"`
	UserID       *string    `db:"user_id"`
	EngineName   string     `db:"engine_name"`
	PayloadJSON  []byte     `db:"payload_json"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	ExpiresAt    *time.Time `db:"expires_at"`
	PrivacyLevel string     `db:"privacy_level"`
}

var readingColumns = []string{
	"id", "user_id", "engine_name", "payload_json",
	"created_at", "updated_at", "expires_at", "privacy_level",
}

func tableFor(engine string) (string, error) {
	if !engineNamePattern.MatchString(engine) {
		return "", fmt.Errorf("postgres: invalid engine name %q", engine)
	}
	return fmt.Sprintf("engine_%s_readings", engine), nil
}

// SaveReading upserts the full envelope into the engine's table. It
// satisfies the orchestrator's Store port.
func (r *ReadingRepo) SaveReading(ctx context.Context, reading *core.Reading) error {
	table, err := tableFor(reading.EngineName)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("postgres: marshal reading %s: %w", reading.ReadingID, err)
	}
	var userID *string
	if reading.UserID != "" {
		userID = &reading.UserID
	}
	query, args, err := squirrel.Insert(table).
		Columns(readingColumns...).
		Values(
			reading.ReadingID.String(),
			userID,
			reading.EngineName,
			payload,
			reading.CreatedAt,
			reading.UpdatedAt,
			reading.ExpiresAt,
			string(reading.PrivacyLevel),
		).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			payload_json = EXCLUDED.payload_json,
			updated_at = EXCLUDED.updated_at,
			expires_at = EXCLUDED.expires_at,
			privacy_level = EXCLUDED.privacy_level`).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("postgres: build save query: %w", err)
	}
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("postgres: save reading %s: %w", reading.ReadingID, err)
	}
	return nil
}

// GetByID loads one reading from the engine's table.
func (r *ReadingRepo) GetByID(ctx context.Context, engine string, id core.ID) (*core.Reading, error) {
	table, err := tableFor(engine)
	if err != nil {
		return nil, err
	}
	query, args, err := squirrel.Select(readingColumns...).
		From(table).
		Where(squirrel.Eq{"id": id.String()}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("postgres: build get query: %w", err)
	}
	var row readingRow
	if err := pgxscan.Get(ctx, r.db, &row, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReadingNotFound
		}
		return nil, fmt.Errorf("postgres: get reading %s: %w", id, err)
	}
	return decodeRow(&row)
}

// ListByUser returns a user's readings for one engine, newest first.
func (r *ReadingRepo) ListByUser(ctx context.Context, engine, userID string, limit int) ([]*core.Reading, error) {
	table, err := tableFor(engine)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	query, args, err := squirrel.Select(readingColumns...).
		From(table).
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("postgres: build list query: %w", err)
	}
	var rows []readingRow
	if err := pgxscan.Select(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("postgres: list readings for %s: %w", userID, err)
	}
	readings := make([]*core.Reading, 0, len(rows))
	for i := range rows {
		reading, err := decodeRow(&rows[i])
		if err != nil {
			return nil, err
		}
		readings = append(readings, reading)
	}
	return readings, nil
}

// PurgeExpired deletes rows past their expires_at across every engine
// table and reports the total removed.
func (r *ReadingRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	log := logger.FromContext(ctx)
	var total int64
	for _, engine := range r.engines {
		table, err := tableFor(engine)
		if err != nil {
			return total, err
		}
		query, args, err := squirrel.Delete(table).
			Where(squirrel.Lt{"expires_at": now}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return total, fmt.Errorf("postgres: build purge query: %w", err)
		}
		tag, err := r.db.Exec(ctx, query, args...)
		if err != nil {
			return total, fmt.Errorf("postgres: purge %s: %w", table, err)
		}
		if removed := tag.RowsAffected(); removed > 0 {
			total += removed
			log.Debug("purged expired readings", "table", table, "rows", removed)
		}
	}
	return total, nil
}

func decodeRow(row *readingRow) (*core.Reading, error) {
	var reading core.Reading
	if err := json.Unmarshal(row.PayloadJSON, &reading); err != nil {
		return nil, fmt.Errorf("postgres: decode reading %s: %w", row.ID, err)
	}
	return &reading, nil
}
