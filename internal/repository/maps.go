package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"kz-tracker/internal/domain"

	"github.com/rs/zerolog"
)

// MapRepository owns the local map cache. Point lookups, substring lookups,
// and per-row writes only; no cross-row transactions are needed or offered.
type MapRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewMapRepository(sqlDB *sql.DB, logger zerolog.Logger) *MapRepository {
	return &MapRepository{
		db:     sqlDB,
		logger: logger,
	}
}

const mapColumns = "catalog_id, extended, name, tier, pro_tier, vnl_tier, vnl_pro_tier, main_course, thumbnail"

// GetByName does an exact case-insensitive lookup. Returns (nil, nil) when
// no row matches.
func (r *MapRepository) GetByName(ctx context.Context, name string, extended bool) (*domain.Map, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+mapColumns+" FROM maps WHERE name = ? COLLATE NOCASE AND extended = ?",
		name, extended)
	return scanMap(row)
}

// SearchByName returns every row whose name contains the query,
// case-insensitively. instr instead of LIKE because map names contain
// underscores, which LIKE treats as a wildcard.
func (r *MapRepository) SearchByName(ctx context.Context, name string, extended bool) ([]domain.Map, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+mapColumns+" FROM maps WHERE instr(lower(name), lower(?)) > 0 AND extended = ? ORDER BY name",
		name, extended)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var maps []domain.Map
	for rows.Next() {
		m, err := scanMapRow(rows)
		if err != nil {
			return nil, err
		}
		maps = append(maps, *m)
	}
	return maps, rows.Err()
}

// SearchNames feeds autocomplete: distinct names across both families.
func (r *MapRepository) SearchNames(ctx context.Context, name string, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT DISTINCT name FROM maps WHERE instr(lower(name), lower(?)) > 0 ORDER BY name LIMIT ?",
		name, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// GetByCatalogID returns (nil, nil) when the catalog row is not cached.
func (r *MapRepository) GetByCatalogID(ctx context.Context, catalogID int64, extended bool) (*domain.Map, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+mapColumns+" FROM maps WHERE catalog_id = ? AND extended = ?",
		catalogID, extended)
	return scanMap(row)
}

func (r *MapRepository) Insert(ctx context.Context, m *domain.Map) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO maps ("+mapColumns+", created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		m.CatalogID, m.Extended, m.Name,
		nullInt(m.Tier), nullInt(m.ProTier), nullInt(m.VNLTier), nullInt(m.VNLProTier),
		nullString(m.Course), m.Thumbnail, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert map %s: %w", m.Name, err)
	}
	return nil
}

// Update rewrites a single cached row. Field-level change detection happens
// in the refresh logic; the write itself is one atomic row update.
func (r *MapRepository) Update(ctx context.Context, m *domain.Map) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE maps SET name = ?, tier = ?, pro_tier = ?, vnl_tier = ?, vnl_pro_tier = ?,
		 main_course = ?, thumbnail = ?, updated_at = ? WHERE catalog_id = ? AND extended = ?`,
		m.Name, nullInt(m.Tier), nullInt(m.ProTier), nullInt(m.VNLTier), nullInt(m.VNLProTier),
		nullString(m.Course), m.Thumbnail, time.Now().UTC(), m.CatalogID, m.Extended)
	if err != nil {
		return fmt.Errorf("failed to update map %s: %w", m.Name, err)
	}
	return nil
}

// Delete reports whether a row was actually removed so refresh can count it.
func (r *MapRepository) Delete(ctx context.Context, catalogID int64, extended bool) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM maps WHERE catalog_id = ? AND extended = ?", catalogID, extended)
	if err != nil {
		return false, fmt.Errorf("failed to delete map %d: %w", catalogID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMap(row *sql.Row) (*domain.Map, error) {
	m, err := scanMapRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return m, err
}

func scanMapRow(row rowScanner) (*domain.Map, error) {
	var m domain.Map
	var tier, proTier, vnlTier, vnlProTier sql.NullInt64
	var course sql.NullString
	err := row.Scan(&m.CatalogID, &m.Extended, &m.Name,
		&tier, &proTier, &vnlTier, &vnlProTier, &course, &m.Thumbnail)
	if err != nil {
		return nil, err
	}
	m.Tier = intPtr(tier)
	m.ProTier = intPtr(proTier)
	m.VNLTier = intPtr(vnlTier)
	m.VNLProTier = intPtr(vnlProTier)
	m.Course = course.String
	return &m, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullString(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
