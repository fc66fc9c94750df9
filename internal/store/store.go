package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sort"

	"github.com/Masterminds/squirrel"

	"github.com/cnpj-cowork/internal/cowork"
	"github.com/cnpj-cowork/internal/db"
)

var reIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// columns of the establishment table, in cowork.Record order
var columns = []string{
	"cnpj_basico", "cnpj_ordem", "cnpj_dv", "correio_eletronico", "tipo_logradouro",
	"logradouro", "bairro", "numero", "complemento", "source_file",
}

// Store reads and writes establishment records in a SQL table
type Store struct {
	conn  *db.Connection
	table string
}

// New returns a store over table, which must be a plain SQL identifier
func New(conn *db.Connection, table string) (*Store, error) {
	if !reIdentifier.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Store{conn: conn, table: table}, nil
}

// EnsureSchema creates the establishment table and its neighborhood index
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			cnpj_basico        TEXT NOT NULL,
			cnpj_ordem         TEXT NOT NULL,
			cnpj_dv            TEXT NOT NULL,
			correio_eletronico TEXT,
			tipo_logradouro    TEXT,
			logradouro         TEXT,
			bairro             TEXT,
			numero             TEXT,
			complemento        TEXT,
			source_file        TEXT
		)`, s.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_bairro_idx ON %s (bairro)`, s.table, s.table),
	}

	for _, stmt := range stmts {
		if _, err := s.conn.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// Truncate removes every record
func (s *Store) Truncate(ctx context.Context) error {
	if _, err := s.conn.DB.ExecContext(ctx, "DELETE FROM "+s.table); err != nil {
		return fmt.Errorf("failed to truncate %s: %w", s.table, err)
	}
	return nil
}

// Count returns the number of stored records
func (s *Store) Count(ctx context.Context) (int, error) {
	query, args, err := s.conn.Builder().Select("COUNT(*)").From(s.table).ToSql()
	if err != nil {
		return 0, err
	}

	var n int
	if err := s.conn.DB.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", s.table, err)
	}
	return n, nil
}

// Neighborhoods returns the distinct non-empty neighborhoods, sorted byte-wise
func (s *Store) Neighborhoods(ctx context.Context) ([]string, error) {
	query, args, err := s.conn.Builder().
		Select("bairro").Distinct().
		From(s.table).
		Where(squirrel.And{squirrel.NotEq{"bairro": nil}, squirrel.NotEq{"bairro": ""}}).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.conn.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query neighborhoods: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to scan neighborhood: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// database collations disagree, byte order matches the in-memory source
	sort.Strings(out)
	return out, nil
}

// HasNeighborhood reports whether any record has exactly this neighborhood
func (s *Store) HasNeighborhood(ctx context.Context, neighborhood string) (bool, error) {
	query, args, err := s.conn.Builder().
		Select("1").
		From(s.table).
		Where(squirrel.Eq{"bairro": neighborhood}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, err
	}

	var exists int
	err = s.conn.DB.QueryRowContext(ctx, query, args...).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check neighborhood: %w", err)
	}
	return true, nil
}

// Records returns every record of a neighborhood
func (s *Store) Records(ctx context.Context, neighborhood string) ([]cowork.Record, error) {
	query, args, err := s.conn.Builder().
		Select(columns...).
		From(s.table).
		Where(squirrel.Eq{"bairro": neighborhood}).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.conn.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []cowork.Record
	for rows.Next() {
		var rec cowork.Record
		var email, streetType, street, bairro, number, complement, source sql.NullString
		if err := rows.Scan(
			&rec.CNPJBase, &rec.CNPJOrder, &rec.CNPJCheck,
			&email, &streetType, &street, &bairro, &number, &complement, &source,
		); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		rec.Email = email.String
		rec.StreetType = streetType.String
		rec.Street = street.String
		rec.Neighborhood = bairro.String
		rec.Number = number.String
		rec.Complement = complement.String
		rec.Source = source.String
		records = append(records, rec)
	}
	return records, rows.Err()
}
