package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"premium-estimator/core/types"
	"premium-estimator/internal/errors"
	"premium-estimator/internal/logging"
)

var (
	//go:embed sql/*
	ddl embed.FS
)

const (
	insertQuote = `INSERT INTO quote
		(id, domain, strategy, amount, amount_cents, currency, risk_index, formula, input, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			domain = excluded.domain, strategy = excluded.strategy, amount = excluded.amount,
			amount_cents = excluded.amount_cents, currency = excluded.currency,
			risk_index = excluded.risk_index, formula = excluded.formula,
			input = excluded.input, metadata = excluded.metadata, created_at = excluded.created_at
	`

	selectQuote = `SELECT id, domain, strategy, amount, currency, risk_index, formula, input, metadata, created_at
		FROM quote`

	deleteQuote = `DELETE FROM quote WHERE id = ?`
)

// SQLiteStore journals quotes in an embedded SQLite database
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed creates) the database at path
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.Config("sqlite storage path not specified")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrapf(errors.TypeConfig, err, "failed to create storage directory %s", dir)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(errors.TypeConfig, err, "failed to open database: %s", path)
	}
	// a single connection serializes writers
	db.SetMaxOpenConns(1)

	b, err := ddl.ReadFile("sql/ddl.sql")
	if err != nil {
		db.Close()
		return nil, errors.Internal("failed to read the schema creation file", err)
	}
	if _, err := db.Exec(string(b)); err != nil {
		db.Close()
		return nil, errors.Wrapf(errors.TypeInternal, err, "failed to create database schema in: %s", path)
	}
	logging.Debug("quote journal ready")
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, quote *StoredQuote) error {
	if err := prepare(quote); err != nil {
		return err
	}

	input, err := json.Marshal(quote.Input)
	if err != nil {
		return errors.Internal("failed to marshal quote input", err)
	}
	metadata, err := json.Marshal(quote.Metadata)
	if err != nil {
		return errors.Internal("failed to marshal quote metadata", err)
	}

	var riskIndex sql.NullFloat64
	if quote.RiskIndex != nil {
		riskIndex = sql.NullFloat64{Float64: *quote.RiskIndex, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, insertQuote,
		quote.ID, string(quote.Domain), string(quote.Strategy),
		quote.Amount.String(), cents(quote.Amount), string(quote.Currency),
		riskIndex, quote.Formula, string(input), string(metadata),
		quote.CreatedAt.UnixNano())
	if err != nil {
		return errors.Internal("failed to insert quote", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*StoredQuote, error) {
	rows, err := s.db.QueryContext(ctx, selectQuote+" WHERE id = ?", id)
	if err != nil {
		return nil, errors.Internal("failed to select quote", err)
	}
	quotes, err := scanQuotes(rows)
	if err != nil {
		return nil, err
	}
	if len(quotes) == 0 {
		return nil, notFound(id)
	}
	return quotes[0], nil
}

func (s *SQLiteStore) List(ctx context.Context, filter *ListFilter) ([]*StoredQuote, error) {
	query, args := listQuery(filter)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Internal("failed to list quotes", err)
	}
	return scanQuotes(rows)
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, deleteQuote, id)
	if err != nil {
		return errors.Internal("failed to delete quote", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound(id)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func cents(d decimal.Decimal) int64 {
	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func listQuery(f *ListFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	if f != nil {
		if f.Domain != "" {
			where = append(where, "domain = ?")
			args = append(args, string(f.Domain))
		}
		if f.Strategy != "" {
			where = append(where, "strategy = ?")
			args = append(args, string(f.Strategy))
		}
		if !f.Since.IsZero() {
			where = append(where, "created_at >= ?")
			args = append(args, f.Since.UnixNano())
		}
		if !f.Until.IsZero() {
			where = append(where, "created_at <= ?")
			args = append(args, f.Until.UnixNano())
		}
		if f.MinAmount.IsPositive() {
			where = append(where, "amount_cents >= ?")
			args = append(args, cents(f.MinAmount))
		}
		if f.MaxAmount.IsPositive() {
			where = append(where, "amount_cents <= ?")
			args = append(args, cents(f.MaxAmount))
		}
	}

	var sb strings.Builder
	sb.WriteString(selectQuote)
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY created_at DESC, id ASC")
	if f != nil && (f.Limit > 0 || f.Offset > 0) {
		limit := f.Limit
		if limit <= 0 {
			limit = -1
		}
		sb.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, limit, f.Offset)
	}
	return sb.String(), args
}

func scanQuotes(rows *sql.Rows) ([]*StoredQuote, error) {
	defer rows.Close()

	var quotes []*StoredQuote
	for rows.Next() {
		var (
			q         StoredQuote
			domain    string
			strategy  string
			amount    string
			currency  string
			riskIndex sql.NullFloat64
			formula   sql.NullString
			input     sql.NullString
			metadata  sql.NullString
			created   int64
		)
		if err := rows.Scan(&q.ID, &domain, &strategy, &amount, &currency,
			&riskIndex, &formula, &input, &metadata, &created); err != nil {
			return nil, errors.Internal("failed to scan quote", err)
		}

		var err error
		if q.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, errors.Parsing("invalid stored amount "+amount, err)
		}
		q.Domain = types.Domain(domain)
		q.Strategy = types.Strategy(strategy)
		q.Currency = types.Currency(currency)
		q.Formula = formula.String
		q.CreatedAt = time.Unix(0, created).UTC()
		if riskIndex.Valid {
			v := riskIndex.Float64
			q.RiskIndex = &v
		}
		if input.Valid && input.String != "" && input.String != "null" {
			if err := json.Unmarshal([]byte(input.String), &q.Input); err != nil {
				return nil, errors.Parsing("invalid stored input", err)
			}
		}
		if metadata.Valid && metadata.String != "" && metadata.String != "null" {
			if err := json.Unmarshal([]byte(metadata.String), &q.Metadata); err != nil {
				return nil, errors.Parsing("invalid stored metadata", err)
			}
		}
		quotes = append(quotes, &q)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Internal("failed to iterate quotes", err)
	}
	return quotes, nil
}
