package quotes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"quotesignal/internal/domain/entity/quote"
	"quotesignal/internal/domain/interfaces"
	"quotesignal/internal/infrastructure/quotes/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrQuoteNotFound = fmt.Errorf("quote %w", interfaces.ErrNotFound)

const createTableQuery = `
	CREATE TABLE IF NOT EXISTS market_data (
		id                    UUID PRIMARY KEY,
		symbol                VARCHAR(64) NOT NULL,
		bid_price             DOUBLE PRECISION NOT NULL,
		ask_price             DOUBLE PRECISION NOT NULL,
		bid_size              DOUBLE PRECISION NOT NULL,
		ask_size              DOUBLE PRECISION NOT NULL,
		tot_buy_qty           DOUBLE PRECISION NOT NULL,
		tot_sell_qty          DOUBLE PRECISION NOT NULL,
		spread                DOUBLE PRECISION NOT NULL,
		imbalance             DOUBLE PRECISION NOT NULL,
		order_book_prediction VARCHAR(32) NOT NULL,
		order_flow_prediction VARCHAR(32) NOT NULL,
		signal                VARCHAR(32) NOT NULL,
		processing_time_ms    DOUBLE PRECISION NOT NULL,
		received_at           TIMESTAMPTZ NOT NULL
	)`

const createIndexQuery = `
	CREATE INDEX IF NOT EXISTS idx_market_data_symbol_received_at
		ON market_data (symbol, received_at DESC)`

type Repository struct {
	pool  *pgxpool.Pool
	table *models.Table

	insertQuery string
	selectQuery string
}

var _ interfaces.QuoteRepository = (*Repository)(nil)

func NewRepository(ctx context.Context, dsn string) (*Repository, error) {
	table, err := models.QuoteTable()
	if err != nil {
		return nil, err
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pgx config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	return &Repository{
		pool:        pool,
		table:       table,
		insertQuery: buildInsertQuery(table),
		selectQuery: buildSelectQuery(table),
	}, nil
}

func (r *Repository) Close() {
	if r == nil || r.pool == nil {
		return
	}
	r.pool.Close()
}

// EnsureSchema creates the market_data table and its lookup index when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, createTableQuery); err != nil {
		return fmt.Errorf("create market_data table: %w", err)
	}
	if _, err := r.pool.Exec(ctx, createIndexQuery); err != nil {
		return fmt.Errorf("create market_data index: %w", err)
	}
	return nil
}

func (r *Repository) AddRecord(ctx context.Context, record *quote.Record) error {
	if record == nil {
		return errors.New("nil record")
	}
	prepareRecord(record)
	model := models.NewQuoteModel(*record)
	if _, err := r.pool.Exec(ctx, r.insertQuery, r.table.Values(ctx, &model)...); err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func (r *Repository) AddRecords(ctx context.Context, records []quote.Record) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(records))
	for i := range records {
		prepareRecord(&records[i])
		model := models.NewQuoteModel(records[i])
		rows = append(rows, r.table.Values(ctx, &model))
	}
	_, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{r.table.Name},
		r.table.Columns,
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("copy %d records: %w", len(records), err)
	}
	return nil
}

func (r *Repository) GetLatest(ctx context.Context, symbol string) (*quote.Record, error) {
	query := r.selectQuery + `
		WHERE symbol = $1
		ORDER BY received_at DESC
		LIMIT 1`
	record, err := r.scanRecord(ctx, r.pool.QueryRow(ctx, query, symbol))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQuoteNotFound
		}
		return nil, err
	}
	return &record, nil
}

// GetLast returns up to limit records for symbol, newest first.
func (r *Repository) GetLast(ctx context.Context, symbol string, limit int) ([]quote.Record, error) {
	if limit <= 0 {
		return nil, errors.New("limit must be positive")
	}
	query := r.selectQuery + `
		WHERE symbol = $1
		ORDER BY received_at DESC
		LIMIT $2`
	rows, err := r.pool.Query(ctx, query, symbol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]quote.Record, 0, limit)
	for rows.Next() {
		record, err := r.scanRecord(ctx, rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (r *Repository) scanRecord(ctx context.Context, row pgx.Row) (quote.Record, error) {
	var model models.QuoteModel
	if err := row.Scan(r.table.ScanTargets(ctx, &model)...); err != nil {
		return quote.Record{}, err
	}
	return model.ToRecord(), nil
}

func prepareRecord(record *quote.Record) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.ReceivedAt.IsZero() {
		record.ReceivedAt = time.Now().UTC()
	}
}

func buildInsertQuery(table *models.Table) string {
	placeholders := make([]string, len(table.Columns))
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table.Name, strings.Join(table.Columns, ", "), strings.Join(placeholders, ","))
}

func buildSelectQuery(table *models.Table) string {
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(table.Columns, ", "), table.Name)
}
