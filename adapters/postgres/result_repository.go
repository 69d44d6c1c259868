// Package postgres provides the optional database-backed result ledger,
// enabled when DATABASE_URL is set. It mirrors the TSV ledger's append-only
// contract so study runs from several machines can share one table.
package postgres

import (
	"context"
	"encoding/json"
	"math"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"decaylab/domain/result"
	"decaylab/internal/errors"
)

// ResultRepositoryImpl implements ports.ResultLedgerPort for PostgreSQL
type ResultRepositoryImpl struct {
	db    *sqlx.DB
	runID uuid.UUID
}

// NewResultRepository connects to the database and scopes all rows to one
// run ID.
func NewResultRepository(databaseURL string, runID uuid.UUID) (*ResultRepositoryImpl, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, errors.Wrap(errors.DatabaseError(err.Error()), "connecting to result database")
	}
	repo := &ResultRepositoryImpl{db: db, runID: runID}
	if err := repo.ensureSchema(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *ResultRepositoryImpl) ensureSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS iteration_results (
			id BIGSERIAL PRIMARY KEY,
			run_id UUID NOT NULL,
			iteration INTEGER NOT NULL,
			method TEXT NOT NULL,
			valid BOOLEAN NOT NULL,
			param_values JSONB NOT NULL,
			param_errors JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return errors.Wrap(err, "creating iteration_results table")
	}
	return nil
}

// Append inserts rows in order; rows are never updated afterward.
func (r *ResultRepositoryImpl) Append(ctx context.Context, rows []result.Row) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "starting result append transaction")
	}
	defer tx.Rollback()

	for _, row := range rows {
		valuesJSON, _ := json.Marshal(encodeParams(row.Values))
		errorsJSON, _ := json.Marshal(encodeParams(row.Errors))
		_, err := tx.ExecContext(ctx, `
			INSERT INTO iteration_results (run_id, iteration, method, valid, param_values, param_errors)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			r.runID, row.Iteration, string(row.Method), row.Valid, valuesJSON, errorsJSON)
		if err != nil {
			return errors.Wrap(err, "inserting result row")
		}
	}
	return tx.Commit()
}

// Load returns this run's rows in append order.
func (r *ResultRepositoryImpl) Load(ctx context.Context) ([]result.Row, error) {
	rows, err := r.db.QueryxContext(ctx, `
		SELECT iteration, method, valid, param_values, param_errors
		FROM iteration_results
		WHERE run_id = $1
		ORDER BY id`, r.runID)
	if err != nil {
		return nil, errors.Wrap(err, "querying result rows")
	}
	defer rows.Close()

	var out []result.Row
	for rows.Next() {
		var (
			iteration  int
			method     string
			valid      bool
			valuesJSON []byte
			errorsJSON []byte
		)
		if err := rows.Scan(&iteration, &method, &valid, &valuesJSON, &errorsJSON); err != nil {
			return nil, errors.Wrap(err, "scanning result row")
		}
		row := result.NewRow(iteration, result.Method(method), valid)
		var values, errs map[string]*float64
		if err := json.Unmarshal(valuesJSON, &values); err != nil {
			return nil, errors.Wrap(err, "decoding parameter values")
		}
		if err := json.Unmarshal(errorsJSON, &errs); err != nil {
			return nil, errors.Wrap(err, "decoding parameter errors")
		}
		row.Values = decodeParams(values)
		row.Errors = decodeParams(errs)
		out = append(out, row)
	}
	return out, rows.Err()
}

// encodeParams maps NaN markers to JSON null; JSON has no NaN literal.
func encodeParams(params map[result.Parameter]float64) map[string]*float64 {
	out := make(map[string]*float64, len(params))
	for p, v := range params {
		if math.IsNaN(v) {
			out[string(p)] = nil
			continue
		}
		v := v
		out[string(p)] = &v
	}
	return out
}

func decodeParams(params map[string]*float64) map[result.Parameter]float64 {
	out := make(map[result.Parameter]float64, len(params))
	for p, v := range params {
		if v == nil {
			out[result.Parameter(p)] = math.NaN()
			continue
		}
		out[result.Parameter(p)] = *v
	}
	return out
}

// Close releases the database connection.
func (r *ResultRepositoryImpl) Close() error {
	return r.db.Close()
}
