package advance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	Store(ctx context.Context, a Advance) (Advance, error)
	Get(ctx context.Context, id uuid.UUID) (Advance, error)
	// List returns advances, optionally narrowed to one CSS or to active
	// ones only.
	List(ctx context.Context, cssID *uuid.UUID, activeOnly bool) ([]Advance, error)
	// NextReferenceSeq returns the next AVN-<year>-NNN sequence number.
	NextReferenceSeq(ctx context.Context, year int) (int, error)
	// RecordDailyInterest inserts one day of interest for an advance and
	// rolls it into the accrued total. Returns false without touching
	// anything when that day was already recorded.
	RecordDailyInterest(ctx context.Context, advanceID uuid.UUID, date time.Time, amount decimal.Decimal) (bool, error)
	// Close marks an active advance closed on the given date. Returns false
	// when the advance was not active.
	Close(ctx context.Context, id uuid.UUID, date time.Time) (bool, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const advanceSelect = `SELECT a.id, a.reference, a.css_id, c.code, c.name, a.demande_id, a.principal,
		a.taux_annuel, a.date_debut, a.date_fin_prevue, a.date_fin_reelle, a.statut,
		a.interets_accumules, a.date_dernier_interet, COALESCE(a.notes, ''), a.cree_le
	FROM avances a JOIN css c ON a.css_id = c.id`

func (r *RepositoryImpl) Store(ctx context.Context, a Advance) (Advance, error) {
	_, err := r.db.Exec(ctx, `INSERT INTO avances
			(id, reference, css_id, demande_id, principal, taux_annuel, date_debut, date_fin_prevue,
			statut, interets_accumules, notes, cree_le)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		a.ID, a.Reference, a.CSSID, a.RequestID, a.Principal, a.AnnualRatePct, a.StartDate,
		a.EndDatePlanned, a.Status, a.AccruedInterest, a.Notes, a.CreatedAt)
	if err != nil {
		log.Errorf("could not insert advance %s: %v", a.Reference, err)
		return Advance{}, err
	}
	return a, nil
}

func (r *RepositoryImpl) Get(ctx context.Context, id uuid.UUID) (Advance, error) {
	row := r.db.QueryRow(ctx, advanceSelect+` WHERE a.id = $1`, id)
	a, err := scanAdvance(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Advance{}, ErrAdvanceNotFound
	}
	return a, err
}

func (r *RepositoryImpl) List(ctx context.Context, cssID *uuid.UUID, activeOnly bool) ([]Advance, error) {
	query := advanceSelect
	var conditions []string
	var args []any
	if cssID != nil {
		args = append(args, *cssID)
		conditions = append(conditions, fmt.Sprintf("a.css_id = $%d", len(args)))
	}
	if activeOnly {
		conditions = append(conditions, "a.statut = 'active'")
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY a.date_debut DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		log.Errorf("could not query advances: %v", err)
		return nil, err
	}
	defer rows.Close()

	var advances []Advance
	for rows.Next() {
		a, err := scanAdvance(rows)
		if err != nil {
			return nil, err
		}
		advances = append(advances, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}
	return advances, nil
}

func (r *RepositoryImpl) NextReferenceSeq(ctx context.Context, year int) (int, error) {
	prefix := fmt.Sprintf("AVN-%d-", year)
	// Numeric max over the suffix; a string MAX misorders past sequence 999.
	row := r.db.QueryRow(ctx,
		`SELECT COALESCE(MAX(CAST(SPLIT_PART(reference, '-', 3) AS INTEGER)), 0)
		FROM avances WHERE reference LIKE $1`,
		prefix+"%")
	var last int
	if err := row.Scan(&last); err != nil {
		log.Errorf("could not find last advance reference for %d: %v", year, err)
		return 0, err
	}
	return last + 1, nil
}

func (r *RepositoryImpl) RecordDailyInterest(ctx context.Context, advanceID uuid.UUID, date time.Time, amount decimal.Decimal) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `INSERT INTO avance_interets (avance_id, date_interet, montant)
		VALUES ($1, $2, $3) ON CONFLICT (avance_id, date_interet) DO NOTHING`,
		advanceID, date, amount)
	if err != nil {
		log.Errorf("could not record interest for advance %s: %v", advanceID, err)
		return false, err
	}
	if result.RowsAffected() == 0 {
		return false, nil
	}

	_, err = tx.Exec(ctx, `UPDATE avances SET
			interets_accumules = interets_accumules + $1,
			date_dernier_interet = $2
		WHERE id = $3`,
		amount, date, advanceID)
	if err != nil {
		log.Errorf("could not roll up interest for advance %s: %v", advanceID, err)
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("could not commit interest recording: %w", err)
	}
	return true, nil
}

func (r *RepositoryImpl) Close(ctx context.Context, id uuid.UUID, date time.Time) (bool, error) {
	result, err := r.db.Exec(ctx,
		`UPDATE avances SET statut = 'closed', date_fin_reelle = $1 WHERE id = $2 AND statut = 'active'`,
		date, id)
	if err != nil {
		log.Errorf("could not close advance %s: %v", id, err)
		return false, err
	}
	return result.RowsAffected() == 1, nil
}

func scanAdvance(row pgx.Row) (Advance, error) {
	var a Advance
	err := row.Scan(
		&a.ID,
		&a.Reference,
		&a.CSSID,
		&a.CSSCode,
		&a.CSSName,
		&a.RequestID,
		&a.Principal,
		&a.AnnualRatePct,
		&a.StartDate,
		&a.EndDatePlanned,
		&a.EndDateActual,
		&a.Status,
		&a.AccruedInterest,
		&a.LastAccrualDate,
		&a.Notes,
		&a.CreatedAt,
	)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			log.Errorf("could not scan advance: %v", err)
		}
		return Advance{}, err
	}
	return a, nil
}
