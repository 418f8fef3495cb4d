package transaction

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	Store(ctx context.Context, tx Transaction) (Transaction, error)
	List(ctx context.Context, filter Filter) ([]Transaction, error)
	// NextSubsidySeq returns the next SUB-<year>-<month>-NNN sequence number
	// for the given month.
	NextSubsidySeq(ctx context.Context, year int, month int) (int, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) Store(ctx context.Context, tx Transaction) (Transaction, error) {
	_, err := r.db.Exec(ctx, `INSERT INTO transactions
			(id, css_id, type, montant, date_transaction, reference, description, demande_id, avance_id, cree_par, cree_le)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		tx.ID, tx.CSSID, tx.Type, tx.Amount, tx.Date, tx.Reference, tx.Description,
		tx.RequestID, tx.AdvanceID, tx.CreatedBy, tx.CreatedAt)
	if err != nil {
		log.Errorf("could not insert transaction %s: %v", tx.Reference, err)
		return Transaction{}, err
	}
	return tx, nil
}

func (r *RepositoryImpl) List(ctx context.Context, filter Filter) ([]Transaction, error) {
	query := `SELECT t.id, t.css_id, c.code, c.name, t.type, t.montant, t.date_transaction,
			t.reference, COALESCE(t.description, ''), t.demande_id, t.avance_id, t.cree_par, t.cree_le
		FROM transactions t JOIN css c ON t.css_id = c.id`

	var conditions []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if filter.CSSID != nil {
		conditions = append(conditions, "t.css_id = "+arg(*filter.CSSID))
	}
	if filter.Type != nil {
		conditions = append(conditions, "t.type = "+arg(*filter.Type))
	}
	if filter.From != nil {
		conditions = append(conditions, "t.date_transaction >= "+arg(*filter.From))
	}
	if filter.To != nil {
		conditions = append(conditions, "t.date_transaction <= "+arg(*filter.To))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY t.date_transaction DESC, t.cree_le DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		log.Errorf("could not query transactions: %v", err)
		return nil, err
	}
	defer rows.Close()

	var transactions []Transaction
	for rows.Next() {
		var tx Transaction
		if err := rows.Scan(&tx.ID, &tx.CSSID, &tx.CSSCode, &tx.CSSName, &tx.Type, &tx.Amount,
			&tx.Date, &tx.Reference, &tx.Description, &tx.RequestID, &tx.AdvanceID,
			&tx.CreatedBy, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("could not scan transaction: %w", err)
		}
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}
	return transactions, nil
}

func (r *RepositoryImpl) NextSubsidySeq(ctx context.Context, year int, month int) (int, error) {
	prefix := fmt.Sprintf("SUB-%d-%02d-", year, month)
	// Numeric max over the suffix; a string MAX misorders past sequence 999.
	row := r.db.QueryRow(ctx,
		`SELECT COALESCE(MAX(CAST(SPLIT_PART(reference, '-', 4) AS INTEGER)), 0)
		FROM transactions WHERE reference LIKE $1`,
		prefix+"%")
	var last int
	if err := row.Scan(&last); err != nil {
		log.Errorf("could not find last subsidy reference for %d-%02d: %v", year, month, err)
		return 0, err
	}
	return last + 1, nil
}
