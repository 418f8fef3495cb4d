package fundrequest

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	// Store persists a request with all its days and items in one
	// transaction.
	Store(ctx context.Context, request FundRequest) (FundRequest, error)
	// List returns requests with days and items hydrated, newest first.
	// A nil cssID returns every request.
	List(ctx context.Context, cssID *uuid.UUID) ([]FundRequest, error)
	Get(ctx context.Context, id uuid.UUID) (FundRequest, error)
	// UpdateStatus persists the lifecycle fields of request, but only if the
	// stored status still equals expectedCurrent. Returns false when the
	// request moved in the meantime.
	UpdateStatus(ctx context.Context, request FundRequest, expectedCurrent Status) (bool, error)
	// NextReferenceSeq returns the next DEM-<year>-NNN sequence number.
	NextReferenceSeq(ctx context.Context, year int) (int, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) Store(ctx context.Context, request FundRequest) (FundRequest, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return FundRequest{}, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `INSERT INTO demandes_fonds
			(id, reference, css_id, description, statut, date_demande, demande_par)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		request.ID,
		request.Reference,
		request.CSSID,
		request.Description,
		request.Status,
		request.DateRequested,
		request.RequestedBy,
	)
	if err != nil {
		log.Errorf("could not insert fund request %s: %v", request.Reference, err)
		return FundRequest{}, err
	}

	for _, day := range request.Days {
		_, err = tx.Exec(ctx, `INSERT INTO demandes_jours (id, demande_id, date_besoin) VALUES ($1, $2, $3)`,
			day.ID, request.ID, day.Date)
		if err != nil {
			log.Errorf("could not insert day for %s: %v", request.Reference, err)
			return FundRequest{}, err
		}
		for _, item := range day.Items {
			_, err = tx.Exec(ctx, `INSERT INTO demandes_items
					(id, jour_id, montant, categorie, type_paiement, description, ordre)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				item.ID, day.ID, item.Amount, item.Category, item.PaymentMethod, item.Description, item.Order)
			if err != nil {
				log.Errorf("could not insert item for %s: %v", request.Reference, err)
				return FundRequest{}, err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return FundRequest{}, fmt.Errorf("could not commit fund request: %w", err)
	}
	return request, nil
}

const requestSelect = `SELECT d.id, d.reference, d.css_id, c.code, c.name, d.description, d.statut,
		d.date_demande, d.demande_par, d.revise_par, d.date_revision, COALESCE(d.notes_revision, ''), d.date_versement
	FROM demandes_fonds d JOIN css c ON d.css_id = c.id`

func (r *RepositoryImpl) List(ctx context.Context, cssID *uuid.UUID) ([]FundRequest, error) {
	query := requestSelect + ` ORDER BY d.date_demande DESC`
	args := []any{}
	if cssID != nil {
		query = requestSelect + ` WHERE d.css_id = $1 ORDER BY d.date_demande DESC`
		args = append(args, *cssID)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		log.Errorf("could not query fund requests: %v", err)
		return nil, err
	}
	defer rows.Close()

	var requests []FundRequest
	byID := map[uuid.UUID]int{}
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		byID[request.ID] = len(requests)
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}
	if len(requests) == 0 {
		return requests, nil
	}

	if err := r.hydrateDays(ctx, requests, byID); err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *RepositoryImpl) Get(ctx context.Context, id uuid.UUID) (FundRequest, error) {
	row := r.db.QueryRow(ctx, requestSelect+` WHERE d.id = $1`, id)
	request, err := scanRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return FundRequest{}, ErrNotFound
	} else if err != nil {
		return FundRequest{}, err
	}

	requests := []FundRequest{request}
	if err := r.hydrateDays(ctx, requests, map[uuid.UUID]int{request.ID: 0}); err != nil {
		return FundRequest{}, err
	}
	return requests[0], nil
}

func (r *RepositoryImpl) UpdateStatus(ctx context.Context, request FundRequest, expectedCurrent Status) (bool, error) {
	result, err := r.db.Exec(ctx, `UPDATE demandes_fonds SET
			statut = $1,
			revise_par = $2,
			date_revision = $3,
			notes_revision = $4,
			date_versement = $5
		WHERE id = $6 AND statut = $7`,
		request.Status,
		request.ReviewedBy,
		request.DateReviewed,
		request.ReviewNotes,
		request.DateVersed,
		request.ID,
		expectedCurrent,
	)
	if err != nil {
		log.Errorf("could not update status of %s: %v", request.Reference, err)
		return false, err
	}
	return result.RowsAffected() == 1, nil
}

func (r *RepositoryImpl) NextReferenceSeq(ctx context.Context, year int) (int, error) {
	prefix := fmt.Sprintf("DEM-%d-", year)
	// The max is taken over the numeric suffix; a string MAX would sort
	// DEM-2025-1000 before DEM-2025-999.
	row := r.db.QueryRow(ctx,
		`SELECT COALESCE(MAX(CAST(SPLIT_PART(reference, '-', 3) AS INTEGER)), 0)
		FROM demandes_fonds WHERE reference LIKE $1`,
		prefix+"%")
	var last int
	if err := row.Scan(&last); err != nil {
		log.Errorf("could not find last reference for %d: %v", year, err)
		return 0, err
	}
	return last + 1, nil
}

// hydrateDays loads all days and items for the given requests in two queries
// and attaches them in order.
func (r *RepositoryImpl) hydrateDays(ctx context.Context, requests []FundRequest, byID map[uuid.UUID]int) error {
	ids := make([]uuid.UUID, 0, len(requests))
	for _, request := range requests {
		ids = append(ids, request.ID)
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, demande_id, date_besoin FROM demandes_jours WHERE demande_id = ANY($1) ORDER BY date_besoin`,
		ids)
	if err != nil {
		log.Errorf("could not query request days: %v", err)
		return err
	}
	defer rows.Close()

	dayOwner := map[uuid.UUID]uuid.UUID{}
	dayIndex := map[uuid.UUID]int{}
	for rows.Next() {
		var day RequestDay
		var requestID uuid.UUID
		if err := rows.Scan(&day.ID, &requestID, &day.Date); err != nil {
			return fmt.Errorf("could not scan day: %w", err)
		}
		idx := byID[requestID]
		dayOwner[day.ID] = requestID
		dayIndex[day.ID] = len(requests[idx].Days)
		requests[idx].Days = append(requests[idx].Days, day)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating over rows: %w", err)
	}

	dayIDs := make([]uuid.UUID, 0, len(dayOwner))
	for id := range dayOwner {
		dayIDs = append(dayIDs, id)
	}
	if len(dayIDs) == 0 {
		return nil
	}

	itemRows, err := r.db.Query(ctx,
		`SELECT id, jour_id, montant, categorie, type_paiement, COALESCE(description, ''), ordre
		FROM demandes_items WHERE jour_id = ANY($1) ORDER BY ordre`,
		dayIDs)
	if err != nil {
		log.Errorf("could not query request items: %v", err)
		return err
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item LineItem
		var dayID uuid.UUID
		if err := itemRows.Scan(&item.ID, &dayID, &item.Amount, &item.Category,
			&item.PaymentMethod, &item.Description, &item.Order); err != nil {
			return fmt.Errorf("could not scan item: %w", err)
		}
		idx := byID[dayOwner[dayID]]
		day := &requests[idx].Days[dayIndex[dayID]]
		day.Items = append(day.Items, item)
	}
	return itemRows.Err()
}

func scanRequest(row pgx.Row) (FundRequest, error) {
	var request FundRequest
	err := row.Scan(
		&request.ID,
		&request.Reference,
		&request.CSSID,
		&request.CSSCode,
		&request.CSSName,
		&request.Description,
		&request.Status,
		&request.DateRequested,
		&request.RequestedBy,
		&request.ReviewedBy,
		&request.DateReviewed,
		&request.ReviewNotes,
		&request.DateVersed,
	)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			log.Errorf("could not scan fund request: %v", err)
		}
		return FundRequest{}, err
	}
	return request, nil
}
