package css

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type Repo interface {
	Get(ctx context.Context, id uuid.UUID) (CSS, error)
	GetByCode(ctx context.Context, code string) (CSS, error)
	List(ctx context.Context, activeOnly bool) ([]CSS, error)
	Store(ctx context.Context, c CSS) (CSS, error)
}

type CSSRepoImpl struct {
	db *pgxpool.Pool
}

func NewCSSRepo(db *pgxpool.Pool) *CSSRepoImpl {
	return &CSSRepoImpl{db: db}
}

const cssColumns = `id, code, name, address, contact_person, contact_email, contact_phone, is_active, created_at`

func (r *CSSRepoImpl) Get(ctx context.Context, id uuid.UUID) (CSS, error) {
	row := r.db.QueryRow(ctx, `SELECT `+cssColumns+` FROM css WHERE id = $1`, id)
	return scanCSS(row)
}

func (r *CSSRepoImpl) GetByCode(ctx context.Context, code string) (CSS, error) {
	row := r.db.QueryRow(ctx, `SELECT `+cssColumns+` FROM css WHERE code = $1`, code)
	return scanCSS(row)
}

func (r *CSSRepoImpl) List(ctx context.Context, activeOnly bool) ([]CSS, error) {
	query := `SELECT ` + cssColumns + ` FROM css ORDER BY code`
	if activeOnly {
		query = `SELECT ` + cssColumns + ` FROM css WHERE is_active ORDER BY code`
	}
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		log.Errorf("failed to list css: %v", err)
		return nil, err
	}
	defer rows.Close()

	var list []CSS
	for rows.Next() {
		c, err := scanCSS(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func (r *CSSRepoImpl) Store(ctx context.Context, c CSS) (CSS, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	query := `INSERT INTO css (id, code, name, address, contact_person, contact_email, contact_phone, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING created_at`
	err := r.db.QueryRow(ctx, query,
		c.ID,
		c.Code,
		c.Name,
		c.Address,
		c.ContactPerson,
		c.ContactEmail,
		c.ContactPhone,
		c.Active,
	).Scan(&c.CreatedAt)
	if err != nil {
		log.Errorf("failed to store css %s: %v", c.Code, err)
		return CSS{}, err
	}
	return c, nil
}

func scanCSS(row pgx.Row) (CSS, error) {
	var c CSS
	err := row.Scan(
		&c.ID,
		&c.Code,
		&c.Name,
		&c.Address,
		&c.ContactPerson,
		&c.ContactEmail,
		&c.ContactPhone,
		&c.Active,
		&c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return CSS{}, ErrCSSNotFound
	} else if err != nil {
		log.Errorf("failed to scan css: %v", err)
		return CSS{}, err
	}
	return c, nil
}
