package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrUserNotFound = errors.New("user not found")

type Repo interface {
	GetUser(ctx context.Context, id uuid.UUID) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	CreateUser(ctx context.Context, u User) (User, error)
	GetAllUsers(ctx context.Context) ([]User, error)
}

type UserRepoImpl struct {
	db *pgxpool.Pool
}

func NewUserRepo(db *pgxpool.Pool) *UserRepoImpl {
	return &UserRepoImpl{db: db}
}

const userSelect = `SELECT u.id, u.username, u.first_name, u.last_name, u.email, u.role, u.css_id,
			COALESCE(c.code, ''), COALESCE(c.name, ''), u.created_at
		FROM users u LEFT JOIN css c ON u.css_id = c.id`

func (r *UserRepoImpl) GetUser(ctx context.Context, id uuid.UUID) (User, error) {
	row := r.db.QueryRow(ctx, userSelect+` WHERE u.id = $1`, id)
	return scanUser(row)
}

func (r *UserRepoImpl) GetUserByUsername(ctx context.Context, username string) (User, error) {
	row := r.db.QueryRow(ctx, userSelect+` WHERE u.username = $1`, username)
	return scanUser(row)
}

func (r *UserRepoImpl) CreateUser(ctx context.Context, u User) (User, error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	query := `INSERT INTO users (id, username, first_name, last_name, email, role, css_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at`
	err := r.db.QueryRow(ctx, query,
		u.ID,
		u.Username,
		u.FirstName,
		u.LastName,
		u.Email,
		u.Role,
		u.CSSID,
	).Scan(&u.CreatedAt)
	if err != nil {
		log.Errorf("failed to create user %s: %v", u.Username, err)
		return User{}, err
	}
	return u, nil
}

func (r *UserRepoImpl) GetAllUsers(ctx context.Context) ([]User, error) {
	rows, err := r.db.Query(ctx, userSelect+` ORDER BY u.username`)
	if err != nil {
		log.Errorf("failed to list users: %v", err)
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUserRow(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.Role,
		&u.CSSID,
		&u.CSSCode,
		&u.CSSName,
		&u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	} else if err != nil {
		log.Errorf("failed to scan user: %v", err)
		return User{}, err
	}
	return u, nil
}

func scanUserRow(rows pgx.Rows) (User, error) {
	var u User
	err := rows.Scan(
		&u.ID,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.Role,
		&u.CSSID,
		&u.CSSCode,
		&u.CSSName,
		&u.CreatedAt,
	)
	if err != nil {
		log.Errorf("failed to scan user: %v", err)
		return User{}, err
	}
	return u, nil
}
