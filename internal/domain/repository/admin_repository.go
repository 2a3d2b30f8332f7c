package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"codequest_admin/internal/common"
	"codequest_admin/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type AdminRepository interface {
	Create(ctx context.Context, admin *model.AdminAccount) error
	FindByEmail(ctx context.Context, email string) (*model.AdminAccount, error)
	FindByID(ctx context.Context, id string) (*model.AdminAccount, error)
}

type pgAdminRepository struct {
	db *sql.DB
}

func NewPgAdminRepository(db *sql.DB) AdminRepository {
	return &pgAdminRepository{db: db}
}

func (r *pgAdminRepository) Create(ctx context.Context, admin *model.AdminAccount) error {
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = time.Now()
	}
	query := `INSERT INTO admins (id, username, email, name, team_name, hashed_password, role, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, query, admin.ID, admin.Username, admin.Email, admin.Name,
		admin.TeamName, admin.HashedPassword, admin.Role, admin.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique constraint violation
			return fmt.Errorf("admin with given username or email already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgAdminRepository.Create: %w", err)
	}
	return nil
}

func (r *pgAdminRepository) FindByEmail(ctx context.Context, email string) (*model.AdminAccount, error) {
	return r.findOne(ctx, "FindByEmail", `WHERE email = $1`, email)
}

func (r *pgAdminRepository) FindByID(ctx context.Context, id string) (*model.AdminAccount, error) {
	return r.findOne(ctx, "FindByID", `WHERE id = $1`, id)
}

func (r *pgAdminRepository) findOne(ctx context.Context, op, where string, arg interface{}) (*model.AdminAccount, error) {
	query := `SELECT id, username, email, name, team_name, hashed_password, role, created_at
	          FROM admins ` + where
	admin := &model.AdminAccount{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&admin.ID, &admin.Username, &admin.Email, &admin.Name, &admin.TeamName,
		&admin.HashedPassword, &admin.Role, &admin.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgAdminRepository.%s: %w", op, err)
	}
	return admin, nil
}

type memoryAdminRepository struct {
	mu     sync.RWMutex
	admins map[string]model.AdminAccount
}

func NewMemoryAdminRepository() AdminRepository {
	return &memoryAdminRepository{admins: make(map[string]model.AdminAccount)}
}

func (r *memoryAdminRepository) Create(ctx context.Context, admin *model.AdminAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.admins {
		if strings.EqualFold(a.Email, admin.Email) || a.Username == admin.Username {
			return fmt.Errorf("admin with given username or email already exists: %w", common.ErrConflict)
		}
	}
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = time.Now()
	}
	r.admins[admin.ID] = *admin
	return nil
}

func (r *memoryAdminRepository) FindByEmail(ctx context.Context, email string) (*model.AdminAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.admins {
		if strings.EqualFold(a.Email, email) {
			return &a, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *memoryAdminRepository) FindByID(ctx context.Context, id string) (*model.AdminAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.admins[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &a, nil
}
