package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Satish-Das/food-donate-application/types"
	"github.com/google/uuid"
)

const adminColumns = `id, fullname, email, password_hash, phone, city, pincode, address, created_at, updated_at`

// AdminRepository handles persistence for administrators on Postgres.
type AdminRepository struct {
	db *sql.DB
}

func NewAdminRepository(db *sql.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) GetByID(ctx context.Context, id string) (types.Admin, error) {
	if _, err := uuid.Parse(id); err != nil {
		return types.Admin{}, ErrInvalidID
	}
	return r.getBy(ctx, "id", id)
}

func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (types.Admin, error) {
	return r.getBy(ctx, "email", email)
}

func (r *AdminRepository) getBy(ctx context.Context, column, value string) (types.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE ` + column + ` = $1`
	var admin types.Admin
	err := r.db.QueryRowContext(ctx, query, value).Scan(
		&admin.ID,
		&admin.FullName,
		&admin.Email,
		&admin.PasswordHash,
		&admin.Phone,
		&admin.City,
		&admin.Pincode,
		&admin.Address,
		&admin.CreatedAt,
		&admin.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Admin{}, ErrNotFound
		}
		return types.Admin{}, err
	}
	return admin, nil
}

func (r *AdminRepository) Create(ctx context.Context, admin types.Admin) (types.Admin, error) {
	now := time.Now().UTC()
	admin.ID = uuid.NewString()
	admin.CreatedAt = now
	admin.UpdatedAt = now

	const query = `
		INSERT INTO admins (` + adminColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		admin.ID,
		admin.FullName,
		admin.Email,
		admin.PasswordHash,
		admin.Phone,
		admin.City,
		admin.Pincode,
		admin.Address,
		admin.CreatedAt,
		admin.UpdatedAt,
	); err != nil {
		return types.Admin{}, translatePQError(err)
	}
	return admin, nil
}

func (r *AdminRepository) Update(ctx context.Context, admin types.Admin) (types.Admin, error) {
	if _, err := uuid.Parse(admin.ID); err != nil {
		return types.Admin{}, ErrInvalidID
	}
	admin.UpdatedAt = time.Now().UTC()

	const query = `
		UPDATE admins
		SET fullname = $1,
			email = $2,
			password_hash = $3,
			phone = $4,
			city = $5,
			pincode = $6,
			address = $7,
			updated_at = $8
		WHERE id = $9`
	result, err := r.db.ExecContext(
		ctx,
		query,
		admin.FullName,
		admin.Email,
		admin.PasswordHash,
		admin.Phone,
		admin.City,
		admin.Pincode,
		admin.Address,
		admin.UpdatedAt,
		admin.ID,
	)
	if err != nil {
		return types.Admin{}, translatePQError(err)
	}
	if err := expectAffected(result); err != nil {
		return types.Admin{}, err
	}
	return admin, nil
}
