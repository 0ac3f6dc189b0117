package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Satish-Das/food-donate-application/types"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const userColumns = `id, fullname, email, password_hash, phone, city, pincode, address, total_donations, donation_ids, created_at, updated_at`

// UserRepository handles persistence for users on Postgres.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (types.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return types.User{}, ErrInvalidID
	}
	return r.getBy(ctx, "id", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (types.User, error) {
	return r.getBy(ctx, "phone", phone)
}

func (r *UserRepository) getBy(ctx context.Context, column, value string) (types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

// List returns users newest first. A non-positive limit returns every user.
func (r *UserRepository) List(ctx context.Context, limit int) ([]types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]types.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM users`).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Donations == nil {
		user.Donations = []string{}
	}

	const query = `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		user.ID,
		user.FullName,
		user.Email,
		user.PasswordHash,
		user.Phone,
		user.City,
		user.Pincode,
		user.Address,
		user.TotalDonations,
		pq.Array(user.Donations),
		user.CreatedAt,
		user.UpdatedAt,
	); err != nil {
		return types.User{}, translatePQError(err)
	}
	return user, nil
}

// Update writes the profile fields. Donation linkage is left untouched.
func (r *UserRepository) Update(ctx context.Context, user types.User) (types.User, error) {
	if _, err := uuid.Parse(user.ID); err != nil {
		return types.User{}, ErrInvalidID
	}
	user.UpdatedAt = time.Now().UTC()

	const query = `
		UPDATE users
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
		user.FullName,
		user.Email,
		user.PasswordHash,
		user.Phone,
		user.City,
		user.Pincode,
		user.Address,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return types.User{}, translatePQError(err)
	}
	if err := expectAffected(result); err != nil {
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

// LinkDonation increments the donation counter and appends the reference
// in one statement.
func (r *UserRepository) LinkDonation(ctx context.Context, userID, donationID string) error {
	if _, err := uuid.Parse(userID); err != nil {
		return ErrInvalidID
	}
	if _, err := uuid.Parse(donationID); err != nil {
		return ErrInvalidID
	}

	const query = `
		UPDATE users
		SET total_donations = total_donations + 1,
			donation_ids = array_append(donation_ids, $1::uuid),
			updated_at = $2
		WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, donationID, time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

// SetDonations replaces the donation references and sets the counter to
// match.
func (r *UserRepository) SetDonations(ctx context.Context, userID string, donationIDs []string) error {
	if _, err := uuid.Parse(userID); err != nil {
		return ErrInvalidID
	}
	if donationIDs == nil {
		donationIDs = []string{}
	}

	const query = `
		UPDATE users
		SET donation_ids = $1,
			total_donations = $2,
			updated_at = $3
		WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, pq.Array(donationIDs), len(donationIDs), time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func scanUser(row rowScanner) (types.User, error) {
	var user types.User
	var donations pq.StringArray
	if err := row.Scan(
		&user.ID,
		&user.FullName,
		&user.Email,
		&user.PasswordHash,
		&user.Phone,
		&user.City,
		&user.Pincode,
		&user.Address,
		&user.TotalDonations,
		&donations,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return types.User{}, err
	}
	user.Donations = []string(donations)
	if user.Donations == nil {
		user.Donations = []string{}
	}
	return user, nil
}

func expectAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
