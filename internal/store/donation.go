package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Satish-Das/food-donate-application/types"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const donationColumns = `id, user_id, fullname, email, phone, food_type, full_address, food_quantity, status, notes, donation_date, unique_id, created_at, updated_at`

// DonationRepository handles persistence for donations on Postgres.
type DonationRepository struct {
	db *sql.DB
}

func NewDonationRepository(db *sql.DB) *DonationRepository {
	return &DonationRepository{db: db}
}

func (r *DonationRepository) Create(ctx context.Context, donation types.Donation) (types.Donation, error) {
	if donation.UserID != nil {
		if _, err := uuid.Parse(*donation.UserID); err != nil {
			return types.Donation{}, ErrInvalidID
		}
	}
	return InsertWithRetry(ctx, donation, r.insert)
}

func (r *DonationRepository) insert(ctx context.Context, donation types.Donation) (types.Donation, error) {
	now := time.Now().UTC()
	donation.ID = uuid.NewString()
	donation.CreatedAt = now
	donation.UpdatedAt = now
	if donation.DonationDate.IsZero() {
		donation.DonationDate = now
	}
	if donation.Status == "" {
		donation.Status = types.StatusPending
	}

	const query = `
		INSERT INTO donations (` + donationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		donation.ID,
		nullableString(donation.UserID),
		donation.FullName,
		donation.Email,
		donation.Phone,
		string(donation.FoodType),
		donation.FullAddress,
		donation.FoodQuantity,
		string(donation.Status),
		donation.Notes,
		donation.DonationDate,
		donation.UniqueID,
		donation.CreatedAt,
		donation.UpdatedAt,
	)
	if err != nil {
		return types.Donation{}, translatePQError(err)
	}
	return donation, nil
}

func (r *DonationRepository) Get(ctx context.Context, id string) (types.Donation, error) {
	if _, err := uuid.Parse(id); err != nil {
		return types.Donation{}, ErrInvalidID
	}

	query := `SELECT ` + donationColumns + ` FROM donations WHERE id = $1`
	donation, err := scanDonation(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Donation{}, ErrNotFound
		}
		return types.Donation{}, err
	}
	return donation, nil
}

func (r *DonationRepository) List(ctx context.Context, filter types.DonationFilter) ([]types.Donation, error) {
	where, args := donationWhere(filter)
	query := `SELECT ` + donationColumns + ` FROM donations` + where + ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	donations := make([]types.Donation, 0)
	for rows.Next() {
		donation, err := scanDonation(rows)
		if err != nil {
			return nil, err
		}
		donations = append(donations, donation)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return donations, nil
}

func (r *DonationRepository) Count(ctx context.Context, filter types.DonationFilter) (int64, error) {
	where, args := donationWhere(filter)
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM donations`+where, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *DonationRepository) UpdateStatus(ctx context.Context, id string, status types.DonationStatus) (types.Donation, error) {
	return r.updateField(ctx, id, "status", string(status))
}

func (r *DonationRepository) UpdateNotes(ctx context.Context, id, notes string) (types.Donation, error) {
	return r.updateField(ctx, id, "notes", notes)
}

// UpdateQuantity changes the quantity of a pending donation. The status
// check and the write are one statement.
func (r *DonationRepository) UpdateQuantity(ctx context.Context, id, quantity string) (types.Donation, error) {
	if _, err := uuid.Parse(id); err != nil {
		return types.Donation{}, ErrInvalidID
	}

	query := `
		UPDATE donations
		SET food_quantity = $1,
			updated_at = $2
		WHERE id = $3 AND status = $4
		RETURNING ` + donationColumns
	donation, err := scanDonation(r.db.QueryRowContext(ctx, query, quantity, time.Now().UTC(), id, string(types.StatusPending)))
	if err == nil {
		return donation, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return types.Donation{}, err
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM donations WHERE id = $1)`, id).Scan(&exists); err != nil {
		return types.Donation{}, err
	}
	if exists {
		return types.Donation{}, ErrNotPending
	}
	return types.Donation{}, ErrNotFound
}

// updateField sets a single column. column is always a literal from this file.
func (r *DonationRepository) updateField(ctx context.Context, id, column string, value any) (types.Donation, error) {
	if _, err := uuid.Parse(id); err != nil {
		return types.Donation{}, ErrInvalidID
	}

	query := `
		UPDATE donations
		SET ` + column + ` = $1,
			updated_at = $2
		WHERE id = $3
		RETURNING ` + donationColumns
	donation, err := scanDonation(r.db.QueryRowContext(ctx, query, value, time.Now().UTC(), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Donation{}, ErrNotFound
		}
		return types.Donation{}, err
	}
	return donation, nil
}

// Statistics returns totals and per-day counts for donations created at or
// after since. Days without donations are omitted.
func (r *DonationRepository) Statistics(ctx context.Context, since time.Time) (types.DonationStatistics, error) {
	stats := types.EmptyStatistics()

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM donations`).Scan(&stats.TotalDonations); err != nil {
		return types.DonationStatistics{}, err
	}

	byStatus, err := r.groupCounts(ctx, `SELECT status, COUNT(1) FROM donations GROUP BY status`)
	if err != nil {
		return types.DonationStatistics{}, err
	}
	stats.ByStatus = byStatus

	byFoodType, err := r.groupCounts(ctx, `SELECT food_type, COUNT(1) FROM donations GROUP BY food_type`)
	if err != nil {
		return types.DonationStatistics{}, err
	}
	stats.ByFoodType = byFoodType

	const dailyQuery = `
		SELECT to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day, COUNT(1)
		FROM donations
		WHERE created_at >= $1
		GROUP BY day
		ORDER BY day`
	rows, err := r.db.QueryContext(ctx, dailyQuery, since)
	if err != nil {
		return types.DonationStatistics{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var day types.DailyCount
		if err := rows.Scan(&day.Date, &day.Count); err != nil {
			return types.DonationStatistics{}, err
		}
		stats.RecentDonations = append(stats.RecentDonations, day)
	}
	if err := rows.Err(); err != nil {
		return types.DonationStatistics{}, err
	}

	return stats, nil
}

// TotalQuantity sums every numeric food quantity. Non-numeric legacy values
// count as zero.
func (r *DonationRepository) TotalQuantity(ctx context.Context) (int64, error) {
	const query = `
		SELECT COALESCE(SUM(CASE WHEN food_quantity ~ '^[0-9]+$' THEN food_quantity::bigint ELSE 0 END), 0)
		FROM donations`
	var total int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *DonationRepository) groupCounts(ctx context.Context, query string, args ...any) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int64{}
	for rows.Next() {
		var key sql.NullString
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		if key.Valid && key.String != "" {
			counts[key.String] = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

func donationWhere(filter types.DonationFilter) (string, []any) {
	var conditions []string
	var args []any
	add := func(condition string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}

	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if filter.FoodType != "" {
		add("food_type = $%d", string(filter.FoodType))
	}
	if filter.From != nil {
		add("donation_date >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("donation_date <= $%d", *filter.To)
	}

	if filter.HasOwner() {
		var owner []string
		if filter.OwnerID != "" {
			args = append(args, filter.OwnerID)
			owner = append(owner, fmt.Sprintf("user_id::text = $%d", len(args)))
		}
		if filter.OwnerEmail != "" {
			args = append(args, filter.OwnerEmail)
			owner = append(owner, fmt.Sprintf("email = $%d", len(args)))
		}
		if len(owner) == 1 {
			conditions = append(conditions, owner[0])
		} else {
			conditions = append(conditions, "("+strings.Join(owner, " OR ")+")")
		}
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDonation(row rowScanner) (types.Donation, error) {
	var donation types.Donation
	var userID sql.NullString
	var foodType, status string
	if err := row.Scan(
		&donation.ID,
		&userID,
		&donation.FullName,
		&donation.Email,
		&donation.Phone,
		&foodType,
		&donation.FullAddress,
		&donation.FoodQuantity,
		&status,
		&donation.Notes,
		&donation.DonationDate,
		&donation.UniqueID,
		&donation.CreatedAt,
		&donation.UpdatedAt,
	); err != nil {
		return types.Donation{}, err
	}
	if userID.Valid {
		donation.UserID = &userID.String
	}
	donation.FoodType = types.FoodType(foodType)
	donation.Status = types.DonationStatus(status)
	return donation, nil
}

func nullableString(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

// translatePQError maps unique violations onto ErrDuplicateKey.
func translatePQError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, pqErr.Constraint)
	}
	return err
}
