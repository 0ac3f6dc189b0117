package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Satish-Das/food-donate-application/internal/store"
	"github.com/Satish-Das/food-donate-application/types"
)

const dashboardRecentLimit = 5

// AdminRepository defines persistence operations for administrators.
type AdminRepository interface {
	GetByID(ctx context.Context, id string) (types.Admin, error)
	GetByEmail(ctx context.Context, email string) (types.Admin, error)
	Create(ctx context.Context, admin types.Admin) (types.Admin, error)
	Update(ctx context.Context, admin types.Admin) (types.Admin, error)
}

// AdminService encapsulates administrator accounts and the views only
// administrators may see.
type AdminService struct {
	repo         AdminRepository
	users        UserRepository
	donations    DonationRepository
	validator    *Validator
	matchByEmail bool
}

func NewAdminService(repo AdminRepository, users UserRepository, donations DonationRepository, matchByEmail bool) *AdminService {
	return &AdminService{
		repo:         repo,
		users:        users,
		donations:    donations,
		validator:    NewValidator(),
		matchByEmail: matchByEmail,
	}
}

func (s *AdminService) GetByID(ctx context.Context, id string) (types.Admin, error) {
	admin, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.Admin{}, translateAdminError(err)
	}
	return admin, nil
}

func (s *AdminService) Register(ctx context.Context, input AccountInput) (types.Admin, error) {
	input.normalize()
	if err := s.validator.Struct(input, accountMessages); err != nil {
		return types.Admin{}, err
	}

	if _, err := s.repo.GetByEmail(ctx, input.Email); err == nil {
		return types.Admin{}, newError(ErrConflict, "Admin with this email already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.Admin{}, fmt.Errorf("check admin email: %w", err)
	}

	hashed, err := hashPassword(input.Password)
	if err != nil {
		return types.Admin{}, err
	}

	admin, err := s.repo.Create(ctx, types.Admin{
		FullName:     input.FullName,
		Email:        input.Email,
		PasswordHash: hashed,
		Phone:        input.Phone,
		City:         input.City,
		Pincode:      input.Pincode,
		Address:      input.Address,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return types.Admin{}, newError(ErrConflict, "Admin with this email already exists")
		}
		return types.Admin{}, fmt.Errorf("create admin: %w", err)
	}
	return admin, nil
}

func (s *AdminService) Authenticate(ctx context.Context, email, password string) (types.Admin, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := credentialsProblems(email, password); err != nil {
		return types.Admin{}, err
	}

	admin, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Admin{}, newError(ErrUnauthenticated, "Invalid credentials")
		}
		return types.Admin{}, fmt.Errorf("get admin: %w", err)
	}
	if !checkPassword(admin.PasswordHash, password) {
		return types.Admin{}, newError(ErrUnauthenticated, "Invalid credentials")
	}
	return admin, nil
}

// ResetPassword replaces the caller's password after checking the current one.
func (s *AdminService) ResetPassword(ctx context.Context, caller types.Principal, current, next string) error {
	if !caller.IsAdmin() {
		return newError(ErrPermissionDenied, "Only administrators can reset their password")
	}

	var problems []string
	if current == "" {
		problems = append(problems, "Current password is required")
	}
	if next == "" {
		problems = append(problems, "New password is required")
	} else if len(next) < minPasswordLength {
		problems = append(problems, "New password must be at least 6 characters long")
	} else if len(next) > maxPasswordBytes {
		problems = append(problems, "New password must be at most 72 bytes")
	}
	if len(problems) > 0 {
		return NewValidationError(problems...)
	}

	admin, err := s.repo.GetByID(ctx, caller.ID)
	if err != nil {
		return translateAdminError(err)
	}
	if !checkPassword(admin.PasswordHash, current) {
		return newError(ErrUnauthenticated, "Current password is incorrect")
	}

	hashed, err := hashPassword(next)
	if err != nil {
		return err
	}
	admin.PasswordHash = hashed
	if _, err := s.repo.Update(ctx, admin); err != nil {
		return translateAdminError(err)
	}
	return nil
}

// AdminUpsert describes an administrator created or repaired from the
// command line.
type AdminUpsert struct {
	Email    string
	Password string
	FullName string
	Phone    string
	City     string
	Pincode  string
	Address  string
}

// Upsert creates the administrator or, when one exists with the email,
// resets its password. It reports whether a new record was created.
func (s *AdminService) Upsert(ctx context.Context, input AdminUpsert) (types.Admin, bool, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Email == "" {
		return types.Admin{}, false, NewValidationError("Email is required")
	}
	if len(input.Password) < minPasswordLength {
		return types.Admin{}, false, NewValidationError("Password must be at least 6 characters long")
	}
	if len(input.Password) > maxPasswordBytes {
		return types.Admin{}, false, NewValidationError("Password must be at most 72 bytes")
	}

	hashed, err := hashPassword(input.Password)
	if err != nil {
		return types.Admin{}, false, err
	}

	existing, err := s.repo.GetByEmail(ctx, input.Email)
	switch {
	case err == nil:
		existing.PasswordHash = hashed
		updated, err := s.repo.Update(ctx, existing)
		if err != nil {
			return types.Admin{}, false, translateAdminError(err)
		}
		return updated, false, nil
	case !errors.Is(err, store.ErrNotFound):
		return types.Admin{}, false, fmt.Errorf("get admin: %w", err)
	}

	admin, err := s.repo.Create(ctx, types.Admin{
		FullName:     input.FullName,
		Email:        input.Email,
		PasswordHash: hashed,
		Phone:        input.Phone,
		City:         input.City,
		Pincode:      input.Pincode,
		Address:      input.Address,
	})
	if err != nil {
		return types.Admin{}, false, fmt.Errorf("create admin: %w", err)
	}
	return admin, true, nil
}

// Dashboard summarizes users and donations for the admin home page.
func (s *AdminService) Dashboard(ctx context.Context, caller types.Principal) (types.DashboardStats, error) {
	if !caller.IsAdmin() {
		return types.DashboardStats{}, newError(ErrPermissionDenied, "Only administrators can view the dashboard")
	}

	var stats types.DashboardStats
	var err error
	if stats.TotalUsers, err = s.users.Count(ctx); err != nil {
		return types.DashboardStats{}, fmt.Errorf("count users: %w", err)
	}
	if stats.TotalDonations, err = s.donations.Count(ctx, types.DonationFilter{}); err != nil {
		return types.DashboardStats{}, fmt.Errorf("count donations: %w", err)
	}
	if stats.TotalFoodQuantity, err = s.donations.TotalQuantity(ctx); err != nil {
		return types.DashboardStats{}, fmt.Errorf("sum food quantity: %w", err)
	}

	stats.StatusCounts = make(map[types.DonationStatus]int64, len(types.DonationStatuses))
	for _, status := range types.DonationStatuses {
		n, err := s.donations.Count(ctx, types.DonationFilter{Status: status})
		if err != nil {
			return types.DashboardStats{}, fmt.Errorf("count %s donations: %w", status, err)
		}
		stats.StatusCounts[status] = n
	}

	if stats.RecentDonations, err = s.donations.List(ctx, types.DonationFilter{Limit: dashboardRecentLimit}); err != nil {
		return types.DashboardStats{}, fmt.Errorf("list recent donations: %w", err)
	}
	if stats.RecentUsers, err = s.users.List(ctx, dashboardRecentLimit); err != nil {
		return types.DashboardStats{}, fmt.Errorf("list recent users: %w", err)
	}
	return stats, nil
}

func (s *AdminService) ListUsers(ctx context.Context, caller types.Principal) ([]types.User, error) {
	if !caller.IsAdmin() {
		return nil, newError(ErrPermissionDenied, "Only administrators can list users")
	}
	users, err := s.users.List(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// UserDetails returns a user with every donation attributed to them.
func (s *AdminService) UserDetails(ctx context.Context, caller types.Principal, userID string) (types.UserDetails, error) {
	if !caller.IsAdmin() {
		return types.UserDetails{}, newError(ErrPermissionDenied, "Only administrators can view user details")
	}

	user, err := s.users.GetByID(ctx, strings.TrimSpace(userID))
	if err != nil {
		return types.UserDetails{}, translateUserError(err)
	}

	filter := types.DonationFilter{OwnerID: user.ID}
	if s.matchByEmail {
		filter.OwnerEmail = user.Email
	}
	donations, err := s.donations.List(ctx, filter)
	if err != nil {
		return types.UserDetails{}, fmt.Errorf("list user donations: %w", err)
	}
	return types.UserDetails{User: user, Donations: donations}, nil
}

func translateAdminError(err error) error {
	switch {
	case errors.Is(err, store.ErrInvalidID):
		return NewValidationError("Invalid admin ID format")
	case errors.Is(err, store.ErrNotFound):
		return newError(ErrNotFound, "Admin not found")
	default:
		return err
	}
}
