package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Satish-Das/food-donate-application/internal/store"
	"github.com/Satish-Das/food-donate-application/types"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 6
	maxPasswordBytes  = 72
)

var bcryptCost = bcrypt.DefaultCost

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	GetByPhone(ctx context.Context, phone string) (types.User, error)
	List(ctx context.Context, limit int) ([]types.User, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
	Delete(ctx context.Context, id string) error
	LinkDonation(ctx context.Context, userID, donationID string) error
	SetDonations(ctx context.Context, userID string, donationIDs []string) error
}

// AccountInput is the registration payload for users and administrators.
type AccountInput struct {
	Phone    string `json:"phone" validate:"required,phone10"`
	Email    string `json:"email" validate:"required,basicemail"`
	Password string `json:"password" validate:"required,min=6,pwbytes"`
	FullName string `json:"fullname" validate:"required"`
	City     string `json:"city" validate:"required"`
	Pincode  string `json:"pincode" validate:"required"`
	Address  string `json:"address" validate:"required"`
}

var accountMessages = map[string]string{
	"phone.required":    "Phone number is required",
	"phone.phone10":     "Phone number must be 10 digits",
	"email.required":    "Email is required",
	"email.basicemail":  "Email format is invalid",
	"password.required": "Password is required",
	"password.min":      "Password must be at least 6 characters long",
	"password.pwbytes":  "Password must be at most 72 bytes",
	"fullname.required": "Full name is required",
	"city.required":     "City is required",
	"pincode.required":  "Pincode is required",
	"address.required":  "Address is required",
}

func (in *AccountInput) normalize() {
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)
	in.City = strings.TrimSpace(in.City)
	in.Pincode = strings.TrimSpace(in.Pincode)
	in.Address = strings.TrimSpace(in.Address)
}

// ProfileUpdate carries optional profile changes. Nil fields are kept.
type ProfileUpdate struct {
	Phone    *string `json:"phone" validate:"omitempty,phone10"`
	Email    *string `json:"email" validate:"omitempty,basicemail"`
	Password *string `json:"password" validate:"omitempty,min=6,pwbytes"`
	FullName *string `json:"fullname"`
	City     *string `json:"city"`
	Pincode  *string `json:"pincode"`
	Address  *string `json:"address"`
}

var profileMessages = map[string]string{
	"phone.phone10":    "Phone number must be 10 digits",
	"email.basicemail": "Email format is invalid",
	"password.min":     "Password must be at least 6 characters long",
	"password.pwbytes": "Password must be at most 72 bytes",
}

func (in *ProfileUpdate) normalize() {
	for _, field := range []*string{in.Phone, in.FullName, in.City, in.Pincode, in.Address} {
		if field != nil {
			*field = strings.TrimSpace(*field)
		}
	}
	if in.Email != nil {
		*in.Email = strings.ToLower(strings.TrimSpace(*in.Email))
	}
}

// UserService encapsulates user account use-cases.
type UserService struct {
	repo      UserRepository
	validator *Validator
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo, validator: NewValidator()}
}

func (s *UserService) GetByID(ctx context.Context, id string) (types.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.User{}, translateUserError(err)
	}
	return user, nil
}

// Register creates an account with a bcrypt-hashed password.
func (s *UserService) Register(ctx context.Context, input AccountInput) (types.User, error) {
	input.normalize()
	if err := s.validator.Struct(input, accountMessages); err != nil {
		return types.User{}, err
	}

	if err := s.ensureAvailable(ctx, "", input.Email, input.Phone); err != nil {
		return types.User{}, err
	}

	hashed, err := hashPassword(input.Password)
	if err != nil {
		return types.User{}, err
	}

	user, err := s.repo.Create(ctx, types.User{
		FullName:     input.FullName,
		Email:        input.Email,
		PasswordHash: hashed,
		Phone:        input.Phone,
		City:         input.City,
		Pincode:      input.Pincode,
		Address:      input.Address,
		Donations:    []string{},
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return types.User{}, newError(ErrConflict, "User already exists with this email")
		}
		return types.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Authenticate verifies an email and password pair.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (types.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := credentialsProblems(email, password); err != nil {
		return types.User{}, err
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, newError(ErrUnauthenticated, "Invalid credentials")
		}
		return types.User{}, fmt.Errorf("get user: %w", err)
	}
	if !checkPassword(user.PasswordHash, password) {
		return types.User{}, newError(ErrUnauthenticated, "Invalid credentials")
	}
	return user, nil
}

// Update changes the caller's own profile.
func (s *UserService) Update(ctx context.Context, caller types.Principal, userID string, input ProfileUpdate) (types.User, error) {
	if !caller.IsUser() || caller.ID != userID {
		return types.User{}, newError(ErrPermissionDenied, "You can only update your own profile")
	}

	input.normalize()
	if err := s.validator.Struct(input, profileMessages); err != nil {
		return types.User{}, err
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return types.User{}, translateUserError(err)
	}

	email, phone := "", ""
	if input.Email != nil && *input.Email != user.Email {
		email = *input.Email
	}
	if input.Phone != nil && *input.Phone != user.Phone {
		phone = *input.Phone
	}
	if err := s.ensureAvailable(ctx, user.ID, email, phone); err != nil {
		return types.User{}, err
	}

	applyString(&user.FullName, input.FullName)
	applyString(&user.Email, input.Email)
	applyString(&user.Phone, input.Phone)
	applyString(&user.City, input.City)
	applyString(&user.Pincode, input.Pincode)
	applyString(&user.Address, input.Address)
	if input.Password != nil && *input.Password != "" {
		hashed, err := hashPassword(*input.Password)
		if err != nil {
			return types.User{}, err
		}
		user.PasswordHash = hashed
	}

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return types.User{}, newError(ErrConflict, "User already exists with this email or phone")
		}
		return types.User{}, translateUserError(err)
	}
	return updated, nil
}

// Delete removes the caller's own account.
func (s *UserService) Delete(ctx context.Context, caller types.Principal) error {
	if !caller.IsUser() {
		return newError(ErrPermissionDenied, "Only users can delete their account")
	}
	if err := s.repo.Delete(ctx, caller.ID); err != nil {
		return translateUserError(err)
	}
	return nil
}

// ensureAvailable rejects an email or phone held by another user. Empty
// values are not checked.
func (s *UserService) ensureAvailable(ctx context.Context, selfID, email, phone string) error {
	if email != "" {
		existing, err := s.repo.GetByEmail(ctx, email)
		if err == nil && existing.ID != selfID {
			return newError(ErrConflict, "User already exists with this email")
		}
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("check user email: %w", err)
		}
	}
	if phone != "" {
		existing, err := s.repo.GetByPhone(ctx, phone)
		if err == nil && existing.ID != selfID {
			return newError(ErrConflict, "User with this phone already exists")
		}
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("check user phone: %w", err)
		}
	}
	return nil
}

func translateUserError(err error) error {
	switch {
	case errors.Is(err, store.ErrInvalidID):
		return NewValidationError("Invalid user ID format")
	case errors.Is(err, store.ErrNotFound):
		return newError(ErrNotFound, "User not found")
	default:
		return err
	}
}

func credentialsProblems(email, password string) error {
	var problems []string
	if email == "" {
		problems = append(problems, "Email is required")
	}
	if password == "" {
		problems = append(problems, "Password is required")
	}
	if len(problems) > 0 {
		return NewValidationError(problems...)
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func applyString(dst *string, value *string) {
	if value != nil && *value != "" {
		*dst = *value
	}
}
