package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Satish-Das/food-donate-application/internal/store"
	"github.com/Satish-Das/food-donate-application/types"
)

const (
	statisticsWindowDays = 7
	dateLayout           = "2006-01-02"
	statusAll            = "all"
)

// DonationRepository defines persistence operations for donations.
type DonationRepository interface {
	Create(ctx context.Context, donation types.Donation) (types.Donation, error)
	Get(ctx context.Context, id string) (types.Donation, error)
	List(ctx context.Context, filter types.DonationFilter) ([]types.Donation, error)
	Count(ctx context.Context, filter types.DonationFilter) (int64, error)
	UpdateStatus(ctx context.Context, id string, status types.DonationStatus) (types.Donation, error)
	UpdateNotes(ctx context.Context, id, notes string) (types.Donation, error)
	UpdateQuantity(ctx context.Context, id, quantity string) (types.Donation, error)
	Statistics(ctx context.Context, since time.Time) (types.DonationStatistics, error)
	TotalQuantity(ctx context.Context) (int64, error)
}

// EventPublisher delivers donation lifecycle events.
type EventPublisher interface {
	PublishDonationEvent(ctx context.Context, event types.DonationEvent) error
}

// StatisticsCache stores the last computed statistics.
type StatisticsCache interface {
	GetStatistics(ctx context.Context) (types.DonationStatistics, bool, error)
	SetStatistics(ctx context.Context, stats types.DonationStatistics) error
	InvalidateStatistics(ctx context.Context) error
}

// DonationInput is the submission payload. Field order is the order in
// which problems are reported.
type DonationInput struct {
	Phone        string `json:"phone" validate:"required,phone10"`
	Email        string `json:"email" validate:"required,basicemail"`
	FullName     string `json:"fullname" validate:"required"`
	FoodType     string `json:"foodType" validate:"required,oneof=veg non-veg both"`
	FullAddress  string `json:"fullAddress" validate:"required"`
	FoodQuantity string `json:"foodQuantity" validate:"required,wholenumber,positive"`
	Notes        string `json:"notes"`
}

var donationMessages = map[string]string{
	"phone.required":           "Phone number is required",
	"phone.phone10":            "Phone number must be 10 digits",
	"email.required":           "Email is required",
	"email.basicemail":         "Email format is invalid",
	"fullname.required":        "Full name is required",
	"foodType.required":        "Food type is required",
	"foodType.oneof":           "Food type must be one of veg, non-veg, both",
	"fullAddress.required":     "Address is required",
	"foodQuantity.required":    "Food quantity is required",
	"foodQuantity.wholenumber": "Food quantity must be a number",
	"foodQuantity.positive":    "Food quantity must be greater than 0",
}

func (in *DonationInput) normalize() {
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)
	in.FoodType = strings.TrimSpace(in.FoodType)
	in.FullAddress = strings.TrimSpace(in.FullAddress)
	in.FoodQuantity = strings.TrimSpace(in.FoodQuantity)
	in.Notes = strings.TrimSpace(in.Notes)
}

// DonationQuery carries raw listing parameters.
type DonationQuery struct {
	Status    string
	FoodType  string
	StartDate string
	EndDate   string
}

// DonationService enforces who may create, read and change donations.
type DonationService struct {
	repo         DonationRepository
	linkage      *UserLinkage
	validator    *Validator
	events       EventPublisher
	cache        StatisticsCache
	logger       *slog.Logger
	matchByEmail bool
	now          func() time.Time
}

type DonationOption func(*DonationService)

// WithEventPublisher publishes lifecycle events after successful writes.
func WithEventPublisher(events EventPublisher) DonationOption {
	return func(s *DonationService) { s.events = events }
}

// WithStatisticsCache serves statistics through cache.
func WithStatisticsCache(cache StatisticsCache) DonationOption {
	return func(s *DonationService) { s.cache = cache }
}

// WithEmailMatching controls whether a user sees donations that carry
// their email but no owner.
func WithEmailMatching(enabled bool) DonationOption {
	return func(s *DonationService) { s.matchByEmail = enabled }
}

func NewDonationService(repo DonationRepository, linkage *UserLinkage, logger *slog.Logger, opts ...DonationOption) *DonationService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &DonationService{
		repo:         repo,
		linkage:      linkage,
		validator:    NewValidator(),
		logger:       logger,
		matchByEmail: true,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit creates a pending donation. An authenticated user becomes its
// owner; everyone else creates an anonymous donation.
func (s *DonationService) Submit(ctx context.Context, caller types.Principal, input DonationInput) (types.Donation, error) {
	input.normalize()
	if err := s.validator.Struct(input, donationMessages); err != nil {
		return types.Donation{}, err
	}

	donation := types.Donation{
		FullName:     input.FullName,
		Email:        input.Email,
		Phone:        input.Phone,
		FoodType:     types.FoodType(input.FoodType),
		FullAddress:  input.FullAddress,
		FoodQuantity: input.FoodQuantity,
		Notes:        input.Notes,
		Status:       types.StatusPending,
		DonationDate: s.now().UTC(),
	}
	if caller.IsUser() {
		owner := caller.ID
		donation.UserID = &owner
	}

	created, err := s.repo.Create(ctx, donation)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return types.Donation{}, newError(ErrConflict, "Could not create donation, please try again")
		}
		return types.Donation{}, fmt.Errorf("create donation: %w", err)
	}

	if created.UserID != nil && s.linkage != nil {
		if err := s.linkage.Link(ctx, *created.UserID, created.ID); err != nil {
			s.logger.Warn("failed to link donation to user",
				"donation_id", created.ID,
				"user_id", *created.UserID,
				"error", err,
			)
		}
	}

	s.publish(ctx, types.DonationEvent{
		Type:       types.EventDonationCreated,
		DonationID: created.ID,
		FullName:   created.FullName,
		Email:      created.Email,
		Status:     created.Status,
		OccurredAt: created.CreatedAt,
	})
	s.invalidateStatistics(ctx)

	return created, nil
}

// Get returns a single donation. Users only see their own donations; any
// other id reports not found.
func (s *DonationService) Get(ctx context.Context, caller types.Principal, id string) (types.Donation, error) {
	if !caller.IsAuthenticated() {
		return types.Donation{}, newError(ErrUnauthenticated, "Authentication required")
	}

	donation, err := s.load(ctx, id)
	if err != nil {
		return types.Donation{}, err
	}
	if caller.IsAdmin() || s.visibleTo(caller, donation) {
		return donation, nil
	}
	return types.Donation{}, newError(ErrNotFound, "Donation not found")
}

// List returns donations matching query, newest first. Users are limited
// to their own donations and anonymous callers get an empty list.
func (s *DonationService) List(ctx context.Context, caller types.Principal, query DonationQuery) ([]types.Donation, error) {
	filter, err := parseDonationQuery(query)
	if err != nil {
		return nil, err
	}

	switch {
	case caller.IsAdmin():
	case caller.IsUser():
		s.restrictToOwner(&filter, caller)
	default:
		return []types.Donation{}, nil
	}

	donations, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	return donations, nil
}

// ListMine returns the caller's donations. Anonymous callers get an empty
// list rather than an error.
func (s *DonationService) ListMine(ctx context.Context, caller types.Principal) ([]types.Donation, error) {
	if !caller.IsUser() {
		return []types.Donation{}, nil
	}

	var filter types.DonationFilter
	s.restrictToOwner(&filter, caller)
	donations, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list user donations: %w", err)
	}
	return donations, nil
}

// UpdateStatus moves a donation to status. Only administrators may call it.
func (s *DonationService) UpdateStatus(ctx context.Context, caller types.Principal, id, status string) (types.Donation, error) {
	if !caller.IsAdmin() {
		return types.Donation{}, newError(ErrPermissionDenied, "Only administrators can update donation status")
	}

	target := types.DonationStatus(strings.ToLower(strings.TrimSpace(status)))
	if !target.Valid() {
		return types.Donation{}, NewValidationError("Valid status is required")
	}

	current, err := s.load(ctx, id)
	if err != nil {
		return types.Donation{}, err
	}
	if err := CheckTransition(current.Status, target); err != nil {
		return types.Donation{}, err
	}

	updated, err := s.repo.UpdateStatus(ctx, current.ID, target)
	if err != nil {
		return types.Donation{}, s.translate(err, "update donation status")
	}

	s.publish(ctx, types.DonationEvent{
		Type:       types.EventDonationStatusChanged,
		DonationID: updated.ID,
		FullName:   updated.FullName,
		Email:      updated.Email,
		Status:     updated.Status,
		Previous:   current.Status,
		OccurredAt: updated.UpdatedAt,
	})
	s.invalidateStatistics(ctx)

	return updated, nil
}

// UpdateQuantity changes the quantity of a pending donation. Only the
// owning user may call it.
func (s *DonationService) UpdateQuantity(ctx context.Context, caller types.Principal, id, quantity string) (types.Donation, error) {
	if _, problem := parseQuantity(quantity); problem != "" {
		return types.Donation{}, NewValidationError(problem)
	}

	current, err := s.load(ctx, id)
	if err != nil {
		return types.Donation{}, err
	}
	if !caller.IsUser() || !current.IsOwnedBy(caller.ID) {
		return types.Donation{}, newError(ErrPermissionDenied, "You don't have permission to update this donation")
	}
	if current.Status != types.StatusPending {
		return types.Donation{}, NewValidationError("Only pending donations can be updated")
	}

	updated, err := s.repo.UpdateQuantity(ctx, current.ID, strings.TrimSpace(quantity))
	if err != nil {
		return types.Donation{}, s.translate(err, "update donation quantity")
	}
	s.invalidateStatistics(ctx)
	return updated, nil
}

// AddNotes overwrites the notes of a donation. Only administrators may
// call it.
func (s *DonationService) AddNotes(ctx context.Context, caller types.Principal, id, notes string) (types.Donation, error) {
	if !caller.IsAdmin() {
		return types.Donation{}, newError(ErrPermissionDenied, "Only administrators can add notes")
	}
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return types.Donation{}, NewValidationError("Notes cannot be empty")
	}

	updated, err := s.repo.UpdateNotes(ctx, strings.TrimSpace(id), notes)
	if err != nil {
		return types.Donation{}, s.translate(err, "update donation notes")
	}
	return updated, nil
}

// Statistics summarizes donations for dashboards. Failures degrade to a
// zeroed summary instead of an error.
func (s *DonationService) Statistics(ctx context.Context, caller types.Principal) (types.DonationStatistics, error) {
	if !caller.IsAdmin() {
		return types.DonationStatistics{}, newError(ErrPermissionDenied, "Only administrators can view statistics")
	}

	if s.cache != nil {
		stats, ok, err := s.cache.GetStatistics(ctx)
		if err != nil {
			s.logger.Warn("failed to read statistics cache", "error", err)
		} else if ok {
			return stats, nil
		}
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	since := today.AddDate(0, 0, -(statisticsWindowDays - 1))

	stats, err := s.repo.Statistics(ctx, since)
	if err != nil {
		s.logger.Warn("failed to compute donation statistics", "error", err)
		stats = types.EmptyStatistics()
		stats.RecentDonations = fillDays(nil, since, statisticsWindowDays)
		return stats, nil
	}
	stats.RecentDonations = fillDays(stats.RecentDonations, since, statisticsWindowDays)

	if s.cache != nil {
		if err := s.cache.SetStatistics(ctx, stats); err != nil {
			s.logger.Warn("failed to write statistics cache", "error", err)
		}
	}
	return stats, nil
}

// ListByStatus returns donations in status together with per-status
// counts. "all" or an empty status lists every donation; counts["total"]
// is the size of the returned list.
func (s *DonationService) ListByStatus(ctx context.Context, caller types.Principal, status string) (types.StatusListing, error) {
	if !caller.IsAdmin() {
		return types.StatusListing{}, newError(ErrPermissionDenied, "Only administrators can list donations by status")
	}

	var filter types.DonationFilter
	status = strings.ToLower(strings.TrimSpace(status))
	if status != "" && status != statusAll {
		filter.Status = types.DonationStatus(status)
		if !filter.Status.Valid() {
			return types.StatusListing{}, NewValidationError("Invalid status")
		}
	}

	donations, err := s.repo.List(ctx, filter)
	if err != nil {
		return types.StatusListing{}, fmt.Errorf("list donations by status: %w", err)
	}

	counts := make(map[string]int64, len(types.DonationStatuses)+1)
	counts["total"] = int64(len(donations))
	for _, st := range types.DonationStatuses {
		n, err := s.repo.Count(ctx, types.DonationFilter{Status: st})
		if err != nil {
			return types.StatusListing{}, fmt.Errorf("count %s donations: %w", st, err)
		}
		counts[string(st)] = n
	}

	return types.StatusListing{Donations: donations, Counts: counts}, nil
}

// CheckTransition reports whether a donation may move from one status to
// another. Every move between valid statuses is currently allowed.
func CheckTransition(from, to types.DonationStatus) error {
	if !to.Valid() {
		return NewValidationError("Valid status is required")
	}
	return nil
}

func (s *DonationService) load(ctx context.Context, id string) (types.Donation, error) {
	donation, err := s.repo.Get(ctx, strings.TrimSpace(id))
	if err != nil {
		return types.Donation{}, s.translate(err, "get donation")
	}
	return donation, nil
}

func (s *DonationService) translate(err error, op string) error {
	switch {
	case errors.Is(err, store.ErrInvalidID):
		return NewValidationError("Invalid donation ID format")
	case errors.Is(err, store.ErrNotFound):
		return newError(ErrNotFound, "Donation not found")
	case errors.Is(err, store.ErrNotPending):
		return NewValidationError("Only pending donations can be updated")
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func (s *DonationService) visibleTo(caller types.Principal, donation types.Donation) bool {
	if donation.IsOwnedBy(caller.ID) {
		return true
	}
	return s.matchByEmail && caller.Email != "" && strings.EqualFold(donation.Email, caller.Email)
}

func (s *DonationService) restrictToOwner(filter *types.DonationFilter, caller types.Principal) {
	filter.OwnerID = caller.ID
	filter.OwnerEmail = ""
	if s.matchByEmail {
		filter.OwnerEmail = strings.ToLower(caller.Email)
	}
}

// parseDonationQuery validates listing parameters. The end date covers its
// whole day.
func parseDonationQuery(query DonationQuery) (types.DonationFilter, error) {
	var filter types.DonationFilter
	var problems []string

	if status := strings.ToLower(strings.TrimSpace(query.Status)); status != "" && status != statusAll {
		filter.Status = types.DonationStatus(status)
		if !filter.Status.Valid() {
			problems = append(problems, "Invalid status")
		}
	}
	if foodType := strings.ToLower(strings.TrimSpace(query.FoodType)); foodType != "" {
		filter.FoodType = types.FoodType(foodType)
		if !filter.FoodType.Valid() {
			problems = append(problems, "Invalid food type")
		}
	}

	if start := strings.TrimSpace(query.StartDate); start != "" {
		from, err := time.Parse(dateLayout, start)
		if err != nil {
			problems = append(problems, "Invalid start date format, use YYYY-MM-DD")
		} else {
			filter.From = &from
		}
	}
	if end := strings.TrimSpace(query.EndDate); end != "" {
		to, err := time.Parse(dateLayout, end)
		if err != nil {
			problems = append(problems, "Invalid end date format, use YYYY-MM-DD")
		} else {
			to = to.Add(24*time.Hour - time.Nanosecond)
			filter.To = &to
		}
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		problems = append(problems, "Start date must be before end date")
	}

	if len(problems) > 0 {
		return types.DonationFilter{}, NewValidationError(problems...)
	}
	return filter, nil
}

func (s *DonationService) publish(ctx context.Context, event types.DonationEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishDonationEvent(ctx, event); err != nil {
		s.logger.Warn("failed to publish donation event",
			"type", event.Type,
			"donation_id", event.DonationID,
			"error", err,
		)
	}
}

func (s *DonationService) invalidateStatistics(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateStatistics(ctx); err != nil {
		s.logger.Warn("failed to invalidate statistics cache", "error", err)
	}
}

// fillDays returns one entry per day starting at since, taking counts from
// days and zero elsewhere.
func fillDays(days []types.DailyCount, since time.Time, n int) []types.DailyCount {
	counts := make(map[string]int64, len(days))
	for _, day := range days {
		counts[day.Date] += day.Count
	}
	filled := make([]types.DailyCount, 0, n)
	for i := 0; i < n; i++ {
		date := since.AddDate(0, 0, i).Format(dateLayout)
		filled = append(filled, types.DailyCount{Date: date, Count: counts[date]})
	}
	return filled
}
