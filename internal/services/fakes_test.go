package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Satish-Das/food-donate-application/internal/storage"
	"github.com/Satish-Das/food-donate-application/internal/store"
	"github.com/Satish-Das/food-donate-application/types"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	bcryptCost = bcrypt.MinCost
}

var fakeIDPattern = regexp.MustCompile(`^[0-9a-f]{24}$`)

var fakeEpoch = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

type fakeIDs struct {
	mu   sync.Mutex
	next int
}

func (g *fakeIDs) newID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("%024x", g.next)
}

func checkFakeID(id string) error {
	if !fakeIDPattern.MatchString(id) {
		return store.ErrInvalidID
	}
	return nil
}

type memDonations struct {
	mu        sync.Mutex
	ids       fakeIDs
	records   map[string]types.Donation
	seq       int
	duplicate int
	statsErr  error
	listErr   error
	// afterGet runs under the lock once Get has read a record.
	afterGet  func(records map[string]types.Donation, id string)
}

func newMemDonations() *memDonations {
	return &memDonations{records: map[string]types.Donation{}}
}

func (m *memDonations) Create(ctx context.Context, donation types.Donation) (types.Donation, error) {
	return store.InsertWithRetry(ctx, donation, func(_ context.Context, d types.Donation) (types.Donation, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.duplicate > 0 {
			m.duplicate--
			return types.Donation{}, store.ErrDuplicateKey
		}
		for _, existing := range m.records {
			if existing.UniqueID == d.UniqueID {
				return types.Donation{}, store.ErrDuplicateKey
			}
		}
		m.seq++
		d.ID = m.ids.newID()
		d.CreatedAt = fakeEpoch.Add(time.Duration(m.seq) * time.Second)
		d.UpdatedAt = d.CreatedAt
		if d.Status == "" {
			d.Status = types.StatusPending
		}
		m.records[d.ID] = d
		return d, nil
	})
}

func (m *memDonations) Get(_ context.Context, id string) (types.Donation, error) {
	if err := checkFakeID(id); err != nil {
		return types.Donation{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	donation, ok := m.records[id]
	if !ok {
		return types.Donation{}, store.ErrNotFound
	}
	if m.afterGet != nil {
		m.afterGet(m.records, id)
	}
	return donation, nil
}

func (m *memDonations) List(_ context.Context, filter types.DonationFilter) ([]types.Donation, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]types.Donation, 0)
	for _, donation := range m.records {
		if matches(donation, filter) {
			result = append(result, donation)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (m *memDonations) Count(ctx context.Context, filter types.DonationFilter) (int64, error) {
	filter.Limit = 0
	donations, err := m.List(ctx, filter)
	return int64(len(donations)), err
}

func matches(d types.Donation, f types.DonationFilter) bool {
	if f.Status != "" && d.Status != f.Status {
		return false
	}
	if f.FoodType != "" && d.FoodType != f.FoodType {
		return false
	}
	if f.From != nil && d.DonationDate.Before(*f.From) {
		return false
	}
	if f.To != nil && d.DonationDate.After(*f.To) {
		return false
	}
	if f.HasOwner() {
		byID := f.OwnerID != "" && d.UserID != nil && *d.UserID == f.OwnerID
		byEmail := f.OwnerEmail != "" && d.Email == f.OwnerEmail
		if !byID && !byEmail {
			return false
		}
	}
	return true
}

func (m *memDonations) update(id string, apply func(*types.Donation)) (types.Donation, error) {
	return m.updateWhere(id, nil, apply)
}

// updateWhere applies the change only when guard accepts the stored record.
func (m *memDonations) updateWhere(id string, guard func(types.Donation) error, apply func(*types.Donation)) (types.Donation, error) {
	if err := checkFakeID(id); err != nil {
		return types.Donation{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	donation, ok := m.records[id]
	if !ok {
		return types.Donation{}, store.ErrNotFound
	}
	if guard != nil {
		if err := guard(donation); err != nil {
			return types.Donation{}, err
		}
	}
	apply(&donation)
	donation.UpdatedAt = donation.UpdatedAt.Add(time.Second)
	m.records[id] = donation
	return donation, nil
}

func (m *memDonations) UpdateStatus(_ context.Context, id string, status types.DonationStatus) (types.Donation, error) {
	return m.update(id, func(d *types.Donation) { d.Status = status })
}

func (m *memDonations) UpdateNotes(_ context.Context, id, notes string) (types.Donation, error) {
	return m.update(id, func(d *types.Donation) { d.Notes = notes })
}

func (m *memDonations) UpdateQuantity(_ context.Context, id, quantity string) (types.Donation, error) {
	pending := func(d types.Donation) error {
		if d.Status != types.StatusPending {
			return store.ErrNotPending
		}
		return nil
	}
	return m.updateWhere(id, pending, func(d *types.Donation) { d.FoodQuantity = quantity })
}

func (m *memDonations) Statistics(_ context.Context, since time.Time) (types.DonationStatistics, error) {
	if m.statsErr != nil {
		return types.DonationStatistics{}, m.statsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := types.EmptyStatistics()
	daily := map[string]int64{}
	for _, d := range m.records {
		stats.TotalDonations++
		stats.ByStatus[string(d.Status)]++
		stats.ByFoodType[string(d.FoodType)]++
		if !d.CreatedAt.Before(since) {
			daily[d.CreatedAt.Format("2006-01-02")]++
		}
	}
	for date, count := range daily {
		stats.RecentDonations = append(stats.RecentDonations, types.DailyCount{Date: date, Count: count})
	}
	return stats, nil
}

func (m *memDonations) TotalQuantity(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total int64
	for _, d := range m.records {
		var n int64
		if _, err := fmt.Sscanf(d.FoodQuantity, "%d", &n); err == nil {
			total += n
		}
	}
	return total, nil
}

type memUsers struct {
	mu      sync.Mutex
	ids     fakeIDs
	records map[string]types.User
	seq     int
	linkErr error
}

func newMemUsers() *memUsers {
	return &memUsers{records: map[string]types.User{}}
}

func (m *memUsers) add(user types.User) types.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	user.ID = m.ids.newID()
	user.CreatedAt = fakeEpoch.Add(time.Duration(m.seq) * time.Second)
	if user.Donations == nil {
		user.Donations = []string{}
	}
	m.records[user.ID] = user
	return user
}

func (m *memUsers) GetByID(_ context.Context, id string) (types.User, error) {
	if err := checkFakeID(id); err != nil {
		return types.User{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.records[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (m *memUsers) find(match func(types.User) bool) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.records {
		if match(user) {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (types.User, error) {
	return m.find(func(u types.User) bool { return u.Email == email })
}

func (m *memUsers) GetByPhone(_ context.Context, phone string) (types.User, error) {
	return m.find(func(u types.User) bool { return u.Phone == phone })
}

func (m *memUsers) List(_ context.Context, limit int) ([]types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make([]types.User, 0, len(m.records))
	for _, user := range m.records {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

func (m *memUsers) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.records)), nil
}

func (m *memUsers) Create(_ context.Context, user types.User) (types.User, error) {
	if _, err := m.GetByEmail(context.Background(), user.Email); err == nil {
		return types.User{}, store.ErrDuplicateKey
	}
	return m.add(user), nil
}

func (m *memUsers) Update(_ context.Context, user types.User) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.records[user.ID]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	user.Donations = existing.Donations
	user.TotalDonations = existing.TotalDonations
	m.records[user.ID] = user
	return user, nil
}

func (m *memUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.records, id)
	return nil
}

func (m *memUsers) LinkDonation(_ context.Context, userID, donationID string) error {
	if m.linkErr != nil {
		return m.linkErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.records[userID]
	if !ok {
		return store.ErrNotFound
	}
	user.TotalDonations++
	user.Donations = append(user.Donations, donationID)
	m.records[userID] = user
	return nil
}

func (m *memUsers) SetDonations(_ context.Context, userID string, donationIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.records[userID]
	if !ok {
		return store.ErrNotFound
	}
	user.Donations = append([]string{}, donationIDs...)
	user.TotalDonations = len(donationIDs)
	m.records[userID] = user
	return nil
}

type memAdmins struct {
	mu      sync.Mutex
	ids     fakeIDs
	records map[string]types.Admin
}

func newMemAdmins() *memAdmins {
	return &memAdmins{records: map[string]types.Admin{}}
}

func (m *memAdmins) GetByID(_ context.Context, id string) (types.Admin, error) {
	if err := checkFakeID(id); err != nil {
		return types.Admin{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	admin, ok := m.records[id]
	if !ok {
		return types.Admin{}, store.ErrNotFound
	}
	return admin, nil
}

func (m *memAdmins) GetByEmail(_ context.Context, email string) (types.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, admin := range m.records {
		if admin.Email == email {
			return admin, nil
		}
	}
	return types.Admin{}, store.ErrNotFound
}

func (m *memAdmins) Create(_ context.Context, admin types.Admin) (types.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	admin.ID = m.ids.newID()
	m.records[admin.ID] = admin
	return admin, nil
}

func (m *memAdmins) Update(_ context.Context, admin types.Admin) (types.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[admin.ID]; !ok {
		return types.Admin{}, store.ErrNotFound
	}
	m.records[admin.ID] = admin
	return admin, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []types.DonationEvent
	err    error
}

func (p *recordingPublisher) PublishDonationEvent(_ context.Context, event types.DonationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

type memStatsCache struct {
	mu          sync.Mutex
	stats       *types.DonationStatistics
	invalidated int
}

func (c *memStatsCache) GetStatistics(context.Context) (types.DonationStatistics, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stats == nil {
		return types.DonationStatistics{}, false, nil
	}
	return *c.stats, true, nil
}

func (c *memStatsCache) SetStatistics(_ context.Context, stats types.DonationStatistics) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = &stats
	return nil
}

func (c *memStatsCache) InvalidateStatistics(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated++
	c.stats = nil
	return nil
}

type sentMail struct {
	to, subject, body string
}

type recordingMailer struct {
	sent []sentMail
	err  error
}

func (m *recordingMailer) Send(_ context.Context, to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

type memObjects struct {
	objects map[string][]byte
	types   map[string]string
}

func newMemObjects() *memObjects {
	return &memObjects{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memObjects) EnsureBucket(context.Context) error { return nil }

func (m *memObjects) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return err
	}
	m.objects[key] = buf.Bytes()
	m.types[key] = contentType
	return nil
}

func (m *memObjects) Get(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memObjects) Bucket() string { return "exports-bucket" }

func userPrincipal(user types.User) types.Principal {
	return types.Principal{Role: types.RoleUser, ID: user.ID, Email: user.Email}
}

func adminPrincipal(id string) types.Principal {
	return types.Principal{Role: types.RoleAdmin, ID: id, Email: "admin@x.com"}
}

func isValidation(err error, message string) bool {
	var verr *ValidationError
	if !errors.As(err, &verr) {
		return false
	}
	for _, problem := range verr.Problems {
		if strings.EqualFold(problem, message) {
			return true
		}
	}
	return false
}
