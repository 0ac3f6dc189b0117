package services

import (
	"context"
	"strings"
	"testing"

	"github.com/Satish-Das/food-donate-application/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type adminFixture struct {
	admins    *memAdmins
	users     *memUsers
	donations *memDonations
	service   *AdminService
}

func newAdminFixture(matchByEmail bool) *adminFixture {
	f := &adminFixture{
		admins:    newMemAdmins(),
		users:     newMemUsers(),
		donations: newMemDonations(),
	}
	f.service = NewAdminService(f.admins, f.users, f.donations, matchByEmail)
	return f
}

func adminAccount() AccountInput {
	return AccountInput{
		Phone:    "9123456780",
		Email:    "admin@x.com",
		Password: "adminpass",
		FullName: "Site Admin",
		City:     "Pune",
		Pincode:  "411001",
		Address:  "1 Office Rd",
	}
}

func TestRegisterAndAuthenticateAdmin(t *testing.T) {
	f := newAdminFixture(true)
	ctx := context.Background()

	admin, err := f.service.Register(ctx, adminAccount())
	require.NoError(t, err)

	_, err = f.service.Register(ctx, adminAccount())
	require.ErrorIs(t, err, ErrConflict)
	assert.EqualError(t, err, "Admin with this email already exists")

	got, err := f.service.Authenticate(ctx, "ADMIN@x.com", "adminpass")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, got.ID)

	_, err = f.service.Authenticate(ctx, "admin@x.com", "nope")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestResetAdminPassword(t *testing.T) {
	f := newAdminFixture(true)
	ctx := context.Background()

	admin, err := f.service.Register(ctx, adminAccount())
	require.NoError(t, err)
	caller := adminPrincipal(admin.ID)

	err = f.service.ResetPassword(ctx, caller, "", "abc")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{
		"Current password is required",
		"New password must be at least 6 characters long",
	}, verr.Problems)

	err = f.service.ResetPassword(ctx, caller, "adminpass", strings.Repeat("p", 80))
	assert.True(t, isValidation(err, "New password must be at most 72 bytes"), "got %v", err)

	err = f.service.ResetPassword(ctx, caller, "wrong", "newpass1")
	require.ErrorIs(t, err, ErrUnauthenticated)
	assert.EqualError(t, err, "Current password is incorrect")

	require.NoError(t, f.service.ResetPassword(ctx, caller, "adminpass", "newpass1"))
	_, err = f.service.Authenticate(ctx, "admin@x.com", "newpass1")
	assert.NoError(t, err)

	err = f.service.ResetPassword(ctx, types.Principal{Role: types.RoleUser, ID: admin.ID}, "newpass1", "other12")
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestUpsertAdmin(t *testing.T) {
	f := newAdminFixture(true)
	ctx := context.Background()

	created, isNew, err := f.service.Upsert(ctx, AdminUpsert{Email: " Root@X.com ", Password: "firstpass"})
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.Equal(t, "root@x.com", created.Email)

	updated, isNew, err := f.service.Upsert(ctx, AdminUpsert{Email: "root@x.com", Password: "secondpass"})
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, created.ID, updated.ID)

	_, err = f.service.Authenticate(ctx, "root@x.com", "secondpass")
	assert.NoError(t, err)

	_, _, err = f.service.Upsert(ctx, AdminUpsert{Email: "root@x.com", Password: "123"})
	assert.True(t, isValidation(err, "Password must be at least 6 characters long"))

	_, _, err = f.service.Upsert(ctx, AdminUpsert{Email: "root@x.com", Password: strings.Repeat("p", 80)})
	assert.True(t, isValidation(err, "Password must be at most 72 bytes"))
}

func TestDashboard(t *testing.T) {
	f := newAdminFixture(true)
	ctx := context.Background()
	admin := adminPrincipal("00000000000000000000a001")

	for i := 0; i < 7; i++ {
		f.users.add(types.User{Email: "u" + string(rune('a'+i)) + "@x.com"})
	}
	quantities := []string{"5", "10", "abc"}
	for _, q := range quantities {
		_, err := f.donations.Create(ctx, types.Donation{FoodQuantity: q, Status: types.StatusPending})
		require.NoError(t, err)
	}

	stats, err := f.service.Dashboard(ctx, admin)
	require.NoError(t, err)

	assert.Equal(t, int64(7), stats.TotalUsers)
	assert.Equal(t, int64(3), stats.TotalDonations)
	assert.Equal(t, int64(15), stats.TotalFoodQuantity)
	assert.Equal(t, int64(3), stats.StatusCounts[types.StatusPending])
	assert.Equal(t, int64(0), stats.StatusCounts[types.StatusCompleted])
	assert.Len(t, stats.RecentDonations, 3)
	assert.Len(t, stats.RecentUsers, 5)

	_, err = f.service.Dashboard(ctx, types.Anonymous())
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestUserDetailsIncludesEmailMatches(t *testing.T) {
	f := newAdminFixture(true)
	ctx := context.Background()
	admin := adminPrincipal("00000000000000000000a001")

	user := f.users.add(types.User{Email: "a@x.com"})
	owner := user.ID
	_, err := f.donations.Create(ctx, types.Donation{UserID: &owner, Email: "a@x.com"})
	require.NoError(t, err)
	_, err = f.donations.Create(ctx, types.Donation{Email: "a@x.com"})
	require.NoError(t, err)
	_, err = f.donations.Create(ctx, types.Donation{Email: "b@x.com"})
	require.NoError(t, err)

	details, err := f.service.UserDetails(ctx, admin, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, details.User.ID)
	assert.Len(t, details.Donations, 2)

	strict := newAdminFixture(false)
	strict.users, strict.donations = f.users, f.donations
	strict.service = NewAdminService(strict.admins, strict.users, strict.donations, false)
	details, err = strict.service.UserDetails(ctx, admin, user.ID)
	require.NoError(t, err)
	assert.Len(t, details.Donations, 1)

	_, err = f.service.UserDetails(ctx, admin, "bogus")
	assert.True(t, isValidation(err, "Invalid user ID format"))

	_, err = f.service.UserDetails(ctx, userPrincipal(user), user.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestListUsers(t *testing.T) {
	f := newAdminFixture(true)
	f.users.add(types.User{Email: "a@x.com"})
	f.users.add(types.User{Email: "b@x.com"})

	users, err := f.service.ListUsers(context.Background(), adminPrincipal("00000000000000000000a001"))
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "b@x.com", users[0].Email)
}
