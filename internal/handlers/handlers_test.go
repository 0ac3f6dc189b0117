package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Satish-Das/food-donate-application/internal/services"
	"github.com/Satish-Das/food-donate-application/internal/store"
	"github.com/Satish-Das/food-donate-application/types"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// stubUsers implements the lookups the handlers exercise. Calling any
// other UserRepository method panics on the nil embedded interface.
type stubUsers struct {
	services.UserRepository
	byID map[string]types.User
}

func (s *stubUsers) GetByID(_ context.Context, id string) (types.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (s *stubUsers) GetByEmail(_ context.Context, email string) (types.User, error) {
	for _, user := range s.byID {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (s *stubUsers) LinkDonation(context.Context, string, string) error {
	return nil
}

type stubAdmins struct {
	services.AdminRepository
	byID map[string]types.Admin
}

func (s *stubAdmins) GetByID(_ context.Context, id string) (types.Admin, error) {
	admin, ok := s.byID[id]
	if !ok {
		return types.Admin{}, store.ErrNotFound
	}
	return admin, nil
}

type stubDonations struct {
	services.DonationRepository
	mu      sync.Mutex
	records []types.Donation
	filters []types.DonationFilter
}

func (s *stubDonations) Create(_ context.Context, donation types.Donation) (types.Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	donation.ID = fmt.Sprintf("%024x", len(s.records)+1)
	donation.CreatedAt = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	s.records = append(s.records, donation)
	return donation, nil
}

func (s *stubDonations) List(_ context.Context, filter types.DonationFilter) ([]types.Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = append(s.filters, filter)
	return append([]types.Donation{}, s.records...), nil
}

type testEnv struct {
	router    *chi.Mux
	tokens    *TokenIssuer
	donations *stubDonations
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	users := &stubUsers{byID: map[string]types.User{
		"user-1": {ID: "user-1", Email: "asha@example.com", FullName: "Asha", PasswordHash: string(hash)},
	}}
	admins := &stubAdmins{byID: map[string]types.Admin{
		"admin-1": {ID: "admin-1", Email: "root@example.com", FullName: "Root"},
	}}
	donations := &stubDonations{}

	userService := services.NewUserService(users)
	adminService := services.NewAdminService(admins, users, donations, true)
	linkage := services.NewUserLinkage(users, donations, discardLogger)
	donationService := services.NewDonationService(donations, linkage, discardLogger)
	exportService := services.NewExportService(donations, nil)

	tokens := NewTokenIssuer(testSecret, time.Hour)
	auth := NewAuthenticator(tokens, userService, adminService, discardLogger)

	router := chi.NewRouter()
	router.Get("/healthz", Healthz)
	router.Route("/donate", func(r chi.Router) {
		DonationRouter(r, donationService, auth, discardLogger)
	})
	router.Route("/user", func(r chi.Router) {
		UserRouter(r, userService, tokens, auth, discardLogger, false)
	})
	router.Route("/admin", func(r chi.Router) {
		AdminRouter(r, adminService, donationService, exportService, tokens, auth, discardLogger, false)
	})

	return &testEnv{router: router, tokens: tokens, donations: donations}
}

func (e *testEnv) token(t *testing.T, subject string, role types.Role) string {
	t.Helper()
	token, err := e.tokens.Issue(subject, role)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, Response) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var resp Response
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func validDonationBody() map[string]string {
	return map[string]string{
		"phone":        "9876543210",
		"email":        "Donor@Example.com",
		"fullname":     "Ravi Kumar",
		"foodType":     "veg",
		"fullAddress":  "12 MG Road, Pune",
		"foodQuantity": "25",
	}
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
}

func TestSubmitDonationAnonymous(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := env.do(t, http.MethodPost, "/donate/donate", "", validDonationBody())
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.True(t, resp.Success)
	assert.Equal(t, "Donation recorded successfully", resp.Message)

	require.Len(t, env.donations.records, 1)
	assert.Nil(t, env.donations.records[0].UserID)
	assert.Equal(t, "donor@example.com", env.donations.records[0].Email)
}

func TestSubmitDonationAttachesUser(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.do(t, http.MethodPost, "/donate/donate", env.token(t, "user-1", types.RoleUser), validDonationBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	require.Len(t, env.donations.records, 1)
	require.NotNil(t, env.donations.records[0].UserID)
	assert.Equal(t, "user-1", *env.donations.records[0].UserID)
}

func TestSubmitDonationValidation(t *testing.T) {
	env := newTestEnv(t)
	body := validDonationBody()
	body["phone"] = "123"
	body["foodQuantity"] = "0"

	rec, resp := env.do(t, http.MethodPost, "/donate/donate", "", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, []string{
		"Phone number must be 10 digits",
		"Food quantity must be greater than 0",
	}, resp.Errors)
	assert.Empty(t, env.donations.records)
}

func TestSubmitDonationBadBody(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/donate/donate", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid request body")

	req = httptest.NewRequest(http.MethodPost, "/donate/donate", http.NoBody)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Request body is missing")
}

func TestListMineAnonymous(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := env.do(t, http.MethodGet, "/donate/user", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "No authenticated user found - returning empty donation list", resp.Message)
	assert.Equal(t, []any{}, resp.Data)
}

func TestListMineScopesToCaller(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := env.do(t, http.MethodGet, "/donate/user", env.token(t, "user-1", types.RoleUser), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User donations retrieved successfully", resp.Message)

	require.Len(t, env.donations.filters, 1)
	assert.Equal(t, "user-1", env.donations.filters[0].OwnerID)
	assert.Equal(t, "asha@example.com", env.donations.filters[0].OwnerEmail)
}

func TestRequiredRoutesRejectAnonymous(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/donate/id/abc", "/donate/statistics", "/user/profile"} {
		rec, resp := env.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.Equal(t, "Authentication required", resp.Message, path)
	}
}

func TestInvalidTokenRejectedOnOptionalRoute(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := env.do(t, http.MethodGet, "/donate/all", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid token format", resp.Message)
}

func TestExpiredToken(t *testing.T) {
	env := newTestEnv(t)
	expired := &TokenIssuer{secret: []byte(testSecret), ttl: -time.Minute}
	token, err := expired.Issue("user-1", types.RoleUser)
	require.NoError(t, err)

	rec, resp := env.do(t, http.MethodGet, "/user/profile", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Token has expired, please log in again", resp.Message)
}

func TestTokenForMissingUser(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := env.do(t, http.MethodGet, "/user/profile", env.token(t, "ghost", types.RoleUser), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "User not found", resp.Message)
}

func TestCookieToken(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/user/profile", nil)
	req.AddCookie(&http.Cookie{Name: accessTokenCookie, Value: env.token(t, "user-1", types.RoleUser)})
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "asha@example.com")
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := env.do(t, http.MethodGet, "/admin/users", env.token(t, "user-1", types.RoleUser), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Admin access required", resp.Message)

	rec, _ = env.do(t, http.MethodGet, "/admin/profile", env.token(t, "admin-1", types.RoleAdmin), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateStatusRequiresDonationID(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := env.do(t, http.MethodPatch, "/donate/status", env.token(t, "admin-1", types.RoleAdmin), map[string]string{"status": "accepted"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Donation ID is required", resp.Message)
}

func TestUpdateStatusForbiddenForUser(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.do(t, http.MethodPatch, "/donate/status", env.token(t, "user-1", types.RoleUser), map[string]string{
		"donationId": "000000000000000000000001",
		"status":     "accepted",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDateRangeRequiresBothDates(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := env.do(t, http.MethodGet, "/donate/date-range?startDate=2024-05-01", env.token(t, "user-1", types.RoleUser), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Both start date and end date are required", resp.Message)
	assert.Empty(t, env.donations.filters)
}

func TestExportWithoutStorage(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := env.do(t, http.MethodPost, "/admin/exports", env.token(t, "admin-1", types.RoleAdmin), nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Object storage is not configured", resp.Message)
}

func TestUserLoginSetsCookie(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := env.do(t, http.MethodPost, "/user/login", "", LoginRequest{Email: "ASHA@example.com", Password: "secret123"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User logged in successfully", resp.Message)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	token, _ := data["accessToken"].(string)
	require.NotEmpty(t, token)

	claims, err := env.tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, types.RoleUser, claims.Role)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, accessTokenCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
}

func TestUserLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := env.do(t, http.MethodPost, "/user/login", "", LoginRequest{Email: "asha@example.com", Password: "nope123"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", resp.Message)
}

func TestLogoutClearsCookie(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.do(t, http.MethodGet, "/user/logout", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestTokenIssuerParse(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)

	token, err := issuer.Issue("admin-1", types.RoleAdmin)
	require.NoError(t, err)
	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", claims.Subject)
	assert.Equal(t, types.RoleAdmin, claims.Role)

	_, err = NewTokenIssuer("other-secret", time.Hour).Parse(token)
	assert.Error(t, err)

	bad, err := issuer.Issue("x", types.Role("root"))
	require.NoError(t, err)
	_, err = issuer.Parse(bad)
	assert.EqualError(t, err, "invalid role")

	assert.Equal(t, defaultTokenTTL, NewTokenIssuer(testSecret, 0).TTL())
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		cookie string
		want   string
		err    error
	}{
		{name: "header", header: "Bearer abc", want: "abc"},
		{name: "lowercase scheme", header: "bearer abc", want: "abc"},
		{name: "cookie fallback", cookie: "xyz", want: "xyz"},
		{name: "header wins", header: "Bearer abc", cookie: "xyz", want: "abc"},
		{name: "missing", err: errMissingToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: accessTokenCookie, Value: tt.cookie})
			}
			got, err := bearerToken(req)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic abc")
	_, err := bearerToken(req)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, errMissingToken)
}

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{name: "validation", err: services.NewValidationError("a", "b"), status: http.StatusBadRequest, message: "a, b"},
		{name: "unauthenticated", err: &services.Error{Kind: services.ErrUnauthenticated, Message: "who"}, status: http.StatusUnauthorized, message: "who"},
		{name: "forbidden", err: &services.Error{Kind: services.ErrPermissionDenied, Message: "no"}, status: http.StatusForbidden, message: "no"},
		{name: "not found", err: &services.Error{Kind: services.ErrNotFound, Message: "gone"}, status: http.StatusNotFound, message: "gone"},
		{name: "conflict", err: &services.Error{Kind: services.ErrConflict, Message: "taken"}, status: http.StatusConflict, message: "taken"},
		{name: "not configured", err: &services.Error{Kind: services.ErrNotConfigured, Message: "off"}, status: http.StatusServiceUnavailable, message: "off"},
		{name: "internal", err: errors.New("dial tcp: refused"), status: http.StatusInternalServerError, message: "fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			writeServiceError(rec, req, discardLogger, tt.err, "fallback")

			var resp Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.message, resp.Message)
		})
	}
}
