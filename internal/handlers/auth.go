package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Satish-Das/food-donate-application/internal/services"
	"github.com/Satish-Das/food-donate-application/types"
	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultTokenTTL   = 24 * time.Hour
	accessTokenCookie = "accessToken"
)

var (
	errMissingToken = errors.New("missing authorization")
	errExpiredToken = errors.New("token expired")
)

// Claims is the JWT payload. Role tells which account table the subject
// belongs to.
type Claims struct {
	Role types.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 access tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

func (t *TokenIssuer) Issue(subject string, role types.Role) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Parse verifies tokenString and returns its claims.
func (t *TokenIssuer) Parse(tokenString string) (Claims, error) {
	claims := Claims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return t.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, errExpiredToken
		}
		return Claims{}, err
	}
	if !token.Valid {
		return Claims{}, errors.New("invalid token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Claims{}, errors.New("missing subject")
	}
	if claims.Role != types.RoleUser && claims.Role != types.RoleAdmin {
		return Claims{}, errors.New("invalid role")
	}
	return claims, nil
}

// TTL returns the lifetime of issued tokens.
func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}

// Authenticator turns bearer tokens into principals by loading the
// referenced account.
type Authenticator struct {
	tokens *TokenIssuer
	users  *services.UserService
	admins *services.AdminService
	logger *slog.Logger
}

func NewAuthenticator(tokens *TokenIssuer, users *services.UserService, admins *services.AdminService, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{tokens: tokens, users: users, admins: admins, logger: logger}
}

// Optional lets requests without a token through as anonymous. A token
// that is present but invalid is still rejected.
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return a.middleware(false, next)
}

// Required rejects requests without a valid token.
func (a *Authenticator) Required(next http.Handler) http.Handler {
	return a.middleware(true, next)
}

// RequireAdmin rejects requests not made by an administrator.
func (a *Authenticator) RequireAdmin(next http.Handler) http.Handler {
	return a.Required(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !principalFromContext(r.Context()).IsAdmin() {
			writeError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func (a *Authenticator) middleware(required bool, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := bearerToken(r)
		if err != nil {
			if errors.Is(err, errMissingToken) && !required {
				next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), types.Anonymous())))
				return
			}
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		claims, err := a.tokens.Parse(tokenString)
		if err != nil {
			if errors.Is(err, errExpiredToken) {
				writeError(w, http.StatusUnauthorized, "Token has expired, please log in again")
				return
			}
			writeError(w, http.StatusUnauthorized, "Invalid token format")
			return
		}

		principal, err := a.resolve(r, claims)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "User not found")
			return
		}
		next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), principal)))
	})
}

func (a *Authenticator) resolve(r *http.Request, claims Claims) (types.Principal, error) {
	switch claims.Role {
	case types.RoleAdmin:
		admin, err := a.admins.GetByID(r.Context(), claims.Subject)
		if err != nil {
			a.logger.DebugContext(r.Context(), "token subject not resolved", "role", claims.Role, "error", err)
			return types.Principal{}, err
		}
		return types.Principal{Role: types.RoleAdmin, ID: admin.ID, Email: admin.Email}, nil
	default:
		user, err := a.users.GetByID(r.Context(), claims.Subject)
		if err != nil {
			a.logger.DebugContext(r.Context(), "token subject not resolved", "role", claims.Role, "error", err)
			return types.Principal{}, err
		}
		return types.Principal{Role: types.RoleUser, ID: user.ID, Email: user.Email}, nil
	}
}

// bearerToken reads the Authorization header, falling back to the
// accessToken cookie set at login.
func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		if cookie, err := r.Cookie(accessTokenCookie); err == nil && strings.TrimSpace(cookie.Value) != "" {
			return strings.TrimSpace(cookie.Value), nil
		}
		return "", errMissingToken
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}

func setTokenCookie(w http.ResponseWriter, token string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearTokenCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
