package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/nmarques/backend-compras/internal/common"
	db "github.com/nmarques/backend-compras/internal/db/gen"
	"github.com/nmarques/backend-compras/internal/notify"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 24 * time.Hour
	defaultConfirmTTL = 72 * time.Hour

	maxFirstNameLen = 30
	maxLastNameLen  = 150
)

// ConfirmationEnqueuer hands confirmation emails off to the task queue.
type ConfirmationEnqueuer interface {
	EnqueueConfirmationEmail(ctx context.Context, payload notify.ConfirmationEmailPayload) error
}

// IDTokenVerifier verifies an externally issued OpenID Connect ID token.
type IDTokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (GoogleClaims, error)
}

// Service coordinates authentication, sessions, and email confirmation.
type Service struct {
	queries    db.Querier
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	confirmTTL time.Duration
	now        func() time.Time
	signer     jwa.SignatureAlgorithm
	validator  TokenValidator
	issuer     string
	audience   string
	clockSkew  time.Duration

	google      IDTokenVerifier
	enqueuer    ConfirmationEnqueuer
	confirmBase string
	avatarBase  string
}

// Config configures the auth service.
type Config struct {
	Queries              db.Querier
	Secret               string
	AccessTokenTTL       time.Duration
	RefreshTokenTTL      time.Duration
	ConfirmTokenTTL      time.Duration
	Issuer               string
	Audience             string
	ClockSkew            time.Duration
	GoogleVerifier       IDTokenVerifier
	ConfirmationEnqueuer ConfirmationEnqueuer
	// ConfirmBaseURL is the public base for confirmation links,
	// e.g. https://api.example.com.
	ConfirmBaseURL string
	// AvatarBaseURL is the public base under which avatar files are served.
	AvatarBaseURL string
}

// User is the safe subset of the user model returned to clients.
type User struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MeResult is the current-user payload including profile state.
type MeResult struct {
	User
	AvatarURL      string `json:"avatar_url"`
	EmailConfirmed bool   `json:"email_confirmed"`
}

// LoginResult bundles token material returned after a successful login.
type LoginResult struct {
	User          User      `json:"user"`
	AccessToken   string    `json:"access_token"`
	RefreshToken  string    `json:"refresh_token"`
	AccessExpiry  time.Time `json:"access_expires_at"`
	RefreshExpiry time.Time `json:"refresh_expires_at"`
}

// RefreshResult represents the outcome of a refresh operation.
type RefreshResult struct {
	AccessToken   string    `json:"access_token"`
	AccessExpiry  time.Time `json:"access_expires_at"`
	RefreshToken  string    `json:"refresh_token"`
	RefreshExpiry time.Time `json:"refresh_expires_at"`
}

// NewService constructs a Service instance with sane defaults.
func NewService(cfg Config) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("auth: queries is required")
	}
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	refreshTTL := cfg.RefreshTokenTTL
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	confirmTTL := cfg.ConfirmTokenTTL
	if confirmTTL <= 0 {
		confirmTTL = defaultConfirmTTL
	}

	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = "backend-compras"
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		audience = "compras-frontend"
	}
	clockSkew := cfg.ClockSkew
	if clockSkew < 0 {
		clockSkew = 0
	}

	return &Service{
		queries:    cfg.Queries,
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		confirmTTL: confirmTTL,
		now:        time.Now,
		signer:     jwa.HS256,
		validator: TokenValidator{
			Issuer:    issuer,
			Audience:  audience,
			ClockSkew: clockSkew,
			Algorithm: jwa.HS256,
		},
		issuer:      issuer,
		audience:    audience,
		clockSkew:   clockSkew,
		google:      cfg.GoogleVerifier,
		enqueuer:    cfg.ConfirmationEnqueuer,
		confirmBase: strings.TrimRight(strings.TrimSpace(cfg.ConfirmBaseURL), "/"),
		avatarBase:  strings.TrimRight(strings.TrimSpace(cfg.AvatarBaseURL), "/"),
	}, nil
}

// WithNow allows tests to override the time provider.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Register creates a new user plus its profile row and logs it in.
// The profile is created explicitly right after the user so every user
// always has one.
func (s *Service) Register(ctx context.Context, firstName, lastName, email, password, userAgent, ip string) (LoginResult, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" {
		return LoginResult{}, common.NewAppError("VALIDATION_ERROR", "first_name is required", http.StatusBadRequest, nil)
	}
	if utf8.RuneCountInString(firstName) > maxFirstNameLen {
		return LoginResult{}, common.NewAppError("VALIDATION_ERROR", fmt.Sprintf("first_name must be at most %d characters", maxFirstNameLen), http.StatusBadRequest, nil)
	}
	if utf8.RuneCountInString(lastName) > maxLastNameLen {
		return LoginResult{}, common.NewAppError("VALIDATION_ERROR", fmt.Sprintf("last_name must be at most %d characters", maxLastNameLen), http.StatusBadRequest, nil)
	}
	normalizedEmail := strings.TrimSpace(strings.ToLower(email))
	if normalizedEmail == "" {
		return LoginResult{}, common.NewAppError("VALIDATION_ERROR", "email is required", http.StatusBadRequest, nil)
	}
	if len(password) < 8 {
		return LoginResult{}, common.NewAppError("VALIDATION_ERROR", "password must be at least 8 characters", http.StatusBadRequest, nil)
	}

	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return LoginResult{}, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.queries.CreateUser(ctx, db.CreateUserParams{
		FirstName:    firstName,
		LastName:     lastName,
		Email:        normalizedEmail,
		PasswordHash: hash,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return LoginResult{}, common.NewAppError("EMAIL_ALREADY_USED", "email is already registered", http.StatusConflict, err)
		}
		return LoginResult{}, fmt.Errorf("create user: %w", err)
	}
	if _, err := s.queries.CreateProfile(ctx, created.ID); err != nil {
		return LoginResult{}, fmt.Errorf("create profile: %w", err)
	}

	return s.issueTokens(ctx, created, userAgent, ip)
}

// Login verifies credentials and issues a new JWT/refresh token pair.
func (s *Service) Login(ctx context.Context, email, password, userAgent, ip string) (LoginResult, error) {
	normalizedEmail := strings.TrimSpace(strings.ToLower(email))
	if normalizedEmail == "" || password == "" {
		return LoginResult{}, common.NewAppError("INVALID_CREDENTIALS", "invalid email or password", http.StatusUnauthorized, nil)
	}

	dbUser, err := s.queries.GetUserByEmail(ctx, normalizedEmail)
	if err != nil {
		return LoginResult{}, common.NewAppError("INVALID_CREDENTIALS", "invalid email or password", http.StatusUnauthorized, nil)
	}

	ok, err := argon2id.ComparePasswordAndHash(password, dbUser.PasswordHash)
	if err != nil || !ok {
		return LoginResult{}, common.NewAppError("INVALID_CREDENTIALS", "invalid email or password", http.StatusUnauthorized, nil)
	}

	return s.issueTokens(ctx, dbUser, userAgent, ip)
}

// LoginWithGoogle verifies a Google ID token and logs the matching user in,
// creating the account on first sight.
func (s *Service) LoginWithGoogle(ctx context.Context, idToken, userAgent, ip string) (LoginResult, error) {
	if s.google == nil {
		return LoginResult{}, common.NewAppError("GOOGLE_LOGIN_DISABLED", "google login is not configured", http.StatusBadRequest, nil)
	}
	claims, err := s.google.Verify(ctx, idToken)
	if err != nil {
		return LoginResult{}, common.NewAppError("INVALID_GOOGLE_TOKEN", "invalid google id token", http.StatusUnauthorized, err)
	}
	if !claims.EmailVerified {
		return LoginResult{}, common.NewAppError("INVALID_GOOGLE_TOKEN", "google account email is not verified", http.StatusUnauthorized, nil)
	}
	normalizedEmail := strings.TrimSpace(strings.ToLower(claims.Email))
	if normalizedEmail == "" {
		return LoginResult{}, common.NewAppError("INVALID_GOOGLE_TOKEN", "google token carries no email", http.StatusUnauthorized, nil)
	}

	dbUser, err := s.queries.GetUserByEmail(ctx, normalizedEmail)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return LoginResult{}, fmt.Errorf("get user: %w", err)
		}
		dbUser, err = s.createGoogleUser(ctx, normalizedEmail, claims)
		if err != nil {
			return LoginResult{}, err
		}
	}
	return s.issueTokens(ctx, dbUser, userAgent, ip)
}

func (s *Service) createGoogleUser(ctx context.Context, email string, claims GoogleClaims) (db.User, error) {
	firstName, lastName := claims.SplitName()

	// Password login stays possible later via password reset flows; the
	// stored hash is of an unguessable random secret.
	random, err := generateToken(32)
	if err != nil {
		return db.User{}, fmt.Errorf("generate placeholder password: %w", err)
	}
	hash, err := argon2id.CreateHash(random, argon2id.DefaultParams)
	if err != nil {
		return db.User{}, fmt.Errorf("hash placeholder password: %w", err)
	}

	created, err := s.queries.CreateUser(ctx, db.CreateUserParams{
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// Lost a signup race for the same email; use the winner.
			return s.queries.GetUserByEmail(ctx, email)
		}
		return db.User{}, fmt.Errorf("create user: %w", err)
	}
	if _, err := s.queries.CreateProfile(ctx, created.ID); err != nil {
		return db.User{}, fmt.Errorf("create profile: %w", err)
	}
	return created, nil
}

// Logout revokes the refresh token.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	token := strings.TrimSpace(refreshToken)
	if token == "" {
		return nil
	}
	return s.queries.DeleteSessionByToken(ctx, hashRefreshToken(token))
}

// Refresh validates and rotates a refresh token, issuing a fresh access token pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (RefreshResult, error) {
	token := strings.TrimSpace(refreshToken)
	if token == "" {
		return RefreshResult{}, common.NewAppError("UNAUTHORIZED", "invalid refresh token", http.StatusUnauthorized, nil)
	}

	hashed := hashRefreshToken(token)
	session, err := s.queries.GetSessionByToken(ctx, hashed)
	if err != nil {
		return RefreshResult{}, common.NewAppError("UNAUTHORIZED", "invalid refresh token", http.StatusUnauthorized, nil)
	}
	if !session.ExpiresAt.Valid || s.now().After(session.ExpiresAt.Time) {
		_ = s.queries.DeleteSessionByToken(ctx, hashed)
		return RefreshResult{}, common.NewAppError("UNAUTHORIZED", "invalid refresh token", http.StatusUnauthorized, nil)
	}

	userID := uuidString(session.UserID)
	if userID == "" {
		_ = s.queries.DeleteSessionByToken(ctx, hashed)
		return RefreshResult{}, common.NewAppError("UNAUTHORIZED", "invalid refresh token", http.StatusUnauthorized, nil)
	}

	accessToken, accessExpiry, err := s.signAccessToken(userID)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("sign access token: %w", err)
	}

	newRefresh, refreshExpiry, err := s.rotateSessionToken(ctx, session.ID)
	if err != nil {
		_ = s.queries.DeleteSessionByToken(ctx, hashed)
		return RefreshResult{}, fmt.Errorf("rotate session token: %w", err)
	}

	return RefreshResult{
		AccessToken:   accessToken,
		AccessExpiry:  accessExpiry,
		RefreshToken:  newRefresh,
		RefreshExpiry: refreshExpiry,
	}, nil
}

// Me fetches the current authenticated user with its profile state.
func (s *Service) Me(ctx context.Context, userID string) (MeResult, error) {
	if strings.TrimSpace(userID) == "" {
		return MeResult{}, common.NewAppError("UNAUTHORIZED", "unauthorized", http.StatusUnauthorized, nil)
	}
	id, err := pgUUIDFromString(userID)
	if err != nil {
		return MeResult{}, common.NewAppError("UNAUTHORIZED", "unauthorized", http.StatusUnauthorized, nil)
	}
	dbUser, err := s.queries.GetUserByID(ctx, id)
	if err != nil {
		return MeResult{}, common.NewAppError("UNAUTHORIZED", "unauthorized", http.StatusUnauthorized, nil)
	}
	result := MeResult{User: convertUserModel(dbUser)}
	profile, err := s.queries.GetProfileByUser(ctx, id)
	if err == nil {
		result.EmailConfirmed = profile.EmailConfirmed
		if profile.AvatarPath.Valid && profile.AvatarPath.String != "" {
			result.AvatarURL = s.avatarBase + "/" + strings.TrimLeft(profile.AvatarPath.String, "/")
		}
	}
	return result, nil
}

// SendConfirmationEmail creates a confirmation token and enqueues the mail.
// Already-confirmed accounts are a silent no-op.
func (s *Service) SendConfirmationEmail(ctx context.Context, userID string) error {
	id, err := pgUUIDFromString(userID)
	if err != nil {
		return common.NewAppError("UNAUTHORIZED", "unauthorized", http.StatusUnauthorized, nil)
	}
	dbUser, err := s.queries.GetUserByID(ctx, id)
	if err != nil {
		return common.NewAppError("UNAUTHORIZED", "unauthorized", http.StatusUnauthorized, nil)
	}
	profile, err := s.queries.GetProfileByUser(ctx, id)
	if err == nil && profile.EmailConfirmed {
		return nil
	}

	token, err := generateToken(32)
	if err != nil {
		return fmt.Errorf("generate confirmation token: %w", err)
	}
	if _, err := s.queries.CreateEmailConfirmation(ctx, db.CreateEmailConfirmationParams{
		UserID:    id,
		Token:     token,
		ExpiresAt: pgTimestamp(s.now().Add(s.confirmTTL)),
	}); err != nil {
		return fmt.Errorf("create email confirmation: %w", err)
	}

	if s.enqueuer == nil {
		return nil
	}
	link := fmt.Sprintf("%s/api/v1/auth/confirm-email?token=%s", s.confirmBase, token)
	if err := s.enqueuer.EnqueueConfirmationEmail(ctx, notify.ConfirmationEmailPayload{
		To:         dbUser.Email,
		Name:       dbUser.FirstName,
		ConfirmURL: link,
	}); err != nil {
		return fmt.Errorf("enqueue confirmation email: %w", err)
	}
	return nil
}

// ConfirmEmail redeems a single-use confirmation token.
func (s *Service) ConfirmEmail(ctx context.Context, token string) error {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return common.NewAppError("INVALID_TOKEN", "invalid or expired token", http.StatusBadRequest, nil)
	}
	confirmation, err := s.queries.GetEmailConfirmationByToken(ctx, trimmed)
	if err != nil {
		return common.NewAppError("INVALID_TOKEN", "invalid or expired token", http.StatusBadRequest, nil)
	}
	if confirmation.ConfirmedAt.Valid || !confirmation.ExpiresAt.Valid || s.now().After(confirmation.ExpiresAt.Time) {
		return common.NewAppError("INVALID_TOKEN", "invalid or expired token", http.StatusBadRequest, nil)
	}
	if err := s.queries.MarkEmailConfirmationConfirmed(ctx, confirmation.ID); err != nil {
		return fmt.Errorf("mark confirmation used: %w", err)
	}
	if err := s.queries.ConfirmProfileEmail(ctx, confirmation.UserID); err != nil {
		return fmt.Errorf("confirm profile email: %w", err)
	}
	return nil
}

// ParseAccessToken validates an access token and returns the subject (user ID).
func (s *Service) ParseAccessToken(token string) (string, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return "", common.NewAppError("UNAUTHORIZED", "missing token", http.StatusUnauthorized, nil)
	}
	algorithm, err := extractTokenAlgorithm(trimmed)
	if err != nil {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	if s.validator.Algorithm != "" && algorithm != s.validator.Algorithm {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, fmt.Errorf("unexpected token algorithm %s", algorithm))
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(algorithm, s.secret))
	if err != nil {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	if err := s.validator.Validate(parsed, algorithm, s.now()); err != nil {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	return parsed.Subject(), nil
}

func (s *Service) issueTokens(ctx context.Context, dbUser db.User, userAgent, ip string) (LoginResult, error) {
	userID := uuidString(dbUser.ID)
	if userID == "" {
		return LoginResult{}, errors.New("auth: invalid user identifier")
	}
	accessToken, accessExpiry, err := s.signAccessToken(userID)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign access token: %w", err)
	}
	refreshToken, refreshExpiry, err := s.generateRefreshToken(ctx, dbUser.ID, userAgent, ip)
	if err != nil {
		return LoginResult{}, fmt.Errorf("generate refresh token: %w", err)
	}
	return LoginResult{
		User:          convertUserModel(dbUser),
		AccessToken:   accessToken,
		RefreshToken:  refreshToken,
		AccessExpiry:  accessExpiry,
		RefreshExpiry: refreshExpiry,
	}, nil
}

func extractTokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return "", err
	}
	signatures := message.Signatures()
	if len(signatures) == 0 {
		return "", errors.New("auth: token contains no signatures")
	}
	var algorithm jwa.SignatureAlgorithm
	for _, sig := range signatures {
		headers := sig.ProtectedHeaders()
		if headers == nil {
			return "", errors.New("auth: token missing protected headers")
		}
		alg := headers.Algorithm()
		if alg == "" {
			return "", errors.New("auth: token missing algorithm")
		}
		if alg == jwa.NoSignature {
			return "", errors.New("auth: token uses none algorithm")
		}
		if algorithm == "" {
			algorithm = alg
		} else if algorithm != alg {
			return "", fmt.Errorf("auth: mixed token algorithms detected")
		}
	}
	return algorithm, nil
}

func (s *Service) signAccessToken(userID string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.accessTTL)
	builder := jwt.NewBuilder().
		Subject(userID).
		Issuer(s.issuer).
		Audience([]string{s.audience}).
		IssuedAt(now).
		NotBefore(now.Add(-s.clockSkew)).
		Expiration(expiresAt)
	token, err := builder.Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(s.signer, s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiresAt, nil
}

func (s *Service) generateRefreshToken(ctx context.Context, userID pgtype.UUID, userAgent, ip string) (string, time.Time, error) {
	if !userID.Valid {
		return "", time.Time{}, errors.New("auth: invalid user identifier")
	}
	token, hashed, expiresAt, err := s.newRefreshToken()
	if err != nil {
		return "", time.Time{}, err
	}
	if _, err := s.queries.CreateSession(ctx, db.CreateSessionParams{
		UserID:    userID,
		TokenHash: hashed,
		UserAgent: strings.TrimSpace(userAgent),
		Ip:        strings.TrimSpace(ip),
		ExpiresAt: pgTimestamp(expiresAt),
	}); err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

func (s *Service) newRefreshToken() (string, string, time.Time, error) {
	token, err := generateToken(48)
	if err != nil {
		return "", "", time.Time{}, err
	}
	expiresAt := s.now().Add(s.refreshTTL)
	return token, hashRefreshToken(token), expiresAt, nil
}

func (s *Service) rotateSessionToken(ctx context.Context, sessionID pgtype.UUID) (string, time.Time, error) {
	token, hashed, expiresAt, err := s.newRefreshToken()
	if err != nil {
		return "", time.Time{}, err
	}
	_, err = s.queries.UpdateSessionToken(ctx, db.UpdateSessionTokenParams{
		ID:        sessionID,
		TokenHash: hashed,
		ExpiresAt: pgTimestamp(expiresAt),
	})
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

func generateToken(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashRefreshToken(token string) string {
	return common.Sha256Hex(token)
}

func convertUserModel(u db.User) User {
	return User{
		ID:        uuidString(u.ID),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		CreatedAt: toTime(u.CreatedAt),
		UpdatedAt: toTime(u.UpdatedAt),
	}
}

func pgUUIDFromString(value string) (pgtype.UUID, error) {
	var id pgtype.UUID
	if err := id.Scan(value); err != nil {
		return pgtype.UUID{}, err
	}
	return id, nil
}

func uuidString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	u, err := uuid.FromBytes(id.Bytes[:])
	if err != nil {
		return ""
	}
	return u.String()
}

func pgTimestamp(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func toTime(ts pgtype.Timestamptz) time.Time {
	if !ts.Valid {
		return time.Time{}
	}
	return ts.Time
}

