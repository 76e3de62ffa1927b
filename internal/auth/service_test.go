package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/nmarques/backend-compras/internal/common"
	"github.com/nmarques/backend-compras/internal/notify"
)

type fakeEnqueuer struct {
	payloads []notify.ConfirmationEmailPayload
	err      error
}

func (f *fakeEnqueuer) EnqueueConfirmationEmail(ctx context.Context, payload notify.ConfirmationEmailPayload) error {
	if f.err != nil {
		return f.err
	}
	f.payloads = append(f.payloads, payload)
	return nil
}

type fakeGoogleVerifier struct {
	claims GoogleClaims
	err    error
}

func (f *fakeGoogleVerifier) Verify(ctx context.Context, rawToken string) (GoogleClaims, error) {
	if f.err != nil {
		return GoogleClaims{}, f.err
	}
	return f.claims, nil
}

func newTestService(t *testing.T, queries *fakeQueries, mutate func(*Config)) *Service {
	t.Helper()
	cfg := Config{
		Queries:         queries,
		Secret:          "test-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
		ConfirmTokenTTL: time.Hour,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	svc, err := NewService(cfg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func appErrorCode(t *testing.T, err error) string {
	t.Helper()
	var appErr *common.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %v", err)
	}
	return appErr.Code
}

func TestRegisterCreatesUserAndProfile(t *testing.T) {
	queries := newFakeQueries()
	svc := newTestService(t, queries, nil)

	result, err := svc.Register(context.Background(), "Nuno", "Marques", "Nuno@Example.com", "password123", "go-test", "127.0.0.1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if result.User.Email != "nuno@example.com" {
		t.Fatalf("expected normalized email, got %q", result.User.Email)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatal("expected token pair after register")
	}
	if _, ok := queries.profilesByUser[result.User.ID]; !ok {
		t.Fatal("expected profile row created alongside user")
	}
	subject, err := svc.ParseAccessToken(result.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if subject != result.User.ID {
		t.Fatalf("unexpected token subject: %s", subject)
	}
}

func TestRegisterValidation(t *testing.T) {
	queries := newFakeQueries()
	svc := newTestService(t, queries, nil)

	cases := []struct {
		name      string
		firstName string
		lastName  string
		email     string
		password  string
	}{
		{"missing first name", "", "Marques", "a@example.com", "password123"},
		{"first name too long", strings.Repeat("a", 31), "Marques", "a@example.com", "password123"},
		{"last name too long", "Nuno", strings.Repeat("b", 151), "a@example.com", "password123"},
		{"missing email", "Nuno", "Marques", "", "password123"},
		{"short password", "Nuno", "Marques", "a@example.com", "short"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.firstName, tc.lastName, tc.email, tc.password, "", "")
			if code := appErrorCode(t, err); code != "VALIDATION_ERROR" {
				t.Fatalf("expected VALIDATION_ERROR, got %s", code)
			}
		})
	}
}

func TestRegisterNameBoundsCountCharacters(t *testing.T) {
	queries := newFakeQueries()
	svc := newTestService(t, queries, nil)

	firstName := strings.Repeat("\u00e9", 30)
	lastName := strings.Repeat("\u00e9", 150)
	result, err := svc.Register(context.Background(), firstName, lastName, "accents@example.com", "password123", "", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if result.User.FirstName != firstName {
		t.Fatalf("unexpected first name: %q", result.User.FirstName)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	queries := newFakeQueries()
	svc := newTestService(t, queries, nil)

	if _, err := svc.Register(context.Background(), "Nuno", "Marques", "dup@example.com", "password123", "", ""); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svc.Register(context.Background(), "Other", "Person", "dup@example.com", "password123", "", "")
	if code := appErrorCode(t, err); code != "EMAIL_ALREADY_USED" {
		t.Fatalf("expected EMAIL_ALREADY_USED, got %s", code)
	}
}

func TestLoginWithGoogleCreatesAccountOnFirstSight(t *testing.T) {
	queries := newFakeQueries()
	verifier := &fakeGoogleVerifier{claims: GoogleClaims{
		Subject:       "google-sub",
		Email:         "maria@example.com",
		EmailVerified: true,
		GivenName:     "Maria",
		FamilyName:    "Silva",
	}}
	svc := newTestService(t, queries, func(cfg *Config) { cfg.GoogleVerifier = verifier })

	result, err := svc.LoginWithGoogle(context.Background(), "raw-token", "", "")
	if err != nil {
		t.Fatalf("google login: %v", err)
	}
	if result.User.FirstName != "Maria" || result.User.LastName != "Silva" {
		t.Fatalf("unexpected user names: %q %q", result.User.FirstName, result.User.LastName)
	}
	if _, ok := queries.usersByEmail["maria@example.com"]; !ok {
		t.Fatal("expected google user persisted")
	}
	if _, ok := queries.profilesByUser[result.User.ID]; !ok {
		t.Fatal("expected profile created for google user")
	}

	// Second login reuses the stored account.
	again, err := svc.LoginWithGoogle(context.Background(), "raw-token", "", "")
	if err != nil {
		t.Fatalf("repeat google login: %v", err)
	}
	if again.User.ID != result.User.ID {
		t.Fatal("expected second google login to reuse existing account")
	}
}

func TestLoginWithGoogleRejectsUnverifiedEmail(t *testing.T) {
	queries := newFakeQueries()
	verifier := &fakeGoogleVerifier{claims: GoogleClaims{Email: "x@example.com", EmailVerified: false}}
	svc := newTestService(t, queries, func(cfg *Config) { cfg.GoogleVerifier = verifier })

	_, err := svc.LoginWithGoogle(context.Background(), "raw-token", "", "")
	if code := appErrorCode(t, err); code != "INVALID_GOOGLE_TOKEN" {
		t.Fatalf("expected INVALID_GOOGLE_TOKEN, got %s", code)
	}
}

func TestLoginWithGoogleNotConfigured(t *testing.T) {
	queries := newFakeQueries()
	svc := newTestService(t, queries, nil)

	_, err := svc.LoginWithGoogle(context.Background(), "raw-token", "", "")
	if code := appErrorCode(t, err); code != "GOOGLE_LOGIN_DISABLED" {
		t.Fatalf("expected GOOGLE_LOGIN_DISABLED, got %s", code)
	}
}

func TestSendAndConfirmEmail(t *testing.T) {
	queries := newFakeQueries()
	enqueuer := &fakeEnqueuer{}
	svc := newTestService(t, queries, func(cfg *Config) {
		cfg.ConfirmationEnqueuer = enqueuer
		cfg.ConfirmBaseURL = "https://api.example.com/"
	})

	result, err := svc.Register(context.Background(), "Nuno", "Marques", "nuno@example.com", "password123", "", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.SendConfirmationEmail(context.Background(), result.User.ID); err != nil {
		t.Fatalf("send confirmation: %v", err)
	}
	if len(enqueuer.payloads) != 1 {
		t.Fatalf("expected one queued email, got %d", len(enqueuer.payloads))
	}
	payload := enqueuer.payloads[0]
	if payload.To != "nuno@example.com" {
		t.Fatalf("unexpected recipient: %s", payload.To)
	}
	prefix := "https://api.example.com/api/v1/auth/confirm-email?token="
	if !strings.HasPrefix(payload.ConfirmURL, prefix) {
		t.Fatalf("unexpected confirmation link: %s", payload.ConfirmURL)
	}
	token := strings.TrimPrefix(payload.ConfirmURL, prefix)

	if err := svc.ConfirmEmail(context.Background(), token); err != nil {
		t.Fatalf("confirm email: %v", err)
	}
	profile := queries.profilesByUser[result.User.ID]
	if !profile.EmailConfirmed {
		t.Fatal("expected profile marked confirmed")
	}

	// Single-use token cannot be redeemed twice.
	err = svc.ConfirmEmail(context.Background(), token)
	if code := appErrorCode(t, err); code != "INVALID_TOKEN" {
		t.Fatalf("expected INVALID_TOKEN on reuse, got %s", code)
	}

	// Sending again after confirmation is a silent no-op.
	if err := svc.SendConfirmationEmail(context.Background(), result.User.ID); err != nil {
		t.Fatalf("send after confirm: %v", err)
	}
	if len(enqueuer.payloads) != 1 {
		t.Fatalf("expected no further emails, got %d", len(enqueuer.payloads))
	}
}

func TestConfirmEmailExpiredToken(t *testing.T) {
	queries := newFakeQueries()
	enqueuer := &fakeEnqueuer{}
	svc := newTestService(t, queries, func(cfg *Config) {
		cfg.ConfirmationEnqueuer = enqueuer
		cfg.ConfirmBaseURL = "https://api.example.com"
	})

	result, err := svc.Register(context.Background(), "Nuno", "Marques", "nuno@example.com", "password123", "", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	issued := time.Now()
	svc.WithNow(func() time.Time { return issued })
	if err := svc.SendConfirmationEmail(context.Background(), result.User.ID); err != nil {
		t.Fatalf("send confirmation: %v", err)
	}
	token := strings.TrimPrefix(enqueuer.payloads[0].ConfirmURL, "https://api.example.com/api/v1/auth/confirm-email?token=")

	svc.WithNow(func() time.Time { return issued.Add(2 * time.Hour) })
	err = svc.ConfirmEmail(context.Background(), token)
	if code := appErrorCode(t, err); code != "INVALID_TOKEN" {
		t.Fatalf("expected INVALID_TOKEN for expired token, got %s", code)
	}
}

func TestMeIncludesProfileState(t *testing.T) {
	queries := newFakeQueries()
	svc := newTestService(t, queries, func(cfg *Config) {
		cfg.AvatarBaseURL = "https://api.example.com/media"
	})

	result, err := svc.Register(context.Background(), "Nuno", "Marques", "nuno@example.com", "password123", "", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	me, err := svc.Me(context.Background(), result.User.ID)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if me.EmailConfirmed {
		t.Fatal("expected unconfirmed email for a fresh account")
	}
	if me.AvatarURL != "" {
		t.Fatalf("expected empty avatar url, got %q", me.AvatarURL)
	}

	profile := queries.profilesByUser[result.User.ID]
	profile.AvatarPath = pgtype.Text{String: "avatars/user_" + result.User.ID + "/a1b2.png", Valid: true}
	profile.EmailConfirmed = true
	queries.profilesByUser[result.User.ID] = profile

	me, err = svc.Me(context.Background(), result.User.ID)
	if err != nil {
		t.Fatalf("me after profile update: %v", err)
	}
	if !me.EmailConfirmed {
		t.Fatal("expected confirmed email")
	}
	want := "https://api.example.com/media/avatars/user_" + result.User.ID + "/a1b2.png"
	if me.AvatarURL != want {
		t.Fatalf("unexpected avatar url: %q", me.AvatarURL)
	}
}

func TestMeUnknownUser(t *testing.T) {
	queries := newFakeQueries()
	svc := newTestService(t, queries, nil)

	_, err := svc.Me(context.Background(), "c7a1d2ec-0000-4000-8000-000000000000")
	if code := appErrorCode(t, err); code != "UNAUTHORIZED" {
		t.Fatalf("expected UNAUTHORIZED, got %s", code)
	}
}
