package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	dbgen "github.com/nmarques/backend-compras/internal/db/gen"
)

var errNotImplemented = errors.New("not implemented")

type fakeQueries struct {
	mu                   sync.Mutex
	usersByEmail         map[string]dbgen.User
	usersByID            map[string]dbgen.User
	profilesByUser       map[string]dbgen.UserProfile
	sessionsByToken      map[string]dbgen.Session
	sessionsByID         map[string]dbgen.Session
	confirmationsByToken map[string]dbgen.EmailConfirmation
	confirmationsByID    map[string]dbgen.EmailConfirmation
}

func newFakeQueries() *fakeQueries {
	return &fakeQueries{
		usersByEmail:         make(map[string]dbgen.User),
		usersByID:            make(map[string]dbgen.User),
		profilesByUser:       make(map[string]dbgen.UserProfile),
		sessionsByToken:      make(map[string]dbgen.Session),
		sessionsByID:         make(map[string]dbgen.Session),
		confirmationsByToken: make(map[string]dbgen.EmailConfirmation),
		confirmationsByID:    make(map[string]dbgen.EmailConfirmation),
	}
}

func newPgID() pgtype.UUID {
	id, _ := pgUUIDFromString(uuid.NewString())
	return id
}

func (f *fakeQueries) seedUser(email, passwordHash string) dbgen.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := pgTimestamp(time.Now())
	user := dbgen.User{
		ID:           newPgID(),
		FirstName:    "Test",
		LastName:     "User",
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.usersByEmail[email] = user
	f.usersByID[uuidString(user.ID)] = user
	f.profilesByUser[uuidString(user.ID)] = dbgen.UserProfile{UserID: user.ID, UpdatedAt: now}
	return user
}

func (f *fakeQueries) CreateUser(ctx context.Context, arg dbgen.CreateUserParams) (dbgen.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.usersByEmail[arg.Email]; exists {
		return dbgen.User{}, &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	}
	now := pgTimestamp(time.Now())
	user := dbgen.User{
		ID:           newPgID(),
		FirstName:    arg.FirstName,
		LastName:     arg.LastName,
		Email:        arg.Email,
		PasswordHash: arg.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.usersByEmail[arg.Email] = user
	f.usersByID[uuidString(user.ID)] = user
	return user, nil
}

func (f *fakeQueries) GetUserByEmail(ctx context.Context, email string) (dbgen.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.usersByEmail[email]
	if !ok {
		return dbgen.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (f *fakeQueries) GetUserByID(ctx context.Context, id pgtype.UUID) (dbgen.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.usersByID[uuidString(id)]
	if !ok {
		return dbgen.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (f *fakeQueries) UpdateUserNames(ctx context.Context, arg dbgen.UpdateUserNamesParams) (dbgen.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.usersByID[uuidString(arg.ID)]
	if !ok {
		return dbgen.User{}, pgx.ErrNoRows
	}
	user.FirstName = arg.FirstName
	user.LastName = arg.LastName
	user.UpdatedAt = pgTimestamp(time.Now())
	f.usersByID[uuidString(arg.ID)] = user
	f.usersByEmail[user.Email] = user
	return user, nil
}

func (f *fakeQueries) CreateProfile(ctx context.Context, userID pgtype.UUID) (dbgen.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	profile := dbgen.UserProfile{UserID: userID, UpdatedAt: pgTimestamp(time.Now())}
	f.profilesByUser[uuidString(userID)] = profile
	return profile, nil
}

func (f *fakeQueries) GetProfileByUser(ctx context.Context, userID pgtype.UUID) (dbgen.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	profile, ok := f.profilesByUser[uuidString(userID)]
	if !ok {
		return dbgen.UserProfile{}, pgx.ErrNoRows
	}
	return profile, nil
}

func (f *fakeQueries) UpdateProfileAvatar(ctx context.Context, arg dbgen.UpdateProfileAvatarParams) (dbgen.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	profile, ok := f.profilesByUser[uuidString(arg.UserID)]
	if !ok {
		return dbgen.UserProfile{}, pgx.ErrNoRows
	}
	profile.AvatarPath = arg.AvatarPath
	profile.UpdatedAt = pgTimestamp(time.Now())
	f.profilesByUser[uuidString(arg.UserID)] = profile
	return profile, nil
}

func (f *fakeQueries) ConfirmProfileEmail(ctx context.Context, userID pgtype.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	profile, ok := f.profilesByUser[uuidString(userID)]
	if !ok {
		return pgx.ErrNoRows
	}
	profile.EmailConfirmed = true
	profile.UpdatedAt = pgTimestamp(time.Now())
	f.profilesByUser[uuidString(userID)] = profile
	return nil
}

func (f *fakeQueries) CreateSession(ctx context.Context, arg dbgen.CreateSessionParams) (dbgen.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session := dbgen.Session{
		ID:        newPgID(),
		UserID:    arg.UserID,
		TokenHash: arg.TokenHash,
		UserAgent: arg.UserAgent,
		Ip:        arg.Ip,
		ExpiresAt: arg.ExpiresAt,
		CreatedAt: pgTimestamp(time.Now()),
	}
	f.sessionsByToken[arg.TokenHash] = session
	f.sessionsByID[uuidString(session.ID)] = session
	return session, nil
}

func (f *fakeQueries) GetSessionByToken(ctx context.Context, tokenHash string) (dbgen.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessionsByToken[tokenHash]
	if !ok {
		return dbgen.Session{}, pgx.ErrNoRows
	}
	return session, nil
}

func (f *fakeQueries) UpdateSessionToken(ctx context.Context, arg dbgen.UpdateSessionTokenParams) (dbgen.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessionsByID[uuidString(arg.ID)]
	if !ok {
		return dbgen.Session{}, pgx.ErrNoRows
	}
	delete(f.sessionsByToken, session.TokenHash)
	session.TokenHash = arg.TokenHash
	session.ExpiresAt = arg.ExpiresAt
	f.sessionsByID[uuidString(arg.ID)] = session
	f.sessionsByToken[arg.TokenHash] = session
	return session, nil
}

func (f *fakeQueries) DeleteSessionByToken(ctx context.Context, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessionsByToken[tokenHash]
	if !ok {
		return nil
	}
	delete(f.sessionsByToken, tokenHash)
	delete(f.sessionsByID, uuidString(session.ID))
	return nil
}

func (f *fakeQueries) DeleteSessionsByUser(ctx context.Context, userID pgtype.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for token, session := range f.sessionsByToken {
		if uuidString(session.UserID) == uuidString(userID) {
			delete(f.sessionsByToken, token)
			delete(f.sessionsByID, uuidString(session.ID))
		}
	}
	return nil
}

func (f *fakeQueries) CreateEmailConfirmation(ctx context.Context, arg dbgen.CreateEmailConfirmationParams) (dbgen.EmailConfirmation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	confirmation := dbgen.EmailConfirmation{
		ID:        newPgID(),
		UserID:    arg.UserID,
		Token:     arg.Token,
		ExpiresAt: arg.ExpiresAt,
		CreatedAt: pgTimestamp(time.Now()),
	}
	f.confirmationsByToken[arg.Token] = confirmation
	f.confirmationsByID[uuidString(confirmation.ID)] = confirmation
	return confirmation, nil
}

func (f *fakeQueries) GetEmailConfirmationByToken(ctx context.Context, token string) (dbgen.EmailConfirmation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	confirmation, ok := f.confirmationsByToken[token]
	if !ok {
		return dbgen.EmailConfirmation{}, pgx.ErrNoRows
	}
	return confirmation, nil
}

func (f *fakeQueries) MarkEmailConfirmationConfirmed(ctx context.Context, id pgtype.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	confirmation, ok := f.confirmationsByID[uuidString(id)]
	if !ok {
		return pgx.ErrNoRows
	}
	confirmation.ConfirmedAt = pgTimestamp(time.Now())
	f.confirmationsByID[uuidString(id)] = confirmation
	f.confirmationsByToken[confirmation.Token] = confirmation
	return nil
}

func (f *fakeQueries) CreatePurchase(context.Context, dbgen.CreatePurchaseParams) (dbgen.Purchase, error) {
	return dbgen.Purchase{}, errNotImplemented
}

func (f *fakeQueries) CreatePurchaseItem(context.Context, dbgen.CreatePurchaseItemParams) (dbgen.PurchaseItem, error) {
	return dbgen.PurchaseItem{}, errNotImplemented
}

func (f *fakeQueries) FindPurchaseByOwnerAndKey(context.Context, dbgen.FindPurchaseByOwnerAndKeyParams) (dbgen.Purchase, error) {
	return dbgen.Purchase{}, errNotImplemented
}

func (f *fakeQueries) GetPurchaseByIDForUser(context.Context, dbgen.GetPurchaseByIDForUserParams) (dbgen.Purchase, error) {
	return dbgen.Purchase{}, errNotImplemented
}

func (f *fakeQueries) ListPurchaseItemsByPurchase(context.Context, pgtype.UUID) ([]dbgen.PurchaseItem, error) {
	return nil, errNotImplemented
}

func (f *fakeQueries) ListPurchasesForUser(context.Context, dbgen.ListPurchasesForUserParams) ([]dbgen.Purchase, error) {
	return nil, errNotImplemented
}

func (f *fakeQueries) CountPurchasesForUser(context.Context, dbgen.CountPurchasesForUserParams) (int64, error) {
	return 0, errNotImplemented
}
