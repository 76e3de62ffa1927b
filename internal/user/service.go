package user

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/nmarques/backend-compras/internal/common"
	db "github.com/nmarques/backend-compras/internal/db/gen"
)

const (
	maxFirstNameLen = 30
	maxLastNameLen  = 150

	// DefaultMaxAvatarBytes caps avatar uploads at 10 MB.
	DefaultMaxAvatarBytes = 10 << 20
)

var allowedAvatarExts = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".webp": {},
}

// Profile is the account profile as rendered to clients.
type Profile struct {
	ID             string    `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email"`
	AvatarURL      string    `json:"avatar_url"`
	EmailConfirmed bool      `json:"email_confirmed"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AvatarUpload carries one uploaded avatar file.
type AvatarUpload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// UpdateInput captures the mutable profile fields. Nil pointers mean the
// field was not part of the request and keeps its current value.
type UpdateInput struct {
	FirstName    *string
	LastName     *string
	Avatar       *AvatarUpload
	RemoveAvatar bool
}

// Service manages profile data and avatar files on local disk.
type Service struct {
	Queries        db.Querier
	AvatarDir      string
	AvatarBaseURL  string
	MaxAvatarBytes int64
}

// Get returns the profile of the given user.
func (s *Service) Get(ctx context.Context, userID string) (Profile, error) {
	uid, err := common.ToUUID(userID)
	if err != nil {
		return Profile{}, common.NewAppError("UNAUTHORIZED", "unauthorized", http.StatusUnauthorized, nil)
	}
	dbUser, err := s.Queries.GetUserByID(ctx, uid)
	if err != nil {
		return Profile{}, common.NewAppError("UNAUTHORIZED", "unauthorized", http.StatusUnauthorized, nil)
	}
	profile, err := s.Queries.GetProfileByUser(ctx, uid)
	if err != nil {
		return Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return s.convert(dbUser, profile), nil
}

// Update applies the submitted profile changes. Name updates and the avatar
// swap are independent; an empty avatar form field removes the current file.
func (s *Service) Update(ctx context.Context, userID string, input UpdateInput) (Profile, error) {
	uid, err := common.ToUUID(userID)
	if err != nil {
		return Profile{}, common.NewAppError("UNAUTHORIZED", "unauthorized", http.StatusUnauthorized, nil)
	}
	dbUser, err := s.Queries.GetUserByID(ctx, uid)
	if err != nil {
		return Profile{}, common.NewAppError("UNAUTHORIZED", "unauthorized", http.StatusUnauthorized, nil)
	}
	profile, err := s.Queries.GetProfileByUser(ctx, uid)
	if err != nil {
		return Profile{}, fmt.Errorf("get profile: %w", err)
	}

	firstName := dbUser.FirstName
	lastName := dbUser.LastName
	namesChanged := false
	if input.FirstName != nil {
		trimmed := strings.TrimSpace(*input.FirstName)
		if trimmed == "" {
			return Profile{}, common.NewAppError("VALIDATION_ERROR", "first_name must not be empty", http.StatusBadRequest, nil)
		}
		if utf8.RuneCountInString(trimmed) > maxFirstNameLen {
			return Profile{}, common.NewAppError("VALIDATION_ERROR", fmt.Sprintf("first_name must be at most %d characters", maxFirstNameLen), http.StatusBadRequest, nil)
		}
		firstName = trimmed
		namesChanged = true
	}
	if input.LastName != nil {
		trimmed := strings.TrimSpace(*input.LastName)
		if utf8.RuneCountInString(trimmed) > maxLastNameLen {
			return Profile{}, common.NewAppError("VALIDATION_ERROR", fmt.Sprintf("last_name must be at most %d characters", maxLastNameLen), http.StatusBadRequest, nil)
		}
		lastName = trimmed
		namesChanged = true
	}
	if namesChanged {
		dbUser, err = s.Queries.UpdateUserNames(ctx, db.UpdateUserNamesParams{ID: uid, FirstName: firstName, LastName: lastName})
		if err != nil {
			return Profile{}, fmt.Errorf("update names: %w", err)
		}
	}

	switch {
	case input.Avatar != nil:
		newPath, err := s.storeAvatar(userID, *input.Avatar)
		if err != nil {
			return Profile{}, err
		}
		updated, err := s.Queries.UpdateProfileAvatar(ctx, db.UpdateProfileAvatarParams{
			UserID:     uid,
			AvatarPath: pgtype.Text{String: newPath, Valid: true},
		})
		if err != nil {
			s.removeAvatarFile(newPath)
			return Profile{}, fmt.Errorf("update avatar: %w", err)
		}
		s.removeAvatarFile(textToString(profile.AvatarPath))
		profile = updated
	case input.RemoveAvatar:
		updated, err := s.Queries.UpdateProfileAvatar(ctx, db.UpdateProfileAvatarParams{UserID: uid})
		if err != nil {
			return Profile{}, fmt.Errorf("remove avatar: %w", err)
		}
		s.removeAvatarFile(textToString(profile.AvatarPath))
		profile = updated
	}

	return s.convert(dbUser, profile), nil
}

// storeAvatar writes the upload under <dir>/avatars/user_<id>/ and returns
// the path relative to the avatar dir.
func (s *Service) storeAvatar(userID string, upload AvatarUpload) (string, error) {
	ext := strings.ToLower(filepath.Ext(upload.Filename))
	if _, ok := allowedAvatarExts[ext]; !ok {
		return "", common.NewAppError("VALIDATION_ERROR", "avatar must be a jpg, jpeg, png, or webp file", http.StatusBadRequest, nil)
	}
	maxBytes := s.MaxAvatarBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxAvatarBytes
	}
	if upload.Size > maxBytes {
		return "", common.NewAppError("VALIDATION_ERROR", fmt.Sprintf("avatar must be at most %d bytes", maxBytes), http.StatusBadRequest, nil)
	}

	name, err := randomFilename(ext)
	if err != nil {
		return "", fmt.Errorf("generate avatar name: %w", err)
	}
	relative := path.Join("avatars", "user_"+userID, name)
	absolute := filepath.Join(s.AvatarDir, filepath.FromSlash(relative))
	if err := os.MkdirAll(filepath.Dir(absolute), 0o755); err != nil {
		return "", fmt.Errorf("create avatar dir: %w", err)
	}

	out, err := os.Create(absolute)
	if err != nil {
		return "", fmt.Errorf("create avatar file: %w", err)
	}
	written, err := io.Copy(out, io.LimitReader(upload.Content, maxBytes+1))
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && written > maxBytes {
		err = common.NewAppError("VALIDATION_ERROR", fmt.Sprintf("avatar must be at most %d bytes", maxBytes), http.StatusBadRequest, nil)
	}
	if err != nil {
		_ = os.Remove(absolute)
		return "", err
	}
	return relative, nil
}

func (s *Service) removeAvatarFile(relative string) {
	if relative == "" {
		return
	}
	_ = os.Remove(filepath.Join(s.AvatarDir, filepath.FromSlash(relative)))
}

func (s *Service) convert(dbUser db.User, profile db.UserProfile) Profile {
	out := Profile{
		ID:             common.UUIDString(dbUser.ID),
		FirstName:      dbUser.FirstName,
		LastName:       dbUser.LastName,
		Email:          dbUser.Email,
		EmailConfirmed: profile.EmailConfirmed,
		UpdatedAt:      timeFromPG(dbUser.UpdatedAt),
	}
	if avatarPath := textToString(profile.AvatarPath); avatarPath != "" {
		out.AvatarURL = strings.TrimRight(s.AvatarBaseURL, "/") + "/" + avatarPath
	}
	return out
}

func randomFilename(ext string) (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf) + ext, nil
}

func textToString(value pgtype.Text) string {
	if !value.Valid {
		return ""
	}
	return value.String
}

func timeFromPG(ts pgtype.Timestamptz) time.Time {
	if !ts.Valid {
		return time.Time{}
	}
	return ts.Time
}
