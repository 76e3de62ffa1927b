package user

import (
	"errors"
	"net/http"

	"github.com/nmarques/backend-compras/internal/common"
)

// Handler exposes the profile endpoints.
type Handler struct {
	Service *Service
	// MaxBodyBytes bounds the multipart request body; zero means the
	// avatar limit plus slack for the form fields.
	MaxBodyBytes int64
}

// Get handles GET /api/v1/me.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "profile service not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	profile, err := h.Service.Get(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": profile})
}

// Update handles PATCH /api/v1/me with a multipart form carrying first_name,
// last_name, and an optional avatar file. An avatar form value that is an
// empty string removes the stored avatar.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "profile service not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}

	maxBody := h.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxAvatarBytes + 1<<20
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid multipart payload", nil)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	var input UpdateInput
	if values, ok := r.MultipartForm.Value["first_name"]; ok && len(values) > 0 {
		input.FirstName = &values[0]
	}
	if values, ok := r.MultipartForm.Value["last_name"]; ok && len(values) > 0 {
		input.LastName = &values[0]
	}
	if files, ok := r.MultipartForm.File["avatar"]; ok && len(files) > 0 {
		file, err := files[0].Open()
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid avatar upload", nil)
			return
		}
		defer file.Close()
		input.Avatar = &AvatarUpload{
			Filename: files[0].Filename,
			Size:     files[0].Size,
			Content:  file,
		}
	} else if values, ok := r.MultipartForm.Value["avatar"]; ok && len(values) > 0 && values[0] == "" {
		input.RemoveAvatar = true
	}

	profile, err := h.Service.Update(r.Context(), userID, input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": profile})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		code := appErr.Code
		if code == "" {
			code = "INTERNAL"
		}
		message := appErr.Message
		if message == "" {
			message = "internal error"
		}
		common.JSONError(w, status, code, message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}
