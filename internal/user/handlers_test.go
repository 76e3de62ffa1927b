package user

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nmarques/backend-compras/internal/common"
)

type profileResponse struct {
	Data Profile `json:"data"`
}

func authedRequest(t *testing.T, method, target string, body *bytes.Buffer, contentType, userID string) *http.Request {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, body)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req.WithContext(common.WithUserID(req.Context(), userID))
}

func TestGetHandler(t *testing.T) {
	queries := newFakeQueries()
	handler := &Handler{Service: newTestService(t, queries)}

	req := authedRequest(t, http.MethodGet, "/api/v1/me", nil, "", common.UUIDString(queries.user.ID))
	rec := httptest.NewRecorder()
	handler.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	var payload profileResponse
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Data.Email != "nuno@example.com" {
		t.Fatalf("unexpected profile: %+v", payload.Data)
	}
}

func TestGetHandlerRequiresAuth(t *testing.T) {
	queries := newFakeQueries()
	handler := &Handler{Service: newTestService(t, queries)}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	rec := httptest.NewRecorder()
	handler.Get(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestUpdateHandlerNamesAndAvatar(t *testing.T) {
	queries := newFakeQueries()
	handler := &Handler{Service: newTestService(t, queries)}
	userID := common.UUIDString(queries.user.ID)

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("first_name", "Maria"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	part, err := form.CreateFormFile("avatar", "me.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("fake image bytes")); err != nil {
		t.Fatalf("write avatar: %v", err)
	}
	if err := form.Close(); err != nil {
		t.Fatalf("close form: %v", err)
	}

	req := authedRequest(t, http.MethodPatch, "/api/v1/me", &body, form.FormDataContentType(), userID)
	rec := httptest.NewRecorder()
	handler.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d, body %s", rec.Code, rec.Body.String())
	}
	var payload profileResponse
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Data.FirstName != "Maria" {
		t.Fatalf("unexpected first name: %q", payload.Data.FirstName)
	}
	if payload.Data.AvatarURL == "" {
		t.Fatal("expected avatar url after upload")
	}
}

func TestUpdateHandlerEmptyAvatarFieldRemoves(t *testing.T) {
	queries := newFakeQueries()
	svc := newTestService(t, queries)
	handler := &Handler{Service: svc}
	userID := common.UUIDString(queries.user.ID)

	if _, err := svc.Update(context.Background(), userID, UpdateInput{
		Avatar: &AvatarUpload{Filename: "me.png", Size: 4, Content: bytes.NewReader([]byte("data"))},
	}); err != nil {
		t.Fatalf("seed avatar: %v", err)
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("avatar", ""); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := form.Close(); err != nil {
		t.Fatalf("close form: %v", err)
	}

	req := authedRequest(t, http.MethodPatch, "/api/v1/me", &body, form.FormDataContentType(), userID)
	rec := httptest.NewRecorder()
	handler.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d, body %s", rec.Code, rec.Body.String())
	}
	var payload profileResponse
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Data.AvatarURL != "" {
		t.Fatalf("expected avatar removed, got %q", payload.Data.AvatarURL)
	}
}

func TestUpdateHandlerRejectsNonMultipart(t *testing.T) {
	queries := newFakeQueries()
	handler := &Handler{Service: newTestService(t, queries)}

	body := bytes.NewBufferString(`{"first_name":"Maria"}`)
	req := authedRequest(t, http.MethodPatch, "/api/v1/me", body, "application/json", common.UUIDString(queries.user.ID))
	rec := httptest.NewRecorder()
	handler.Update(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}
