package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAccountProfile(t *testing.T) {
	srv := newTestServer(t)
	session := srv.signUp(t, "fiona")

	req := authorize(httptest.NewRequest(http.MethodGet, "/api/v1/account", nil), session.Tokens.AccessToken)

	var resp accountResponse
	srv.do(t, req, http.StatusOK, &resp)
	if resp.User.Username != "fiona" {
		t.Fatalf("expected own profile, got %q", resp.User.Username)
	}
	if resp.User.Email != "fiona@example.com" {
		t.Fatalf("expected email in own profile, got %q", resp.User.Email)
	}
	if resp.User.AvatarURL == "" {
		t.Fatal("expected avatar url from registration")
	}

	srv.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/account", nil), http.StatusUnauthorized, nil)
}

func TestAccountUpdateKeepsUnsetFields(t *testing.T) {
	srv := newTestServer(t)
	session := srv.signUp(t, "gina")

	req := authorize(jsonRequest(t, http.MethodPatch, "/api/v1/account", map[string]string{
		"fullName": "Gina Renamed",
	}), session.Tokens.AccessToken)

	var resp accountResponse
	srv.do(t, req, http.StatusOK, &resp)
	if resp.User.FullName != "Gina Renamed" {
		t.Fatalf("expected renamed account got %q", resp.User.FullName)
	}
	if resp.User.Email != "gina@example.com" {
		t.Fatalf("expected email untouched got %q", resp.User.Email)
	}
}

func TestAccountUpdateRejectsBadEmail(t *testing.T) {
	srv := newTestServer(t)
	session := srv.signUp(t, "hank")

	req := authorize(jsonRequest(t, http.MethodPatch, "/api/v1/account", map[string]string{
		"email": "not an address",
	}), session.Tokens.AccessToken)
	srv.do(t, req, http.StatusBadRequest, nil)
}

func TestAccountImageUploads(t *testing.T) {
	srv := newTestServer(t)
	session := srv.signUp(t, "iris")

	avatar := multipartRequest(t, http.MethodPost, "/api/v1/account/avatar", nil, map[string]string{
		"avatar": "new-avatar.png",
	})
	authorize(avatar, session.Tokens.AccessToken)

	var resp accountResponse
	srv.do(t, avatar, http.StatusOK, &resp)
	if resp.User.AvatarURL == "" {
		t.Fatal("expected avatar url to be set")
	}

	cover := multipartRequest(t, http.MethodPost, "/api/v1/account/cover", nil, map[string]string{
		"coverImage": "banner.png",
	})
	authorize(cover, session.Tokens.AccessToken)
	srv.do(t, cover, http.StatusOK, &resp)
	if resp.User.CoverURL == "" {
		t.Fatal("expected cover url to be set")
	}

	missing := multipartRequest(t, http.MethodPost, "/api/v1/account/avatar", nil, nil)
	authorize(missing, session.Tokens.AccessToken)
	srv.do(t, missing, http.StatusBadRequest, nil)
}
