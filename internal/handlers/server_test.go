package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/media"
	"github.com/clipstream/backend/internal/repositories"
	"github.com/clipstream/backend/internal/uploads"
	"github.com/clipstream/backend/internal/views"
)

// blobStore is an in-memory uploads.Store for handler tests.
type blobStore struct {
	mu    sync.Mutex
	saved []string
}

func (s *blobStore) Save(_ context.Context, name string, r io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, name)
	return "https://cdn.test/" + name, nil
}

type testServer struct {
	mux   *http.ServeMux
	graph *repositories.MemoryGraph
	store *blobStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	graph := repositories.NewMemoryGraph()
	store := &blobStore{}
	hasher := auth.BcryptHasher{Cost: 4}

	signer, err := auth.NewTokenSigner("access-secret-for-tests", "refresh-secret-for-tests", "clipstream-test")
	if err != nil {
		t.Fatalf("new token signer: %v", err)
	}
	sessions := auth.NewManager(15*time.Minute, 24*time.Hour, graph.Users, auth.NewInMemorySessionStore(), signer, hasher)

	svc := media.NewService(media.ServiceConfig{
		Users:         graph.Users,
		Videos:        graph.Videos,
		Comments:      graph.Comments,
		Likes:         graph.Likes,
		Subscriptions: graph.Subscriptions,
		Playlists:     graph.Playlists,
		Store:         store,
		Prober:        uploads.ProberFunc(func(context.Context, string) (float64, error) { return 42.5, nil }),
		Hasher:        hasher,
	})

	compiler := views.NewCompiler(graph.Users, graph.Videos, graph.Comments, graph.Likes, graph.Subscriptions, graph.Playlists)

	mux := http.NewServeMux()
	RegisterRoutes(mux, Dependencies{
		Sessions: sessions,
		Media:    svc,
		Views:    compiler,
	})

	return &testServer{mux: mux, graph: graph, store: store}
}

// do dispatches a request through the mux and decodes the JSON body into out
// when out is non-nil.
func (s *testServer) do(t *testing.T, req *http.Request, wantStatus int, out any) {
	t.Helper()

	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	if rec.Code != wantStatus {
		t.Fatalf("%s %s: expected status %d got %d (body %s)", req.Method, req.URL.Path, wantStatus, rec.Code, rec.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("decode response: %v (body %s)", err, rec.Body.String())
		}
	}
}

func jsonRequest(t *testing.T, method, target string, payload any) *http.Request {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func authorize(req *http.Request, accessToken string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+accessToken)
	return req
}

// multipartRequest builds a multipart request from text fields and file
// parts keyed by field name.
func multipartRequest(t *testing.T, method, target string, fields map[string]string, files map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("write field %s: %v", name, err)
		}
	}
	for name, filename := range files {
		part, err := writer.CreateFormFile(name, filename)
		if err != nil {
			t.Fatalf("create file part %s: %v", name, err)
		}
		if _, err := io.Copy(part, strings.NewReader("binary-"+filename)); err != nil {
			t.Fatalf("write file part %s: %v", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

type sessionEnvelope struct {
	Tokens struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	} `json:"tokens"`
	User struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
}

// signUp registers and logs in a user, returning the session envelope.
func (s *testServer) signUp(t *testing.T, username string) sessionEnvelope {
	t.Helper()

	req := multipartRequest(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username": username,
		"email":    fmt.Sprintf("%s@example.com", username),
		"fullName": username + " tester",
		"password": "correct horse battery",
	}, map[string]string{"avatar": username + ".png"})
	s.do(t, req, http.StatusCreated, nil)

	var session sessionEnvelope
	s.do(t, jsonRequest(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"login":    username,
		"password": "correct horse battery",
	}), http.StatusOK, &session)
	return session
}

// publishVideo uploads a published video owned by the given session.
func (s *testServer) publishVideo(t *testing.T, session sessionEnvelope, title string) string {
	t.Helper()

	req := multipartRequest(t, http.MethodPost, "/api/v1/videos", map[string]string{
		"title":       title,
		"description": "about " + title,
		"publish":     "true",
	}, map[string]string{"media": title + ".mp4", "thumbnail": title + ".jpg"})
	authorize(req, session.Tokens.AccessToken)

	var view views.VideoView
	s.do(t, req, http.StatusCreated, &view)
	return view.ID
}
