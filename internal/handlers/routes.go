package handlers

import "net/http"

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Sessions     SessionManager
	Media        MediaService
	Views        ViewCompiler
	LoginLimiter RateLimiter
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux. Routes use
// method-qualified patterns, so the mux itself answers 405 for wrong verbs.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	authn := Authenticator{Sessions: deps.Sessions}

	health := HealthHandler{}
	auth := AuthHandler{Media: deps.Media, Sessions: deps.Sessions, Limiter: deps.LoginLimiter}
	account := AccountHandler{Media: deps.Media, Views: deps.Views}
	videos := VideoHandler{Media: deps.Media, Views: deps.Views}
	comments := CommentHandler{Media: deps.Media, Views: deps.Views}
	social := SocialHandler{Media: deps.Media, Views: deps.Views}
	playlists := PlaylistHandler{Media: deps.Media, Views: deps.Views}

	mux.HandleFunc("GET /healthz", health.Handle)

	mux.HandleFunc("POST /api/v1/auth/register", auth.Register)
	mux.HandleFunc("POST /api/v1/auth/login", auth.Login)
	mux.HandleFunc("POST /api/v1/auth/refresh", auth.Refresh)
	mux.Handle("POST /api/v1/auth/logout", authn.Require(auth.Logout))
	mux.Handle("POST /api/v1/auth/password", authn.Require(auth.ChangePassword))

	mux.Handle("GET /api/v1/account", authn.Require(account.Profile))
	mux.Handle("PATCH /api/v1/account", authn.Require(account.Update))
	mux.Handle("POST /api/v1/account/avatar", authn.Require(account.UpdateAvatar))
	mux.Handle("POST /api/v1/account/cover", authn.Require(account.UpdateCover))
	mux.Handle("GET /api/v1/account/history", authn.Require(account.WatchHistory))
	mux.Handle("GET /api/v1/account/likes", authn.Require(account.LikedVideos))

	mux.Handle("GET /api/v1/videos", authn.Optional(videos.List))
	mux.Handle("POST /api/v1/videos", authn.Require(videos.Publish))
	mux.Handle("GET /api/v1/videos/{id}", authn.Optional(videos.Get))
	mux.Handle("PATCH /api/v1/videos/{id}", authn.Require(videos.Update))
	mux.Handle("DELETE /api/v1/videos/{id}", authn.Require(videos.Delete))
	mux.Handle("POST /api/v1/videos/{id}/publish", authn.Require(videos.TogglePublish))

	mux.Handle("GET /api/v1/videos/{id}/comments", authn.Optional(comments.List))
	mux.Handle("POST /api/v1/videos/{id}/comments", authn.Require(comments.Create))
	mux.Handle("PATCH /api/v1/comments/{id}", authn.Require(comments.Update))
	mux.Handle("DELETE /api/v1/comments/{id}", authn.Require(comments.Delete))

	mux.Handle("POST /api/v1/videos/{id}/like", authn.Require(social.LikeVideo))
	mux.Handle("POST /api/v1/comments/{id}/like", authn.Require(social.LikeComment))
	mux.Handle("POST /api/v1/channels/{id}/subscribe", authn.Require(social.Subscribe))
	mux.Handle("GET /api/v1/channels/{username}", authn.Optional(social.Channel))

	mux.Handle("POST /api/v1/playlists", authn.Require(playlists.Create))
	mux.Handle("GET /api/v1/playlists/{id}", authn.Optional(playlists.Get))
	mux.Handle("PATCH /api/v1/playlists/{id}", authn.Require(playlists.Update))
	mux.Handle("DELETE /api/v1/playlists/{id}", authn.Require(playlists.Delete))
	mux.Handle("POST /api/v1/playlists/{id}/videos/{videoId}", authn.Require(playlists.AddVideo))
	mux.Handle("DELETE /api/v1/playlists/{id}/videos/{videoId}", authn.Require(playlists.RemoveVideo))

	mux.Handle("GET /api/v1/users/{id}/playlists", authn.Optional(playlists.ListForUser))
}
