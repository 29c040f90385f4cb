// Package http exposes the blog over a JSON API mounted on a net/http
// ServeMux:
//   - Auth: /auth/token, /auth/refresh-token
//   - Accounts: /users, /users/current-user, /users/{id}, /register,
//     /request-password-reset, /reset-password/{query}
//   - Posts: /blog/posts, /blog/posts/{slug}, /blog/posts/{id}/like,
//     /blog/posts/{id}/media, /blog/media/{id}
//   - Series: /blog/series, /blog/series/{id}
//   - Comments: /blog/posts/{id}/comments, /blog/comments/preview,
//     /blog/comments/{id}
//   - Static pages: /pages, /pages/{slug}
//
// Requests are identified by a bearer token or the access_token cookie;
// anonymous visitors receive a guest_id cookie used for comment ownership.
package http
