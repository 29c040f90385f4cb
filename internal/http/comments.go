package http

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/goliatone/go-blog/internal/auth"
	"github.com/goliatone/go-blog/internal/commands/blogcmd"
	"github.com/goliatone/go-blog/internal/comments"
)

type commentPayload struct {
	PostID  uuid.UUID `json:"post_id"`
	Content string    `json:"content"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
}

type commentUpdatePayload struct {
	Content string `json:"content"`
}

func (api *API) registerCommentRoutes(mux registrar, base string) {
	mux.HandleFunc("GET "+joinPath(base, "blog/posts/{id}/comments"), api.handleCommentList)
	mux.HandleFunc("POST "+joinPath(base, "blog/posts/{id}/comments"), api.handleCommentCreate)
	mux.HandleFunc("POST "+joinPath(base, "blog/comments/preview"), api.handleCommentPreview)
	mux.HandleFunc("PUT "+joinPath(base, "blog/comments/{id}"), api.handleCommentUpdate)
	mux.HandleFunc("DELETE "+joinPath(base, "blog/comments/{id}"), api.handleCommentDelete)
}

// commentRequest binds the author to the request principal: signed in users
// comment under their account, everyone else under their guest id.
func commentRequest(actor auth.Principal, payload commentPayload) comments.CreateRequest {
	req := comments.CreateRequest{
		PostID:  payload.PostID,
		Content: payload.Content,
		Name:    payload.Name,
		Email:   payload.Email,
		GuestID: actor.GuestID,
	}
	if actor.IsAuthenticated() {
		userID := actor.UserID
		req.UserID = &userID
		if req.Name == "" {
			req.Name = actor.Username
		}
	}
	return req
}

func (api *API) handleCommentList(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	actor := auth.PrincipalFromContext(r.Context())
	views, err := api.comments.ListForPost(r.Context(), actor, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (api *API) handleCommentCreate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var payload commentPayload
	if err := decodeJSON(r, &payload); err != nil {
		badRequest(w, "invalid json")
		return
	}
	payload.PostID = id
	actor := auth.PrincipalFromContext(r.Context())

	var created *comments.Comment
	err := api.commands.CreateComment.Execute(r.Context(), blogcmd.CreateCommentCommand{
		Request: commentRequest(actor, payload),
		Result:  func(c *comments.Comment) { created = c },
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, comments.NewView(created, actor))
}

func (api *API) handleCommentPreview(w http.ResponseWriter, r *http.Request) {
	var payload commentPayload
	if err := decodeJSON(r, &payload); err != nil {
		badRequest(w, "invalid json")
		return
	}
	actor := auth.PrincipalFromContext(r.Context())
	preview, err := api.comments.Preview(r.Context(), commentRequest(actor, payload))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

func (api *API) handleCommentUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var payload commentUpdatePayload
	if err := decodeJSON(r, &payload); err != nil {
		badRequest(w, "invalid json")
		return
	}
	actor := auth.PrincipalFromContext(r.Context())
	comment, err := api.comments.Update(r.Context(), actor, id, payload.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comments.NewView(comment, actor))
}

func (api *API) handleCommentDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	err := api.commands.DeleteComment.Execute(r.Context(), blogcmd.DeleteCommentCommand{
		CommentID: id,
		Actor:     auth.PrincipalFromContext(r.Context()),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
