package http

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-blog/internal/auth"
	"github.com/goliatone/go-blog/internal/blog"
	"github.com/goliatone/go-blog/internal/commands/blogcmd"
	"github.com/goliatone/go-blog/internal/comments"
	"github.com/goliatone/go-blog/internal/transforms"
)

type postResponse struct {
	*blog.Post
	URL      string          `json:"url,omitempty"`
	Comments []comments.View `json:"comments"`
}

type likePayload struct {
	Like *bool `json:"like"`
}

type mediaOrderPayload struct {
	Order []uuid.UUID `json:"order"`
}

func (api *API) registerPostRoutes(mux registrar, base string) {
	root := joinPath(base, "blog/posts")
	mux.HandleFunc("GET "+root, api.handlePostList)
	mux.HandleFunc("POST "+root, api.handlePostCreate)
	mux.HandleFunc("GET "+root+"/{slug}", api.handlePostGet)
	mux.HandleFunc("PUT "+root+"/{id}", api.handlePostUpdate)
	mux.HandleFunc("DELETE "+root+"/{id}", api.handlePostDelete)
	mux.HandleFunc("POST "+root+"/{id}/like", api.handlePostLike)
	mux.HandleFunc("POST "+root+"/{id}/media", api.handleMediaAdd)
	mux.HandleFunc("PUT "+root+"/{id}/media/order", api.handleMediaReorder)
	mux.HandleFunc("DELETE "+joinPath(base, "blog/media/{id}"), api.handleMediaDelete)
}

func (api *API) handlePostList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	tags, err := transforms.ToList(strings.Join(query["tags"], ","), true)
	if err != nil {
		badRequest(w, "invalid tags")
		return
	}
	page, err := api.blog.ListPosts(r.Context(), blog.ListPostsRequest{
		Page:    parseIntQuery(query.Get("page"), 1),
		PerPage: parseIntQuery(query.Get("per_page"), 0),
		Tags:    tags,
		Search:  query.Get("search"),
		OrderBy: query.Get("order_by"),
		Asc:     transforms.ToBool(query.Get("asc")),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (api *API) handlePostCreate(w http.ResponseWriter, r *http.Request) {
	var payload blog.SavePostRequest
	if err := decodeJSON(r, &payload); err != nil {
		badRequest(w, "invalid json")
		return
	}
	payload.ID = nil
	post, err := api.blog.SavePost(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// handlePostGet resolves a slug. Historic slugs answer with a permanent
// redirect to the current one; a direct hit counts as a view.
func (api *API) handlePostGet(w http.ResponseWriter, r *http.Request) {
	lookup, err := api.blog.GetPostBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeError(w, err)
		return
	}
	if lookup.Redirected {
		target := joinPath(api.basePath, "blog/posts/"+lookup.Post.Slug)
		http.Redirect(w, r, target, http.StatusMovedPermanently)
		return
	}

	post := lookup.Post
	err = api.commands.IncrementPostViews.Execute(r.Context(), blogcmd.IncrementPostViewsCommand{
		PostID: post.ID,
		Result: func(updated *blog.Post) {
			post.Views = updated.Views
		},
	})
	if err != nil {
		api.logger.Warn("http.post.view_increment_failed", "post_id", post.ID.String(), "error", err)
	}

	actor := auth.PrincipalFromContext(r.Context())
	views, err := api.comments.ListForPost(r.Context(), actor, post.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	response := postResponse{Post: post, Comments: views}
	if api.routes != nil {
		if url, err := api.routes.PostURL(post.Slug); err == nil {
			response.URL = url
		}
	}
	writeJSON(w, http.StatusOK, response)
}

func (api *API) handlePostUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if _, err := api.blog.GetPost(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	var payload blog.SavePostRequest
	if err := decodeJSON(r, &payload); err != nil {
		badRequest(w, "invalid json")
		return
	}
	payload.ID = &id
	post, err := api.blog.SavePost(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (api *API) handlePostDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := api.blog.DeletePost(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *API) handlePostLike(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	payload := likePayload{}
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &payload); err != nil {
			badRequest(w, "invalid json")
			return
		}
	}
	like := payload.Like == nil || *payload.Like

	var post *blog.Post
	err := api.commands.TogglePostLike.Execute(r.Context(), blogcmd.TogglePostLikeCommand{
		PostID: id,
		Like:   like,
		Result: func(updated *blog.Post) { post = updated },
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (api *API) handleMediaAdd(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var payload blog.AddMediaRequest
	if err := decodeJSON(r, &payload); err != nil {
		badRequest(w, "invalid json")
		return
	}
	payload.PostID = id
	media, err := api.blog.AddMedia(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, media)
}

func (api *API) handleMediaReorder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var payload mediaOrderPayload
	if err := decodeJSON(r, &payload); err != nil {
		badRequest(w, "invalid json")
		return
	}
	media, err := api.blog.ReorderMedia(r.Context(), id, payload.Order)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, media)
}

func (api *API) handleMediaDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := api.blog.DeleteMedia(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
