package http

import (
	"net/http"

	"github.com/goliatone/go-blog/internal/blog"
)

type seriesDeleteResponse struct {
	Deleted bool `json:"deleted"`
}

func (api *API) registerSeriesRoutes(mux registrar, base string) {
	root := joinPath(base, "blog/series")
	mux.HandleFunc("GET "+root, api.handleSeriesList)
	mux.HandleFunc("POST "+root, api.handleSeriesCreate)
	mux.HandleFunc("GET "+root+"/{id}", api.handleSeriesGet)
	mux.HandleFunc("PUT "+root+"/{id}", api.handleSeriesUpdate)
	mux.HandleFunc("DELETE "+root+"/{id}", api.handleSeriesDelete)
}

func (api *API) handleSeriesList(w http.ResponseWriter, r *http.Request) {
	list, err := api.blog.ListSeries(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (api *API) handleSeriesCreate(w http.ResponseWriter, r *http.Request) {
	var payload blog.SeriesInput
	if err := decodeJSON(r, &payload); err != nil {
		badRequest(w, "invalid json")
		return
	}
	series, err := api.blog.CreateSeries(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, series)
}

func (api *API) handleSeriesGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	series, err := api.blog.GetSeries(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (api *API) handleSeriesUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var payload blog.SeriesInput
	if err := decodeJSON(r, &payload); err != nil {
		badRequest(w, "invalid json")
		return
	}
	series, err := api.blog.UpdateSeries(r.Context(), id, payload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (api *API) handleSeriesDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	deleted, err := api.blog.DeleteSeries(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, seriesDeleteResponse{Deleted: deleted})
}
