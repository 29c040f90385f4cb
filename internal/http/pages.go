package http

import "net/http"

func (api *API) registerPageRoutes(mux registrar, base string) {
	root := joinPath(base, "pages")
	mux.HandleFunc("GET "+root, api.handlePageList)
	mux.HandleFunc("GET "+root+"/{slug}", api.handlePageGet)
}

func (api *API) handlePageList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.pages.List(r.URL.Query().Get("kind")))
}

func (api *API) handlePageGet(w http.ResponseWriter, r *http.Request) {
	page, err := api.pages.Get(r.PathValue("slug"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}
