package controllers

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

//go:embed static
var staticFiles embed.FS

type homeAPI struct {
	log    *zap.Logger
	static fs.FS
}

func NewHome(log *zap.Logger) *homeAPI {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return &homeAPI{log: log, static: sub}
}

// Routes serves the route form on / and its assets under /static.
func (h *homeAPI) Routes(router *httprouter.Router) {
	router.GET("/", h.index)
	router.ServeFiles("/static/*filepath", http.FS(h.static))
}

func (h *homeAPI) index(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	page, err := fs.ReadFile(h.static, "index.html")
	if err != nil {
		h.log.Error("read index page", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}
