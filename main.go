package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/weftcms/weft/erro"
	"github.com/weftcms/weft/locate"
	"github.com/weftcms/weft/render"
	"github.com/weftcms/weft/sitekv"
	"github.com/weftcms/weft/theme"
	"github.com/weftcms/weft/viewstack"
)

type config struct {
	Addr           string `env:"WEFT_ADDR" envDefault:":8080"`
	ThemesDir      string `env:"WEFT_THEMES_DIR" envDefault:"./themes"`
	Database       string `env:"WEFT_DB" envDefault:"./weft.sqlite3"`
	Theme          string `env:"WEFT_THEME" envDefault:"plainsimple"`
	CacheTemplates bool   `env:"WEFT_CACHE_TEMPLATES" envDefault:"true"`
}

type server struct {
	config   config
	logger   *slog.Logger
	router   *chi.Mux
	themes   *theme.Registry
	active   *theme.Theme
	locator  *locate.FolderLocator
	renderer *render.Renderer
	store    *sitekv.Store
}

func newServer(cfg config, logger *slog.Logger) (*server, error) {
	srv := &server{
		config: cfg,
		logger: logger,
	}
	fsys := os.DirFS(cfg.ThemesDir)
	var err error
	srv.themes, err = theme.Load(fsys)
	if err != nil {
		return srv, erro.Wrap(err)
	}
	active, ok := srv.themes.Theme(cfg.Theme)
	if !ok {
		return srv, erro.Wrap(errors.New("no such theme: " + cfg.Theme))
	}
	srv.active = active
	srv.locator, err = locate.New(fsys)
	if err != nil {
		return srv, erro.Wrap(err)
	}
	renderOpts := []render.Option{}
	if cfg.CacheTemplates {
		renderOpts = append(renderOpts, render.EnableCache())
	}
	srv.renderer, err = render.New(fsys, renderOpts...)
	if err != nil {
		return srv, erro.Wrap(err)
	}
	srv.store, err = sitekv.Open("sqlite3", cfg.Database)
	if err != nil {
		return srv, erro.Wrap(err)
	}
	srv.router = chi.NewRouter()
	srv.router.Use(middleware.Recoverer)
	srv.router.Use(securityHeaders)
	srv.router.Post("/site-kv", srv.kvPost)
	srv.router.Get("/*", srv.page)
	return srv, nil
}

// page renders the URL path as a template name scoped to the active theme.
// "/" renders the theme's own template; "/about" resolves
// "<theme-slug>/about" so parent themes can supply missing parts.
func (srv *server) page(w http.ResponseWriter, r *http.Request) {
	vars := render.NewVars()
	if title, ok, err := srv.store.Get("site_title"); err == nil && ok {
		vars.Set("site_title", title)
	}
	// one resolver per render pass; its lookup cache dies with the request
	resolver, err := viewstack.NewResolver(srv.locator,
		viewstack.WithView(srv.active),
		viewstack.WithVars(vars),
		viewstack.WithRootDir(srv.config.ThemesDir),
	)
	if err != nil {
		srv.internalServerError(w, r, err)
		return
	}
	names := []string{}
	if trimmed := strings.Trim(r.URL.Path, "/"); trimmed != "" {
		names = append([]string{srv.active.Slug()}, strings.Split(trimmed, "/")...)
	}
	err = srv.renderer.Page(w, resolver, vars, names...)
	if err != nil {
		srv.internalServerError(w, r, err)
	}
}

type keyValuePostData struct {
	KeyValuePairs []struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	} `json:"key_value_pairs"`
	RedirectTo string `json:"redirect_to"`
}

func (srv *server) kvPost(w http.ResponseWriter, r *http.Request) {
	var kvdata keyValuePostData
	err := json.NewDecoder(r.Body).Decode(&kvdata)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	for _, keyValuePair := range kvdata.KeyValuePairs {
		err = srv.store.Set(keyValuePair.Key, keyValuePair.Value)
		if err != nil {
			srv.internalServerError(w, r, err)
			return
		}
	}
	if kvdata.RedirectTo != "" {
		http.Redirect(w, r, kvdata.RedirectTo, http.StatusMovedPermanently)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (srv *server) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	srv.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	w.WriteHeader(http.StatusInternalServerError)
	io.WriteString(w, erro.Sdump(err))
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; object-src 'none'; frame-ancestors 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "sameorigin")
		next.ServeHTTP(w, r)
	})
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg := config{}
	err := env.Parse(&cfg)
	if err != nil {
		logger.Error("parsing configuration", "error", err)
		os.Exit(1)
	}
	srv, err := newServer(cfg, logger)
	if err != nil {
		logger.Error("starting server", "error", err)
		os.Exit(1)
	}
	defer srv.store.Close()
	logger.Info("listening", "addr", cfg.Addr, "theme", cfg.Theme, "themes", srv.themes.Slugs())
	err = http.ListenAndServe(cfg.Addr, srv.router)
	logger.Error("server stopped", "error", err)
	os.Exit(1)
}
