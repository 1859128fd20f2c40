package main

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gofrs/uuid/v5"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

//go:embed templates/*.html
var templateFS embed.FS

// deck is the set of card values offered on the session page.
var deck = []int{1, 2, 3, 5, 8, 12}

type server struct {
	cfg      Config
	log      *slog.Logger
	registry *Registry
	reaper   *Reaper
	pages    map[string]*template.Template
	upgrader websocket.Upgrader
}

func newServer(cfg Config, log *slog.Logger, registry *Registry, reaper *Reaper) *server {
	pages := map[string]*template.Template{
		"index":   template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/index.html")),
		"session": template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/session.html")),
		"error":   template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/error.html")),
	}
	return &server{
		cfg:      cfg,
		log:      log,
		registry: registry,
		reaper:   reaper,
		pages:    pages,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (s *server) routes() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/", s.handleIndex).Methods("GET")
	router.HandleFunc("/session/create", s.handleCreateSession).Methods("POST")
	router.HandleFunc("/session/{id}", s.handleSessionPage).Methods("GET")
	router.HandleFunc("/ws/{id}", s.serveWs)
	router.PathPrefix("/static/").Handler(
		http.StripPrefix("/static/", http.FileServer(http.Dir("./static"))))
	return router
}

type indexPage struct {
	Title string
}

type sessionPage struct {
	Title     string
	SessionID uuid.UUID
	Cards     []int
}

type errorPage struct {
	Title   string
	Status  int
	Message string
}

func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, "index", indexPage{Title: "pointdeck"})
}

// handleCreateSession captures the display name in a cookie, allocates a
// session, and redirects to its page. The name itself is only claimed
// later, in-band on the websocket.
func (s *server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if name := r.Form.Get("name"); name != "" {
		http.SetCookie(w, &http.Cookie{
			Name:  "display_name",
			Value: url.QueryEscape(name),
			Path:  "/",
		})
	}

	session, err := s.registry.Create()
	if err != nil {
		s.log.Error("create session", "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	s.log.Info("session created", "session", session.ID())

	http.Redirect(w, r, "/session/"+session.ID().String(), http.StatusSeeOther)
}

func (s *server) handleSessionPage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(mux.Vars(r)["id"])
	if err != nil || !s.registry.Has(id) {
		s.renderError(w, http.StatusNotFound, "Session not found",
			"Sorry, that session doesn't exist or has expired.")
		return
	}

	s.render(w, "session", sessionPage{Title: "pointdeck", SessionID: id, Cards: deck})
}

// serveWs upgrades the connection and hands it to a Client. Unknown
// session ids are rejected before the upgrade.
func (s *server) serveWs(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	session, ok := s.registry.Get(id)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("upgrade failed", "err", err)
		return
	}

	newClient(conn, session, s.reaper, s.cfg.NameRetry, s.log).run()
}

func (s *server) render(w http.ResponseWriter, page string, data any) {
	if err := s.pages[page].ExecuteTemplate(w, "layout", data); err != nil {
		s.log.Error("render", "page", page, "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (s *server) renderError(w http.ResponseWriter, status int, title, message string) {
	w.WriteHeader(status)
	if err := s.pages["error"].ExecuteTemplate(w, "layout", errorPage{
		Title:   title,
		Status:  status,
		Message: message,
	}); err != nil {
		s.log.Error("render", "page", "error", "err", err)
	}
}
