// Package devgateway is an in-memory implementation of the video API used for
// local development and end-to-end tests of the client.
package devgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/haryoiro/vidstream/internal/api"
	"github.com/haryoiro/vidstream/internal/constants"
	"github.com/haryoiro/vidstream/internal/logger"
	"golang.org/x/crypto/bcrypt"
)

// Options configures a Server
type Options struct {
	Secret         string
	TokenTTL       time.Duration
	MaxUploadBytes int64
	PasswordCost   int // bcrypt cost, bcrypt.DefaultCost when zero
	// PublicURL prefixes media references. When empty the request host is used.
	PublicURL string
}

type account struct {
	id           string
	name         string
	email        string
	passwordHash []byte
	videos       []string
}

type media struct {
	name    string
	data    []byte
	modTime time.Time
}

type claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// Server serves the auth, user, video and media endpoints
type Server struct {
	router    chi.Router
	secret    []byte
	ttl       time.Duration
	maxUpload int64
	cost      int
	publicURL string

	mu       sync.Mutex
	accounts map[string]*account
	byEmail  map[string]string
	videos   map[string]*api.VideoRef
	order    []string
	media    map[string]*media
	failures map[string]int

	requests atomic.Int64
}

// New creates a Server with an empty data set
func New(opts Options) (*Server, error) {
	if opts.Secret == "" {
		return nil, errors.New("devgateway: secret is required")
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = constants.DefaultTokenTTL
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = constants.DefaultMaxUploadBytes
	}
	if opts.PasswordCost == 0 {
		opts.PasswordCost = bcrypt.DefaultCost
	}

	s := &Server{
		router:    chi.NewRouter(),
		secret:    []byte(opts.Secret),
		ttl:       opts.TokenTTL,
		maxUpload: opts.MaxUploadBytes,
		cost:      opts.PasswordCost,
		publicURL: strings.TrimRight(opts.PublicURL, "/"),
		accounts:  make(map[string]*account),
		byEmail:   make(map[string]string),
		videos:    make(map[string]*api.VideoRef),
		media:     make(map[string]*media),
		failures:  make(map[string]int),
	}
	s.routes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.logRequests)
	s.router.Use(s.injectFailures)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/signin", s.handleSignIn)
		r.Post("/auth/signup", s.handleSignUp)
		r.Get("/video/", s.handleListVideos)

		r.Group(func(r chi.Router) {
			r.Use(s.requireToken)
			r.Get("/user/video", s.handleListUserVideos)
			r.Put("/user", s.handleUpdateUser)
			r.Post("/video/upload", s.handleUpload)
			r.Put("/video/{id}", s.handleUpdateVideo)
			r.Delete("/video/{id}", s.handleDeleteVideo)
		})
	})

	s.router.Get("/media/{name}", s.handleMedia)
}

// FailNext makes the next request matching method and path answer with
// status instead of being handled.
func (s *Server) FailNext(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = status
}

// Requests returns the number of API requests received so far
func (s *Server) Requests() int64 {
	return s.requests.Load()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.Info("%s %s %d %s (request %s)", r.Method, r.URL.Path, ww.Status(), time.Since(start), middleware.GetReqID(r.Context()))
	})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			s.requests.Add(1)
		}

		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		status, ok := s.failures[key]
		delete(s.failures, key)
		s.mu.Unlock()

		if ok {
			writeError(w, status, "injected failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type contextKey string

const userIDKey contextKey = "userID"

func contextWithUserID(r *http.Request, userID string) context.Context {
	return context.WithValue(r.Context(), userIDKey, userID)
}

func userIDFromContext(r *http.Request) string {
	userID, _ := r.Context().Value(userIDKey).(string)
	return userID
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeError(w, http.StatusUnauthorized, "authorization header required")
			return
		}

		// Accept both "<scheme> <token>" and a bare token
		tokenStr := header
		if i := strings.LastIndexByte(header, ' '); i >= 0 {
			tokenStr = header[i+1:]
		}

		userID, err := s.validateToken(tokenStr)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		s.mu.Lock()
		_, exists := s.accounts[userID]
		s.mu.Unlock()
		if !exists {
			writeError(w, http.StatusUnauthorized, "unknown user")
			return
		}

		next.ServeHTTP(w, r.WithContext(contextWithUserID(r, userID)))
	})
}

func (s *Server) issueToken(userID string) (string, error) {
	now := time.Now()
	c := &claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
}

func (s *Server) validateToken(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid || c.UserID == "" {
		return "", errors.New("invalid token")
	}
	return c.UserID, nil
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req api.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if strings.TrimSpace(req.Name) == "" || email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "name, email and password are required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not hash password")
		return
	}

	s.mu.Lock()
	if _, taken := s.byEmail[email]; taken {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "email already registered")
		return
	}
	acc := &account{
		id:           uuid.NewString(),
		name:         strings.TrimSpace(req.Name),
		email:        email,
		passwordHash: hash,
	}
	s.accounts[acc.id] = acc
	s.byEmail[email] = acc.id
	user := acc.ref()
	s.mu.Unlock()

	s.writeAuth(w, http.StatusCreated, user)
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req api.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	s.mu.Lock()
	var acc *account
	if id, ok := s.byEmail[email]; ok {
		acc = s.accounts[id]
	}
	var hash []byte
	var user api.UserRef
	if acc != nil {
		hash = acc.passwordHash
		user = acc.ref()
	}
	s.mu.Unlock()

	if acc == nil || bcrypt.CompareHashAndPassword(hash, []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	s.writeAuth(w, http.StatusOK, user)
}

func (s *Server) writeAuth(w http.ResponseWriter, status int, user api.UserRef) {
	token, err := s.issueToken(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	writeJSON(w, status, api.AuthResponse{Token: token, User: &user})
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req api.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	s.mu.Lock()
	acc := s.accounts[userIDFromContext(r)]
	acc.name = name
	user := acc.ref()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, api.UserResponse{User: &user})
}

func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	videos := make([]api.VideoRef, 0, len(s.order))
	for _, id := range s.order {
		videos = append(videos, *s.videos[id])
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, videos)
}

func (s *Server) handleListUserVideos(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r)

	s.mu.Lock()
	videos := make([]api.VideoRef, 0)
	for _, id := range s.accounts[userID].videos {
		if v, ok := s.videos[id]; ok {
			videos = append(videos, *v)
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, videos)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	videoFile, err := s.readPart(r, "video")
	if err != nil || videoFile == nil {
		writeError(w, http.StatusBadRequest, "video file is required")
		return
	}
	imageFile, err := s.readPart(r, "image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid image")
		return
	}

	base := s.mediaBase(r)
	video := &api.VideoRef{
		ID:          uuid.NewString(),
		Title:       title,
		Description: r.FormValue("description"),
		VideoURL:    base + videoFile.name,
		UserID:      userIDFromContext(r),
	}
	if imageFile != nil {
		video.Thumbnail = base + imageFile.name
	}

	s.mu.Lock()
	s.media[videoFile.name] = videoFile
	if imageFile != nil {
		s.media[imageFile.name] = imageFile
	}
	s.videos[video.ID] = video
	s.order = append(s.order, video.ID)
	acc := s.accounts[video.UserID]
	acc.videos = append(acc.videos, video.ID)
	created := *video
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, api.VideoResponse{Video: &created})
}

// readPart returns nil without error when the part is absent
func (s *Server) readPart(r *http.Request, field string) (*media, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return &media{
		name:    uuid.NewString() + path.Ext(header.Filename),
		data:    data,
		modTime: time.Now(),
	}, nil
}

func (s *Server) mediaBase(r *http.Request) string {
	if s.publicURL != "" {
		return s.publicURL + "/media/"
	}
	return "http://" + r.Host + "/media/"
}

// ownedVideo looks up id and checks that the caller owns it. It must be
// called with s.mu held.
func (s *Server) ownedVideo(r *http.Request, id string) (*api.VideoRef, int) {
	v, ok := s.videos[id]
	if !ok {
		return nil, http.StatusNotFound
	}
	if v.UserID != userIDFromContext(r) {
		return nil, http.StatusForbidden
	}
	return v, http.StatusOK
}

func (s *Server) handleUpdateVideo(w http.ResponseWriter, r *http.Request) {
	var req api.UpdateVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	s.mu.Lock()
	v, status := s.ownedVideo(r, chi.URLParam(r, "id"))
	if v == nil {
		s.mu.Unlock()
		writeError(w, status, http.StatusText(status))
		return
	}
	v.Title = req.Title
	v.Description = req.Description
	if req.Thumbnail != "" {
		v.Thumbnail = req.Thumbnail
	}
	updated := *v
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, api.VideoResponse{Video: &updated})
}

func (s *Server) handleDeleteVideo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	v, status := s.ownedVideo(r, id)
	if v == nil {
		s.mu.Unlock()
		writeError(w, status, http.StatusText(status))
		return
	}
	delete(s.videos, id)
	s.order = without(s.order, id)
	acc := s.accounts[v.UserID]
	acc.videos = without(acc.videos, id)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"message": "video deleted"})
}

func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	m, ok := s.media[chi.URLParam(r, "name")]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	http.ServeContent(w, r, m.name, m.modTime, bytes.NewReader(m.data))
}

func (a *account) ref() api.UserRef {
	return api.UserRef{
		ID:         a.id,
		Name:       a.name,
		Email:      a.email,
		UserVideos: append([]string{}, a.videos...),
	}
}

func without(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
