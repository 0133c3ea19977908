package api

import (
	"errors"
	"fmt"
	"io"
)

// ErrMalformedResponse is returned when a response body does not match the
// schema of its endpoint.
var ErrMalformedResponse = errors.New("malformed response")

// StatusError is returned for any non-2xx response
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// Unauthorized reports whether the server rejected the credentials or token
func (e *StatusError) Unauthorized() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// UserRef is the user object returned by the auth and user endpoints
type UserRef struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	UserVideos []string `json:"userVideos"`
}

func (u *UserRef) validate() error {
	if u == nil {
		return fmt.Errorf("%w: missing user", ErrMalformedResponse)
	}
	if u.ID == "" {
		return fmt.Errorf("%w: user without id", ErrMalformedResponse)
	}
	return nil
}

// VideoRef is the video object returned by the video endpoints
type VideoRef struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail"`
	VideoURL    string `json:"videoUrl"`
	UserID      string `json:"userId"`
}

func (v *VideoRef) validate() error {
	if v == nil {
		return fmt.Errorf("%w: missing video", ErrMalformedResponse)
	}
	if v.ID == "" {
		return fmt.Errorf("%w: video without id", ErrMalformedResponse)
	}
	return nil
}

// AuthResponse is returned by sign-in and sign-up
type AuthResponse struct {
	Token string   `json:"token"`
	User  *UserRef `json:"user"`
}

func (r *AuthResponse) validate() error {
	if r.Token == "" {
		return fmt.Errorf("%w: missing token", ErrMalformedResponse)
	}
	return r.User.validate()
}

// VideoResponse wraps a single video
type VideoResponse struct {
	Video *VideoRef `json:"video"`
}

func (r *VideoResponse) validate() error {
	return r.Video.validate()
}

// UserResponse wraps a single user
type UserResponse struct {
	User *UserRef `json:"user"`
}

func (r *UserResponse) validate() error {
	return r.User.validate()
}

type videoList []VideoRef

func (l videoList) validate() error {
	for i := range l {
		if err := l[i].validate(); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// SignInRequest is the body of POST auth/signin
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUpRequest is the body of POST auth/signup
type SignUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateVideoRequest is the body of PUT video/{id}
type UpdateVideoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail"`
}

// UpdateUserRequest is the body of PUT user
type UpdateUserRequest struct {
	Name string `json:"name"`
}

// Upload describes the multipart body of POST video/upload
type Upload struct {
	Title       string
	Description string
	ImageName   string
	Image       io.Reader
	VideoName   string
	Video       io.Reader
}
