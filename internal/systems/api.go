package systems

import (
	"context"
	"fmt"
	"time"

	"github.com/haryoiro/vidstream/internal/api"
	"github.com/haryoiro/vidstream/internal/structures"
)

// Gateway is the remote service of record used by the stores
type Gateway interface {
	SignIn(ctx context.Context, creds structures.Credentials) (structures.AuthResult, error)
	SignUp(ctx context.Context, profile structures.Profile) (structures.AuthResult, error)
	UpdateName(ctx context.Context, token, name string) (structures.Identity, error)
	ListVideos(ctx context.Context) ([]structures.Video, error)
	ListOwnedVideos(ctx context.Context, token string) ([]structures.Video, error)
	UploadVideo(ctx context.Context, token string, meta structures.VideoMetadata, payload structures.MediaPayload) (structures.Video, error)
	UpdateVideo(ctx context.Context, token string, video structures.Video) (structures.Video, error)
	DeleteVideo(ctx context.Context, token, id string) error
}

// APISystem adapts the HTTP client to Gateway, converting wire schemas into
// domain entities
type APISystem struct {
	client *api.Client
}

// NewAPISystem creates the API system from configuration
func NewAPISystem(cfg *structures.Config) (*APISystem, error) {
	client, err := api.NewClient(api.Options{
		BaseURL:    cfg.API.BaseURL,
		AuthScheme: cfg.API.AuthScheme,
		Timeout:    time.Duration(cfg.API.RequestTimeoutSeconds) * time.Second,
		RateLimit:  cfg.API.RateLimit,
		RateBurst:  cfg.API.RateBurst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}
	return &APISystem{client: client}, nil
}

// NewAPISystemWithClient wraps an existing client
func NewAPISystemWithClient(client *api.Client) *APISystem {
	return &APISystem{client: client}
}

// BaseURL returns the API origin
func (as *APISystem) BaseURL() string {
	return as.client.BaseURL()
}

func (as *APISystem) SignIn(ctx context.Context, creds structures.Credentials) (structures.AuthResult, error) {
	resp, err := as.client.SignIn(ctx, api.SignInRequest{Email: creds.Email, Password: creds.Password})
	if err != nil {
		return structures.AuthResult{}, err
	}
	return toAuthResult(resp), nil
}

func (as *APISystem) SignUp(ctx context.Context, profile structures.Profile) (structures.AuthResult, error) {
	resp, err := as.client.SignUp(ctx, api.SignUpRequest{
		Name:     profile.Name,
		Email:    profile.Email,
		Password: profile.Password,
	})
	if err != nil {
		return structures.AuthResult{}, err
	}
	return toAuthResult(resp), nil
}

func (as *APISystem) UpdateName(ctx context.Context, token, name string) (structures.Identity, error) {
	user, err := as.client.UpdateUser(ctx, token, api.UpdateUserRequest{Name: name})
	if err != nil {
		return structures.Identity{}, err
	}
	return toIdentity(user), nil
}

func (as *APISystem) ListVideos(ctx context.Context) ([]structures.Video, error) {
	refs, err := as.client.ListVideos(ctx)
	if err != nil {
		return nil, err
	}
	return toVideos(refs), nil
}

func (as *APISystem) ListOwnedVideos(ctx context.Context, token string) ([]structures.Video, error) {
	refs, err := as.client.ListUserVideos(ctx, token)
	if err != nil {
		return nil, err
	}
	return toVideos(refs), nil
}

func (as *APISystem) UploadVideo(ctx context.Context, token string, meta structures.VideoMetadata, payload structures.MediaPayload) (structures.Video, error) {
	ref, err := as.client.UploadVideo(ctx, token, api.Upload{
		Title:       meta.Title,
		Description: meta.Description,
		ImageName:   payload.Thumbnail.Name,
		Image:       payload.Thumbnail.Reader,
		VideoName:   payload.Video.Name,
		Video:       payload.Video.Reader,
	})
	if err != nil {
		return structures.Video{}, err
	}
	return toVideo(*ref), nil
}

// UpdateVideo sends the editable metadata of video. Media is never re-sent.
func (as *APISystem) UpdateVideo(ctx context.Context, token string, video structures.Video) (structures.Video, error) {
	ref, err := as.client.UpdateVideo(ctx, token, video.ID, api.UpdateVideoRequest{
		Title:       video.Title,
		Description: video.Description,
		Thumbnail:   video.ThumbnailRef,
	})
	if err != nil {
		return structures.Video{}, err
	}
	return toVideo(*ref), nil
}

func (as *APISystem) DeleteVideo(ctx context.Context, token, id string) error {
	return as.client.DeleteVideo(ctx, token, id)
}

func toAuthResult(resp *api.AuthResponse) structures.AuthResult {
	return structures.AuthResult{
		Identity: toIdentity(resp.User),
		Token:    resp.Token,
	}
}

func toIdentity(u *api.UserRef) structures.Identity {
	return structures.Identity{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		OwnedVideoIDs: append([]string{}, u.UserVideos...),
	}
}

func toVideo(v api.VideoRef) structures.Video {
	return structures.Video{
		ID:           v.ID,
		Title:        v.Title,
		Description:  v.Description,
		ThumbnailRef: v.Thumbnail,
		MediaRef:     v.VideoURL,
		OwnerID:      v.UserID,
	}
}

func toVideos(refs []api.VideoRef) []structures.Video {
	videos := make([]structures.Video, 0, len(refs))
	for _, ref := range refs {
		videos = append(videos, toVideo(ref))
	}
	return videos
}
