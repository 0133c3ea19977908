package systems

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/haryoiro/vidstream/internal/logger"
	"github.com/haryoiro/vidstream/internal/structures"
)

// TokenSource supplies the bearer token for authenticated calls
type TokenSource interface {
	Token() string
}

// CollectionStore caches server-confirmed videos. Entities live in one table
// keyed by id; the public feed and the owned list are ordered id views over
// it, so a video present in both is the same entity.
type CollectionStore struct {
	notifier

	gateway Gateway
	tokens  TokenSource

	mu         sync.RWMutex
	videos     map[string]structures.Video
	publicFeed []string
	owned      []string
	inflight   int
}

// NewCollectionStore creates an empty collection store
func NewCollectionStore(gateway Gateway, tokens TokenSource) *CollectionStore {
	return &CollectionStore{
		gateway: gateway,
		tokens:  tokens,
		videos:  make(map[string]structures.Video),
	}
}

// PublicFeed returns the feed in server order
func (c *CollectionStore) PublicFeed() []structures.Video {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resolve(c.publicFeed)
}

// OwnedVideos returns the signed-in user's videos in server order
func (c *CollectionStore) OwnedVideos() []structures.Video {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resolve(c.owned)
}

// Video looks up a cached video by id
func (c *CollectionStore) Video(id string) (structures.Video, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.videos[id]
	return v, ok
}

// IsOwned reports whether id is in the owned view
func (c *CollectionStore) IsOwned(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Contains(c.owned, id)
}

// IsLoading reports whether a collection call is in flight
func (c *CollectionStore) IsLoading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.inflight > 0
}

// Search filters the public feed by a case-insensitive substring of title or
// description. It never changes the collection.
func (c *CollectionStore) Search(query string) []structures.Video {
	return FilterVideos(c.PublicFeed(), query)
}

// LoadPublicFeed replaces the public feed with the server's listing
func (c *CollectionStore) LoadPublicFeed(ctx context.Context) ([]structures.Video, error) {
	c.begin()
	defer c.end()

	videos, err := c.gateway.ListVideos(ctx)
	if err != nil {
		logger.Warn("Loading public feed failed: %v", err)
		return nil, structures.Wrap(structures.ErrLoad, "loadPublicFeed", err)
	}

	c.mu.Lock()
	c.publicFeed = c.store(videos)
	c.compact()
	feed := c.resolve(c.publicFeed)
	c.mu.Unlock()

	logger.Debug("Loaded %d videos into the public feed", len(feed))
	c.notify()
	return feed, nil
}

// LoadOwnedVideos replaces the owned list with the server's listing for the
// current session
func (c *CollectionStore) LoadOwnedVideos(ctx context.Context) ([]structures.Video, error) {
	token := c.tokens.Token()
	if token == "" {
		return nil, structures.Wrap(structures.ErrLoad, "loadOwnedVideos", structures.ErrNotAuthenticated)
	}

	c.begin()
	defer c.end()

	videos, err := c.gateway.ListOwnedVideos(ctx, token)
	if err != nil {
		logger.Warn("Loading owned videos failed: %v", err)
		return nil, structures.Wrap(structures.ErrLoad, "loadOwnedVideos", err)
	}

	c.mu.Lock()
	if c.tokens.Token() != token {
		// The session ended or changed while the listing was in flight
		c.mu.Unlock()
		return nil, structures.Wrap(structures.ErrLoad, "loadOwnedVideos", structures.ErrNotAuthenticated)
	}
	c.owned = c.store(videos)
	c.compact()
	owned := c.resolve(c.owned)
	c.mu.Unlock()

	logger.Debug("Loaded %d owned videos", len(owned))
	c.notify()
	return owned, nil
}

// CreateVideo uploads a video. It appears in both views only once the server
// has confirmed it with an id.
func (c *CollectionStore) CreateVideo(ctx context.Context, meta structures.VideoMetadata, payload structures.MediaPayload) (structures.Video, error) {
	token := c.tokens.Token()
	if token == "" {
		return structures.Video{}, structures.Wrap(structures.ErrUpload, "createVideo", structures.ErrNotAuthenticated)
	}

	c.begin()
	defer c.end()

	video, err := c.gateway.UploadVideo(ctx, token, meta, payload)
	if err != nil {
		logger.Warn("Upload of %q failed: %v", meta.Title, err)
		return structures.Video{}, structures.Wrap(structures.ErrUpload, "createVideo", err)
	}
	if video.ID == "" {
		return structures.Video{}, structures.Wrap(structures.ErrUpload, "createVideo", errors.New("server returned a video without id"))
	}

	c.mu.Lock()
	c.videos[video.ID] = video
	c.publicFeed = appendUnique(c.publicFeed, video.ID)
	if c.tokens.Token() == token {
		c.owned = appendUnique(c.owned, video.ID)
	} else {
		logger.Warn("Session changed during upload of %s; not adding it to the owned list", video.ID)
	}
	c.mu.Unlock()

	logger.Info("Uploaded video %s", video.ID)
	c.notify()
	return video, nil
}

// EditVideo updates the metadata of an owned video. Ids outside the owned
// view are rejected without a request. The changes are merged locally only
// after the server confirms.
func (c *CollectionStore) EditVideo(ctx context.Context, id string, changes structures.VideoChanges) (structures.Video, error) {
	c.mu.RLock()
	current, ok := c.videos[id]
	owned := ok && slices.Contains(c.owned, id)
	c.mu.RUnlock()

	if !owned {
		return structures.Video{}, structures.Wrap(structures.ErrUpdate, "editVideo", structures.ErrNotOwned)
	}

	token := c.tokens.Token()
	if token == "" {
		return structures.Video{}, structures.Wrap(structures.ErrUpdate, "editVideo", structures.ErrNotAuthenticated)
	}

	c.begin()
	defer c.end()

	if _, err := c.gateway.UpdateVideo(ctx, token, changes.Apply(current)); err != nil {
		logger.Warn("Update of video %s failed: %v", id, err)
		return structures.Video{}, structures.Wrap(structures.ErrUpdate, "editVideo", err)
	}

	c.mu.Lock()
	latest, stillCached := c.videos[id]
	if !stillCached {
		// Deleted while the edit was in flight
		c.mu.Unlock()
		return changes.Apply(current), nil
	}
	merged := changes.Apply(latest)
	c.videos[id] = merged
	c.mu.Unlock()

	logger.Info("Updated video %s", id)
	c.notify()
	return merged, nil
}

// DeleteVideo removes a video from both views after the server confirms
func (c *CollectionStore) DeleteVideo(ctx context.Context, id string) error {
	token := c.tokens.Token()
	if token == "" {
		return structures.Wrap(structures.ErrDelete, "deleteVideo", structures.ErrNotAuthenticated)
	}

	c.begin()
	defer c.end()

	if err := c.gateway.DeleteVideo(ctx, token, id); err != nil {
		logger.Warn("Delete of video %s failed: %v", id, err)
		return structures.Wrap(structures.ErrDelete, "deleteVideo", err)
	}

	c.mu.Lock()
	c.publicFeed = remove(c.publicFeed, id)
	c.owned = remove(c.owned, id)
	delete(c.videos, id)
	c.mu.Unlock()

	logger.Info("Deleted video %s", id)
	c.notify()
	return nil
}

// ClearOwnedVideos empties the owned view, used when the session ends
func (c *CollectionStore) ClearOwnedVideos() {
	c.mu.Lock()
	c.owned = nil
	c.compact()
	c.mu.Unlock()
	c.notify()
}

// store writes videos into the table and returns their ids in order without
// duplicates. Must be called with c.mu held.
func (c *CollectionStore) store(videos []structures.Video) []string {
	ids := make([]string, 0, len(videos))
	for _, v := range videos {
		if v.ID == "" {
			continue
		}
		c.videos[v.ID] = v
		ids = appendUnique(ids, v.ID)
	}
	return ids
}

// compact drops entities referenced by neither view. Must be called with
// c.mu held.
func (c *CollectionStore) compact() {
	for id := range c.videos {
		if !slices.Contains(c.publicFeed, id) && !slices.Contains(c.owned, id) {
			delete(c.videos, id)
		}
	}
}

// resolve must be called with c.mu held
func (c *CollectionStore) resolve(ids []string) []structures.Video {
	out := make([]structures.Video, 0, len(ids))
	for _, id := range ids {
		if v, ok := c.videos[id]; ok {
			out = append(out, v)
		}
	}
	return out
}

func (c *CollectionStore) begin() {
	c.mu.Lock()
	c.inflight++
	c.mu.Unlock()
	c.notify()
}

func (c *CollectionStore) end() {
	c.mu.Lock()
	c.inflight--
	c.mu.Unlock()
	c.notify()
}

func appendUnique(ids []string, id string) []string {
	if slices.Contains(ids, id) {
		return ids
	}
	return append(ids, id)
}

// remove returns ids without id. It allocates so earlier snapshots of the
// slice are not disturbed.
func remove(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
