package systems

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/haryoiro/vidstream/internal/database"
	"github.com/haryoiro/vidstream/internal/structures"
)

var errServer = errors.New("server exploded")

// stubGateway records calls and answers from its fields
type stubGateway struct {
	mu    sync.Mutex
	calls []string

	auth      structures.AuthResult
	authErr   error
	renamed   structures.Identity
	renameErr error

	feed     []structures.Video
	owned    []structures.Video
	listErr  error
	uploaded structures.Video
	mutErr   error

	lastToken  string
	lastUpdate structures.Video

	// block, when set, is waited on before answering
	block chan struct{}
}

func (g *stubGateway) record(call, token string) {
	g.mu.Lock()
	g.calls = append(g.calls, call)
	g.lastToken = token
	block := g.block
	g.mu.Unlock()
	if block != nil {
		<-block
	}
}

func (g *stubGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func (g *stubGateway) SignIn(_ context.Context, _ structures.Credentials) (structures.AuthResult, error) {
	g.record("signIn", "")
	return g.auth, g.authErr
}

func (g *stubGateway) SignUp(_ context.Context, _ structures.Profile) (structures.AuthResult, error) {
	g.record("signUp", "")
	return g.auth, g.authErr
}

func (g *stubGateway) UpdateName(_ context.Context, token, _ string) (structures.Identity, error) {
	g.record("updateName", token)
	return g.renamed, g.renameErr
}

func (g *stubGateway) ListVideos(_ context.Context) ([]structures.Video, error) {
	g.record("listVideos", "")
	return g.feed, g.listErr
}

func (g *stubGateway) ListOwnedVideos(_ context.Context, token string) ([]structures.Video, error) {
	g.record("listOwnedVideos", token)
	return g.owned, g.listErr
}

func (g *stubGateway) UploadVideo(_ context.Context, token string, _ structures.VideoMetadata, _ structures.MediaPayload) (structures.Video, error) {
	g.record("uploadVideo", token)
	return g.uploaded, g.mutErr
}

func (g *stubGateway) UpdateVideo(_ context.Context, token string, video structures.Video) (structures.Video, error) {
	g.record("updateVideo", token)
	g.mu.Lock()
	g.lastUpdate = video
	g.mu.Unlock()
	return video, g.mutErr
}

func (g *stubGateway) DeleteVideo(_ context.Context, token, _ string) error {
	g.record("deleteVideo", token)
	return g.mutErr
}

type staticToken string

func (t staticToken) Token() string { return string(t) }

func openTestDB(t *testing.T) database.DB {
	t.Helper()
	db, err := database.OpenFile(filepath.Join(t.TempDir(), "state.json"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	return db
}

func ann() structures.AuthResult {
	return structures.AuthResult{
		Identity: structures.Identity{ID: "u1", Name: "Ann", Email: "ann@x.com", OwnedVideoIDs: []string{"v1"}},
		Token:    "tok",
	}
}

var (
	cats  = structures.Video{ID: "v1", Title: "Cats", Description: "cute", ThumbnailRef: "c.png", MediaRef: "c.mp4", OwnerID: "u1"}
	dogs  = structures.Video{ID: "v2", Title: "Dogs", Description: "loud", ThumbnailRef: "d.png", MediaRef: "d.mp4", OwnerID: "u2"}
	birds = structures.Video{ID: "v3", Title: "Birds", Description: "tweet", ThumbnailRef: "b.png", MediaRef: "b.mp4", OwnerID: "u1"}
)

// waitForCalls spins until gw has answered or is blocking on n calls
func waitForCalls(t *testing.T, gw *stubGateway, n int) {
	t.Helper()
	deadline := time.After(time.Second)
	for gw.callCount() < n {
		select {
		case <-deadline:
			t.Fatalf("gateway saw %d calls, want %d", gw.callCount(), n)
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

// hookDB runs beforePut once, just ahead of the next Put
type hookDB struct {
	database.DB

	mu        sync.Mutex
	beforePut func()
}

func (d *hookDB) Put(key, value string) error {
	d.mu.Lock()
	hook := d.beforePut
	d.beforePut = nil
	d.mu.Unlock()
	if hook != nil {
		hook()
	}
	return d.DB.Put(key, value)
}
