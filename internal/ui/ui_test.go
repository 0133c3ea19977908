package ui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/haryoiro/vidstream/internal/config"
	"github.com/haryoiro/vidstream/internal/database"
	"github.com/haryoiro/vidstream/internal/devgateway"
	"github.com/haryoiro/vidstream/internal/router"
	"github.com/haryoiro/vidstream/internal/structures"
	"github.com/haryoiro/vidstream/internal/systems"
	"golang.org/x/crypto/bcrypt"
)

type harness struct {
	t       *testing.T
	model   *Model
	gateway *devgateway.Server
	url     string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gateway, err := devgateway.New(devgateway.Options{Secret: "ui", PasswordCost: bcrypt.MinCost})
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(gateway)
	t.Cleanup(ts.Close)

	h := &harness{t: t, gateway: gateway, url: ts.URL}
	s := h.newSystems()

	h.model = NewModel(s, s.Config)
	h.model.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return h
}

func (h *harness) newSystems() *systems.Systems {
	h.t.Helper()
	cfg := config.Default()
	cfg.API.BaseURL = h.url

	db, err := database.OpenFile(filepath.Join(h.t.TempDir(), "state.json"))
	if err != nil {
		h.t.Fatal(err)
	}
	s, err := systems.New(cfg, db)
	if err != nil {
		h.t.Fatal(err)
	}
	if err := s.Start(); err != nil {
		h.t.Fatal(err)
	}
	return s
}

// seed publishes videos from a second account
func (h *harness) seed(titles ...string) {
	h.t.Helper()
	s := h.newSystems()
	ctx := context.Background()
	if _, err := s.Session.SignUp(ctx, structures.Profile{Name: "Bob", Email: "bob@x.com", Password: "pw"}); err != nil {
		h.t.Fatal(err)
	}
	for _, title := range titles {
		_, err := s.Collection.CreateVideo(ctx, structures.VideoMetadata{Title: title}, structures.MediaPayload{
			Video: structures.MediaFile{Name: "v.mp4", Reader: strings.NewReader("mp4")},
		})
		if err != nil {
			h.t.Fatal(err)
		}
	}
}

// run executes cmd and every command it leads to, feeding messages back
// into the model
func (h *harness) run(cmd tea.Cmd) {
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case nil, tea.QuitMsg:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			_, c := h.model.Update(msg)
			queue = append(queue, c)
		}
	}
}

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "ctrl+o":
		return tea.KeyMsg{Type: tea.KeyCtrlO}
	case "ctrl+t":
		return tea.KeyMsg{Type: tea.KeyCtrlT}
	case "ctrl+x":
		return tea.KeyMsg{Type: tea.KeyCtrlX}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

func (h *harness) press(keys ...string) {
	h.t.Helper()
	for _, key := range keys {
		_, cmd := h.model.Update(keyMsg(key))
		h.run(cmd)
	}
}

func (h *harness) typeText(text string) {
	for _, r := range text {
		h.press(string(r))
	}
}

func (h *harness) screen() router.Screen {
	return h.model.router.Current()
}

func (h *harness) signUp(name, email, password string) {
	h.t.Helper()
	h.press("a", "ctrl+t")
	h.typeText(name)
	h.press("tab")
	h.typeText(email)
	h.press("tab")
	h.typeText(password)
	h.press("enter")
}

func TestFeedLoadsAndFilters(t *testing.T) {
	h := newHarness(t)
	h.seed("Cats", "Dogs", "cat videos")
	h.run(h.model.loadFeed())

	if got := len(h.model.visibleFeed()); got != 3 {
		t.Fatalf("feed has %d videos, want 3", got)
	}
	if view := h.model.View(); !strings.Contains(view, "Cats") || !strings.Contains(view, "Dogs") {
		t.Fatalf("feed view misses titles:\n%s", view)
	}

	h.press("/")
	h.typeText("CAT")
	if got := len(h.model.visibleFeed()); got != 2 {
		t.Fatalf("search kept %d videos, want 2", got)
	}
	if !strings.Contains(h.model.View(), "Search: CAT") {
		t.Fatal("search prompt not shown")
	}

	// Letters are query text while searching, not shortcuts
	h.press("d")
	if h.screen() != router.Feed {
		t.Fatalf("typing navigated to %v", h.screen())
	}

	h.press("esc")
	if h.model.feed.searching || h.model.feed.query != "" {
		t.Fatal("esc did not clear the search")
	}
	if got := len(h.model.visibleFeed()); got != 3 {
		t.Fatalf("feed after clearing search has %d videos", got)
	}
}

func TestFeedLoadFailureShowsMessage(t *testing.T) {
	h := newHarness(t)
	h.gateway.FailNext(http.MethodGet, "/api/v1/video/", http.StatusInternalServerError)

	h.run(h.model.loadFeed())

	if h.model.status != "Error while loading videos" || !h.model.statusError {
		t.Fatalf("status = %q (error %v)", h.model.status, h.model.statusError)
	}
}

func TestDashboardRequiresSession(t *testing.T) {
	h := newHarness(t)

	h.press("d")
	if h.screen() != router.Auth {
		t.Fatalf("anonymous dashboard visit landed on %v", h.screen())
	}

	h.press("esc")
	if h.screen() != router.Feed {
		t.Fatalf("back from auth = %v", h.screen())
	}
}

func TestAuthRequiresFields(t *testing.T) {
	h := newHarness(t)
	h.press("a")
	before := h.gateway.Requests()

	h.press("enter")

	if !strings.HasPrefix(h.model.status, "Please fill in") {
		t.Fatalf("status = %q", h.model.status)
	}
	if h.gateway.Requests() != before {
		t.Fatal("request issued for an incomplete form")
	}
}

func TestSignUpLandsOnDashboard(t *testing.T) {
	h := newHarness(t)

	h.press("a", "ctrl+t")
	h.typeText("Ann")
	h.press("tab")
	h.typeText("ann@x.com")
	h.press("tab")
	h.typeText("hunter2")

	if strings.Contains(h.model.View(), "hunter2") {
		t.Fatal("password rendered in clear text")
	}

	h.press("enter")

	if h.screen() != router.Dashboard {
		t.Fatalf("after sign-up on %v", h.screen())
	}
	if !h.model.systems.Session.Authenticated() {
		t.Fatal("session not established")
	}
	if !strings.Contains(h.model.View(), "signed in as Ann") {
		t.Fatal("header does not show the user")
	}

	// Back from the dashboard skips the auth screen
	h.press("esc")
	if h.screen() != router.Feed {
		t.Fatalf("back from dashboard = %v", h.screen())
	}
}

func TestSignInFailure(t *testing.T) {
	h := newHarness(t)
	h.seed()

	h.press("a")
	h.typeText("bob@x.com")
	h.press("tab")
	h.typeText("wrong")
	h.press("enter")

	if h.screen() != router.Auth {
		t.Fatalf("failed sign-in moved to %v", h.screen())
	}
	if h.model.status != "Invalid credentials" {
		t.Fatalf("status = %q", h.model.status)
	}
	if got := h.model.auth.signIn.raw("password"); got != "" {
		t.Fatalf("password kept after failure: %q", got)
	}
	if got := h.model.auth.signIn.raw("email"); got != "bob@x.com" {
		t.Fatalf("email lost after failure: %q", got)
	}
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func (h *harness) uploadThroughForm(title, videoPath string) {
	h.t.Helper()
	h.press("ctrl+o")
	h.typeText(title)
	h.press("tab", "tab", "tab")
	h.typeText(videoPath)
	h.press("enter")
}

func TestDashboardVideoLifecycle(t *testing.T) {
	h := newHarness(t)
	h.signUp("Ann", "ann@x.com", "pw")
	videoPath := writeTempFile(t, "cats.mp4", "mp4 bytes")

	h.uploadThroughForm("Cats", videoPath)

	owned := h.model.systems.Collection.OwnedVideos()
	if len(owned) != 1 || owned[0].Title != "Cats" {
		t.Fatalf("owned after upload = %+v", owned)
	}
	if h.model.dashboard.tab != videosTab {
		t.Fatalf("upload left tab %v", h.model.dashboard.tab)
	}
	if h.model.dashboard.upload.raw("title") != "" {
		t.Fatal("upload form not cleared")
	}
	if len(h.model.systems.Collection.PublicFeed()) != 1 {
		t.Fatal("upload missing from the public feed")
	}

	h.press("e")
	if h.model.dashboard.editing != owned[0].ID || h.model.dashboard.tab != uploadTab {
		t.Fatal("edit did not open the form")
	}
	if got := h.model.dashboard.edit.raw("title"); got != "Cats" {
		t.Fatalf("edit form title = %q", got)
	}
	h.typeText("!")
	h.press("enter")

	v, ok := h.model.systems.Collection.Video(owned[0].ID)
	if !ok || v.Title != "Cats!" {
		t.Fatalf("video after edit = %+v", v)
	}
	if h.model.dashboard.editing != "" || h.model.status != "Video updated" {
		t.Fatalf("edit not finished: editing=%q status=%q", h.model.dashboard.editing, h.model.status)
	}

	h.press("x")
	if len(h.model.systems.Collection.OwnedVideos()) != 1 {
		t.Fatal("first delete press removed the video")
	}
	h.press("down", "x")
	if h.model.dashboard.pendingDelete == "" {
		t.Fatal("delete not re-armed after another key")
	}
	h.press("x")

	if len(h.model.systems.Collection.OwnedVideos()) != 0 || len(h.model.systems.Collection.PublicFeed()) != 0 {
		t.Fatal("video not removed from both views")
	}
	if h.model.status != "Video deleted" {
		t.Fatalf("status = %q", h.model.status)
	}
}

func TestEditWithoutChangesSendsNothing(t *testing.T) {
	h := newHarness(t)
	h.signUp("Ann", "ann@x.com", "pw")
	h.uploadThroughForm("Cats", writeTempFile(t, "c.mp4", "x"))

	before := h.gateway.Requests()
	h.press("e", "enter")

	if h.gateway.Requests() != before {
		t.Fatal("unchanged edit reached the server")
	}
	if h.model.status != "Nothing to change" {
		t.Fatalf("status = %q", h.model.status)
	}

	h.press("esc")
	if h.model.dashboard.editing != "" || h.screen() != router.Dashboard {
		t.Fatal("esc should cancel the edit and stay on the dashboard")
	}
}

func TestFailedUploadKeepsForm(t *testing.T) {
	h := newHarness(t)
	h.signUp("Ann", "ann@x.com", "pw")
	h.gateway.FailNext(http.MethodPost, "/api/v1/video/upload", http.StatusInternalServerError)

	h.uploadThroughForm("Cats", writeTempFile(t, "c.mp4", "x"))

	if h.model.status != "Failed to upload video, try again" {
		t.Fatalf("status = %q", h.model.status)
	}
	if h.model.dashboard.upload.raw("title") != "Cats" || h.model.dashboard.tab != uploadTab {
		t.Fatal("failed upload discarded the form")
	}
	if len(h.model.systems.Collection.OwnedVideos()) != 0 {
		t.Fatal("failed upload added a video")
	}
}

func TestUploadWithMissingFile(t *testing.T) {
	h := newHarness(t)
	h.signUp("Ann", "ann@x.com", "pw")
	before := h.gateway.Requests()

	h.uploadThroughForm("Cats", filepath.Join(t.TempDir(), "missing.mp4"))

	if !strings.HasPrefix(h.model.status, "Cannot open video file") {
		t.Fatalf("status = %q", h.model.status)
	}
	if h.gateway.Requests() != before {
		t.Fatal("request issued without a readable file")
	}
}

func TestRenameFromAccountTab(t *testing.T) {
	h := newHarness(t)
	h.signUp("Ann", "ann@x.com", "pw")

	h.press("ctrl+o", "ctrl+o")
	if h.model.dashboard.tab != accountTab {
		t.Fatalf("tab = %v", h.model.dashboard.tab)
	}
	if !strings.Contains(h.model.View(), "ann@x.com") {
		t.Fatal("account tab does not show the email")
	}

	h.typeText("Annie")
	h.press("enter")

	identity, _ := h.model.systems.Session.Identity()
	if identity.Name != "Annie" {
		t.Fatalf("name = %q", identity.Name)
	}
	if !strings.Contains(h.model.View(), "signed in as Annie") {
		t.Fatal("header still shows the old name")
	}
}

func TestRenameServerFailureIsNotACredentialError(t *testing.T) {
	h := newHarness(t)
	h.signUp("Ann", "ann@x.com", "pw")
	h.gateway.FailNext(http.MethodPut, "/api/v1/user", http.StatusInternalServerError)

	h.press("ctrl+o", "ctrl+o")
	h.typeText("Annie")
	h.press("enter")

	if h.model.status != "Could not update name" || !h.model.statusError {
		t.Fatalf("status = %q", h.model.status)
	}
	if identity, _ := h.model.systems.Session.Identity(); identity.Name != "Ann" {
		t.Fatalf("name changed on failure: %q", identity.Name)
	}
}

func TestLogoutReturnsToFeed(t *testing.T) {
	h := newHarness(t)
	h.signUp("Ann", "ann@x.com", "pw")
	h.uploadThroughForm("Cats", writeTempFile(t, "c.mp4", "x"))

	h.press("ctrl+x")

	if h.screen() != router.Feed {
		t.Fatalf("after logout on %v", h.screen())
	}
	if h.model.systems.Session.Authenticated() {
		t.Fatal("still authenticated")
	}
	if len(h.model.systems.Collection.OwnedVideos()) != 0 {
		t.Fatal("owned videos survived logout")
	}
	if len(h.model.systems.Collection.PublicFeed()) != 1 {
		t.Fatal("logout cleared the public feed")
	}

	h.press("d")
	if h.screen() != router.Auth {
		t.Fatal("dashboard reachable after logout")
	}
}

func TestQuit(t *testing.T) {
	h := newHarness(t)
	_, cmd := h.model.Update(keyMsg("ctrl+c"))
	if cmd == nil {
		t.Fatal("no command for quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("ctrl+c did not quit")
	}
}
