package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/haryoiro/vidstream/internal/logger"
	"github.com/haryoiro/vidstream/internal/router"
	"github.com/haryoiro/vidstream/internal/structures"
)

type dashboardTab int

const (
	videosTab dashboardTab = iota
	uploadTab
	accountTab
	tabCount
)

func (t dashboardTab) String() string {
	switch t {
	case uploadTab:
		return "Upload"
	case accountTab:
		return "Account"
	default:
		return "Videos"
	}
}

type dashboardState struct {
	tab  dashboardTab
	list listState

	upload  *form
	edit    *form
	account *form

	// id of the video in the edit form, "" while uploading
	editing string
	// id armed for deletion by the first delete key press
	pendingDelete string
	busy          bool
}

func newDashboardState() dashboardState {
	return dashboardState{
		upload: newForm(
			textField("title", "Title", true),
			textField("description", "Description", false),
			textField("thumbnail", "Thumbnail file", false),
			textField("video", "Video file", true),
		),
		edit: newForm(
			textField("title", "Title", true),
			textField("description", "Description", false),
			textField("thumbnail", "Thumbnail ref", false),
		),
		account: newForm(
			textField("name", "New name", true),
		),
	}
}

// videoForm is the form shown on the upload tab
func (d *dashboardState) videoForm() *form {
	if d.editing != "" {
		return d.edit
	}
	return d.upload
}

func (d *dashboardState) cancelEdit() {
	d.editing = ""
	d.edit.reset()
}

func (m *Model) loadOwned() tea.Cmd {
	collection := m.systems.Collection
	return func() tea.Msg {
		_, err := collection.LoadOwnedVideos(context.Background())
		return ownedLoadedMsg{err: err}
	}
}

func (m *Model) selectedOwnedVideo() (structures.Video, bool) {
	videos := m.systems.Collection.OwnedVideos()
	if len(videos) == 0 {
		return structures.Video{}, false
	}
	m.dashboard.list.clamp(len(videos))
	return videos[m.dashboard.list.selected], true
}

func (m *Model) handleDashboardKey(msg tea.KeyMsg, key string) tea.Cmd {
	kb := m.config.KeyBindings
	d := &m.dashboard

	switch {
	case isKey(key, kb.NextTab):
		d.tab = (d.tab + 1) % tabCount
		d.pendingDelete = ""
		return nil
	case isKey(key, kb.Logout):
		return m.logout()
	case contains(kb.Back, key):
		d.pendingDelete = ""
		if d.editing != "" {
			d.cancelEdit()
			d.tab = videosTab
			m.setStatus("Edit cancelled")
			return nil
		}
		m.clearStatus()
		return m.back()
	}

	switch d.tab {
	case uploadTab:
		if contains(kb.Select, key) {
			return m.submitVideoForm()
		}
		m.editForm(d.videoForm(), msg, key)
	case accountTab:
		if contains(kb.Select, key) {
			return m.submitRename()
		}
		m.editForm(d.account, msg, key)
	default:
		return m.handleVideosKey(key)
	}
	return nil
}

func (m *Model) handleVideosKey(key string) tea.Cmd {
	kb := m.config.KeyBindings
	d := &m.dashboard
	videos := m.systems.Collection.OwnedVideos()

	// Any key other than a second delete disarms the pending delete
	armed := d.pendingDelete
	d.pendingDelete = ""

	if m.handleListKey(&d.list, key, len(videos), m.listHeight(2)) {
		return nil
	}

	switch {
	case isKey(key, kb.Refresh):
		if m.refreshAllowed(router.Dashboard) {
			m.clearStatus()
			return m.loadOwned()
		}
	case isKey(key, kb.Edit), contains(kb.Select, key):
		v, ok := m.selectedOwnedVideo()
		if !ok {
			return nil
		}
		d.editing = v.ID
		d.edit.reset()
		d.edit.set("title", v.Title)
		d.edit.set("description", v.Description)
		d.edit.set("thumbnail", v.ThumbnailRef)
		d.tab = uploadTab
		m.clearStatus()
	case isKey(key, kb.Delete):
		v, ok := m.selectedOwnedVideo()
		if !ok || d.busy {
			return nil
		}
		if armed != v.ID {
			d.pendingDelete = v.ID
			m.status = fmt.Sprintf("Press %s again to delete %q", kb.Delete, v.Title)
			m.statusError = true
			return nil
		}
		return m.deleteVideo(v)
	}
	return nil
}

func (m *Model) deleteVideo(v structures.Video) tea.Cmd {
	m.dashboard.busy = true
	m.setStatus("Deleting…")

	collection := m.systems.Collection
	return func() tea.Msg {
		err := collection.DeleteVideo(context.Background(), v.ID)
		return deleteDoneMsg{id: v.ID, err: err}
	}
}

func (m *Model) handleDeleteDone(msg deleteDoneMsg) (tea.Model, tea.Cmd) {
	m.dashboard.busy = false
	if msg.err != nil {
		m.setError(msg.err)
		return m, nil
	}
	if m.dashboard.editing == msg.id {
		m.dashboard.cancelEdit()
	}
	m.setStatus("Video deleted")
	return m, nil
}

func (m *Model) submitVideoForm() tea.Cmd {
	d := &m.dashboard
	if d.busy {
		return nil
	}

	f := d.videoForm()
	if missing := f.missing(); len(missing) > 0 {
		m.status = "Please fill in " + strings.Join(missing, ", ")
		m.statusError = true
		return nil
	}

	if d.editing != "" {
		return m.submitEdit(d.editing, f)
	}
	return m.submitUpload(f)
}

func (m *Model) submitUpload(f *form) tea.Cmd {
	meta := structures.VideoMetadata{
		Title:       f.value("title"),
		Description: f.value("description"),
	}

	videoFile, err := os.Open(f.value("video"))
	if err != nil {
		m.status = "Cannot open video file: " + err.Error()
		m.statusError = true
		return nil
	}

	payload := structures.MediaPayload{
		Video: structures.MediaFile{Name: filepath.Base(videoFile.Name()), Reader: videoFile},
	}
	closers := []io.Closer{videoFile}

	if path := f.value("thumbnail"); path != "" {
		thumb, err := os.Open(path)
		if err != nil {
			videoFile.Close()
			m.status = "Cannot open thumbnail file: " + err.Error()
			m.statusError = true
			return nil
		}
		payload.Thumbnail = structures.MediaFile{Name: filepath.Base(thumb.Name()), Reader: thumb}
		closers = append(closers, thumb)
	}

	m.dashboard.busy = true
	m.setStatus("Uploading…")

	collection := m.systems.Collection
	return func() tea.Msg {
		defer func() {
			for _, c := range closers {
				if err := c.Close(); err != nil {
					logger.Debug("Close upload file: %v", err)
				}
			}
		}()
		video, err := collection.CreateVideo(context.Background(), meta, payload)
		return uploadDoneMsg{video: video, err: err}
	}
}

func (m *Model) handleUploadDone(msg uploadDoneMsg) (tea.Model, tea.Cmd) {
	m.dashboard.busy = false
	if msg.err != nil {
		m.setError(msg.err)
		return m, nil
	}

	m.dashboard.upload.reset()
	m.dashboard.tab = videosTab
	m.setStatus(fmt.Sprintf("Uploaded %q", msg.video.Title))
	return m, nil
}

// editChanges collects the fields that differ from the stored video
func editChanges(current structures.Video, f *form) structures.VideoChanges {
	var changes structures.VideoChanges
	if title := f.value("title"); title != current.Title {
		changes.Title = &title
	}
	if desc := f.value("description"); desc != current.Description {
		changes.Description = &desc
	}
	if thumb := f.value("thumbnail"); thumb != current.ThumbnailRef {
		changes.ThumbnailRef = &thumb
	}
	return changes
}

func (m *Model) submitEdit(id string, f *form) tea.Cmd {
	current, ok := m.systems.Collection.Video(id)
	if !ok {
		m.dashboard.cancelEdit()
		m.dashboard.tab = videosTab
		m.status = "This video no longer exists"
		m.statusError = true
		return nil
	}

	changes := editChanges(current, f)
	if changes.Empty() {
		m.setStatus("Nothing to change")
		return nil
	}

	m.dashboard.busy = true
	m.setStatus("Saving…")

	collection := m.systems.Collection
	return func() tea.Msg {
		video, err := collection.EditVideo(context.Background(), id, changes)
		return editDoneMsg{video: video, err: err}
	}
}

func (m *Model) handleEditDone(msg editDoneMsg) (tea.Model, tea.Cmd) {
	m.dashboard.busy = false
	if msg.err != nil {
		m.setError(msg.err)
		return m, nil
	}

	if m.dashboard.editing == msg.video.ID {
		m.dashboard.cancelEdit()
		m.dashboard.tab = videosTab
	}
	m.setStatus("Video updated")
	return m, nil
}

func (m *Model) submitRename() tea.Cmd {
	d := &m.dashboard
	if d.busy {
		return nil
	}

	name := d.account.value("name")
	if name == "" {
		m.status = "Please fill in New name"
		m.statusError = true
		return nil
	}

	d.busy = true
	m.setStatus("Saving…")

	session := m.systems.Session
	return func() tea.Msg {
		identity, err := session.UpdateName(context.Background(), name)
		return renameDoneMsg{identity: identity, err: err}
	}
}

func (m *Model) handleRenameDone(msg renameDoneMsg) (tea.Model, tea.Cmd) {
	m.dashboard.busy = false
	if msg.err != nil {
		m.setError(msg.err)
		return m, nil
	}

	m.dashboard.account.reset()
	m.setStatus("Name changed to " + msg.identity.Name)
	return m, nil
}

func (m *Model) logout() tea.Cmd {
	s := m.systems
	return func() tea.Msg {
		return logoutDoneMsg{err: s.Logout()}
	}
}

func (m *Model) renderDashboard(width, height int) string {
	var b strings.Builder

	tabs := make([]string, 0, tabCount)
	for t := videosTab; t < tabCount; t++ {
		label := t.String()
		if t == uploadTab && m.dashboard.editing != "" {
			label = "Edit"
		}
		tabs = append(tabs, m.themeManager.RenderTab(label, t == m.dashboard.tab))
	}
	b.WriteString(strings.Join(tabs, " "))
	b.WriteString("\n\n")

	bodyHeight := max(height-2, 1)
	switch m.dashboard.tab {
	case uploadTab:
		b.WriteString(m.renderVideoForm(width))
	case accountTab:
		b.WriteString(m.renderAccount(width))
	default:
		b.WriteString(m.renderOwned(width, bodyHeight))
	}
	return b.String()
}

func (m *Model) renderOwned(width, height int) string {
	videos := m.systems.Collection.OwnedVideos()
	if len(videos) == 0 {
		hint := fmt.Sprintf("You have no videos yet. Press %s to open the upload tab.", m.config.KeyBindings.NextTab)
		return m.themeManager.RenderSubtitle(truncate(hint, width))
	}

	lines := make([]string, 0, height)
	start, end := m.dashboard.list.window(len(videos), height)
	for i := start; i < end; i++ {
		row := m.renderVideoRow(videos[i], i == m.dashboard.list.selected, width)
		if videos[i].ID == m.dashboard.pendingDelete {
			row = m.themeManager.RenderError(truncate("x "+singleLine(videos[i].Title), width))
		}
		lines = append(lines, row)
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderVideoForm(width int) string {
	d := &m.dashboard

	heading := "Upload a new video"
	if d.editing != "" {
		heading = "Edit video"
		if v, ok := m.systems.Collection.Video(d.editing); ok {
			heading = "Edit " + singleLine(v.Title)
		}
	}

	var b strings.Builder
	b.WriteString(m.themeManager.RenderAccent(truncate(heading, width)))
	b.WriteString("\n\n")
	b.WriteString(m.renderForm(d.videoForm(), width))
	b.WriteString("\n\n")

	hint := "enter upload · files are read from local paths"
	if d.editing != "" {
		hint = "enter save · esc cancel edit"
	}
	b.WriteString(m.themeManager.RenderHelp(truncate(hint, width)))
	return b.String()
}

func (m *Model) renderAccount(width int) string {
	identity, ok := m.systems.Session.Identity()
	if !ok {
		return m.themeManager.RenderSubtitle("Signed out")
	}

	expiry := "unknown"
	if t, ok := m.systems.Session.TokenExpiry(); ok {
		expiry = t.Local().Format("2006-01-02 15:04")
	}

	lines := []string{
		m.themeManager.RenderTitle(truncate(identity.Name, width)),
		m.themeManager.RenderBase(truncate("Email: "+identity.Email, width)),
		m.themeManager.RenderBase(fmt.Sprintf("Videos: %d", len(m.systems.Collection.OwnedVideos()))),
		m.themeManager.RenderSubtitle(truncate("Session expires: "+expiry, width)),
		"",
		m.renderForm(m.dashboard.account, width),
	}
	return strings.Join(lines, "\n")
}
