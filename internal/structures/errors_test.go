package structures

import (
	"errors"
	"io"
	"testing"
)

func TestWrapUnwrapsKindAndCause(t *testing.T) {
	err := Wrap(ErrUpload, "createVideo", io.ErrUnexpectedEOF)

	if !errors.Is(err, ErrUpload) {
		t.Fatalf("expected upload kind, got %v", err)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected cause to be preserved, got %v", err)
	}
	if errors.Is(err, ErrDelete) {
		t.Fatal("did not expect delete kind")
	}
}

func TestWrapKeepsExistingKind(t *testing.T) {
	inner := Wrap(ErrUpdate, "editVideo", ErrNotOwned)
	outer := Wrap(ErrUpdate, "editVideo", inner)

	if outer != inner {
		t.Fatalf("expected same error back, got %v", outer)
	}
	if Wrap(ErrLoad, "x", nil) != nil {
		t.Fatal("expected nil for nil error")
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"auth hides detail", Wrap(ErrAuth, "signIn", errors.New("user not found")), "Invalid credentials"},
		{"not signed in", Wrap(ErrAuth, "updateName", ErrNotAuthenticated), "Please sign in first"},
		{"rename server failure", Wrap(ErrAuth, "updateName", errors.New("status 500")), "Could not update name"},
		{"not owned", Wrap(ErrUpdate, "editVideo", ErrNotOwned), "You can only edit your own videos"},
		{"load", Wrap(ErrLoad, "loadPublicFeed", io.EOF), "Error while loading videos"},
		{"upload", Wrap(ErrUpload, "createVideo", io.EOF), "Failed to upload video, try again"},
		{"update", Wrap(ErrUpdate, "editVideo", io.EOF), "Error updating video"},
		{"delete", Wrap(ErrDelete, "deleteVideo", io.EOF), "Error deleting video"},
		{"unclassified", io.EOF, "Something went wrong"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVideoChangesApply(t *testing.T) {
	v := Video{ID: "v1", Title: "Old", Description: "desc", ThumbnailRef: "t.png", MediaRef: "m.mp4", OwnerID: "u1"}
	title := "New"

	got := VideoChanges{Title: &title}.Apply(v)

	want := v
	want.Title = "New"
	if got != want {
		t.Fatalf("Apply() = %+v, want %+v", got, want)
	}
	if (VideoChanges{}).Apply(v) != v {
		t.Fatal("empty changes must not modify the video")
	}
	if !(VideoChanges{}).Empty() || (VideoChanges{Title: &title}).Empty() {
		t.Fatal("Empty() mismatch")
	}
}
