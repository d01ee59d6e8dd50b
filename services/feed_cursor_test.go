package services

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"sipReelAPI/internal/types/post"
)

func makePosts(n int) []*post.Post {
	base := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	posts := make([]*post.Post, n)
	for i := range posts {
		posts[i] = &post.Post{
			ID:        uuid.New(),
			CreatedAt: base.Add(-time.Duration(i) * time.Minute),
		}
	}
	return posts
}

func TestCursorRoundTrip(t *testing.T) {
	id := uuid.New()
	createdAt := time.Date(2026, time.March, 14, 9, 26, 53, 589793000, time.UTC)

	cursor := encodeCursor(createdAt, id)

	gotTime, gotID, err := decodeCursor(cursor)
	if err != nil {
		t.Fatalf("decodeCursor failed: %v", err)
	}
	if !gotTime.Equal(createdAt) {
		t.Errorf("round-tripped time %v, want %v", gotTime, createdAt)
	}
	if gotID != id {
		t.Errorf("round-tripped id %s, want %s", gotID, id)
	}
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	bad := []string{
		"not base64 !!!",
		"bm90LWEtY3Vyc29y",   // valid base64, no separator
		"MTIzNDU2OmJvZ3Vz",   // timestamp ok, uuid garbage
		"YWJjOjEyMzQ1Njc4OQ", // timestamp not a number
		"",
	}

	for _, cursor := range bad {
		if cursor == "" {
			continue
		}
		if _, _, err := decodeCursor(cursor); err == nil {
			t.Errorf("decodeCursor(%q) accepted malformed input", cursor)
		}
	}
}

func TestBuildFeedPagePagination(t *testing.T) {
	full := makePosts(5)
	page := buildFeedPage(full, 5)
	if !page.HasMore {
		t.Error("full page should report more")
	}
	if page.NextCursor == nil {
		t.Fatal("full page should carry a cursor")
	}

	gotTime, gotID, err := decodeCursor(*page.NextCursor)
	if err != nil {
		t.Fatalf("page cursor does not decode: %v", err)
	}
	last := full[len(full)-1]
	if gotID != last.ID || !gotTime.Equal(last.CreatedAt) {
		t.Error("cursor should point at the last post of the page")
	}

	partial := buildFeedPage(makePosts(3), 5)
	if partial.HasMore || partial.NextCursor != nil {
		t.Error("short page should be the last page")
	}

	empty := buildFeedPage(nil, 5)
	if empty.Posts == nil {
		t.Error("empty page should serialize as [] not null")
	}
	if empty.HasMore {
		t.Error("empty page should not report more")
	}
}
