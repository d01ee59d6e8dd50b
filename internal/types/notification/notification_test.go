package notification

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestMessageRendering(t *testing.T) {
	postID := uuid.New()
	title := "Weird Fish"
	excerpt := "great shout"

	tests := []struct {
		name string
		n    Notification
		want string
	}{
		{
			name: "like",
			n:    Notification{Kind: KindLike, SenderUsername: "ana", PostID: &postID, PostTitle: &title},
			want: "ana liked your post",
		},
		{
			name: "comment",
			n:    Notification{Kind: KindComment, SenderUsername: "bo", CommentExcerpt: &excerpt},
			want: "bo commented: great shout",
		},
		{
			name: "follow",
			n:    Notification{Kind: KindFollow, SenderUsername: "cam"},
			want: "cam started following you",
		},
		{
			name: "comment without excerpt",
			n:    Notification{Kind: KindComment, SenderUsername: "dee"},
			want: "dee commented: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.n.Message(); got != tt.want {
				t.Errorf("Message() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExcerpt(t *testing.T) {
	exactly30 := strings.Repeat("a", 30)

	tests := []struct {
		name string
		text string
		want string
	}{
		{"short text untouched", "nice one", "nice one"},
		{"exactly the limit untouched", exactly30, exactly30},
		{"one over the limit truncated", exactly30 + "b", exactly30 + "..."},
		{"multibyte counts runes not bytes", strings.Repeat("ü", 30), strings.Repeat("ü", 30)},
		{"long multibyte truncated at rune boundary", strings.Repeat("ü", 31), strings.Repeat("ü", 30) + "..."},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Excerpt(tt.text); got != tt.want {
				t.Errorf("Excerpt(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}
