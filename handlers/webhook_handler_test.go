package handlers

import (
	"testing"

	"sipReelAPI/internal/types/clerk"
)

func TestWebhookUsername(t *testing.T) {
	cases := []struct {
		name string
		data clerk.UserData
		want string
	}{
		{
			name: "explicit username passes through",
			data: clerk.UserData{ID: "user_1", Username: "beer_goggles"},
			want: "beer_goggles",
		},
		{
			name: "name fallback with a space is skipped",
			data: clerk.UserData{ID: "user_2", FirstName: "Ana Maria", LastName: "Popescu"},
			want: "",
		},
		{
			name: "too-short fallback is skipped",
			data: clerk.UserData{ID: "user_3", FirstName: "Al"},
			want: "",
		},
		{
			name: "clean name fallback passes",
			data: clerk.UserData{ID: "user_4", FirstName: "Maria", LastName: "Ionescu"},
			want: "MariaIonescu",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := webhookUsername(&tc.data); got != tc.want {
				t.Errorf("webhookUsername = %q, want %q", got, tc.want)
			}
		})
	}
}
