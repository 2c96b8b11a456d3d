//go:build linux

package mpris

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("fake"), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestFindAlbumArt(t *testing.T) {
	dir := t.TempDir()
	coverPath := filepath.Join(dir, "cover.jpg")
	touch(t, coverPath)

	got := FindAlbumArt(filepath.Join(dir, "track.mp3"))
	if got != coverPath {
		t.Errorf("FindAlbumArt() = %q, want %q", got, coverPath)
	}
}

func TestFindAlbumArt_NotFound(t *testing.T) {
	dir := t.TempDir()

	got := FindAlbumArt(filepath.Join(dir, "track.mp3"))
	if got != "" {
		t.Errorf("FindAlbumArt() = %q, want empty string", got)
	}
}

func TestFindAlbumArt_Priority(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  string
	}{
		{"cover before folder", []string{"folder.jpg", "cover.jpg"}, "cover.jpg"},
		{"same stem first", []string{"cover.jpg", "track.png"}, "track.png"},
		{"jpg before png", []string{"cover.png", "cover.jpg"}, "cover.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, f := range tt.files {
				touch(t, filepath.Join(dir, f))
			}

			got := FindAlbumArt(filepath.Join(dir, "track.flac"))
			if want := filepath.Join(dir, tt.want); got != want {
				t.Errorf("FindAlbumArt() = %q, want %q", got, want)
			}
		})
	}
}

func TestFindAlbumArt_IgnoresDirectories(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "cover.jpg"), 0o700); err != nil {
		t.Fatal(err)
	}

	if got := FindAlbumArt(filepath.Join(dir, "track.flac")); got != "" {
		t.Errorf("FindAlbumArt() = %q, want empty string", got)
	}
}
