//go:build linux

package notify

import "github.com/llehouerou/unitplayer/internal/mpris"

// albumArt returns an image next to the source for the notification icon.
func albumArt(sourcePath string) string {
	return mpris.FindAlbumArt(sourcePath)
}
