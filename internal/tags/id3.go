package tags

import (
	"strconv"

	"github.com/bogem/id3v2/v2"
)

// readID3 reads an MP3 with the id3v2 parser alone.
func readID3(path string) (*Tag, error) {
	t, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return nil, err
	}
	defer t.Close()

	year := parseYear(textFrame(t, "TDRC"))
	if year == 0 {
		year = parseYear(t.Year())
	}

	return fill(&Tag{
		Path:        path,
		Format:      "ID3v2." + strconv.Itoa(int(t.Version())),
		Title:       t.Title(),
		Artist:      t.Artist(),
		AlbumArtist: textFrame(t, "TPE2"),
		Album:       t.Album(),
		Genre:       t.Genre(),
		Year:        year,
		Track:       parsePosition(textFrame(t, "TRCK")),
		Disc:        parsePosition(textFrame(t, "TPOS")),
		Artwork:     len(t.GetFrames("APIC")) > 0,
	}), nil
}

func textFrame(t *id3v2.Tag, id string) string {
	frames := t.GetFrames(id)
	if len(frames) == 0 {
		return ""
	}
	if tf, ok := frames[0].(id3v2.TextFrame); ok {
		return tf.Text
	}
	return ""
}
