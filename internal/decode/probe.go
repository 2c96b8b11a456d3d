package decode

import (
	"fmt"
	"os"
)

// Probe returns the description of path. FLAC is read from STREAMINFO
// alone; other formats are opened and closed again.
func Probe(path string) (Description, error) {
	f, err := os.Open(path)
	if err != nil {
		return Description{}, err
	}
	k, offset, err := sniff(f, path)
	f.Close()
	if err != nil {
		return Description{}, err
	}
	if k == kindUnknown {
		return Description{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, extOf(path))
	}

	if k == kindFLAC && offset == 0 {
		if desc, ok := probeFLAC(path); ok {
			return desc, nil
		}
	}

	src, err := Open(path)
	if err != nil {
		return Description{}, err
	}
	defer src.Close()
	return src.Desc, nil
}
