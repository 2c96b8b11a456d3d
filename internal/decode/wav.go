package decode

import (
	"io"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
)

func decodeWAV(rsc io.ReadSeekCloser) (beep.StreamSeekCloser, Description, error) {
	s, format, err := wav.Decode(rsc)
	if err != nil {
		return nil, Description{}, err
	}
	return s, describeBeep(FormatWAV, format, s.Len()), nil
}
