package speech

import (
	"errors"
	"strings"
)

// ErrUnsupportedEncoding is returned for audio the recognizer cannot read.
var ErrUnsupportedEncoding = errors.New("unsupported audio encoding")

type Encoding string

const (
	EncodingOggOpus  Encoding = "OGG_OPUS"
	EncodingWebmOpus Encoding = "WEBM_OPUS"
	EncodingLinear16 Encoding = "LINEAR16"
)

// Format describes how uploaded audio is encoded.
type Format struct {
	Encoding        Encoding
	SampleRateHertz int
	Extension       string
}

// FormatFor maps an upload content type to an audio format. Unknown types
// are assumed to be Opus in Ogg. WebM is identified but rejected with
// ErrUnsupportedEncoding.
func FormatFor(contentType string) (Format, error) {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "ogg"):
		return Format{Encoding: EncodingOggOpus, Extension: ".ogg"}, nil
	case strings.Contains(ct, "webm"):
		return Format{Encoding: EncodingWebmOpus, Extension: ".webm"}, ErrUnsupportedEncoding
	case strings.Contains(ct, "wav"):
		return Format{Encoding: EncodingLinear16, SampleRateHertz: 16000, Extension: ".wav"}, nil
	default:
		return Format{Encoding: EncodingOggOpus, Extension: ".ogg"}, nil
	}
}

// baseLanguage turns "ko-KR" into "ko".
func baseLanguage(code string) string {
	if i := strings.IndexAny(code, "-_"); i > 0 {
		return strings.ToLower(code[:i])
	}
	return strings.ToLower(code)
}
