package storage

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	prefixWithFace = "photo_with_face_"
	prefixNoFace   = "photo_no_face_"
	extension      = ".jpg"

	// NameTimeLayout renders YYYY_MM_DD__HH_MM_SS.
	NameTimeLayout = "2006_01_02__15_04_05"
)

// DeriveName builds the file name for a saved photo from the face outcome and
// the capture time, rendered in the local time zone.
func DeriveName(faceDetected bool, capturedAt time.Time) string {
	prefix := prefixNoFace
	if faceDetected {
		prefix = prefixWithFace
	}
	return prefix + capturedAt.Local().Format(NameTimeLayout) + extension
}

// ParseName recovers the face outcome and capture time from a name produced
// by DeriveName, with or without a numeric collision suffix.
func ParseName(name string) (bool, time.Time, error) {
	var faceDetected bool
	var rest string
	switch {
	case strings.HasPrefix(name, prefixWithFace):
		faceDetected, rest = true, strings.TrimPrefix(name, prefixWithFace)
	case strings.HasPrefix(name, prefixNoFace):
		rest = strings.TrimPrefix(name, prefixNoFace)
	default:
		return false, time.Time{}, fmt.Errorf("unknown prefix in %q", name)
	}

	if !strings.HasSuffix(rest, extension) {
		return false, time.Time{}, fmt.Errorf("expected %s extension in %q", extension, name)
	}
	rest = strings.TrimSuffix(rest, extension)

	if len(rest) > len(NameTimeLayout) {
		suffix := rest[len(NameTimeLayout):]
		if !strings.HasPrefix(suffix, "_") {
			return false, time.Time{}, fmt.Errorf("malformed suffix in %q", name)
		}
		if _, err := strconv.Atoi(suffix[1:]); err != nil {
			return false, time.Time{}, fmt.Errorf("malformed suffix in %q", name)
		}
		rest = rest[:len(NameTimeLayout)]
	}

	ts, err := time.ParseInLocation(NameTimeLayout, rest, time.Local)
	if err != nil {
		return false, time.Time{}, fmt.Errorf("invalid timestamp in %q: %w", name, err)
	}
	return faceDetected, ts, nil
}
