package storage

import (
	"strings"
	"testing"
	"time"
)

func TestDeriveName(t *testing.T) {
	ts := time.Date(2024, 3, 5, 14, 7, 9, 0, time.Local)

	tests := []struct {
		face bool
		want string
	}{
		{true, "photo_with_face_2024_03_05__14_07_09.jpg"},
		{false, "photo_no_face_2024_03_05__14_07_09.jpg"},
	}

	for _, tt := range tests {
		if got := DeriveName(tt.face, ts); got != tt.want {
			t.Errorf("DeriveName(%v) = %s, want %s", tt.face, got, tt.want)
		}
	}
}

func TestDeriveName_LocalTimeZone(t *testing.T) {
	utc := time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)

	got := DeriveName(false, utc)
	want := "photo_no_face_" + utc.In(time.Local).Format(NameTimeLayout) + ".jpg"
	if got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestDeriveName_FixedWidth(t *testing.T) {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.Local)
	name := DeriveName(true, ts)
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, "photo_with_face_"), ".jpg")
	if stamp != "2025_01_02__03_04_05" {
		t.Errorf("Expected zero-padded stamp, got %s", stamp)
	}
}

func TestParseName_RoundTrip(t *testing.T) {
	ts := time.Date(2024, 3, 5, 14, 7, 9, 0, time.Local)

	for _, face := range []bool{true, false} {
		gotFace, gotTs, err := ParseName(DeriveName(face, ts))
		if err != nil {
			t.Fatalf("ParseName failed: %v", err)
		}
		if gotFace != face || !gotTs.Equal(ts) {
			t.Errorf("Round trip mismatch: face=%v ts=%v", gotFace, gotTs)
		}
	}
}

func TestParseName_Suffix(t *testing.T) {
	face, ts, err := ParseName("photo_with_face_2024_03_05__14_07_09_2.jpg")
	if err != nil {
		t.Fatalf("ParseName failed: %v", err)
	}
	if !face || ts.Second() != 9 {
		t.Errorf("Unexpected parse: face=%v ts=%v", face, ts)
	}
}

func TestParseName_Invalid(t *testing.T) {
	for _, name := range []string{
		"image.jpg",
		"photo_no_face_2024_03_05__14_07_09.png",
		"photo_no_face_2024_13_05__14_07_09.jpg",
		"photo_no_face_2024_03_05__14_07_09x.jpg",
		"photo_no_face_2024_03_05__14_07_09_a.jpg",
	} {
		if _, _, err := ParseName(name); err == nil {
			t.Errorf("Expected error for %s", name)
		}
	}
}

func TestWithSuffix(t *testing.T) {
	if got := WithSuffix("photo_no_face_x.jpg", 3); got != "photo_no_face_x_3.jpg" {
		t.Errorf("Unexpected %s", got)
	}
}
