package presets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestIsFileRef(t *testing.T) {
	cases := []struct {
		value string
		want  bool
	}{
		{"IndexerV1.xml", true},
		{"OCR.json", true},
		{"OCR.JSON", true},
		{"H264 Multiple Bitrate 720p", false},
		{`{"Version":"1.0"}`, false},
		{"", false},
	}
	for _, tc := range cases {
		if got := IsFileRef(tc.value); got != tc.want {
			t.Errorf("IsFileRef(%q) = %v, want %v", tc.value, got, tc.want)
		}
	}
}

func TestLoadBundled(t *testing.T) {
	s := NewStore("")

	for _, name := range []string{
		"IndexerV1.xml",
		"IndexerV2.json",
		"OCR.json",
		"FaceDetection.json",
		"FaceRedaction.json",
		"MotionDetection.json",
		"Summarization.json",
		"Hyperlapse.json",
		"H264MultipleBitrate720p.json",
	} {
		text, err := s.Load(name)
		if err != nil {
			t.Errorf("Load(%q): %v", name, err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			t.Errorf("Load(%q) returned empty preset", name)
		}
	}
}

func TestLoadUnknown(t *testing.T) {
	if _, err := NewStore("").Load("NoSuch.json"); err == nil {
		t.Fatal("expected error")
	}
}

func TestLoadRejectsPathTraversal(t *testing.T) {
	for _, name := range []string{"../OCR.json", "sub/OCR.json", "/etc/passwd"} {
		if _, err := NewStore("").Load(name); err == nil {
			t.Errorf("Load(%q) should fail", name)
		}
	}
}

func TestLoadOverrideDir(t *testing.T) {
	dir := t.TempDir()
	custom := `{"Options":{"Language":"Custom"}}`
	if err := os.WriteFile(filepath.Join(dir, "OCR.json"), []byte(custom), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewStore(dir)

	text, err := s.Load("OCR.json")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if text != custom {
		t.Errorf("override not used, got %q", text)
	}

	// Files absent from the override dir fall back to the bundle.
	if _, err := s.Load("IndexerV1.xml"); err != nil {
		t.Errorf("bundled fallback: %v", err)
	}
}
