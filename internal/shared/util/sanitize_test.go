package util

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "source.pdf", want: "source.pdf"},
		{in: " nested/dir\\原文.docx ", want: "nested_dir_原文.docx"},
		{in: "tab\there.txt", want: "tabhere.txt"},
		{in: "../etc/passwd", wantErr: true},
		{in: "   ", wantErr: true},
		{in: "\x00\x01", wantErr: true},
	}
	for _, tc := range cases {
		got, err := SanitizeFileName(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("%q: got %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
}

func TestSanitizeFileNameTruncatesKeepingExtension(t *testing.T) {
	long := strings.Repeat("译", 300) + ".docx"
	got, err := SanitizeFileName(long)
	if err != nil {
		t.Fatalf("SanitizeFileName: %v", err)
	}
	if utf8.RuneCountInString(got) != MaxFileNameRunes || !strings.HasSuffix(got, ".docx") {
		t.Fatalf("unexpected truncation %q (%d runes)", got, utf8.RuneCountInString(got))
	}
}
