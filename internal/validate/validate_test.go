package validate

import (
	"errors"
	"reflect"
	"testing"
)

func TestIsValid(t *testing.T) {
	tests := []struct {
		url      string
		expected bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"http://youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"https://youtu.be/dQw4w9WgXcQ", true},
		{"https://youtu.be/dQw4w9WgXcQ?t=42", true},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", true},
		{"https://www.youtube.com/v/dQw4w9WgXcQ", true},
		{"https://m.youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PL123", true},
		{"  https://youtu.be/dQw4w9WgXcQ  ", true},

		{"", false},
		{"not a url", false},
		{"https://vimeo.com/12345", false},
		{"https://www.youtube.com/watch?v=short", false},
		{"https://www.youtube.com/watch?v=waytoolongvideoid", false},
		{"https://www.youtube.com/playlist?list=PL123", false},
	}

	for _, test := range tests {
		result := IsValid(test.url)
		if result != test.expected {
			t.Errorf("IsValid(%q) = %v, expected %v", test.url, result, test.expected)
		}
	}
}

func TestVideoID(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtu.be/a1B2c3D4e5F", "a1B2c3D4e5F"},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ?rel=0", "dQw4w9WgXcQ"},
		{"https://vimeo.com/12345", ""},
		{"", ""},
	}

	for _, test := range tests {
		result := VideoID(test.url)
		if result != test.expected {
			t.Errorf("VideoID(%q) = %q, expected %q", test.url, result, test.expected)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"youtu.be/dQw4w9WgXcQ", "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{"https://m.youtube.com/watch?v=dQw4w9WgXcQ&feature=share", "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{"garbage", "garbage"},
	}

	for _, test := range tests {
		result := Normalize(test.url)
		if result != test.expected {
			t.Errorf("Normalize(%q) = %q, expected %q", test.url, result, test.expected)
		}
	}
}

func TestCheck(t *testing.T) {
	if err := Check("https://youtu.be/dQw4w9WgXcQ"); err != nil {
		t.Errorf("Expected no error for valid URL, got %v", err)
	}

	err := Check("https://example.com/nope")
	if err == nil {
		t.Fatal("Expected error for invalid URL, got nil")
	}
	if !errors.Is(err, ErrInvalidURL) {
		t.Errorf("Expected ErrInvalidURL, got %v", err)
	}
}

func TestExtractFromText(t *testing.T) {
	text := "https://youtu.be/aaaaaaaaaaa\n" +
		"watch this: https://www.youtube.com/watch?v=bbbbbbbbbbb thanks\n" +
		"\n" +
		"not a url\n" +
		"https://youtu.be/aaaaaaaaaaa\n" // duplicate

	expected := []string{
		"https://www.youtube.com/watch?v=aaaaaaaaaaa",
		"https://www.youtube.com/watch?v=bbbbbbbbbbb",
	}

	result := ExtractFromText(text)
	if !reflect.DeepEqual(result, expected) {
		t.Errorf("ExtractFromText() = %v, expected %v", result, expected)
	}
}

func TestExtractFromText_Empty(t *testing.T) {
	if result := ExtractFromText("   \n  "); result != nil {
		t.Errorf("Expected nil for blank input, got %v", result)
	}
}
