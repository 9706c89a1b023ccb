package util

import "testing"

func TestTruncateWidth(t *testing.T) {
	tests := []struct {
		name  string
		input string
		width int
		want  string
	}{
		{"fits", "Mute", 10, "Mute"},
		{"exact", "Scene", 5, "Scene"},
		{"cut ascii", "Start stream", 6, "Start…"},
		{"wide runes", "日本語テキスト", 5, "日本…"},
		{"zero width", "anything", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateWidth(tt.input, tt.width); got != tt.want {
				t.Errorf("TruncateWidth(%q, %d) = %q, want %q", tt.input, tt.width, got, tt.want)
			}
		})
	}
}

func TestPadWidth(t *testing.T) {
	if got := PadWidth("ab", 4); got != "ab  " {
		t.Errorf("Expected padded string, got %q", got)
	}
}

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("Expected embedded version")
	}
}
