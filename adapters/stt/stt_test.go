package stt

import "testing"

func TestClampConfidence(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{-0.1, 0},
		{0, 0},
		{0.42, 0.42},
		{1, 1},
		{1.3, 1},
	}
	for _, c := range cases {
		if got := clampConfidence(c.in); got != c.want {
			t.Errorf("clampConfidence(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestAudioEncoding(t *testing.T) {
	if _, _, err := audioEncoding("audio/wav"); err != nil {
		t.Errorf("Expected wav to be supported: %v", err)
	}
	if _, _, err := audioEncoding("audio/flac"); err != nil {
		t.Errorf("Expected flac to be supported: %v", err)
	}
	if _, _, err := audioEncoding("video/mp4"); err == nil {
		t.Error("Expected error for unsupported MIME type")
	}
}
