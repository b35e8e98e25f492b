package intake

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/vocalis-app/vocalis/domain"
	"github.com/vocalis-app/vocalis/domain/entities"
)

// buildWAV builds a minimal RIFF/WAVE payload with the given byte rate
// and data size.
func buildWAV(byteRate, dataSize uint32) []byte {
	buf := make([]byte, 0, 44+int(dataSize))
	buf = append(buf, []byte("RIFF")...)
	buf = binary.LittleEndian.AppendUint32(buf, 36+dataSize)
	buf = append(buf, []byte("WAVE")...)

	buf = append(buf, []byte("fmt ")...)
	buf = binary.LittleEndian.AppendUint32(buf, 16)
	buf = binary.LittleEndian.AppendUint16(buf, 1) // PCM
	buf = binary.LittleEndian.AppendUint16(buf, 1) // mono
	buf = binary.LittleEndian.AppendUint32(buf, 16000)
	buf = binary.LittleEndian.AppendUint32(buf, byteRate)
	buf = binary.LittleEndian.AppendUint16(buf, 2)
	buf = binary.LittleEndian.AppendUint16(buf, 16)

	buf = append(buf, []byte("data")...)
	buf = binary.LittleEndian.AppendUint32(buf, dataSize)
	buf = append(buf, make([]byte, dataSize)...)
	return buf
}

func TestProbeWAVDuration(t *testing.T) {
	// 32000 bytes/s, 64000 bytes of samples -> 2 seconds.
	wav := buildWAV(32000, 64000)
	duration, ok := ProbeWAVDuration(wav)
	if !ok {
		t.Fatal("Expected WAV probe to succeed")
	}
	if duration != 2*time.Second {
		t.Errorf("Expected 2s, got %v", duration)
	}

	if _, ok := ProbeWAVDuration([]byte("not a wav at all")); ok {
		t.Error("Expected probe to fail for non-WAV data")
	}
	if _, ok := ProbeWAVDuration(wav[:10]); ok {
		t.Error("Expected probe to fail for truncated data")
	}
}

func TestClassify_Validation(t *testing.T) {
	router := NewRouter(0, 0)

	_, err := router.Classify(entities.AudioPayload{MIMEType: "audio/wav"})
	if !domain.IsValidation(err) {
		t.Errorf("Expected ValidationError for empty payload, got %v", err)
	}

	_, err = router.Classify(entities.AudioPayload{Data: []byte("x"), MIMEType: "video/mp4"})
	if !domain.IsValidation(err) {
		t.Errorf("Expected ValidationError for disallowed MIME type, got %v", err)
	}
}

func TestClassify_SizeBoundary(t *testing.T) {
	router := NewRouter(1000, time.Minute)

	short := entities.AudioPayload{Data: make([]byte, 999), MIMEType: "audio/mpeg"}
	route, err := router.Classify(short)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if route != RouteShort {
		t.Error("Expected payload below the byte threshold to route short")
	}

	// The boundary is inclusive on the long side.
	long := entities.AudioPayload{Data: make([]byte, 1000), MIMEType: "audio/mpeg"}
	route, err = router.Classify(long)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if route != RouteLong {
		t.Error("Expected payload exactly at the byte threshold to route long")
	}
}

func TestClassify_DurationBoundary(t *testing.T) {
	router := NewRouter(DefaultMaxSyncBytes, time.Minute)

	atThreshold := entities.AudioPayload{
		Data:     []byte("mp3"),
		MIMEType: "audio/mpeg",
		Duration: time.Minute,
	}
	route, err := router.Classify(atThreshold)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if route != RouteLong {
		t.Error("Expected duration exactly at the threshold to route long")
	}

	below := entities.AudioPayload{
		Data:     []byte("mp3"),
		MIMEType: "audio/mpeg",
		Duration: time.Minute - time.Second,
	}
	route, err = router.Classify(below)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if route != RouteShort {
		t.Error("Expected duration below the threshold to route short")
	}
}

func TestClassify_ProbedWAVDuration(t *testing.T) {
	router := NewRouter(DefaultMaxSyncBytes, 2*time.Second)

	// 3 seconds of audio at 32000 bytes/s, no declared duration.
	wav := entities.AudioPayload{Data: buildWAV(32000, 96000), MIMEType: "audio/wav"}
	route, err := router.Classify(wav)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if route != RouteLong {
		t.Error("Expected probed duration above the threshold to route long")
	}
}

func TestClassify_UnknownDurationFallsBackToSize(t *testing.T) {
	router := NewRouter(1 << 20, time.Second)

	// MP3 bytes cannot be probed; only the size check applies.
	mp3 := entities.AudioPayload{Data: make([]byte, 100), MIMEType: "audio/mpeg"}
	route, err := router.Classify(mp3)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if route != RouteShort {
		t.Error("Expected small payload of unknown duration to route short")
	}
}
