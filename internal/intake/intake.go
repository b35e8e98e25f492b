// Package intake validates uploaded audio and routes it to the short
// (synchronous) or long (asynchronous) recognition path.
package intake

import (
	"encoding/binary"
	"time"

	"github.com/vocalis-app/vocalis/domain"
	"github.com/vocalis-app/vocalis/domain/entities"
)

// Route is the recognition path for one submission.
type Route int

const (
	RouteShort Route = iota
	RouteLong
)

func (r Route) String() string {
	if r == RouteLong {
		return "long"
	}
	return "short"
}

// Synchronous provider calls have hard payload-size and wall-clock
// limits; anything that may exceed them takes the async path.
const (
	DefaultMaxSyncBytes    = 10 << 20 // 10 MiB
	DefaultMaxSyncDuration = 60 * time.Second
)

var allowedMIMETypes = map[string]bool{
	"audio/wav":    true,
	"audio/x-wav":  true,
	"audio/wave":   true,
	"audio/mpeg":   true,
	"audio/mp3":    true,
	"audio/flac":   true,
	"audio/x-flac": true,
}

// Router classifies audio payloads. Both thresholds are inclusive on the
// long side: a payload exactly at a limit routes long.
type Router struct {
	MaxSyncBytes    int64
	MaxSyncDuration time.Duration
}

// NewRouter creates a router with the given thresholds, falling back to
// the defaults for zero values.
func NewRouter(maxSyncBytes int64, maxSyncDuration time.Duration) *Router {
	if maxSyncBytes <= 0 {
		maxSyncBytes = DefaultMaxSyncBytes
	}
	if maxSyncDuration <= 0 {
		maxSyncDuration = DefaultMaxSyncDuration
	}
	return &Router{MaxSyncBytes: maxSyncBytes, MaxSyncDuration: maxSyncDuration}
}

// Classify validates the payload against the MIME allow-list and picks
// the route. Routing is evaluated once per submission. The duration
// check applies when the duration is declared or probed from the
// payload; otherwise size alone decides.
func (r *Router) Classify(audio entities.AudioPayload) (Route, error) {
	if err := audio.Validate(); err != nil {
		return RouteShort, domain.NewValidationError("%v", err)
	}
	if !allowedMIMETypes[audio.MIMEType] {
		return RouteShort, domain.NewValidationError("unsupported audio type %q (allowed: wav, mp3, flac)", audio.MIMEType)
	}

	duration := audio.Duration
	if duration == 0 {
		if probed, ok := ProbeWAVDuration(audio.Data); ok {
			duration = probed
		}
	}

	if int64(len(audio.Data)) >= r.MaxSyncBytes {
		return RouteLong, nil
	}
	if duration > 0 && duration >= r.MaxSyncDuration {
		return RouteLong, nil
	}
	return RouteShort, nil
}

// ProbeWAVDuration estimates the duration of a RIFF/WAVE payload from
// its fmt and data chunks. Returns ok=false for non-WAV or truncated
// payloads; callers then fall back to the size check.
func ProbeWAVDuration(data []byte) (time.Duration, bool) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return 0, false
	}

	var byteRate uint32
	var dataSize uint32

	// Walk the chunk list. Chunks are 8 bytes of header plus a
	// word-aligned body.
	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := binary.LittleEndian.Uint32(data[offset+4 : offset+8])

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 || offset+20 > len(data) {
				return 0, false
			}
			byteRate = binary.LittleEndian.Uint32(data[offset+16 : offset+20])
		case "data":
			dataSize = chunkSize
		}

		if byteRate > 0 && dataSize > 0 {
			seconds := float64(dataSize) / float64(byteRate)
			return time.Duration(seconds * float64(time.Second)), true
		}

		advance := int(chunkSize)
		if advance%2 == 1 {
			advance++
		}
		offset += 8 + advance
	}

	return 0, false
}
