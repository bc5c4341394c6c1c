package audio

import (
	"errors"
	"math"
	"testing"
)

// mp3Frame builds one MPEG1 Layer III frame at 128 kbit/s, 44100 Hz.
// Frame size for those parameters is 144*128000/44100 = 417 bytes.
func mp3Frame() []byte {
	frame := make([]byte, 417)
	frame[0] = 0xFF
	frame[1] = 0xFB // MPEG1, Layer III
	frame[2] = 0x90 // 128 kbit/s, 44100 Hz, no padding
	frame[3] = 0xC4
	return frame
}

// id3Tag builds an ID3v2 tag with the given payload size.
func id3Tag(payload int) []byte {
	tag := make([]byte, 10+payload)
	copy(tag, "ID3")
	tag[3] = 4
	tag[6] = byte(payload >> 21 & 0x7F)
	tag[7] = byte(payload >> 14 & 0x7F)
	tag[8] = byte(payload >> 7 & 0x7F)
	tag[9] = byte(payload & 0x7F)
	return tag
}

func TestEstimateDuration(t *testing.T) {
	frameSeconds := 1152.0 / 44100.0

	var data []byte
	for range 3 {
		data = append(data, mp3Frame()...)
	}

	got, err := EstimateDuration(data)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	want := 3 * frameSeconds
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("duration = %v, want %v", got, want)
	}
}

func TestEstimateDuration_SkipsID3(t *testing.T) {
	data := id3Tag(64)
	data = append(data, mp3Frame()...)

	got, err := EstimateDuration(data)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	want := 1152.0 / 44100.0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("duration = %v, want %v", got, want)
	}
}

func TestEstimateDuration_SkipsGarbageBetweenFrames(t *testing.T) {
	data := mp3Frame()
	data = append(data, 0x00, 0x01, 0x02)
	data = append(data, mp3Frame()...)

	got, err := EstimateDuration(data)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	want := 2 * 1152.0 / 44100.0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("duration = %v, want %v", got, want)
	}
}

func TestEstimateDuration_NotMP3(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"no sync", []byte("this is not audio at all")},
		{"tag only", id3Tag(8)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := EstimateDuration(tt.data); !errors.Is(err, ErrNotMP3) {
				t.Errorf("expected ErrNotMP3, got %v", err)
			}
		})
	}
}
