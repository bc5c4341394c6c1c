// Package audio provides utilities for MP3 audio data handling.
package audio

import "errors"

// ErrNotMP3 is returned when no valid MP3 frame can be found in the data.
var ErrNotMP3 = errors.New("no mp3 frame found")

// MPEG version identifiers from the frame header.
const (
	versionMPEG25 = 0
	versionMPEG2  = 2
	versionMPEG1  = 3
)

// Layer III bitrates in kbit/s, indexed by the header's bitrate field.
var (
	bitratesMPEG1 = [16]int{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0}
	bitratesMPEG2 = [16]int{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0}
)

// Sample rates in Hz, indexed by MPEG version then the header's rate field.
var sampleRates = map[int][4]int{
	versionMPEG1:  {44100, 48000, 32000, 0},
	versionMPEG2:  {22050, 24000, 16000, 0},
	versionMPEG25: {11025, 12000, 8000, 0},
}

// EstimateDuration walks the MP3 frame headers in data and returns the
// playback duration in seconds. An ID3v2 tag at the start is skipped.
// Unparseable bytes between frames are skipped one byte at a time, so
// minor garbage does not abort the scan.
func EstimateDuration(data []byte) (float64, error) {
	offset := skipID3(data)

	var seconds float64
	frames := 0
	for offset+4 <= len(data) {
		frameSize, frameSeconds, ok := parseFrameHeader(data[offset:])
		if !ok {
			offset++
			continue
		}
		seconds += frameSeconds
		frames++
		offset += frameSize
	}

	if frames == 0 {
		return 0, ErrNotMP3
	}
	return seconds, nil
}

// skipID3 returns the offset of the first byte after an ID3v2 tag, or 0
// when no tag is present. The tag size is stored as four syncsafe bytes.
func skipID3(data []byte) int {
	if len(data) < 10 || data[0] != 'I' || data[1] != 'D' || data[2] != '3' {
		return 0
	}
	size := int(data[6]&0x7F)<<21 | int(data[7]&0x7F)<<14 | int(data[8]&0x7F)<<7 | int(data[9]&0x7F)
	end := 10 + size
	if end > len(data) {
		return 0
	}
	return end
}

// parseFrameHeader decodes one Layer III frame header at the start of b.
// It returns the frame's byte length and duration, or ok=false when the
// bytes do not form a valid frame.
func parseFrameHeader(b []byte) (frameSize int, seconds float64, ok bool) {
	if len(b) < 4 {
		return 0, 0, false
	}
	// 11 sync bits.
	if b[0] != 0xFF || b[1]&0xE0 != 0xE0 {
		return 0, 0, false
	}

	version := int(b[1]>>3) & 0x3
	layer := int(b[1]>>1) & 0x3
	if version == 1 || layer != 1 { // reserved version, or not Layer III
		return 0, 0, false
	}

	bitrateIndex := int(b[2]>>4) & 0xF
	rateIndex := int(b[2]>>2) & 0x3
	padding := int(b[2]>>1) & 0x1

	var bitrate int
	samplesPerFrame := 576
	if version == versionMPEG1 {
		bitrate = bitratesMPEG1[bitrateIndex]
		samplesPerFrame = 1152
	} else {
		bitrate = bitratesMPEG2[bitrateIndex]
	}
	sampleRate := sampleRates[version][rateIndex]
	if bitrate == 0 || sampleRate == 0 {
		return 0, 0, false
	}

	frameSize = samplesPerFrame / 8 * bitrate * 1000 / sampleRate
	frameSize += padding
	seconds = float64(samplesPerFrame) / float64(sampleRate)
	return frameSize, seconds, true
}
