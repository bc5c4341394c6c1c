// Package validate enforces the pre-flight checks on text and voice
// settings before a synthesis request is allowed to reach the speech
// backend.
package validate

import (
	"fmt"
	"strings"
)

// Speaking rate and pitch bounds accepted by the speech backend.
const (
	MinSpeakingRate = 0.25
	MaxSpeakingRate = 4.0
	MinPitch        = -20.0
	MaxPitch        = 20.0
)

// DefaultMaxTextLength is the character limit applied when none is configured.
const DefaultMaxTextLength = 5000

// Error reports a rejected input. It never reaches the speech backend;
// the user can always correct the input and retry.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Text checks that text is non-empty after trimming and within maxLength
// characters. A maxLength of 0 applies DefaultMaxTextLength.
func Text(text string, maxLength int) error {
	if maxLength <= 0 {
		maxLength = DefaultMaxTextLength
	}

	if strings.TrimSpace(text) == "" {
		return &Error{Field: "text", Message: "must not be empty"}
	}

	if n := len([]rune(text)); n > maxLength {
		return &Error{Field: "text", Message: fmt.Sprintf("length %d exceeds maximum %d", n, maxLength)}
	}

	return nil
}

// VoiceSettings checks language membership, voice name prefix, and the
// speaking rate and pitch ranges. The range bounds are inclusive.
func VoiceSettings(language, voiceName string, speakingRate, pitch float64, languages []string) error {
	supported := false
	for _, l := range languages {
		if l == language {
			supported = true
			break
		}
	}
	if !supported {
		return &Error{Field: "language", Message: fmt.Sprintf("%q is not supported", language)}
	}

	if voiceName == "" || !strings.HasPrefix(voiceName, language) {
		return &Error{Field: "voiceName", Message: fmt.Sprintf("%q must be prefixed by language code %q", voiceName, language)}
	}

	if speakingRate < MinSpeakingRate || speakingRate > MaxSpeakingRate {
		return &Error{Field: "speakingRate", Message: fmt.Sprintf("%v is outside [%v, %v]", speakingRate, MinSpeakingRate, MaxSpeakingRate)}
	}

	if pitch < MinPitch || pitch > MaxPitch {
		return &Error{Field: "pitch", Message: fmt.Sprintf("%v is outside [%v, %v]", pitch, MinPitch, MaxPitch)}
	}

	return nil
}
