// Package export renders a session's segments into the downloadable
// formats: plain text, a structured JSON document, and a ZIP of the
// per-segment audio files.
package export

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/nekoallergy22/audio-app-2025/internal/segment"
)

// ErrNoAudio is returned by Zip when no segment has audio to package.
var ErrNoAudio = errors.New("no audio to export")

// slideMarginMillis is the fixed per-slide margin written to the JSON
// document, in milliseconds.
const slideMarginMillis = 1000

// filenameSanitizer strips characters that are not portable in archive
// member names.
var filenameSanitizer = strings.NewReplacer(
	`\`, "_", "/", "_", ":", "_", "*", "_",
	"?", "_", `"`, "_", "<", "_", ">", "_", "|", "_",
)

// Text joins the segments' edited texts, one per line. Every line is
// ensured to end with the delimiter, so a segment split from input
// without a trailing terminator still exports as a complete sentence.
func Text(segments []segment.Segment, delimiter string) string {
	if delimiter == "" {
		delimiter = segment.DefaultDelimiter
	}
	lines := make([]string, len(segments))
	for i, seg := range segments {
		text := seg.EditedText
		if !strings.HasSuffix(text, delimiter) {
			text += delimiter
		}
		lines[i] = text
	}
	return strings.Join(lines, "\n")
}

type jsonSegment struct {
	ID          int    `json:"id"`
	Text        string `json:"text"`
	Duration    int    `json:"duration"`
	SlideNumber *int   `json:"slideNumber"`
	SlideOrder  *int   `json:"slideOrder"`
}

type jsonSlide struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	NumAudio  int    `json:"num_audio"`
	AudioList []int  `json:"audio_list"`
	Duration  int    `json:"duration"`
	Margin    int    `json:"margin"`
}

// Document is the JSON export payload. Segment identifiers are 1-based
// list positions and durations are rounded to milliseconds.
type Document struct {
	VoiceSettings any           `json:"voiceSettings"`
	Segments      []jsonSegment `json:"segments"`
	Slide         []jsonSlide   `json:"slide"`
	CreatedAt     string        `json:"createdAt"`
}

// BuildDocument assembles the JSON export for segments. Slide entries
// aggregate the segments assigned to each slide number, ordered by slide
// number. Segments without a slide assignment carry null slide fields.
func BuildDocument(voiceSettings any, segments []segment.Segment, now time.Time) Document {
	doc := Document{
		VoiceSettings: voiceSettings,
		Segments:      make([]jsonSegment, len(segments)),
		Slide:         []jsonSlide{},
		CreatedAt:     now.UTC().Format(time.RFC3339),
	}

	slides := make(map[int]*jsonSlide)
	for i, seg := range segments {
		millis := int(math.Round(seg.DurationSeconds * 1000))
		doc.Segments[i] = jsonSegment{
			ID:          i + 1,
			Text:        cleanText(seg.EditedText),
			Duration:    millis,
			SlideNumber: positiveOrNil(seg.SlidePosition),
			SlideOrder:  positiveOrNil(seg.SlideOrder),
		}

		if seg.SlidePosition <= 0 {
			continue
		}
		sl, ok := slides[seg.SlidePosition]
		if !ok {
			sl = &jsonSlide{
				ID:     seg.SlidePosition,
				Name:   strconv.Itoa(seg.SlidePosition),
				Margin: slideMarginMillis,
			}
			slides[seg.SlidePosition] = sl
		}
		sl.NumAudio++
		sl.AudioList = append(sl.AudioList, i+1)
		sl.Duration += millis
	}

	for _, sl := range slides {
		doc.Slide = append(doc.Slide, *sl)
	}
	sort.Slice(doc.Slide, func(i, j int) bool { return doc.Slide[i].ID < doc.Slide[j].ID })

	return doc
}

// AudioFetcher retrieves a segment's audio bytes by identifier.
type AudioFetcher func(id string) ([]byte, error)

// ZipOptions controls archive member naming. A non-empty Prefix switches
// file names to "{prefix}{NNNN}_{text20}.mp3" instead of the default
// "{NNNN}_{text30}.mp3".
type ZipOptions struct {
	Prefix string
}

// Zip writes an archive of the audio-bearing segments to w. Members are
// numbered by their 1-based position among the segments that have audio,
// with a sanitized slice of the segment text appended.
func Zip(w io.Writer, segments []segment.Segment, fetch AudioFetcher, opts ZipOptions) error {
	var withAudio []segment.Segment
	for _, seg := range segments {
		if seg.HasAudio {
			withAudio = append(withAudio, seg)
		}
	}
	if len(withAudio) == 0 {
		return ErrNoAudio
	}

	zw := zip.NewWriter(w)
	for i, seg := range withAudio {
		data, err := fetch(seg.ID)
		if err != nil {
			zw.Close()
			return fmt.Errorf("fetch audio for %s: %w", seg.ID, err)
		}
		f, err := zw.Create(memberName(i+1, seg.EditedText, opts.Prefix))
		if err != nil {
			zw.Close()
			return fmt.Errorf("create archive member: %w", err)
		}
		if _, err := f.Write(data); err != nil {
			zw.Close()
			return fmt.Errorf("write archive member: %w", err)
		}
	}
	return zw.Close()
}

func memberName(number int, text, prefix string) string {
	limit := 30
	if prefix != "" {
		limit = 20
	}
	name := filenameSanitizer.Replace(truncateRunes(cleanText(text), limit))
	return fmt.Sprintf("%s%04d_%s.mp3", prefix, number, name)
}

// cleanText strips the leading newlines a segment can pick up from the
// source textarea.
func cleanText(s string) string {
	return strings.TrimLeft(s, "\n")
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func positiveOrNil(v int) *int {
	if v <= 0 {
		return nil
	}
	return &v
}
