package models

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/desertthunder/ytq/internal/shared"
)

var (
	dimensionPattern = regexp.MustCompile(`(\d+)x(\d+)`)
	heightPattern    = regexp.MustCompile(`(\d+)p?`)
)

// Format is one selectable encoding of a media item.
type Format struct {
	ID         string  `json:"format_id"`
	Ext        string  `json:"ext"`
	Resolution string  `json:"resolution,omitempty"`
	FPS        float64 `json:"fps,omitempty"`
	VCodec     string  `json:"vcodec,omitempty"`
	ACodec     string  `json:"acodec,omitempty"`
	Filesize   int64   `json:"filesize,omitempty"`
	AudioOnly  bool    `json:"audio_only"`
}

// Height extracts the vertical resolution from "1920x1080" or "720p" style values, or 0.
func (f Format) Height() int {
	if m := dimensionPattern.FindStringSubmatch(f.Resolution); m != nil {
		h, _ := strconv.Atoi(m[2])
		return h
	}
	if m := heightPattern.FindStringSubmatch(f.Resolution); m != nil {
		h, _ := strconv.Atoi(m[1])
		return h
	}
	return 0
}

// Selector returns the extractor format expression for downloading f.
//
// Video-only streams are merged with the best audio track.
func (f Format) Selector() string {
	if f.AudioOnly {
		return f.ID
	}
	return f.ID + "+bestaudio/best"
}

// DisplayName renders f as "Video 1920x1080 • 30fps • mp4 • 12 MiB • (+audio)".
func (f Format) DisplayName() string {
	var parts []string
	switch {
	case f.AudioOnly:
		parts = append(parts, "Audio Only")
	case f.Resolution != "":
		parts = append(parts, "Video "+f.Resolution)
	default:
		parts = append(parts, "Video")
	}

	if f.FPS > 0 {
		parts = append(parts, strconv.FormatFloat(f.FPS, 'f', -1, 64)+"fps")
	}
	parts = append(parts, f.Ext)
	if size := shared.FormatBytes(f.Filesize); size != "" {
		parts = append(parts, size)
	}
	if !f.AudioOnly {
		parts = append(parts, "(+audio)")
	}
	return strings.Join(parts, " • ")
}

func (f Format) String() string {
	return fmt.Sprintf("%s (%s)", f.ID, f.DisplayName())
}

// SortFormats orders formats for selection: video first by height descending, then audio by size descending.
func SortFormats(formats []Format) {
	sort.SliceStable(formats, func(i, j int) bool {
		a, b := formats[i], formats[j]
		if a.AudioOnly != b.AudioOnly {
			return !a.AudioOnly
		}
		if a.AudioOnly {
			return a.Filesize > b.Filesize
		}
		return a.Height() > b.Height()
	})
}

// FilterAudio returns only the audio-only formats.
func FilterAudio(formats []Format) []Format {
	var out []Format
	for _, f := range formats {
		if f.AudioOnly {
			out = append(out, f)
		}
	}
	return out
}

// BestFormat returns the first video format, or the first format when there is no video.
func BestFormat(formats []Format) (Format, bool) {
	for _, f := range formats {
		if !f.AudioOnly {
			return f, true
		}
	}
	if len(formats) > 0 {
		return formats[0], true
	}
	return Format{}, false
}

// FindFormat looks a format up by id.
func FindFormat(formats []Format, id string) (Format, bool) {
	for _, f := range formats {
		if f.ID == id {
			return f, true
		}
	}
	return Format{}, false
}
