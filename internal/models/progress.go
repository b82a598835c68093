package models

import (
	"fmt"
	"strings"
)

// Progress is one download progress snapshot.
type Progress struct {
	Percent float64 // 0 to 100
	Speed   string
	ETA     string
	Total   string
}

// Clamp keeps Percent within 0 to 100.
func (p Progress) Clamp() Progress {
	switch {
	case p.Percent < 0:
		p.Percent = 0
	case p.Percent > 100:
		p.Percent = 100
	}
	return p
}

// Ratio returns Percent as a 0..1 fraction for progress bars.
func (p Progress) Ratio() float64 {
	return p.Clamp().Percent / 100
}

func (p Progress) String() string {
	parts := []string{fmt.Sprintf("%.1f%%", p.Percent)}
	if p.Total != "" {
		parts = append(parts, "of "+p.Total)
	}
	if p.Speed != "" {
		parts = append(parts, "at "+p.Speed)
	}
	if p.ETA != "" {
		parts = append(parts, "ETA "+p.ETA)
	}
	return strings.Join(parts, " ")
}
