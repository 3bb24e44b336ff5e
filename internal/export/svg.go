// Package export renders run artifacts into portable formats.
package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/fieldtrack/internal/save"
)

var strokeColors = []string{
	"#00ff00", "#00ccff", "#ff00ff", "#ffaa00", "#ff4444", "#00ff88",
}

// TrajectorySVG draws the x-y projection of every particle trajectory in the
// snapshot history. Particles with NaN entries (stopped or removed) simply
// truncate their path.
func TrajectorySVG(snaps []save.Snapshot, width, height int) string {
	if len(snaps) < 2 || len(snaps[0].Positions) == 0 {
		return ""
	}
	n := len(snaps[0].Positions)

	// Shared bounds across all particles so trajectories stay comparable.
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, s := range snaps {
		for _, p := range s.Positions {
			if math.IsNaN(p.X) || math.IsNaN(p.Y) {
				continue
			}
			minX = math.Min(minX, p.X)
			maxX = math.Max(maxX, p.X)
			minY = math.Min(minY, p.Y)
			maxY = math.Max(maxY, p.Y)
		}
	}
	if math.IsInf(minX, 1) {
		return ""
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	for i := 0; i < n; i++ {
		color := strokeColors[i%len(strokeColors)]
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="`, color))
		started := false
		for _, s := range snaps {
			p := s.Positions[i]
			if math.IsNaN(p.X) || math.IsNaN(p.Y) {
				break
			}
			x := (p.X - minX) / rangeX * float64(width)
			y := float64(height) - (p.Y-minY)/rangeY*float64(height)
			if !started {
				sb.WriteString(fmt.Sprintf("M%.1f,%.1f", x, y))
				started = true
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString("\"/>\n")
	}

	sb.WriteString("</svg>")
	return sb.String()
}
