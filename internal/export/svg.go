package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/verlet/internal/storage"
)

type Point struct{ X, Y float64 }

var palette = []string{"#00ff9c", "#ffcc00", "#ff5f87", "#5fafff", "#d787ff", "#87ffff"}

// Tracks projects a stored run onto a plane, one track per particle: the
// first two axes when dim >= 2, else time against the single coordinate.
func Tracks(series *storage.Series, particles, dim int) ([][]Point, error) {
	if want := particles * dim; len(series.Columns)-1 != want {
		return nil, fmt.Errorf("series has %d coordinates, want %d×%d", len(series.Columns)-1, particles, dim)
	}

	tracks := make([][]Point, particles)
	for p := range tracks {
		track := make([]Point, len(series.Rows))
		base := p * dim
		for i, row := range series.Rows {
			if dim >= 2 {
				track[i] = Point{X: row[base], Y: row[base+1]}
			} else {
				track[i] = Point{X: series.Times[i], Y: row[base]}
			}
		}
		tracks[p] = track
	}
	return tracks, nil
}

// WriteSVG draws every track as a polyline on a shared, padded frame.
func WriteSVG(w io.Writer, tracks [][]Point, width, height int) error {
	minX, maxX, minY, maxY, ok := bounds(tracks)
	if !ok {
		return fmt.Errorf("nothing to draw")
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

	for n, track := range tracks {
		if len(track) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="`, palette[n%len(palette)]))
		for i, p := range track {
			x := (p.X - minX) / rangeX * float64(width)
			y := float64(height) - (p.Y-minY)/rangeY*float64(height)
			if i == 0 {
				sb.WriteString(fmt.Sprintf("M%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString("\"/>\n")
	}

	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

func bounds(tracks [][]Point) (minX, maxX, minY, maxY float64, ok bool) {
	for _, track := range tracks {
		for _, p := range track {
			if !ok {
				minX, maxX, minY, maxY, ok = p.X, p.X, p.Y, p.Y, true
				continue
			}
			minX = min(minX, p.X)
			maxX = max(maxX, p.X)
			minY = min(minY, p.Y)
			maxY = max(maxY, p.Y)
		}
	}
	return
}
