package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/rdasim/internal/analysis"
)

// Point is one vertex of a polyline.
type Point struct{ X, Y float64 }

// ProfilePoints converts the non-empty bins above zero into (k, power) points.
// With logScale the power axis is log10(power + 1e-12).
func ProfilePoints(p *analysis.RadialProfile, logScale bool) []Point {
	pts := make([]Point, 0, len(p.Power))
	for b := 1; b < len(p.Power); b++ {
		if p.Count[b] == 0 {
			continue
		}
		y := p.Power[b]
		if logScale {
			y = math.Log10(y + 1e-12)
		}
		pts = append(pts, Point{X: p.Center(b), Y: y})
	}
	return pts
}

// ProfileToSVG draws a radial power profile as a single polyline.
func ProfileToSVG(p *analysis.RadialProfile, width, height int, strokeColor string) string {
	return PolylineToSVG(ProfilePoints(p, true), width, height, strokeColor)
}

// PolylineToSVG scales points into a width×height viewport with 10% padding.
func PolylineToSVG(points []Point, width, height int, strokeColor string) string {
	if len(points) < 2 {
		return ""
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
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
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor))

	for i, p := range points {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)

		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
