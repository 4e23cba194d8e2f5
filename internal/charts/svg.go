// Package charts renders the per-month bar and pie charts of a ledger as
// SVG files.
package charts

import (
	"context"
	"fmt"
	"html"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"kharcha/internal/core"
	"kharcha/internal/ports"
)

const (
	width      = 600
	height     = 400
	margin     = 50
	emptyLabel = "No expense data yet"
)

var palette = []string{"#4e79a7", "#f28e2b", "#e15759", "#76b7b2", "#59a14f", "#edc948", "#b07aa1"}

// SVGRenderer writes {dir}/{user}/{user}_{YYYY-MM}_{bar|pie}.svg.
type SVGRenderer struct {
	dir string
}

var _ ports.ChartRenderer = (*SVGRenderer)(nil)

func NewSVGRenderer(dir string) (*SVGRenderer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create charts directory: %w", err)
	}
	return &SVGRenderer{dir: dir}, nil
}

// Paths returns the chart files of user for month without rendering.
func (r *SVGRenderer) Paths(user string, month time.Time) core.ChartPaths {
	base := filepath.Join(r.dir, user, user+"_"+core.MonthKey(month))
	return core.ChartPaths{
		Bar: base + "_" + string(core.BarChart) + ".svg",
		Pie: base + "_" + string(core.PieChart) + ".svg",
	}
}

// Render regenerates both charts from the expense entries of l.
func (r *SVGRenderer) Render(ctx context.Context, user string, month time.Time, l core.Ledger) (core.ChartPaths, error) {
	paths := r.Paths(user, month)
	if err := os.MkdirAll(filepath.Dir(paths.Bar), 0o755); err != nil {
		return core.ChartPaths{}, fmt.Errorf("create user charts directory: %w", err)
	}

	entries := l.Expenses()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return writeChart(ctx, paths.Bar, barChart(entries))
	})
	g.Go(func() error {
		return writeChart(ctx, paths.Pie, pieChart(entries))
	})
	if err := g.Wait(); err != nil {
		return core.ChartPaths{}, err
	}
	return paths, nil
}

func writeChart(ctx context.Context, path, svg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(svg), 0o644); err != nil {
		return fmt.Errorf("write chart %s: %w", filepath.Base(path), err)
	}
	return nil
}

func total(entries []core.Entry) float64 {
	var sum float64
	for _, e := range entries {
		sum += e.Total
	}
	return sum
}

func svgStart(b *strings.Builder) {
	fmt.Fprintf(b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif">`+"\n",
		width, height, width, height)
	fmt.Fprintf(b, `<rect width="%d" height="%d" fill="#ffffff"/>`+"\n", width, height)
}

func centeredText(b *strings.Builder, y int, size int, text string) {
	fmt.Fprintf(b, `<text x="%d" y="%d" font-size="%d" text-anchor="middle">%s</text>`+"\n",
		width/2, y, size, html.EscapeString(text))
}

func emptyChart() string {
	var b strings.Builder
	svgStart(&b)
	centeredText(&b, height/2, 16, emptyLabel)
	b.WriteString("</svg>\n")
	return b.String()
}

func barChart(entries []core.Entry) string {
	sum := total(entries)
	if sum <= 0 || len(entries) == 0 {
		return emptyChart()
	}

	maxVal := 0.0
	for _, e := range entries {
		maxVal = math.Max(maxVal, e.Total)
	}

	var b strings.Builder
	svgStart(&b)
	centeredText(&b, 30, 18, "Expenses by Category")

	plotW := float64(width - 2*margin)
	plotH := float64(height - 2*margin - 30)
	slot := plotW / float64(len(entries))
	barW := slot * 0.6
	baseY := float64(height - margin - 20)

	fmt.Fprintf(&b, `<line x1="%d" y1="%.1f" x2="%d" y2="%.1f" stroke="#333333"/>`+"\n",
		margin, baseY, width-margin, baseY)
	for i, e := range entries {
		h := e.Total / maxVal * plotH
		x := float64(margin) + float64(i)*slot + (slot-barW)/2
		fmt.Fprintf(&b, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"><title>%s: %s</title></rect>`+"\n",
			x, baseY-h, barW, h, palette[i%len(palette)],
			html.EscapeString(e.Category), core.FormatFixed(e.Total))
		fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" font-size="11" text-anchor="end" transform="rotate(-30 %.1f %.1f)">%s</text>`+"\n",
			x+barW/2, baseY+14, x+barW/2, baseY+14, html.EscapeString(e.Category))
	}
	b.WriteString("</svg>\n")
	return b.String()
}

func pieChart(entries []core.Entry) string {
	sum := total(entries)
	if sum <= 0 {
		return emptyChart()
	}

	var b strings.Builder
	svgStart(&b)
	centeredText(&b, 30, 18, "Expense Distribution")

	cx, cy, radius := float64(width)/2, float64(height)/2+15, 130.0
	angle := -math.Pi / 2
	for i, e := range entries {
		if e.Total <= 0 {
			continue
		}
		share := e.Total / sum
		color := palette[i%len(palette)]
		label := fmt.Sprintf("%s %.1f%%", e.Category, share*100)

		if share >= 1 {
			fmt.Fprintf(&b, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>`+"\n", cx, cy, radius, color)
			fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" font-size="12" text-anchor="middle">%s</text>`+"\n",
				cx, cy, html.EscapeString(label))
			break
		}

		sweep := share * 2 * math.Pi
		x1, y1 := cx+radius*math.Cos(angle), cy+radius*math.Sin(angle)
		x2, y2 := cx+radius*math.Cos(angle+sweep), cy+radius*math.Sin(angle+sweep)
		large := 0
		if sweep > math.Pi {
			large = 1
		}
		fmt.Fprintf(&b, `<path d="M %.1f %.1f L %.1f %.1f A %.1f %.1f 0 %d 1 %.1f %.1f Z" fill="%s" stroke="#ffffff"/>`+"\n",
			cx, cy, x1, y1, radius, radius, large, x2, y2, color)

		mid := angle + sweep/2
		lx, ly := cx+(radius+25)*math.Cos(mid), cy+(radius+25)*math.Sin(mid)
		anchor := "start"
		if math.Cos(mid) < 0 {
			anchor = "end"
		}
		fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" font-size="12" text-anchor="%s">%s</text>`+"\n",
			lx, ly, anchor, html.EscapeString(label))
		angle += sweep
	}
	b.WriteString("</svg>\n")
	return b.String()
}
