package export

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"time"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/hrygo/poplog/server/stats"
)

// Card geometry. Days are laid out five per row; each day shows at most
// cardMaxBlocks blocks and a "+N" for the rest.
const (
	CardWidth  = 900
	CardHeight = 1200

	cardDays      = 7
	cardPerRow    = 5
	cardMaxBlocks = 6
	cardOriginX   = 80
	cardOriginY   = 260
	cardColStep   = 160
	cardRowStep   = 220
	blockWidth    = 22
	blockHeight   = 40
	blockStep     = 26
)

type palette struct {
	top, bottom, text, block color.NRGBA
}

var (
	lightPalette = palette{
		top:    color.NRGBA{0xFF, 0xEA, 0xDB, 0xFF},
		bottom: color.NRGBA{0xFF, 0xF7, 0xED, 0xFF},
		text:   color.NRGBA{0x4E, 0x34, 0x2E, 0xFF},
		block:  color.NRGBA{0x8D, 0x5A, 0x3B, 0xFF},
	}
	darkPalette = palette{
		top:    color.NRGBA{0x2A, 0x1F, 0x1C, 0xFF},
		bottom: color.NRGBA{0x1A, 0x14, 0x12, 0xFF},
		text:   color.NRGBA{0xF5, 0xE9, 0xE4, 0xFF},
		block:  color.NRGBA{0xC8, 0x8E, 0x6A, 0xFF},
	}
)

// CardOptions tune the weekly share card.
type CardOptions struct {
	Dark bool
	// Width scales the card, keeping its aspect ratio. Zero keeps CardWidth.
	Width int
}

// RenderCard draws the last seven recorded days of days as a share card.
func RenderCard(days []stats.DailyStats, asOf time.Time, opts CardOptions) *image.NRGBA {
	p := lightPalette
	if opts.Dark {
		p = darkPalette
	}

	card := gradient(CardWidth, CardHeight, p.top, p.bottom)
	drawText(card, "POPLOG WEEKLY", 60, 90, p.text)
	drawText(card, asOf.Format("2006-01-02"), 60, 140, p.text)

	if len(days) > cardDays {
		days = days[len(days)-cardDays:]
	}
	block := imaging.New(blockWidth, blockHeight, p.block)
	for i, d := range days {
		x := cardOriginX + (i%cardPerRow)*cardColStep
		y := cardOriginY + (i/cardPerRow)*cardRowStep
		drawText(card, d.Date[5:], x, y-20, p.text)

		column := imaging.New(cardMaxBlocks*blockStep, blockHeight, color.Transparent)
		for j := 0; j < min(d.Total, cardMaxBlocks); j++ {
			column = imaging.Paste(column, block, image.Pt(j*blockStep, 0))
		}
		card = imaging.Overlay(card, column, image.Pt(x, y), 1.0)
		if d.Total > cardMaxBlocks {
			drawText(card, fmt.Sprintf("+%d", d.Total-cardMaxBlocks), x+cardMaxBlocks*blockStep, y+blockHeight/2, p.text)
		}
	}
	drawText(card, "regular, hydrated, high fiber", 60, CardHeight-80, p.text)

	if opts.Width > 0 && opts.Width != CardWidth {
		return imaging.Resize(card, opts.Width, 0, imaging.Lanczos)
	}
	return card
}

// WriteCard encodes the share card as PNG.
func WriteCard(w io.Writer, days []stats.DailyStats, asOf time.Time, opts CardOptions) error {
	if err := imaging.Encode(w, RenderCard(days, asOf, opts), imaging.PNG); err != nil {
		return errors.Wrap(err, "failed to encode card")
	}
	return nil
}

// CardFileName is the download name of a share card made at now.
func CardFileName(now time.Time) string {
	return fmt.Sprintf("poop-weekly-card-%s.png", now.Format("2006-01-02"))
}

func gradient(w, h int, top, bottom color.NRGBA) *image.NRGBA {
	img := imaging.New(w, h, top)
	for y := 0; y < h; y++ {
		c := lerp(top, bottom, float64(y)/float64(h-1))
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func lerp(a, b color.NRGBA, t float64) color.NRGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t + 0.5)
	}
	return color.NRGBA{mix(a.R, b.R), mix(a.G, b.G), mix(a.B, b.B), 0xFF}
}

func drawText(dst *image.NRGBA, s string, x, y int, c color.NRGBA) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
