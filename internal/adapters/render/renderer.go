// Package render draws streak cards as PNG or SVG images.
package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/okian/streakcard/internal/domain/streak"
	"github.com/okian/streakcard/pkg/logger"
	"github.com/okian/streakcard/pkg/metrics"
)

// Default card size in pixels.
const (
	DefaultWidth  = 600
	DefaultHeight = 350
)

// Format is an output image format.
type Format string

// Supported formats.
const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// ParseFormat maps a query value to a Format. Empty means PNG.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(FormatPNG):
		return FormatPNG, nil
	case string(FormatSVG):
		return FormatSVG, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// Card is everything needed to draw one streak card.
type Card struct {
	Username string
	Result   streak.Result
	Now      time.Time
	Theme    string
	Lang     string
}

// Option applies a configuration option to the Renderer.
type Option func(*Renderer)

// WithSize sets the card size. Non-positive values are ignored.
func WithSize(width, height int) Option {
	return func(r *Renderer) {
		if width > 0 && height > 0 {
			r.width, r.height = width, height
		}
	}
}

// WithDefaultTheme sets the theme used for unknown theme names.
func WithDefaultTheme(name string) Option {
	return func(r *Renderer) {
		if _, ok := LookupTheme(name); ok {
			r.defaultTheme = name
		}
	}
}

// WithDefaultLanguage sets the language used when a card names none.
func WithDefaultLanguage(code string) Option {
	return func(r *Renderer) {
		if code != "" {
			r.defaultLang = code
		}
	}
}

// WithLogger sets a custom logger for the renderer.
func WithLogger(l logger.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// Renderer draws cards. It is safe for concurrent use.
type Renderer struct {
	width        int
	height       int
	defaultTheme string
	defaultLang  string
	fonts        *fontSet
	logger       logger.Logger
}

// NewRenderer loads the card fonts and returns a renderer.
func NewRenderer(opts ...Option) (*Renderer, error) {
	r := &Renderer{
		width:        DefaultWidth,
		height:       DefaultHeight,
		defaultTheme: DefaultTheme,
		defaultLang:  DefaultLanguage,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.Named("render")
	}
	fonts, err := loadFonts()
	if err != nil {
		return nil, err
	}
	r.fonts = fonts
	return r, nil
}

// Close releases the font sources.
func (r *Renderer) Close() error {
	return r.fonts.Close()
}

// Size returns the card width and height.
func (r *Renderer) Size() (int, int) {
	return r.width, r.height
}

// Render writes card to w in the given format and returns its content type.
func (r *Renderer) Render(w io.Writer, card Card, format Format) (string, error) {
	start := time.Now()
	v := r.view(card)

	var err error
	switch format {
	case FormatPNG:
		err = r.renderPNG(w, v)
	case FormatSVG:
		err = renderSVG(w, v)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		metrics.RecordErrorByComponent("render", string(format))
		return "", err
	}

	metrics.RecordCardRendered(string(format), v.Theme.Name, float64(time.Since(start).Milliseconds()))
	return format.ContentType(), nil
}

// view is the resolved text and geometry of a card, shared by both formats.
type view struct {
	Width, Height int
	Theme         Theme

	Title        string
	Streak       string
	DaysLabel    string
	OngoingLabel string
	TotalLabel   string
	Total        string
	LongestLabel string
	Longest      string
	ProgressText string
	Progress     float64
	Date         string

	Left    float64
	CircleX float64
	CircleY float64
	CircleR float64
	BarX    float64
	BarY    float64
	BarW    float64
	BarH    float64
	BarFill float64

	TitleY        float64
	TotalLabelY   float64
	TotalY        float64
	LongestLabelY float64
	LongestY      float64
	OngoingLabelY float64
	DaysY         float64
	ProgressY     float64
	DateX         float64
	DateY         float64

	TitleSize  float64
	LabelSize  float64
	ValueSize  float64
	StreakSize float64
	SmallSize  float64
}

func (r *Renderer) view(card Card) view {
	theme, ok := LookupTheme(card.Theme)
	if !ok {
		theme, _ = LookupTheme(r.defaultTheme)
	}
	lang := card.Lang
	if strings.TrimSpace(lang) == "" {
		lang = r.defaultLang
	}
	loc := MatchLocale(lang)
	now := card.Now
	if now.IsZero() {
		now = time.Now()
	}

	w, h := float64(r.width), float64(r.height)
	progress := YearProgress(now)
	v := view{
		Width:        r.width,
		Height:       r.height,
		Theme:        theme,
		Title:        card.Username,
		Streak:       loc.Number(card.Result.OngoingStreak),
		DaysLabel:    loc.Days,
		OngoingLabel: loc.OngoingStreak,
		TotalLabel:   loc.TotalContributions,
		Total:        loc.Number(card.Result.TotalContributions),
		LongestLabel: loc.LongestStreak,
		Longest:      loc.Number(card.Result.MaxStreak),
		ProgressText: loc.Progress(now),
		Progress:     progress,
		Date:         loc.Date(now),

		Left:    w * 0.066,
		CircleX: w * 0.78,
		CircleY: h * 0.40,
		CircleR: h * 0.20,
		BarX:    w * 0.066,
		BarY:    h * 0.78,
		BarW:    w * 0.868,
		BarH:    h * 0.045,

		TitleY:        h * 0.15,
		TotalLabelY:   h * 0.27,
		TotalY:        h * 0.39,
		LongestLabelY: h * 0.50,
		LongestY:      h * 0.62,
		ProgressY:     h * 0.75,
		DateY:         h * 0.95,

		TitleSize:  h * 0.09,
		LabelSize:  h * 0.05,
		ValueSize:  h * 0.10,
		StreakSize: h * 0.13,
		SmallSize:  h * 0.04,
	}
	v.BarFill = v.BarW * progress / 100
	v.OngoingLabelY = v.CircleY - v.CircleR - h*0.03
	v.DaysY = v.CircleY + v.CircleR*0.5
	v.DateX = v.BarX + v.BarW
	return v
}
