package render

import (
	"fmt"
	"io"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

type fontSet struct {
	regular *text.FontSource
	bold    *text.FontSource
}

func loadFonts() (*fontSet, error) {
	regular, err := text.NewFontSource(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("%w: regular: %w", ErrFontLoad, err)
	}
	bold, err := text.NewFontSource(gobold.TTF)
	if err != nil {
		_ = regular.Close()
		return nil, fmt.Errorf("%w: bold: %w", ErrFontLoad, err)
	}
	return &fontSet{regular: regular, bold: bold}, nil
}

func (f *fontSet) Close() error {
	if f == nil {
		return nil
	}
	err := f.regular.Close()
	if berr := f.bold.Close(); err == nil {
		err = berr
	}
	return err
}

func (r *Renderer) renderPNG(w io.Writer, v view) error {
	dc := gg.NewContext(v.Width, v.Height)
	defer func() { _ = dc.Close() }()

	dc.ClearWithColor(gg.Hex(v.Theme.Background))

	dc.SetHexColor(v.Theme.Text)
	dc.SetFont(r.fonts.bold.Face(v.TitleSize))
	dc.DrawString(v.Title, v.Left, v.TitleY)

	dc.SetFont(r.fonts.regular.Face(v.LabelSize))
	dc.DrawString(v.TotalLabel, v.Left, v.TotalLabelY)
	dc.DrawString(v.LongestLabel, v.Left, v.LongestLabelY)
	dc.DrawStringAnchored(v.OngoingLabel, v.CircleX, v.OngoingLabelY, 0.5, 0)

	dc.SetFont(r.fonts.bold.Face(v.ValueSize))
	dc.DrawString(v.Total, v.Left, v.TotalY)
	dc.DrawString(v.Longest, v.Left, v.LongestY)

	dc.SetHexColor(v.Theme.CircleFill)
	dc.DrawCircle(v.CircleX, v.CircleY, v.CircleR)
	if err := dc.Fill(); err != nil {
		return fmt.Errorf("fill circle: %w", err)
	}
	dc.SetHexColor(v.Theme.CircleText)
	dc.SetFont(r.fonts.bold.Face(v.StreakSize))
	dc.DrawStringAnchored(v.Streak, v.CircleX, v.CircleY, 0.5, 0.3)
	dc.SetFont(r.fonts.regular.Face(v.SmallSize))
	dc.DrawStringAnchored(v.DaysLabel, v.CircleX, v.DaysY, 0.5, 0.3)

	dc.SetHexColor(v.Theme.Text)
	dc.DrawString(v.ProgressText, v.Left, v.ProgressY)
	dc.DrawRoundedRectangle(v.BarX, v.BarY, v.BarW, v.BarH, v.BarH/2)
	if err := dc.Fill(); err != nil {
		return fmt.Errorf("fill progress track: %w", err)
	}
	if v.BarFill > 0 {
		dc.SetHexColor(v.Theme.ProgressBar)
		dc.DrawRoundedRectangle(v.BarX, v.BarY, v.BarFill, v.BarH, v.BarH/2)
		if err := dc.Fill(); err != nil {
			return fmt.Errorf("fill progress bar: %w", err)
		}
	}

	dc.SetHexColor(v.Theme.Text)
	dc.DrawStringAnchored(v.Date, v.DateX, v.DateY, 1, 0)

	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}
