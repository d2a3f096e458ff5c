package render

import (
	"fmt"
	"io"
	"strconv"
	"text/template"
)

// text/template with an explicit XML escaper: html/template would apply HTML
// attribute rules to the SVG.
var svgTemplate = template.Must(template.New("card").Funcs(template.FuncMap{
	"x":    template.HTMLEscapeString,
	"f":    func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) },
	"half": func(v float64) float64 { return v / 2 },
}).Parse(`<svg xmlns="http://www.w3.org/2000/svg" width="{{.Width}}" height="{{.Height}}" viewBox="0 0 {{.Width}} {{.Height}}" font-family="'Go', 'Segoe UI', sans-serif">
  <rect width="{{.Width}}" height="{{.Height}}" rx="8" fill="{{x .Theme.Background}}"/>
  <text x="{{f .Left}}" y="{{f .TitleY}}" font-size="{{f .TitleSize}}" font-weight="bold" fill="{{x .Theme.Text}}">{{x .Title}}</text>
  <text x="{{f .Left}}" y="{{f .TotalLabelY}}" font-size="{{f .LabelSize}}" fill="{{x .Theme.Text}}">{{x .TotalLabel}}</text>
  <text x="{{f .Left}}" y="{{f .TotalY}}" font-size="{{f .ValueSize}}" font-weight="bold" fill="{{x .Theme.Text}}" data-role="total">{{x .Total}}</text>
  <text x="{{f .Left}}" y="{{f .LongestLabelY}}" font-size="{{f .LabelSize}}" fill="{{x .Theme.Text}}">{{x .LongestLabel}}</text>
  <text x="{{f .Left}}" y="{{f .LongestY}}" font-size="{{f .ValueSize}}" font-weight="bold" fill="{{x .Theme.Text}}" data-role="longest">{{x .Longest}}</text>
  <text x="{{f .CircleX}}" y="{{f .OngoingLabelY}}" font-size="{{f .LabelSize}}" text-anchor="middle" fill="{{x .Theme.Text}}">{{x .OngoingLabel}}</text>
  <circle cx="{{f .CircleX}}" cy="{{f .CircleY}}" r="{{f .CircleR}}" fill="{{x .Theme.CircleFill}}"/>
  <text x="{{f .CircleX}}" y="{{f .CircleY}}" font-size="{{f .StreakSize}}" font-weight="bold" text-anchor="middle" dominant-baseline="middle" fill="{{x .Theme.CircleText}}" data-role="ongoing">{{x .Streak}}</text>
  <text x="{{f .CircleX}}" y="{{f .DaysY}}" font-size="{{f .SmallSize}}" text-anchor="middle" dominant-baseline="middle" fill="{{x .Theme.CircleText}}">{{x .DaysLabel}}</text>
  <text x="{{f .Left}}" y="{{f .ProgressY}}" font-size="{{f .SmallSize}}" fill="{{x .Theme.Text}}">{{x .ProgressText}}</text>
  <rect x="{{f .BarX}}" y="{{f .BarY}}" width="{{f .BarW}}" height="{{f .BarH}}" rx="{{f (half .BarH)}}" fill="{{x .Theme.Text}}"/>
  {{- if gt .BarFill 0.0}}
  <rect x="{{f .BarX}}" y="{{f .BarY}}" width="{{f .BarFill}}" height="{{f .BarH}}" rx="{{f (half .BarH)}}" fill="{{x .Theme.ProgressBar}}"/>
  {{- end}}
  <text x="{{f .DateX}}" y="{{f .DateY}}" font-size="{{f .SmallSize}}" text-anchor="end" fill="{{x .Theme.Text}}">{{x .Date}}</text>
</svg>
`))

func renderSVG(w io.Writer, v view) error {
	if err := svgTemplate.Execute(w, v); err != nil {
		return fmt.Errorf("execute svg template: %w", err)
	}
	return nil
}
