package render

import (
	"sort"
	"strings"
)

// DefaultTheme is used when a card names no theme or an unknown one.
const DefaultTheme = "midnight"

// Theme is a card colour palette. Colours are hex strings.
type Theme struct {
	Name        string `json:"name"`
	Background  string `json:"background"`
	Text        string `json:"text"`
	ProgressBar string `json:"progress_bar"`
	CircleFill  string `json:"circle_fill"`
	CircleText  string `json:"circle_text"`
}

var themes = map[string]Theme{
	"midnight":    {Background: "#1e1e1e", Text: "#ffffff", ProgressBar: "#5e17eb", CircleFill: "#5e17eb", CircleText: "#000000"},
	"sunset":      {Background: "#FFA07A", Text: "#000000", ProgressBar: "#FF4500", CircleFill: "#FFD700", CircleText: "#000000"},
	"ocean":       {Background: "#1E90FF", Text: "#ffffff", ProgressBar: "#00FFFF", CircleFill: "#00BFFF", CircleText: "#000000"},
	"forest":      {Background: "#228B22", Text: "#ffffff", ProgressBar: "#32CD32", CircleFill: "#006400", CircleText: "#ffffff"},
	"neon":        {Background: "#000000", Text: "#39ff14", ProgressBar: "#ff00ff", CircleFill: "#00ffff", CircleText: "#ff00ff"},
	"cyberpunk":   {Background: "#ff00ff", Text: "#00ffff", ProgressBar: "#ff4500", CircleFill: "#000000", CircleText: "#ff00ff"},
	"galaxy":      {Background: "#191970", Text: "#ADD8E6", ProgressBar: "#9370DB", CircleFill: "#8A2BE2", CircleText: "#ffffff"},
	"matrix":      {Background: "#000000", Text: "#00FF00", ProgressBar: "#008000", CircleFill: "#00FF00", CircleText: "#000000"},
	"rose_gold":   {Background: "#b76e79", Text: "#ffffff", ProgressBar: "#ffcccb", CircleFill: "#ff69b4", CircleText: "#ffffff"},
	"dark_knight": {Background: "#121212", Text: "#ffcc00", ProgressBar: "#8b0000", CircleFill: "#ff4500", CircleText: "#000000"},
	"aurora":      {Background: "#4B0082", Text: "#00FF00", ProgressBar: "#FFD700", CircleFill: "#FF69B4", CircleText: "#000000"},
	"lava":        {Background: "#8B0000", Text: "#FFD700", ProgressBar: "#FF4500", CircleFill: "#DC143C", CircleText: "#000000"},
	"goldenshade": {Background: "#FFF5CC", Text: "#1F1A17", ProgressBar: "#FFD700", CircleFill: "#FFC107", CircleText: "#1F1A17"},
}

// LookupTheme returns the named theme. Names are case-insensitive.
func LookupTheme(name string) (Theme, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	t, ok := themes[key]
	if !ok {
		return Theme{}, false
	}
	t.Name = key
	return t, true
}

// ThemeNames returns every theme name, sorted.
func ThemeNames() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
