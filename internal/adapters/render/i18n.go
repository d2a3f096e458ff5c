package render

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultLanguage is used when a requested language cannot be matched.
const DefaultLanguage = "en"

// Locale holds the card strings for one language.
type Locale struct {
	Code               string
	TotalContributions string
	OngoingStreak      string
	LongestStreak      string
	Days               string
	// YearProgress takes the formatted percentage and the year.
	YearProgress string
	Months       [12]string
	// Numerals maps ASCII digits to local digits. Empty means ASCII.
	Numerals []string
}

var locales = []Locale{
	{
		Code:               "en",
		TotalContributions: "Total Contributions",
		OngoingStreak:      "Ongoing Streak",
		LongestStreak:      "Longest Streak",
		Days:               "DAYS",
		YearProgress:       "%s%% of %s completed",
		Months: [12]string{
			"January", "February", "March", "April", "May", "June",
			"July", "August", "September", "October", "November", "December",
		},
	},
	{
		Code:               "ne",
		TotalContributions: "कुल योगदान",
		OngoingStreak:      "चालु स्ट्रिक",
		LongestStreak:      "सबैभन्दा लामो स्ट्रिक",
		Days:               "दिन",
		YearProgress:       "%s%% %s पूरा भयो",
		Months: [12]string{
			"जनवरी", "फेब्रुअरी", "मार्च", "अप्रिल", "मे", "जुन",
			"जुलाई", "अगस्ट", "सेप्टेम्बर", "अक्टोबर", "नोभेम्बर", "डिसेम्बर",
		},
		Numerals: []string{"०", "१", "२", "३", "४", "५", "६", "७", "८", "९"},
	},
	{
		Code:               "ja",
		TotalContributions: "総コントリビューション",
		OngoingStreak:      "現在のストリーク",
		LongestStreak:      "最長ストリーク",
		Days:               "日",
		YearProgress:       "%s%% 進捗 (%s年)",
		Months: [12]string{
			"1月", "2月", "3月", "4月", "5月", "6月",
			"7月", "8月", "9月", "10月", "11月", "12月",
		},
	},
}

var matcher = func() language.Matcher {
	tags := make([]language.Tag, len(locales))
	for i, l := range locales {
		tags[i] = language.MustParse(l.Code)
	}
	return language.NewMatcher(tags)
}()

// grouping is always done with English separators; digits are localized afterwards.
var grouping = message.NewPrinter(language.English)

// MatchLocale resolves a BCP 47 tag such as "en-GB" or "ne" to a supported
// locale. Unparseable or unsupported tags resolve to English.
func MatchLocale(tag string) Locale {
	t, err := language.Parse(strings.TrimSpace(tag))
	if err != nil {
		return locales[0]
	}
	_, idx, conf := matcher.Match(t)
	if conf == language.No {
		return locales[0]
	}
	return locales[idx]
}

// LanguageCodes returns the supported language codes, default first.
func LanguageCodes() []string {
	codes := make([]string, len(locales))
	for i, l := range locales {
		codes[i] = l.Code
	}
	return codes
}

// Number formats n with thousands grouping and local digits.
func (l Locale) Number(n int) string {
	return l.digits(grouping.Sprintf("%d", n))
}

// Date formats t as "Month D, YYYY".
func (l Locale) Date(t time.Time) string {
	return l.digits(fmt.Sprintf("%s %d, %d", l.Months[t.Month()-1], t.Day(), t.Year()))
}

// Progress formats the year progress line for t.
func (l Locale) Progress(t time.Time) string {
	pct := strconv.FormatFloat(YearProgress(t), 'f', 2, 64)
	return fmt.Sprintf(l.YearProgress, l.digits(pct), l.digits(strconv.Itoa(t.Year())))
}

func (l Locale) digits(s string) string {
	if len(l.Numerals) != 10 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) * 3)
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteString(l.Numerals[r-'0'])
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// YearProgress returns how far through its year t is, as a percentage
// rounded to two decimals. Day 1 of a year is the first day counted.
func YearProgress(t time.Time) float64 {
	daysInYear := time.Date(t.Year(), time.December, 31, 0, 0, 0, 0, time.UTC).YearDay()
	pct := float64(t.YearDay()) / float64(daysInYear) * 100
	rounded, _ := strconv.ParseFloat(strconv.FormatFloat(pct, 'f', 2, 64), 64)
	return rounded
}
