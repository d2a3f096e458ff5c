package render

import (
	"bytes"
	"errors"
	"image/png"
	"testing"
	"time"

	"github.com/okian/streakcard/internal/domain/streak"
	"github.com/okian/streakcard/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func newTestRenderer(t *testing.T, opts ...Option) *Renderer {
	t.Helper()
	_ = logger.Init()
	r, err := NewRenderer(opts...)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func testCard() Card {
	return Card{
		Username: "octocat",
		Result:   streak.Result{MaxStreak: 42, OngoingStreak: 7, TotalContributions: 1234},
		Now:      time.Date(2024, time.July, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestRenderer_PNG(t *testing.T) {
	r := newTestRenderer(t, WithSize(300, 175))

	Convey("Given a renderer sized 300x175", t, func() {
		Convey("When a PNG card is rendered", func() {
			var buf bytes.Buffer
			ct, err := r.Render(&buf, testCard(), FormatPNG)

			Convey("Then a PNG of the configured size is produced", func() {
				So(err, ShouldBeNil)
				So(ct, ShouldEqual, "image/png")
				cfg, err := png.DecodeConfig(bytes.NewReader(buf.Bytes()))
				So(err, ShouldBeNil)
				So(cfg.Width, ShouldEqual, 300)
				So(cfg.Height, ShouldEqual, 175)
			})
		})
	})
}

func TestRenderer_SVG(t *testing.T) {
	r := newTestRenderer(t)

	Convey("Given the default renderer", t, func() {
		Convey("When an English SVG card is rendered", func() {
			var buf bytes.Buffer
			ct, err := r.Render(&buf, testCard(), FormatSVG)
			out := buf.String()

			Convey("Then the numbers and labels are present", func() {
				So(err, ShouldBeNil)
				So(ct, ShouldEqual, "image/svg+xml")
				So(out, ShouldContainSubstring, `width="600" height="350"`)
				So(out, ShouldContainSubstring, `data-role="total">1,234<`)
				So(out, ShouldContainSubstring, `data-role="longest">42<`)
				So(out, ShouldContainSubstring, `data-role="ongoing">7<`)
				So(out, ShouldContainSubstring, "Total Contributions")
				So(out, ShouldContainSubstring, "July 1, 2024")
				So(out, ShouldContainSubstring, "50.00% of 2024 completed")
			})

			Convey("And the default theme is used", func() {
				So(out, ShouldContainSubstring, `fill="#1e1e1e"`)
			})
		})

		Convey("When the card is Nepali with the ocean theme", func() {
			card := testCard()
			card.Lang = "ne"
			card.Theme = "Ocean"
			var buf bytes.Buffer
			_, err := r.Render(&buf, card, FormatSVG)
			out := buf.String()

			Convey("Then Devanagari numerals and the theme colours are used", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, `data-role="total">१,२३४<`)
				So(out, ShouldContainSubstring, `data-role="ongoing">७<`)
				So(out, ShouldContainSubstring, "जुलाई १, २०२४")
				So(out, ShouldContainSubstring, `fill="#1E90FF"`)
			})
		})

		Convey("When the username needs escaping", func() {
			card := testCard()
			card.Username = `<script>&"`
			var buf bytes.Buffer
			_, err := r.Render(&buf, card, FormatSVG)

			Convey("Then it is escaped", func() {
				So(err, ShouldBeNil)
				So(buf.String(), ShouldNotContainSubstring, "<script>")
				So(buf.String(), ShouldContainSubstring, "&lt;script&gt;&amp;")
			})
		})

		Convey("When an unknown format is requested", func() {
			var buf bytes.Buffer
			_, err := r.Render(&buf, testCard(), Format("gif"))

			Convey("Then ErrUnknownFormat is returned", func() {
				So(errors.Is(err, ErrUnknownFormat), ShouldBeTrue)
				So(buf.Len(), ShouldEqual, 0)
			})
		})
	})
}

func TestParseFormat(t *testing.T) {
	Convey("ParseFormat accepts png, svg and empty", t, func() {
		f, err := ParseFormat("")
		So(err, ShouldBeNil)
		So(f, ShouldEqual, FormatPNG)

		f, err = ParseFormat("SVG")
		So(err, ShouldBeNil)
		So(f, ShouldEqual, FormatSVG)

		_, err = ParseFormat("jpeg")
		So(errors.Is(err, ErrUnknownFormat), ShouldBeTrue)
	})
}

func TestThemes(t *testing.T) {
	Convey("Given the theme table", t, func() {
		Convey("Every theme is resolvable by name", func() {
			names := ThemeNames()
			So(names, ShouldHaveLength, 13)
			So(names, ShouldContain, DefaultTheme)
			for _, name := range names {
				th, ok := LookupTheme(name)
				So(ok, ShouldBeTrue)
				So(th.Name, ShouldEqual, name)
				So(th.Background, ShouldStartWith, "#")
			}
		})

		Convey("Unknown names are not found", func() {
			_, ok := LookupTheme("plaid")
			So(ok, ShouldBeFalse)
		})

		Convey("An unknown theme on a card falls back to the renderer default", func() {
			r := newTestRenderer(t, WithDefaultTheme("lava"))
			card := testCard()
			card.Theme = "plaid"
			So(r.view(card).Theme.Name, ShouldEqual, "lava")
		})
	})
}

func TestLocales(t *testing.T) {
	Convey("Given the supported languages", t, func() {
		Convey("Regional and unknown tags are matched", func() {
			So(MatchLocale("en-GB").Code, ShouldEqual, "en")
			So(MatchLocale("ja-JP").Code, ShouldEqual, "ja")
			So(MatchLocale("ne").Code, ShouldEqual, "ne")
			So(MatchLocale("fr").Code, ShouldEqual, "en")
			So(MatchLocale("!!").Code, ShouldEqual, "en")
		})

		Convey("Japanese formats dates and progress", func() {
			ja := MatchLocale("ja")
			now := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
			So(ja.Date(now), ShouldEqual, "3月 5, 2024")
			So(ja.Progress(now), ShouldContainSubstring, "(2024年)")
		})

		Convey("Numbers are grouped", func() {
			So(MatchLocale("en").Number(1234567), ShouldEqual, "1,234,567")
			So(MatchLocale("en").Number(0), ShouldEqual, "0")
		})

		So(LanguageCodes(), ShouldResemble, []string{"en", "ne", "ja"})
	})
}

func TestYearProgress(t *testing.T) {
	Convey("Year progress is day of year over days in year", t, func() {
		So(YearProgress(time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)), ShouldEqual, 0.27)
		So(YearProgress(time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC)), ShouldEqual, 100.0)
		So(YearProgress(time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)), ShouldEqual, 50.0)
		So(YearProgress(time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC)), ShouldEqual, 100.0)
	})
}
