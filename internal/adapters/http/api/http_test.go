package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/okian/streakcard/internal/adapters/github"
	"github.com/okian/streakcard/internal/adapters/http/api"
	"github.com/okian/streakcard/internal/adapters/render"
	service "github.com/okian/streakcard/internal/app"
	"github.com/okian/streakcard/internal/domain/model"
	"github.com/okian/streakcard/internal/domain/streak"
	"github.com/okian/streakcard/internal/domain/types"
	"github.com/okian/streakcard/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

var testNow = time.Date(2024, time.January, 10, 12, 0, 0, 0, time.UTC)

type mockDeps struct {
	mu         sync.Mutex
	summaries  map[string]types.Summary
	summaryErr error
	batchErr   error
	computeNow time.Time
}

func (m *mockDeps) Summary(ctx context.Context, username string) (types.Summary, error) {
	if m.summaryErr != nil {
		return types.Summary{}, m.summaryErr
	}
	sum, ok := m.summaries[username]
	if !ok {
		return types.Summary{}, fmt.Errorf("fetch calendar: %w", github.ErrUserNotFound)
	}
	return sum, nil
}

func (m *mockDeps) Compute(ctx context.Context, records []model.DailyRecord, now time.Time) streak.Result {
	m.mu.Lock()
	m.computeNow = now
	m.mu.Unlock()
	return streak.Compute(records, now)
}

func (m *mockDeps) Batch(ctx context.Context, usernames []string) ([]types.BatchItem, error) {
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	if len(usernames) == 0 {
		return nil, service.ErrEmptyBatch
	}
	items := make([]types.BatchItem, len(usernames))
	for i, name := range usernames {
		items[i].Username = name
		sum, err := m.Summary(ctx, name)
		if err != nil {
			items[i].Error = err.Error()
			continue
		}
		items[i].Summary = &sum
	}
	return items, nil
}

type mockRenderer struct {
	last render.Card
	err  error
}

func (m *mockRenderer) Render(w io.Writer, card render.Card, format render.Format) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.last = card
	_, _ = fmt.Fprintf(w, "%s:%s:%d", format, card.Username, card.Result.OngoingStreak)
	return format.ContentType(), nil
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func newDeps() *mockDeps {
	return &mockDeps{summaries: map[string]types.Summary{
		"alice": {Username: "alice", MaxStreak: 2, OngoingStreak: 1, TotalContributions: 10},
	}}
}

func newMux(deps *mockDeps, rend *mockRenderer) *http.ServeMux {
	server := api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}}, rend,
		api.WithClock(func() time.Time { return testNow }))
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return mux
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader = http.NoBody
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder, v any) {
	So(json.Unmarshal(w.Body.Bytes(), v), ShouldBeNil)
}

func TestServer_Routes(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := newDeps()
		rend := &mockRenderer{}
		mux := newMux(deps, rend)

		Convey("GET / reports the service is running", func() {
			w := do(mux, http.MethodGet, "/", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var body map[string]string
			decode(w, &body)
			So(body["message"], ShouldEqual, "GitHub Streak API is running!")
		})

		Convey("GET /healthz serves metrics", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("GET /stats serves the stats provider", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("GET /themes lists every theme", func() {
			w := do(mux, http.MethodGet, "/themes", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var body struct {
				Default string         `json:"default"`
				Themes  []render.Theme `json:"themes"`
			}
			decode(w, &body)
			So(body.Default, ShouldEqual, render.DefaultTheme)
			So(body.Themes, ShouldHaveLength, len(render.ThemeNames()))
		})

		Convey("GET /languages lists the languages", func() {
			w := do(mux, http.MethodGet, "/languages", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"ne"`)
		})

		Convey("Unknown methods are rejected", func() {
			w := do(mux, http.MethodPost, "/themes", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestStreakHandler(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := newDeps()
		rend := &mockRenderer{}
		mux := newMux(deps, rend)

		Convey("When a known user is requested", func() {
			w := do(mux, http.MethodGet, "/streak/alice", "")

			Convey("Then the summary is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var sum types.Summary
				decode(w, &sum)
				So(sum, ShouldResemble, deps.summaries["alice"])
			})
		})

		Convey("When the user does not exist", func() {
			w := do(mux, http.MethodGet, "/streak/ghost", "")

			Convey("Then 404 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(w.Body.String(), ShouldContainSubstring, `"code":"not_found"`)
			})
		})

		Convey("When the upstream fails", func() {
			deps.summaryErr = fmt.Errorf("fetch calendar: %w: Post \"https://ghe.internal/graphql\": dial tcp 10.0.0.7:443: connection refused", github.ErrUpstream)
			w := do(mux, http.MethodGet, "/streak/alice", "")

			Convey("Then 502 is returned with a fixed message", func() {
				So(w.Code, ShouldEqual, http.StatusBadGateway)
				var body struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				}
				decode(w, &body)
				So(body.Code, ShouldEqual, "upstream_error")
				So(body.Message, ShouldEqual, "error fetching data from github")
				So(w.Body.String(), ShouldNotContainSubstring, "ghe.internal")
				So(w.Body.String(), ShouldNotContainSubstring, "10.0.0.7")
			})
		})

		Convey("When no token is configured", func() {
			deps.summaryErr = fmt.Errorf("fetch calendar: %w", github.ErrMissingToken)
			w := do(mux, http.MethodGet, "/streak/alice", "")

			Convey("Then 502 is returned without the error detail", func() {
				So(w.Code, ShouldEqual, http.StatusBadGateway)
				So(w.Body.String(), ShouldContainSubstring, `"code":"upstream_error"`)
				So(w.Body.String(), ShouldNotContainSubstring, "token")
			})
		})

		Convey("When an SVG card is requested with a theme and language", func() {
			w := do(mux, http.MethodGet, "/streak/alice/image?format=svg&theme=ocean&lang=ja", "")

			Convey("Then the card is rendered without caching", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, "image/svg+xml")
				So(w.Header().Get("Cache-Control"), ShouldEqual, "no-store, no-cache, must-revalidate, proxy-revalidate")
				So(w.Body.String(), ShouldEqual, "svg:alice:1")
				So(rend.last.Theme, ShouldEqual, "ocean")
				So(rend.last.Lang, ShouldEqual, "ja")
				So(rend.last.Now, ShouldEqual, testNow)
			})
		})

		Convey("When a card is requested without a format", func() {
			w := do(mux, http.MethodGet, "/streak/alice/image", "")

			Convey("Then PNG is the default", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, "image/png")
			})
		})

		Convey("When an unsupported format is requested", func() {
			w := do(mux, http.MethodGet, "/streak/alice/image?format=gif", "")

			Convey("Then 400 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When rendering fails", func() {
			rend.err = errors.New("rasterizer exploded")
			w := do(mux, http.MethodGet, "/streak/alice/image", "")

			Convey("Then 500 is returned as JSON", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(w.Header().Get("Content-Type"), ShouldStartWith, "application/json")
				So(w.Body.String(), ShouldContainSubstring, "internal server error")
				So(w.Body.String(), ShouldNotContainSubstring, "rasterizer")
			})
		})
	})
}

func TestComputeHandler(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := newDeps()
		mux := newMux(deps, &mockRenderer{})

		Convey("When records and now are posted", func() {
			body := `{"records":[{"date":"2024-01-01","count":3},{"date":"2024-01-02","count":5},{"date":"2024-01-03","count":0},{"date":"2024-01-04","count":2}],"now":"2024-01-10T00:00:00Z"}`
			w := do(mux, http.MethodPost, "/streak/compute", body)

			Convey("Then the engine result is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var res streak.Result
				decode(w, &res)
				So(res, ShouldResemble, streak.Result{MaxStreak: 2, OngoingStreak: 1, TotalContributions: 10})
			})
		})

		Convey("When now is omitted", func() {
			w := do(mux, http.MethodPost, "/streak/compute", `{"records":[]}`)

			Convey("Then the server clock is used", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.computeNow, ShouldEqual, testNow)
				So(w.Body.String(), ShouldContainSubstring, `"max_streak":0`)
			})
		})

		Convey("When the input is invalid", func() {
			bodies := []string{
				`{"records":`,
				`{"records":[{"date":"01/02/2024","count":1}]}`,
				`{"records":[{"date":"2024-01-02","count":-1}]}`,
				`{"records":[{"date":"2024-01-02"}]}`,
				`{"records":[],"now":"yesterday"}`,
				`{"records":[],"extra":1}`,
				`{"records":[{"date":"2024-01-02","count":2147483648}]}`,
			}
			for _, body := range bodies {
				w := do(mux, http.MethodPost, "/streak/compute", body)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, `"code":"bad_request"`)
			}
		})
	})
}

func TestComputeHandler_CountBound(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newMux(newDeps(), &mockRenderer{})

		Convey("When a count would overflow the total", func() {
			body := fmt.Sprintf(`{"records":[{"date":"2024-01-01","count":%d},{"date":"2024-01-02","count":1}],"now":"2024-02-01T00:00:00Z"}`, math.MaxInt64)
			w := do(mux, http.MethodPost, "/streak/compute", body)

			Convey("Then the request is rejected before the engine runs", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, "must not exceed")
			})
		})

		Convey("When every record carries the largest accepted count", func() {
			var sb strings.Builder
			sb.WriteString(`{"records":[`)
			for i := 0; i < 10000; i++ {
				if i > 0 {
					sb.WriteByte(',')
				}
				day := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
				fmt.Fprintf(&sb, `{"date":%q,"count":%d}`, day.Format("2006-01-02"), math.MaxInt32)
			}
			sb.WriteString(`],"now":"2030-01-01T00:00:00Z"}`)
			w := do(mux, http.MethodPost, "/streak/compute", sb.String())

			Convey("Then the total stays positive", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var res streak.Result
				decode(w, &res)
				So(res.TotalContributions, ShouldEqual, 10000*math.MaxInt32)
				So(res.MaxStreak, ShouldEqual, 10000)
			})
		})
	})
}

func TestBatchHandler(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := newDeps()
		mux := newMux(deps, &mockRenderer{})

		Convey("When several users are posted", func() {
			w := do(mux, http.MethodPost, "/streaks", `{"usernames":["alice","ghost"]}`)

			Convey("Then results follow request order with inline errors", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body struct {
					Results []types.BatchItem `json:"results"`
				}
				decode(w, &body)
				So(body.Results, ShouldHaveLength, 2)
				So(body.Results[0].Summary.TotalContributions, ShouldEqual, 10)
				So(body.Results[1].Error, ShouldContainSubstring, "not found")
			})
		})

		Convey("When the batch is empty", func() {
			w := do(mux, http.MethodPost, "/streaks", `{"usernames":[]}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the queue is full", func() {
			deps.batchErr = service.ErrBackpressure
			w := do(mux, http.MethodPost, "/streaks", `{"usernames":["alice"]}`)
			So(w.Code, ShouldEqual, http.StatusTooManyRequests)
			So(w.Body.String(), ShouldContainSubstring, `"code":"backpressure"`)
		})
	})
}

func TestServer_Handler(t *testing.T) {
	Convey("Given the wrapped handler with a burst of two", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		server := api.NewServer(newDeps(), &mockStatsProvider{}, &mockRenderer{}, api.WithRateLimit(0.001, 2))
		mux := http.NewServeMux()
		server.Register(ctx, mux)
		h := server.Handler(ctx, mux)

		Convey("A request ID is assigned when missing", func() {
			w := do(h, http.MethodGet, "/", "")
			So(w.Header().Get("X-Request-ID"), ShouldNotBeEmpty)
		})

		Convey("A caller's request ID is echoed", func() {
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			req.Header.Set("X-Request-ID", "abc-123")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			So(w.Header().Get("X-Request-ID"), ShouldEqual, "abc-123")
		})

		Convey("Requests beyond the burst are rejected per client", func() {
			So(do(h, http.MethodGet, "/", "").Code, ShouldEqual, http.StatusOK)
			So(do(h, http.MethodGet, "/", "").Code, ShouldEqual, http.StatusOK)
			w := do(h, http.MethodGet, "/", "")
			So(w.Code, ShouldEqual, http.StatusTooManyRequests)
			So(w.Header().Get("Retry-After"), ShouldEqual, "1")

			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			req.RemoteAddr = "203.0.113.9:4711"
			other := httptest.NewRecorder()
			h.ServeHTTP(other, req)
			So(other.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Rotating X-Forwarded-For does not reset the bucket", func() {
			passed := 0
			for i := 0; i < 50; i++ {
				req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
				req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
				w := httptest.NewRecorder()
				h.ServeHTTP(w, req)
				if w.Code == http.StatusOK {
					passed++
				}
			}
			So(passed, ShouldEqual, 2)
		})

		Convey("CORS preflight is answered", func() {
			req := httptest.NewRequest(http.MethodOptions, "/streak/alice", http.NoBody)
			req.Header.Set("Origin", "https://example.com")
			req.Header.Set("Access-Control-Request-Method", http.MethodGet)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Access-Control-Allow-Origin"), ShouldNotBeEmpty)
		})
	})
}

func TestRateLimiter(t *testing.T) {
	Convey("Given a limiter with a burst of one", t, func() {
		rl := api.NewRateLimiter(0.001, 1)

		Convey("Each client gets its own bucket", func() {
			So(rl.Allow("a"), ShouldBeTrue)
			So(rl.Allow("a"), ShouldBeFalse)
			So(rl.Allow("b"), ShouldBeTrue)
		})
	})

	Convey("Given a limiter behind a trusted proxy", t, func() {
		rl := api.NewRateLimiter(0.001, 1, api.TrustForwardedFor(true))
		h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		send := func(fwd string) int {
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			req.RemoteAddr = "10.0.0.1:8080"
			req.Header.Set("X-Forwarded-For", fwd)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			return w.Code
		}

		Convey("Clients are keyed by the hop the proxy appended", func() {
			So(send("198.51.100.1, 203.0.113.5"), ShouldEqual, http.StatusOK)
			So(send("198.51.100.2, 203.0.113.5"), ShouldEqual, http.StatusTooManyRequests)
			So(send("203.0.113.6"), ShouldEqual, http.StatusOK)
		})
	})
}
