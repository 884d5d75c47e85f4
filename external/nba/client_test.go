package nba

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/tour-dates/internal/domain/tourdate"
	"github.com/riskibarqy/tour-dates/internal/platform/logging"
	"github.com/riskibarqy/tour-dates/internal/platform/resilience"
	"github.com/riskibarqy/tour-dates/internal/usecase"
	"github.com/stretchr/testify/require"
)

const scheduleHTML = `<html><body>
<a data-id="nba:games:main:game:card" href="/game/bos-vs-nyk-0022500101">BOS @ NYK</a>
<a data-id="nba:games:main:game:card" href="/game/bos-vs-nyk-0022500101">duplicate</a>
<a data-id="nba:games:main:game:card" href="/game/lal-vs-gsw-0022500102/">LAL @ GSW</a>
<a data-id="nba:games:main:game:card" href="/game/preview">no id</a>
<a data-id="other" href="/game/x-9999">ignored</a>
</body></html>`

const boxScoreHTML = `<html><body>
<section class="GameBoxscore_gbTableSection__zTOUg">
  <h2>Boston Celtics</h2>
  <table><tbody>
    <tr>
      <td><span class="GameBoxscoreTablePlayer_gbpNameFull__cf_sn">Jayson Tatum</span></td>
      <td>38:12</td><td>4</td><td>28</td><td>14.3</td>
    </tr>
    <tr>
      <td><span class="GameBoxscoreTablePlayer_gbpNameFull__cf_sn">Jaylen Brown</span></td>
      <td>35:00</td><td>10</td><td>18</td><td>.556</td>
    </tr>
    <tr>
      <td><span class="GameBoxscoreTablePlayer_gbpNameFull__cf_sn">Bench Guy</span></td>
      <td>DNP</td><td>0</td><td>0</td><td>-</td>
    </tr>
    <tr>
      <td><span class="GameBoxscoreTable_totals__tM8PG">Totals</span></td>
      <td>240</td><td>40</td><td>90</td><td>44.4</td>
    </tr>
  </tbody></table>
</section>
<section class="GameBoxscore_gbTableSection__zTOUg">
  <h2>New York Knicks</h2>
  <table><tbody>
    <tr>
      <td><span class="GameBoxscoreTablePlayer_gbpNameFull__cf_sn">Jalen Brunson</span></td>
      <td>36:40</td><td>3</td><td>15</td><td>20%</td>
    </tr>
    <tr><td>short row</td></tr>
  </tbody></table>
</section>
</body></html>`

func newTestClient(t *testing.T, handler http.Handler, retries int, breaker resilience.CircuitBreakerConfig) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(ClientConfig{
		HTTPClient:     server.Client(),
		BaseURL:        server.URL,
		MaxRetries:     retries,
		RetryBackoff:   time.Millisecond,
		Logger:         logging.NewNop(),
		CircuitBreaker: breaker,
	})
	require.NoError(t, err)
	return client
}

func TestClient_ListGames(t *testing.T) {
	var gotDate, gotUA string
	mux := http.NewServeMux()
	mux.HandleFunc("/games", func(w http.ResponseWriter, r *http.Request) {
		gotDate = r.URL.Query().Get("date")
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(scheduleHTML))
	})
	client := newTestClient(t, mux, 0, resilience.CircuitBreakerConfig{})

	date := time.Date(2025, 11, 20, 15, 0, 0, 0, time.UTC)
	games, err := client.ListGames(context.Background(), date)
	require.NoError(t, err)
	require.Equal(t, "2025-11-20", gotDate)
	require.Equal(t, DefaultUserAgent, gotUA)

	require.Len(t, games, 2)
	require.Equal(t, "0022500101", games[0].ID)
	require.Equal(t, client.baseURL.String()+"/game/bos-vs-nyk-0022500101", games[0].URL)
	require.Equal(t, "0022500102", games[1].ID)
	require.Equal(t, time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC), games[1].Date)
}

func TestClient_FetchBoxScore(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/game/bos-vs-nyk-0022500101/box-score", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(boxScoreHTML))
	})
	client := newTestClient(t, mux, 0, resilience.CircuitBreakerConfig{})

	game := usecase.ScheduledGame{
		ID:   "0022500101",
		URL:  client.baseURL.String() + "/game/bos-vs-nyk-0022500101/",
		Date: time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC),
	}
	rows, err := client.FetchBoxScore(context.Background(), game, "2025-26")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	tatum := rows[0]
	require.Equal(t, "Jayson Tatum", tatum.PlayerName)
	require.Equal(t, "BOS", tatum.TeamAbbr)
	require.Equal(t, "NYK", tatum.OpponentAbbr)
	require.Equal(t, 4, tatum.FGM)
	require.Equal(t, 28, tatum.FGA)
	require.InDelta(t, 0.143, tatum.FGPct, 1e-9)
	require.Equal(t, "2025-26", tatum.Season)
	require.True(t, tatum.IsTourDate())

	require.Equal(t, "Jaylen Brown", rows[1].PlayerName)
	require.InDelta(t, 0.556, rows[1].FGPct, 1e-9)
	require.False(t, rows[1].IsTourDate())

	require.Equal(t, "Jalen Brunson", rows[2].PlayerName)
	require.Equal(t, "NYK", rows[2].TeamAbbr)
	require.Equal(t, "BOS", rows[2].OpponentAbbr)
	require.InDelta(t, 0.20, rows[2].FGPct, 1e-9)

	require.Len(t, tourdate.FilterTourDates(rows), 2)
}

func TestClient_SingleKnownTeamUsesTBD(t *testing.T) {
	html := `<section class="GameBoxscore_gbTableSection__zTOUg"><h2>Springfield Atoms</h2><table><tbody>
<tr><td><span class="GameBoxscoreTablePlayer_gbpNameFull__cf_sn">X</span></td><td></td><td>1</td><td>9</td><td>11.1</td></tr>
</tbody></table></section>
<section class="GameBoxscore_gbTableSection__zTOUg"><h2>Utah Jazz</h2><table><tbody>
<tr><td><span class="GameBoxscoreTablePlayer_gbpNameFull__cf_sn">Lauri Markkanen</span></td><td></td><td>1</td><td>9</td><td>11.1</td></tr>
</tbody></table></section>`

	rows, err := parseBoxScore(strings.NewReader(html), usecase.ScheduledGame{ID: "1"}, "2025-26", logging.NewNop())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "UTA", rows[0].TeamAbbr)
	require.Equal(t, unknownOpponent, rows[0].OpponentAbbr)
}

func TestClient_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/games", func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(scheduleHTML))
	})
	client := newTestClient(t, mux, 2, resilience.CircuitBreakerConfig{})

	games, err := client.ListGames(context.Background(), time.Now())
	require.NoError(t, err)
	require.Len(t, games, 2)
	require.EqualValues(t, 3, calls.Load())
}

func TestClient_NotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/games", func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.NotFound(w, nil)
	})
	client := newTestClient(t, mux, 3, resilience.CircuitBreakerConfig{})

	_, err := client.ListGames(context.Background(), time.Now())
	require.ErrorIs(t, err, usecase.ErrNotFound)
	require.EqualValues(t, 1, calls.Load())
}

func TestClient_CircuitBreakerOpens(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/games", func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	client := newTestClient(t, mux, 0, resilience.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
	})

	for i := 0; i < 2; i++ {
		_, err := client.ListGames(context.Background(), time.Now())
		require.Error(t, err)
		require.False(t, errors.Is(err, usecase.ErrDependencyUnavailable))
	}

	_, err := client.ListGames(context.Background(), time.Now())
	require.ErrorIs(t, err, usecase.ErrDependencyUnavailable)
	require.EqualValues(t, 2, calls.Load())
}

func TestExtractGameID(t *testing.T) {
	cases := map[string]string{
		"/game/bos-vs-nyk-0022500101":  "0022500101",
		"/game/bos-vs-nyk-0022500101/": "0022500101",
		"0022500101":                   "0022500101",
		"/game/preview":                "",
		"/game/bos-vs-nyk-12a":         "",
		"":                             "",
	}
	for href, want := range cases {
		require.Equal(t, want, extractGameID(href), "href %q", href)
	}
}

func TestParsePercent(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{in: "14.3", want: 0.143, ok: true},
		{in: "14.3%", want: 0.143, ok: true},
		{in: ".25", want: 0.25, ok: true},
		{in: "1", want: 1, ok: true},
		{in: "--", ok: false},
		{in: "-", ok: false},
		{in: "", ok: false},
		{in: "n/a", ok: false},
	}
	for _, tc := range cases {
		got, ok := parsePercent(tc.in)
		require.Equal(t, tc.ok, ok, "input %q", tc.in)
		if tc.ok {
			require.InDelta(t, tc.want, got, 1e-9, "input %q", tc.in)
		}
	}
}
