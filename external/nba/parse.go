package nba

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/riskibarqy/tour-dates/internal/domain/tourdate"
	"github.com/riskibarqy/tour-dates/internal/platform/logging"
	"github.com/riskibarqy/tour-dates/internal/usecase"
)

const (
	gameCardSelector     = "a[data-id='nba:games:main:game:card']"
	boxScoreSectionSel   = "section.GameBoxscore_gbTableSection__zTOUg"
	totalsRowMarkerSel   = "span.GameBoxscoreTable_totals__tM8PG"
	playerFullNameSel    = ".GameBoxscoreTablePlayer_gbpNameFull__cf_sn"
	minBoxScoreCellCount = 5
)

type playerLine struct {
	name  string
	fgm   int
	fga   int
	fgPct float64
}

type teamBox struct {
	abbr    string
	players []playerLine
}

func parseSchedule(r io.Reader, base *url.URL, date time.Time) ([]usecase.ScheduledGame, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse schedule html: %w", err)
	}

	seen := make(map[string]struct{})
	out := make([]usecase.ScheduledGame, 0, 16)
	doc.Find(gameCardSelector).Each(func(_ int, card *goquery.Selection) {
		href, ok := card.Attr("href")
		if !ok {
			return
		}
		id := extractGameID(href)
		if id == "" {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		seen[id] = struct{}{}
		out = append(out, usecase.ScheduledGame{
			ID:   id,
			URL:  base.ResolveReference(ref).String(),
			Date: date,
		})
	})
	return out, nil
}

// extractGameID returns the trailing numeric segment of a game href such as
// "/game/bos-vs-nyk-0022500101", or "" when there is none.
func extractGameID(href string) string {
	trimmed := strings.Trim(strings.TrimSpace(href), "/")
	if trimmed == "" {
		return ""
	}
	candidate := trimmed[strings.LastIndex(trimmed, "-")+1:]
	if candidate == "" {
		return ""
	}
	for _, r := range candidate {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return candidate
}

func parseBoxScore(r io.Reader, game usecase.ScheduledGame, season string, logger *logging.Logger) ([]tourdate.TourDate, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse box score html: %w", err)
	}

	teams := make([]teamBox, 0, 2)
	doc.Find(boxScoreSectionSel).Each(func(_ int, section *goquery.Selection) {
		header := section.Find("h2").First()
		if header.Length() == 0 {
			return
		}
		teamName := strings.TrimSpace(header.Text())
		abbr, ok := TeamAbbr(teamName)
		if !ok {
			logger.Warn("unrecognised team name in box score", "team", teamName, "game_id", game.ID)
			return
		}
		players := parsePlayerRows(section)
		if len(players) == 0 {
			return
		}
		teams = append(teams, teamBox{abbr: abbr, players: players})
	})

	if len(teams) == 0 {
		logger.Debug("no team data extracted", "game_id", game.ID)
		return nil, nil
	}

	out := make([]tourdate.TourDate, 0, 32)
	for idx, team := range teams {
		opponent := unknownOpponent
		if len(teams) == 2 {
			opponent = teams[1-idx].abbr
		}
		for _, p := range team.players {
			out = append(out, tourdate.TourDate{
				Season:       season,
				PlayerName:   p.name,
				TeamAbbr:     team.abbr,
				OpponentAbbr: opponent,
				GameID:       game.ID,
				GameDate:     game.Date,
				FGM:          p.fgm,
				FGA:          p.fga,
				FGPct:        p.fgPct,
			})
		}
	}
	return out, nil
}

func parsePlayerRows(section *goquery.Selection) []playerLine {
	tbody := section.Find("tbody").First()
	if tbody.Length() == 0 {
		return nil
	}

	var out []playerLine
	tbody.Find("tr").Each(func(_ int, row *goquery.Selection) {
		if row.Find(totalsRowMarkerSel).Length() > 0 {
			return
		}
		cells := row.Find("td")
		if cells.Length() < minBoxScoreCellCount {
			return
		}
		nameTag := cells.Eq(0).Find(playerFullNameSel).First()
		if nameTag.Length() == 0 {
			return
		}

		fgm, okM := parseInt(cells.Eq(2).Text())
		fga, okA := parseInt(cells.Eq(3).Text())
		pct, okP := parsePercent(cells.Eq(4).Text())
		if !okM || !okA || !okP || fga == 0 {
			return
		}

		out = append(out, playerLine{
			name:  strings.TrimSpace(nameTag.Text()),
			fgm:   fgm,
			fga:   fga,
			fgPct: pct,
		})
	})
	return out
}

func parseInt(v string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return n, true
}

// parsePercent accepts "14.3", "14.3%" or ".143" and returns a 0..1 ratio.
func parsePercent(v string) (float64, bool) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(v, "%", ""))
	if cleaned == "" || cleaned == "-" || cleaned == "--" {
		return 0, false
	}
	n, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	if n > 1 {
		return n / 100, true
	}
	return n, true
}
