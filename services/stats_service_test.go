package services

import (
	"context"
	"math"
	"testing"

	"github.com/datalings/onthescales/model"
)

// statsFixture seeds three players and two games with a shared-first-place
// tie in the first one:
//
//	01.01.2026: Alice 10, Bob 10, Cara 5
//	02.01.2026: Alice 8, Bob 3
type statsFixture struct {
	*ledgerFixture
	stats *StatsService
}

func newStatsFixture(t *testing.T) *statsFixture {
	t.Helper()
	f := newLedgerFixture(t)

	playerSvc := NewPlayerService(f.db)
	cara, err := playerSvc.Create("Cara")
	if err != nil {
		t.Fatalf("create player: %v", err)
	}
	f.players["Cara"] = cara.ID

	record := func(date string, scores map[uint]int) {
		t.Helper()
		if _, err := f.games.Record(GameInput{
			Date:         mustParseDate(t, date),
			PlayerScores: scores,
		}); err != nil {
			t.Fatalf("record game on %s: %v", date, err)
		}
	}

	record("01.01.2026", map[uint]int{
		f.players["Alice"]: 10,
		f.players["Bob"]:   10,
		f.players["Cara"]:  5,
	})
	record("02.01.2026", map[uint]int{
		f.players["Alice"]: 8,
		f.players["Bob"]:   3,
	})

	return &statsFixture{
		ledgerFixture: f,
		stats:         NewStatsService(f.db, nil),
	}
}

func (f *statsFixture) playerLine(t *testing.T, d *Dashboard, name string) PlayerStats {
	t.Helper()
	for _, p := range d.Players {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("player %s missing from dashboard", name)
	return PlayerStats{}
}

func TestDashboardRanksAndPoints(t *testing.T) {
	f := newStatsFixture(t)

	d, err := f.stats.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}

	if d.TotalGames != 2 {
		t.Fatalf("expected 2 games, got %d", d.TotalGames)
	}
	if len(d.Players) != 3 {
		t.Fatalf("expected 3 player lines, got %d", len(d.Players))
	}

	// Tied first places both earn winner's points.
	alice := f.playerLine(t, d, "Alice")
	if alice.Wins != 2 || alice.TotalRankingPoints != 14 {
		t.Fatalf("alice: wins=%d points=%d", alice.Wins, alice.TotalRankingPoints)
	}
	if alice.BestRank != 1 || alice.WorstRank != 1 {
		t.Fatalf("alice ranks: best=%d worst=%d", alice.BestRank, alice.WorstRank)
	}

	bob := f.playerLine(t, d, "Bob")
	if bob.Wins != 1 || bob.TotalRankingPoints != 11 {
		t.Fatalf("bob: wins=%d points=%d", bob.Wins, bob.TotalRankingPoints)
	}
	if bob.WinRate != 50 || bob.PodiumRate != 100 {
		t.Fatalf("bob rates: win=%f podium=%f", bob.WinRate, bob.PodiumRate)
	}

	// A tie skips the following rank: Cara finishes third, not second.
	cara := f.playerLine(t, d, "Cara")
	if cara.BestRank != 3 || cara.TotalRankingPoints != 2 {
		t.Fatalf("cara: rank=%d points=%d", cara.BestRank, cara.TotalRankingPoints)
	}

	// Lines ordered by total ranking points, best first.
	if d.Players[0].Name != "Alice" || d.Players[1].Name != "Bob" || d.Players[2].Name != "Cara" {
		t.Fatalf("unexpected leaderboard order: %+v", d.Players)
	}
}

func TestDashboardScoreAggregates(t *testing.T) {
	f := newStatsFixture(t)

	d, err := f.stats.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}

	alice := f.playerLine(t, d, "Alice")
	if alice.TotalScore != 18 || alice.AvgScore != 9 {
		t.Fatalf("alice scores: total=%d avg=%f", alice.TotalScore, alice.AvgScore)
	}
	if alice.BestScore != 10 || alice.WorstScore != 8 {
		t.Fatalf("alice best/worst: %d/%d", alice.BestScore, alice.WorstScore)
	}
	// Sample standard deviation over {10, 8}.
	if math.Abs(alice.ScoreStdDev-math.Sqrt2) > 1e-9 {
		t.Fatalf("alice stddev: %f", alice.ScoreStdDev)
	}

	// A single game leaves the deviation at zero.
	cara := f.playerLine(t, d, "Cara")
	if cara.ScoreStdDev != 0 {
		t.Fatalf("cara stddev: %f", cara.ScoreStdDev)
	}

	var aliceSeries []CumulativePoint
	for _, p := range d.Cumulative {
		if p.Name == "Alice" {
			aliceSeries = append(aliceSeries, p)
		}
	}
	if len(aliceSeries) != 2 {
		t.Fatalf("expected 2 cumulative points for alice, got %d", len(aliceSeries))
	}
	if aliceSeries[0].CumulativeScore != 10 || aliceSeries[1].CumulativeScore != 18 {
		t.Fatalf("unexpected cumulative series: %+v", aliceSeries)
	}
	if aliceSeries[1].GameNumber != 2 || aliceSeries[1].GameDate != "02.01.2026" {
		t.Fatalf("unexpected series point: %+v", aliceSeries[1])
	}
}

func TestDashboardHeadToHead(t *testing.T) {
	f := newStatsFixture(t)

	d, err := f.stats.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}

	// Alice and Bob tied once and Alice won once.
	if d.HeadToHead["Alice"]["Bob"] != 1 || d.HeadToHead["Bob"]["Alice"] != -1 {
		t.Fatalf("alice/bob differential: %+v", d.HeadToHead)
	}
	// Both beat Cara in their only shared game.
	if d.HeadToHead["Alice"]["Cara"] != 1 || d.HeadToHead["Bob"]["Cara"] != 1 {
		t.Fatalf("cara differentials: %+v", d.HeadToHead)
	}
	if d.HeadToHead["Cara"]["Alice"] != -1 || d.HeadToHead["Cara"]["Bob"] != -1 {
		t.Fatalf("cara row: %+v", d.HeadToHead)
	}
	// No self entry.
	if _, ok := d.HeadToHead["Alice"]["Alice"]; ok {
		t.Fatalf("self differential present: %+v", d.HeadToHead["Alice"])
	}
}

func TestDashboardSkipsInactivePlayers(t *testing.T) {
	f := newStatsFixture(t)

	if _, err := NewPlayerService(f.db).SetActive(f.players["Cara"], false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	d, err := f.stats.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}

	if len(d.Players) != 2 {
		t.Fatalf("expected 2 player lines, got %d", len(d.Players))
	}
	for _, p := range d.Players {
		if p.Name == "Cara" {
			t.Fatalf("inactive player still listed")
		}
	}
	// The game itself still counts.
	if d.TotalGames != 2 {
		t.Fatalf("expected 2 games, got %d", d.TotalGames)
	}
}

func TestSummary(t *testing.T) {
	f := newLedgerFixture(t)
	stats := NewStatsService(f.db, nil)

	settingSvc := NewSettingService(f.db)
	age, err := settingSvc.Create(CreateSettingInput{Name: "Average Age", Type: model.SettingTypeNumber, Position: 10})
	if err != nil {
		t.Fatalf("create setting: %v", err)
	}

	record := func(date string, values map[uint]string) {
		t.Helper()
		if _, err := f.games.Record(GameInput{
			Date:          mustParseDate(t, date),
			PlayerScores:  map[uint]int{f.players["Alice"]: 10, f.players["Bob"]: 6},
			SettingValues: values,
		}); err != nil {
			t.Fatalf("record game on %s: %v", date, err)
		}
	}

	record("01.01.2026", map[uint]string{
		f.settings["Duration"]: "60",
		f.settings["Location"]: "Kitchen",
		age.ID:                 "30",
	})
	record("02.01.2026", map[uint]string{
		f.settings["Duration"]: "90",
		f.settings["Location"]: "Kitchen",
	})
	record("03.01.2026", map[uint]string{
		f.settings["Location"]: "Attic",
	})

	summary, err := stats.Summary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	if summary.TotalGames != 3 {
		t.Fatalf("expected 3 games, got %d", summary.TotalGames)
	}
	if summary.AvgPointsPerGame != 16 {
		t.Fatalf("avg points per game: %f", summary.AvgPointsPerGame)
	}
	if summary.AvgPointsPerPlayer != 8 {
		t.Fatalf("avg points per player: %f", summary.AvgPointsPerPlayer)
	}

	if summary.AvgDurationMinutes == nil || *summary.AvgDurationMinutes != 75 {
		t.Fatalf("avg duration: %+v", summary.AvgDurationMinutes)
	}
	if summary.DurationGames != 2 {
		t.Fatalf("duration games: %d", summary.DurationGames)
	}
	if summary.AvgAge == nil || *summary.AvgAge != 30 || summary.AgeGames != 1 {
		t.Fatalf("age aggregate: %+v games=%d", summary.AvgAge, summary.AgeGames)
	}
	if summary.Superhost == nil || *summary.Superhost != "Kitchen" || summary.SuperhostedGames != 2 {
		t.Fatalf("superhost: %+v games=%d", summary.Superhost, summary.SuperhostedGames)
	}
}

func TestSummaryEmptyLedger(t *testing.T) {
	db := newTestDB(t)
	stats := NewStatsService(db, nil)

	summary, err := stats.Summary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.TotalGames != 0 || summary.AvgPointsPerGame != 0 {
		t.Fatalf("unexpected empty summary: %+v", summary)
	}
	if summary.AvgDurationMinutes != nil || summary.AvgAge != nil || summary.Superhost != nil {
		t.Fatalf("optional aggregates set on empty ledger: %+v", summary)
	}
}

func TestSuperhostTieBreaking(t *testing.T) {
	host, count, tied := superhost(map[string]int{"Kitchen": 2, "Attic": 2, "Balcony": 1})
	if host != "Attic" || count != 2 || tied != 1 {
		t.Fatalf("superhost tie: host=%s count=%d tied=%d", host, count, tied)
	}

	host, _, tied = superhost(map[string]int{"Kitchen": 3, "Attic": 2})
	if host != "Kitchen" || tied != 0 {
		t.Fatalf("superhost clear lead: host=%s tied=%d", host, tied)
	}

	if host, count, _ := superhost(nil); host != "" || count != 0 {
		t.Fatalf("empty counts: host=%q count=%d", host, count)
	}
}
