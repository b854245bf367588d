package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/datalings/onthescales/model"
	"github.com/datalings/onthescales/utils/cache"
)

const (
	statsDashboardCacheKey = "stats:dashboard"
	statsSummaryCacheKey   = "stats:summary"

	statsDashboardCacheTTL = 5 * time.Minute
	statsSummaryCacheTTL   = 10 * time.Minute
)

// Ranking points by finishing position. Tied players share a rank and
// therefore the same points.
func rankingPoints(rank int) int {
	switch rank {
	case 1:
		return 7
	case 2:
		return 4
	case 3:
		return 2
	default:
		return 1
	}
}

// StatsService computes aggregate statistics over the game ledger. Results
// are cached in redis with a TTL when a cache is configured; game writes
// invalidate the cached entries.
type StatsService struct {
	db    *gorm.DB
	cache *cache.RedisCache // nil disables caching
}

// NewStatsService creates a new stats service
func NewStatsService(db *gorm.DB, statsCache *cache.RedisCache) *StatsService {
	return &StatsService{db: db, cache: statsCache}
}

// PlayerStats is one active player's aggregate line.
type PlayerStats struct {
	PlayerID           uint    `json:"player_id"`
	Name               string  `json:"name"`
	GamesPlayed        int     `json:"games_played"`
	TotalScore         int     `json:"total_score"`
	AvgScore           float64 `json:"avg_score"`
	Wins               int     `json:"wins"`
	PodiumFinishes     int     `json:"podium_finishes"`
	WinRate            float64 `json:"win_rate"`
	PodiumRate         float64 `json:"podium_rate"`
	TotalRankingPoints int     `json:"total_ranking_points"`
	AvgRankingPoints   float64 `json:"avg_ranking_points"`
	BestScore          int     `json:"best_score"`
	WorstScore         int     `json:"worst_score"`
	BestRank           int     `json:"best_rank"`
	WorstRank          int     `json:"worst_rank"`
	AvgRank            float64 `json:"avg_rank"`
	ScoreStdDev        float64 `json:"score_std_dev"`
}

// CumulativePoint is one step of a player's running-total series.
type CumulativePoint struct {
	Name            string `json:"name"`
	GameNumber      int    `json:"game_number"`
	GameDate        string `json:"game_date"`
	CumulativeScore int    `json:"cumulative_score"`
}

// Dashboard is the full statistics aggregate: per-player lines sorted by
// ranking points, cumulative progression and the head-to-head differential
// matrix (positive means the row player beat the column player more often).
type Dashboard struct {
	TotalGames int                       `json:"total_games"`
	Players    []PlayerStats             `json:"players"`
	Cumulative []CumulativePoint         `json:"cumulative"`
	HeadToHead map[string]map[string]int `json:"head_to_head"`
}

// Summary holds the game history headline numbers.
type Summary struct {
	TotalGames         int      `json:"total_games"`
	AvgPointsPerGame   float64  `json:"avg_points_per_game"`
	AvgPointsPerPlayer float64  `json:"avg_points_per_player_per_game"`
	AvgDurationMinutes *float64 `json:"avg_duration_minutes,omitempty"`
	DurationGames      int      `json:"duration_games"`
	AvgAge             *float64 `json:"avg_age,omitempty"`
	AgeGames           int      `json:"age_games"`
	Superhost          *string  `json:"superhost,omitempty"`
	SuperhostedGames   int      `json:"superhosted_games"`
}

// scoreRow is one score joined with its game and player.
type scoreRow struct {
	GameID   uint
	GameDate time.Time
	PlayerID uint
	Name     string
	Score    int
}

// Dashboard computes (or returns the cached) per-player statistics over all
// games, counting only active players.
func (s *StatsService) Dashboard(ctx context.Context) (*Dashboard, error) {
	if s.cache != nil {
		var cached Dashboard
		if err := s.cache.GetJSON(ctx, statsDashboardCacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	var rows []scoreRow
	err := s.db.Model(&model.GameScore{}).
		Select("game_scores.game_id, games.game_date, game_scores.player_id, players.name, game_scores.score").
		Joins("JOIN games ON games.id = game_scores.game_id").
		Joins("JOIN players ON players.id = game_scores.player_id").
		Where("players.is_active = ?", true).
		Order("games.game_date, games.id, game_scores.score DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch score rows: %w", err)
	}

	dashboard := buildDashboard(rows)

	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, statsDashboardCacheKey, dashboard, statsDashboardCacheTTL)
	}

	return dashboard, nil
}

// rankedScore is a score with its in-game finishing position attached.
type rankedScore struct {
	scoreRow
	rank int
}

func buildDashboard(rows []scoreRow) *Dashboard {
	// Group rows per game, keeping chronological game order.
	gameOrder := []uint{}
	games := map[uint][]scoreRow{}
	for _, r := range rows {
		if _, ok := games[r.GameID]; !ok {
			gameOrder = append(gameOrder, r.GameID)
		}
		games[r.GameID] = append(games[r.GameID], r)
	}

	// Assign standard competition ranks within each game.
	perPlayer := map[uint][]rankedScore{}
	playerNames := map[uint]string{}
	ranked := map[uint][]rankedScore{}
	for _, gameID := range gameOrder {
		scores := games[gameID]
		sort.SliceStable(scores, func(i, j int) bool {
			return scores[i].Score > scores[j].Score
		})

		rank := 1
		for i, r := range scores {
			if i > 0 && r.Score != scores[i-1].Score {
				rank = i + 1
			}
			rs := rankedScore{scoreRow: r, rank: rank}
			ranked[gameID] = append(ranked[gameID], rs)
			perPlayer[r.PlayerID] = append(perPlayer[r.PlayerID], rs)
			playerNames[r.PlayerID] = r.Name
		}
	}

	dashboard := &Dashboard{
		TotalGames: len(gameOrder),
		Players:    []PlayerStats{},
		Cumulative: []CumulativePoint{},
		HeadToHead: map[string]map[string]int{},
	}

	playerIDs := make([]uint, 0, len(perPlayer))
	for playerID := range perPlayer {
		playerIDs = append(playerIDs, playerID)
	}
	sort.Slice(playerIDs, func(i, j int) bool {
		return playerNames[playerIDs[i]] < playerNames[playerIDs[j]]
	})

	for _, playerID := range playerIDs {
		scores := perPlayer[playerID]
		stats := PlayerStats{
			PlayerID:   playerID,
			Name:       playerNames[playerID],
			BestScore:  scores[0].Score,
			WorstScore: scores[0].Score,
			BestRank:   scores[0].rank,
			WorstRank:  scores[0].rank,
		}

		cumulative := 0
		totalRank := 0
		for i, sc := range scores {
			stats.GamesPlayed++
			stats.TotalScore += sc.Score
			totalRank += sc.rank
			if sc.rank == 1 {
				stats.Wins++
			}
			if sc.rank <= 3 {
				stats.PodiumFinishes++
			}
			stats.TotalRankingPoints += rankingPoints(sc.rank)
			if sc.Score > stats.BestScore {
				stats.BestScore = sc.Score
			}
			if sc.Score < stats.WorstScore {
				stats.WorstScore = sc.Score
			}
			if sc.rank < stats.BestRank {
				stats.BestRank = sc.rank
			}
			if sc.rank > stats.WorstRank {
				stats.WorstRank = sc.rank
			}

			cumulative += sc.Score
			dashboard.Cumulative = append(dashboard.Cumulative, CumulativePoint{
				Name:            stats.Name,
				GameNumber:      i + 1,
				GameDate:        FormatGameDate(sc.GameDate),
				CumulativeScore: cumulative,
			})
		}

		n := float64(stats.GamesPlayed)
		stats.AvgScore = float64(stats.TotalScore) / n
		stats.WinRate = float64(stats.Wins) / n * 100
		stats.PodiumRate = float64(stats.PodiumFinishes) / n * 100
		stats.AvgRankingPoints = float64(stats.TotalRankingPoints) / n
		stats.AvgRank = float64(totalRank) / n

		if stats.GamesPlayed > 1 {
			variance := 0.0
			for _, sc := range scores {
				d := float64(sc.Score) - stats.AvgScore
				variance += d * d
			}
			stats.ScoreStdDev = math.Sqrt(variance / (n - 1))
		}

		dashboard.Players = append(dashboard.Players, stats)
	}

	sort.Slice(dashboard.Players, func(i, j int) bool {
		if dashboard.Players[i].TotalRankingPoints != dashboard.Players[j].TotalRankingPoints {
			return dashboard.Players[i].TotalRankingPoints > dashboard.Players[j].TotalRankingPoints
		}
		return dashboard.Players[i].Name < dashboard.Players[j].Name
	})

	// Head-to-head differential: +1 when the row player outranks the column
	// player in a shared game, -1 the other way round, ties unchanged.
	for _, name := range playerNames {
		dashboard.HeadToHead[name] = map[string]int{}
		for _, other := range playerNames {
			if other != name {
				dashboard.HeadToHead[name][other] = 0
			}
		}
	}
	for _, gameID := range gameOrder {
		scores := ranked[gameID]
		for _, a := range scores {
			for _, b := range scores {
				if a.PlayerID == b.PlayerID {
					continue
				}
				if a.rank < b.rank {
					dashboard.HeadToHead[a.Name][b.Name]++
				} else if a.rank > b.rank {
					dashboard.HeadToHead[a.Name][b.Name]--
				}
			}
		}
	}

	return dashboard
}

// Summary computes (or returns the cached) game history headline numbers.
func (s *StatsService) Summary(ctx context.Context) (*Summary, error) {
	if s.cache != nil {
		var cached Summary
		if err := s.cache.GetJSON(ctx, statsSummaryCacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	var totalGames int64
	if err := s.db.Model(&model.Game{}).Count(&totalGames).Error; err != nil {
		return nil, fmt.Errorf("failed to count games: %w", err)
	}

	type scoreAgg struct {
		TotalPoints int64
		ScoreRows   int64
	}
	var agg scoreAgg
	if err := s.db.Model(&model.GameScore{}).
		Select("COALESCE(SUM(score), 0) AS total_points, COUNT(*) AS score_rows").
		Scan(&agg).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate scores: %w", err)
	}

	var values []model.GameSettingValue
	if err := s.db.Preload("Setting").Find(&values).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch setting values: %w", err)
	}

	summary := &Summary{TotalGames: int(totalGames)}
	if totalGames > 0 {
		summary.AvgPointsPerGame = float64(agg.TotalPoints) / float64(totalGames)
	}
	if agg.ScoreRows > 0 {
		summary.AvgPointsPerPlayer = float64(agg.TotalPoints) / float64(agg.ScoreRows)
	}

	totalDuration := 0
	totalAge := 0.0
	locationCounts := map[string]int{}
	for _, v := range values {
		name := strings.ToLower(v.Setting.Name)
		switch {
		case strings.Contains(name, "duration") && v.ValueTimeMinutes != nil:
			summary.DurationGames++
			totalDuration += *v.ValueTimeMinutes
		case strings.Contains(name, "age") && v.ValueNumber != nil:
			summary.AgeGames++
			totalAge += *v.ValueNumber
		case strings.Contains(name, "location") && v.ValueText != nil && strings.TrimSpace(*v.ValueText) != "":
			locationCounts[*v.ValueText]++
		}
	}

	if summary.DurationGames > 0 {
		avg := float64(totalDuration) / float64(summary.DurationGames)
		summary.AvgDurationMinutes = &avg
	}
	if summary.AgeGames > 0 {
		avg := totalAge / float64(summary.AgeGames)
		summary.AvgAge = &avg
	}
	if host, count, tied := superhost(locationCounts); host != "" {
		label := host
		if tied > 0 {
			label = fmt.Sprintf("%s (+%d tied)", host, tied)
		}
		summary.Superhost = &label
		summary.SuperhostedGames = count
	}

	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, statsSummaryCacheKey, summary, statsSummaryCacheTTL)
	}

	return summary, nil
}

// superhost picks the most frequent location. When several locations tie
// for the lead, the alphabetically first is named plus a tie count.
func superhost(counts map[string]int) (string, int, int) {
	best := ""
	max := 0
	tied := 0
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if counts[name] > max {
			best = name
			max = counts[name]
			tied = 0
		} else if counts[name] == max && max > 0 {
			tied++
		}
	}
	return best, max, tied
}
