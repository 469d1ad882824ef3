package stats

import (
	"github.com/verte-zerg/keystone/internal/model"
)

// MaxClicksPerPlayer caps the clicks counted for one AFK player.
const MaxClicksPerPlayer = 10

// IdentifyAFK returns players whose characters have no runs at all, in first-appearance order.
func IdentifyAFK(stats []model.CharacterStat) []string {
	var order []string
	totals := map[string]int{}
	for _, s := range stats {
		if _, ok := totals[s.Player]; !ok {
			order = append(order, s.Player)
		}
		totals[s.Player] += s.TotalRuns
	}
	var afk []string
	for _, player := range order {
		if totals[player] == 0 {
			afk = append(afk, player)
		}
	}
	return afk
}

// AFKPlayer is one entry of the click game.
type AFKPlayer struct {
	Name   string
	Clicks int
}

// Progress returns the fraction of the cap reached, in [0, 1].
func (p AFKPlayer) Progress() float64 {
	return float64(p.Clicks) / MaxClicksPerPlayer
}

// ClickResult describes the outcome of one click.
type ClickResult struct {
	Accepted  bool
	Clicks    int
	Total     int
	Celebrate bool
}

// Game tracks click counters for AFK players. It is not safe for concurrent use.
type Game struct {
	players     []AFKPlayer
	index       map[string]int
	celebrating bool
}

// NewGame starts a game with zero clicks for each AFK player in stats.
func NewGame(stats []model.CharacterStat) *Game {
	names := IdentifyAFK(stats)
	g := &Game{
		players: make([]AFKPlayer, len(names)),
		index:   make(map[string]int, len(names)),
	}
	for i, name := range names {
		g.players[i] = AFKPlayer{Name: name}
		g.index[name] = i
	}
	return g
}

// Players returns a copy of the players with their counters.
func (g *Game) Players() []AFKPlayer {
	return append([]AFKPlayer(nil), g.players...)
}

// Clicks returns the counter of player and whether the player is in the game.
func (g *Game) Clicks(player string) (int, bool) {
	i, ok := g.index[player]
	if !ok {
		return 0, false
	}
	return g.players[i].Clicks, true
}

// Total returns the sum of all click counters.
func (g *Game) Total() int {
	total := 0
	for _, p := range g.players {
		total += p.Clicks
	}
	return total
}

// Max returns the total needed to trigger the celebration.
func (g *Game) Max() int {
	return len(g.players) * MaxClicksPerPlayer
}

// Celebrating reports whether a celebration is running.
func (g *Game) Celebrating() bool {
	return g.celebrating
}

// Click counts a click on player. Unknown or capped players are ignored.
// Celebrate is set when the total reaches the maximum and no celebration is running;
// the caller owns the effect and must call EndCelebration when it stops.
func (g *Game) Click(player string) ClickResult {
	i, ok := g.index[player]
	if !ok || g.players[i].Clicks >= MaxClicksPerPlayer {
		res := ClickResult{Total: g.Total()}
		if ok {
			res.Clicks = g.players[i].Clicks
		}
		return res
	}
	g.players[i].Clicks++
	res := ClickResult{Accepted: true, Clicks: g.players[i].Clicks, Total: g.Total()}
	if res.Total >= g.Max() && !g.celebrating {
		g.celebrating = true
		res.Celebrate = true
	}
	return res
}

// EndCelebration clears the running flag.
func (g *Game) EndCelebration() {
	g.celebrating = false
}
