package plugins

import (
	"log/slog"

	"github.com/frostvale/frostvale/internal/protocol"
	"github.com/frostvale/frostvale/internal/store"
	"github.com/frostvale/frostvale/internal/world"
)

// maxCoins caps any balance a game settlement can produce.
const maxCoins = 1000000

// defaultScoreGames are the game rooms whose reported score is already a
// coin amount. Every other game pays out a tenth of the score.
var defaultScoreGames = map[int]bool{
	904: true,
	905: true,
	906: true,
	912: true,
}

// minigame settles single-player game sessions: the reported score is
// converted to coins, persisted, then confirmed back to the client.
type minigame struct {
	h *world.Handler
}

func newMinigame(h *world.Handler) {
	p := &minigame{h: h}
	h.Events.On("zo", p.gameOver)
	h.Events.On("ac", p.coinBalance)
}

// gameOver converts a finished game's score into coins. Only accepted
// inside a game room; the resulting balance is clamped to [0, maxCoins].
func (p *minigame) gameOver(u *world.User, args protocol.Args) {
	if !u.Authed() {
		return
	}
	room := u.Room()
	if room == nil || !room.Game {
		return
	}
	score, ok := args.Int(0)
	if !ok {
		return
	}

	earned := score / 10
	if defaultScoreGames[room.ID] {
		earned = score
	}

	balance := u.Coins() + earned
	if balance < 0 {
		balance = 0
	}
	if balance > maxCoins {
		balance = maxCoins
	}

	ctx, cancel := storeCtx()
	defer cancel()
	if err := p.h.Store.UpdateUser(ctx, u.ID(), store.UserUpdate{Coins: &balance}); err != nil {
		p.h.Log().Error("coin settlement failed",
			slog.Int("user", u.ID()),
			slog.String("error", err.Error()))
		return
	}
	u.SetCoins(balance)
	u.Send("zo")
}

// coinBalance reports the coin balance while the user is in a game room.
func (p *minigame) coinBalance(u *world.User, args protocol.Args) {
	if !u.Authed() {
		return
	}
	room := u.Room()
	if room == nil || !room.Game {
		return
	}
	u.Send("ac", u.Coins())
}
