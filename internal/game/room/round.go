package room

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/palemoky/undercover/internal/apperrors"
	"github.com/palemoky/undercover/internal/game/vote"
	"github.com/palemoky/undercover/internal/server/storage"
)

const tieMessage = "there was a tie, no one was eliminated"

// SubmitVote 提交投票，同一轮内重复投票以最后一次为准
// 第二个返回值表示本次投票使当前轮次结算
func (rm *RoomManager) SubmitVote(roomID, voterID, targetID string) (*Room, bool, error) {
	if voterID == targetID {
		return nil, false, apperrors.ErrSelfVote
	}

	roomID = strings.TrimSpace(roomID)
	unlock := rm.lock(roomID)
	defer unlock()

	current, exists := rm.rooms.Get(roomID)
	if !exists {
		return nil, false, apperrors.ErrRoomNotFound
	}
	target, ok := current.Players[targetID]
	if !ok {
		return nil, false, apperrors.ErrPlayerNotFound
	}
	if target.Eliminated {
		return nil, false, apperrors.ErrTargetEliminated
	}
	if !current.Active() {
		return nil, false, apperrors.ErrGameNotStarted
	}
	voter, ok := current.Players[voterID]
	if !ok || voter.Eliminated {
		return nil, false, apperrors.ErrVoterNotInGame
	}

	next := current.Clone()
	if len(next.Votes) == 0 || next.Votes[0] == nil {
		next.Votes = append([]vote.Round{{}}, next.Votes...)
	}
	next.Votes[0][voterID] = targetID
	voter.HasVoted = true
	next.Players[voterID] = voter

	roundEnded := rm.roundComplete(next)
	if roundEnded {
		rm.resolveRound(next)
	}
	rm.commit(next)
	rm.publish(Update{Room: next.Clone(), RoundEnded: roundEnded})

	if next.Over {
		rm.recordResults(current, next)
	}
	return next.Clone(), roundEnded, nil
}

// roundComplete 本轮票数是否已达到存活人数（每次重新计算）
func (rm *RoomManager) roundComplete(r *Room) bool {
	expected := r.InGameCount()
	return expected > 0 && len(r.CurrentVotes()) == expected
}

// resolveRound 结算当前轮次：淘汰、胜负判定、积分累积与轮次推进
func (rm *RoomManager) resolveRound(r *Room) {
	winner := SideNone

	eliminatedID, ok := vote.Leader(vote.Tally(r.CurrentVotes()))
	if ok {
		p := r.Players[eliminatedID]
		p.Eliminated = true
		r.Players[eliminatedID] = p

		winner = r.winner()
		r.Message = outcomeMessage(r, p.Name, "was eliminated", winner)
	} else {
		r.Message = tieMessage
	}

	rm.accrueSurvival(r)
	if winner != SideNone {
		rm.payout(r, winner)
	}

	r.Round++
	r.update(func(p *Player) { p.HasVoted = false })
	r.Votes = append([]vote.Round{{}}, r.Votes...)

	if winner != SideNone {
		r.finish(winner)
	}
}

// settle 进行中的游戏有玩家离开后重新判定，返回是否结算了当前轮次
func (rm *RoomManager) settle(r *Room, leaving Player, verb string) bool {
	current := r.CurrentVotes()
	delete(current, leaving.ID)
	for voter, target := range current {
		if target != leaving.ID {
			continue
		}
		delete(current, voter)
		if p, ok := r.Players[voter]; ok {
			p.HasVoted = false
			r.Players[voter] = p
		}
	}

	if winner := r.winner(); winner != SideNone {
		r.Message = outcomeMessage(r, leaving.Name, verb, winner)
		rm.payout(r, winner)
		r.update(func(p *Player) { p.HasVoted = false })
		r.finish(winner)
		return false
	}

	if rm.roundComplete(r) {
		rm.resolveRound(r)
		return true
	}
	return false
}

// winner 根据存活人数判定胜方
func (r *Room) winner() Side {
	commoners, undercovers := r.remaining()
	switch {
	case undercovers == 0:
		return SideCommoners
	case commoners <= undercovers:
		return SideUndercovers
	default:
		return SideNone
	}
}

// finish 游戏结束，生成投票关系图
func (r *Room) finish(winner Side) {
	r.Over = true
	r.Winner = winner
	r.Graph = vote.Links(r.Votes)
}

// accrueSurvival 存活的卧底累积本轮积分
func (rm *RoomManager) accrueSurvival(r *Room) {
	if r.UndercoverBonus == nil {
		r.UndercoverBonus = map[string]int{}
	}
	for id, p := range r.Players {
		if p.IsUndercover && !p.Eliminated {
			r.UndercoverBonus[id] += rm.scoring.SurvivalBonus
		}
	}
}

// payout 游戏结束时发放胜场与积分
func (rm *RoomManager) payout(r *Room, winner Side) {
	r.update(func(p *Player) {
		bonus := r.UndercoverBonus[p.ID]
		switch {
		case winner == SideCommoners && !p.IsUndercover && !p.Eliminated:
			p.Wins++
			p.Score += rm.scoring.CommonerWinBonus
		case winner == SideCommoners && p.IsUndercover:
			// 卧底输了也能拿到存活轮次累积的积分
			p.Score += bonus
		case winner == SideUndercovers && p.IsUndercover:
			p.Wins++
			p.Score += bonus + rm.scoring.UndercoverWinBonus
		}
	})
}

func outcomeMessage(r *Room, name, verb string, winner Side) string {
	switch winner {
	case SideCommoners, SideUndercovers:
		survivors := strings.Join(r.survivorNames(winner == SideUndercovers), ", ")
		return fmt.Sprintf("Player %s %s! The %s won! Survivors: %s", name, verb, winner, survivors)
	default:
		return fmt.Sprintf("player %s %s", name, verb)
	}
}

// recordResults 异步记录每名玩家本局战绩
func (rm *RoomManager) recordResults(before, after *Room) {
	if rm.results == nil {
		return
	}

	results := make([]storage.GameResult, 0, len(after.Order))
	for _, id := range after.Order {
		p, prev := after.Players[id], before.Players[id]
		results = append(results, storage.GameResult{
			PlayerID:     p.ID,
			PlayerName:   p.Name,
			IsUndercover: p.IsUndercover,
			// 以本局是否获得胜场为准，已淘汰的平民不算获胜
			IsWinner:   p.Wins > prev.Wins,
			ScoreDelta: p.Score - prev.Score,
		})
	}

	roomID := after.ID
	go func() {
		for _, result := range results {
			if err := rm.results.RecordGameResult(context.Background(), result); err != nil {
				zap.L().Warn("记录战绩失败",
					zap.String("room", roomID),
					zap.String("player", result.PlayerID),
					zap.Error(err),
				)
			}
		}
	}()
}
