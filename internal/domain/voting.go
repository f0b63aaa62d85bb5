package domain

import "github.com/google/uuid"

// VoteTally summarises the ballots of the current voting phase.
type VoteTally struct {
	Counts           map[uuid.UUID]int `json:"counts"`
	VotesCast        int               `json:"votesCast"`
	ActivePlayers    int               `json:"activePlayers"`
	Threshold        int               `json:"threshold"`
	ThresholdReached bool              `json:"thresholdReached"`
	LeaderID         *uuid.UUID        `json:"leaderId,omitempty"`
	IsTie            bool              `json:"isTie"`
	AllVoted         bool              `json:"allVoted"`
}

// VoteOutcome describes how a voting phase was resolved.
type VoteOutcome struct {
	Tally        VoteTally    `json:"tally"`
	EliminatedID *uuid.UUID   `json:"eliminatedId,omitempty"`
	WasImpostor  bool         `json:"wasImpostor"`
	IsTie        bool         `json:"isTie"`
	WinCondition WinCondition `json:"winCondition,omitempty"`
}

func (r *Room) StartVoting() (*Room, error) {
	if r.Status != RoomStatusPlaying {
		return nil, ErrInvalidState
	}
	next := r.Clone()
	next.Status = RoomStatusVoting
	next.resetVotes()
	next.touch()
	return next, nil
}

// CastVote records an irrevocable ballot.
func (r *Room) CastVote(voterID, targetID uuid.UUID) (*Room, error) {
	if r.Status != RoomStatusVoting {
		return nil, ErrInvalidState
	}

	voterIdx := r.playerIndex(voterID)
	if voterIdx < 0 {
		return nil, ErrPlayerNotFound
	}
	voter := r.Players[voterIdx]
	if voter.Eliminated {
		return nil, newError(CodeInvalidState, "eliminated players cannot vote")
	}
	if voter.HasVoted {
		return nil, ErrAlreadyVoted
	}

	if voterID == targetID {
		return nil, newError(CodeInvalidVoteTarget, "cannot vote for yourself")
	}
	target, ok := r.Player(targetID)
	if !ok {
		return nil, newError(CodeInvalidVoteTarget, "vote target is not in the room")
	}
	if target.Eliminated {
		return nil, newError(CodeInvalidVoteTarget, "vote target is already eliminated")
	}

	next := r.Clone()
	next.Players[voterIdx] = voter.CastVote(targetID)
	next.touch()
	return next, nil
}

// CalculateVotes counts ballots from active players. The threshold is only a
// hint for clients; elimination is always confirmed by the admin.
func (r *Room) CalculateVotes() VoteTally {
	tally := VoteTally{Counts: make(map[uuid.UUID]int)}

	for _, p := range r.Players {
		if !p.IsActive() {
			continue
		}
		tally.ActivePlayers++
		if p.HasVoted && p.VotedFor != nil {
			tally.VotesCast++
			tally.Counts[*p.VotedFor]++
		}
	}

	tally.Threshold = (2*tally.ActivePlayers + 2) / 3
	tally.AllVoted = tally.ActivePlayers > 0 && tally.VotesCast == tally.ActivePlayers

	best, leaders := 0, 0
	var leader uuid.UUID
	for id, n := range tally.Counts {
		switch {
		case n > best:
			best, leaders, leader = n, 1, id
		case n == best:
			leaders++
		}
	}

	if best > 0 && leaders == 1 {
		tally.LeaderID = &leader
	} else {
		tally.IsTie = true
	}
	tally.ThresholdReached = best > 0 && best >= tally.Threshold
	return tally
}

// EliminatePlayer marks a player as out. It never ends the game by itself.
func (r *Room) EliminatePlayer(id uuid.UUID) (*Room, error) {
	if r.Status != RoomStatusPlaying && r.Status != RoomStatusVoting {
		return nil, ErrInvalidState
	}
	idx := r.playerIndex(id)
	if idx < 0 {
		return nil, ErrPlayerNotFound
	}
	if r.Players[idx].Eliminated {
		return nil, newError(CodeInvalidState, "player is already eliminated")
	}

	next := r.Clone()
	next.Players[idx] = next.Players[idx].Eliminate()
	eliminated := id
	next.LastEliminatedID = &eliminated
	next.touch()
	return next, nil
}

// CheckWinCondition reports whether the game has been decided. Both
// conditions are checked since several impostors can end it either way.
func (r *Room) CheckWinCondition() WinCondition {
	switch r.Status {
	case RoomStatusFinished:
		return r.WinCondition
	case RoomStatusPlaying, RoomStatusVoting:
	default:
		return WinConditionNone
	}

	impostors, crew := 0, 0
	for _, p := range r.Players {
		if !p.IsActive() {
			continue
		}
		if r.IsImpostor(p.ID) {
			impostors++
		} else {
			crew++
		}
	}

	switch {
	case impostors == 0:
		return WinConditionImpostorCaught
	case crew <= 1:
		return WinConditionImpostorSurvived
	}
	return WinConditionNone
}

// ContinueAfterVoting resets ballots and goes to the next round.
func (r *Room) ContinueAfterVoting() (*Room, error) {
	if r.Status != RoomStatusVoting {
		return nil, ErrInvalidState
	}
	next := r.Clone()
	next.Status = RoomStatusPlaying
	next.Round++
	next.resetVotes()
	next.touch()
	return next, nil
}

// ResolveVoting closes the voting phase. With eliminate set and a unique
// leader, the leader is eliminated and the game either ends or continues.
// Ties, empty rounds and eliminate=false continue without elimination.
// Reaching the threshold is not required.
func (r *Room) ResolveVoting(eliminate bool) (*Room, VoteOutcome, error) {
	if r.Status != RoomStatusVoting {
		return nil, VoteOutcome{}, ErrInvalidState
	}

	tally := r.CalculateVotes()
	outcome := VoteOutcome{Tally: tally, IsTie: tally.IsTie}

	if !eliminate || tally.LeaderID == nil {
		next, err := r.ContinueAfterVoting()
		return next, outcome, err
	}

	leader := *tally.LeaderID
	next, err := r.EliminatePlayer(leader)
	if err != nil {
		return nil, VoteOutcome{}, err
	}
	outcome.EliminatedID = &leader
	outcome.WasImpostor = r.IsImpostor(leader)

	if cond := next.CheckWinCondition(); cond != WinConditionNone {
		outcome.WinCondition = cond
		next, err = next.FinishGame(cond)
		return next, outcome, err
	}

	next, err = next.ContinueAfterVoting()
	return next, outcome, err
}

func (r *Room) resetVotes() {
	for i, p := range r.Players {
		r.Players[i] = p.ResetVote()
	}
}
