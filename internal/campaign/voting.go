package campaign

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

const (
	thresholdPercent = 50
	percentBase      = 100
)

type Outcome uint8

const (
	OutcomeNoVotes Outcome = iota
	OutcomeRejected
	OutcomePassed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoVotes:
		return "no votes"
	case OutcomeRejected:
		return "rejected"
	case OutcomePassed:
		return "passed"
	}
	return fmt.Sprintf("unknown(%d)", uint8(o))
}

// MeetsThreshold reports whether yes weight reaches half of the campaign total.
// Cross multiplied to stay in integers, a tie passes
func MeetsThreshold(yesWeight, totalRaised *big.Int) bool {
	lhs := new(big.Int).Mul(yesWeight, big.NewInt(percentBase))
	rhs := new(big.Int).Mul(totalRaised, big.NewInt(thresholdPercent))
	return lhs.Cmp(rhs) >= 0
}

// Evaluate decides a closed round. A round where nobody voted never passes, even though
// 0 >= 0 would satisfy the threshold when nothing is left in the total
func Evaluate(yesWeight, noWeight, totalRaised *big.Int) Outcome {
	if yesWeight.Sign() == 0 && noWeight.Sign() == 0 {
		return OutcomeNoVotes
	}
	if MeetsThreshold(yesWeight, totalRaised) {
		return OutcomePassed
	}
	return OutcomeRejected
}

// castVote adds voter weight to the running tally of an open round
func (m *milestone) castVote(voter common.Address, support bool, weight *big.Int) error {
	if m.votingPhase != VotingOpen {
		return ErrVotingNotOpen
	}
	if weight.Sign() <= 0 {
		return ErrNotContributor
	}
	if m.votedBy.Contains(voter) {
		return ErrDuplicateVote
	}

	if support {
		m.yesWeight.Add(m.yesWeight, weight)
	} else {
		m.noWeight.Add(m.noWeight, weight)
	}
	m.votedBy.Add(voter)
	return nil
}

// close ends the round and returns its outcome, release is decided by the caller
func (m *milestone) close(totalRaised *big.Int) Outcome {
	m.votingPhase = VotingClosed
	return Evaluate(m.yesWeight, m.noWeight, totalRaised)
}
