package campaign

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gitlab.com/TitanInd/milestone-escrow/internal/lib"
)

type VotingPhase uint8

const (
	VotingInactive VotingPhase = iota
	VotingOpen
	VotingClosed
)

func (v VotingPhase) String() string {
	switch v {
	case VotingInactive:
		return "inactive"
	case VotingOpen:
		return "open"
	case VotingClosed:
		return "closed"
	}
	return fmt.Sprintf("unknown(%d)", uint8(v))
}

// Milestone is a read-only snapshot of a milestone record
type Milestone struct {
	Index          int
	Title          string
	Amount         *big.Int
	Released       bool
	VotingPhase    VotingPhase
	VotingDeadline time.Time
	YesWeight      *big.Int
	NoWeight       *big.Int
	Voters         int
	Round          int // number of votes opened so far
}

type milestone struct {
	title  string
	amount *big.Int

	released       bool
	votingPhase    VotingPhase
	votingDeadline time.Time
	yesWeight      *big.Int
	noWeight       *big.Int
	votedBy        lib.Set[common.Address]
	round          int
}

func (m *milestone) snapshot(index int) Milestone {
	return Milestone{
		Index:          index,
		Title:          m.title,
		Amount:         new(big.Int).Set(m.amount),
		Released:       m.released,
		VotingPhase:    m.votingPhase,
		VotingDeadline: m.votingDeadline,
		YesWeight:      new(big.Int).Set(m.yesWeight),
		NoWeight:       new(big.Int).Set(m.noWeight),
		Voters:         m.votedBy.Len(),
		Round:          m.round,
	}
}

// Registry is the ordered milestone schedule, index is the release order
type Registry struct {
	items []*milestone
}

func NewRegistry(titles []string, amounts []*big.Int) *Registry {
	items := make([]*milestone, len(titles))
	for i := range titles {
		items[i] = &milestone{
			title:       titles[i],
			amount:      new(big.Int).Set(amounts[i]),
			votingPhase: VotingInactive,
			yesWeight:   new(big.Int),
			noWeight:    new(big.Int),
			votedBy:     lib.NewSet[common.Address](),
		}
	}
	return &Registry{items: items}
}

func (r *Registry) Count() int {
	return len(r.items)
}

func (r *Registry) Get(index int) (Milestone, error) {
	m, err := r.get(index)
	if err != nil {
		return Milestone{}, err
	}
	return m.snapshot(index), nil
}

func (r *Registry) All() []Milestone {
	res := make([]Milestone, len(r.items))
	for i, m := range r.items {
		res[i] = m.snapshot(i)
	}
	return res
}

// ReleasedCount is also the index of the next milestone due for release
func (r *Registry) ReleasedCount() int {
	count := 0
	for _, m := range r.items {
		if !m.released {
			break
		}
		count++
	}
	return count
}

// Open starts a fresh voting round. The milestone must be unreleased, not under vote,
// and every milestone before it must already be released
func (r *Registry) Open(index int, votingDeadline time.Time) error {
	m, err := r.get(index)
	if err != nil {
		return err
	}
	if m.released {
		return ErrMilestoneReleased
	}
	for j := 0; j < index; j++ {
		if !r.items[j].released {
			return lib.WrapError(ErrMilestoneOutOfOrder, fmt.Errorf("milestone %d is not released", j))
		}
	}
	if m.votingPhase == VotingOpen {
		return ErrVotingStillOpen
	}

	m.votingPhase = VotingOpen
	m.votingDeadline = votingDeadline
	m.yesWeight.SetInt64(0)
	m.noWeight.SetInt64(0)
	m.votedBy.Clear()
	m.round++
	return nil
}

func (r *Registry) get(index int) (*milestone, error) {
	if index < 0 || index >= len(r.items) {
		return nil, lib.WrapError(ErrInvalidAmount, fmt.Errorf("milestone index %d out of range [0, %d)", index, len(r.items)))
	}
	return r.items[index], nil
}

func totalAmount(amounts []*big.Int) *big.Int {
	sum := new(big.Int)
	for _, a := range amounts {
		sum.Add(sum, a)
	}
	return sum
}
