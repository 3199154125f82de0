package campaign

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"gitlab.com/TitanInd/milestone-escrow/internal/interfaces"
	"gitlab.com/TitanInd/milestone-escrow/internal/lib"
)

type Config struct {
	MaxVoteDuration time.Duration // zero disables the limit
}

// Info is a read-only snapshot of campaign level state
type Info struct {
	ID                 string
	Title              string
	Owner              common.Address
	Goal               *big.Int
	CreatedAt          time.Time
	Deadline           time.Time
	TotalRaised        *big.Int
	CustodyBalance     *big.Int
	Phase              Phase
	Finalized          bool
	Contributors       int
	MilestoneCount     int
	MilestonesReleased int
}

// Campaign is one funding round with its milestone schedule. Mutating operations are
// serialized, queries may run at any time including while a transfer is in flight
type Campaign struct {
	// config
	address   common.Address
	owner     common.Address
	title     string
	goal      *big.Int
	createdAt time.Time
	cfg       Config

	// state
	phase      Phase
	ledger     *Ledger
	milestones *Registry
	stateMutex sync.RWMutex // guards state, never held during a transfer
	opMutex    *lib.Mutex   // serializes mutating operations

	// deps
	clock     campaignClock
	guard     *DisbursementGuard
	listeners *listeners
	log       interfaces.ILogger
}

func NewCampaign(address common.Address, params Params, cfg Config, transferer Transferer, clock lib.Clock, log interfaces.ILogger) (*Campaign, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	createdAt := clock.Now()
	return &Campaign{
		address:    address,
		owner:      params.Owner,
		title:      params.Title,
		goal:       new(big.Int).Set(params.Goal),
		createdAt:  createdAt,
		cfg:        cfg,
		phase:      PhaseOpen,
		ledger:     NewLedger(),
		milestones: NewRegistry(params.MilestoneTitles, params.MilestoneAmounts),
		opMutex:    lib.NewMutex(),
		clock:      newCampaignClock(createdAt.Add(params.Duration), clock),
		guard:      NewDisbursementGuard(transferer),
		listeners:  newListeners(),
		log:        log,
	}, nil
}

// Pledge adds amount to the contributor entry and the campaign total
func (c *Campaign) Pledge(ctx context.Context, from common.Address, amount *big.Int) error {
	return c.execute(ctx, "pledge", func(e *emitter) error {
		c.stateMutex.Lock()
		defer c.stateMutex.Unlock()

		if !isPositive(amount) {
			return ErrInvalidAmount
		}
		if err := c.checkFundingOpen(); err != nil {
			return err
		}
		if err := c.ledger.Pledge(from, amount); err != nil {
			return err
		}
		c.guard.Deposit(amount)

		n := c.newNotification(KindPledgeMade, from)
		n.Amount = amountCopy(amount)
		e.emit(n)

		c.log.Infof("pledge of %s from %s, total raised %s", amount, from.Hex(), c.ledger.totalRaised)
		return nil
	})
}

// Receive handles value sent without selecting an operation, it is a pledge
func (c *Campaign) Receive(ctx context.Context, from common.Address, amount *big.Int) error {
	return c.Pledge(ctx, from, amount)
}

// Withdraw returns part of a pledge while the campaign is still funding
func (c *Campaign) Withdraw(ctx context.Context, from common.Address, amount *big.Int) error {
	return c.execute(ctx, "withdraw", func(e *emitter) error {
		if err := c.withdrawEffects(from, amount); err != nil {
			return err
		}

		err := c.guard.Disburse(ctx, from, amount)
		if err != nil && !errors.Is(err, ErrTransferPending) {
			c.stateMutex.Lock()
			_ = c.ledger.Pledge(from, amount)
			c.stateMutex.Unlock()

			c.log.Warnf("withdrawal of %s to %s failed, rolled back: %s", amount, from.Hex(), err)
			return err
		}

		n := c.newNotification(KindWithdrawalMade, from)
		n.Amount = amountCopy(amount)
		e.emit(n)

		if err != nil {
			c.log.Warnf("withdrawal of %s to %s sent, not confirmed: %s", amount, from.Hex(), err)
			return err
		}
		c.log.Infof("withdrawal of %s to %s", amount, from.Hex())
		return nil
	})
}

func (c *Campaign) withdrawEffects(from common.Address, amount *big.Int) error {
	c.stateMutex.Lock()
	defer c.stateMutex.Unlock()

	if !isPositive(amount) {
		return ErrInvalidAmount
	}
	if err := c.checkFundingOpen(); err != nil {
		return err
	}
	return c.ledger.Withdraw(from, amount)
}

// Finalize decides the outcome of the funding round once the deadline is reached
func (c *Campaign) Finalize(ctx context.Context) error {
	return c.execute(ctx, "finalize", func(e *emitter) error {
		c.stateMutex.Lock()
		defer c.stateMutex.Unlock()

		if c.phase.Finalized() {
			return ErrAlreadyFinalized
		}
		if c.clock.FundingOpen() {
			return ErrCampaignStillOpen
		}
		return c.finalize(e)
	})
}

// ClaimRefund pays the caller's whole recorded contribution back from a failed or cancelled campaign
func (c *Campaign) ClaimRefund(ctx context.Context, from common.Address) error {
	return c.execute(ctx, "refund", func(e *emitter) error {
		amount, err := c.refundEffects(from)
		if err != nil {
			return err
		}

		err = c.guard.Disburse(ctx, from, amount)
		if err != nil && !errors.Is(err, ErrTransferPending) {
			c.stateMutex.Lock()
			c.ledger.RestoreRefund(from, amount)
			c.stateMutex.Unlock()

			c.log.Warnf("refund of %s to %s failed, rolled back: %s", amount, from.Hex(), err)
			return err
		}

		n := c.newNotification(KindRefundMade, from)
		n.Amount = amount
		e.emit(n)

		if err != nil {
			c.log.Warnf("refund of %s to %s sent, not confirmed: %s", amount, from.Hex(), err)
			return err
		}
		c.log.Infof("refund of %s to %s", amount, from.Hex())
		return nil
	})
}

func (c *Campaign) refundEffects(from common.Address) (*big.Int, error) {
	c.stateMutex.Lock()
	defer c.stateMutex.Unlock()

	if !c.phase.Finalized() {
		return nil, ErrNotYetFinalized
	}
	if !c.phase.RefundEligible() {
		return nil, ErrGoalNotReached
	}
	return c.ledger.ClearForRefund(from)
}

// CancelSuccessful is the owner's escape hatch, it makes a successful campaign refund eligible.
// A campaign past its deadline is finalized first
func (c *Campaign) CancelSuccessful(ctx context.Context, caller common.Address) error {
	return c.execute(ctx, "cancel", func(e *emitter) error {
		c.stateMutex.Lock()
		defer c.stateMutex.Unlock()

		if caller != c.owner {
			return ErrNotAuthorized
		}

		if c.phase == PhaseOpen {
			if c.clock.FundingOpen() {
				return ErrNotYetFinalized
			}
			if !c.goalMet() {
				return ErrGoalNotReached
			}
			if err := c.finalize(e); err != nil {
				return err
			}
		}

		next, err := Transition(c.phase, EventCancel)
		if err != nil {
			return err
		}
		c.phase = next

		n := c.newNotification(KindCampaignCancelled, caller)
		n.Amount = c.ledger.TotalRaised()
		e.emit(n)

		c.log.Infof("campaign cancelled by owner, %s left in custody", c.guard.Balance())
		return nil
	})
}

// StartMilestoneVote opens a fresh voting round on the next milestone due for release
func (c *Campaign) StartMilestoneVote(ctx context.Context, caller common.Address, index int, duration time.Duration) error {
	return c.execute(ctx, "start milestone vote", func(e *emitter) error {
		c.stateMutex.Lock()
		defer c.stateMutex.Unlock()

		if caller != c.owner {
			return ErrNotAuthorized
		}
		if err := c.checkVoteEligible(); err != nil {
			return err
		}
		if _, err := c.milestones.get(index); err != nil {
			return err
		}
		if duration <= 0 || (c.cfg.MaxVoteDuration > 0 && duration > c.cfg.MaxVoteDuration) {
			return ErrInvalidAmount
		}

		votingDeadline := c.clock.Now().Add(duration)
		if err := c.milestones.Open(index, votingDeadline); err != nil {
			return err
		}

		n := c.newNotification(KindMilestoneVoteOpened, caller)
		n.MilestoneIndex = index
		n.Amount = amountCopy(c.milestones.items[index].amount)
		e.emit(n)

		c.log.Infof("vote on milestone %d opened until %s", index, votingDeadline.Format(time.RFC3339))
		return nil
	})
}

// VoteOnMilestone tallies the caller's current contribution as yes or no weight
func (c *Campaign) VoteOnMilestone(ctx context.Context, voter common.Address, index int, support bool) error {
	return c.execute(ctx, "vote", func(e *emitter) error {
		c.stateMutex.Lock()
		defer c.stateMutex.Unlock()

		if c.phase != PhaseSuccessful {
			return ErrGoalNotReached
		}
		m, err := c.milestones.get(index)
		if err != nil {
			return err
		}
		if m.released {
			return ErrMilestoneReleased
		}
		if m.votingPhase == VotingOpen && c.clock.VoteWindowClosed(m.votingDeadline) {
			return ErrVotingNotOpen
		}

		weight := c.ledger.BalanceOf(voter)
		if err := m.castVote(voter, support, weight); err != nil {
			return err
		}

		n := c.newNotification(KindVoteCast, voter)
		n.MilestoneIndex = index
		n.Amount = weight
		n.Support = support
		e.emit(n)

		c.log.Infof("vote on milestone %d by %s, support %t, weight %s", index, voter.Hex(), support, weight)
		return nil
	})
}

// FinalizeMilestoneVote closes an expired voting round and releases the milestone to the owner if it passed
func (c *Campaign) FinalizeMilestoneVote(ctx context.Context, caller common.Address, index int) error {
	return c.execute(ctx, "finalize milestone vote", func(e *emitter) error {
		m, outcome, err := c.closeVoteEffects(index)
		if err != nil {
			return err
		}

		if outcome != OutcomePassed {
			n := c.newNotification(KindMilestoneRejected, caller)
			n.MilestoneIndex = index
			n.Amount = amountCopy(m.amount)
			n.Outcome = outcome.String()
			if c.Phase() != PhaseSuccessful {
				n.Outcome = PhaseCancelled.String()
			}
			e.emit(n)

			c.log.Infof("milestone %d not released: %s", index, n.Outcome)
			return nil
		}

		err = c.guard.Disburse(ctx, c.owner, m.amount)
		if err != nil && !errors.Is(err, ErrTransferPending) {
			c.stateMutex.Lock()
			c.ledger.RevertRelease(m.amount)
			m.released = false
			m.votingPhase = VotingOpen
			c.stateMutex.Unlock()

			c.log.Warnf("release of milestone %d failed, rolled back: %s", index, err)
			return err
		}

		n := c.newNotification(KindMilestoneReleased, c.owner)
		n.MilestoneIndex = index
		n.Amount = amountCopy(m.amount)
		n.Outcome = outcome.String()
		e.emit(n)

		if err != nil {
			c.log.Warnf("milestone %d released, transfer to owner not confirmed: %s", index, err)
			return err
		}
		c.log.Infof("milestone %d released, %s sent to owner", index, m.amount)
		return nil
	})
}

// closeVoteEffects closes the round and, for a passing vote, books the release
func (c *Campaign) closeVoteEffects(index int) (*milestone, Outcome, error) {
	c.stateMutex.Lock()
	defer c.stateMutex.Unlock()

	m, err := c.milestones.get(index)
	if err != nil {
		return nil, 0, err
	}
	if m.votingPhase != VotingOpen {
		return nil, 0, ErrVotingNotOpen
	}
	if !c.clock.VoteWindowClosed(m.votingDeadline) {
		return nil, 0, ErrVotingStillOpen
	}

	if c.phase != PhaseSuccessful {
		m.votingPhase = VotingClosed
		return m, OutcomeRejected, nil
	}

	outcome := Evaluate(m.yesWeight, m.noWeight, c.ledger.totalRaised)
	if outcome == OutcomePassed {
		if err := c.ledger.Release(m.amount); err != nil {
			return nil, 0, err
		}
		m.released = true
	}
	m.votingPhase = VotingClosed
	return m, outcome, nil
}

func (c *Campaign) ID() string {
	return c.address.Hex()
}

func (c *Campaign) Address() common.Address {
	return c.address
}

func (c *Campaign) Owner() common.Address {
	return c.owner
}

func (c *Campaign) Title() string {
	return c.title
}

func (c *Campaign) Deadline() time.Time {
	return c.clock.deadline
}

func (c *Campaign) Phase() Phase {
	c.stateMutex.RLock()
	defer c.stateMutex.RUnlock()
	return c.phase
}

func (c *Campaign) TotalRaised() *big.Int {
	c.stateMutex.RLock()
	defer c.stateMutex.RUnlock()
	return c.ledger.TotalRaised()
}

func (c *Campaign) ContributionOf(addr common.Address) *big.Int {
	c.stateMutex.RLock()
	defer c.stateMutex.RUnlock()
	return c.ledger.BalanceOf(addr)
}

func (c *Campaign) CustodyBalance() *big.Int {
	return c.guard.Balance()
}

func (c *Campaign) Milestone(index int) (Milestone, error) {
	c.stateMutex.RLock()
	defer c.stateMutex.RUnlock()
	return c.milestones.Get(index)
}

func (c *Campaign) MilestoneCount() int {
	return c.milestones.Count()
}

func (c *Campaign) Milestones() []Milestone {
	c.stateMutex.RLock()
	defer c.stateMutex.RUnlock()
	return c.milestones.All()
}

func (c *Campaign) Info() Info {
	c.stateMutex.RLock()
	defer c.stateMutex.RUnlock()

	return Info{
		ID:                 c.ID(),
		Title:              c.title,
		Owner:              c.owner,
		Goal:               new(big.Int).Set(c.goal),
		CreatedAt:          c.createdAt,
		Deadline:           c.clock.deadline,
		TotalRaised:        c.ledger.TotalRaised(),
		CustodyBalance:     c.guard.Balance(),
		Phase:              c.phase,
		Finalized:          c.phase.Finalized(),
		Contributors:       c.ledger.Contributors(),
		MilestoneCount:     c.milestones.Count(),
		MilestonesReleased: c.milestones.ReleasedCount(),
	}
}

// AddListener registers a callback for notifications, the returned ID removes it
func (c *Campaign) AddListener(listener Listener) string {
	return c.listeners.add(listener)
}

func (c *Campaign) RemoveListener(ID string) bool {
	return c.listeners.remove(ID)
}

type emitter struct {
	batch []Notification
}

func (e *emitter) emit(n Notification) {
	e.batch = append(e.batch, n)
}

// execute runs a mutating operation. Any entry while an outbound transfer is in flight fails fast,
// whatever context it carries. Notifications are delivered after every lock is released
func (c *Campaign) execute(ctx context.Context, name string, op func(e *emitter) error) error {
	if c.guard.Locked() {
		c.log.Debugf("%s rejected: %s", name, ErrReentrantCall)
		return ErrReentrantCall
	}

	batch, err := c.runLocked(ctx, op)
	c.listeners.notify(batch)
	if err != nil {
		c.log.Debugf("%s rejected: %s", name, err)
		return err
	}
	return nil
}

func (c *Campaign) runLocked(ctx context.Context, op func(e *emitter) error) ([]Notification, error) {
	if err := c.opMutex.LockCtx(ctx); err != nil {
		return nil, err
	}
	defer c.opMutex.Unlock()

	e := &emitter{}
	if err := op(e); err != nil {
		// a pending transfer has committed its effects
		if errors.Is(err, ErrTransferPending) {
			return e.batch, err
		}
		return nil, err
	}
	return e.batch, nil
}

// finalize moves an Open campaign to its outcome, caller holds the state lock
func (c *Campaign) finalize(e *emitter) error {
	event, kind := EventGoalMissed, KindCampaignFailed
	if c.goalMet() {
		event, kind = EventGoalMet, KindCampaignSucceeded
	}

	next, err := Transition(c.phase, event)
	if err != nil {
		return err
	}
	c.phase = next

	n := c.newNotification(kind, common.Address{})
	n.Amount = c.ledger.TotalRaised()
	e.emit(n)

	c.log.Infof("campaign finalized as %s, raised %s of %s", next, c.ledger.totalRaised, c.goal)
	return nil
}

func (c *Campaign) goalMet() bool {
	return c.ledger.totalRaised.Cmp(c.goal) >= 0
}

func (c *Campaign) checkFundingOpen() error {
	if c.phase != PhaseOpen || !c.clock.FundingOpen() {
		return ErrCampaignClosed
	}
	return nil
}

func (c *Campaign) checkVoteEligible() error {
	if !c.phase.Finalized() {
		return ErrNotYetFinalized
	}
	if !c.phase.VoteEligible() {
		return ErrGoalNotReached
	}
	return nil
}

func (c *Campaign) newNotification(kind NotificationKind, actor common.Address) Notification {
	return Notification{
		ID:             uuid.NewString(),
		CampaignID:     c.ID(),
		Kind:           kind,
		Actor:          actor,
		MilestoneIndex: NoMilestone,
		Timestamp:      c.clock.Now(),
	}
}
