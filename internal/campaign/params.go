package campaign

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"gitlab.com/TitanInd/milestone-escrow/internal/lib"
)

// Params are the instantiation parameters of a campaign, milestone slices are parallel
type Params struct {
	Title            string         `validate:"required,max=256"`
	Owner            common.Address `validate:"-"`
	Goal             *big.Int       `validate:"required"`
	Duration         time.Duration  `validate:"gt=0"`
	MilestoneTitles  []string       `validate:"required,min=1,dive,required,max=256"`
	MilestoneAmounts []*big.Int     `validate:"required,min=1,dive,required"`
}

var validate = validator.New()

// Validate checks field constraints and the amount relations between goal and milestones
func (p Params) Validate() error {
	if err := validate.Struct(p); err != nil {
		return lib.WrapError(ErrInvalidParams, err)
	}
	if p.Owner == (common.Address{}) {
		return lib.WrapError(ErrInvalidParams, fmt.Errorf("owner is required"))
	}
	if !isPositive(p.Goal) {
		return lib.WrapError(ErrInvalidParams, fmt.Errorf("goal must be positive"))
	}
	if len(p.MilestoneTitles) != len(p.MilestoneAmounts) {
		return lib.WrapError(ErrInvalidParams, fmt.Errorf("got %d milestone titles and %d amounts", len(p.MilestoneTitles), len(p.MilestoneAmounts)))
	}
	for i, amount := range p.MilestoneAmounts {
		if !isPositive(amount) {
			return lib.WrapError(ErrInvalidParams, fmt.Errorf("milestone %d amount must be positive", i))
		}
	}
	if sum := totalAmount(p.MilestoneAmounts); sum.Cmp(p.Goal) > 0 {
		return lib.WrapError(ErrInvalidParams, fmt.Errorf("milestones total %s exceeds goal %s", sum, p.Goal))
	}
	return nil
}
