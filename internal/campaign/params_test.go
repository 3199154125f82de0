package campaign

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gitlab.com/TitanInd/milestone-escrow/internal/lib"
)

func validParams() Params {
	return Params{
		Title:            "Solar kiln",
		Owner:            lib.GetRandomAddr(),
		Goal:             big.NewInt(5),
		Duration:         time.Hour,
		MilestoneTitles:  []string{"prototype", "production"},
		MilestoneAmounts: []*big.Int{big.NewInt(2), big.NewInt(3)},
	}
}

func TestParamsValid(t *testing.T) {
	require.NoError(t, validParams().Validate())
}

func TestParamsInvalid(t *testing.T) {
	cases := map[string]func(p *Params){
		"empty title":       func(p *Params) { p.Title = "" },
		"no owner":          func(p *Params) { p.Owner = [20]byte{} },
		"nil goal":          func(p *Params) { p.Goal = nil },
		"zero goal":         func(p *Params) { p.Goal = big.NewInt(0) },
		"zero duration":     func(p *Params) { p.Duration = 0 },
		"negative duration": func(p *Params) { p.Duration = -time.Second },
		"length mismatch":   func(p *Params) { p.MilestoneTitles = p.MilestoneTitles[:1] },
		"zero milestone":    func(p *Params) { p.MilestoneAmounts[1] = big.NewInt(0) },
		"nil milestone":     func(p *Params) { p.MilestoneAmounts[1] = nil },
		"empty milestone":   func(p *Params) { p.MilestoneTitles[0] = "" },
		"no milestones":     func(p *Params) { p.MilestoneTitles, p.MilestoneAmounts = nil, nil },
		"over goal":         func(p *Params) { p.MilestoneAmounts[1] = big.NewInt(4) },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := validParams()
			mutate(&p)
			require.ErrorIs(t, p.Validate(), ErrInvalidParams)
		})
	}
}

func TestParamsSumEqualToGoal(t *testing.T) {
	p := validParams()
	p.MilestoneAmounts = []*big.Int{big.NewInt(1), big.NewInt(4)}
	require.NoError(t, p.Validate())
}
