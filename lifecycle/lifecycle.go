// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lifecycle

import (
	"math/big"
	"strings"

	"github.com/pkg/errors"

	"github.com/vechain/anchor/reverts"
	"github.com/vechain/anchor/settings"
	"github.com/vechain/anchor/storage"
)

var slotState = storage.NewSlot("lifecycle-state")

// State is the appchain lifecycle state.
type State uint8

const (
	Staging State = iota
	Booting
	Active
	Broken
)

func (s State) String() string {
	switch s {
	case Staging:
		return "Staging"
	case Booting:
		return "Booting"
	case Active:
		return "Active"
	case Broken:
		return "Broken"
	default:
		return "Unknown"
	}
}

// AllowsStaking reports whether ledger mutations other than withdrawals are accepted.
func (s State) AllowsStaking() bool {
	return s == Staging || s == Booting || s == Active
}

// AllowsEraEvents reports whether appchain era events are accepted.
func (s State) AllowsEraEvents() bool {
	return s == Booting || s == Active
}

// ConditionsError lists every unmet booting condition.
type ConditionsError struct {
	Missing []error
}

func (e *ConditionsError) Error() string {
	msgs := make([]string, 0, len(e.Missing))
	for _, err := range e.Missing {
		msgs = append(msgs, err.Error())
	}
	return "booting conditions not met: " + strings.Join(msgs, "; ")
}

func (e *ConditionsError) Unwrap() []error {
	return e.Missing
}

// Conditions is the data checked before booting.
type Conditions struct {
	ValidatorCount uint64
	TotalStake     *big.Int
	Protocol       *settings.Protocol
	Appchain       *settings.Appchain
	Price          *settings.Price
}

// Check returns a ConditionsError naming each unmet condition, nil when all are met.
func (c *Conditions) Check() error {
	var missing []error
	if c.ValidatorCount < c.Protocol.MinimumValidatorCount {
		missing = append(missing, errors.Wrapf(reverts.ErrNotEnoughValidators,
			"%d of %d", c.ValidatorCount, c.Protocol.MinimumValidatorCount))
	}
	value, err := c.Price.StakeValue(c.TotalStake)
	if err != nil {
		missing = append(missing, err)
	} else if value.Cmp(c.Protocol.MinimumTotalStakePriceForBooting) < 0 {
		missing = append(missing, errors.Wrapf(reverts.ErrInsufficientTotalStakeValue,
			"%s of %s", value, c.Protocol.MinimumTotalStakePriceForBooting))
	}
	for _, field := range []struct {
		set bool
		err error
	}{
		{c.Appchain.ChainSpec != "", reverts.ErrMissingChainSpec},
		{c.Appchain.RawChainSpec != "", reverts.ErrMissingRawChainSpec},
		{c.Appchain.BootNodes != "", reverts.ErrMissingBootNodes},
		{c.Appchain.RPCEndpoint != "", reverts.ErrMissingRPCEndpoint},
		{c.Appchain.EraReward != nil && c.Appchain.EraReward.Sign() > 0, reverts.ErrMissingEraReward},
	} {
		if !field.set {
			missing = append(missing, field.err)
		}
	}
	if len(missing) > 0 {
		return &ConditionsError{Missing: missing}
	}
	return nil
}

// Service holds the appchain state.
type Service struct {
	state *storage.Raw[State]
}

func New(sctx *storage.Context) *Service {
	return &Service{state: storage.NewRaw[State](sctx, slotState)}
}

func (s *Service) State() (State, error) {
	return s.state.Get()
}

// GoBooting moves Staging to Booting once all conditions hold.
func (s *Service) GoBooting(c *Conditions) error {
	if err := s.expect(Staging); err != nil {
		return err
	}
	if err := c.Check(); err != nil {
		return err
	}
	return s.state.Set(Booting)
}

// GoLive moves Booting to Active.
func (s *Service) GoLive() error {
	if err := s.expect(Booting); err != nil {
		return err
	}
	return s.state.Set(Active)
}

// MarkBroken moves Active to the terminal Broken state.
func (s *Service) MarkBroken() error {
	if err := s.expect(Active); err != nil {
		return err
	}
	return s.state.Set(Broken)
}

func (s *Service) expect(want State) error {
	cur, err := s.State()
	if err != nil {
		return err
	}
	if cur != want {
		return errors.Wrapf(reverts.ErrInvalidAppchainState, "%s, want %s", cur, want)
	}
	return nil
}
