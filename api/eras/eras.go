// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eras

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/anchor/api/utils"
	"github.com/vechain/anchor/settlement"
	"github.com/vechain/anchor/snapshot"
	"github.com/vechain/anchor/types"
)

const defaultMaxEraRange = 100

// Anchor is the per-era read side of the anchor.
type Anchor interface {
	ValidatorSet(era types.Era) (*snapshot.Info, error)
	SettlementStatus(era types.Era) (*settlement.Status, error)
	ValidatorRewards(id types.AccountID, from, to types.Era) ([]*settlement.RewardView, error)
	DelegatorRewards(id types.AccountID, from, to types.Era) ([]*settlement.RewardView, error)
}

type Eras struct {
	anchor   Anchor
	maxRange uint64
}

func New(a Anchor, maxRange uint64) *Eras {
	if maxRange == 0 {
		maxRange = defaultMaxEraRange
	}
	return &Eras{anchor: a, maxRange: maxRange}
}

func (e *Eras) handleGetValidatorSet(w http.ResponseWriter, req *http.Request) error {
	era, err := utils.ParseEra(mux.Vars(req)["era"])
	if err != nil {
		return err
	}
	info, err := e.anchor.ValidatorSet(era)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertValidatorSet(info))
}

func (e *Eras) handleGetSettlement(w http.ResponseWriter, req *http.Request) error {
	era, err := utils.ParseEra(mux.Vars(req)["era"])
	if err != nil {
		return err
	}
	st, err := e.anchor.SettlementStatus(era)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertSettlement(st))
}

// rewardQuery reads the account and the inclusive era range of a reward request.
func (e *Eras) rewardQuery(req *http.Request) (id types.AccountID, from, to types.Era, err error) {
	if id, err = utils.ParseAccount(mux.Vars(req)["id"]); err != nil {
		return
	}
	query := req.URL.Query()
	if from, err = utils.ParseEra(query.Get("from")); err != nil {
		return
	}
	if to, err = utils.ParseEra(query.Get("to")); err != nil {
		return
	}
	if to < from {
		err = utils.BadRequest(errors.New("to must not be below from"))
		return
	}
	if uint64(to-from) >= e.maxRange {
		err = utils.BadRequest(errors.Errorf("era range exceeds %d", e.maxRange))
	}
	return
}

func (e *Eras) handleGetValidatorRewards(w http.ResponseWriter, req *http.Request) error {
	id, from, to, err := e.rewardQuery(req)
	if err != nil {
		return err
	}
	rs, err := e.anchor.ValidatorRewards(id, from, to)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertRewards(rs))
}

func (e *Eras) handleGetDelegatorRewards(w http.ResponseWriter, req *http.Request) error {
	id, from, to, err := e.rewardQuery(req)
	if err != nil {
		return err
	}
	rs, err := e.anchor.DelegatorRewards(id, from, to)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertRewards(rs))
}

func (e *Eras) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{era:[0-9]+}/validators").
		Methods(http.MethodGet).
		Name("GET /eras/{era}/validators").
		HandlerFunc(utils.WrapHandlerFunc(e.handleGetValidatorSet))
	sub.Path("/{era:[0-9]+}/settlement").
		Methods(http.MethodGet).
		Name("GET /eras/{era}/settlement").
		HandlerFunc(utils.WrapHandlerFunc(e.handleGetSettlement))
	sub.Path("/rewards/validators/{id}").
		Methods(http.MethodGet).
		Name("GET /eras/rewards/validators/{id}").
		HandlerFunc(utils.WrapHandlerFunc(e.handleGetValidatorRewards))
	sub.Path("/rewards/delegators/{id}").
		Methods(http.MethodGet).
		Name("GET /eras/rewards/delegators/{id}").
		HandlerFunc(utils.WrapHandlerFunc(e.handleGetDelegatorRewards))
}
