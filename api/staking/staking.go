// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/anchor/anchor"
	"github.com/vechain/anchor/api/utils"
	"github.com/vechain/anchor/ledger"
	"github.com/vechain/anchor/profiles"
	"github.com/vechain/anchor/settings"
	"github.com/vechain/anchor/types"
	"github.com/vechain/anchor/unbonding"
)

const defaultPageSize = 100

// Anchor is the read side of the anchor used by this api.
type Anchor interface {
	Status() (*anchor.Status, error)
	Validators() ([]*ledger.Validator, error)
	Validator(id types.AccountID) (*ledger.Validator, error)
	Delegators(validatorID types.AccountID) ([]*ledger.Delegator, error)
	Delegations(id types.AccountID) ([]*ledger.Delegator, error)
	Profile(id types.AccountID) (*profiles.Profile, error)
	UnbondedStakes(owner types.AccountID) ([]*unbonding.Entry, error)
	StakingHistories(from, count uint64) ([]*ledger.History, error)
	Events(from, count uint64) ([]*anchor.Event, error)
	Settings() (*settings.Genesis, error)
}

type Staking struct {
	anchor   Anchor
	pageSize uint64
}

func New(a Anchor, pageSize uint64) *Staking {
	if pageSize == 0 {
		pageSize = defaultPageSize
	}
	return &Staking{anchor: a, pageSize: pageSize}
}

func (s *Staking) handleGetStatus(w http.ResponseWriter, _ *http.Request) error {
	st, err := s.anchor.Status()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertStatus(st))
}

func (s *Staking) handleGetValidators(w http.ResponseWriter, _ *http.Request) error {
	vs, err := s.anchor.Validators()
	if err != nil {
		return err
	}
	out := make([]*Validator, 0, len(vs))
	for _, v := range vs {
		out = append(out, convertValidator(v, nil))
	}
	return utils.WriteJSON(w, out)
}

func (s *Staking) handleGetValidator(w http.ResponseWriter, req *http.Request) error {
	id, err := utils.ParseAccount(mux.Vars(req)["id"])
	if err != nil {
		return err
	}
	v, err := s.anchor.Validator(id)
	if err != nil {
		return err
	}
	if v == nil {
		return utils.NotFound(errors.Errorf("validator %s not found", id))
	}
	p, err := s.anchor.Profile(id)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertValidator(v, p))
}

func (s *Staking) handleGetDelegators(w http.ResponseWriter, req *http.Request) error {
	id, err := utils.ParseAccount(mux.Vars(req)["id"])
	if err != nil {
		return err
	}
	ds, err := s.anchor.Delegators(id)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertDelegators(ds))
}

func (s *Staking) handleGetDelegations(w http.ResponseWriter, req *http.Request) error {
	id, err := utils.ParseAccount(mux.Vars(req)["id"])
	if err != nil {
		return err
	}
	ds, err := s.anchor.Delegations(id)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertDelegators(ds))
}

func (s *Staking) handleGetUnbonded(w http.ResponseWriter, req *http.Request) error {
	owner, err := utils.ParseAccount(mux.Vars(req)["owner"])
	if err != nil {
		return err
	}
	es, err := s.anchor.UnbondedStakes(owner)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertUnbonded(es))
}

func (s *Staking) page(req *http.Request) (from, count uint64, err error) {
	query := req.URL.Query()
	if from, err = utils.ParseUint(query.Get("from"), 0); err != nil {
		return
	}
	if count, err = utils.ParseUint(query.Get("count"), s.pageSize); err != nil {
		return
	}
	if count > s.pageSize {
		err = utils.BadRequest(errors.Errorf("count exceeds %d", s.pageSize))
	}
	return
}

func (s *Staking) handleGetHistories(w http.ResponseWriter, req *http.Request) error {
	from, count, err := s.page(req)
	if err != nil {
		return err
	}
	hs, err := s.anchor.StakingHistories(from, count)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertHistories(hs))
}

func (s *Staking) handleGetEvents(w http.ResponseWriter, req *http.Request) error {
	from, count, err := s.page(req)
	if err != nil {
		return err
	}
	es, err := s.anchor.Events(from, count)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertEvents(es))
}

func (s *Staking) handleGetSettings(w http.ResponseWriter, _ *http.Request) error {
	g, err := s.anchor.Settings()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertSettings(g))
}

func (s *Staking) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/status").
		Methods(http.MethodGet).
		Name("GET /status").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetStatus))
	sub.Path("/validators").
		Methods(http.MethodGet).
		Name("GET /validators").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetValidators))
	sub.Path("/validators/{id}").
		Methods(http.MethodGet).
		Name("GET /validators/{id}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetValidator))
	sub.Path("/validators/{id}/delegators").
		Methods(http.MethodGet).
		Name("GET /validators/{id}/delegators").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetDelegators))
	sub.Path("/delegators/{id}").
		Methods(http.MethodGet).
		Name("GET /delegators/{id}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetDelegations))
	sub.Path("/unbonded/{owner}").
		Methods(http.MethodGet).
		Name("GET /unbonded/{owner}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetUnbonded))
	sub.Path("/histories").
		Methods(http.MethodGet).
		Name("GET /histories").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetHistories))
	sub.Path("/events").
		Methods(http.MethodGet).
		Name("GET /events").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetEvents))
	sub.Path("/settings").
		Methods(http.MethodGet).
		Name("GET /settings").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetSettings))
}
