// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func Test_Reverts(t *testing.T) {
	revert := New(KindValidation, "test")
	assert.Equal(t, "test", revert.message)
	assert.Equal(t, revert.Error(), revert.message)
	assert.Equal(t, KindValidation, revert.Kind())

	assert.True(t, IsRevertErr(revert))
	assert.False(t, IsRevertErr(nil))
	assert.False(t, IsRevertErr(fmt.Errorf("test")))
	assert.False(t, IsRevertErr(big.NewInt(0)))
}

func TestWrappedRevert(t *testing.T) {
	err := errors.Wrapf(ErrUnknownValidator, "validator %s", "alice")
	assert.True(t, IsRevertErr(err))
	assert.ErrorIs(t, err, ErrUnknownValidator)
	assert.Equal(t, "validator alice: unknown validator", err.Error())

	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, KindValidation, kind)

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "ordering", KindOrdering.String())
	assert.Equal(t, "concurrency", ErrSettlementInProgress.Kind().String())
	assert.Equal(t, "authorization", ErrUnauthorized.Kind().String())
	assert.Equal(t, "transfer", ErrTransferFailed.Kind().String())
	assert.Equal(t, "unknown", Kind(0).String())
}
