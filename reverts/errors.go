// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

// validation
var (
	ErrInvalidAmount                 = New(KindValidation, "invalid amount")
	ErrBelowMinimumDeposit           = New(KindValidation, "below minimum validator deposit")
	ErrBelowMinimumDelegatorDeposit  = New(KindValidation, "below minimum delegator deposit")
	ErrAlreadyRegistered             = New(KindValidation, "validator already registered")
	ErrAppchainIDTaken               = New(KindValidation, "appchain id already bound to another validator")
	ErrInvalidAppchainID             = New(KindValidation, "invalid appchain id")
	ErrUnknownValidator              = New(KindValidation, "unknown validator")
	ErrUnknownDelegator              = New(KindValidation, "unknown delegator")
	ErrValidatorNotDelegatable       = New(KindValidation, "validator can not be delegated to")
	ErrInsufficientStakeToDecrease   = New(KindValidation, "insufficient stake to decrease")
	ErrTooManyValidators             = New(KindValidation, "too many validators")
	ErrTooManyDelegators             = New(KindValidation, "too many delegators")
	ErrSelfDelegation                = New(KindValidation, "validator can not delegate to itself")
	ErrInvalidAppchainState          = New(KindValidation, "invalid appchain state")
	ErrNotEnoughValidators           = New(KindValidation, "not enough validators")
	ErrInsufficientTotalStakeValue   = New(KindValidation, "total stake value below booting minimum")
	ErrTokenPriceNotSet              = New(KindValidation, "deposit token price not set")
	ErrMissingChainSpec              = New(KindValidation, "chain spec not set")
	ErrMissingRawChainSpec           = New(KindValidation, "raw chain spec not set")
	ErrMissingBootNodes              = New(KindValidation, "boot nodes not set")
	ErrMissingRPCEndpoint            = New(KindValidation, "rpc endpoint not set")
	ErrMissingEraReward              = New(KindValidation, "era reward not set")
	ErrInvalidSettings               = New(KindValidation, "invalid settings")
	ErrUnknownEra                    = New(KindValidation, "unknown era")
	ErrRewardNotConcluded            = New(KindValidation, "era reward not concluded")
	ErrInvalidDepositMessage         = New(KindValidation, "invalid deposit message")
	ErrUnknownContinuation           = New(KindValidation, "unknown continuation")
	ErrNothingToWithdraw             = New(KindValidation, "nothing to withdraw")
	ErrInvalidMessage                = New(KindValidation, "invalid appchain message")
	ErrInsufficientDelegationBalance = New(KindValidation, "insufficient delegation to decrease")
)

// ordering
var (
	ErrUnexpectedNonce         = New(KindOrdering, "unexpected message nonce")
	ErrEraAlreadySnapshotted   = New(KindOrdering, "era already snapshotted")
	ErrUnexpectedEra           = New(KindOrdering, "unexpected era number")
	ErrRewardAlreadyConcluded  = New(KindOrdering, "era reward already concluded")
	ErrPreviousEraNotConcluded = New(KindOrdering, "previous era reward not concluded")
)

// concurrency
var (
	ErrSettlementInProgress = New(KindConcurrency, "settlement in progress")
	ErrWithdrawalInProgress = New(KindConcurrency, "withdrawal in progress")
)

// transfer
var (
	ErrTransferFailed = New(KindTransfer, "transfer not confirmed")
)

// authorization
var (
	ErrUnauthorized = New(KindAuthorization, "caller is not authorized")
)
