// Package intent decides the single legal next action for a swap session and
// orchestrates the approve-then-swap sequence across its collaborators.
package intent

import (
	"github.com/RaghavSood/swapdesk/executor"
	"github.com/RaghavSood/swapdesk/tokens"
)

// Kind is the action a caller should take when the user activates the main
// control.
type Kind int

const (
	KindNone Kind = iota
	KindConnect
	KindApprove
	KindSwap
)

// Action is the user-facing decision: what to present and whether it is
// actionable.
type Action struct {
	Label   string
	Enabled bool
	Kind    Kind
}

// Snapshot is the combined session state Decide operates on.
type Snapshot struct {
	Connected bool
	FromToken *tokens.Token
	ToToken   *tokens.Token
	Amount    string

	AllowanceLoading bool
	NeedsApproval    bool

	// SwapPreparing and CanSwap reflect the swap executor's prepared-payload
	// state; a swap is only actionable once its transaction is fetched.
	SwapPreparing bool
	CanSwap       bool

	Approval executor.Snapshot
	Swap     executor.Snapshot
}

// Decide is a pure function from session state to the single legal next
// action. First match wins.
func Decide(s Snapshot) Action {
	if !s.Connected {
		return Action{Label: "Connect your wallet", Enabled: true, Kind: KindConnect}
	}
	if s.FromToken == nil || s.ToToken == nil {
		return Action{Label: "Select tokens"}
	}
	if s.Amount == "" || s.Amount == "0" {
		return Action{Label: "Enter amount"}
	}
	if s.AllowanceLoading {
		// Keep the sub-machine's label but block interaction until the
		// allowance reading lands.
		a := decideReady(s)
		a.Enabled = false
		a.Kind = KindNone
		return a
	}
	return decideReady(s)
}

func decideReady(s Snapshot) Action {
	if s.NeedsApproval {
		switch s.Approval.State {
		case executor.StateSubmitting, executor.StatePending:
			return Action{Label: "Preparing approval..."}
		case executor.StateConfirming:
			return Action{Label: "Confirming approval..."}
		case executor.StateConfirmed:
			// Confirmed but the allowance refetch has not landed yet; staying
			// disabled blocks a double approve.
			return Action{Label: "Approval confirmed! Ready to swap"}
		default:
			return Action{Label: "Approve " + s.FromToken.Symbol, Enabled: true, Kind: KindApprove}
		}
	}

	switch s.Swap.State {
	case executor.StateSubmitting, executor.StatePending:
		return Action{Label: "Preparing swap..."}
	case executor.StateConfirming:
		return Action{Label: "Confirming transaction..."}
	case executor.StateConfirmed:
		return Action{Label: "Swap completed!"}
	default:
		if s.SwapPreparing {
			return Action{Label: "Preparing swap..."}
		}
		// Without a prepared transaction the swap can only fail; stay
		// disabled until the fetch lands.
		if !s.CanSwap {
			return Action{Label: "Swap"}
		}
		return Action{Label: "Swap", Enabled: true, Kind: KindSwap}
	}
}
