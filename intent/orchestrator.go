package intent

import (
	"context"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"

	"github.com/RaghavSood/swapdesk/allowance"
	"github.com/RaghavSood/swapdesk/executor"
	"github.com/RaghavSood/swapdesk/quote"
	"github.com/RaghavSood/swapdesk/tokens"
	"github.com/RaghavSood/swapdesk/wallet"
)

// ErrNotConnected is returned by Act when the decided action is connecting a
// wallet, which only the caller can supply.
var ErrNotConnected = errors.New("wallet not connected")

// Orchestrator owns one swap session: the selected pair, the committed
// amount, the allowance reading, and the two transaction executors. All
// sequencing rules (approve before swap, refetch allowance only after a
// confirmed approval, re-prepare the swap on any input change) live here.
type Orchestrator struct {
	engine   *quote.Engine
	allow    *allowance.Tracker
	approval *executor.Approval
	swap     *executor.Swap
	slippage float64

	mu   sync.Mutex
	wlt  wallet.Wallet
	from *tokens.Token
	to   *tokens.Token
}

// New wires an orchestrator around the shared quote engine and allowance
// tracker. spender is the aggregator router granted approvals.
func New(engine *quote.Engine, allow *allowance.Tracker, swapClient executor.SwapClient,
	watcher executor.Watcher, spender common.Address, slippage float64) *Orchestrator {

	o := &Orchestrator{
		engine:   engine,
		allow:    allow,
		slippage: slippage,
	}
	o.approval = executor.NewApproval(nil, spender, watcher, o.onApprovalConfirmed)
	o.swap = executor.NewSwap(swapClient, nil, watcher)

	engine.OnUpdate(func(quote.Result) {
		o.prepareSwap(context.Background())
	})

	return o
}

// Approval exposes the approval executor for direct inspection.
func (o *Orchestrator) Approval() *executor.Approval { return o.approval }

// SwapExecutor exposes the swap executor for direct inspection.
func (o *Orchestrator) SwapExecutor() *executor.Swap { return o.swap }

// Connect attaches a wallet and refreshes everything that depends on the
// owner address.
func (o *Orchestrator) Connect(ctx context.Context, wlt wallet.Wallet) {
	o.mu.Lock()
	o.wlt = wlt
	o.mu.Unlock()

	o.approval.SetWallet(wlt)
	o.swap.SetWallet(wlt)
	o.allow.SetOwner(wlt.Address())

	if err := o.allow.Refetch(ctx); err != nil {
		log.Warn().Err(err).Msg("allowance read failed")
	}
	o.prepareSwap(ctx)
}

// Disconnect clears the wallet. Prepared swap data for the old address is
// invalidated on the next Prepare.
func (o *Orchestrator) Disconnect() {
	o.mu.Lock()
	o.wlt = nil
	o.mu.Unlock()

	o.approval.SetWallet(nil)
	o.swap.SetWallet(nil)
	o.allow.ClearOwner()
}

// SelectTokens switches the traded pair and refreshes the quote, the
// allowance, and the prepared swap.
func (o *Orchestrator) SelectTokens(ctx context.Context, from, to *tokens.Token) {
	o.mu.Lock()
	o.from = from
	o.to = to
	o.mu.Unlock()

	o.engine.SetTokens(from, to)
	o.allow.SetToken(from)
	o.approval.SetToken(from)

	if err := o.allow.Refetch(ctx); err != nil {
		log.Warn().Err(err).Msg("allowance read failed")
	}
	o.prepareSwap(ctx)
}

// Input offers raw amount text to the debounced quote engine. Returns false
// for rejected keystrokes.
func (o *Orchestrator) Input(text string) bool {
	return o.engine.Input(text)
}

// Flush commits pending input immediately.
func (o *Orchestrator) Flush() {
	o.engine.Flush()
}

// Quote returns the current quote view.
func (o *Orchestrator) Quote() quote.Result {
	return o.engine.Result()
}

// Snapshot assembles the decision inputs from the session's collaborators.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	wlt := o.wlt
	from := o.from
	to := o.to
	o.mu.Unlock()

	amount := o.engine.Amount()

	s := Snapshot{
		Connected: wlt != nil,
		FromToken: from,
		ToToken:   to,
		Amount:    amount,

		AllowanceLoading: o.allow.Loading(),
		SwapPreparing:    o.swap.Preparing(),
		CanSwap:          o.swap.CanSwap(),
		Approval:         o.approval.Snapshot(),
		Swap:             o.swap.Snapshot(),
	}
	if from != nil && !tokens.IsNative(from.Address) {
		s.NeedsApproval = !o.allow.HasEnough(amount)
	}
	return s
}

// Action returns the currently legal action without performing it.
func (o *Orchestrator) Action() Action {
	return Decide(o.Snapshot())
}

// Act performs the currently legal action: submits an approval, executes the
// prepared swap, or reports that a wallet connection is required. A disabled
// action is a no-op.
func (o *Orchestrator) Act(ctx context.Context) (Action, error) {
	action := Decide(o.Snapshot())
	if !action.Enabled {
		return action, nil
	}

	switch action.Kind {
	case KindConnect:
		return action, ErrNotConnected
	case KindApprove:
		return action, o.approval.Approve(ctx, "", true)
	case KindSwap:
		_, err := o.swap.Execute(ctx)
		return action, err
	default:
		return action, nil
	}
}

// onApprovalConfirmed re-reads the allowance exactly once per confirmed
// approval. Runs on the tracker's polling goroutine.
func (o *Orchestrator) onApprovalConfirmed() {
	if err := o.allow.Refetch(context.Background()); err != nil {
		log.Warn().Err(err).Msg("allowance read after approval failed")
		return
	}
	// The confirmed approval has served its purpose; returning the machine to
	// idle lets the decision fall through to the swap branch.
	o.approval.SetToken(o.currentFrom())
}

func (o *Orchestrator) currentFrom() *tokens.Token {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.from
}

func (o *Orchestrator) prepareSwap(ctx context.Context) {
	o.mu.Lock()
	from := o.from
	to := o.to
	o.mu.Unlock()

	o.swap.Prepare(ctx, from, to, o.engine.Amount(), o.slippage)
}
