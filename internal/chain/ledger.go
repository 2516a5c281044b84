package chain

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"sync"
	"time"
)

// Ledger is the transaction environment the contracts run in. It
// serializes every state transition behind a single lock, tracks
// account balances, and keeps the append-only event log. Within one
// call the contracts see a consistent snapshot and either commit all
// of their effects or none; the lock is the only concurrency control,
// matching the total ordering a real chain would impose.
type Ledger struct {
	mu sync.RWMutex

	now         func() time.Time
	balances    map[Address]*big.Int
	events      []Event
	subs        []chan Event
	contractSeq uint64
}

// Call carries the implicit transaction identity: the caller address
// and, for payable functions, the attached value.
type Call struct {
	Caller Address
	Value  *big.Int
}

func (c Call) value() *big.Int {
	if c.Value == nil {
		return new(big.Int)
	}
	return c.Value
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the ledger's time source. Tests use this to
// drive subscription expiry.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// NewLedger creates an empty ledger using the wall clock.
func NewLedger(opts ...Option) *Ledger {
	l := &Ledger{
		now:      time.Now,
		balances: make(map[Address]*big.Int),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Fund credits an account out of thin air. Deployment and tests use
// this to seed balances.
func (l *Ledger) Fund(addr Address, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.credit(addr, amount)
}

// BalanceOf returns a copy of the account balance.
func (l *Ledger) BalanceOf(addr Address) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return new(big.Int).Set(l.balanceOf(addr))
}

// Events returns a snapshot of the event log.
func (l *Ledger) Events() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// Subscribe registers a buffered channel that receives every event
// committed after the call. Slow consumers drop events rather than
// block transactions.
func (l *Ledger) Subscribe(buffer int) <-chan Event {
	ch := make(chan Event, buffer)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subs = append(l.subs, ch)
	return ch
}

// Unsubscribe removes a channel returned by Subscribe and closes it.
// Events committed afterwards are no longer delivered. Unknown
// channels are ignored, so calling it twice is safe.
func (l *Ledger) Unsubscribe(ch <-chan Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, sub := range l.subs {
		if (<-chan Event)(sub) == ch {
			l.subs = append(l.subs[:i], l.subs[i+1:]...)
			close(sub)
			return
		}
	}
}

// Ether converts whole ether to the smallest unit.
func Ether(n int64) *big.Int {
	wei := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	return wei.Mul(wei, big.NewInt(n))
}

// NewContractAddress allocates a deterministic address for a deployed
// contract instance.
func (l *Ledger) NewContractAddress(name string) Address {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.contractSeq++
	sum := Keccak256([]byte(fmt.Sprintf("contract:%s:%d", name, l.contractSeq)))
	return Address("0x" + hex.EncodeToString(sum[12:]))
}

// timestamp returns the current ledger time in unix seconds. Callers
// must hold the lock.
func (l *Ledger) timestamp() int64 {
	return l.now().Unix()
}

func (l *Ledger) balanceOf(addr Address) *big.Int {
	if b, ok := l.balances[addr]; ok {
		return b
	}
	return new(big.Int)
}

// requireFunds reverts unless addr holds at least amount. Contracts
// call this during their precondition phase, before any mutation.
func (l *Ledger) requireFunds(addr Address, amount *big.Int) error {
	if l.balanceOf(addr).Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	return nil
}

// transfer moves value between accounts. Callers must have verified
// funds via requireFunds; a shortfall here is a programming error.
func (l *Ledger) transfer(from, to Address, amount *big.Int) {
	if amount.Sign() == 0 {
		return
	}
	fromBal := new(big.Int).Sub(l.balanceOf(from), amount)
	if fromBal.Sign() < 0 {
		panic("chain: transfer without sufficient funds check")
	}
	l.balances[from] = fromBal
	l.credit(to, amount)
}

func (l *Ledger) credit(addr Address, amount *big.Int) {
	l.balances[addr] = new(big.Int).Add(l.balanceOf(addr), amount)
}

// emit appends to the event log and fans out to subscribers.
func (l *Ledger) emit(ev Event) {
	l.events = append(l.events, ev)
	for _, ch := range l.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
