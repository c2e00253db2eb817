package ledger

import (
	"errors"
	"sort"
	"sync"

	"github.com/xtrntr/agenthub/internal/models"
)

var (
	ErrInsufficientCash     = errors.New("insufficient cash")
	ErrInsufficientPosition = errors.New("insufficient position")
	ErrInvalidQuantity      = errors.New("quantity and price must be positive")
)

type entry struct {
	account models.Account
	profile models.Profile
}

// Ledger holds one paper book per agent. Agents are registered lazily on
// first reference and keep registration order.
type Ledger struct {
	mu          sync.RWMutex
	entries     map[string]*entry
	order       []string
	initialCash float64
	profiles    *Profiler
}

// New creates an empty ledger. Each new agent starts with initialCash and
// no position.
func New(initialCash float64, profiles *Profiler) *Ledger {
	if profiles == nil {
		profiles = NewProfiler(1)
	}
	return &Ledger{
		entries:     make(map[string]*entry),
		initialCash: initialCash,
		profiles:    profiles,
	}
}

// Ensure registers name if it is unknown. It reports whether the agent was
// created by this call. Calling it again for the same name changes nothing.
func (l *Ledger) Ensure(name string) bool {
	l.mu.RLock()
	_, ok := l.entries[name]
	l.mu.RUnlock()
	if ok {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, created := l.getOrCreateLocked(name)
	return created
}

func (l *Ledger) getOrCreateLocked(name string) (*entry, bool) {
	if e, ok := l.entries[name]; ok {
		return e, false
	}
	e := &entry{
		account: models.Account{Cash: l.initialCash},
		profile: l.profiles.For(name),
	}
	l.entries[name] = e
	l.order = append(l.order, name)
	return e, true
}

// Account returns the agent's book, registering the agent if needed.
func (l *Ledger) Account(name string) models.Account {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, _ := l.getOrCreateLocked(name)
	return e.account
}

// Profile returns the agent's persona, registering the agent if needed.
func (l *Ledger) Profile(name string) models.Profile {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, _ := l.getOrCreateLocked(name)
	return e.profile
}

// SettleBuy debits qty*price from cash and credits qty to the position.
// Nothing changes if the agent cannot afford it.
func (l *Ledger) SettleBuy(name string, qty, price float64) error {
	if qty <= 0 || price <= 0 {
		return ErrInvalidQuantity
	}
	cost := qty * price

	l.mu.Lock()
	defer l.mu.Unlock()
	e, _ := l.getOrCreateLocked(name)
	if e.account.Cash < cost {
		return ErrInsufficientCash
	}
	e.account.Cash -= cost
	e.account.Position += qty
	return nil
}

// SettleSell debits qty from the position and credits qty*price to cash.
// Nothing changes if the position is smaller than qty.
func (l *Ledger) SettleSell(name string, qty, price float64) error {
	if qty <= 0 || price <= 0 {
		return ErrInvalidQuantity
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	e, _ := l.getOrCreateLocked(name)
	if e.account.Position < qty {
		return ErrInsufficientPosition
	}
	e.account.Position -= qty
	e.account.Cash += qty * price
	return nil
}

// Equity returns cash plus the position marked at currentPrice.
func (l *Ledger) Equity(name string, currentPrice float64) float64 {
	a := l.Account(name)
	return a.Cash + a.Position*currentPrice
}

// Leaderboard returns up to limit agents ranked by equity, highest first.
// Ties keep registration order.
func (l *Ledger) Leaderboard(currentPrice float64, limit int) []models.AgentPnL {
	l.mu.RLock()
	out := make([]models.AgentPnL, 0, len(l.order))
	for _, name := range l.order {
		a := l.entries[name].account
		out = append(out, models.AgentPnL{
			Agent:    name,
			Cash:     a.Cash,
			Position: a.Position,
			Equity:   a.Cash + a.Position*currentPrice,
		})
	}
	l.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Equity > out[j].Equity
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Len returns the number of registered agents.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.order)
}

// Agents returns registered names in registration order.
func (l *Ledger) Agents() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}
