// Package ledger tracks purchased items per (account, package).
package ledger

import (
	"sync"

	"github.com/openvending/vending/internal/domain"
)

// Ledger hands out one PurchaseList per (account, package), created
// lazily. Safe for concurrent use.
type Ledger struct {
	mu    sync.Mutex
	lists map[string]*PurchaseList
}

func New() *Ledger {
	return &Ledger{lists: make(map[string]*PurchaseList)}
}

func (l *Ledger) For(account, pkgName string) *PurchaseList {
	key := account + ":" + pkgName

	l.mu.Lock()
	defer l.mu.Unlock()

	list, ok := l.lists[key]
	if !ok {
		list = &PurchaseList{items: make(map[string]domain.PurchaseItem)}
		l.lists[key] = list
	}
	return list
}

// PurchaseList is a set of purchases keyed by purchase token, holding at
// most one item per token.
type PurchaseList struct {
	mu    sync.RWMutex
	order []string
	items map[string]domain.PurchaseItem
}

// Add inserts the item unless its token is already present.
func (p *PurchaseList) Add(item domain.PurchaseItem) {
	if !item.Valid() {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.items[item.PurchaseToken]; ok {
		return
	}
	p.items[item.PurchaseToken] = item
	p.order = append(p.order, item.PurchaseToken)
}

// Update replaces an existing item matched by token; absent tokens are a
// no-op.
func (p *PurchaseList) Update(item domain.PurchaseItem) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.items[item.PurchaseToken]; !ok {
		return
	}
	p.items[item.PurchaseToken] = item
}

func (p *PurchaseList) Remove(purchaseToken string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.items[purchaseToken]; !ok {
		return
	}
	delete(p.items, purchaseToken)
	for i, token := range p.order {
		if token == purchaseToken {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// QueryByKind returns items whose kind matches, in insertion order.
func (p *PurchaseList) QueryByKind(kind domain.SkuType) []domain.PurchaseItem {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var result []domain.PurchaseItem
	for _, token := range p.order {
		if item := p.items[token]; item.Kind == kind {
			result = append(result, item)
		}
	}
	return result
}

func (p *PurchaseList) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.items)
}
