package wallet

import (
	"fmt"
	"sync"

	"kobo/internal/models"
)

// lockTable hands out one mutex per wallet so that read-modify-write cycles
// on the same wallet never interleave in-process. Entries are small and
// wallets are long-lived, so nothing is ever evicted.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]*sync.Mutex)}
}

func (t *lockTable) acquire(key string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.locks[key]
	if !ok {
		l = &sync.Mutex{}
		t.locks[key] = l
	}
	return l
}

func lockKey(userID uint, walletType models.WalletType) string {
	return fmt.Sprintf("%d:%s", userID, walletType)
}
