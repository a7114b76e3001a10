package services

import (
	"sync"
)

// lotLocks hands out one mutex per lot so resolutions on the same lot
// serialize while different lots proceed in parallel. Locks are kept
// for the life of the process; lots are bounded and small.
type lotLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLotLocks() *lotLocks {
	return &lotLocks{
		locks: make(map[string]*sync.Mutex),
	}
}

func (l *lotLocks) forLot(lotID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, exists := l.locks[lotID]
	if !exists {
		lock = &sync.Mutex{}
		l.locks[lotID] = lock
	}
	return lock
}
