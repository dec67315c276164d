package util

import (
	"sync"
)

type WaitBarrierContext struct {
	wg *sync.WaitGroup
}

func (c WaitBarrierContext) Done() {
	c.wg.Done()
}

type WaitBarrier struct {
	wg   *sync.WaitGroup
	lock sync.Mutex
}

func (b *WaitBarrier) Start() WaitBarrierContext {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.wg == nil {
		b.wg = new(sync.WaitGroup)
	}
	b.wg.Add(1)
	return WaitBarrierContext{wg: b.wg}
}

// Barrier blocks until every context returned by Start before the call has
// been marked Done. Contexts started afterwards are not waited on.
func (b *WaitBarrier) Barrier() {
	b.lock.Lock()
	if b.wg == nil {
		b.lock.Unlock()
		return
	}
	wg := b.wg
	b.wg = new(sync.WaitGroup)
	barrierWg := b.wg
	barrierWg.Add(1)
	b.lock.Unlock()

	wg.Wait()
	barrierWg.Done()
}
