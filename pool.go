// pool
package component

import (
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// PoolConfig is what a pooled service hands its runner: the bounds,
// the checkout timeout, and a spawn function producing one more member.
type PoolConfig struct {
	Name    string
	Min     int
	Max     int
	Timeout time.Duration
	Spawn   func(instance int) (*WorkerRef, error)
}

// Pool is the fixed+overflow worker management primitive consumed by
// the Pooled strategy: checkout/checkin of leased members with a
// blocking timeout.
type Pool interface {
	Checkout(timeout time.Duration) (*WorkerRef, error)
	Checkin(ref *WorkerRef) error
	Live() int
	Shutdown()
}

// PoolRunner starts pools. The system carries one; building a system
// with a nil runner makes every pooled Initialize fail with a
// diagnostic naming the missing dependency.
type PoolRunner interface {
	Run(cfg PoolConfig) (Pool, error)
}

type defaultPoolRunner struct{}

func (defaultPoolRunner) Run(cfg PoolConfig) (Pool, error) {
	if cfg.Min < 1 {
		return nil, fmt.Errorf("pool %v must have at least 1 worker (min %v)", cfg.Name, cfg.Min)
	}
	if cfg.Min > cfg.Max {
		return nil, fmt.Errorf("pool %v min %v exceeds max %v", cfg.Name, cfg.Min, cfg.Max)
	}
	p := &workerPool{
		name:    cfg.Name,
		min:     cfg.Min,
		max:     cfg.Max,
		spawn:   cfg.Spawn,
		free:    make(chan *WorkerRef, cfg.Max),
		members: make(map[string]*WorkerRef, cfg.Max),
		leased:  make(map[string]bool, cfg.Max),
	}
	for i := 0; i < cfg.Min; i++ {
		instance, ok := p.reserve()
		if !ok {
			break
		}
		ref, err := p.spawnMember(instance)
		if err != nil {
			p.Shutdown()
			return nil, err
		}
		p.free <- ref
	}
	return p, nil
}

// workerPool keeps min members alive, grows to max under concurrent
// checkout pressure, and shrinks back at checkin. Members are a
// shared resource: their state persists across leases.
type workerPool struct {
	mu      sync.Mutex
	name    string
	min     int
	max     int
	live    int
	waiters int
	seq     int
	closed  bool
	spawn   func(int) (*WorkerRef, error)
	free    chan *WorkerRef
	members map[string]*WorkerRef
	leased  map[string]bool
}

// reserve claims one member slot under the max bound without releasing
// the lock in between; spawnMember fills the claimed slot.
func (p *workerPool) reserve() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.live >= p.max {
		return 0, false
	}
	instance := p.seq
	p.seq++
	p.live++
	return instance, true
}

// spawnMember fills a reserved slot, rolling the reservation back if
// the spawn fails.
func (p *workerPool) spawnMember(instance int) (*WorkerRef, error) {
	ref, err := p.spawn(instance)
	if err != nil {
		p.mu.Lock()
		p.live--
		p.mu.Unlock()
		return nil, err
	}
	p.mu.Lock()
	p.members[ref.id] = ref
	p.mu.Unlock()
	return ref, nil
}

func (p *workerPool) lease(ref *WorkerRef) {
	p.mu.Lock()
	p.leased[ref.id] = true
	p.mu.Unlock()
}

// Checkout leases a member: a free one if available, a fresh overflow
// member while below max, otherwise it blocks until a checkin or the
// timeout.
func (p *workerPool) Checkout(timeout time.Duration) (*WorkerRef, error) {
	select {
	case ref := <-p.free:
		p.lease(ref)
		return ref, nil
	default:
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, fmt.Errorf("pool %v: %w", p.name, ErrClosed)
	}
	if p.live < p.max {
		instance := p.seq
		p.seq++
		p.live++
		p.mu.Unlock()
		ref, err := p.spawnMember(instance)
		if err != nil {
			return nil, err
		}
		p.lease(ref)
		return ref, nil
	}
	p.waiters++
	p.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case ref := <-p.free:
		p.mu.Lock()
		p.waiters--
		p.leased[ref.id] = true
		p.mu.Unlock()
		return ref, nil
	case <-timer.C:
		p.mu.Lock()
		p.waiters--
		p.mu.Unlock()
		return nil, fmt.Errorf("pool %v exhausted (%v live, waited %v): %w", p.name, p.max, timeout, ErrPoolTimeout)
	}
}

// Checkin releases a lease. A member above the min floor is reclaimed
// here unless a checkout is blocked waiting for it; reclaimed members
// take their retained state with them.
func (p *workerPool) Checkin(ref *WorkerRef) error {
	p.mu.Lock()
	if _, ok := p.members[ref.id]; !ok {
		p.mu.Unlock()
		return fmt.Errorf("worker %v is not a member of pool %v", ref.id, p.name)
	}
	if !p.leased[ref.id] {
		p.mu.Unlock()
		return fmt.Errorf("worker %v is not checked out of pool %v", ref.name, p.name)
	}
	delete(p.leased, ref.id)
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	if p.live > p.min && p.waiters == 0 {
		p.live--
		delete(p.members, ref.id)
		p.mu.Unlock()
		log.Debugf("pool %v reclaiming %v", p.name, ref.name)
		ref.kill()
		return nil
	}
	p.mu.Unlock()
	p.free <- ref
	return nil
}

func (p *workerPool) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.live
}

// Shutdown kills every member, leased or free.
func (p *workerPool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	refs := make([]*WorkerRef, 0, len(p.members))
	for _, ref := range p.members {
		refs = append(refs, ref)
	}
	p.members = make(map[string]*WorkerRef)
	p.leased = make(map[string]bool)
	p.live = 0
	p.mu.Unlock()

	// stale refs in the free list must not leak to a late Checkout
	for {
		select {
		case <-p.free:
			continue
		default:
		}
		break
	}

	for _, ref := range refs {
		ref.kill()
	}
}
