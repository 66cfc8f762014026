package studio

import (
	"context"
	"sync"
)

// projectLocks 按项目串行化编排周期，不同项目互不阻塞
type projectLocks struct {
	mu    sync.Mutex
	locks map[string]*projectLock
}

type projectLock struct {
	ch   chan struct{}
	refs int
}

func newProjectLocks() *projectLocks {
	return &projectLocks{locks: make(map[string]*projectLock)}
}

// Lock 获取项目锁，ctx 取消时放弃等待
func (p *projectLocks) Lock(ctx context.Context, projectID string) (func(), error) {
	p.mu.Lock()
	l, ok := p.locks[projectID]
	if !ok {
		l = &projectLock{ch: make(chan struct{}, 1)}
		p.locks[projectID] = l
	}
	l.refs++
	p.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
		return func() {
			<-l.ch
			p.release(projectID, l)
		}, nil
	case <-ctx.Done():
		p.release(projectID, l)
		return nil, ctx.Err()
	}
}

func (p *projectLocks) release(projectID string, l *projectLock) {
	p.mu.Lock()
	defer p.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(p.locks, projectID)
	}
}

func (p *projectLocks) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.locks)
}
