// Package component runs the long-lived parts of a relay node as sets of
// worker routines sharing one start/stop lifecycle.
package component

import (
	"context"
	"sync"

	"go.uber.org/atomic"

	"github.com/onflow/proof-relay/module"
	"github.com/onflow/proof-relay/module/irrecoverable"
	"github.com/onflow/proof-relay/module/util"
)

// Component can be started once and reports through Ready and Done when it
// has started and stopped. Once started, Done must close eventually, after a
// graceful shutdown or an irrecoverable error.
type Component interface {
	module.Startable
	module.ReadyDoneAware
}

type ComponentFactory func() (Component, error)

// OnError is handed the irrecoverable error that stopped a component run by
// RunComponent.
type OnError = func(err error)

// RunComponent builds a component with the factory, starts it and waits until
// it stops. It returns
//   - ctx.Err() once ctx is cancelled and the component is done,
//   - the irrecoverable error thrown by the component, after passing it to onError,
//   - the factory error if the component could not be built,
//   - nil if the component stopped on its own.
func RunComponent(ctx context.Context, factory ComponentFactory, onError OnError) error {
	c, err := factory()
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	signalerCtx, errChan := irrecoverable.WithSignaler(runCtx)

	// Throw ends the calling goroutine, so the component must not run on ours
	go c.Start(signalerCtx)

	if err := util.WaitError(errChan, c.Done()); err != nil {
		cancel()
		<-c.Done()
		onError(err)
		return err
	}
	if ctx.Err() != nil {
		<-c.Done()
		return ctx.Err()
	}
	return nil
}

// ReadyFunc is called by a worker once it is ready.
type ReadyFunc func()

// ComponentWorker is a routine of a component. It must call ready once it is
// ready, return once ctx is done, and throw irrecoverable errors through ctx.
type ComponentWorker func(ctx irrecoverable.SignalerContext, ready ReadyFunc)

// ComponentManagerBuilder collects the workers of a ComponentManager.
type ComponentManagerBuilder interface {
	AddWorker(ComponentWorker) ComponentManagerBuilder
	Build() *ComponentManager
}

type builder struct {
	workers []ComponentWorker
}

func NewComponentManagerBuilder() ComponentManagerBuilder {
	return &builder{}
}

// AddWorker is not safe for concurrent use.
func (b *builder) AddWorker(worker ComponentWorker) ComponentManagerBuilder {
	b.workers = append(b.workers, worker)
	return b
}

func (b *builder) Build() *ComponentManager {
	return &ComponentManager{
		started: atomic.NewBool(false),
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
		workers: append([]ComponentWorker(nil), b.workers...),
	}
}

var _ Component = (*ComponentManager)(nil)

// ComponentManager implements Component for a fixed set of workers, all run
// concurrently once started. Ready closes when every worker called its
// ReadyFunc, Done closes when every worker returned.
//
// Shutdown is requested by cancelling the context passed to Start. An error
// thrown by a worker cancels the other workers and is rethrown to the parent
// context once all of them returned.
type ComponentManager struct {
	started *atomic.Bool
	ready   chan struct{}
	done    chan struct{}
	workers []ComponentWorker
}

// Start launches the workers. It panics with module.ErrMultipleStartup when
// called twice.
func (c *ComponentManager) Start(parent irrecoverable.SignalerContext) {
	if !c.started.CompareAndSwap(false, true) {
		panic(module.ErrMultipleStartup)
	}

	ctx, cancel := context.WithCancel(parent)
	signalerCtx, errChan := irrecoverable.WithSignaler(ctx)

	var readyWg, doneWg sync.WaitGroup
	readyWg.Add(len(c.workers))
	doneWg.Add(len(c.workers))
	for _, worker := range c.workers {
		go func(worker ComponentWorker) {
			defer doneWg.Done()
			var once sync.Once
			worker(signalerCtx, func() { once.Do(readyWg.Done) })
		}(worker)
	}

	workersDone := make(chan struct{})
	go func() {
		readyWg.Wait()
		close(c.ready)
	}()
	go func() {
		doneWg.Wait()
		close(workersDone)
	}()

	go func() {
		// the error reaches the parent before Done closes
		defer close(c.done)
		defer cancel()
		err := util.WaitError(errChan, workersDone)
		if err == nil {
			return
		}
		cancel()
		<-workersDone
		parent.Throw(err)
	}()
}

// Ready closes once every worker is ready. It never closes if a worker returns
// without calling its ReadyFunc.
func (c *ComponentManager) Ready() <-chan struct{} {
	return c.ready
}

// Done closes once every worker returned.
func (c *ComponentManager) Done() <-chan struct{} {
	return c.done
}
