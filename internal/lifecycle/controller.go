// Package lifecycle runs a unit of work under SIGINT/SIGTERM supervision and
// guarantees a single cleanup pass however the work ends.
package lifecycle

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Trigger names what ended the supervised run.
type Trigger string

const (
	TriggerExit Trigger = "EXIT"
	TriggerInt  Trigger = "INT"
	TriggerTerm Trigger = "TERM"
)

func triggerFor(sig os.Signal) Trigger {
	if sig == syscall.SIGTERM {
		return TriggerTerm
	}
	return TriggerInt
}

// Controller runs Teardown exactly once after the body of Run returns,
// whether it finished on its own or was interrupted.
type Controller struct {
	Log *slog.Logger
	// Teardown must tolerate resources that are already gone. It receives a
	// context that is never cancelled by the signals that ended the run.
	Teardown func(ctx context.Context) error

	once    sync.Once
	mu      sync.Mutex
	ran     bool
	trigger Trigger
}

// Run calls body with a context that is cancelled on SIGINT or SIGTERM and
// returns its exit status. After a signal the status is 128+signo.
func (c *Controller) Run(ctx context.Context, body func(ctx context.Context) int) (status int) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var (
		mu       sync.Mutex
		received os.Signal
	)
	go func() {
		select {
		case sig := <-sigCh:
			mu.Lock()
			received = sig
			mu.Unlock()
			c.Log.Info("signal received, stopping", "signal", sig.String())
			cancel()
		case <-runCtx.Done():
		}
	}()

	cleanupCtx := context.WithoutCancel(ctx)
	defer func() {
		// a panicking body still gets its cleanup
		if r := recover(); r != nil {
			c.Cleanup(cleanupCtx, TriggerExit, 1)
			panic(r)
		}
	}()

	status = body(runCtx)

	mu.Lock()
	sig := received
	mu.Unlock()

	trigger := TriggerExit
	if sig != nil {
		trigger = triggerFor(sig)
		if s, ok := sig.(syscall.Signal); ok {
			status = 128 + int(s)
		}
	}
	c.Cleanup(cleanupCtx, trigger, status)
	return status
}

// Cleanup logs the trigger and runs Teardown the first time it is called.
// Later calls return nil without doing anything.
func (c *Controller) Cleanup(ctx context.Context, trigger Trigger, status int) error {
	var err error
	c.once.Do(func() {
		c.mu.Lock()
		c.ran = true
		c.trigger = trigger
		c.mu.Unlock()

		c.Log.Info("cleanup", "trigger", string(trigger), "status", status)
		if c.Teardown == nil {
			return
		}
		err = c.Teardown(ctx)
		if err != nil {
			c.Log.Warn("cleanup incomplete", "trigger", string(trigger), "error", err)
		}
	})
	return err
}

// Trigger returns the trigger of the cleanup pass and whether it ran.
func (c *Controller) Trigger() (Trigger, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.trigger, c.ran
}
