package sync

import (
	"context"
	"time"
)

// scheduleAutoSync arms (or re-arms) the debounce timer. Each call cancels
// the previous pending timer, so a burst of writes collapses into a single
// push once the quiet period elapses.
func (c *Coordinator) scheduleAutoSync() {
	c.flagMu.Lock()
	defer c.flagMu.Unlock()

	if c.debounce != nil {
		c.debounce.Stop()
	}
	c.debounce = time.AfterFunc(c.config.DebounceInterval, c.autoSync)
}

// NoteLocalChange records that the working copy changed outside of
// WriteFile (an external editor, for instance) and re-arms the auto-sync
// debounce.
func (c *Coordinator) NoteLocalChange() {
	c.scheduleAutoSync()
}

// autoSync runs when the debounce window elapses uninterrupted. Offline,
// it only marks changes pending; failures are swallowed since the changes
// remain committed locally and will be retried by the next manual sync,
// reachability transition, or debounce cycle.
func (c *Coordinator) autoSync() {
	select {
	case <-c.done:
		return
	default:
	}

	if c.monitor != nil && !c.monitor.Online() {
		c.setPendingOffline(true)
		c.config.Logger.Printf("Auto-sync skipped while offline; changes pending")
		return
	}

	message := "auto-sync " + time.Now().Format(time.RFC3339)
	if err := c.PushChanges(context.Background(), message); err != nil {
		c.config.Logger.Printf("Auto-sync failed (will retry): %v", err)
	}
}
