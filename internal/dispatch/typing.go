package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/bekzodm/dilbot/internal/transport"
)

// startTyping sends a typing indicator immediately and then on every
// interval tick until the returned stop func is called or ctx ends.
// Send errors are ignored; the indicator is best effort.
func startTyping(ctx context.Context, tr transport.Transport, peer transport.Peer, interval time.Duration) (stop func()) {
	done := make(chan struct{})
	_ = tr.SendTyping(ctx, peer)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = tr.SendTyping(ctx, peer)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}
