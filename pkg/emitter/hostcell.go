package emitter

import "sync/atomic"

// HostCell is the shared last-seen-host field written by event routing and
// read by the flush worker as the push grouping key. It is best-effort by
// design: a push may group under a host observed after its tick was
// scheduled. No stronger consistency is needed or provided.
type HostCell struct {
	v atomic.Value
}

// Store records the most recently observed host.
func (c *HostCell) Store(host string) {
	c.v.Store(host)
}

// Load returns the most recently observed host, or the empty string before
// any event has been seen.
func (c *HostCell) Load() string {
	host, _ := c.v.Load().(string)
	return host
}
