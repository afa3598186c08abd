package emitter

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Pusher sends the collector registry snapshot to a remote gateway, grouped
// under a job name.
type Pusher interface {
	// Push replaces the gateway's metrics for the job group with the
	// current registry snapshot.
	Push(job string) error

	// Delete removes the job group from the gateway.
	Delete(job string) error
}

// GatewayPusher pushes to a Prometheus Pushgateway. The HTTP client carries a
// timeout so a stalled gateway delays, but never wedges, the flush worker.
type GatewayPusher struct {
	address  string
	gatherer prometheus.Gatherer
	client   *http.Client
}

// NewGatewayPusher creates a pusher for the gateway at address. The address
// may omit the scheme; http is assumed.
func NewGatewayPusher(address string, gatherer prometheus.Gatherer, timeout time.Duration) *GatewayPusher {
	return &GatewayPusher{
		address:  address,
		gatherer: gatherer,
		client:   &http.Client{Timeout: timeout},
	}
}

// Push implements Pusher.
func (p *GatewayPusher) Push(job string) error {
	return push.New(p.address, job).
		Gatherer(p.gatherer).
		Client(p.client).
		Push()
}

// Delete implements Pusher.
func (p *GatewayPusher) Delete(job string) error {
	return push.New(p.address, job).
		Client(p.client).
		Delete()
}
