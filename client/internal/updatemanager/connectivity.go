package updatemanager

import (
	"context"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
)

const dialTimeout = 5 * time.Second

// Connectivity blocks until the distribution point can be reached.
type Connectivity interface {
	WaitConnected(ctx context.Context, timeout time.Duration) error
}

// DialConnectivity probes reachability by opening a TCP connection to the
// distribution host, retrying with exponential backoff until the timeout.
type DialConnectivity struct {
	address string
	dial    func(ctx context.Context, network, address string) (net.Conn, error)
}

func NewDialConnectivity(address string) *DialConnectivity {
	d := &net.Dialer{Timeout: dialTimeout}
	return &DialConnectivity{
		address: address,
		dial:    d.DialContext,
	}
}

func (c *DialConnectivity) WaitConnected(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultConnectivityTimeout
	}

	bo := backoff.WithContext(&backoff.ExponentialBackOff{
		InitialInterval:     500 * time.Millisecond,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		Multiplier:          backoff.DefaultMultiplier,
		MaxInterval:         5 * time.Second,
		MaxElapsedTime:      timeout,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}, ctx)

	operation := func() error {
		conn, err := c.dial(ctx, "tcp", c.address)
		if err != nil {
			return err
		}
		if err := conn.Close(); err != nil {
			log.Debugf("close connectivity probe: %v", err)
		}
		return nil
	}

	notify := func(err error, next time.Duration) {
		log.Debugf("%s not reachable yet, retrying in %s: %v", c.address, next.Round(time.Millisecond), err)
	}

	return backoff.RetryNotify(operation, bo, notify)
}

type connectedAlways struct{}

func (connectedAlways) WaitConnected(context.Context, time.Duration) error {
	return nil
}
