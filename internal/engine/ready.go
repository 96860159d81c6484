package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/docker/client"
	"github.com/rs/zerolog"
)

const pingInterval = time.Second

// WaitReady pings the daemon until it answers. Connection failures are
// retried; any other error is returned.
func WaitReady(ctx context.Context, cli client.APIClient, log zerolog.Logger) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	waiting := false
	for {
		_, err := cli.Ping(ctx)
		if err == nil {
			if waiting {
				log.Debug().Msg("daemon reachable")
			}
			return nil
		}
		if !client.IsErrConnectionFailed(err) {
			log.Error().Err(err).Msg("ping failed")
			return fmt.Errorf("connect to docker daemon: %w", err)
		}
		if !waiting {
			waiting = true
			log.Info().Msg("waiting for docker daemon")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
