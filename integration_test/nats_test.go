package integration_test

import (
	"context"
	"fmt"

	"github.com/testcontainers/testcontainers-go"
	tcnats "github.com/testcontainers/testcontainers-go/modules/nats"
)

// startNATSContainer starts a NATS server with JetStream enabled.
func startNATSContainer(ctx context.Context) (testcontainers.Container, string, error) {
	natsContainer, err := tcnats.Run(ctx,
		"nats:2.11-alpine",
		tcnats.WithArgument("name", "test-nats-server"),
		tcnats.WithArgument("store_dir", "/data"),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start NATS container: %w", err)
	}

	natsURL, err := natsContainer.ConnectionString(ctx)
	if err != nil {
		return natsContainer, "", fmt.Errorf("failed to get NATS connection string: %w", err)
	}
	return natsContainer, natsURL, nil
}
