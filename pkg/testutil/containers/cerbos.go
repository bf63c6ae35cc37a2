//go:build integration

package containers

import (
	"context"
	"net"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// CerbosContainer wraps a Cerbos PDP serving policies from the host.
type CerbosContainer struct {
	Container testcontainers.Container
	GRPCAddr  string
}

// NewCerbosContainer starts Cerbos with policyFile copied into its default
// /policies directory.
func NewCerbosContainer(t *testing.T, policyFile string) *CerbosContainer {
	t.Helper()

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "ghcr.io/cerbos/cerbos:0.40.0",
			ExposedPorts: []string{"3593/tcp"},
			Files: []testcontainers.ContainerFile{{
				HostFilePath:      policyFile,
				ContainerFilePath: "/policies/post.yaml",
				FileMode:          0o644,
			}},
			WaitingFor: wait.ForListeningPort("3593/tcp"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start cerbos container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get cerbos host: %v", err)
	}
	port, err := container.MappedPort(ctx, "3593/tcp")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get cerbos port: %v", err)
	}

	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	return &CerbosContainer{
		Container: container,
		GRPCAddr:  net.JoinHostPort(host, port.Port()),
	}
}
