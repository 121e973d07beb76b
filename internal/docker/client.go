package docker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/docker/docker/client"

	"github.com/shinji-kodama/ci-bootstrap/internal/model"
)

// pingTimeout bounds how long Ping waits for the daemon.
const pingTimeout = 5 * time.Second

// Client is a connection to a Docker daemon used to run bootstrap steps
// inside a container.
type Client struct {
	api *client.Client
}

// NewClient connects to the Docker daemon.
//
// When DOCKER_HOST (or any other DOCKER_* client variable) is set, the SDK
// reads its settings from the environment. Otherwise the first existing
// socket from socketCandidates is used, falling back to the SDK default
// host (the named pipe on Windows).
//
// Returns a model.CLIError with ExitDockerNotRunning on failure.
func NewClient() (*Client, error) {
	opts := []client.Opt{client.WithAPIVersionNegotiation()}

	if os.Getenv("DOCKER_HOST") != "" {
		opts = append(opts, client.FromEnv)
	} else {
		home, _ := os.UserHomeDir()
		if host, ok := firstSocket(socketCandidates(runtime.GOOS, home)); ok {
			opts = append(opts, client.WithHost(host))
		}
	}

	api, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitDockerNotRunning, "failed to create Docker client", err)
	}
	return &Client{api: api}, nil
}

// socketCandidates lists the Unix socket paths Docker installations use on
// goos, in preference order. Rootless and Desktop sockets live under home.
func socketCandidates(goos, home string) []string {
	switch goos {
	case "linux":
		paths := []string{"/var/run/docker.sock"}
		if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
			paths = append(paths, filepath.Join(dir, "docker.sock"))
		}
		return paths
	case "darwin":
		paths := []string{"/var/run/docker.sock"}
		if home != "" {
			paths = append(paths, filepath.Join(home, ".docker", "run", "docker.sock"))
		}
		return paths
	default:
		return nil
	}
}

// firstSocket returns the unix:// host for the first path that exists.
func firstSocket(paths []string) (string, bool) {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return "unix://" + p, true
		}
	}
	return "", false
}

// Ping checks that the daemon answers within pingTimeout.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if _, err := c.api.Ping(ctx); err != nil {
		return model.WrapCLIError(model.ExitDockerNotRunning,
			fmt.Sprintf("Docker daemon at %s is not responding, is Docker running?", c.api.DaemonHost()), err)
	}
	return nil
}

// CheckContainer verifies that the container exists and is running, and
// returns its full ID.
func (c *Client) CheckContainer(ctx context.Context, nameOrID string) (string, error) {
	info, err := c.api.ContainerInspect(ctx, nameOrID)
	if err != nil {
		if cerrdefs.IsNotFound(err) {
			return "", model.WrapCLIError(model.ExitDockerNotRunning,
				fmt.Sprintf("container %q not found", nameOrID), err)
		}
		return "", model.WrapCLIError(model.ExitDockerNotRunning,
			fmt.Sprintf("failed to inspect container %q", nameOrID), err)
	}
	if info.State == nil || !info.State.Running {
		return "", model.WrapCLIError(model.ExitDockerNotRunning,
			fmt.Sprintf("container %q is not running", nameOrID), errors.New("container stopped"))
	}
	return info.ID, nil
}

// Close releases the client's connections. It is safe on a zero Client.
func (c *Client) Close() error {
	if c.api == nil {
		return nil
	}
	return c.api.Close()
}
