// Package docker runs bootstrap commands inside an existing Docker
// container instead of on the local host.
//
// This package handles:
//   - Docker client initialization from the DOCKER_* environment or a
//     detected socket, and a pre-flight check that the container runs
//   - Executing package-manager commands in a container through the
//     Engine exec API, with output demultiplexed to the caller's streams
//     and the exit code mapped to pkgmgr.ExitError
//
// The package uses github.com/docker/docker/client as the underlying
// Docker SDK, with version negotiation enabled for broad compatibility.
package docker
