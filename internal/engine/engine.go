// Package engine defines the container-engine port used by mustangctl and its
// Docker Engine API adapter.
//
// The engine daemon is shared, process-wide state owned by the host. Nothing
// here caches or models it: every call goes to the daemon.
package engine

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is wrapped by removals whose target no longer exists. Force
// removing an image also removes its untagged parents, so a later removal in
// the same pass can find its target already gone.
var ErrNotFound = errors.New("not found")

// Container represents a container known to the engine
type Container struct {
	ID     string
	Name   string
	Image  string
	State  string // running, exited, created, ...
	Status string
	Labels map[string]string
	Mounts []string // host-side source of every mount
}

// ShortID returns the 12 character id the docker CLI prints
func (c Container) ShortID() string {
	if len(c.ID) > 12 {
		return c.ID[:12]
	}
	return c.ID
}

// Image represents an image known to the engine
type Image struct {
	ID   string
	Tags []string
}

// ListFilter narrows ListContainers. Zero fields do not filter.
// Stopped containers are always included.
type ListFilter struct {
	// Ancestor is passed to the daemon's ancestor filter, which also matches
	// containers created from descendants of the image and accepts image IDs.
	Ancestor string
	Label    string // "key=value" or "key"
}

// BuildRequest describes a single image build
type BuildRequest struct {
	ContextDir string
	Dockerfile string // relative to ContextDir
	Target     string // build stage
	Tag        string
}

// PruneReport summarizes what a prune removed
type PruneReport struct {
	NetworksDeleted []string
	VolumesDeleted  []string
	CachesDeleted   []string
	SpaceReclaimed  uint64
}

// Engine defines the container engine operations the CLI needs.
// This interface keeps cleanup logic independent of the Docker SDK.
type Engine interface {
	Ping(ctx context.Context) error
	ListContainers(ctx context.Context, filter ListFilter) ([]Container, error)
	StopContainer(ctx context.Context, id string) error
	RemoveContainer(ctx context.Context, id string) error
	ListImages(ctx context.Context) ([]Image, error)
	RemoveImage(ctx context.Context, ref string) error
	// Prune removes dangling networks, volumes and build cache. Partial
	// failures are returned together with whatever did get pruned.
	Prune(ctx context.Context) (PruneReport, error)
	// BuildImage builds req and streams progress to out.
	BuildImage(ctx context.Context, req BuildRequest, out io.Writer) error
	Close() error
}
