package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"go.uber.org/multierr"
)

// Docker implements Engine using the Docker SDK
type Docker struct {
	cli    *client.Client
	logger *slog.Logger
}

// NewDocker creates a Docker engine adapter from the environment
// (DOCKER_HOST, DOCKER_CERT_PATH, ...) with API version negotiation.
func NewDocker(logger *slog.Logger) (*Docker, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &Docker{cli: cli, logger: logger}, nil
}

// Ping checks that the daemon is reachable
func (d *Docker) Ping(ctx context.Context) error {
	if _, err := d.cli.Ping(ctx); err != nil {
		return fmt.Errorf("docker daemon unreachable: %w", err)
	}
	return nil
}

// ListContainers returns running and stopped containers matching filter
func (d *Docker) ListContainers(ctx context.Context, filter ListFilter) ([]Container, error) {
	args := filters.NewArgs()
	if filter.Ancestor != "" {
		args.Add("ancestor", filter.Ancestor)
	}
	if filter.Label != "" {
		args.Add("label", filter.Label)
	}

	list, err := d.cli.ContainerList(ctx, container.ListOptions{All: true, Filters: args})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	result := make([]Container, 0, len(list))
	for _, c := range list {
		name := ""
		if len(c.Names) > 0 {
			name = strings.TrimPrefix(c.Names[0], "/")
		}

		mounts := make([]string, 0, len(c.Mounts))
		for _, m := range c.Mounts {
			mounts = append(mounts, m.Source)
		}

		result = append(result, Container{
			ID:     c.ID,
			Name:   name,
			Image:  c.Image,
			State:  string(c.State),
			Status: c.Status,
			Labels: c.Labels,
			Mounts: mounts,
		})
	}

	d.logger.Debug("listed containers",
		slog.String("ancestor", filter.Ancestor),
		slog.String("label", filter.Label),
		slog.Int("count", len(result)))
	return result, nil
}

// StopContainer stops a container without waiting for a graceful shutdown
func (d *Docker) StopContainer(ctx context.Context, id string) error {
	timeout := 0
	if err := d.cli.ContainerStop(ctx, id, container.StopOptions{Timeout: &timeout}); err != nil {
		return fmt.Errorf("failed to stop container %s: %w", id, err)
	}
	return nil
}

// RemoveContainer force-removes a container, killing it if it is running
func (d *Docker) RemoveContainer(ctx context.Context, id string) error {
	if err := d.cli.ContainerRemove(ctx, id, container.RemoveOptions{Force: true}); err != nil {
		return fmt.Errorf("failed to remove container %s: %w", id, notFound(err))
	}
	return nil
}

// ListImages returns the top-level images on the host. Intermediate layers
// are left out; removing their children removes them.
func (d *Docker) ListImages(ctx context.Context) ([]Image, error) {
	list, err := d.cli.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}

	result := make([]Image, 0, len(list))
	for _, img := range list {
		result = append(result, Image{ID: img.ID, Tags: img.RepoTags})
	}
	return result, nil
}

// RemoveImage force-removes an image by id or reference
func (d *Docker) RemoveImage(ctx context.Context, ref string) error {
	if _, err := d.cli.ImageRemove(ctx, ref, image.RemoveOptions{Force: true, PruneChildren: true}); err != nil {
		return fmt.Errorf("failed to remove image %s: %w", ref, notFound(err))
	}
	return nil
}

// notFound marks daemon not-found errors with ErrNotFound
func notFound(err error) error {
	if cerrdefs.IsNotFound(err) {
		return errors.Join(ErrNotFound, err)
	}
	return err
}

// Prune removes dangling networks, volumes and build cache
func (d *Docker) Prune(ctx context.Context) (PruneReport, error) {
	var (
		report PruneReport
		errs   error
	)

	if nets, err := d.cli.NetworksPrune(ctx, filters.NewArgs()); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("failed to prune networks: %w", err))
	} else {
		report.NetworksDeleted = nets.NetworksDeleted
	}

	if vols, err := d.cli.VolumesPrune(ctx, filters.NewArgs()); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("failed to prune volumes: %w", err))
	} else {
		report.VolumesDeleted = vols.VolumesDeleted
		report.SpaceReclaimed += vols.SpaceReclaimed
	}

	if cache, err := d.cli.BuildCachePrune(ctx, build.CachePruneOptions{}); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("failed to prune build cache: %w", err))
	} else if cache != nil {
		report.CachesDeleted = cache.CachesDeleted
		report.SpaceReclaimed += cache.SpaceReclaimed
	}

	return report, errs
}

// Close releases the underlying client
func (d *Docker) Close() error {
	return d.cli.Close()
}
