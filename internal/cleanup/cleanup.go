// Package cleanup finds the containers that belong to this checkout and
// removes them.
//
// A container belongs to the checkout when any of three independent criteria
// match: it was created from one of the configured images, it carries the
// compose project label, or one of its mounts contains the working
// directory. Removal is best-effort: failures are collected and reported, and
// never stop the remaining removals.
package cleanup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/mustang-stock/mustangctl/internal/compose"
	"github.com/mustang-stock/mustangctl/internal/engine"
)

// ErrNotConfirmed is returned when an unscoped cleanup is attempted without
// the confirmation gate.
var ErrNotConfirmed = errors.New("refusing to remove every container and image on the host without confirmation (set CONFIRM=1 or pass --confirm)")

// Scope holds the three discovery criteria
type Scope struct {
	Images  []string
	Project string
	WorkDir string
}

// Report describes what a cleanup found and removed
type Report struct {
	Found         []engine.Container
	Removed       []string
	RemovedImages []string
	Pruned        engine.PruneReport
	DryRun        bool
	// Errors aggregates every swallowed failure; use multierr.Errors to
	// iterate them.
	Errors error
}

// Cleaner runs discovery and removal against an engine
type Cleaner struct {
	engine engine.Engine
	logger *slog.Logger
	dryRun bool
}

// New creates a cleaner. In dry-run mode nothing is removed and the report
// lists what would have been.
func New(eng engine.Engine, logger *slog.Logger, dryRun bool) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{engine: eng, logger: logger, dryRun: dryRun}
}

// Discover returns the union of the three discovery sets, de-duplicated, in
// image, label, mount order.
func (c *Cleaner) Discover(ctx context.Context, scope Scope) ([]engine.Container, error) {
	var byImage, byLabel, byMount []engine.Container

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for _, img := range uniqueNonEmpty(scope.Images) {
			found, err := c.engine.ListContainers(gctx, engine.ListFilter{Ancestor: img})
			if err != nil {
				return fmt.Errorf("discover by image %s: %w", img, err)
			}
			byImage = append(byImage, found...)
		}
		return nil
	})

	if scope.Project != "" {
		g.Go(func() error {
			found, err := c.engine.ListContainers(gctx, engine.ListFilter{
				Label: compose.ProjectLabel + "=" + scope.Project,
			})
			if err != nil {
				return fmt.Errorf("discover by project %s: %w", scope.Project, err)
			}
			byLabel = found
			return nil
		})
	}

	if scope.WorkDir != "" {
		g.Go(func() error {
			all, err := c.engine.ListContainers(gctx, engine.ListFilter{})
			if err != nil {
				return fmt.Errorf("discover by mount %s: %w", scope.WorkDir, err)
			}
			for _, ctr := range all {
				if mountsPath(ctr, scope.WorkDir) {
					byMount = append(byMount, ctr)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	found := union(byImage, byLabel, byMount)
	c.logger.Debug("discovered containers",
		slog.Int("by_image", len(byImage)),
		slog.Int("by_label", len(byLabel)),
		slog.Int("by_mount", len(byMount)),
		slog.Int("total", len(found)))
	return found, nil
}

// mountsPath reports whether any mount source of ctr contains path
func mountsPath(ctr engine.Container, path string) bool {
	for _, src := range ctr.Mounts {
		if strings.Contains(src, path) {
			return true
		}
	}
	return false
}

func union(sets ...[]engine.Container) []engine.Container {
	seen := make(map[string]bool)
	var out []engine.Container
	for _, set := range sets {
		for _, ctr := range set {
			if ctr.ID == "" || seen[ctr.ID] {
				continue
			}
			seen[ctr.ID] = true
			out = append(out, ctr)
		}
	}
	return out
}

func uniqueNonEmpty(values []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// Stop force-removes every discovered container. An empty report means
// nothing matched and no removal was attempted.
func (c *Cleaner) Stop(ctx context.Context, scope Scope) (*Report, error) {
	found, err := c.Discover(ctx, scope)
	if err != nil {
		return nil, err
	}

	report := &Report{Found: found, DryRun: c.dryRun}
	c.removeContainers(ctx, report, found, false)
	return report, nil
}

// Clean removes the discovered containers and the configured images, then
// prunes dangling networks, volumes and build cache.
func (c *Cleaner) Clean(ctx context.Context, scope Scope) (*Report, error) {
	found, err := c.Discover(ctx, scope)
	if err != nil {
		return nil, err
	}

	report := &Report{Found: found, DryRun: c.dryRun}
	c.removeContainers(ctx, report, found, false)

	images, err := c.engine.ListImages(ctx)
	if err != nil {
		report.Errors = multierr.Append(report.Errors, err)
	} else {
		wanted := make(map[string]bool)
		for _, ref := range uniqueNonEmpty(scope.Images) {
			wanted[ref] = true
		}
		for _, img := range images {
			for _, tag := range img.Tags {
				if wanted[tag] {
					c.removeImage(ctx, report, tag)
				}
			}
		}
	}

	c.prune(ctx, report)
	return report, nil
}

// CleanAll force-stops and removes every container and every image on the
// host, then prunes. It is unscoped and irreversible, so it only runs when
// confirmed is true.
func (c *Cleaner) CleanAll(ctx context.Context, confirmed bool) (*Report, error) {
	if !confirmed {
		return nil, ErrNotConfirmed
	}

	all, err := c.engine.ListContainers(ctx, engine.ListFilter{})
	if err != nil {
		return nil, err
	}

	report := &Report{Found: all, DryRun: c.dryRun}
	c.removeContainers(ctx, report, all, true)

	images, err := c.engine.ListImages(ctx)
	if err != nil {
		report.Errors = multierr.Append(report.Errors, err)
	} else {
		for _, img := range images {
			c.removeImage(ctx, report, img.ID)
		}
	}

	c.prune(ctx, report)
	return report, nil
}

func (c *Cleaner) removeContainers(ctx context.Context, report *Report, list []engine.Container, stopFirst bool) {
	for _, ctr := range list {
		if c.dryRun {
			report.Removed = append(report.Removed, ctr.ID)
			continue
		}
		if stopFirst && ctr.State == "running" {
			if err := c.engine.StopContainer(ctx, ctr.ID); err != nil {
				c.logger.Warn("stop failed", slog.String("container", ctr.ShortID()), slog.String("error", err.Error()))
				report.Errors = multierr.Append(report.Errors, err)
			}
		}
		if err := c.engine.RemoveContainer(ctx, ctr.ID); err != nil {
			if errors.Is(err, engine.ErrNotFound) {
				c.logger.Debug("container already gone", slog.String("container", ctr.ShortID()))
				continue
			}
			c.logger.Warn("remove failed", slog.String("container", ctr.ShortID()), slog.String("error", err.Error()))
			report.Errors = multierr.Append(report.Errors, err)
			continue
		}
		report.Removed = append(report.Removed, ctr.ID)
	}
}

func (c *Cleaner) removeImage(ctx context.Context, report *Report, ref string) {
	if c.dryRun {
		report.RemovedImages = append(report.RemovedImages, ref)
		return
	}
	if err := c.engine.RemoveImage(ctx, ref); err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			c.logger.Debug("image already gone", slog.String("image", ref))
			return
		}
		c.logger.Warn("image remove failed", slog.String("image", ref), slog.String("error", err.Error()))
		report.Errors = multierr.Append(report.Errors, err)
		return
	}
	report.RemovedImages = append(report.RemovedImages, ref)
}

func (c *Cleaner) prune(ctx context.Context, report *Report) {
	if c.dryRun {
		return
	}
	pruned, err := c.engine.Prune(ctx)
	report.Pruned = pruned
	if err != nil {
		c.logger.Warn("prune failed", slog.String("error", err.Error()))
		report.Errors = multierr.Append(report.Errors, err)
	}
}
