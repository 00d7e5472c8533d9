// Package enginetest provides an in-memory engine.Engine for tests.
package enginetest

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/mustang-stock/mustangctl/internal/engine"
)

// Fake is an in-memory engine. Containers and images are kept in insertion
// order so listings are deterministic.
//
// ListFilter.Ancestor matches Container.Image exactly. The daemon also
// matches image IDs and containers built from descendant images; tests that
// need those cases register the container with the matching Image.
type Fake struct {
	mu sync.Mutex

	Containers []engine.Container
	Images     []engine.Image

	// Fail* make the named operation fail for the given id or ref
	FailRemove      map[string]error
	FailStop        map[string]error
	FailRemoveImage map[string]error
	FailList        error
	FailPrune       error
	FailBuild       error
	FailPing        error

	Stopped       []string
	Removed       []string
	RemovedImages []string
	Builds        []engine.BuildRequest
	Prunes        int
	Closed        bool
}

var _ engine.Engine = (*Fake)(nil)

// AddContainer registers a container
func (f *Fake) AddContainer(c engine.Container) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Containers = append(f.Containers, c)
	return f
}

// AddImage registers an image
func (f *Fake) AddImage(img engine.Image) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Images = append(f.Images, img)
	return f
}

func (f *Fake) Ping(ctx context.Context) error { return f.FailPing }

func (f *Fake) ListContainers(ctx context.Context, filter engine.ListFilter) ([]engine.Container, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailList != nil {
		return nil, f.FailList
	}

	var out []engine.Container
	for _, c := range f.Containers {
		if filter.Ancestor != "" && c.Image != filter.Ancestor {
			continue
		}
		if filter.Label != "" && !hasLabel(c.Labels, filter.Label) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func hasLabel(labels map[string]string, filter string) bool {
	key, value, withValue := strings.Cut(filter, "=")
	got, ok := labels[key]
	if !ok {
		return false
	}
	return !withValue || got == value
}

func (f *Fake) StopContainer(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.FailStop[id]; err != nil {
		return err
	}
	f.Stopped = append(f.Stopped, id)
	return nil
}

func (f *Fake) RemoveContainer(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.FailRemove[id]; err != nil {
		return err
	}
	for i, c := range f.Containers {
		if c.ID == id {
			f.Containers = append(f.Containers[:i], f.Containers[i+1:]...)
			f.Removed = append(f.Removed, id)
			return nil
		}
	}
	return fmt.Errorf("no such container %s: %w", id, engine.ErrNotFound)
}

func (f *Fake) ListImages(ctx context.Context) ([]engine.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailList != nil {
		return nil, f.FailList
	}
	return append([]engine.Image(nil), f.Images...), nil
}

func (f *Fake) RemoveImage(ctx context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.FailRemoveImage[ref]; err != nil {
		return err
	}
	for i, img := range f.Images {
		if img.ID == ref || contains(img.Tags, ref) {
			f.Images = append(f.Images[:i], f.Images[i+1:]...)
			f.RemovedImages = append(f.RemovedImages, ref)
			return nil
		}
	}
	return fmt.Errorf("no such image %s: %w", ref, engine.ErrNotFound)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (f *Fake) Prune(ctx context.Context) (engine.PruneReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Prunes++
	return engine.PruneReport{}, f.FailPrune
}

func (f *Fake) BuildImage(ctx context.Context, req engine.BuildRequest, out io.Writer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailBuild != nil {
		return f.FailBuild
	}
	f.Builds = append(f.Builds, req)
	f.Images = append(f.Images, engine.Image{ID: "sha256:" + req.Tag, Tags: []string{req.Tag}})
	fmt.Fprintf(out, "Successfully tagged %s\n", req.Tag)
	return nil
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}
