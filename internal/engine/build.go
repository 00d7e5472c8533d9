package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/moby/go-archive"
	"github.com/moby/patternmatcher/ignorefile"
	"github.com/moby/term"
)

// BuildImage tars req.ContextDir (honoring .dockerignore), sends it to the
// daemon and renders the build stream to out. A failed build step is
// returned as an error.
func (d *Docker) BuildImage(ctx context.Context, req BuildRequest, out io.Writer) error {
	excludes, err := buildExcludes(req.ContextDir, req.Dockerfile)
	if err != nil {
		return err
	}

	buildCtx, err := archive.TarWithOptions(req.ContextDir, &archive.TarOptions{ExcludePatterns: excludes})
	if err != nil {
		return fmt.Errorf("failed to create build context: %w", err)
	}
	defer buildCtx.Close()

	d.logger.Debug("building image",
		slog.String("tag", req.Tag),
		slog.String("target", req.Target),
		slog.String("dockerfile", req.Dockerfile),
		slog.Int("excludes", len(excludes)))

	resp, err := d.cli.ImageBuild(ctx, buildCtx, build.ImageBuildOptions{
		Tags:        []string{req.Tag},
		Dockerfile:  filepath.ToSlash(req.Dockerfile),
		Target:      req.Target,
		Remove:      true,
		ForceRemove: true,
	})
	if err != nil {
		return fmt.Errorf("failed to build image: %w", err)
	}
	defer resp.Body.Close()

	fd, isTerm := term.GetFdInfo(out)
	if err := jsonmessage.DisplayJSONMessagesStream(resp.Body, out, fd, isTerm, nil); err != nil {
		return fmt.Errorf("build of %s failed: %w", req.Tag, err)
	}
	return nil
}

// buildExcludes reads .dockerignore from contextDir. The Dockerfile and the
// ignore file itself are always sent, like the docker CLI does.
func buildExcludes(contextDir, dockerfile string) ([]string, error) {
	f, err := os.Open(filepath.Join(contextDir, ".dockerignore"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open .dockerignore: %w", err)
	}
	defer f.Close()

	excludes, err := ignorefile.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse .dockerignore: %w", err)
	}
	if len(excludes) == 0 {
		return excludes, nil
	}
	return append(excludes, "!"+filepath.ToSlash(filepath.Clean(dockerfile)), "!.dockerignore"), nil
}
