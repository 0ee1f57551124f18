package parser

import (
	"context"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/muleflow/pkg/model"
)

// Aggregate parses files and concatenates their containers, preserving file
// order and then document order. Containers are not deduplicated: two files
// defining a flow of the same name both contribute.
//
// Files that cannot be read are logged and skipped. With opts.Workers > 1 the
// files are parsed concurrently; results are still assembled in file order.
// Aggregate only returns early when ctx is cancelled, in which case the
// containers parsed so far are discarded.
func Aggregate(ctx context.Context, files []string, opts Options) ([]*model.FlowContainer, error) {
	perFile := make([][]*model.FlowContainer, len(files))

	parseOne := func(i int) {
		containers, err := Parse(files[i], opts)
		if err != nil {
			opts.logger().Warn("Skipping unreadable configuration file", "file", files[i], "err", err)
			return
		}
		perFile[i] = containers
	}

	if opts.Workers < 2 || len(files) < 2 {
		for i := range files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			parseOne(i)
		}
		return slices.Concat(perFile...), nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			parseOne(i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return slices.Concat(perFile...), nil
}
