package pending

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/isopage/internal/errors"
)

// Split separates a resource map into resolved values and pending entries.
// Keys are preserved; the input is not modified.
func Split(resources map[string]any) (values map[string]any, deferred map[string]*Value) {
	values = make(map[string]any, len(resources))
	deferred = make(map[string]*Value)
	for key, v := range resources {
		if p, ok := v.(*Value); ok && p != nil {
			deferred[key] = p
			continue
		}
		values[key] = v
	}
	return values, deferred
}

// AwaitAll waits for every pending entry and returns the fully resolved map.
// The first rejection aborts the join and is returned as a resource error
// naming the failing key.
func AwaitAll(ctx context.Context, resources map[string]any) (map[string]any, error) {
	values, deferred := Split(resources)
	if len(deferred) == 0 {
		return values, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for key, p := range deferred {
		key, p := key, p
		g.Go(func() error {
			v, err := p.Wait(gctx)
			if err != nil {
				if gctx.Err() != nil && err == gctx.Err() {
					return err
				}
				return ResourceError(key, err)
			}
			mu.Lock()
			values[key] = v
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return values, nil
}

// WaitSettled blocks until every entry has settled, successfully or not,
// or ctx is done.
func WaitSettled(ctx context.Context, deferred map[string]*Value) error {
	for _, p := range deferred {
		select {
		case <-p.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// ResourceError wraps a rejection of the named resource.
func ResourceError(key string, err error) error {
	return errors.New(errors.CodeResourceLoad).WithDetailf("resource %q", key).Wrap(err)
}
