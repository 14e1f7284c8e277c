// Package pending provides deferred values for page resources.
//
// A controller's load() returns a map of resources. Each entry is either a
// plain value (already resolved) or a *Value that settles later:
//
//	return page.Resources{
//	    "title":    "Articles",
//	    "articles": pending.Go(ctx, func(ctx context.Context) (any, error) {
//	        return api.List(ctx)
//	    }),
//	}
//
// Split separates the two kinds and AwaitAll joins every pending entry while
// preserving keys.
package pending
