package renderer

import (
	"context"

	"github.com/vango-dev/isopage/pkg/cache"
	"github.com/vango-dev/isopage/pkg/document"
	"github.com/vango-dev/isopage/pkg/render"
)

// Bootstrap reads the revival payload embedded in doc and restores its cache
// snapshot into c. It returns nil without error when doc carries no payload.
func Bootstrap(ctx context.Context, doc *document.Document, c *cache.Cache) (*render.Revival, error) {
	raw := doc.Revival()
	if raw == "" {
		return nil, nil
	}

	revival, err := render.DecodeRevival(raw)
	if err != nil {
		return nil, err
	}
	if c != nil {
		if err := c.Restore(ctx, revival.Cache); err != nil {
			return nil, err
		}
	}
	return revival, nil
}
