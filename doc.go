// Package isopage serves pages whose controllers and views run the same way
// on the server and in a live browser session.
//
// A plain GET request renders the whole document on the server with the
// page state and a revival payload embedded. The browser then opens a live
// session (see package livesync) which hydrates the same page and applies
// every later navigation as patches: pages on the same route update in
// place, other pages are torn down and mounted fresh.
//
// Controllers reach per-navigation values through the request context:
//
//	func (c *ArticleController) Load(ctx context.Context) (page.Resources, error) {
//	    id := c.RouteParams()["id"]
//	    article := isopage.CacheFrom(ctx).GetOrLoad(ctx, "article:"+id, loadArticle(id))
//	    return page.Resources{"article": article}, nil
//	}
package isopage
