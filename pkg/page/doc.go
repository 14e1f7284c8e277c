// Package page defines the business-logic units bound to a route and the
// state they own.
//
// A Controller owns a StateStore and an ordered list of Extensions. Both
// share the same lifecycle surface (Init, Load, Update, Activate, Deactivate,
// Destroy); an Extension additionally declares the state keys it may touch
// and only ever sees those keys through its ScopedState accessor.
//
// Controllers usually embed BaseController and override the hooks they need:
//
//	type ArticleController struct {
//	    page.BaseController
//	    api *API
//	}
//
//	func (c *ArticleController) Load(ctx context.Context) (page.Resources, error) {
//	    id := c.RouteParams()["id"]
//	    return page.Resources{
//	        "article": pending.Go(ctx, func(ctx context.Context) (any, error) {
//	            return c.api.Article(ctx, id)
//	        }),
//	    }, nil
//	}
package page
