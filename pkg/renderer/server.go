package renderer

import (
	"bytes"
	"context"
	"log/slog"

	"github.com/vango-dev/isopage/internal/errors"
	"github.com/vango-dev/isopage/pkg/cache"
	"github.com/vango-dev/isopage/pkg/page"
	"github.com/vango-dev/isopage/pkg/render"
	"github.com/vango-dev/isopage/pkg/response"
	"github.com/vango-dev/isopage/pkg/vdom"
)

// ServerConfig configures a Server renderer for one request.
type ServerConfig struct {
	// Response is the response of the request being rendered.
	Response *response.Response

	// Cache is snapshotted into the revival payload. Optional.
	Cache *cache.Cache

	// Revival is the payload template. The cache snapshot and, when empty,
	// the path are filled in per render.
	Revival render.Revival

	ContainerID  string
	ClientScript string
	StyleSheets  []string
	Lang         string

	Logger *slog.Logger
	Debug  bool
}

// Server renders a page to markup once per request.
type Server struct {
	config ServerConfig
	helper *Helper
}

// NewServer creates a Server renderer.
func NewServer(config ServerConfig) *Server {
	if config.ContainerID == "" {
		config.ContainerID = "page"
	}
	return &Server{
		config: config,
		helper: NewHelper(config.Logger, config.Debug),
	}
}

// Mount waits for every resource, renders the page and sends it. If the
// response was already sent it returns what was sent without rendering.
func (s *Server) Mount(ctx context.Context, ctrl page.Renderable, view page.View, resources page.Resources, opts RouteOptions) (*Result, error) {
	res := s.config.Response
	if res.IsSent() {
		return sentResult(res), nil
	}

	state, err := s.helper.AwaitAll(ctx, resources)
	if err != nil {
		return nil, s.helper.HandleError(err, errors.CodeResourceLoad)
	}

	ctrl.SetState(state)
	state = ctrl.State()
	ctrl.SetMetaParams(state)
	status := ctrl.HTTPStatus()

	body, err := s.helper.Render(view, state)
	if err != nil {
		return nil, s.helper.HandleError(err, errors.CodeRender)
	}

	content, err := s.renderPage(ctrl, body, opts)
	if err != nil {
		return nil, s.helper.HandleError(err, errors.CodeRender)
	}

	// A redirect may have been sent while resources were loading.
	if err := res.Status(status).SetPageState(state).Send(content); err != nil {
		if errors.Is(err, errors.ErrResponseSent) {
			return sentResult(res), nil
		}
		return nil, s.helper.HandleError(err, errors.CodeRender)
	}

	return &Result{Status: status, PageState: state, Content: content}, nil
}

func (s *Server) renderPage(ctrl page.Renderable, body *vdom.VNode, opts RouteOptions) (string, error) {
	m := ctrl.MetaManager()
	metaTags, links := pageMeta(m)

	revival := s.config.Revival
	if revival.Path == "" {
		revival.Path = opts.URL
	}
	if s.config.Cache != nil {
		snapshot, err := s.config.Cache.Snapshot()
		if err != nil {
			return "", err
		}
		revival.Cache = snapshot
	}

	data := render.PageData{
		Body:         body,
		ContainerID:  s.config.ContainerID,
		Title:        m.Title(),
		Meta:         metaTags,
		Links:        links,
		StyleSheets:  s.config.StyleSheets,
		Revival:      &revival,
		ClientScript: s.config.ClientScript,
		Lang:         s.config.Lang,
	}

	var buf bytes.Buffer
	if err := render.NewRenderer(render.RendererConfig{}).RenderPage(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Update always fails: a request renders once.
func (s *Server) Update(ctx context.Context, ctrl page.Renderable, view page.View, resources page.Resources) (*Result, error) {
	return nil, errors.New(errors.CodeDeniedOperation).WithDetail("update is not available on the server")
}

// Unmount does nothing on the server.
func (s *Server) Unmount() {}

// SetState always fails: a request renders once.
func (s *Server) SetState(ctx context.Context, state page.State) error {
	return errors.New(errors.CodeDeniedOperation).WithDetail("setState is not available on the server")
}

func sentResult(res *response.Response) *Result {
	p := res.Params()
	return &Result{Status: p.Status, PageState: p.PageState, Content: p.Content}
}

var _ Renderer = (*Server)(nil)
