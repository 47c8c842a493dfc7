package setup

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path"
	"time"

	"github.com/itchan-dev/postsweb/internal/apiclient"
	"github.com/itchan-dev/postsweb/internal/config"
	"github.com/itchan-dev/postsweb/internal/domain"
	"github.com/itchan-dev/postsweb/internal/handler"
	"github.com/itchan-dev/postsweb/internal/logger"
	"github.com/itchan-dev/postsweb/internal/markdown"
	"github.com/itchan-dev/postsweb/internal/metrics"
	"github.com/itchan-dev/postsweb/internal/middleware/ratelimiter"
	"github.com/itchan-dev/postsweb/internal/notify"
	"github.com/itchan-dev/postsweb/internal/session"
	"github.com/itchan-dev/postsweb/internal/surface"
	"github.com/itchan-dev/postsweb/internal/validation"
	"github.com/itchan-dev/postsweb/web"
)

const (
	baseTemplate           = "base.html"
	partialsTemplate       = "partials.html"
	templateReloadInterval = 5 * time.Second
	rateLimiterExpiration  = 10 * time.Minute
	ipLimitFactor          = 10 // an address may carry this many busy sessions
)

type Dependencies struct {
	Handler    *handler.Handler
	Sessions   *session.Store
	Limiter    *ratelimiter.KeyedRateLimiter // per session
	IPLimiter  *ratelimiter.KeyedRateLimiter // per client address, shared by its sessions
	Classifier surface.Classifier
	Public     config.Public
	Static     fs.FS
	CancelFunc context.CancelFunc
}

// Close stops the background work started by SetupDependencies.
func (d *Dependencies) Close() {
	d.CancelFunc()
	d.Sessions.Stop()
	d.Limiter.Stop()
	d.IPLimiter.Stop()
}

func SetupDependencies(cfg *config.Config) (*Dependencies, error) {
	templatesFS, err := fs.Sub(web.FS, "templates")
	if err != nil {
		return nil, fmt.Errorf("embedded templates: %w", err)
	}
	staticFS, err := fs.Sub(web.FS, "static")
	if err != nil {
		return nil, fmt.Errorf("embedded static files: %w", err)
	}
	templates, err := LoadTemplates(templatesFS)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	apiClient := apiclient.New(cfg.Public.API.BaseURL, cfg.Public.API.Timeout)
	tokens := session.NewTokens(cfg.SessionSecret(), cfg.Public.Session.TTL)
	store := session.NewStore(session.Options{
		API:    apiClient,
		Schema: validation.New(),
		Locale: cfg.Public.Locale,
		Notifications: notify.Options{
			Timeout: cfg.Public.Notifications.Timeout,
			Grace:   cfg.Public.Notifications.Grace,
		},
		OnPresent: func(id domain.SessionId, n domain.Notification) {
			metrics.NotificationPresented()
			logger.Log.Debug("notification presented", "session_id", id, "notification_id", n.ID, "title", n.Title)
		},
	}, tokens, cfg.Public.Session.TTL, cfg.Public.SecureCookies)

	h := handler.New(templates, cfg.Public, markdown.New(), apiClient)

	ctx, cancel := context.WithCancel(context.Background())
	if cfg.Public.Development {
		startTemplateReloader(ctx, h, os.DirFS(cfg.Public.TemplatesDir))
	}

	return &Dependencies{
		Handler:    h,
		Sessions:   store,
		Limiter:    ratelimiter.New(cfg.Public.RateLimit.Rate, cfg.Public.RateLimit.Capacity, rateLimiterExpiration),
		IPLimiter:  ratelimiter.New(cfg.Public.RateLimit.Rate*ipLimitFactor, cfg.Public.RateLimit.Capacity*ipLimitFactor, rateLimiterExpiration),
		Classifier: surface.Classifier{Breakpoint: surface.Breakpoint},
		Public:     cfg.Public,
		Static:     staticFS,
		CancelFunc: cancel,
	}, nil
}

func dict(values ...any) (map[string]any, error) {
	if len(values)%2 != 0 {
		return nil, fmt.Errorf("invalid dict call: number of arguments must be even")
	}
	m := make(map[string]any, len(values)/2)
	for i := 0; i < len(values); i += 2 {
		key, ok := values[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict keys must be strings")
		}
		m[key] = values[i+1]
	}
	return m, nil
}

// LoadTemplates parses every page in fsys together with the base layout and
// the shared partials.
func LoadTemplates(fsys fs.FS) (map[string]*template.Template, error) {
	files, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}

	templates := make(map[string]*template.Template)
	for _, f := range files {
		name := f.Name()
		if path.Ext(name) != ".html" || name == baseTemplate || name == partialsTemplate {
			continue
		}
		tmpl, err := template.New(baseTemplate).Funcs(template.FuncMap{
			"dict": dict,
		}).ParseFS(fsys, baseTemplate, name, partialsTemplate)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		templates[name] = tmpl
	}
	return templates, nil
}

func startTemplateReloader(ctx context.Context, h *handler.Handler, fsys fs.FS) {
	ticker := time.NewTicker(templateReloadInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				templates, err := LoadTemplates(fsys)
				if err != nil {
					logger.Log.Warn("template reload failed", "error", err)
					continue
				}
				h.SetTemplates(templates)
			}
		}
	}()
}
