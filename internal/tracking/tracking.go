// Package tracking serves the Meta pixel configuration and gates it on the
// visitor's analytics consent.
package tracking

import (
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"agency-cms/internal/consent"
	"agency-cms/internal/content"
)

// IntegrationType is the site_integrations type holding the pixel config.
const IntegrationType = "meta_pixel"

const cacheKey = "config:" + IntegrationType

// Config is the pixel configuration. An empty PixelID disables tracking.
type Config struct {
	PixelID string `json:"pixel_id"`
}

func (c Config) Enabled() bool { return c.PixelID != "" }

// Source lists integration rows.
type Source interface {
	List(ctx context.Context, scope content.Scope) ([]content.Integration, error)
}

// Provider loads and caches the pixel configuration.
type Provider struct {
	src   Source
	cache *gocache.Cache
}

// NewProvider caches the configuration for ttl. The cache runs without a
// janitor goroutine; expired entries are dropped on read.
func NewProvider(src Source, ttl time.Duration) *Provider {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Provider{src: src, cache: gocache.New(ttl, 0)}
}

// Config returns the active pixel configuration.
func (p *Provider) Config(ctx context.Context) (Config, error) {
	if v, ok := p.cache.Get(cacheKey); ok {
		return v.(Config), nil
	}

	scope := content.Where("integration_type", IntegrationType)
	scope.VisibleOnly = true
	rows, err := p.src.List(ctx, scope)
	if err != nil {
		return Config{}, fmt.Errorf("load tracking config: %w", err)
	}

	var cfg Config
	for _, r := range rows {
		if id := strings.TrimSpace(r.ConfigString("pixel_id")); id != "" {
			cfg.PixelID = id
			break
		}
	}
	p.cache.SetDefault(cacheKey, cfg)
	return cfg, nil
}

// Invalidate drops the cached configuration so the next read reloads it.
func (p *Provider) Invalidate() {
	p.cache.Delete(cacheKey)
}

// Event is a page-view event to fire on the client.
type Event struct {
	Name    string `json:"name"`
	PixelID string `json:"pixel_id"`
	Path    string `json:"path"`
}

// Snippet returns the pixel bootstrap script, or "" when tracking is off or
// analytics consent has not been granted.
func Snippet(cfg Config, st consent.State) template.HTML {
	if !cfg.Enabled() || !st.HasAnalyticsConsent {
		return ""
	}
	var b strings.Builder
	if err := snippetTmpl.Execute(&b, cfg); err != nil {
		return ""
	}
	return template.HTML(b.String())
}

// PageView returns the event for path when tracking is allowed.
func PageView(cfg Config, st consent.State, path string) (Event, bool) {
	if !cfg.Enabled() || !st.HasAnalyticsConsent {
		return Event{}, false
	}
	if path == "" {
		path = "/"
	}
	return Event{Name: "PageView", PixelID: cfg.PixelID, Path: path}, true
}

var snippetTmpl = template.Must(template.New("pixel").Parse(`<script>
!function(f,b,e,v,n,t,s){if(f.fbq)return;n=f.fbq=function(){n.callMethod?
n.callMethod.apply(n,arguments):n.queue.push(arguments)};if(!f._fbq)f._fbq=n;
n.push=n;n.loaded=!0;n.version='2.0';n.queue=[];t=b.createElement(e);t.async=!0;
t.src=v;s=b.getElementsByTagName(e)[0];s.parentNode.insertBefore(t,s)}(window,
document,'script','https://connect.facebook.net/en_US/fbevents.js');
fbq('init', {{.PixelID}});
fbq('track', 'PageView');
</script>
<noscript><img height="1" width="1" style="display:none" src="https://www.facebook.com/tr?id={{.PixelID}}&ev=PageView&noscript=1"/></noscript>`))
