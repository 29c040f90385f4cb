package markdown

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/viccon/sturdyc"

	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// OEmbedProvider describes an oEmbed endpoint and the URL schemes it serves.
// Schemes use * as a wildcard.
type OEmbedProvider struct {
	Name     string
	Endpoint string
	Schemes  []string
}

// DefaultOEmbedProviders lists the media hosts posts embed from.
var DefaultOEmbedProviders = []OEmbedProvider{
	{
		Name:     "youtube",
		Endpoint: "https://www.youtube.com/oembed",
		Schemes: []string{
			"https://*.youtube.com/watch*",
			"https://*.youtube.com/shorts/*",
			"https://youtu.be/*",
		},
	},
	{
		Name:     "vimeo",
		Endpoint: "https://vimeo.com/api/oembed.json",
		Schemes:  []string{"https://vimeo.com/*", "https://player.vimeo.com/video/*"},
	},
	{
		Name:     "soundcloud",
		Endpoint: "https://soundcloud.com/oembed",
		Schemes:  []string{"https://soundcloud.com/*"},
	},
	{
		Name:     "flickr",
		Endpoint: "https://www.flickr.com/services/oembed/",
		Schemes:  []string{"https://*.flickr.com/photos/*", "https://flic.kr/p/*"},
	},
	{
		Name:     "spotify",
		Endpoint: "https://open.spotify.com/oembed",
		Schemes:  []string{"https://open.spotify.com/*"},
	},
}

// OEmbedConfig controls remote lookups.
type OEmbedConfig struct {
	Providers  []OEmbedProvider
	MaxWidth   int
	Timeout    time.Duration
	CacheTTL   time.Duration
	CacheSize  int
	HTTPClient *http.Client
	Logger     interfaces.Logger
}

// OEmbedResolver replaces bare media URLs with provider embed markup.
type OEmbedResolver struct {
	providers []compiledProvider
	maxWidth  int
	timeout   time.Duration
	client    *http.Client
	cache     *sturdyc.Client[string]
	logger    interfaces.Logger
}

type compiledProvider struct {
	OEmbedProvider
	patterns []*regexp.Regexp
}

type oembedResponse struct {
	Type  string `json:"type"`
	HTML  string `json:"html"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

var errNoEmbed = errors.New("oembed: response has no embeddable content")

// NewOEmbedResolver compiles provider schemes and prepares the response cache.
func NewOEmbedResolver(cfg OEmbedConfig) (*OEmbedResolver, error) {
	providers := cfg.Providers
	if providers == nil {
		providers = DefaultOEmbedProviders
	}

	compiled := make([]compiledProvider, 0, len(providers))
	for _, provider := range providers {
		if strings.TrimSpace(provider.Endpoint) == "" {
			return nil, fmt.Errorf("oembed provider %q: endpoint required", provider.Name)
		}
		entry := compiledProvider{OEmbedProvider: provider}
		for _, scheme := range provider.Schemes {
			pattern, err := schemePattern(scheme)
			if err != nil {
				return nil, fmt.Errorf("oembed provider %q: %w", provider.Name, err)
			}
			entry.patterns = append(entry.patterns, pattern)
		}
		compiled = append(compiled, entry)
	}

	if cfg.MaxWidth <= 0 {
		cfg.MaxWidth = 800
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 1000
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &OEmbedResolver{
		providers: compiled,
		maxWidth:  cfg.MaxWidth,
		timeout:   cfg.Timeout,
		client:    client,
		cache:     sturdyc.New[string](cfg.CacheSize, 10, cfg.CacheTTL, 10),
		logger:    logging.Ensure(cfg.Logger),
	}, nil
}

func schemePattern(scheme string) (*regexp.Regexp, error) {
	scheme = strings.TrimSpace(scheme)
	scheme = strings.TrimPrefix(strings.TrimPrefix(scheme, "https://"), "http://")
	quoted := strings.ReplaceAll(regexp.QuoteMeta(scheme), `\*`, `.*`)
	// http and https are interchangeable for every provider.
	return regexp.Compile(`^https?://` + quoted + `$`)
}

// Match returns the provider serving rawURL.
func (r *OEmbedResolver) Match(rawURL string) (OEmbedProvider, bool) {
	if r == nil {
		return OEmbedProvider{}, false
	}
	for _, provider := range r.providers {
		for _, pattern := range provider.patterns {
			if pattern.MatchString(rawURL) {
				return provider.OEmbedProvider, true
			}
		}
	}
	return OEmbedProvider{}, false
}

// Lookup fetches embed markup for rawURL, serving repeated URLs from cache.
func (r *OEmbedResolver) Lookup(ctx context.Context, rawURL string) (string, error) {
	provider, ok := r.Match(rawURL)
	if !ok {
		return "", fmt.Errorf("oembed: no provider for %s", rawURL)
	}
	key := provider.Name + ":" + strconv.Itoa(r.maxWidth) + ":" + rawURL
	return r.cache.GetOrFetch(ctx, key, func(ctx context.Context) (string, error) {
		return r.fetch(ctx, provider, rawURL)
	})
}

func (r *OEmbedResolver) fetch(ctx context.Context, provider OEmbedProvider, rawURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	endpoint, err := url.Parse(provider.Endpoint)
	if err != nil {
		return "", fmt.Errorf("oembed endpoint %q: %w", provider.Endpoint, err)
	}
	query := endpoint.Query()
	query.Set("url", rawURL)
	query.Set("format", "json")
	query.Set("maxwidth", strconv.Itoa(r.maxWidth))
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("oembed fetch %s: %w", provider.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("oembed fetch %s: unexpected status %d", provider.Name, resp.StatusCode)
	}

	var payload oembedResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("oembed decode %s: %w", provider.Name, err)
	}
	return payload.markup()
}

func (p oembedResponse) markup() (string, error) {
	switch p.Type {
	case "photo":
		if p.URL == "" {
			return "", errNoEmbed
		}
		return fmt.Sprintf(`<a href="%s" title="%s"><img alt="%s" src="%s"/></a>`,
			html.EscapeString(p.URL), html.EscapeString(p.Title),
			html.EscapeString(p.Title), html.EscapeString(p.URL)), nil
	default:
		if strings.TrimSpace(p.HTML) == "" {
			return "", errNoEmbed
		}
		return p.HTML, nil
	}
}

// expand swaps every standalone link to a known provider for its embed. A
// link is standalone when its text equals its href. Failed lookups leave the
// link in place.
func (r *OEmbedResolver) expand(ctx context.Context, doc *goquery.Document) {
	if r == nil {
		return
	}
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		if a.ParentsFiltered("pre, code").Length() > 0 {
			return
		}
		href, _ := a.Attr("href")
		if strings.TrimSpace(a.Text()) != href {
			return
		}
		if _, ok := r.Match(href); !ok {
			return
		}
		markup, err := r.Lookup(ctx, href)
		if err != nil {
			r.logger.Warn("markdown.oembed.lookup_failed", "url", href, "error", err)
			return
		}
		a.ReplaceWithHtml(markup)
	})
}
