package scraper

import (
	"bytes"
	"context"
	"crypto/x509"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	tls2 "github.com/refraction-networking/utls"
	"github.com/use-agent/xhsnote/config"
	"github.com/use-agent/xhsnote/extractor"
	"github.com/use-agent/xhsnote/heuristic"
	"github.com/use-agent/xhsnote/models"
	"golang.org/x/net/proxy"
)

const (
	chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

	maxBodyBytes = 10 * 1024 * 1024
)

var _ extractor.Renderer = (*StaticRenderer)(nil)

// StaticRenderer fetches the note page over plain HTTP with a Chrome TLS
// fingerprint (utls) and evaluates the heuristics on the server-rendered
// markup. It runs no JavaScript, so it only sees what the site ships in the
// initial document.
type StaticRenderer struct {
	client      *http.Client
	scraperCfg  config.ScraperConfig
	activePages atomic.Int32

	// rootCAs overrides the system roots when set.
	rootCAs *x509.CertPool
}

// NewStaticRenderer builds the HTTP client. The proxy, if any, comes from
// the browser config so both modes egress the same way.
func NewStaticRenderer(browserCfg config.BrowserConfig, scraperCfg config.ScraperConfig) *StaticRenderer {
	r := &StaticRenderer{scraperCfg: scraperCfg}
	p := browserCfg.DefaultProxy
	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialTLSChrome(ctx, network, addr, p, r.rootCAs)
		},
	}
	if p != "" {
		proxyURL, err := url.Parse(p)
		if err == nil && (proxyURL.Scheme == "http" || proxyURL.Scheme == "https") {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}
	r.client = &http.Client{Transport: transport}
	return r
}

// Available always reports true; there is no engine process to lose.
func (r *StaticRenderer) Available(context.Context) bool { return true }

// ActivePages returns the number of fetched documents not yet closed.
func (r *StaticRenderer) ActivePages() int {
	return int(r.activePages.Load())
}

// Close drops idle keep-alive connections.
func (r *StaticRenderer) Close() error {
	r.client.CloseIdleConnections()
	return nil
}

// Render fetches targetURL with the session cookies attached.
func (r *StaticRenderer) Render(ctx context.Context, targetURL string, session []models.Credential) (extractor.Page, error) {
	navCtx, cancel := navigationContext(ctx, r.scraperCfg.NavigationTimeout)
	defer cancel()

	body, finalURL, err := r.fetch(navCtx, targetURL, session)
	if err != nil {
		return nil, categorizeError(err, "failed to fetch note page")
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, models.NewExtractError(models.ErrCodeNavigation, "failed to parse note page", err)
	}
	doc.Url = finalURL

	if looksLikeShell(doc, body) {
		slog.Warn("page looks like an unrendered script shell, browser mode may be needed", "url", targetURL)
	}

	r.activePages.Add(1)
	return &staticPage{doc: doc, html: string(body), active: &r.activePages}, nil
}

func (r *StaticRenderer) fetch(ctx context.Context, targetURL string, session []models.Credential) ([]byte, *url.URL, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch: build request: %w", err)
	}
	req.Header.Set("User-Agent", chromeUA)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	req.Header.Set("Referer", siteReferer)
	req.Header.Set("Cache-Control", "no-cache")
	for _, c := range session {
		req.AddCookie(c.HTTPCookie())
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, nil, fmt.Errorf("fetch: HTTP %d for %s", resp.StatusCode, targetURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("fetch: read body: %w", err)
	}
	return body, resp.Request.URL, nil
}

// dialTLSChrome establishes a TLS connection using a Chrome fingerprint via
// utls. SOCKS5 proxies are dialed through golang.org/x/net/proxy.
//
// http.Transport only speaks HTTP/2 on a *tls.Conn, so the Chrome hello is
// sent with ALPN narrowed to http/1.1.
func dialTLSChrome(ctx context.Context, network, addr, proxyAddr string, roots *x509.CertPool) (net.Conn, error) {
	var dialer proxy.ContextDialer = &net.Dialer{}

	if proxyAddr != "" {
		proxyURL, err := url.Parse(proxyAddr)
		if err == nil && (proxyURL.Scheme == "socks5" || proxyURL.Scheme == "socks5h") {
			d, err := proxy.FromURL(proxyURL, proxy.Direct)
			if err != nil {
				return nil, fmt.Errorf("socks5 dialer: %w", err)
			}
			cd, ok := d.(proxy.ContextDialer)
			if !ok {
				return nil, fmt.Errorf("socks5 dialer does not support contexts")
			}
			dialer = cd
		}
	}

	rawConn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	spec, err := chromeHTTP1Spec()
	if err != nil {
		rawConn.Close()
		return nil, err
	}

	host, _, _ := net.SplitHostPort(addr)
	tlsConn := tls2.UClient(rawConn, &tls2.Config{ServerName: host, RootCAs: roots}, tls2.HelloCustom)
	if err := tlsConn.ApplyPreset(&spec); err != nil {
		rawConn.Close()
		return nil, fmt.Errorf("apply chrome hello: %w", err)
	}
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		rawConn.Close()
		return nil, err
	}
	return tlsConn, nil
}

// chromeHTTP1Spec returns the current Chrome ClientHello with only
// http/1.1 offered over ALPN.
func chromeHTTP1Spec() (tls2.ClientHelloSpec, error) {
	spec, err := tls2.UTLSIdToSpec(tls2.HelloChrome_Auto)
	if err != nil {
		return spec, fmt.Errorf("chrome hello spec: %w", err)
	}
	for _, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls2.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
		}
	}
	return spec, nil
}

var reNoscript = regexp.MustCompile(`(?i)(enable|activate|turn on|requires?)\s+javascript`)

// looksLikeShell reports whether the fetched document is a client-side
// rendering shell: almost no visible body text, or a noscript warning.
func looksLikeShell(doc *goquery.Document, body []byte) bool {
	if reNoscript.MatchString(doc.Find("noscript").Text()) {
		return true
	}
	visible := doc.Find("body").Clone()
	visible.Find("script, style, noscript, template").Remove()
	text := strings.Join(strings.Fields(visible.Text()), " ")
	if utf8.RuneCountInString(text) < 200 {
		return true
	}
	return bytes.Count(bytes.ToLower(body), []byte("<script")) > 10 && utf8.RuneCountInString(text) < 500
}

// staticPage is a fetched document held in memory.
type staticPage struct {
	doc    *goquery.Document
	html   string
	active *atomic.Int32
	once   sync.Once
}

func (p *staticPage) Evaluate(_ context.Context, eng *heuristic.Engine) (*models.Record, error) {
	return eng.Evaluate(p.doc), nil
}

func (p *staticPage) HTML(context.Context) (string, error) {
	return p.html, nil
}

func (p *staticPage) Close() error {
	p.once.Do(func() { p.active.Add(-1) })
	return nil
}
