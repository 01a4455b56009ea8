package source

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"goldwatcher/internal/quote"
)

// Adapter encapsulates one fetch strategy against one upstream origin.
// Implementations never write shared state; they return a normalized
// quotation or an error, and the orchestrator does the rest.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context) (quote.Quotation, error)
}

// Failure is the error type every adapter collapses its network, parse and
// validation problems into.
type Failure struct {
	Adapter string
	Reason  string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Adapter, f.Reason, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Adapter, f.Reason)
}

func (f *Failure) Unwrap() error { return f.Err }

func failf(adapter, reason string, err error) *Failure {
	return &Failure{Adapter: adapter, Reason: reason, Err: err}
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

// ClientOptions tune the shared outbound HTTP client.
type ClientOptions struct {
	Timeout     time.Duration
	UserAgent   string
	RequestsSec float64
	SkipVerify  bool
}

// Client wraps http.Client with browser-like headers and a politeness rate
// limiter for the scrape-based adapters.
type Client struct {
	http      *http.Client
	userAgent string
	limiter   *rate.Limiter
}

// NewClient constructs the shared outbound client.
func NewClient(opts ClientOptions) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	transport := http.DefaultTransport
	if opts.SkipVerify {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	rps := opts.RequestsSec
	if rps <= 0 {
		rps = 4
	}

	ua := opts.UserAgent
	if strings.TrimSpace(ua) == "" {
		ua = defaultUserAgent
	}

	return &Client{
		http:      &http.Client{Timeout: timeout, Transport: transport},
		userAgent: ua,
		limiter:   rate.NewLimiter(rate.Limit(rps), 2),
	}
}

// Do waits on the rate limiter, applies default headers, and executes req.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8")
	}
	return c.http.Do(req)
}

// Get is a convenience wrapper for header-less GET fetches.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

var priceDigits = regexp.MustCompile(`[\d,]+(?:\.\d+)?`)

// ExtractPrice pulls the first numeric amount out of display text like
// "₹15,000" or "INR 14280.00".
func ExtractPrice(text string) (decimal.Decimal, bool) {
	match := priceDigits.FindString(text)
	if match == "" {
		return decimal.Decimal{}, false
	}
	cleaned := strings.ReplaceAll(match, ",", "")
	d, err := decimal.NewFromString(cleaned)
	if err != nil || d.Sign() <= 0 {
		return decimal.Decimal{}, false
	}
	return d, true
}
