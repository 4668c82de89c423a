// Package browser provides the chromedp-backed browsing session used to
// drive the Courtsite business pages.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/picklevibe/bookings-crawler/internal/scraper"
)

const userAgent = `Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36`

// The bookings table and its pagination expose no stable ids, so the
// snapshots are taken by selector, matching the page markup.
const (
	tableSnapshotJS = `(() => {
		const table = document.querySelector("table.w-full.min-w-min");
		return table ? table.outerHTML : "";
	})()`

	orgLabelJS = `(() => {
		const el = document.querySelector(".typography-h4");
		return el ? el.innerText.trim() : "";
	})()`

	nextPageJS = `(() => {
		const btn = Array.from(document.querySelectorAll("button")).find(
			(b) => b.innerText.trim() === ">");
		if (btn && !btn.disabled && !btn.hasAttribute("disabled")) {
			btn.click();
			return true;
		}
		return false;
	})()`
)

// Config holds the provider's login and browser settings.
type Config struct {
	LoginURL  string
	Email     string
	Password  string
	Headless  bool
	OpTimeout time.Duration
}

// Provider launches authenticated headless Chrome sessions.
type Provider struct {
	cfg    Config
	logger *zap.Logger
}

func NewProvider(cfg Config, logger *zap.Logger) *Provider {
	return &Provider{cfg: cfg, logger: logger}
}

// NewSession starts a browser, performs the Courtsite login, and returns
// the session. The session is exclusively owned by one crawl run.
func (p *Provider) NewSession(ctx context.Context) (scraper.BrowserSession, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", p.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("ignore-certificate-errors", true),
		chromedp.UserAgent(userAgent),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	taskCtx, taskCancel := chromedp.NewContext(allocCtx)

	s := &session{
		ctx:       taskCtx,
		opTimeout: p.cfg.OpTimeout,
		logger:    p.logger,
		cancels:   []context.CancelFunc{taskCancel, allocCancel},
	}

	if err := s.login(ctx, p.cfg); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

type session struct {
	ctx       context.Context
	opTimeout time.Duration
	logger    *zap.Logger
	cancels   []context.CancelFunc
}

func (s *session) login(ctx context.Context, cfg Config) error {
	if cfg.Email == "" {
		s.logger.Warn("no login credentials configured, skipping login")
		return nil
	}

	s.logger.Info("logging in", zap.String("url", cfg.LoginURL))
	err := s.run(ctx,
		chromedp.Navigate(cfg.LoginURL),
		chromedp.WaitVisible(`input[name="email"]`, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="email"]`, cfg.Email, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="password"]`, cfg.Password, chromedp.ByQuery),
		chromedp.Click(`button[type="submit"]`, chromedp.ByQuery),
		chromedp.Sleep(3*time.Second),
	)
	if err != nil {
		return fmt.Errorf("login via %s: %w", cfg.LoginURL, err)
	}
	return nil
}

func (s *session) Navigate(ctx context.Context, url string) error {
	return s.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitVisible("body", chromedp.ByQuery),
	)
}

func (s *session) TableHTML(ctx context.Context) (string, error) {
	var html string
	err := s.run(ctx, chromedp.Evaluate(tableSnapshotJS, &html))
	return html, err
}

func (s *session) OrganizationLabel(ctx context.Context) (string, error) {
	var label string
	err := s.run(ctx, chromedp.Evaluate(orgLabelJS, &label))
	return label, err
}

func (s *session) AdvancePage(ctx context.Context) (bool, error) {
	var advanced bool
	err := s.run(ctx, chromedp.Evaluate(nextPageJS, &advanced))
	return advanced, err
}

func (s *session) Close() {
	for _, cancel := range s.cancels {
		cancel()
	}
}

// run executes chromedp actions on the session's browser context with the
// per-operation timeout, aborting early when the run context has ended.
func (s *session) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	opCtx, cancel := context.WithTimeout(s.ctx, s.opTimeout)
	defer cancel()
	return chromedp.Run(opCtx, actions...)
}
