package scraper

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/picklevibe/bookings-crawler/internal/domain"
)

// ErrPageLimit marks an organization whose pagination never terminated
// within the configured cap. Treated as a source failure for that
// organization only.
var ErrPageLimit = errors.New("page limit exceeded before pagination terminated")

// Paginator drives one organization's crawl to completion: extract the
// current page, advance, wait for the table to stabilize, repeat until the
// next-page control reports disabled or absent.
type Paginator struct {
	settle           time.Duration
	stabilizeTimeout time.Duration
	pollInterval     time.Duration
	maxPages         int
	logger           *zap.Logger
}

func NewPaginator(settle, stabilizeTimeout time.Duration, maxPages int, logger *zap.Logger) *Paginator {
	return &Paginator{
		settle:           settle,
		stabilizeTimeout: stabilizeTimeout,
		pollInterval:     500 * time.Millisecond,
		maxPages:         maxPages,
		logger:           logger,
	}
}

// Crawl exhausts all pages for one organization, in page order. On a
// mid-loop failure the pages already accumulated are returned along with
// the error; the orchestrator keeps them in the final dataset.
func (p *Paginator) Crawl(ctx context.Context, session BrowserSession, org domain.Organization) ([]domain.BookingRecord, error) {
	if err := session.Navigate(ctx, org.URL); err != nil {
		return nil, fmt.Errorf("navigate to %s: %w", org.URL, err)
	}
	p.waitStable(ctx, session)

	label := org.Name
	if label == "" {
		raw, err := session.OrganizationLabel(ctx)
		if err != nil {
			p.logger.Warn("could not read organization label", zap.String("url", org.URL), zap.Error(err))
		}
		label = domain.ClassifyOrganization(raw)
	}

	var records []domain.BookingRecord
	for page := 1; ; page++ {
		html, err := session.TableHTML(ctx)
		if err != nil {
			return records, fmt.Errorf("extract page %d of %s: %w", page, label, err)
		}
		pageRecords := ExtractRecords(html, label)
		records = append(records, pageRecords...)
		p.logger.Debug("page extracted",
			zap.String("organization", label),
			zap.Int("page", page),
			zap.Int("rows", len(pageRecords)))

		advanced, err := session.AdvancePage(ctx)
		if err != nil {
			return records, fmt.Errorf("advance past page %d of %s: %w", page, label, err)
		}
		if !advanced {
			return records, nil
		}
		if page >= p.maxPages {
			return records, fmt.Errorf("%s after %d pages: %w", label, page, ErrPageLimit)
		}
		p.waitStable(ctx, session)
	}
}

// waitStable sleeps through the fixed settling delay, then polls the table
// snapshot until two consecutive samples carry the same signature or the
// bounded timeout elapses. The source re-renders asynchronously and exposes
// no completion signal, so an unchanged snapshot is the termination cue.
func (p *Paginator) waitStable(ctx context.Context, session BrowserSession) {
	if !sleepCtx(ctx, p.settle) {
		return
	}

	deadline := time.Now().Add(p.stabilizeTimeout)
	var prev string
	for time.Now().Before(deadline) {
		html, err := session.TableHTML(ctx)
		if err == nil {
			sig := signature(html)
			if prev != "" && sig == prev {
				return
			}
			prev = sig
		}
		if !sleepCtx(ctx, p.pollInterval) {
			return
		}
	}
}

func signature(html string) string {
	sum := sha256.Sum256([]byte(html))
	return hex.EncodeToString(sum[:])
}

// sleepCtx waits for d, returning false when the context ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
