package scraper

import "context"

// BrowserSession is one authenticated browsing session. It is exclusively
// owned by the in-flight run; organizations share it sequentially.
type BrowserSession interface {
	// Navigate loads the given URL and waits for the page to load.
	Navigate(ctx context.Context, url string) error
	// TableHTML returns the current bookings table as an HTML snapshot,
	// or an empty string when no table is present.
	TableHTML(ctx context.Context) (string, error)
	// OrganizationLabel returns the page's organization heading, used to
	// classify records when the crawl target carries no name.
	OrganizationLabel(ctx context.Context) (string, error)
	// AdvancePage activates the next-page control when it is present and
	// enabled, reporting whether the table advanced.
	AdvancePage(ctx context.Context) (bool, error)
	// Close releases the session and its browser resources.
	Close()
}

// SessionProvider opens authenticated browser sessions.
type SessionProvider interface {
	NewSession(ctx context.Context) (BrowserSession, error)
}
