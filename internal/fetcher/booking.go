// Package fetcher retrieves live hotel listings from Booking.com with a
// headless Chrome session.
package fetcher

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/iliyamo/hotel-info-panels/internal/model"
)

const searchBase = "https://www.booking.com/searchresults.html"

// DefaultLoadMoreClicks is how many times the results page's "Load more
// results" button is pressed before extraction.  Each click roughly
// doubles the number of property cards on the page.
const DefaultLoadMoreClicks = 2

// DefaultTimeout bounds one whole fetch, navigation and load-more
// rounds included.
const DefaultTimeout = 90 * time.Second

// Booking fetches search results from Booking.com.  It satisfies
// refresh.Fetcher and is safe for concurrent use: every Fetch opens its
// own browser tab off the shared allocator context.
type Booking struct {
	allocCtx       context.Context
	loadMoreClicks int
	timeout        time.Duration
}

// NewBooking starts a headless Chrome allocator and returns the
// fetcher together with a cancel function that shuts the browser down.
// chromeBin may be empty, in which case common install locations are
// probed.  Non-positive loadMoreClicks and timeout fall back to the
// defaults.
func NewBooking(chromeBin string, loadMoreClicks int, timeout time.Duration) (*Booking, context.CancelFunc) {
	if loadMoreClicks <= 0 {
		loadMoreClicks = DefaultLoadMoreClicks
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("incognito", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) "+
			"AppleWebKit/537.36 (KHTML, like Gecko) "+
			"Chrome/123.0.0.0 Safari/537.36"),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
	return &Booking{
		allocCtx:       allocCtx,
		loadMoreClicks: loadMoreClicks,
		timeout:        timeout,
	}, cancel
}

// card mirrors the fields extracted from one property card in the page.
// Price and rating come back as raw display strings and are parsed on
// the Go side.
type card struct {
	Name   string `json:"name"`
	Price  string `json:"price"`
	Rating string `json:"rating"`
	Photo  string `json:"photo"`
	Link   string `json:"link"`
}

// Fetch loads the results page for the criteria, presses "Load more
// results" the configured number of times and extracts every property
// card.  Cards whose price cannot be parsed are skipped; an empty slice
// with a nil error means the page simply had no results.
func (b *Booking) Fetch(ctx context.Context, c model.SearchCriteria) ([]model.Item, error) {
	tabCtx, cancelTab := chromedp.NewContext(b.allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelTab()

	runCtx, cancelTimeout := context.WithTimeout(tabCtx, b.timeout)
	defer cancelTimeout()

	// The caller's context gates the whole operation as well.
	go func() {
		select {
		case <-ctx.Done():
			cancelTimeout()
		case <-runCtx.Done():
		}
	}()

	if err := chromedp.Run(runCtx,
		chromedp.Navigate(SearchURL(c)),
		chromedp.Sleep(4*time.Second),
	); err != nil {
		return nil, fmt.Errorf("navigate: %w", err)
	}

	// Press the load-more button; each round also dismisses the sign-in
	// popover and the cookie banner when they are present, since both
	// overlay the button.
	for i := 0; i < b.loadMoreClicks; i++ {
		var clicked bool
		if err := chromedp.Run(runCtx,
			chromedp.Evaluate(loadMoreScript, &clicked),
			chromedp.Sleep(1500*time.Millisecond),
		); err != nil {
			return nil, fmt.Errorf("load more: %w", err)
		}
		if !clicked {
			break
		}
	}

	var cards []card
	if err := chromedp.Run(runCtx,
		chromedp.Sleep(2*time.Second),
		chromedp.Evaluate(extractScript, &cards),
	); err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}

	items := make([]model.Item, 0, len(cards))
	for _, cd := range cards {
		price, err := parsePrice(cd.Price)
		if err != nil {
			continue
		}
		items = append(items, model.Item{
			Name:     strings.TrimSpace(cd.Name),
			Price:    price,
			Rating:   parseRating(cd.Rating),
			Photo:    cd.Photo,
			Link:     cd.Link,
			Position: len(items) + 1,
		})
	}
	return items, nil
}

// SearchURL builds the results URL for the criteria.  The parameter
// order matters to Booking.com's cache layer as little as it does to
// ours, but it is kept stable so stored links stay comparable: ss,
// lang, currency, dates, party, sort, then one age parameter per child.
func SearchURL(c model.SearchCriteria) string {
	var sb strings.Builder
	sb.WriteString(searchBase)
	sb.WriteString("?ss=")
	sb.WriteString(url.QueryEscape(c.Destination))
	sb.WriteString("&lang=en-us")
	sb.WriteString("&selected_currency=USD")
	sb.WriteString("&checkin=")
	sb.WriteString(c.CheckIn.Format(model.DateOnly))
	sb.WriteString("&checkout=")
	sb.WriteString(c.CheckOut.Format(model.DateOnly))
	sb.WriteString("&group_adults=")
	sb.WriteString(strconv.Itoa(c.Adults))
	sb.WriteString("&no_rooms=")
	sb.WriteString(strconv.Itoa(c.Rooms))
	sb.WriteString("&order=")
	sb.WriteString(string(c.SortKey))
	sb.WriteString("&group_children=")
	sb.WriteString(strconv.Itoa(c.Children))
	for _, age := range c.ChildrenAges {
		sb.WriteString("&age=")
		sb.WriteString(strconv.Itoa(age))
	}
	return sb.String()
}

// parsePrice extracts the integer dollar amount from a display price
// such as "US$1,234" or "$96".  Everything before the dollar sign is
// discarded, thousands separators are stripped.
func parsePrice(s string) (int, error) {
	_, after, found := strings.Cut(s, "$")
	if !found {
		return 0, fmt.Errorf("no dollar amount in %q", s)
	}
	after = strings.ReplaceAll(after, ",", "")
	after = strings.TrimSpace(after)
	// Keep the leading digit run only; some cards append "per night".
	end := 0
	for end < len(after) && after[end] >= '0' && after[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, fmt.Errorf("no dollar amount in %q", s)
	}
	return strconv.Atoi(after[:end])
}

// parseRating extracts the score from a review badge such as
// "Scored 8.4 8.4". The second whitespace-separated token carries the
// numeric score.  Nil means the property has no reviews yet.
func parseRating(s string) *float64 {
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return nil
	}
	v, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return nil
	}
	return &v
}

// loadMoreScript dismisses overlays and presses the "Load more results"
// button once.  It evaluates to true when the button was found and
// clicked.
const loadMoreScript = `
	(function() {
		window.scrollTo(0, document.body.scrollHeight);

		var dismiss = document.querySelector("button[aria-label='Dismiss sign-in info.']");
		if (dismiss) dismiss.click();

		var cookies = document.getElementById('onetrust-reject-all-handler');
		if (cookies) cookies.click();

		var spans = document.querySelectorAll('button span');
		for (var i = 0; i < spans.length; i++) {
			if (spans[i].textContent === 'Load more results') {
				spans[i].closest('button').click();
				return true;
			}
		}
		return false;
	})()
`

// extractScript collects one entry per property card.  Price and rating
// stay as the raw display strings; cards without a price element are
// dropped here because they are sold-out placeholders.
const extractScript = `
	(function() {
		var results = [];
		var cards = document.querySelectorAll('div[data-testid="property-card"]');
		for (var i = 0; i < cards.length; i++) {
			var c = cards[i];
			var titleEl = c.querySelector('div[data-testid="title"]');
			var priceEl = c.querySelector('span[data-testid="price-and-discounted-price"]');
			var photoEl = c.querySelector('img');
			var linkEl  = c.querySelector('a');
			var scoreEl = c.querySelector('div[data-testid="review-score"]');
			if (!titleEl || !priceEl || !photoEl || !linkEl) continue;
			results.push({
				name:   titleEl.textContent,
				price:  priceEl.textContent,
				rating: scoreEl ? scoreEl.textContent : '',
				photo:  photoEl.src,
				link:   linkEl.href
			});
		}
		return results;
	})()
`

// findChromeBinary probes the usual install names for a Chrome or
// Chromium binary.  An empty return lets chromedp do its own lookup.
func findChromeBinary() string {
	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}
