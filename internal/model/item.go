package model

import "time"

// Item is a single ranked search result held by a panel.  Items are
// replaced wholesale on every refresh; Position is the item's 1-indexed
// rank within its panel and is unique per panel.  Rating is the only
// optional field: the provider omits scores for unreviewed properties.
type Item struct {
	Name     string   // items.name
	Price    int      // items.price (currency-less integer)
	Rating   *float64 // items.rating (nullable)
	Photo    string   // items.photo
	Link     string   // items.link
	Position int      // items.position
}

// ItemDetail is an item joined with the destination and dates of the
// panel that holds it.  It is what single-item navigation returns so
// the gateway can render the full card without a second lookup.
type ItemDetail struct {
	Item
	Destination string
	CheckIn     time.Time
	CheckOut    time.Time
}

// ListEntry is the compact projection used for 5-item page views.
type ListEntry struct {
	Name   string
	Price  int
	Rating *float64
}

// AggregateSort selects the ordering of the cross-panel report.
type AggregateSort string

const (
	// AggregateByRating orders by rating descending, price ascending.
	AggregateByRating AggregateSort = "rating"
	// AggregateByPrice orders by price ascending, rating descending.
	AggregateByPrice AggregateSort = "price"
)

// AggregateRow joins an item with its panel's criteria for the
// cross-panel report covering everything an owner holds.
type AggregateRow struct {
	Name        string
	Price       int
	Rating      *float64
	Destination string
	CheckIn     time.Time
	CheckOut    time.Time
	Photo       string
	Link        string
}
