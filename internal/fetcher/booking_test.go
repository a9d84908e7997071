package fetcher

import (
	"testing"
	"time"

	"github.com/iliyamo/hotel-info-panels/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSearchURL(t *testing.T) {
	c := model.SearchCriteria{
		Destination: "New York",
		CheckIn:     date(2026, 9, 10),
		CheckOut:    date(2026, 9, 14),
		Adults:      2,
		Children:    0,
		Rooms:       1,
		SortKey:     model.SortPopularity,
	}
	got := SearchURL(c)
	want := "https://www.booking.com/searchresults.html" +
		"?ss=New+York&lang=en-us&selected_currency=USD" +
		"&checkin=2026-09-10&checkout=2026-09-14" +
		"&group_adults=2&no_rooms=1&order=popularity&group_children=0"
	if got != want {
		t.Fatalf("SearchURL =\n%s\nwant\n%s", got, want)
	}
}

func TestSearchURLChildrenAges(t *testing.T) {
	c := model.SearchCriteria{
		Destination:  "Oslo",
		CheckIn:      date(2026, 9, 10),
		CheckOut:     date(2026, 9, 12),
		Adults:       2,
		Children:     2,
		ChildrenAges: []int{4, 11},
		Rooms:        2,
		SortKey:      model.SortPrice,
	}
	got := SearchURL(c)
	want := "https://www.booking.com/searchresults.html" +
		"?ss=Oslo&lang=en-us&selected_currency=USD" +
		"&checkin=2026-09-10&checkout=2026-09-12" +
		"&group_adults=2&no_rooms=2&order=price&group_children=2" +
		"&age=4&age=11"
	if got != want {
		t.Fatalf("SearchURL =\n%s\nwant\n%s", got, want)
	}
}

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"US$1,234", 1234, false},
		{"$96", 96, false},
		{"US$2,450 per night", 2450, false},
		{"€100", 0, true},
		{"no price", 0, true},
		{"$", 0, true},
	}
	for _, c := range cases {
		got, err := parsePrice(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("parsePrice(%q) = %d, want error", c.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("parsePrice(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("parsePrice(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestParseRating(t *testing.T) {
	if got := parseRating("Scored 8.4 8.4"); got == nil || *got != 8.4 {
		t.Fatalf("parseRating = %v, want 8.4", got)
	}
	if got := parseRating(""); got != nil {
		t.Fatalf("parseRating(empty) = %v, want nil", got)
	}
	if got := parseRating("Scored"); got != nil {
		t.Fatalf("parseRating(one token) = %v, want nil", got)
	}
	if got := parseRating("Scored excellent"); got != nil {
		t.Fatalf("parseRating(non numeric) = %v, want nil", got)
	}
}
