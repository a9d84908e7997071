package model

import (
	"strings"
	"testing"
	"time"
)

func validCriteria() SearchCriteria {
	checkIn := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	return SearchCriteria{
		Destination: "Lisbon",
		CheckIn:     checkIn,
		CheckOut:    checkIn.AddDate(0, 0, 4),
		Adults:      2,
		Children:    0,
		Rooms:       1,
		SortKey:     SortPopularity,
	}
}

func TestValidateAccepts(t *testing.T) {
	c := validCriteria()
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	// A stay of exactly the maximum length is still fine.
	c.CheckOut = c.CheckIn.AddDate(0, 0, MaxStayNights)
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate %d-night stay: %v", MaxStayNights, err)
	}

	c = validCriteria()
	c.Children = 2
	c.ChildrenAges = []int{0, MaxChildAge}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate with children: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*SearchCriteria)
		want   string
	}{
		{"empty destination", func(c *SearchCriteria) { c.Destination = "" }, "destination"},
		{"zero adults", func(c *SearchCriteria) { c.Adults = 0 }, "adults"},
		{"too many adults", func(c *SearchCriteria) { c.Adults = MaxAdults + 1 }, "adults"},
		{"negative children", func(c *SearchCriteria) { c.Children = -1 }, "children"},
		{"ages mismatch", func(c *SearchCriteria) { c.Children = 1 }, "ages"},
		{"age too high", func(c *SearchCriteria) {
			c.Children = 1
			c.ChildrenAges = []int{MaxChildAge + 1}
		}, "age"},
		{"zero rooms", func(c *SearchCriteria) { c.Rooms = 0 }, "rooms"},
		{"bad sort key", func(c *SearchCriteria) { c.SortKey = "cheapest" }, "sort key"},
		{"check-out before check-in", func(c *SearchCriteria) {
			c.CheckOut = c.CheckIn.AddDate(0, 0, -1)
		}, "check-out"},
		{"same-day stay", func(c *SearchCriteria) { c.CheckOut = c.CheckIn }, "check-out"},
		{"stay too long", func(c *SearchCriteria) {
			c.CheckOut = c.CheckIn.AddDate(0, 0, MaxStayNights+1)
		}, "nights"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := validCriteria()
			tc.mutate(&c)
			err := c.Validate()
			if err == nil {
				t.Fatalf("Validate accepted %+v", c)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestSortKeyValid(t *testing.T) {
	for k := range SortKeyDescriptions {
		if !k.Valid() {
			t.Errorf("%q should be valid", k)
		}
	}
	if SortKey("rating").Valid() {
		t.Errorf("unknown key accepted")
	}
	if len(SortKeyDescriptions) != 9 {
		t.Errorf("supported sort keys = %d, want 9", len(SortKeyDescriptions))
	}
}
