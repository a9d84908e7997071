package policy

import (
	"context"
	"errors"
	"testing"
)

type fixedCounter struct {
	count int
	err   error
}

func (f fixedCounter) Count(ctx context.Context, ownerID uint64) (int, error) {
	return f.count, f.err
}

func TestCanCreate(t *testing.T) {
	tests := []struct {
		name       string
		existing   int
		additional int
		want       bool
	}{
		{"empty owner single panel", 0, 1, true},
		{"full batch up to the limit", 0, 6, true},
		{"five existing plus one", 5, 1, true},
		{"five existing plus two rejected whole", 5, 2, false},
		{"at limit rejects any batch", 6, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cap := NewCapacity(6, fixedCounter{count: tt.existing})
			ok, err := cap.CanCreate(context.Background(), 42, tt.additional)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok != tt.want {
				t.Errorf("CanCreate(existing=%d, additional=%d) = %v, want %v",
					tt.existing, tt.additional, ok, tt.want)
			}
		})
	}
}

func TestCanCreatePropagatesCountError(t *testing.T) {
	boom := errors.New("db gone")
	cap := NewCapacity(6, fixedCounter{err: boom})
	if _, err := cap.CanCreate(context.Background(), 42, 1); !errors.Is(err, boom) {
		t.Errorf("expected count error to propagate, got %v", err)
	}
}

func TestNewCapacityDefaultsLimit(t *testing.T) {
	cap := NewCapacity(0, fixedCounter{})
	if cap.Limit != DefaultPanelLimit {
		t.Errorf("Limit = %d, want %d", cap.Limit, DefaultPanelLimit)
	}
}
