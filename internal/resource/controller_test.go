package resource

import (
	"context"
	"testing"
	"time"
)

func TestControllerUnlimited(t *testing.T) {
	var c *Controller // nil controller
	release, err := c.AcquireFetch(context.Background())
	if err != nil {
		t.Fatalf("AcquireFetch on nil controller: %v", err)
	}
	release()

	if err := c.PaceFetch(context.Background(), 1<<20); err != nil {
		t.Fatalf("PaceFetch on nil controller: %v", err)
	}
}

func TestControllerLimitsInFlightFetches(t *testing.T) {
	c := New(Config{MaxInFlightFetches: 1})

	release, err := c.AcquireFetch(context.Background())
	if err != nil {
		t.Fatalf("first AcquireFetch: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := c.AcquireFetch(ctx); err == nil {
		t.Fatalf("expected second AcquireFetch to block until timeout")
	}

	release()

	release2, err := c.AcquireFetch(context.Background())
	if err != nil {
		t.Fatalf("AcquireFetch after release: %v", err)
	}
	release2()
}

func TestControllerPacesBytes(t *testing.T) {
	c := New(Config{FetchBytesPerSec: 1024})

	start := time.Now()
	if err := c.PaceFetch(context.Background(), 1024); err != nil {
		t.Fatalf("PaceFetch: %v", err)
	}
	if err := c.PaceFetch(context.Background(), 1024); err != nil {
		t.Fatalf("PaceFetch: %v", err)
	}
	if elapsed := time.Since(start); elapsed <= 0 {
		t.Fatalf("expected pacing to take non-zero time, took %v", elapsed)
	}
}
