package queryfilter_test

import (
	"context"
	"errors"
	"testing"
	"time"

	queryfilter "github.com/reoring/queryfilter"
)

func TestCompletion_ResolvesOnce(t *testing.T) {
	c := queryfilter.NewCompletion()
	if c.Err() != nil {
		t.Fatalf("pending completion must report nil")
	}
	select {
	case <-c.Done():
		t.Fatalf("pending completion must not be done")
	default:
	}

	first := errors.New("first")
	c.Resolve(first)
	c.Resolve(errors.New("second"))

	<-c.Done()
	if c.Err() != first {
		t.Fatalf("first resolution wins, got %v", c.Err())
	}
}

func TestCompletion_WaitHonorsContext(t *testing.T) {
	c := queryfilter.NewCompletion()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := c.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline, got %v", err)
	}

	c.Resolve(nil)
	if err := c.Wait(context.Background()); err != nil {
		t.Fatalf("resolved wait: %v", err)
	}
}

func TestCompletion_WaitAfterResolveReturnsOutcome(t *testing.T) {
	c := queryfilter.NewCompletion()
	want := errors.New("nav failed")
	go c.Resolve(want)
	if err := c.Wait(context.Background()); err != want {
		t.Fatalf("expected nav error, got %v", err)
	}
}
