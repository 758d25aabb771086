package slugger

import (
	"context"
	"errors"
	"testing"
)

type fakeChecker struct {
	existing map[string]bool
	err      error
	probes   int
}

func (f *fakeChecker) SlugExists(_ context.Context, slug string) (bool, error) {
	f.probes++
	if f.err != nil {
		return false, f.err
	}
	return f.existing[slug], nil
}

func TestMakeDeterministic(t *testing.T) {
	a := Make("Austin Mens Health", "Austin", "TX")
	b := Make("Austin Mens Health", "Austin", "TX")
	if a != b {
		t.Fatalf("same inputs produced %q and %q", a, b)
	}
	if a != "austin-mens-health-austin-tx" {
		t.Errorf("unexpected slug %q", a)
	}
}

func TestMakeEmptyComponents(t *testing.T) {
	for _, tc := range [][3]string{
		{"", "Austin", "TX"},
		{"Clinic", "", "TX"},
		{"Clinic", "Austin", ""},
	} {
		if got := Make(tc[0], tc[1], tc[2]); got != "" {
			t.Errorf("Make(%q, %q, %q) = %q, want empty", tc[0], tc[1], tc[2], got)
		}
	}
}

func TestEnsureSuffixesOnStoreCollision(t *testing.T) {
	u := NewUniquer(&fakeChecker{existing: map[string]bool{
		"clinic-austin-tx":   true,
		"clinic-austin-tx-1": true,
	}})

	got, err := u.Ensure(context.Background(), "clinic-austin-tx")
	if err != nil {
		t.Fatal(err)
	}
	if got != "clinic-austin-tx-2" {
		t.Errorf("got %q, want clinic-austin-tx-2", got)
	}
}

func TestEnsureReservesWithinRun(t *testing.T) {
	u := NewUniquer(&fakeChecker{})
	ctx := context.Background()

	first, err := u.Ensure(ctx, "clinic-austin-tx")
	if err != nil {
		t.Fatal(err)
	}
	second, err := u.Ensure(ctx, "clinic-austin-tx")
	if err != nil {
		t.Fatal(err)
	}

	if first != "clinic-austin-tx" {
		t.Errorf("first = %q", first)
	}
	if second != "clinic-austin-tx-1" {
		t.Errorf("second = %q, want in-run collision suffix", second)
	}
}

func TestReleaseFreesReservation(t *testing.T) {
	u := NewUniquer(&fakeChecker{})
	ctx := context.Background()

	slug, err := u.Ensure(ctx, "clinic-austin-tx")
	if err != nil {
		t.Fatal(err)
	}
	u.Release(slug)

	again, err := u.Ensure(ctx, "clinic-austin-tx")
	if err != nil {
		t.Fatal(err)
	}
	if again != "clinic-austin-tx" {
		t.Errorf("released slug not reusable, got %q", again)
	}
}

func TestEnsurePropagatesStoreError(t *testing.T) {
	u := NewUniquer(&fakeChecker{err: errors.New("dynamo down")})
	if _, err := u.Ensure(context.Background(), "clinic-austin-tx"); err == nil {
		t.Fatal("expected store error to propagate")
	}
}
