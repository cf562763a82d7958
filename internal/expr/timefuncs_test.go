package expr

import "testing"

func TestRelativeSecondRoundTrip(t *testing.T) {
	base := "2024-01-01 00:00:00"
	target := "2024-01-01 00:05:00"
	v, err := relativeSecondEncode(base, target)
	if err != nil {
		t.Fatal(err)
	}
	if v != 300 {
		t.Fatalf("got %d want 300", v)
	}
	s, err := relativeSecondDecode(base, v)
	if err != nil {
		t.Fatal(err)
	}
	if s != target {
		t.Fatalf("got %q want %q", s, target)
	}
}

func TestRelativeDayAndSecondPacking(t *testing.T) {
	base := "2024-01-01 00:00:00"
	target := "2024-01-03 01:02:03"
	packed, err := relativeDayAndSecondEncode(base, target)
	if err != nil {
		t.Fatal(err)
	}
	s, err := relativeDayAndSecondDecode(base, packed)
	if err != nil {
		t.Fatal(err)
	}
	if s != target {
		t.Fatalf("got %q want %q", s, target)
	}
}

func TestRelativeDayNegative(t *testing.T) {
	base := "2024-01-10 00:00:00"
	target := "2024-01-05 00:00:00"
	days, err := relativeDayEncode(base, target)
	if err != nil {
		t.Fatal(err)
	}
	if days != -5 {
		t.Fatalf("got %d want -5", days)
	}
}
