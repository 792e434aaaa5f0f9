package result

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

// sampleOutcomes returns a small but varied set of outcomes used by the law tests.
func sampleOutcomes() []Outcome {
	return []Outcome{
		Empty(),
		Success(map[string]int{"uptime": 120}),
		Success("cpu"),
		Failure(NotFound("efi", nil)),
		Failure(Malformed("cpuinfo", nil)),
		Failure(IO("df", errors.New("statfs failed")), NotFound("smartctl", nil)),
		Failure(Encoding("sensors", nil)),
	}
}

func TestCombine_Associative(t *testing.T) {
	samples := sampleOutcomes()
	for i, a := range samples {
		for j, b := range samples {
			for k, c := range samples {
				left := Combine(Combine(a, b), c)
				right := Combine(a, Combine(b, c))
				if !reflect.DeepEqual(left, right) {
					t.Errorf("(%d+%d)+%d = %+v, %d+(%d+%d) = %+v", i, j, k, left, i, j, k, right)
				}
			}
		}
	}
}

func TestCombine_Identity(t *testing.T) {
	for i, x := range sampleOutcomes() {
		if got := Combine(Empty(), x); !reflect.DeepEqual(got, x) {
			t.Errorf("sample %d: Empty+x = %+v, want %+v", i, got, x)
		}
		if got := Combine(x, Empty()); !reflect.DeepEqual(got, x) {
			t.Errorf("sample %d: x+Empty = %+v, want %+v", i, got, x)
		}
	}
}

func TestCombine_FailureDominates(t *testing.T) {
	for i, a := range sampleOutcomes() {
		for j, b := range sampleOutcomes() {
			got := Combine(a, b)
			if (!a.Ok() || !b.Ok()) && got.Ok() {
				t.Errorf("%d+%d: expected failure, got success", i, j)
			}
			if a.Ok() && b.Ok() && !got.Ok() {
				t.Errorf("%d+%d: expected success, got failure", i, j)
			}
			want := a.Errors().Len() + b.Errors().Len()
			if got.Errors().Len() != want {
				t.Errorf("%d+%d: expected %d errors, got %d", i, j, want, got.Errors().Len())
			}
		}
	}
}

func TestCombine_PreservesErrorOrder(t *testing.T) {
	a := Failure(Malformed("cpuinfo", nil))
	b := Failure(NotFound("smartctl", nil), IO("df", nil))

	got := Combine(a, b).Errors().Keys()
	want := []string{"cpuinfo", "smartctl", "df"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected keys %v, got %v", want, got)
	}

	got = Combine(b, a).Errors().Keys()
	want = []string{"smartctl", "df", "cpuinfo"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected keys %v, got %v", want, got)
	}
}

func TestCombine_SuccessKeepsFirstPayload(t *testing.T) {
	got := Combine(Success("left"), Success("right"))
	if got.Payload() != "left" {
		t.Errorf("expected left payload, got %v", got.Payload())
	}
	got = Combine(Empty(), Success("right"))
	if got.Payload() != "right" {
		t.Errorf("expected right payload, got %v", got.Payload())
	}
}

func TestFold(t *testing.T) {
	if got := Fold(); !got.Ok() || got.Payload() != nil {
		t.Errorf("empty fold should be Empty, got %+v", got)
	}

	single := Failure(NotFound("efi", nil))
	if got := Fold(single); !reflect.DeepEqual(got, single) {
		t.Errorf("fold of one outcome should be that outcome, got %+v", got)
	}

	got := Fold(
		Success(1),
		Failure(Malformed("cpuinfo", nil)),
		Success(2),
		Failure(NotFound("smartctl", nil)),
	)
	if got.Ok() {
		t.Fatal("expected failure")
	}
	if keys := got.Errors().Keys(); !reflect.DeepEqual(keys, []string{"cpuinfo", "smartctl"}) {
		t.Errorf("unexpected keys %v", keys)
	}
}

func TestFailure_NeverEmpty(t *testing.T) {
	o := Failure(nil)
	if o.Ok() {
		t.Fatal("Failure(nil) must not be a success")
	}
	if o.Errors().Len() != 1 {
		t.Errorf("expected 1 placeholder error, got %d", o.Errors().Len())
	}
	if keys := o.Errors().Keys(); len(keys) != 1 || keys[0] != UnknownKey {
		t.Errorf("placeholder error must be attributed to %q, got %v", UnknownKey, keys)
	}

	o = Failure(nil, NotFound("efi", nil), nil)
	if o.Errors().Len() != 1 || o.Errors().Keys()[0] != "efi" {
		t.Errorf("expected only the efi error, got %v", o.Errors().Keys())
	}
}

func TestOf(t *testing.T) {
	o := Of("uptime", 120, nil)
	if !o.Ok() || o.Payload() != 120 {
		t.Errorf("expected success with 120, got %+v", o)
	}

	o = Of("meminfo", 0, fmt.Errorf("parse: %w", ErrMalformed))
	if o.Ok() {
		t.Fatal("expected failure")
	}
	if k := o.Errors().Errors()[0].Kind; k != KindMalformed {
		t.Errorf("expected malformed, got %v", k)
	}
}

func TestOutcome_PayloadOfFailureIsNil(t *testing.T) {
	if p := Failure(IO("x", nil)).Payload(); p != nil {
		t.Errorf("expected nil payload, got %v", p)
	}
}

func TestOutcome_With(t *testing.T) {
	o := Fold(Success(1), Success(2)).With("report")
	if o.Payload() != "report" {
		t.Errorf("expected report payload, got %v", o.Payload())
	}

	failed := Failure(NotFound("efi", nil))
	if got := failed.With("report"); !reflect.DeepEqual(got, failed) {
		t.Errorf("With must not touch failures, got %+v", got)
	}
}
