package heatpump

import (
	"errors"
	"math"
	"sync"
	"testing"
)

func assertError(t *testing.T, err error, expected error) {
	t.Helper()
	if !errors.Is(err, expected) {
		t.Fatalf("expected %v, got %v", expected, err)
	}
}

func newTestUnit(t *testing.T, opts ...func(*Input)) *Unit {
	t.Helper()
	u, err := New(newTestInput(opts...))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return u
}

func TestNewComputesInitialResult(t *testing.T) {
	u := newTestUnit(t)
	s := u.Get()
	if s.Result != Compute(DefaultInput()) {
		t.Fatalf("initial result mismatch: got %+v", s.Result)
	}
}

func TestNewValidation(t *testing.T) {
	cases := []struct {
		name string
		opt  func(*Input)
		want error
	}{
		{"humidity above 100", func(in *Input) { in.Humidity = 120 }, ErrOutOfRange},
		{"negative efficiency", func(in *Input) { in.SystemEfficiency = -1 }, ErrOutOfRange},
		{"negative source delta", func(in *Input) { in.DeltaTSource = -0.5 }, ErrOutOfRange},
		{"zero capacity", func(in *Input) { in.MaxCapacity = 0 }, ErrOutOfRange},
		{"zero heat load", func(in *Input) { in.HeatLoad = 0 }, ErrOutOfRange},
		{"NaN outdoor", func(in *Input) { in.OutdoorTemperature = math.NaN() }, ErrNotFinite},
		{"infinite water", func(in *Input) { in.WaterTemperature = math.Inf(1) }, ErrNotFinite},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(newTestInput(tc.opt))
			assertError(t, err, tc.want)
		})
	}
}

func TestSetParameterRecomputes(t *testing.T) {
	u := newTestUnit(t)
	if err := u.SetParameter(ParamOutdoorTemperature, -5); err != nil {
		t.Fatalf("SetParameter: %v", err)
	}
	s := u.Get()
	if s.Input.OutdoorTemperature != -5 {
		t.Fatalf("outdoor: got %v, want -5", s.Input.OutdoorTemperature)
	}
	if s.Result != Compute(s.Input) {
		t.Fatalf("result not recomputed: %+v", s.Result)
	}
}

func TestSetParameterRejectsOutOfRange(t *testing.T) {
	u := newTestUnit(t)
	before := u.Get()

	assertError(t, u.SetParameter(ParamHumidity, 101), ErrOutOfRange)
	assertError(t, u.SetParameter(ParamMaxCapacity, -14), ErrOutOfRange)
	assertError(t, u.SetParameter(Parameter(999), 1), ErrInvalidParameter)

	if u.Get() != before {
		t.Fatal("rejected updates must leave the snapshot untouched")
	}
}

func TestSetFeature(t *testing.T) {
	u := newTestUnit(t)
	if err := u.SetFeature(FeatureParasitics, false); err != nil {
		t.Fatalf("SetFeature: %v", err)
	}
	s := u.Get()
	if s.Input.IncludeParasitics {
		t.Fatal("expected parasitics disabled")
	}
	if s.Result.COP != s.Result.RawCOP {
		t.Fatalf("expected cop == raw cop without parasitics, got %v vs %v", s.Result.COP, s.Result.RawCOP)
	}

	assertError(t, u.SetFeature(FeatureUnknown, true), ErrInvalidFeature)
}

func TestUnitConcurrentAccess(t *testing.T) {
	u := newTestUnit(t)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = u.SetParameter(ParamOutdoorTemperature, float64(i))
		}()
		go func() {
			defer wg.Done()
			s := u.Get()
			if s.Result != Compute(s.Input) {
				t.Errorf("snapshot result out of step with its input")
			}
		}()
	}
	wg.Wait()
}
