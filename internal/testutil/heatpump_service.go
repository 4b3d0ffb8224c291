package testutil

import "github.com/Agrid-Dev/copcalc/internal/heatpump"

// FakeHeatPumpService is a reusable fake implementing ports.HeatPumpService.
// Put ONLY what multiple test packages need here.
type FakeHeatPumpService struct {
	S heatpump.Snapshot

	SetParameterCalled bool
	SetParameterArg    heatpump.Parameter
	SetParameterValue  float64
	SetParameterErr    error

	SetFeatureCalled bool
	SetFeatureArg    heatpump.Feature
	SetFeatureValue  bool
	SetFeatureErr    error
}

func NewFakeHeatPumpService() *FakeHeatPumpService {
	in := heatpump.DefaultInput()
	return &FakeHeatPumpService{
		S: heatpump.Snapshot{Input: in, Result: heatpump.Compute(in)},
	}
}

func (f *FakeHeatPumpService) Get() heatpump.Snapshot { return f.S }

func (f *FakeHeatPumpService) SetParameter(p heatpump.Parameter, v float64) error {
	f.SetParameterCalled = true
	f.SetParameterArg = p
	f.SetParameterValue = v
	if f.SetParameterErr != nil {
		return f.SetParameterErr
	}
	in, err := f.S.Input.WithValue(p, v)
	if err != nil {
		return err
	}
	f.S = heatpump.Snapshot{Input: in, Result: heatpump.Compute(in)}
	return nil
}

func (f *FakeHeatPumpService) SetFeature(ft heatpump.Feature, on bool) error {
	f.SetFeatureCalled = true
	f.SetFeatureArg = ft
	f.SetFeatureValue = on
	if f.SetFeatureErr != nil {
		return f.SetFeatureErr
	}
	in, err := f.S.Input.WithFeature(ft, on)
	if err != nil {
		return err
	}
	f.S = heatpump.Snapshot{Input: in, Result: heatpump.Compute(in)}
	return nil
}
