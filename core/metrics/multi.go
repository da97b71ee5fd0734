package metrics

import "errors"

// MultiSink fans records out to several sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordSliceResults forwards to all sinks and joins their errors.
func (m *MultiSink) RecordSliceResults(res []SliceResult) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordSliceResults(res); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordStep forwards step timings to sinks supporting them.
func (m *MultiSink) RecordStep(ev StepTiming) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(StepRecorder); ok {
			if err := rec.RecordStep(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// RecordRun forwards run outcomes to sinks supporting them.
func (m *MultiSink) RecordRun(ev RunOutcome) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(RunRecorder); ok {
			if err := rec.RecordRun(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
