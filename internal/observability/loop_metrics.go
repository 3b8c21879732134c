package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LoopCollector exposes metrics for the wall-clock frame loop that feeds a
// session: how long each step took and how many units it converted.
type LoopCollector struct {
	gatherer prometheus.Gatherer

	FrameDuration    prometheus.Histogram
	UnitsPerFrame    prometheus.Histogram
	FastMotionFrames prometheus.Counter
}

// NewLoopCollector registers frame loop metrics against the provided registerer.
func NewLoopCollector(reg prometheus.Registerer) (*LoopCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	duration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sim_frame_duration_seconds",
		Help:    "Wall time spent inside one session step.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
	}), "sim_frame_duration_seconds")
	if err != nil {
		return nil, err
	}

	units, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sim_frame_units",
		Help:    "Simulation units converted from wall time per frame.",
		Buckets: []float64{0, 1, 2, 3, 6, 12, 24, 60, 250},
	}), "sim_frame_units")
	if err != nil {
		return nil, err
	}

	fast, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_fast_motion_frames_total",
		Help: "Frames that ran a fixed fast-motion burst instead of wall time.",
	}), "sim_fast_motion_frames_total")
	if err != nil {
		return nil, err
	}

	return &LoopCollector{
		gatherer:         gatherer,
		FrameDuration:    duration,
		UnitsPerFrame:    units,
		FastMotionFrames: fast,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *LoopCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// ObserveFrame records one step's wall duration and unit count.
func (c *LoopCollector) ObserveFrame(d time.Duration, units int64) {
	if c == nil {
		return
	}
	if c.FrameDuration != nil {
		c.FrameDuration.Observe(d.Seconds())
	}
	if c.UnitsPerFrame != nil && units >= 0 {
		c.UnitsPerFrame.Observe(float64(units))
	}
}

// IncFastMotion counts a fast-motion frame.
func (c *LoopCollector) IncFastMotion() {
	if c == nil || c.FastMotionFrames == nil {
		return
	}
	c.FastMotionFrames.Inc()
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}
