// Package metrics exports allocator activity as Prometheus series.
//
// MetricsAllocator decorates any alloc.Allocator and updates its series on
// every successful operation. It adds no synchronization of its own; like
// the allocators it wraps it belongs to one goroutine at a time, while the
// series themselves may be scraped concurrently.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/joshuapare/segheap/arena/alloc"
)

const (
	namespace = "segheap"
	subsystem = "alloc"
)

// Metrics groups the series a MetricsAllocator updates.
type Metrics struct {
	AllocateBytes   prometheus.Counter   // payload bytes handed out
	AllocateObjects prometheus.Counter   // blocks handed out
	FreeObjects     prometheus.Counter   // blocks released
	InuseBytes      prometheus.Gauge     // payload bytes currently live
	InuseObjects    prometheus.Gauge     // blocks currently live
	HeapBytes       prometheus.Gauge     // current heap size
	RequestSize     prometheus.Histogram // requested sizes, before rounding
	Failures        prometheus.Counter   // operations that returned an error
}

// NewMetrics creates the series for one allocator and registers them with
// reg. labels are attached to every series as constant labels.
func NewMetrics(reg prometheus.Registerer, labels prometheus.Labels) (*Metrics, error) {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem, Name: name, Help: help, ConstLabels: labels,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem, Name: name, Help: help, ConstLabels: labels,
		})
	}

	m := &Metrics{
		AllocateBytes:   counter("allocate_bytes_total", "Payload bytes handed out."),
		AllocateObjects: counter("allocate_objects_total", "Blocks handed out."),
		FreeObjects:     counter("free_objects_total", "Blocks released."),
		InuseBytes:      gauge("inuse_bytes", "Payload bytes currently allocated."),
		InuseObjects:    gauge("inuse_objects", "Blocks currently allocated."),
		HeapBytes:       gauge("heap_bytes", "Current heap size."),
		RequestSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   subsystem,
			Name:        "request_size_bytes",
			Help:        "Requested payload sizes.",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(16, 2, 16),
		}),
		Failures: counter("failures_total", "Operations that returned an error."),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{
			m.AllocateBytes, m.AllocateObjects, m.FreeObjects,
			m.InuseBytes, m.InuseObjects, m.HeapBytes,
			m.RequestSize, m.Failures,
		} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// MetricsAllocator is an alloc.Allocator that records every operation of
// its upstream allocator in a Metrics.
type MetricsAllocator struct {
	upstream alloc.Allocator
	m        *Metrics
}

var _ alloc.Allocator = (*MetricsAllocator)(nil)

// NewMetricsAllocator wraps upstream. The heap gauge starts at the upstream's
// current size.
func NewMetricsAllocator(upstream alloc.Allocator, m *Metrics) *MetricsAllocator {
	m.HeapBytes.Set(float64(upstream.HeapSize()))
	return &MetricsAllocator{upstream: upstream, m: m}
}

// Upstream returns the wrapped allocator.
func (ma *MetricsAllocator) Upstream() alloc.Allocator { return ma.upstream }

func (ma *MetricsAllocator) Alloc(size uint32) (alloc.Ptr, error) {
	ma.m.RequestSize.Observe(float64(size))
	p, err := ma.upstream.Alloc(size)
	if err != nil {
		ma.m.Failures.Inc()
		return p, err
	}
	ma.gained(p)
	return p, nil
}

func (ma *MetricsAllocator) Free(p alloc.Ptr) error {
	n := len(ma.upstream.Payload(p))
	if err := ma.upstream.Free(p); err != nil {
		ma.m.Failures.Inc()
		return err
	}
	if p != alloc.Nil {
		ma.lost(n)
	}
	return nil
}

func (ma *MetricsAllocator) Realloc(p alloc.Ptr, size uint32) (alloc.Ptr, error) {
	if size != 0 {
		ma.m.RequestSize.Observe(float64(size))
	}
	n := len(ma.upstream.Payload(p))
	np, err := ma.upstream.Realloc(p, size)
	if err != nil {
		ma.m.Failures.Inc()
		return np, err
	}
	if p != alloc.Nil {
		ma.lost(n)
	}
	if np != alloc.Nil {
		ma.gained(np)
	}
	return np, nil
}

func (ma *MetricsAllocator) AllocZeroed(count, size uint32) (alloc.Ptr, error) {
	p, err := ma.upstream.AllocZeroed(count, size)
	if err != nil {
		ma.m.Failures.Inc()
		return p, err
	}
	ma.m.RequestSize.Observe(float64(count) * float64(size))
	ma.gained(p)
	return p, nil
}

func (ma *MetricsAllocator) Payload(p alloc.Ptr) []byte { return ma.upstream.Payload(p) }

func (ma *MetricsAllocator) HeapSize() int { return ma.upstream.HeapSize() }

// Check runs the upstream allocator's checker, or returns alloc.ErrNoChecker
// if it has none.
func (ma *MetricsAllocator) Check(lineno int) error {
	chk, ok := ma.upstream.(alloc.Checker)
	if !ok {
		return alloc.ErrNoChecker
	}
	return chk.Check(lineno)
}

func (ma *MetricsAllocator) gained(p alloc.Ptr) {
	n := float64(len(ma.upstream.Payload(p)))
	ma.m.AllocateBytes.Add(n)
	ma.m.AllocateObjects.Inc()
	ma.m.InuseBytes.Add(n)
	ma.m.InuseObjects.Inc()
	ma.m.HeapBytes.Set(float64(ma.upstream.HeapSize()))
}

func (ma *MetricsAllocator) lost(n int) {
	ma.m.FreeObjects.Inc()
	ma.m.InuseBytes.Sub(float64(n))
	ma.m.InuseObjects.Dec()
}
