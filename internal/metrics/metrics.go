// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics counts conversions, extractor failures and quality
// service calls. A nil *Collector is valid and records nothing.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pif_dft"

// Conversion outcomes.
const (
	OutcomeComplete = "complete"
	OutcomePartial  = "partial"
	OutcomeFailed   = "failed"
)

// Collector holds the converter's counters on a private registry, so several
// collectors can coexist in one process.
type Collector struct {
	registry    *prometheus.Registry
	conversions *prometheus.CounterVec
	extractors  *prometheus.CounterVec
	quality     *prometheus.CounterVec
}

// New creates a Collector with its counters registered.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversions_total",
			Help:      "Conversions by code family and outcome.",
		}, []string{"family", "outcome"}),
		extractors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractor_failures_total",
			Help:      "Extractor runs that returned an error.",
		}, []string{"family", "extractor"}),
		quality: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quality_requests_total",
			Help:      "Quality service calls by result.",
		}, []string{"result"}),
	}
	c.registry.MustRegister(c.conversions, c.extractors, c.quality)
	return c
}

// Registry exposes the collector's registry for gathering.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Conversion counts one finished conversion. An unclassified input has an
// empty family, recorded as "unknown".
func (c *Collector) Conversion(family, outcome string) {
	if c == nil {
		return
	}
	if family == "" {
		family = "unknown"
	}
	c.conversions.WithLabelValues(family, outcome).Inc()
}

// ExtractorFailure counts one extractor error.
func (c *Collector) ExtractorFailure(family, extractor string) {
	if c == nil {
		return
	}
	c.extractors.WithLabelValues(family, extractor).Inc()
}

// QualityRequest counts one quality service call.
func (c *Collector) QualityRequest(err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.quality.WithLabelValues(result).Inc()
}

// WriteTextfile writes every counter to path in the Prometheus text format,
// for pickup by a node exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if c == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
