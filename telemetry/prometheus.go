// SPDX-FileCopyrightText: 2024-Present Datadog, Inc
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Exporter republishes Recorder snapshots as Prometheus collectors. It is
// entirely optional: nothing in the pipeline depends on it, and a caller
// that never builds one pays no cost beyond the Recorder's atomic counters.
type Exporter struct {
	duration *prometheus.GaugeVec
	bytes    *prometheus.GaugeVec
	frames   *prometheus.GaugeVec
}

// NewExporter registers the exporter's collectors against reg.
func NewExporter(reg prometheus.Registerer) *Exporter {
	factory := promauto.With(reg)
	return &Exporter{
		duration: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "rse1",
			Name:      "stage_duration_seconds",
			Help:      "Cumulative time spent in a pipeline stage.",
		}, []string{"stage"}),
		bytes: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "rse1",
			Name:      "stage_bytes_total",
			Help:      "Cumulative bytes processed by a pipeline stage.",
		}, []string{"stage"}),
		frames: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "rse1",
			Name:      "stage_frames_total",
			Help:      "Cumulative frames processed by a pipeline stage.",
		}, []string{"stage"}),
	}
}

// Publish overwrites every gauge with the values from snap.
func (e *Exporter) Publish(snap Snapshot) {
	for _, s := range snap.Stages {
		label := prometheus.Labels{"stage": s.Stage.String()}
		e.duration.With(label).Set(s.Duration.Seconds())
		e.bytes.With(label).Set(float64(s.Bytes))
		e.frames.With(label).Set(float64(s.Frames))
	}
}
