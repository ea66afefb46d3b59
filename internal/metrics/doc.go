// Package metrics records build and stage metrics for mantree runs.
//
// Components receive a Recorder through injection and default to
// NoopRecorder, so call sites never check for nil. PrometheusRecorder backs
// the interface with a private registry that can be flushed to a node
// exporter textfile after each run:
//
//	rec := metrics.NewPrometheusRecorder(nil)
//	p := pipeline.New(cfg, pipeline.WithRecorder(rec))
//	...
//	_ = rec.WriteTextfile("/var/lib/node_exporter/mantree.prom")
package metrics
