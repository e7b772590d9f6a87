// Package otelmetrics reports clockcache metrics through OpenTelemetry.
//
//	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
//	collector, err := otelmetrics.New(provider.Meter("clockcache"), otelmetrics.WithLevel("l2"))
//	cache, err := clockcache.NewClock[int, Item](1024, be, clockcache.WithMetrics(collector))
package otelmetrics
