// Package metrics provides Prometheus collectors for the media stores.
package metrics

import "time"

// Store label values.
const (
	StoreAssets   = "assets"
	StoreEntities = "entities"
)

// Save kind label values.
const (
	KindImage    = "image"
	KindPrompt   = "prompt"
	KindMetadata = "metadata"
)

// Probe result label values.
const (
	ResultHit  = "hit"
	ResultMiss = "miss"
)

// Discovery operation label values.
const (
	OpList    = "list"
	OpFind    = "find"
	OpSummary = "summary"
	OpInfo    = "info"
)

// Histogram bucket configuration constants.
const (
	// BucketStart100us is the starting bucket for 0.1ms histograms (0.1ms to ~400ms range).
	BucketStart100us = 0.0001
	// BucketStart1ms is the starting bucket for 1ms histograms (1ms to ~4s range).
	BucketStart1ms = 0.001

	// BucketFactor2 is the common exponential growth factor of 2 for histogram buckets.
	BucketFactor2 = 2

	// BucketCount12 defines 12 exponential buckets.
	BucketCount12 = 12
	// BucketCount15 defines 15 exponential buckets.
	BucketCount15 = 15
)

// ShutdownTimeout is the timeout for graceful shutdown of the metrics server.
const ShutdownTimeout = 5 * time.Second
