// Package types provides shared data structures for the telemetry core.
//
// This package defines the closed attribute variant used by spans, log
// entries, and SLA measurements, ensuring deterministic JSON serialization
// of free-form tag/metadata maps.
//
// Core Types:
//   - Value: Closed variant (string, int, float, bool, nested map)
//   - Attributes: Open map of string keys to Values
//   - Kind: Discriminator for the concrete payload of a Value
//
// Example Usage:
//
//	tags := types.Attributes{
//	    "http.method": types.String("GET"),
//	    "rows":        types.Int(5),
//	}
//	tags.Merge(types.FromMap(requestMetadata))
package types
