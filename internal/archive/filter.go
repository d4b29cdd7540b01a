// Trailkeeper - Cloud Audit Trail Archival Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailkeeper

package archive

// DefaultEventSource is the audit event source for the monitored storage
// service. Records from any other source are rejected before field
// inspection.
const DefaultEventSource = "s3.amazonaws.com"

// Filter decides whether a raw audit record pertains to the monitored
// storage resource. It has no side effects and no mutable state.
type Filter struct {
	resource    string
	eventSource string
}

// NewFilter creates a filter for the given monitored resource name.
func NewFilter(resource string) *Filter {
	return &Filter{
		resource:    resource,
		eventSource: DefaultEventSource,
	}
}

// NewFilterForSource creates a filter that accepts records from a specific
// audit event source instead of the default storage service.
func NewFilterForSource(resource, eventSource string) *Filter {
	return &Filter{
		resource:    resource,
		eventSource: eventSource,
	}
}

// Resource returns the monitored resource name.
func (f *Filter) Resource() string {
	return f.resource
}

// Relevant reports whether the record pertains to the monitored resource.
//
// A record is relevant when any of the following holds:
//   - its request parameters name the resource exactly
//   - a referenced resource identifier denotes the resource itself or an
//     object within it (the identifier equals the resource name or starts
//     with it followed by "/")
//   - its response elements name the resource exactly
//
// Records from a different audit source are rejected outright.
func (f *Filter) Relevant(rec *RawRecord) bool {
	if rec == nil || f.resource == "" {
		return false
	}
	if rec.EventSource != f.eventSource {
		return false
	}

	if rec.RequestParameters.BucketName == f.resource {
		return true
	}

	for _, res := range rec.Resources {
		path := resourcePath(res.ARN)
		if path == f.resource || hasPathPrefix(path, f.resource) {
			return true
		}
	}

	for _, v := range rec.ResponseElements {
		if s, ok := v.(string); ok && s == f.resource {
			return true
		}
	}

	return false
}

// hasPathPrefix reports whether path names an object inside resource.
// Prefix matching is namespace-aware: "orders/2024/x" matches resource
// "orders" but "orders-archive" does not.
func hasPathPrefix(path, resource string) bool {
	return len(path) > len(resource) &&
		path[:len(resource)] == resource &&
		path[len(resource)] == '/'
}
