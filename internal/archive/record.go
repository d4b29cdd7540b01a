// Trailkeeper - Cloud Audit Trail Archival Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailkeeper

package archive

import (
	"strings"
	"time"
)

// RawRecord is one audit record as delivered by the cloud audit source.
// Field names mirror the wire format of the audit log so batches can be
// decoded directly from shipped log files. Records are externally produced
// and never mutated by the engine.
type RawRecord struct {
	EventID     string `json:"eventID,omitempty"`
	EventName   string `json:"eventName"`
	EventSource string `json:"eventSource,omitempty"`

	// EventTime is kept as the raw wire string so an unparsable value can
	// flow through to the week resolver's fallback policy instead of
	// failing the record at decode time.
	EventTime string `json:"eventTime,omitempty"`

	AWSRegion       string `json:"awsRegion,omitempty"`
	SourceIPAddress string `json:"sourceIPAddress,omitempty"`
	UserAgent       string `json:"userAgent,omitempty"`
	RequestID       string `json:"requestID,omitempty"`

	UserIdentity      UserIdentity   `json:"userIdentity,omitempty"`
	RequestParameters RequestParams  `json:"requestParameters,omitempty"`
	ResponseElements  map[string]any `json:"responseElements,omitempty"`
	Resources         []ResourceRef  `json:"resources,omitempty"`

	ErrorCode    string `json:"errorCode,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// UserIdentity describes who performed the recorded operation.
type UserIdentity struct {
	Type        string `json:"type,omitempty"`
	PrincipalID string `json:"principalId,omitempty"`
	ARN         string `json:"arn,omitempty"`
	AccountID   string `json:"accountId,omitempty"`
	UserName    string `json:"userName,omitempty"`
}

// RequestParams carries the request parameters relevant to storage
// operations. The audit source includes many more; only the fields the
// filter and normalizer inspect are modeled.
type RequestParams struct {
	BucketName string `json:"bucketName,omitempty"`
	Key        string `json:"key,omitempty"`
}

// ResourceRef is one entry of the record's referenced-resource list.
type ResourceRef struct {
	ARN       string `json:"ARN,omitempty"`
	AccountID string `json:"accountId,omitempty"`
	Type      string `json:"type,omitempty"`
}

// Time parses the record's event time. Returns the zero time when the
// field is absent or unparsable; callers apply the fallback policy.
func (r *RawRecord) Time() time.Time {
	if r.EventTime == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, r.EventTime)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// resourcePath strips a storage ARN prefix from a referenced resource
// identifier, leaving the bucket-relative path. Identifiers that are not
// ARNs are returned unchanged so bare "bucket/key" references still match.
func resourcePath(identifier string) string {
	if !strings.HasPrefix(identifier, "arn:") {
		return identifier
	}
	// arn:partition:service:region:account:resource - the resource part is
	// everything after the fifth colon.
	parts := strings.SplitN(identifier, ":", 6)
	if len(parts) < 6 {
		return identifier
	}
	return parts[5]
}
