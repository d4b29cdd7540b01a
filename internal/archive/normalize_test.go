// Trailkeeper - Cloud Audit Trail Archival Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailkeeper

package archive

import (
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		eventName string
		want      Category
	}{
		{"GetObject", CategoryRead},
		{"HeadObject", CategoryRead},
		{"ListObjectsV2", CategoryRead},
		{"PutObject", CategoryWrite},
		{"CopyObject", CategoryWrite},
		{"RestoreObject", CategoryWrite},
		{"CompleteMultipartUpload", CategoryWrite},
		{"DeleteObject", CategoryDelete},
		{"DeleteObjects", CategoryDelete},
		{"AbortMultipartUpload", CategoryDelete},
		{"PutBucketIntelligentTieringConfiguration", CategoryOther},
		{"", CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.eventName, func(t *testing.T) {
			if got := Classify(tt.eventName); got != tt.want {
				t.Errorf("Classify(%q) = %s, want %s", tt.eventName, got, tt.want)
			}
		})
	}
}

func TestNormalizer_Normalize(t *testing.T) {
	n := NewNormalizer()

	t.Run("full record", func(t *testing.T) {
		rec := RawRecord{
			EventName:       "PutObject",
			EventSource:     DefaultEventSource,
			EventTime:       "2024-02-13T10:30:00Z",
			AWSRegion:       "eu-west-1",
			SourceIPAddress: "198.51.100.7",
			UserAgent:       "aws-cli/2.15",
			RequestID:       "req-001",
			UserIdentity: UserIdentity{
				Type:     "IAMUser",
				UserName: "alice",
			},
			RequestParameters: RequestParams{BucketName: "orders", Key: "2024/a.json"},
			Resources: []ResourceRef{
				{ARN: "arn:aws:s3:::orders/2024/a.json"},
				{ARN: "arn:aws:s3:::orders"},
			},
		}

		ev := n.Normalize(&rec)
		if ev.RequestID != "req-001" {
			t.Errorf("RequestID = %q", ev.RequestID)
		}
		if ev.Operation != CategoryWrite {
			t.Errorf("Operation = %s, want WRITE", ev.Operation)
		}
		if ev.EventName != "PutObject" {
			t.Errorf("EventName = %q", ev.EventName)
		}
		if ev.Who.Name != "alice" || ev.Who.Type != "IAMUser" {
			t.Errorf("Who = %+v", ev.Who)
		}
		if ev.What.ResourceName != "orders" || ev.What.ObjectKey != "2024/a.json" {
			t.Errorf("What = %+v", ev.What)
		}
		if len(ev.What.ReferencedARNs) != 2 || ev.What.ReferencedARNs[0] != "arn:aws:s3:::orders" {
			t.Errorf("ReferencedARNs = %v, want sorted pair", ev.What.ReferencedARNs)
		}
		if ev.How.SourceIP != "198.51.100.7" || ev.How.Region != "eu-west-1" {
			t.Errorf("How = %+v", ev.How)
		}
		if ev.IsError() {
			t.Error("success record must not be an error event")
		}
		want := time.Date(2024, 2, 13, 10, 30, 0, 0, time.UTC)
		if !ev.Timestamp.Equal(want) {
			t.Errorf("Timestamp = %v, want %v", ev.Timestamp, want)
		}
	})

	t.Run("unmapped event name keeps raw name", func(t *testing.T) {
		rec := RawRecord{
			EventName: "GetBucketIntelligentTieringConfiguration",
			RequestID: "req-002",
			EventTime: "2024-02-13T10:30:00Z",
		}
		ev := n.Normalize(&rec)
		if ev.Operation != CategoryOther {
			t.Errorf("Operation = %s, want OTHER", ev.Operation)
		}
		if ev.EventName != "GetBucketIntelligentTieringConfiguration" {
			t.Errorf("EventName = %q, raw name must be preserved", ev.EventName)
		}
	})

	t.Run("error record", func(t *testing.T) {
		rec := RawRecord{
			EventName:    "GetObject",
			RequestID:    "req-003",
			EventTime:    "2024-02-13T10:30:00Z",
			ErrorCode:    "AccessDenied",
			ErrorMessage: "Access Denied",
		}
		ev := n.Normalize(&rec)
		if !ev.IsError() {
			t.Error("record with error code must be an error event")
		}
		if ev.Response.ErrorCode != "AccessDenied" {
			t.Errorf("ErrorCode = %q", ev.Response.ErrorCode)
		}
	})
}

func TestNormalizer_ActorNameFallback(t *testing.T) {
	n := NewNormalizer()

	tests := []struct {
		name     string
		identity UserIdentity
		want     string
	}{
		{"user name wins", UserIdentity{UserName: "alice", PrincipalID: "AIDAX", ARN: "arn:aws:iam::1:user/alice"}, "alice"},
		{"principal id second", UserIdentity{PrincipalID: "AIDAX", ARN: "arn:aws:iam::1:user/alice"}, "AIDAX"},
		{"arn third", UserIdentity{ARN: "arn:aws:iam::1:user/alice"}, "arn:aws:iam::1:user/alice"},
		{"unknown last", UserIdentity{}, UnknownActor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := RawRecord{EventName: "GetObject", RequestID: "r", UserIdentity: tt.identity}
			if got := n.Normalize(&rec).Who.Name; got != tt.want {
				t.Errorf("actor name = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizer_MissingTimestampFallsBackToClock(t *testing.T) {
	fixed := time.Date(2025, 6, 4, 12, 0, 0, 0, time.UTC)
	n := NewNormalizerWithClock(func() time.Time { return fixed })

	tests := []struct {
		name      string
		eventTime string
	}{
		{"absent", ""},
		{"unparsable", "13/02/2024 10:30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := RawRecord{EventName: "GetObject", RequestID: "r", EventTime: tt.eventTime}
			ev := n.Normalize(&rec)
			if !ev.Timestamp.Equal(fixed) {
				t.Errorf("Timestamp = %v, want clock instant %v", ev.Timestamp, fixed)
			}
		})
	}
}
