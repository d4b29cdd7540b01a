// Trailkeeper - Cloud Audit Trail Archival Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailkeeper

package archive

// Category is the semantic operation category of a canonical event.
type Category string

const (
	CategoryRead   Category = "READ"
	CategoryWrite  Category = "WRITE"
	CategoryDelete Category = "DELETE"

	// CategoryOther covers event names absent from the classification
	// table. The raw event name is preserved on the event so no
	// information is lost.
	CategoryOther Category = "OTHER"
)

// operationCategories is the fixed event-name classification table.
// Names are matched exactly; wildcard matching would silently absorb new
// event names into the wrong category.
var operationCategories = map[string]Category{
	// Retrieval operations
	"GetObject":            CategoryRead,
	"GetObjectAcl":         CategoryRead,
	"GetObjectTagging":     CategoryRead,
	"GetObjectAttributes":  CategoryRead,
	"GetObjectTorrent":     CategoryRead,
	"HeadObject":           CategoryRead,
	"HeadBucket":           CategoryRead,
	"ListObjects":          CategoryRead,
	"ListObjectsV2":        CategoryRead,
	"ListObjectVersions":   CategoryRead,
	"ListMultipartUploads": CategoryRead,
	"ListParts":            CategoryRead,
	"GetBucketAcl":         CategoryRead,
	"GetBucketPolicy":      CategoryRead,
	"GetBucketLocation":    CategoryRead,
	"GetBucketVersioning":  CategoryRead,
	"GetBucketTagging":     CategoryRead,
	"SelectObjectContent":  CategoryRead,

	// Creation, overwrite, copy and restore operations
	"PutObject":               CategoryWrite,
	"PutObjectAcl":            CategoryWrite,
	"PutObjectTagging":        CategoryWrite,
	"CopyObject":              CategoryWrite,
	"RestoreObject":           CategoryWrite,
	"CreateMultipartUpload":   CategoryWrite,
	"UploadPart":              CategoryWrite,
	"UploadPartCopy":          CategoryWrite,
	"CompleteMultipartUpload": CategoryWrite,
	"PutBucketAcl":            CategoryWrite,
	"PutBucketPolicy":         CategoryWrite,
	"PutBucketTagging":        CategoryWrite,
	"PutBucketVersioning":     CategoryWrite,
	"CreateBucket":            CategoryWrite,

	// Deletion operations
	"DeleteObject":         CategoryDelete,
	"DeleteObjects":        CategoryDelete,
	"DeleteObjectTagging":  CategoryDelete,
	"AbortMultipartUpload": CategoryDelete,
	"DeleteBucket":         CategoryDelete,
	"DeleteBucketPolicy":   CategoryDelete,
	"DeleteBucketTagging":  CategoryDelete,
}

// Classify returns the operation category for an audit event name.
// Unmapped names classify as CategoryOther.
func Classify(eventName string) Category {
	if c, ok := operationCategories[eventName]; ok {
		return c
	}
	return CategoryOther
}
