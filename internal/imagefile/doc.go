// Package imagefile validates downloaded image files and normalizes
// their encoding to match the format implied by the filename extension.
// It also extracts EXIF summaries and content hashes for history records.
package imagefile
