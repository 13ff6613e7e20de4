// Package media stores card images in an S3-compatible bucket and refers to
// them by s3://bucket/key refs kept on the cards.
package media
