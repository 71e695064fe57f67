// Package seed loads content items from seed documents and writes them back
// out.
//
// A seed document is a JSON array of create requests, or an object whose
// "items" field holds that array. Locations are local paths, file:// URLs or
// s3://bucket/key URLs.
package seed
