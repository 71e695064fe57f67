// Package dynamodb stores content items in a single DynamoDB table keyed by
// the string attribute "id".
//
// Attribute names follow the item's json names. Every condition, filter and
// update is built with the expression package, so reserved words such as
// "type" and "status" are always aliased.
//
// Scan reads the whole table page by page and filters server side. That is
// fine for a site's worth of content; larger stores want a secondary index.
package dynamodb
