// Package sitecontent stores and queries the structured content of a
// marketing site: pages, posts, projects, services and team members.
//
// It exposes a single Service interface that validates requests, assigns
// identifiers and timestamps, and delegates persistence to a Repository.
// Repository implementations (memory, DynamoDB, Postgres) live under repo/.
//
// Content Documents
//
// Item.Content and Item.Metadata are opaque JSON documents. Their shape is a
// convention between authors and the site that renders them; the service
// never inspects them beyond requiring Content to be present.
//
// Identifiers
//
// Item ids read <type>_<slug>_<token>. Only the token guarantees uniqueness;
// see package idgen for the available strategies. Slugs are not unique, so
// GetItemBySlug returns the first match in repository scan order.
package sitecontent
