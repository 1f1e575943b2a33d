// Package szurubooru provides a client for the szurubooru image board API.
//
// Posts, tags, tag categories, pools and pool categories are exposed as
// lazily synchronized resources: each handle mirrors the server's JSON,
// keeps local edits aside until Push, and refuses to overwrite fields that
// changed on the server in the meantime.
//
// # Architecture
//
// The package is organized into several components:
//
//   - Endpoint: base URL, API location and authentication header, resolved once
//   - Client: JSON and multipart transport plus the high-level operations
//   - Resource: committed/pending state shared by every resource kind
//   - Search: restartable, paginated iteration over a collection
//   - Errors: configuration, API and synchronization error types
//
// # Usage
//
//	endpoint, err := szurubooru.ResolveEndpoint(
//		"https://booru.example.com",
//		szurubooru.Credentials{Username: "alice", Token: token},
//		"",
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	client, err := szurubooru.NewClient(endpoint, logger, szurubooru.WithTimeout(time.Minute))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	ctx := context.Background()
//	for post, err := range client.IterPosts(ctx, "tag:landscape") {
//		if err != nil {
//			log.Fatal(err)
//		}
//		if err := post.SetSafety(ctx, szurubooru.SafetySafe); err != nil {
//			log.Fatal(err)
//		}
//		if err := post.Push(ctx); err != nil {
//			log.Fatal(err)
//		}
//	}
//
// # Error Handling
//
// The package defines several error types:
//
//   - ConfigError: rejected URL, scheme or credential combination (matches ErrInvalidConfig)
//   - APIError: server error document with Name and Description, or the raw body
//   - SyncError: stale edit, missing version or pending edits before a merge (matches ErrNotSynchronized)
//
// Transport failures are wrapped and never retried. Use IsAPIError to test
// for a specific server error name:
//
//	if szurubooru.IsAPIError(err, "TagNotFoundError") {
//		// the tag is gone
//	}
package szurubooru
