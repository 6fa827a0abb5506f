// Package catchpy implements the search client for a Catch annotation server.
//
// The client reads legacy (AnnoJS) annotations page by page from one of two
// search endpoints:
//
//   - v1: /catch/annotator/search, collection parameter context_id
//   - v2: /annos/search, collection parameter contextId
//
// # Authentication
//
// Every request carries an x-annotator-auth-token header holding an HS256
// token signed with the consumer secret. The token is bound to a fixed actor
// and is valid for 24 hours. It is minted once per client and reused until it
// expires.
//
// # Errors
//
// Non-2xx responses, transport failures, timeouts and malformed bodies are
// all returned as *FetchError, which matches [domain.ErrFetch]. The client
// does not retry; callers resume from the last recorded offset.
//
// # Example Usage
//
//	tokens := catchpy.NewTokenProvider(apiKey, secret, "admin", 0)
//	client, err := catchpy.NewClient(catchpy.Config{BaseURL: url}, tokens)
//	page, err := client.Page(ctx, domain.SearchFilter{ContextID: "course-1"}, 0, 500)
package catchpy
