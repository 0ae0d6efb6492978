// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

/*
Package search provides book search providers for the recommendation engine.

Two public catalogs are supported over HTTP:

  - GoogleBooksClient: Google Books volumes API
  - OpenLibraryClient: Open Library search API

StaticProvider serves a local JSON catalog for offline use and tests.

Clients are wrapped by decorators, composed by Build from configuration:

	CachedProvider -> RateLimitedProvider -> BreakerProvider -> client

CachedProvider answers repeated queries from a TTL cache, RateLimitedProvider
holds outbound traffic to a token bucket, and BreakerProvider stops calling an
unhealthy provider, returning ErrProviderUnavailable while the circuit is open.

Every provider returns an empty slice and a nil error when nothing matches.
*/
package search
