// Package domain holds the UrbanPulse model and the request-time logic that
// every page of the dashboard shares.
//
// # Pipeline
//
// Each listing (incidents, nearby services, communities) is produced by the
// same steps:
//
//  1. Resolve the caller's location ([Resolver]).
//  2. Fetch entities and reduce them to [GeoEntity].
//  3. Annotate great-circle distances ([AnnotateDistances]).
//  4. Filter and sort ([Apply]).
//  5. Slice into a page ([Paginate]).
//
// # Distance
//
// Distances use the haversine formula with a 6371 km Earth radius and are
// rounded to one decimal place. There is no special handling of the
// antimeridian or the poles.
//
// # Sorting
//
// Name and type sort ascending with English collation, rating sorts
// descending, distance ascending. A missing rating counts as 0. A missing
// distance also counts as 0, which places entities without coordinates
// first; set [Query.MissingDistanceLast] to push them to the end instead.
//
// # Location resolution
//
// Resolution never fails from the caller's point of view. Any provider error,
// timeout or empty geocoding result moves the machine to the failed state,
// after which the region fallback (IP geolocation) is tried once and, failing
// that, the configured fixed location (New York City by default) is used.
//
// # Provider failures
//
// Adapters report failures as [*ProviderError] classified by [ErrorKind].
// Services wrap provider calls in [Result] and use [Result.OrElse] to
// substitute placeholder data, so the fallback policy is visible at the call
// site.
package domain
