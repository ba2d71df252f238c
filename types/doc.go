// Package types defines the shared data model of the ResearchMate
// information-gathering core: search candidates, fetch results, authority
// scores, gathering outcomes, and the structured error taxonomy used across
// all packages.
//
// Values in this package are plain records. A FetchResult is never mutated
// after the fetch that produced it completes; derived data (authority
// scores, acceptance) lives in the GatheringOutcome instead.
package types
