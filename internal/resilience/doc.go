// Package resilience provides the building blocks of the resilient Overpass
// client: overload classification, per-invocation deadline tracking, a
// bounded linear backoff schedule and a cancellable sleep.
package resilience
