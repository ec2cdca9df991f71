// Package sanitizer cleans user-supplied text before it reaches the provider.
// It is built on bluemonday's strict policy.
package sanitizer
