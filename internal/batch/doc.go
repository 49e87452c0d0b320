// Package batch downloads several dramas listed in a CSV file, one after
// another.
package batch
