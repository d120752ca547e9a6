// Package process manages external process groups: starting commands in
// their own group and tearing the whole group down.
package process
