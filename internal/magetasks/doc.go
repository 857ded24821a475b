// Package magetasks implements the build, test and lint targets used by the
// Magefile. Targets shell out through mage's sh package and report progress
// with the console helpers in this package.
package magetasks
