// Package magetasks holds the build, test and lint tasks of the Magefile.
package magetasks
