// Package storage owns the directory rendered reports are written to. It
// derives report file names from student names and resolves download
// requests to files under that directory only.
package storage
