// Package report assembles generated topic texts into the ordered report
// document handed to a renderer.
package report
