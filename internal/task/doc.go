// Package task manages background job queuing, processing, and lifecycle.
// It provides an in-memory registry of task state, a bounded queue drained by
// a fixed pool of workers, and the report generation task that turns an
// assessment into a rendered career report without blocking HTTP handling.
package task
