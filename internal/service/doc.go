// Package service contains the application use cases behind the HTTP API:
// submitting an assessment for background report generation, scoring answers
// synchronously, reading task status and locating finished reports.
//
// Services receive their collaborators through constructor injection and
// depend only on small interfaces, so the API layer and tests can supply
// fakes. Expected conditions are reported with sentinel errors from the
// domain, task and storage packages; unexpected failures are wrapped in a
// ServiceError carrying the operation name.
package service
