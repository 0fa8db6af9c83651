// Package scoring turns questionnaire answers into normalized trait scores.
//
// A Table declares, per question, how many points each answer option awards
// to each trait. Tables are loaded once at startup from JSON or YAML, checked
// for shape with a JSON schema and for trait names against the domain
// catalog. The Engine built from a table is immutable and safe for
// concurrent use.
package scoring
