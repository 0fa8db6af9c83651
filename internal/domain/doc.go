// Package domain contains the core entities of the career assessment service:
// the fixed trait catalog, questionnaire answers, student details and the
// report document produced for each assessment. It has no dependencies on
// transport, storage or the content generator.
package domain
