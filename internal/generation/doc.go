// Package generation drives the external content generator on behalf of the
// report pipeline. It defines the ContentGenerator boundary implemented by the
// Gemini adapter, and builds on it:
//
//   - GoalExtractor derives a career goal label from raw answers and never fails.
//   - TopicCatalog holds the ordered report topics and their prompt templates.
//   - TopicReportGenerator produces one entry per topic, throttled by a fixed
//     delay between calls, substituting placeholders for failed topics.
//   - CachingGenerator memoizes prompts across cache tiers and collapses
//     identical in-flight prompts into one call.
package generation
