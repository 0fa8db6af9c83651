// Package cache provides prompt cache tiers for the caching content
// generator: a bounded in-process LRU and an optional Redis tier shared
// between service instances.
package cache
