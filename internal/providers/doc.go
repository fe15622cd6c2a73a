// Package providers defines the adapter contract for third-party metadata
// sources plus the shared pieces every source needs: the normalized record
// shape, the sentinel error taxonomy, and a throttling wrapper that paces
// requests and bounds retries.
package providers
