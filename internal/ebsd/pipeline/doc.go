// Package pipeline composes the indexing stages for one pattern and runs
// batches of patterns concurrently.
//
// Responsibilities: mask → peaks → selection → normals → matching against
// every phase → post-processing, per pattern; bounded fan-out across
// patterns with a batch run ID.
// Key types: Config, Pipeline, Pattern, Result, Batch.
//
// Dependency rule: pipeline may import every internal/ebsd package except
// storage and monitor; crystal tables are built once in New and only read
// afterwards, so workers share them without locking.
package pipeline
