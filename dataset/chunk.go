package dataset

import "fmt"

// Chunk partitions items into contiguous batches of batchSize. Full batches
// are emitted while more than batchSize items remain ahead; whatever is left
// becomes the final batch, so an exact multiple ends with a full batch and an
// empty input yields a single empty batch.
//
// batchSize must be positive.
func Chunk[T any](items []T, batchSize int) [][]T {
	if batchSize <= 0 {
		panic(fmt.Sprintf("dataset.Chunk: batch size must be positive, got %d", batchSize))
	}
	n := len(items)
	batches := make([][]T, 0, n/batchSize+1)
	i := 0
	for i+batchSize < n {
		batches = append(batches, items[i:i+batchSize])
		i += batchSize
	}
	return append(batches, items[i:n])
}
