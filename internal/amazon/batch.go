package amazon

import "fmt"

// DefaultBatchSize is the PA-API GetItems limit per call.
const DefaultBatchSize = 10

// BatchIDs partitions ids into ordered groups of at most size, keeping
// input order and dropping nothing. Pure; the only failure is a
// non-positive size.
func BatchIDs(ids []string, size int) ([][]string, error) {
	if size <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", size)
	}
	batches := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}
	return batches, nil
}
