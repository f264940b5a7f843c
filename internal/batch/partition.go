package batch

// Partition splits unit indices [0, total) into workerCount contiguous
// blocks of unitsPerWorker each. Worker k receives
// [k*unitsPerWorker, (k+1)*unitsPerWorker). Deterministic for a given
// batch size, which keeps worker identity correlated with its primary
// provider and makes runs reproducible.
//
// The caller must have validated total == workerCount*unitsPerWorker.
func Partition(total, workerCount, unitsPerWorker int) [][]int {
	blocks := make([][]int, workerCount)
	for k := 0; k < workerCount; k++ {
		block := make([]int, 0, unitsPerWorker)
		for i := k * unitsPerWorker; i < (k+1)*unitsPerWorker && i < total; i++ {
			block = append(block, i)
		}
		blocks[k] = block
	}
	return blocks
}
