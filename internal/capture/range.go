package capture

import "fmt"

// BlockRange represents an inclusive block range.
type BlockRange struct {
	From uint64
	To   uint64
}

// ResumeRange returns the blocks still to capture in [start, end] given the
// stored checkpoint. A checkpoint always wins so the store stays contiguous.
// The boolean is false when nothing is left.
func ResumeRange(start, end, last uint64, hasCheckpoint bool) (BlockRange, bool, error) {
	if end < start {
		return BlockRange{}, false, fmt.Errorf("end block must be >= start block")
	}

	from := start
	if hasCheckpoint {
		from = last + 1
	}
	if from > end {
		return BlockRange{From: from, To: end}, false, nil
	}
	return BlockRange{From: from, To: end}, true, nil
}

// SplitRange splits a block range into batches of size batchSize.
func SplitRange(from, to, batchSize uint64) ([]BlockRange, error) {
	if batchSize == 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if to < from {
		return nil, fmt.Errorf("to block must be >= from block")
	}

	ranges := make([]BlockRange, 0)
	start := from
	for start <= to {
		remaining := to - start + 1
		var end uint64
		if remaining <= batchSize {
			end = to
		} else {
			end = start + batchSize - 1
		}
		ranges = append(ranges, BlockRange{From: start, To: end})
		if end == to {
			break
		}
		start = end + 1
	}

	return ranges, nil
}
