package pool

// dirtyHeap is a container/heap max-heap of *FileEntry ordered by
// DirtyBytes, giving FlushNextFile O(log n) selection of the entry with
// the most unflushed bytes.
type dirtyHeap []*FileEntry

func (h dirtyHeap) Len() int { return len(h) }

func (h dirtyHeap) Less(i, j int) bool { return h[i].DirtyBytes > h[j].DirtyBytes }

func (h dirtyHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIdx = i
	h[j].heapIdx = j
}

func (h *dirtyHeap) Push(x any) {
	e := x.(*FileEntry)
	e.heapIdx = len(*h)
	*h = append(*h, e)
}

func (h *dirtyHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.heapIdx = -1
	*h = old[:n-1]
	return e
}
