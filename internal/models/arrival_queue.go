package models

import (
	"container/heap"
	"sync"
)

// ArrivalQueue is a priority queue of arrivals ordered by arrival time,
// ties broken by insertion order.
type ArrivalQueue struct {
	items []*queuedArrival
	seq   int
	mutex sync.Mutex
}

type queuedArrival struct {
	arrival Arrival
	seq     int
}

// arrivalHeap implements heap.Interface and holds arrivals
type arrivalHeap []*queuedArrival

func (h arrivalHeap) Len() int { return len(h) }
func (h arrivalHeap) Less(i, j int) bool {
	if h[i].arrival.ArrivalTime != h[j].arrival.ArrivalTime {
		return h[i].arrival.ArrivalTime < h[j].arrival.ArrivalTime
	}
	return h[i].seq < h[j].seq
}
func (h arrivalHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *arrivalHeap) Push(x interface{}) {
	*h = append(*h, x.(*queuedArrival))
}

func (h *arrivalHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

func NewArrivalQueue() *ArrivalQueue {
	return &ArrivalQueue{items: make([]*queuedArrival, 0)}
}

// Enqueue adds an arrival to the queue
func (q *ArrivalQueue) Enqueue(a Arrival) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	heap.Push((*arrivalHeap)(&q.items), &queuedArrival{arrival: a, seq: q.seq})
	q.seq++
}

// Dequeue removes and returns the earliest arrival.
func (q *ArrivalQueue) Dequeue() (Arrival, bool) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	if len(q.items) == 0 {
		return Arrival{}, false
	}
	return heap.Pop((*arrivalHeap)(&q.items)).(*queuedArrival).arrival, true
}

// Peek returns the earliest arrival without removing it
func (q *ArrivalQueue) Peek() (Arrival, bool) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	if len(q.items) == 0 {
		return Arrival{}, false
	}
	return q.items[0].arrival, true
}

func (q *ArrivalQueue) Len() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return len(q.items)
}

// Drain empties the queue in arrival order.
func (q *ArrivalQueue) Drain() []Arrival {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	out := make([]Arrival, 0, len(q.items))
	for len(q.items) > 0 {
		out = append(out, heap.Pop((*arrivalHeap)(&q.items)).(*queuedArrival).arrival)
	}
	return out
}
