package spu

// fifoDepth is the hardware queue size in bytes; refills are requested once
// the queue drains to half of it.
const (
	fifoDepth     = 32
	fifoWatermark = fifoDepth / 2
)

// sampleFIFO is one of the two legacy direct-sound queues. The bus pushes
// signed 8-bit samples in through the FIFO port; an external timer overflow
// pops one out per tick. An empty queue keeps outputting the last sample
// rather than snapping to zero.
type sampleFIFO struct {
	data   [fifoDepth]int8
	head   int
	count  int
	sample int8
}

func (f *sampleFIFO) push(v int8) {
	if f.count == fifoDepth {
		return
	}
	f.data[(f.head+f.count)%fifoDepth] = v
	f.count++
}

// pop advances the output sample. Reports whether the queue is at or below
// the refill watermark afterwards.
func (f *sampleFIFO) pop() bool {
	if f.count > 0 {
		f.sample = f.data[f.head]
		f.head = (f.head + 1) % fifoDepth
		f.count--
	}
	return f.count <= fifoWatermark
}

func (f *sampleFIFO) reset() {
	f.head = 0
	f.count = 0
	f.sample = 0
}
