package monitor

import (
	"sync"

	"github.com/rileyhilliard/nasmon/internal/snapshot"
	"github.com/rileyhilliard/nasmon/internal/util"
)

// DefaultHistorySize is the number of samples kept per series.
const DefaultHistorySize = 60

// Series names recorded from every snapshot. Disk temperatures use
// DiskTempSeries.
const (
	SeriesCPUTemp   = "cpu_temp"
	SeriesBoardTemp = "board_temp"
	SeriesMemory    = "memory"
)

// DiskTempSeries names the temperature series of one disk.
func DiskTempSeries(device string) string {
	return "disk_temp:" + device
}

// History keeps a ring buffer per named series for sparklines.
type History struct {
	mu     sync.RWMutex
	size   int
	series map[string]*ringBuffer
}

// ringBuffer is a fixed-size circular buffer for float64 values.
type ringBuffer struct {
	data  []float64
	head  int
	count int
}

// NewHistory creates a history keeping size samples per series.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{size: size, series: make(map[string]*ringBuffer)}
}

// Push appends one value to a series.
func (h *History) Push(name string, v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rb, ok := h.series[name]
	if !ok {
		rb = &ringBuffer{data: make([]float64, h.size)}
		h.series[name] = rb
	}
	rb.push(v)
}

// Last returns up to count of the newest values of a series, oldest first.
func (h *History) Last(name string, count int) []float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rb, ok := h.series[name]
	if !ok {
		return nil
	}
	return rb.last(count)
}

// Record pushes the numeric readings of a snapshot. Unparseable readings
// (sentinels, sleeping disks) are skipped rather than recorded as zero.
func (h *History) Record(s snapshot.Snapshot) {
	if s.System.Status != snapshot.StatusOn {
		return
	}
	if v, ok := util.LeadingNumber(s.System.CPUTemperature); ok {
		h.Push(SeriesCPUTemp, v)
	}
	if v, ok := util.LeadingNumber(s.System.MotherboardTemperature); ok {
		h.Push(SeriesBoardTemp, v)
	}
	if s.System.MemoryTotal > 0 {
		h.Push(SeriesMemory, float64(s.System.MemoryUsed)/float64(s.System.MemoryTotal)*100)
	}
	for _, d := range s.Disks {
		if v, ok := util.LeadingNumber(d.Temperature); ok {
			h.Push(DiskTempSeries(d.Device), v)
		}
	}
}

func (r *ringBuffer) push(v float64) {
	r.data[r.head] = v
	r.head = (r.head + 1) % len(r.data)
	if r.count < len(r.data) {
		r.count++
	}
}

func (r *ringBuffer) last(count int) []float64 {
	if count <= 0 || r.count == 0 {
		return nil
	}
	count = min(count, r.count)

	out := make([]float64, count)
	start := (r.head - count + len(r.data)) % len(r.data)
	for i := range count {
		out[i] = r.data[(start+i)%len(r.data)]
	}
	return out
}
