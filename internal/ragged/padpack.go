package ragged

import (
	"container/heap"
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"

	"github.com/23skdu/longbow-ragged/internal/simd"
)

// NoOwner marks a padding cell in Packing.Owner.
const NoOwner int64 = -1

// Packing describes how the sequences of a ragged buffer were packed into a
// dense (Batch, Seq) grid. Cells are numbered row-major: cell = slot*Seq + pos.
type Packing struct {
	// Index holds, per cell, the flat item index gathered into it (0 for padding).
	Index []int64
	// Owner holds, per cell, the sequence the item belongs to, or NoOwner.
	Owner []int64
	// Inverse holds, per flat item, the cell it was placed into.
	Inverse []int64
	// Lengths are the source sequence lengths.
	Lengths []int64

	Batch int
	Seq   int
}

// slot is an open row of the packed grid.
type slot struct {
	free  int
	index int
}

// slotHeap pops the slot with the most free capacity, oldest first on ties.
type slotHeap []slot

func (h slotHeap) Len() int { return len(h) }
func (h slotHeap) Less(i, j int) bool {
	if h[i].free != h[j].free {
		return h[i].free > h[j].free
	}
	return h[i].index < h[j].index
}
func (h slotHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *slotHeap) Push(x any) { *h = append(*h, x.(slot)) }
func (h *slotHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Padpack packs the sequences of b into as few rows of width max(lengths)
// as the worst-fit heuristic finds: each sequence, in order, goes into the
// open row with the most free room if it fits there, otherwise into a new
// row. It returns nil when b has no sequences or all sequences already have
// the same length.
func (b *Buffer[T]) Padpack() *Packing {
	if len(b.subarrays) == 0 {
		padpackNoop.Inc()
		return nil
	}
	seq := 0
	uniform := true
	first := b.subarrays[0].len()
	for _, s := range b.subarrays {
		l := s.len()
		if l != first {
			uniform = false
		}
		if l > seq {
			seq = l
		}
	}
	if uniform {
		padpackNoop.Inc()
		return nil
	}

	p := &Packing{
		Inverse: make([]int64, b.Items()),
		Lengths: b.Lengths(),
		Seq:     seq,
	}
	var open slotHeap
	for i, s := range b.subarrays {
		l := s.len()
		var sl slot
		if len(open) > 0 && open[0].free >= l {
			sl = heap.Pop(&open).(slot)
		} else {
			sl = slot{free: seq, index: p.Batch}
			p.Batch++
			p.Index = append(p.Index, make([]int64, seq)...)
			owners := make([]int64, seq)
			simd.Fill(owners, NoOwner)
			p.Owner = append(p.Owner, owners...)
		}
		base := sl.index*seq + seq - sl.free
		for j := range l {
			cell := base + j
			item := s.start + j
			p.Index[cell] = int64(item)
			p.Owner[cell] = int64(i)
			p.Inverse[item] = int64(cell)
		}
		sl.free -= l
		heap.Push(&open, sl)
	}

	fill := float64(len(p.Inverse)) / float64(p.Batch*p.Seq)
	padpackSlots.Observe(float64(p.Batch))
	padpackFill.Observe(fill)
	log.Debug().
		Int("sequences", len(b.subarrays)).
		Int("items", len(p.Inverse)).
		Int("slots", p.Batch).
		Int("width", p.Seq).
		Float64("fill", fill).
		Msg("Packed ragged batch")
	return p
}

// Mask reports which cells of the grid hold an item.
func (p *Packing) Mask() []bool {
	mask := make([]bool, len(p.Owner))
	for i, o := range p.Owner {
		mask[i] = o != NoOwner
	}
	return mask
}

// PadGather lays the items of b out in the packed grid, returning a dense
// (Batch, Seq, features) block with padding cells set to fill. p must have
// been computed for a buffer with b's lengths.
func PadGather[T Element](b *Buffer[T], p *Packing, fill T) ([]T, error) {
	if lengths := b.Lengths(); !slices.Equal(lengths, p.Lengths) {
		return nil, fmt.Errorf("%w: packing of lengths %v applied to %s", ErrShapeMismatch, p.Lengths, b.profile())
	}
	f := b.features
	out := make([]T, p.Batch*p.Seq*f)
	for cell, owner := range p.Owner {
		dst := out[cell*f : (cell+1)*f]
		if owner == NoOwner {
			simd.Fill(dst, fill)
			continue
		}
		item := int(p.Index[cell])
		copy(dst, b.data[item*f:(item+1)*f])
	}
	return out, nil
}

// Unpad scatters a dense (Batch, Seq, features) block computed on the
// packed grid back into the source ragged layout.
func Unpad[T Element](p *Packing, dense []T, features int) (*Buffer[T], error) {
	if want := p.Batch * p.Seq * features; len(dense) != want {
		return nil, fmt.Errorf("%w: packed block of %d elements, expected %d x %d x %d", ErrShapeMismatch, len(dense), p.Batch, p.Seq, features)
	}
	out := &Buffer[T]{
		data:      make([]T, len(p.Inverse)*features),
		subarrays: make([]span, len(p.Lengths)),
		features:  features,
	}
	start := 0
	for i, l := range p.Lengths {
		out.subarrays[i] = span{start, start + int(l)}
		start += int(l)
	}
	for item, cell := range p.Inverse {
		c := int(cell)
		copy(out.data[item*features:(item+1)*features], dense[c*features:(c+1)*features])
	}
	return out, nil
}
