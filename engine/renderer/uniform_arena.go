package renderer

// uniformSlotStride is the byte spacing between per-mesh uniform slots. The
// WebGPU default minUniformBufferOffsetAlignment is 256, and dynamic offsets
// must be multiples of it.
const uniformSlotStride = 256

// initialUniformSlots is the slot capacity the uniform buffer starts with.
// The arena doubles when a campus scene registers more meshes than this.
const initialUniformSlots = 64

// uniformArena hands out fixed-stride byte offsets into a shared uniform
// buffer, one slot per registered mesh. Each draw writes its uniforms into
// its own slot and binds it with a dynamic offset, so draws encoded in the
// same frame never overwrite each other's data.
type uniformArena struct {
	capacity int
	next     int
	free     []uint32
}

func newUniformArena(slots int) *uniformArena {
	return &uniformArena{capacity: slots}
}

// Alloc returns the next free slot offset. ok is false when the arena is
// full; the caller grows the backing buffer and calls Grow.
func (a *uniformArena) Alloc() (offset uint32, ok bool) {
	if n := len(a.free); n > 0 {
		offset = a.free[n-1]
		a.free = a.free[:n-1]
		return offset, true
	}
	if a.next >= a.capacity {
		return 0, false
	}
	offset = uint32(a.next) * uniformSlotStride
	a.next++
	return offset, true
}

// Free returns a slot for reuse. Offsets never handed out are ignored.
func (a *uniformArena) Free(offset uint32) {
	if offset%uniformSlotStride != 0 || int(offset/uniformSlotStride) >= a.next {
		return
	}
	a.free = append(a.free, offset)
}

// Grow raises the slot capacity. Previously handed-out offsets stay valid:
// slots are positions, not contents, and every draw rewrites its slot.
func (a *uniformArena) Grow(slots int) {
	if slots > a.capacity {
		a.capacity = slots
	}
}

// Capacity returns the current slot capacity.
func (a *uniformArena) Capacity() int {
	return a.capacity
}

// arenaByteSize returns the backing buffer size for a given slot capacity.
func arenaByteSize(slots int) uint64 {
	return uint64(slots) * uniformSlotStride
}
