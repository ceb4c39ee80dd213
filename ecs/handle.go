package ecs

import "strconv"

// Handle is a generation-checked reference into an Arena. The low 32 bits
// hold the slot and the high 32 bits the slot's generation when issued.
type Handle uint64

type slotID uint32
type generation uint32

const slotBits = 32

func makeHandle(id slotID, gen generation) Handle {
	return Handle(uint64(gen)<<slotBits | uint64(id))
}

func (h Handle) id() slotID {
	return slotID(uint32(h))
}

func (h Handle) generation() generation {
	return generation(uint32(uint64(h) >> slotBits))
}

func (h Handle) String() string {
	return strconv.FormatUint(uint64(h>>slotBits), 10) + ":" + strconv.FormatUint(uint64(h.id()), 10)
}

// Valid reports whether h was ever issued. It says nothing about liveness.
func (h Handle) Valid() bool {
	return h.id() > 0
}
