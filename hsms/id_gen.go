package hsms

import (
	"crypto/rand"
	"encoding/binary"
	"sync/atomic"
)

// systemByteGenerator hands out unique HSMS system bytes (and, through
// genID, plain message IDs) for the lifetime of a process. A connection's
// transaction table keys pending replies by system bytes (see
// hsmsss.Connection), so two in-flight transactions landing on the same
// value would route a reply to the wrong waiter. The counter is seeded from
// crypto/rand rather than starting at zero so that restarting the process
// doesn't restart the sequence from a value a remote peer could anticipate
// from a prior run.
type systemByteGenerator struct {
	counter atomic.Uint32
}

func newSystemByteGenerator() *systemByteGenerator {
	gen := &systemByteGenerator{}

	var seed [4]byte
	if _, err := rand.Read(seed[:]); err == nil {
		gen.counter.Store(binary.LittleEndian.Uint32(seed[:]))
	}

	return gen
}

func (g *systemByteGenerator) genID() uint32 {
	return g.counter.Add(1)
}

func (g *systemByteGenerator) genSystemBytes() []byte {
	return ToSystemBytes(g.genID())
}

var defaultSystemByteGenerator = newSystemByteGenerator()

// GenerateMsgID returns a unique message ID as a uint32.
func GenerateMsgID() uint32 {
	return defaultSystemByteGenerator.genID()
}

// GenerateMsgSystemBytes returns a unique 4-byte slice holding a message's
// system bytes, big-endian as SEMI E37 lays them out on the wire.
func GenerateMsgSystemBytes() []byte {
	return defaultSystemByteGenerator.genSystemBytes()
}

// ToSystemBytes converts id into a 4-byte big-endian system bytes slice.
func ToSystemBytes(id uint32) []byte {
	systemBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(systemBytes, id)

	return systemBytes
}
