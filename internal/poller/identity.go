// internal/poller/identity.go
package poller

import "fmt"

// The identity block is always read through unit id 1; the real unit id is
// not known until the block has been parsed.
const (
	identityUnit  uint8  = 1
	identityWords uint16 = 4
)

// parseIdentity decodes the four-word identity block.
//
// Unlike the data registers, the serial number is stored low word first:
//
//	word 0  serial, low 16 bits
//	word 1  serial, high 16 bits
//	word 2  susy id
//	word 3  unit id for data reads
func parseIdentity(words []uint16) (Identity, error) {
	if len(words) != int(identityWords) {
		return Identity{}, fmt.Errorf("identity block: got %d words, want %d", len(words), identityWords)
	}
	if words[3] > 255 {
		return Identity{}, fmt.Errorf("identity block: unit id %d out of range", words[3])
	}
	return Identity{
		Serial: uint32(words[1])<<16 | uint32(words[0]),
		SusyID: words[2],
		UnitID: uint8(words[3]),
	}, nil
}
