package accessory

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// namespace scopes accessory UUIDs to this bridge.
var namespace = uuid.MustParse("5b0f3c2e-8a47-4d1e-9c62-0d6e4e1b7a90")

// UUIDFor derives the accessory UUID for a vendor ID. The result depends
// only on id, so it is stable across restarts.
func UUIDFor(id string) string {
	return uuid.NewSHA1(namespace, []byte(id)).String()
}

// AIDFor derives a HAP accessory ID from an accessory UUID. IDs 0 and 1 are
// reserved (1 is the bridge itself), so results start at 2. Results fit in
// 53 bits.
func AIDFor(accessoryUUID string) uint64 {
	u, err := uuid.Parse(accessoryUUID)
	if err != nil {
		u = uuid.NewSHA1(namespace, []byte(accessoryUUID))
	}
	aid := binary.BigEndian.Uint64(u[:8]) >> 11
	if aid < 2 {
		aid += 2
	}
	return aid
}
