package ivfstore

import "encoding/binary"

func encodeIDs(ids []int64) []byte {
	b := make([]byte, len(ids)*idSize)
	for i, id := range ids {
		binary.LittleEndian.PutUint64(b[i*idSize:], uint64(id))
	}
	return b
}

func decodeIDs(b []byte) []int64 {
	ids := make([]int64, len(b)/idSize)
	for i := range ids {
		ids[i] = int64(binary.LittleEndian.Uint64(b[i*idSize:]))
	}
	return ids
}
