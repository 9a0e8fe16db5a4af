package composite

// hidLogicalMaximum16 encodes a Logical Maximum item with a fixed 2-byte
// signed value. Hosts sign-extend the item data, so a shorter item would
// turn 128..255 negative.
func hidLogicalMaximum16(v uint16) []byte {
	return []byte{0x26, byte(v), byte(v >> 8)}
}
