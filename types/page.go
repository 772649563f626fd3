package types

const (
	PageSize = 4096 // default page size, 4KB

	// PageChecksumSize bytes at the start of every page hold the xxhash of the rest.
	PageChecksumSize = 8
	// PageTypeOffset is the byte the disk manager stamps with the PageType.
	PageTypeOffset = 8
)

type PageType uint8

const (
	PageTypeUnknown PageType = iota
	PageTypeBPlusNode
	PageTypeMetadata
)

func (pt PageType) String() string {
	switch pt {
	case PageTypeBPlusNode:
		return "bplus"
	case PageTypeMetadata:
		return "metadata"
	default:
		return "unknown"
	}
}
