package process

import "unsafe"

// Read reads one plain-old-data value of type T in host byte order. Waymark
// hosts are x64, so this is little-endian.
func Read[T any](proc Process, addr ProcessMemoryAddress) (T, error) {
	var t T
	size := ProcessMemorySize(unsafe.Sizeof(t))
	if size == 0 {
		return t, nil
	}

	data, err := proc.ReadMemory(addr, size)
	if err != nil {
		return t, err
	}
	if len(data) < int(size) {
		return t, ErrAddressNotMapped
	}

	copy(unsafe.Slice((*byte)(unsafe.Pointer(&t)), size), data)
	return t, nil
}
