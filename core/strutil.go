package core

import "strconv"

// itoa converts an integer to a string without the fmt package
func itoa(n int) string {
	var buf [20]byte
	return string(appendInt(buf[:0], n))
}

// utoa converts an unsigned integer to a string
func utoa(n uint32) string {
	var buf [10]byte
	return string(strconv.AppendUint(buf[:0], uint64(n), 10))
}

// appendInt appends the decimal form of n
func appendInt(dst []byte, n int) []byte {
	return strconv.AppendInt(dst, int64(n), 10)
}

// appendFixed appends v with a fixed number of decimals, rounded like printf
func appendFixed(dst []byte, v float64, decimals int) []byte {
	return strconv.AppendFloat(dst, v, 'f', decimals, 64)
}
