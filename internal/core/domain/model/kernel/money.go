package kernel

import "strconv"

// Money is an amount in the smallest currency unit (VND has no minor unit, so 1 = 1 đồng).
type Money int64

func (m Money) Int64() int64 {
	return int64(m)
}

func (m Money) String() string {
	return strconv.FormatInt(int64(m), 10)
}
