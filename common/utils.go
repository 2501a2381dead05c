package common

import (
	"fmt"
)

type IT interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}
type IIndex interface {
	~int | ~int8 | ~int16 | ~int32 | ~uint | ~uint8 | ~uint16 | ~uint32
}

func GetVert3[T IT, T1 IIndex](verts []T, index T1) []T {
	return verts[index*3 : index*3+3]
}
func GetVert4[T IT, T1 IIndex](verts []T, index T1) []T {
	return verts[index*4 : index*4+4]
}

// AssertTrue panics when cond is false. Used for programmer errors only;
// build failures are returned as errors.
func AssertTrue(cond bool, msg ...any) {
	if cond {
		return
	}
	if len(msg) == 0 {
		panic("assertion failed")
	}
	panic(fmt.Sprint(msg...))
}

// AssertTruef is AssertTrue with a formatted message.
func AssertTruef(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}
