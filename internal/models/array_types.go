package models

import (
	"database/sql/driver"
	"sort"

	"github.com/lib/pq"
)

// SeatList is a set of seat numbers stored as INTEGER[] in PostgreSQL
type SeatList []int

// Value implements the driver.Valuer interface
func (a SeatList) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	arr := make(pq.Int64Array, len(a))
	for i, s := range a {
		arr[i] = int64(s)
	}
	return arr.Value()
}

// Scan implements the sql.Scanner interface
func (a *SeatList) Scan(src interface{}) error {
	if src == nil {
		*a = nil
		return nil
	}
	var arr pq.Int64Array
	if err := arr.Scan(src); err != nil {
		return err
	}
	out := make(SeatList, len(arr))
	for i, s := range arr {
		out[i] = int(s)
	}
	*a = out
	return nil
}

// Sorted returns the seats in ascending order without modifying a
func (a SeatList) Sorted() SeatList {
	out := append(SeatList(nil), a...)
	sort.Ints(out)
	return out
}

// Intersect returns the seats of a that also appear in other, ascending
func (a SeatList) Intersect(other []int) []int {
	held := make(map[int]struct{}, len(other))
	for _, s := range other {
		held[s] = struct{}{}
	}
	var out []int
	for _, s := range a {
		if _, ok := held[s]; ok {
			out = append(out, s)
		}
	}
	sort.Ints(out)
	return out
}
