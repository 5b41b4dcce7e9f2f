package timetricks

import (
	"time"
)

const dayFormat = "20060102"

func SameDay(t time.Time, t2 time.Time) bool {
	return t.Format(dayFormat) == t2.Format(dayFormat)
}

// TrimClock removes the wall clock component of t, leaving the first instant
// of its calendar day.
func TrimClock(t time.Time) time.Time {
	h, m, s := t.Clock()
	return t.Add(-1 *
		(time.Duration(h)*time.Hour +
			time.Duration(m)*time.Minute +
			time.Duration(s)*time.Second))
}

// UniqueDay returns a string representation of t that is unique by the day.
// For instance, two seperate times on the same calendar day return identical
// strings. Useful as a cache key.
func UniqueDay(t time.Time) string {
	return t.Format(dayFormat)
}
