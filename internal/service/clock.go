package service

import "time"

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func NewSystemClock() Clock {
	return SystemClock{}
}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
