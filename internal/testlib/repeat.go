package testlib

import (
	"sync"
	"testing"
)

// Repeat runs f sequentially the given number of times
func Repeat(t *testing.T, times int, f func(t *testing.T)) {
	for i := 0; i < times; i++ {
		f(t)
	}
}

// RepeatConcurrent runs f the given number of times in parallel goroutines and waits for all of them
func RepeatConcurrent(t *testing.T, times int, f func(t *testing.T)) {
	var wg sync.WaitGroup
	wg.Add(times)
	for i := 0; i < times; i++ {
		go func() {
			defer wg.Done()
			f(t)
		}()
	}
	wg.Wait()
}
