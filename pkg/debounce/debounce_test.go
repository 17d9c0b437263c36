package debounce

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestDebounce ensures that multiple rapid calls to the debounced function
// only result in a single invocation of the provided function after the debounce period.
func TestDebounce(t *testing.T) {
	var callCount int
	var mu sync.Mutex

	fn := func() {
		mu.Lock()
		defer mu.Unlock()
		callCount++
	}

	debouncedFn := Debounce(100*time.Millisecond, fn)

	// Call the debounced function multiple times in quick succession
	for i := 0; i < 5; i++ {
		debouncedFn()
		time.Sleep(10 * time.Millisecond) // simulate rapid calls
	}

	// At this point, fn should not have been called yet, since the debounce period hasn't elapsed.
	mu.Lock()
	assert.Equal(t, 0, callCount, "Expected callCount to be 0 before debounce period")
	mu.Unlock()

	// Wait for the debounce period to pass
	time.Sleep(150 * time.Millisecond)

	// Now fn should have been called exactly once.
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, callCount, "Expected callCount to be 1 after debounce period")
}

// TestConsecutiveDebounce ensures that if calls resume before the previous debounce completes,
// the timer resets and only one call is made after the final series of calls.
func TestConsecutiveDebounce(t *testing.T) {
	var callCount int
	var mu sync.Mutex

	fn := func() {
		mu.Lock()
		callCount++
		mu.Unlock()
	}

	debouncedFn := Debounce(100*time.Millisecond, fn)

	// Call once
	debouncedFn()

	// Wait less than the debounce period, call again
	time.Sleep(50 * time.Millisecond)
	debouncedFn()

	// Wait again less than the debounce period, call again
	time.Sleep(50 * time.Millisecond)
	debouncedFn()

	// Now wait long enough for the debounce to trigger
	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, callCount, "Expected callCount to be 1")
}

func TestFlushRunsPendingCallOnce(t *testing.T) {
	var callCount int
	var mu sync.Mutex

	d := New(time.Hour, func() {
		mu.Lock()
		callCount++
		mu.Unlock()
	})

	d.Flush()
	d.Call()
	d.Call()
	d.Flush()
	d.Flush()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, callCount, "Expected only the pending call to run")
}

func TestStopCancelsPendingCall(t *testing.T) {
	var callCount int
	var mu sync.Mutex

	d := New(20*time.Millisecond, func() {
		mu.Lock()
		callCount++
		mu.Unlock()
	})

	d.Call()
	d.Stop()
	time.Sleep(60 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, callCount, "Expected no call after Stop")
}

func TestOutdatedTimerDoesNotRunNewerCall(t *testing.T) {
	var callCount int
	var mu sync.Mutex

	d := New(time.Hour, func() {
		mu.Lock()
		callCount++
		mu.Unlock()
	})

	d.Call()
	d.mu.Lock()
	outdated := d.gen
	d.mu.Unlock()

	// a newer call lands while the first timer is already firing
	d.Call()
	d.fire(outdated)

	mu.Lock()
	assert.Equal(t, 0, callCount, "Expected the outdated timer to leave the newer call pending")
	mu.Unlock()

	d.Flush()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, callCount, "Expected the newer call to run once on Flush")
}
