/*
 * Copyright (c) 2019 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package runqueue

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunQueueConsistency(t *testing.T) {
	var i int32

	var wg sync.WaitGroup
	fn := func() {
		i++
		wg.Done()
	}

	rq := New("test")

	for i := 0; i < 2000; i++ {
		wg.Add(1)
		rq.Run(fn)
		if i%2 == 1 {
			time.Sleep(time.Microsecond)
		}
	}
	wg.Wait()

	require.Equal(t, int32(2000), i)
}

func TestRunQueueOrder(t *testing.T) {
	var order []int
	done := make(chan struct{})

	rq := New("test")
	for i := 0; i < 100; i++ {
		i := i
		rq.Run(func() { order = append(order, i) })
	}
	rq.Run(func() { close(done) })
	<-done

	for i := range order {
		require.Equal(t, i, order[i])
	}
}

func TestRunQueuePanicRecovery(t *testing.T) {
	done := make(chan struct{})

	rq := New("test")
	rq.Run(func() { panic("boom") })
	rq.Run(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		require.Fail(t, "queue stalled after panic")
	}
}

func TestRunQueueStop(t *testing.T) {
	var executed bool
	fn := func() {
		time.Sleep(time.Millisecond * 100)
		executed = true
	}
	rq := New("test")
	rq.Run(fn)

	c := make(chan struct{})
	rq.Stop(func() { close(c) })

	select {
	case <-c:
		require.True(t, executed)
	case <-time.NewTimer(time.Second).C:
		require.Fail(t, "close channel timeout")
	}

	// discarded once stopped
	rq.Run(func() { require.Fail(t, "must not run") })
	time.Sleep(time.Millisecond * 10)

	idle := New("idle")
	stopped := false
	idle.Stop(func() { stopped = true })
	require.True(t, stopped)
}
