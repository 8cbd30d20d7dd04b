// Copyright (c) 2014-2016 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package background_test

import (
	"testing"
	"time"

	"github.com/dashpay/govman/background"
)

const (
	initialCount1 = 246
	finalCount1   = 987654321
	initialCount2 = 777
	finalCount2   = 897645312
)

func TestBackground(t *testing.T) {

	count1 := initialCount1
	count2 := initialCount2

	proc1 := func(args interface{}, shutdown <-chan bool, done chan<- bool) {
		runCounter(t, args.(*testing.T), &count1, initialCount1, finalCount1, shutdown)
		close(done)
	}
	proc2 := func(args interface{}, shutdown <-chan bool, done chan<- bool) {
		runCounter(t, args.(*testing.T), &count2, initialCount2, finalCount2, shutdown)
		close(done)
	}

	processes := background.Processes{proc1, proc2}

	p := background.Start(processes, t)
	time.Sleep(50 * time.Millisecond)
	background.Stop(p)

	if finalCount1 != count1 {
		t.Fatalf("stop failed: final value expected: %d  actual: %d", finalCount1, count1)
	}
	if finalCount2 != count2 {
		t.Fatalf("stop failed: final value expected: %d  actual: %d", finalCount2, count2)
	}
}

func runCounter(t *testing.T, tArg *testing.T, count *int, initial, final int, shutdown <-chan bool) {
	if initial != *count {
		tArg.Errorf("initialisation failed: unexpected initial count: %d", *count)
	}

loop:
	for {
		select {
		case <-shutdown:
			break loop
		default:
		}
		*count += 9
		time.Sleep(time.Millisecond)
	}

	*count = final
}
