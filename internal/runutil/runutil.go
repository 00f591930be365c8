package runutil

import (
	"log"
	"runtime/debug"
	"sync"
)

// SafeGo launches fn on a new goroutine, logging any panic with a stack trace
// before re-panicking. The curses UI owns the terminal, so a bare panic would
// otherwise vanish without a trace in the log file.
func SafeGo(logger *log.Logger, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Printf("PANIC: %v\n%s", r, debug.Stack())
				panic(r)
			}
		}()
		fn()
	}()
}

// SafeGoWG is SafeGo with WaitGroup bookkeeping: it adds to wg before
// launching and marks done when fn returns, even on panic.
func SafeGoWG(logger *log.Logger, wg *sync.WaitGroup, fn func()) {
	wg.Add(1)
	SafeGo(logger, func() {
		defer wg.Done()
		fn()
	})
}
