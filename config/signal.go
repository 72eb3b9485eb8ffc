package config

import (
	"os"
	"os/signal"

	"github.com/akaitrade/node/common"
)

// forceExitAfter is how many SIGINTs it takes to bypass graceful shutdown
// and exit immediately.
const forceExitAfter = 3

var (
	SigInt chan os.Signal

	shutdownHooks []func()
)

// InitSigInt starts a goroutine that runs every registered shutdown hook on
// the first Ctrl-C, and force-exits on the third — for an operator whose
// graceful shutdown hung.
func InitSigInt() {
	SigInt = make(chan os.Signal, 100)
	signal.Notify(SigInt, os.Interrupt)

	go func() {
		count := 0
		for range SigInt {
			count++
			common.Log.Infof("received SIGINT (count %d); %d will force exit", count, forceExitAfter)
			switch {
			case count >= forceExitAfter:
				ReleaseRes()
				os.Exit(1)
			case count == 1:
				for _, hook := range shutdownHooks {
					go hook()
				}
			}
		}
	}()
}

// RegistSigIntFunc registers a callback run on the first SIGINT.
func RegistSigIntFunc(callback func()) {
	shutdownHooks = append(shutdownHooks, callback)
}

// ReleaseRes releases any resources that must not be left in the caller's
// hands on a forced exit. No-op: the driver closes its own KV store and
// checkpoint file via its registered shutdown hook instead.
func ReleaseRes() {
}
