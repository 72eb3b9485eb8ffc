package main

import (
	"github.com/akaitrade/node/common"
	"github.com/akaitrade/node/config"
	"github.com/akaitrade/node/ordinal"
)

func init() {
	config.InitSigInt()
}

func main() {
	yamlcfg := config.InitConfig("")
	if yamlcfg == nil {
		common.Log.Panicf("failed to load config")
	}
	config.InitLog(yamlcfg)

	common.Log.Info("Starting...")
	defer func() {
		config.ReleaseRes()
		common.Log.Info("shut down")
	}()

	driver, err := ordinal.NewDriver(yamlcfg.DB.Path, yamlcfg.Checkpoint.Path, notifyExternal, yamlcfg.Index.ProgressEvery)
	if err != nil {
		common.Log.Panicf("failed to open indexer driver: %v", err)
	}

	stopChan := make(chan bool)
	config.RegistSigIntFunc(func() {
		common.Log.Info("handle SIGINT for close ordinal driver")
		close(stopChan)
	})

	// The opaque DAG/block store/P2P transport and the RPC query surface
	// are external collaborators specified only by contract (see
	// SPEC_FULL.md, §1 Out of scope); wiring a concrete block source in
	// is outside this repository's core. runDaemon blocks until signalled.
	go runDaemon(driver, yamlcfg.Index.ForceRebuild, stopChan)

	<-stopChan
	if err := driver.Close(); err != nil {
		common.Log.Errorf("failed to close driver cleanly: %v", err)
	}
	common.Log.Info("prepare to release resource...")
}

// runDaemon is the contract boundary with the external block store: it
// would call driver.OnStartReadFromDB/OnReadFromDB/OnDBReadFinished during
// cold replay and driver.Update/OnRemoveBlock as new blocks and reorgs
// arrive. Until a concrete block source is wired in, it only honors the
// configured rebuild flag and idles.
func runDaemon(driver *ordinal.Driver, forceRebuild bool, stop chan bool) {
	driver.OnStartReadFromDB(forceRebuild, driver.Checkpoint())
	driver.OnDBReadFinished()
	<-stop
}

// notifyExternal is the Notification Hook's single registered callback.
// A real deployment would fan this out to the RPC/WebSocket layer; here
// it just logs, matching the contract in SPEC_FULL.md §4.H.
func notifyExternal(eventKind, payloadJSON string, height, txIndex uint64) {
	common.Log.Infof("notify %s at (%d,%d): %s", eventKind, height, txIndex, payloadJSON)
}
