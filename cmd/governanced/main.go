// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/getoptions"
	"github.com/bitmark-inc/logger"

	"github.com/dashpay/govman/govman"
	"github.com/dashpay/govman/background"
	"github.com/dashpay/govman/bus"
	"github.com/dashpay/govman/contentstore"
	"github.com/dashpay/govman/internal/config"
	"github.com/dashpay/govman/util"
	"github.com/dashpay/govman/zmqutil"
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

func main() {
	// ensure exit handler is first
	defer exitwithstatus.Handler()

	flags := []getoptions.Option{
		{Long: "help", HasArg: getoptions.NO_ARGUMENT, Short: 'h'},
		{Long: "version", HasArg: getoptions.NO_ARGUMENT, Short: 'V'},
		{Long: "quiet", HasArg: getoptions.NO_ARGUMENT, Short: 'q'},
		{Long: "config-file", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'c'},
	}

	program, options, _, err := getoptions.GetOS(flags)
	if nil != err {
		exitwithstatus.Message("%s: getoptions error: %s", program, err)
	}

	if len(options["version"]) > 0 {
		fmt.Printf("%s: version: %s\n", program, version)
		return
	}

	if len(options["help"]) > 0 {
		fmt.Printf("usage: %s --config-file=FILE [--quiet]\n", program)
		return
	}

	if 1 != len(options["config-file"]) {
		exitwithstatus.Message("%s: only one config-file option is required, %d were detected", program, len(options["config-file"]))
	}

	theConfiguration, err := config.Load(options["config-file"][0])
	if nil != err {
		exitwithstatus.Message("%s: failed to read configuration from: %q  error: %s", program, options["config-file"][0], err)
	}

	// start logging
	if err = logger.Initialise(theConfiguration.Logging); nil != err {
		exitwithstatus.Message("%s: logger setup failed with error: %s", program, err)
	}
	defer logger.Finalise()

	log := logger.New("main")
	defer log.Info("finished")
	log.Info("starting…")
	log.Infof("version: %s", version)
	log.Debugf("theConfiguration: %v", theConfiguration)

	if "" != theConfiguration.PidFile {
		theConfiguration.PidFile = util.EnsureAbsolute(theConfiguration.DataDirectory, theConfiguration.PidFile)
	}
	if "" != theConfiguration.SnapshotFile {
		theConfiguration.SnapshotFile = util.EnsureAbsolute(theConfiguration.DataDirectory, theConfiguration.SnapshotFile)
	}

	// optional PID file, matching command/bitmarkd/main.go's convention
	if "" != theConfiguration.PidFile {
		lockFile, err := os.OpenFile(theConfiguration.PidFile, os.O_WRONLY|os.O_EXCL|os.O_CREATE, os.ModeExclusive|0600)
		if err != nil {
			if os.IsExist(err) {
				exitwithstatus.Message("%s: another instance is already running", program)
			}
			exitwithstatus.Message("%s: PID file: %q creation failed, error: %s", program, theConfiguration.PidFile, err)
		}
		fmt.Fprintf(lockFile, "%d\n", os.Getpid())
		lockFile.Close()
		defer os.Remove(theConfiguration.PidFile)
	}

	store, err := contentstore.New(theConfiguration.ContentStore.Endpoint, theConfiguration.ContentStore.Timeout)
	if nil != err {
		log.Criticalf("contentstore initialise error: %s", err)
		exitwithstatus.Message("contentstore initialise error: %s", err)
	}

	observer, closeObserver := newObserverBus(log, theConfiguration.Observer)
	if closeObserver != nil {
		defer closeObserver()
	}

	manager := govman.New(
		govman.Collaborators{
			Chain:        placeholderChain{consensus: govman.ConsensusParams{SuperblockCycleSeconds: theConfiguration.RateLimits.SuperblockCycleSeconds}},
			Masternodes:  placeholderMasternodes{},
			SyncOracle:   placeholderSyncOracle{},
			Peers:        nil, // peer transport is out of scope (spec.md §1); supplied by the host node
			ContentStore: store,
			Observer:     observer,
			Triggers:     nil, // no trigger/superblock-execution collaborator in standalone mode
			Verifier:     nil, // no signature collaborator in standalone mode
		},
		govman.RateLimitConfig{
			BufferSize:             theConfiguration.RateLimits.BufferSize,
			SuperblockCycleSeconds: theConfiguration.RateLimits.SuperblockCycleSeconds,
		},
		govman.CacheSizeConfig{
			VoteToObjectSize: theConfiguration.Cache.VoteToObjectSize,
			InvalidVoteSize:  theConfiguration.Cache.InvalidVoteSize,
			OrphanVoteSize:   theConfiguration.Cache.OrphanVoteSize,
		},
	)

	if "" != theConfiguration.SnapshotFile {
		if f, err := os.Open(theConfiguration.SnapshotFile); nil == err {
			err = manager.LoadSnapshot(f)
			f.Close()
			if nil != err {
				log.Criticalf("snapshot load error: %s", err)
				exitwithstatus.Message("snapshot load error: %s", err)
			}
		} else if !os.IsNotExist(err) {
			log.Criticalf("snapshot open error: %s", err)
			exitwithstatus.Message("snapshot open error: %s", err)
		}
	}

	if err := manager.Initialise(); nil != err {
		log.Criticalf("governance manager initialise error: %s", err)
		exitwithstatus.Message("governance manager initialise error: %s", err)
	}
	defer manager.Finalise()

	processes := background.Processes{
		manager.MaintenanceProcess(theConfiguration.Maintenance.Interval, manager.LocalValidity),
	}
	maintenance := background.Start(processes, nil)
	defer background.Stop(maintenance)

	if 0 == len(options["quiet"]) {
		fmt.Printf("\n\nWaiting for CTRL-C (SIGINT) or 'kill <pid>' (SIGTERM)…")
	}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	sig := <-ch
	log.Infof("received signal: %v", sig)
	if 0 == len(options["quiet"]) {
		fmt.Printf("\nreceived signal: %v\n", sig)
		fmt.Printf("\nshutting down…\n")
	}
	log.Info("shutting down…")

	if "" != theConfiguration.SnapshotFile {
		f, err := os.Create(theConfiguration.SnapshotFile)
		if nil != err {
			log.Errorf("snapshot create error: %s", err)
		} else {
			if err := manager.SaveSnapshot(f); nil != err {
				log.Errorf("snapshot save error: %s", err)
			}
			f.Close()
		}
	}
}

// newObserverBus constructs the ZMQ observer bus if the configuration lists
// any listen addresses, falling back to bus.NullBus otherwise (e.g. for a
// first run with no keys provisioned yet). The returned close func is nil
// when no socket was opened.
func newObserverBus(log *logger.L, cfg config.ObserverBus) (govman.ObserverBus, func()) {
	if len(cfg.Listen) == 0 {
		log.Info("observer bus: no listen addresses configured, using NullBus")
		return bus.NullBus{}, nil
	}

	if err := zmqutil.StartAuthentication(); nil != err {
		log.Criticalf("zmq.AuthStart: error: %s", err)
		exitwithstatus.Message("zmq.AuthStart: error: %s", err)
	}

	privateKeyData, err := os.ReadFile(cfg.PrivateKey)
	if nil != err {
		log.Criticalf("observer bus: read private key file: %q  error: %s", cfg.PrivateKey, err)
		exitwithstatus.Message("observer bus: read private key file: %q  error: %s", cfg.PrivateKey, err)
	}
	privateKey, err := zmqutil.ReadPrivateKey(string(privateKeyData))
	if nil != err {
		log.Criticalf("observer bus: parse private key: %s", err)
		exitwithstatus.Message("observer bus: parse private key: %s", err)
	}

	publicKeyData, err := os.ReadFile(cfg.PublicKey)
	if nil != err {
		log.Criticalf("observer bus: read public key file: %q  error: %s", cfg.PublicKey, err)
		exitwithstatus.Message("observer bus: read public key file: %q  error: %s", cfg.PublicKey, err)
	}
	publicKey, err := zmqutil.ReadPublicKey(string(publicKeyData))
	if nil != err {
		log.Criticalf("observer bus: parse public key: %s", err)
		exitwithstatus.Message("observer bus: parse public key: %s", err)
	}

	zmqBus, err := bus.New(cfg.Listen, privateKey, publicKey)
	if nil != err {
		log.Criticalf("observer bus initialise error: %s", err)
		exitwithstatus.Message("observer bus initialise error: %s", err)
	}
	return zmqBus, func() { zmqBus.Close() }
}
