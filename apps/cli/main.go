package main

import (
	"log"
	"os"

	"github.com/jonboulle/clockwork"

	"github.com/eaduck/client/core"
	"github.com/eaduck/client/core/sched"
	"github.com/eaduck/client/core/session"
	"github.com/eaduck/client/core/syncer"
	gwsvc "github.com/eaduck/client/services/gateway"
	logsvc "github.com/eaduck/client/services/logger"
	"github.com/eaduck/client/storage/credstore"
)

func main() {
	std := log.New(os.Stderr, "eaduck ", log.LstdFlags)

	var logger core.Logger
	if core.Conf.GetString("rollbarToken") != "" {
		logger = logsvc.NewRollbarLogger(std)
	} else {
		logger = logsvc.NewConsoleLogger(std)
	}

	scheduler, err := sched.New(logger)
	if err != nil {
		std.Fatal(err)
	}

	store := credstore.NewFileStore(core.Conf.GetString("credentialFile"), logger)
	client := gwsvc.NewClient(logger)
	mgr := session.NewManager(store, client, scheduler, clockwork.NewRealClock(), logger)
	client.SetTokenSource(mgr.Token)

	cli := &commandLine{
		mgr:    mgr,
		gw:     client,
		reg:    syncer.NewRegistry(scheduler, mgr, logger),
		sched:  scheduler,
		logger: logger,
	}
	if err := cli.run(os.Args); err != nil {
		if err == errHelp {
			os.Exit(2)
		}
		std.Fatal(err)
	}
}
