package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/eaduck/client/core"
	"github.com/eaduck/client/core/notification"
	"github.com/eaduck/client/core/sched"
	"github.com/eaduck/client/core/session"
	"github.com/eaduck/client/core/submission"
	"github.com/eaduck/client/core/syncer"
	"github.com/eaduck/client/core/task"
	gwsvc "github.com/eaduck/client/services/gateway"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	mgr    *session.Manager
	gw     *gwsvc.Client
	reg    *syncer.Registry
	sched  *sched.Scheduler
	logger core.Logger
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  login -email EMAIL - log in; the password will be prompted next")
	fmt.Println("  watch              - follow tasks, submissions and notifications")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	loginCmd := flag.NewFlagSet("login", flag.ExitOnError)
	loginEmail := loginCmd.String("email", "", "The account's email address.")

	switch args[1] {
	case "login":
		if err := loginCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *loginEmail == "" {
			loginCmd.Usage()
			return errHelp
		}
		fmt.Print("Enter password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			loginCmd.Usage()
			return errHelp
		}
		return cli.login(*loginEmail, string(pwd))
	case "watch":
		return cli.watch()
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) login(email, pwd string) error {
	ctx, cancel := context.WithTimeout(context.Background(), core.Conf.GetDuration("requestTimeout"))
	defer cancel()

	ident, err := cli.mgr.Login(ctx, session.Credentials{Email: email, Password: pwd})
	if err != nil {
		return err
	}
	fmt.Printf("Logged in as %s (%s)\n", ident.Email, ident.Role)
	return nil
}

func (cli *commandLine) watch() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.mgr.Init(ctx); err != nil {
		return err
	}
	if !cli.mgr.IsAuthenticated() {
		return errors.New("not logged in; run `login` first")
	}
	ident := *cli.mgr.CurrentIdentity()

	interval := core.Conf.GetDuration("pollInterval")

	tasksFeed, err := syncer.StartFeed(cli.reg, "tasks", cli.gw.Tasks, interval)
	if err != nil {
		return err
	}
	subsFetch := cli.gw.MySubmissions
	if ident.IsStaff() {
		subsFetch = cli.gw.AllSubmissions
	}
	subsFeed, err := syncer.StartFeed(cli.reg, "submissions", subsFetch, interval)
	if err != nil {
		return err
	}
	notifsFeed, err := syncer.StartFeed(cli.reg, "notifications", func(ctx context.Context) ([]notification.Notification, error) {
		cur := cli.mgr.CurrentIdentity()
		if cur == nil {
			return nil, errors.New("no current identity")
		}
		return cli.gw.UserNotifications(ctx, cur.ID)
	}, interval)
	if err != nil {
		return err
	}

	render := func() {
		now := time.Now()
		subs := subsFeed.Snapshot()
		filtered := task.ApplyFilters(tasksFeed.Snapshot(), subs, ident, task.Criteria{}, now)
		sum := task.Summarize(filtered, subs, ident, now)
		unread := notification.UnreadCount(notifsFeed.Snapshot())
		fmt.Printf("tasks: %d total, %d concluidas, %d pendentes, %d atrasadas | %d unread notifications\n",
			sum.Total, sum.Concluidas, sum.Pendentes, sum.Atrasadas, unread)
	}
	tasksFeed.Subscribe(func([]task.Task) { render() })
	subsFeed.Subscribe(func([]submission.Submission) { render() })
	notifsFeed.Subscribe(func([]notification.Notification) { render() })

	cli.mgr.Subscribe(func(cur *session.Identity) {
		if cur == nil {
			fmt.Println("Session expired; run `login` again.")
			stop()
		}
	})

	cli.sched.Start()
	<-ctx.Done()
	return cli.sched.Shutdown()
}
