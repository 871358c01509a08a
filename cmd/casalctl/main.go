// Command casalctl manages a household ledger from the terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"casal/internal/cli"
	"casal/internal/config"
	applog "casal/internal/log"
	"casal/internal/services"
	"casal/internal/store"
)

// app is what every subcommand runs against.
type app struct {
	store    store.Store
	couples  *services.CoupleService
	expenses *services.ExpenseService
	incomes  *services.IncomeService
	settle   *services.SettlementService
	closeFn  func() error
}

func newApp(st store.Store, pub services.ChangePublisher, closeFn func() error) *app {
	return &app{
		store:    st,
		couples:  services.NewCoupleService(st),
		expenses: services.NewExpenseService(st, pub),
		incomes:  services.NewIncomeService(st, pub),
		settle:   services.NewSettlementService(st, pub),
		closeFn:  closeFn,
	}
}

type opener func(ctx context.Context, logLevel string) (*app, error)

// openFromEnv opens the backend configured by the environment. Logs go to
// stderr so they never mix with command output.
func openFromEnv(ctx context.Context, logLevel string) (*app, error) {
	cli.LoadEnvFile()
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return nil, err
	}
	lvl, err := config.ParseLevel(logLevel)
	if err != nil {
		return nil, err
	}
	logger := applog.New(applog.Config{Level: lvl, Component: applog.ComponentCLI, Output: os.Stderr})
	applog.SetDefault(logger)

	res, err := cli.OpenBackend(ctx, logger.Logger, cfg)
	if err != nil {
		return nil, err
	}
	return newApp(res.Store, res.Publisher, res.Cleanup), nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(openFromEnv).ExecuteContext(ctx)
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
