package app

import (
	"context"

	"github.com/sandeepkv93/remindd/internal/bridge"
	"github.com/sandeepkv93/remindd/internal/config"
	"github.com/sandeepkv93/remindd/internal/logging"
	"github.com/sandeepkv93/remindd/internal/notify"
	"github.com/sandeepkv93/remindd/internal/poller"
)

// Worker is the background context. It shares nothing with a page except
// the ledger and the mailbox.
type Worker struct {
	poller   *poller.Poller
	delivery *notify.Delivery
	bus      *bridge.Bus
}

func NewWorker(cfg config.Config, deps Deps) *Worker {
	if deps.Notifier == nil || !cfg.Notifications.Enabled {
		deps.Notifier = notify.NoopNotifier{}
	}
	log := deps.Logger
	bus := bridge.NewBus(deps.Mailbox, deps.Now, logging.Component(log, "bus"))
	delivery := notify.NewDelivery(deps.Notifier, bus, notify.DeliveryOptions{
		AppURL:        cfg.AppURL,
		SnoozeMinutes: cfg.Notifications.SnoozeMinutes,
		ActionTimeout: cfg.Poll.ActionTimeout,
		Logger:        logging.Component(log, "notify"),
	})
	return &Worker{
		poller:   newPoller(cfg, deps, delivery, bus),
		delivery: delivery,
		bus:      bus,
	}
}

func (w *Worker) PollOnce(ctx context.Context) (poller.Result, error) {
	return w.poller.PollOnce(ctx)
}

func (w *Worker) Run(ctx context.Context, wake <-chan string) error {
	return w.poller.Run(ctx, wake)
}

// Wait blocks until shown notifications are answered or time out.
func (w *Worker) Wait() {
	w.delivery.Wait()
}

func (w *Worker) Close() {
	w.delivery.Close()
}

// NewPoller returns a poller that runs inside the page process and shares
// its delivery and bus.
func (a *App) NewPoller() *poller.Poller {
	return newPoller(a.cfg, Deps{Repo: a.repo, Now: a.now, Logger: a.baseLog}, a.delivery, a.bus)
}

func newPoller(cfg config.Config, deps Deps, delivery *notify.Delivery, bus *bridge.Bus) *poller.Poller {
	return poller.New(deps.Repo, delivery, bus, poller.Options{
		Interval:         cfg.Poll.Interval,
		AcceptanceWindow: cfg.Poll.AcceptanceWindow,
		Now:              deps.Now,
		Logger:           logging.Component(deps.Logger, "poller"),
	})
}
