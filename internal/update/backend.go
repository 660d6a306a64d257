package update

import (
	"context"
	"time"

	"github.com/sandeepkv93/remindd/internal/app"
	"github.com/sandeepkv93/remindd/internal/model"
)

type appBackend struct {
	app *app.App
}

// NewAppBackend exposes a started App to the page.
func NewAppBackend(a *app.App) Backend {
	return appBackend{app: a}
}

func (b appBackend) Tasks() []model.Task      { return b.app.Router().Tasks() }
func (b appBackend) Events() <-chan app.Event { return b.app.Events() }

func (b appBackend) Apply(ctx context.Context, ev model.ActionEvent) error {
	return b.app.Router().Apply(ctx, ev)
}

func (b appBackend) Create(ctx context.Context, name string, at time.Time, repeat model.Repeat) (model.Task, error) {
	return b.app.Router().Create(ctx, name, at, repeat)
}

func (b appBackend) Edit(ctx context.Context, id int64, name string, at time.Time, repeat model.Repeat) (model.Task, error) {
	return b.app.Router().Edit(ctx, id, name, at, repeat)
}

func (b appBackend) Delete(ctx context.Context, id int64) error {
	return b.app.Router().Delete(ctx, id)
}

func (b appBackend) Toggle(ctx context.Context, id int64) (model.Task, error) {
	return b.app.Router().Toggle(ctx, id)
}

func (b appBackend) TestReminder(ctx context.Context) (model.Task, error) {
	return b.app.TestReminder(ctx)
}
