package fastview

import (
	"context"
	"errors"

	channerics "github.com/niceyeti/channerics/channels"
)

var (
	ErrNoViews error = errors.New("no views to build")
	ErrNoModel error = errors.New("no source or conversion for the view model")
)

// ViewFunc builds a view over a channel of view-models. done closes with the
// builder's context.
type ViewFunc[ViewModel any] func(done <-chan struct{}, models <-chan ViewModel) ViewComponent

// ViewBuilder feeds every view it builds from one source: each item is converted
// once and the result broadcast to all views.
type ViewBuilder[Model any, ViewModel any] struct {
	done    <-chan struct{}
	source  <-chan Model
	convert func(Model) ViewModel
	views   []ViewFunc[ViewModel]
}

// NewViewBuilder returns a builder converting items of source with convert until
// ctx is done.
func NewViewBuilder[Model any, ViewModel any](
	ctx context.Context,
	source <-chan Model,
	convert func(Model) ViewModel,
) *ViewBuilder[Model, ViewModel] {
	return &ViewBuilder[Model, ViewModel]{
		done:    ctx.Done(),
		source:  source,
		convert: convert,
	}
}

// WithView queues views to build. Build returns them in the order queued.
func (vb *ViewBuilder[Model, ViewModel]) WithView(fns ...ViewFunc[ViewModel]) *ViewBuilder[Model, ViewModel] {
	vb.views = append(vb.views, fns...)
	return vb
}

func (vb *ViewBuilder[Model, ViewModel]) Build() ([]ViewComponent, error) {
	switch {
	case vb.source == nil || vb.convert == nil:
		return nil, ErrNoModel
	case len(vb.views) == 0:
		return nil, ErrNoViews
	}

	models := channerics.Broadcast(
		vb.done,
		channerics.Convert(vb.done, vb.source, vb.convert),
		len(vb.views))
	views := make([]ViewComponent, len(vb.views))
	for i, build := range vb.views {
		views[i] = build(vb.done, models[i])
	}
	return views, nil
}
