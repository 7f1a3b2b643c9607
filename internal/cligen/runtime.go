package cligen

import (
	"context"
	"sync"

	"github.com/camundactl/camundactl/internal/enginehttp"
)

// Doer sends one request to the selected engine. *enginehttp.Client
// implements it.
type Doer interface {
	Do(ctx context.Context, r enginehttp.Request) (*enginehttp.Result, error)
}

// ClientSource hands out the engine client. Commands call it only when they
// run, after global flags such as --engine have been parsed.
type ClientSource func() (Doer, error)

// LazyClient builds the client on first use and reuses the result,
// including a build error.
func LazyClient(build func() (Doer, error)) ClientSource {
	var (
		once   sync.Once
		client Doer
		err    error
	)
	return func() (Doer, error) {
		once.Do(func() { client, err = build() })
		return client, err
	}
}

// StaticClient always returns d.
func StaticClient(d Doer) ClientSource {
	return func() (Doer, error) { return d, nil }
}
