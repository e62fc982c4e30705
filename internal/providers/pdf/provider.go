// Package pdf renders printable documents with maroto.
package pdf

import (
	"context"

	"go.uber.org/fx"
)

type Provider interface {
	GenerateReceipt(ctx context.Context, data ReceiptData) ([]byte, error)
}

type MarotoProvider struct{}

func NewProvider() Provider {
	return &MarotoProvider{}
}

var Module = fx.Module("pdf",
	fx.Provide(NewProvider),
)
