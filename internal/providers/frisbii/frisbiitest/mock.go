// Package frisbiitest provides testify mocks of the gateway for service tests.
package frisbiitest

import (
	"context"

	"github.com/limaskap/limaskap/internal/providers/frisbii"
	"github.com/stretchr/testify/mock"
)

type Gateway struct {
	mock.Mock
}

func (g *Gateway) CreateChargeSession(ctx context.Context, req frisbii.SessionRequest) (*frisbii.SessionResponse, error) {
	args := g.Called(ctx, req)
	resp, _ := args.Get(0).(*frisbii.SessionResponse)
	return resp, args.Error(1)
}

func (g *Gateway) GetCharge(ctx context.Context, handleOrID string) (*frisbii.Charge, error) {
	args := g.Called(ctx, handleOrID)
	resp, _ := args.Get(0).(*frisbii.Charge)
	return resp, args.Error(1)
}

func (g *Gateway) GetInvoice(ctx context.Context, handle string) (*frisbii.Invoice, error) {
	args := g.Called(ctx, handle)
	resp, _ := args.Get(0).(*frisbii.Invoice)
	return resp, args.Error(1)
}

func (g *Gateway) CreateCustomer(ctx context.Context, customer frisbii.Customer) (*frisbii.Customer, error) {
	args := g.Called(ctx, customer)
	resp, _ := args.Get(0).(*frisbii.Customer)
	return resp, args.Error(1)
}

func (g *Gateway) GetCustomer(ctx context.Context, handle string) (*frisbii.Customer, error) {
	args := g.Called(ctx, handle)
	resp, _ := args.Get(0).(*frisbii.Customer)
	return resp, args.Error(1)
}

// Factory hands out the same gateway for every key and records which keys were used.
type Factory struct {
	Gateway *Gateway
	Keys    []string
}

func NewFactory() *Factory {
	return &Factory{Gateway: &Gateway{}}
}

func (f *Factory) ForOrganization(apiKey string) frisbii.Gateway {
	f.Keys = append(f.Keys, apiKey)
	return f.Gateway
}

var (
	_ frisbii.Gateway       = (*Gateway)(nil)
	_ frisbii.ClientFactory = (*Factory)(nil)
)
