// Package services holds the holder's business logic. Services take their
// collaborators as narrow interfaces; *agent.Client satisfies all of the
// agent-facing ones.
package services

import (
	"context"

	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/agent"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/invitation"
	"github.com/deveshyaara/CryptLocker-Jovian786/internal/holder/models"
)

type ConnectionAgent interface {
	ReceiveInvitation(ctx context.Context, inv *invitation.Payload, alias string) (*agent.ConnectionRecord, error)
	ListConnections(ctx context.Context, state string) ([]agent.ConnectionRecord, error)
	GetConnection(ctx context.Context, id string) (*agent.ConnectionRecord, error)
	AcceptInvitation(ctx context.Context, id string) (*agent.ConnectionRecord, error)
	DeleteConnection(ctx context.Context, id string) error
}

type DIDCreator interface {
	CreateDID(ctx context.Context) (*models.DID, error)
}

type WalletAgent interface {
	DIDCreator
	GetPublicDID(ctx context.Context) (*models.DID, error)
	ListDIDs(ctx context.Context) ([]models.DID, error)
	Status(ctx context.Context) (map[string]any, error)
}

type CredentialAgent interface {
	ListCredentialOffers(ctx context.Context) ([]agent.CredentialExchange, error)
	RequestCredential(ctx context.Context, exchangeID string) (*agent.CredentialExchange, error)
	StoreCredential(ctx context.Context, exchangeID, credentialID string) (*agent.CredentialExchange, error)
	ListCredentials(ctx context.Context, wql string) ([]agent.WalletCredential, error)
	GetCredential(ctx context.Context, id string) (*agent.WalletCredential, error)
	DeleteCredential(ctx context.Context, id string) error
	ListProofRequests(ctx context.Context) ([]agent.PresentationExchange, error)
	SendPresentation(ctx context.Context, exchangeID string, presentation map[string]any) (*agent.PresentationExchange, error)
}

var (
	_ ConnectionAgent = (*agent.Client)(nil)
	_ WalletAgent     = (*agent.Client)(nil)
	_ CredentialAgent = (*agent.Client)(nil)
)
