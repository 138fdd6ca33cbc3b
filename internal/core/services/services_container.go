package services

import (
	portsrepo "github.com/SscSPs/splitledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/splitledger/internal/core/ports/services"
	"github.com/SscSPs/splitledger/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, notifier portssvc.Notifier) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Settlement = NewSettlementService(
		repos,
		WithNotifier(notifier),
		WithSettlementEpsilon(cfg.SettlementEpsilon),
		WithSharePolicy(cfg.ShareDecimalPlaces, cfg.ShareTolerance),
		WithPayerInSplitRequired(cfg.RequirePayerInSplit),
	)

	container.Account = NewAccountService(repos)

	return container
}
