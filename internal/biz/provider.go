package biz

import "github.com/google/wire"

// ProviderSet is biz providers.
var ProviderSet = wire.NewSet(
	NewAdminGuard,
	NewQuotaUsecase,
	NewAdminUsecase,
	NewSweeperUsecase,
	NewReportingUsecase,
)
