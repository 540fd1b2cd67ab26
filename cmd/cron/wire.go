//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package main

import (
	"brightcopy/plan-service/internal/biz"
	"brightcopy/plan-service/internal/conf"
	"brightcopy/plan-service/internal/data"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// wireApp init the cron application.
func wireApp(*conf.Bootstrap, log.Logger) (*cronApp, func(), error) {
	panic(wire.Build(data.ProviderSet, biz.ProviderSet, newCronApp))
}
