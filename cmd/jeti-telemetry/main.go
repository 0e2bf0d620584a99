package main

import (
	"context"
	"os"

	"github.com/diwise/service-chassis/pkg/infrastructure/buildinfo"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
)

const serviceName string = "jeti-telemetry"

func main() {
	serviceVersion := buildinfo.SourceVersion()

	ctx, logger, cleanup := o11y.Init(context.Background(), serviceName, serviceVersion)

	root := newRootCommand(logger)
	root.Version = serviceVersion

	err := root.ExecuteContext(ctx)
	cleanup()

	if err != nil {
		os.Exit(1)
	}
}
