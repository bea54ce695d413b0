// Command counter-sweeper is the Lambda function attached to the enrollments
// table stream. It repairs the counters of hackathons whose approved
// enrollments changed.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/goliatone/go-hackathon-store/config"
	"github.com/goliatone/go-hackathon-store/pkg/di"
	"github.com/goliatone/go-hackathon-store/stream"
)

func main() {
	cfg, err := config.Load(os.Getenv("HACKATHON_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	cfg.Backend = config.BackendDynamoDB

	logger := cfg.NewLogger(os.Stderr)

	container, err := di.NewContainer(context.Background(), cfg, di.WithLogger(logger))
	if err != nil {
		logger.Error("failed to build container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	handler := stream.NewHandler(container.Sweeper(), logger,
		stream.WithSettleDelay(cfg.Sweep.SettleDelay),
	)
	lambda.Start(handler.HandleEnrollmentChanges)
}
