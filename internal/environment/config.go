// Package environment reads optional harness configuration from the
// process environment, with .env support for local development.
package environment

import (
	"os"

	"github.com/joho/godotenv"
)

type EnvConfig struct {
	// NatsUrl and NatsSubject enable the NATS progress gatherer.
	NatsUrl     string
	NatsSubject string
	// SqsQueueUrl enables the SQS progress gatherer.
	SqsQueueUrl string
	AwsRegion   string
}

func ReadEnvConfig() *EnvConfig {
	// .env is optional; plain env vars win when both are present.
	_ = godotenv.Load()

	cfg := &EnvConfig{
		NatsUrl:     os.Getenv("BENCH_NATS_URL"),
		NatsSubject: os.Getenv("BENCH_NATS_SUBJECT"),
		SqsQueueUrl: os.Getenv("BENCH_SQS_URL"),
		AwsRegion:   os.Getenv("BENCH_AWS_REGION"),
	}
	if cfg.NatsSubject == "" {
		cfg.NatsSubject = "bench.progress"
	}
	if cfg.AwsRegion == "" {
		cfg.AwsRegion = "eu-central-1"
	}
	return cfg
}
