// Package sqsgath streams benchmark progress messages to an SQS queue.
package sqsgath

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/metassr/bench/api"
	"github.com/metassr/bench/internal/gatherer"
	"github.com/metassr/bench/internal/results"
	"github.com/metassr/bench/internal/scenario"
	"github.com/metassr/bench/internal/wrk"
)

type sqsGatherer struct {
	sqsClient *sqs.Client
	queueUrl  string
	runUuid   string
	log       *slog.Logger
}

// New creates a gatherer publishing to the given SQS queue.
func New(ctx context.Context, runUuid string, queueUrl string, region string, log *slog.Logger) (gatherer.Gatherer, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return &sqsGatherer{
		sqsClient: sqs.NewFromConfig(cfg),
		queueUrl:  queueUrl,
		runUuid:   runUuid,
		log:       log,
	}, nil
}

func (g *sqsGatherer) send(msg interface{}) {
	b, err := json.Marshal(msg)
	if err != nil {
		g.log.Warn("failed to marshal gatherer message", "error", err)
		return
	}
	_, err = g.sqsClient.SendMessage(context.TODO(), &sqs.SendMessageInput{
		QueueUrl:    aws.String(g.queueUrl),
		MessageBody: aws.String(string(b)),
	})
	if err != nil {
		g.log.Warn("failed to send gatherer message to SQS", "error", err)
	}
}

func (g *sqsGatherer) StartRun(systemInfo string) {
	g.send(api.NewStartedRun(g.runUuid, systemInfo))
}

func (g *sqsGatherer) StartCandidate(candidate string, mode string) {
	g.send(api.NewStartedCandidate(g.runUuid, candidate, mode))
}

func (g *sqsGatherer) StartBuild(candidate string) {
	g.send(api.NewStartedBuild(g.runUuid, candidate))
}

func (g *sqsGatherer) FinishBuild(candidate string, err error) {
	g.send(api.NewFinishedBuild(g.runUuid, candidate, gatherer.ErrMsg(err)))
}

func (g *sqsGatherer) StartScenario(candidate string, sc scenario.Scenario) {
	g.send(api.NewStartedScenario(g.runUuid, candidate, sc.Name, sc.Threads, sc.Connections, sc.DurationSec))
}

func (g *sqsGatherer) FinishScenario(candidate string, sc scenario.Scenario, rec *wrk.MetricRecord, err error) {
	g.send(api.NewFinishedScenario(g.runUuid, candidate, sc.Name, gatherer.MapMetrics(rec), gatherer.ErrMsg(err)))
}

func (g *sqsGatherer) FinishCandidate(candidate string, status results.EntryStatus) {
	g.send(api.NewFinishedCandidate(g.runUuid, candidate, string(status)))
}

func (g *sqsGatherer) FinishRun(err error) {
	g.send(api.NewFinishedRun(g.runUuid, gatherer.ErrMsg(err)))
}
