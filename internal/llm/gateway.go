package llm

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"opinionpulse/internal/util/jsonutil"
)

// Gateway is the sole point of contact with the external completion service.
// It retries transient failures with exponential backoff and jitter, runs one
// format-repair pass on structural failures, and records every call (success
// or not) in the run's UsageTracker.
type Gateway struct {
	client    Client
	usage     *UsageTracker
	retryMax  int
	baseDelay time.Duration
}

// GatewayOptions tunes retry behavior. Zero values fall back to defaults.
type GatewayOptions struct {
	RetryMax  int
	BaseDelay time.Duration
}

func NewGateway(client Client, usage *UsageTracker, opts GatewayOptions) *Gateway {
	if opts.RetryMax <= 0 {
		opts.RetryMax = 3
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = 500 * time.Millisecond
	}
	return &Gateway{
		client:    client,
		usage:     usage,
		retryMax:  opts.RetryMax,
		baseDelay: opts.BaseDelay,
	}
}

// Client exposes the wrapped client, mainly for CountTokens.
func (g *Gateway) Client() Client { return g.client }

// Complete issues one structured-output request and unmarshals the response
// into out. On a structural failure it re-asks once with the parse error
// appended; on transient failures it retries with backoff. After exhausting
// retries the error is a *GatewayError.
func (g *Gateway) Complete(ctx context.Context, operation string, req Request, out any) error {
	resp, err := g.generateWithRetry(ctx, operation, req)
	if err != nil {
		return err
	}

	if err := jsonutil.Unmarshal([]byte(resp.Text), out); err == nil {
		return nil
	} else {
		log.Printf("LLM response for %s failed validation, repairing: %v", operation, err)
		repair := req
		repair.Prompt = req.Prompt + fmt.Sprintf(
			"\n\nYour previous response was not valid for this request (%v). "+
				"Respond again with ONLY the requested JSON.", err)
		resp, rerr := g.generateWithRetry(ctx, operation+"_repair", repair)
		if rerr != nil {
			return rerr
		}
		if uerr := jsonutil.Unmarshal([]byte(resp.Text), out); uerr != nil {
			return &GatewayError{Kind: KindInvalidResponse, Err: uerr}
		}
		return nil
	}
}

func (g *Gateway) generateWithRetry(ctx context.Context, operation string, req Request) (*Response, error) {
	var lastErr error
	var lastKind ErrorKind

	usage := UsageFrom(ctx)
	if usage == nil {
		usage = g.usage
	}

	for attempt := 0; attempt < g.retryMax; attempt++ {
		if attempt > 0 {
			delay := g.baseDelay * time.Duration(1<<(attempt-1))
			delay += time.Duration(rand.Int63n(int64(g.baseDelay)))
			select {
			case <-ctx.Done():
				return nil, &GatewayError{Kind: KindTimeout, Err: ctx.Err()}
			case <-time.After(delay):
			}
		}

		start := time.Now()
		resp, err := g.client.Generate(WithPhase(ctx, operation), req)
		duration := time.Since(start)

		if err == nil {
			usage.Record(operation, resp.InputTokens, resp.OutputTokens, duration)
			return resp, nil
		}

		// Failed calls with no billable response record zero tokens.
		usage.Record(operation, 0, 0, duration)
		lastErr = err
		lastKind = Classify(err)

		if ctx.Err() != nil {
			return nil, &GatewayError{Kind: KindTimeout, Err: ctx.Err()}
		}
		if !Transient(lastKind) {
			break
		}
	}
	return nil, &GatewayError{Kind: lastKind, Err: lastErr}
}
