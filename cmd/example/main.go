package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/dockerhttp/internal/codec"
	"github.com/GriffinCanCode/dockerhttp/internal/example"
	"github.com/GriffinCanCode/dockerhttp/internal/fixtures"
	"github.com/GriffinCanCode/dockerhttp/internal/infrastructure/config"
	"github.com/GriffinCanCode/dockerhttp/internal/infrastructure/logging"
	"github.com/GriffinCanCode/dockerhttp/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/dockerhttp/internal/service"
	"github.com/GriffinCanCode/dockerhttp/internal/transport"
)

// output is what gets printed for every operation.
type output struct {
	Operation string `json:"operation" yaml:"operation" toml:"operation"`
	Status    int    `json:"status" yaml:"status" toml:"status"`
	Demo      bool   `json:"demo" yaml:"demo" toml:"demo"`
	Value     any    `json:"value,omitempty" yaml:"value,omitempty" toml:"value,omitempty"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty" toml:"error,omitempty"`
	Payload   any    `json:"errorPayload,omitempty" yaml:"errorPayload,omitempty" toml:"errorPayload,omitempty"`
}

func main() {
	cfg := config.LoadOrDefault()

	baseURL := flag.String("base-url", example.DefaultBaseURL, "Base URL of the resources API")
	demo := flag.Bool("demo", cfg.Manager.DemoMode, "Answer every call from fixtures")
	failureChance := flag.Float64("failure-chance", 0, "Probability that a demo call fails")
	dev := flag.Bool("dev", cfg.Logging.Development, "Development logging")
	op := flag.String("op", "get", "Operation: get, get-id, post, upload, download")
	id := flag.Int("id", 1, "Resource id for get-id")
	dir := flag.String("dir", os.TempDir(), "Download directory")
	format := flag.String("format", "json", "Output format: json, yaml, toml, plist")
	timeout := flag.Duration("timeout", time.Minute, "Overall timeout")
	flag.Parse()

	var logger *logging.Logger
	if *dev {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewDefault()
	}
	defer logger.Sync()

	out, ok := codec.ForName(*format)
	if !ok {
		log.Fatalf("Unknown output format %q", *format)
	}

	client, err := newClient(cfg, *baseURL, *demo, logger)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}
	client.SetDemoFailureChance(*failureChance)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	tracer := tracing.New("example", logger.Logger)
	span, ctx := tracer.StartSpan(ctx, *op)
	span.SetTag("base_url", *baseURL)

	result, err := run(ctx, client, *op, *id, *dir)
	span.SetStatus(result.Status)
	if err != nil {
		span.SetError(err)
	}
	span.Finish()
	tracer.Submit(span)
	tracer.Close()

	if err != nil {
		log.Fatalf("%s failed: %v", *op, err)
	}

	data, err := out.Marshal(result)
	if err != nil {
		log.Fatalf("Failed to encode output: %v", err)
	}
	fmt.Println(string(data))
}

func newClient(cfg *config.Config, baseURL string, demo bool, logger *logging.Logger) (*example.Client, error) {
	opts := []service.Option{
		service.WithLogger(logger.Logger),
		service.WithRetryDelay(cfg.Manager.RetryDelay),
		service.WithDemoMode(demo),
	}
	if cfg.Manager.FixturesDir != "" {
		store, err := fixtures.NewDirStore(cfg.Manager.FixturesDir)
		if err != nil {
			return nil, err
		}
		logger.Info("Using fixtures directory",
			zap.String("dir", cfg.Manager.FixturesDir),
			zap.Int("files", store.Len()),
		)
		opts = append(opts, service.WithFixtures(store))
	}

	httpClient := transport.NewFromConfig(cfg.HTTP, transport.WithLogger(logger))
	return example.NewClient(baseURL, httpClient, opts...), nil
}

func run(ctx context.Context, client *example.Client, op string, id int, dir string) (output, error) {
	result := output{Operation: op, Demo: client.Manager().DemoMode()}
	done := make(chan struct{})

	progress := func(p service.Progress) {
		if p.Total > 0 {
			log.Printf("progress: %.0f%%", p.Fraction()*100)
		}
	}

	var err error
	switch op {
	case "get":
		err = client.GetResources(ctx, func(resources []example.Resource) {
			result.Value = resources
			close(done)
		})
	case "get-id":
		err = client.GetResource(ctx, id, func(resp *example.ResourceResponse) {
			collect(&result, resp)
			close(done)
		})
	case "post":
		resource := example.Resource{
			Name:          "name1",
			Boolean:       true,
			Double:        1.1,
			NestedObjects: []example.NestedObject{{ID: "101", Name: "nested101"}},
		}
		err = client.PostResource(ctx, resource, func(resp *example.ResourceResponse) {
			collect(&result, resp)
			close(done)
		})
	case "upload":
		err = client.UploadImage(ctx, progress, func(resp *example.UploadResponse) {
			collect(&result, resp)
			close(done)
		})
	case "download":
		err = client.DownloadFile(ctx, dir, progress, func(resp *example.DownloadResponse) {
			collect(&result, resp)
			close(done)
		})
	default:
		return result, fmt.Errorf("unknown operation %q", op)
	}
	if err != nil {
		return result, err
	}

	// The completion always runs, cancellation included.
	<-done
	return result, nil
}

func collect[S, E any](out *output, resp *service.Response[S, E]) {
	out.Status = resp.StatusCode
	if v, ok := resp.Value(); ok {
		out.Value = v
		return
	}
	if err := resp.Err(); err != nil {
		out.Error = err.Error()
	}
	if resp.Result != nil && resp.Result.ErrorValue != nil {
		out.Payload = *resp.Result.ErrorValue
	}
}
