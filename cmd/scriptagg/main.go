// scriptagg runs a scripted metric aggregation over a JSONL document file.
//
// The aggregation is described by a YAML definition holding CEL scripts
// (see Definition). Documents are split into segments, bucketed by the value
// of --bucket-field, and streamed through the map script. One JSON line is
// printed per bucket, followed by the reduce output.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	gojson "github.com/goccy/go-json"
	"github.com/spf13/pflag"

	"github.com/hupe1980/scriptmetric"
	"github.com/hupe1980/scriptmetric/codec"
	"github.com/hupe1980/scriptmetric/resource"
	"github.com/hupe1980/scriptmetric/script"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type config struct {
	definition  string
	docs        string
	segmentSize int
	bucketField string
	codec       string
	memoryLimit int64
	bucketCost  int64
	logLevel    string
	logFormat   string
	stats       bool
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var cfg config

	flagSet := pflag.NewFlagSet("scriptagg", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVarP(&cfg.definition, "definition", "d", "", "path to the YAML aggregation definition (required)")
	flagSet.StringVar(&cfg.docs, "docs", "-", "path to the JSONL document file, - for stdin")
	flagSet.IntVar(&cfg.segmentSize, "segment-size", 1000, "documents per segment")
	flagSet.StringVar(&cfg.bucketField, "bucket-field", "", "document field whose values form the buckets (default: one bucket)")
	flagSet.StringVar(&cfg.codec, "codec", codec.Default.Name(), "codec results must be writeable in (json, go-json, cbor)")
	flagSet.Int64Var(&cfg.memoryLimit, "memory-limit", 0, "memory budget in bytes for bucket states, 0 for unlimited")
	flagSet.Int64Var(&cfg.bucketCost, "bucket-cost", scriptmetric.BucketCostEstimate, "bytes charged per bucket")
	flagSet.StringVar(&cfg.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	flagSet.StringVar(&cfg.logFormat, "log-format", "text", "log format (text, json)")
	flagSet.BoolVar(&cfg.stats, "stats", false, "print collector statistics to stderr")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet, stderr)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet, stderr)
		return nil
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected argument: %s", rest[0])
	}
	if cfg.definition == "" {
		return errors.New("--definition is required")
	}

	def, err := LoadDefinition(cfg.definition)
	if err != nil {
		return err
	}

	in := stdin
	if cfg.docs != "-" {
		f, err := os.Open(cfg.docs)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	return execute(ctx, &cfg, def, in, stdout, stderr)
}

func execute(ctx context.Context, cfg *config, def *Definition, docs io.Reader, stdout, stderr io.Writer) error {
	c, ok := codec.ByName(cfg.codec)
	if !ok {
		return fmt.Errorf("unknown codec %q", cfg.codec)
	}
	logger, err := newLogger(cfg, stderr)
	if err != nil {
		return err
	}

	mapScript, opts, err := def.Compile()
	if err != nil {
		return err
	}

	input, err := readCorpus(docs, cfg.segmentSize, cfg.bucketField)
	if err != nil {
		return err
	}

	metrics := &scriptmetric.BasicMetricsCollector{}
	opts = append(opts,
		scriptmetric.WithLookup(input.index),
		scriptmetric.WithCodec(c),
		scriptmetric.WithBucketCost(cfg.bucketCost),
		scriptmetric.WithLogger(logger),
		scriptmetric.WithMetricsCollector(metrics),
	)
	if cfg.memoryLimit > 0 {
		budget := resource.NewController(resource.Config{
			MemoryLimitBytes: cfg.memoryLimit,
			Label:            def.Name,
		})
		opts = append(opts, scriptmetric.WithBreaker(budget))
	}

	agg, err := scriptmetric.New(def.Name, mapScript, opts...)
	if err != nil {
		return err
	}
	defer agg.Close()

	for i, seg := range input.index.Segments() {
		if err := ctx.Err(); err != nil {
			return err
		}
		lc, err := agg.LeafCollector(ctx, seg)
		if err != nil {
			return err
		}
		lc.SetScorer(script.ConstantScorer(1))
		for doc := range seg.LiveDocs() {
			if err := lc.Collect(doc, input.ords[i][doc]); err != nil {
				return fmt.Errorf("segment %d doc %d: %w", seg.Ord(), doc, err)
			}
		}
	}

	ords := make([]int64, len(input.terms))
	for i := range ords {
		ords[i] = int64(i)
	}
	results, err := agg.BuildAggregations(ctx, ords)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		results = append(results, agg.BuildEmptyAggregation())
	}

	enc := gojson.NewEncoder(stdout)
	for i, res := range results {
		bucket := ""
		if i < len(input.terms) {
			bucket = input.terms[i]
		}
		if err := enc.Encode(struct {
			Bucket string               `json:"bucket"`
			Result *scriptmetric.Result `json:"result"`
		}{bucket, res}); err != nil {
			return err
		}
	}

	reduced, err := scriptmetric.ReduceResults(results)
	if err != nil {
		return err
	}
	if err := enc.Encode(map[string]any{"reduce": reduced}); err != nil {
		return err
	}

	if cfg.stats {
		s := metrics.GetStats()
		fmt.Fprintf(stderr, "buckets=%d charged_bytes=%d budget_exceeded=%d map_executions=%d map_errors=%d builds=%d build_avg_ns=%d\n",
			s.BucketsCreated, s.ChargedBytes, s.BudgetExceeded, s.MapExecutions, s.MapErrors, s.BuildCount, s.BuildAvgNanos)
	}
	return nil
}

func newLogger(cfg *config, w io.Writer) (*scriptmetric.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.logLevel)); err != nil {
		return nil, fmt.Errorf("invalid --log-level: %w", err)
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	switch cfg.logFormat {
	case "text":
		return scriptmetric.NewLogger(slog.NewTextHandler(w, handlerOpts)), nil
	case "json":
		return scriptmetric.NewLogger(slog.NewJSONHandler(w, handlerOpts)), nil
	default:
		return nil, fmt.Errorf("invalid --log-format %q", cfg.logFormat)
	}
}

func printHelp(flagSet *pflag.FlagSet, w io.Writer) {
	fmt.Fprint(w, `scriptagg runs a scripted metric aggregation over JSONL documents.

Usage:
  scriptagg --definition agg.yaml [--docs docs.jsonl] [flags]

Example definition:
  name: count_per_user
  init_state:
    count: 0
  map:
    - key: count
      expr: state.count + 1
  combine: state.count
  reduce: states.size()

Flags:
`)
	flagSet.SetOutput(w)
	flagSet.PrintDefaults()
}
