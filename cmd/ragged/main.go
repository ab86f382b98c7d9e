package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime/pprof"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/23skdu/longbow-ragged/internal/interop"
	"github.com/23skdu/longbow-ragged/internal/ragged"
	"github.com/23skdu/longbow-ragged/internal/registry"
)

var (
	inputPath  = flag.String("input", "", "CBOR request file, or - for stdin")
	generateN  = flag.Int("generate", 0, "Generate N random sequences instead of reading -input")
	features   = flag.Int("features", 4, "Features per item for -generate")
	maxLen     = flag.Int("max-len", 16, "Maximum sequence length for -generate")
	seed       = flag.Int64("seed", 1, "Random seed for -generate")
	catAxis    = flag.Int("cat-axis", 0, "Concatenate all buffers along this axis (-1 disables)")
	outputFmt  = flag.String("output", "none", "Output written to stdout: arrow, packing or none")
	cpuProfile = flag.String("cpuprofile", "", "Write cpu profile to file")
	enableOTel = flag.Bool("otel", false, "Enable OpenTelemetry tracing (stdout)")
	logLevel   = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
)

var tracer trace.Tracer = otel.Tracer("ragged")

// config is the validated flag set.
type config struct {
	input    string
	generate int
	features int
	maxLen   int
	seed     int64
	catAxis  int
	output   string
}

func (c config) validate() error {
	if c.input == "" && c.generate <= 0 {
		return errors.New("one of -input or -generate is required")
	}
	if c.generate > 0 && (c.features < 0 || c.maxLen < 0) {
		return errors.New("-features and -max-len must not be negative")
	}
	switch c.output {
	case "arrow", "packing", "none":
	default:
		return fmt.Errorf("unknown -output %q", c.output)
	}
	return nil
}

func main() {
	// Initialize logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Caller().Logger()

	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		log.Fatal().Err(err).Str("level", *logLevel).Msg("Invalid log level")
	}
	zerolog.SetGlobalLevel(level)

	if *enableOTel {
		shutdown, err := initTracer()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize tracer")
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				log.Warn().Err(err).Msg("Failed to shut down tracer")
			}
		}()
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create CPU profile file")
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal().Err(err).Msg("Could not start CPU profile")
		}
		defer pprof.StopCPUProfile()
	}

	cfg := config{
		input:    *inputPath,
		generate: *generateN,
		features: *features,
		maxLen:   *maxLen,
		seed:     *seed,
		catAxis:  *catAxis,
		output:   *outputFmt,
	}
	if err := cfg.validate(); err != nil {
		log.Error().Err(err).Msg("Invalid flags")
		flag.Usage()
		os.Exit(2)
	}

	if err := run(context.Background(), cfg, os.Stdout); err != nil {
		log.Error().Err(err).Msg("Run failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config, stdout io.Writer) error {
	ctx, span := tracer.Start(ctx, "run")
	defer span.End()

	reg := registry.New[float32]()
	if err := load(ctx, cfg, reg); err != nil {
		span.RecordError(err)
		return err
	}

	result, err := combine(ctx, cfg.catAxis, reg)
	if err != nil {
		span.RecordError(err)
		return err
	}
	p := pack(ctx, result)

	builder := interop.NewRecordBatchBuilder(memory.NewGoAllocator())
	switch cfg.output {
	case "arrow":
		rec, err := interop.BuildRecordBatch(builder, result)
		if err != nil {
			return err
		}
		defer rec.Release()
		return interop.WriteStream(stdout, rec)
	case "packing":
		if p == nil {
			log.Warn().Msg("Buffer is already rectangular, no packing written")
			return nil
		}
		rec := builder.BuildPackingRecordBatch(p)
		defer rec.Release()
		return interop.WriteStream(stdout, rec)
	}
	return nil
}

// load registers the requested or generated buffers.
func load(ctx context.Context, cfg config, reg *registry.Registry[float32]) error {
	_, span := tracer.Start(ctx, "load")
	defer span.End()

	if cfg.generate > 0 {
		reg.Put("generated", generate(cfg.generate, cfg.features, cfg.maxLen, cfg.seed))
		span.SetAttributes(attribute.Int("sequences", cfg.generate))
		return nil
	}

	var r io.Reader = os.Stdin
	if cfg.input != "-" {
		f, err := os.Open(cfg.input)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	req, err := decodeRequest(r)
	if err != nil {
		return err
	}
	for i, bs := range req.Buffers {
		v, err := bs.view()
		if err != nil {
			return err
		}
		name := bs.Name
		if name == "" {
			name = fmt.Sprintf("buffer-%d", i)
		}
		reg.Put(name, v)
		log.Debug().Str("name", name).Int("sequences", v.Size0()).Int("items", v.Items()).Msg("Registered buffer")
	}
	span.SetAttributes(attribute.Int("buffers", reg.Size()))
	return nil
}

// combine concatenates every registered buffer in name order along axis,
// or returns the first one when axis is negative or only one is registered.
func combine(ctx context.Context, axis int, reg *registry.Registry[float32]) (*ragged.View[float32], error) {
	_, span := tracer.Start(ctx, "combine")
	defer span.End()

	names := reg.Names()
	views := make([]*ragged.View[float32], 0, len(names))
	for _, name := range names {
		v, _ := reg.Get(name)
		views = append(views, v)
	}
	if axis < 0 || len(views) == 1 {
		return views[0], nil
	}
	start := time.Now()
	out, err := ragged.CatViews(views, axis)
	if err != nil {
		return nil, fmt.Errorf("cat %v along axis %d: %w", names, axis, err)
	}
	span.SetAttributes(attribute.Int("axis", axis), attribute.Int("inputs", len(views)))
	log.Info().
		Int("axis", axis).
		Int("inputs", len(views)).
		Int("sequences", out.Size0()).
		Int("items", out.Items()).
		Dur("elapsed", time.Since(start)).
		Msg("Concatenated buffers")
	return out, nil
}

func pack(ctx context.Context, v *ragged.View[float32]) *ragged.Packing {
	_, span := tracer.Start(ctx, "padpack")
	defer span.End()

	start := time.Now()
	p := v.Padpack()
	if p == nil {
		log.Info().Int("sequences", v.Size0()).Msg("Nothing to pack")
		return nil
	}
	fill := float64(len(p.Inverse)) / float64(p.Batch*p.Seq)
	span.SetAttributes(attribute.Int("slots", p.Batch), attribute.Int("width", p.Seq))
	log.Info().
		Int("sequences", v.Size0()).
		Int("items", len(p.Inverse)).
		Int("slots", p.Batch).
		Int("width", p.Seq).
		Float64("fill", fill).
		Dur("elapsed", time.Since(start)).
		Msg("Packed buffer")
	return p
}

func initTracer() (func(context.Context) error, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint(), stdouttrace.WithWriter(os.Stderr))
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String("ragged"),
		)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp.Shutdown, nil
}
