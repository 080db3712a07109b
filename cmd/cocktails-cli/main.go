// Package main calls a cocktail tool over NATS and prints the JSON result.
//
//	cocktails-cli get_cocktail_info '{"name": "Mojito"}'
//	cocktails-cli suggest_cocktails_based_on_ingredients '{"ingredients": ["lime"]}'
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/WessleyAI/cocktails/pkg/config"
	"github.com/WessleyAI/cocktails/pkg/natsutil"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML config")
	timeout := flag.Duration("timeout", 90*time.Second, "request timeout")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <tool> [json-args]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() < 1 || flag.NArg() > 2 {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("load config", "err", err)
		os.Exit(1)
	}
	if cfg.NATS.URL == "" {
		logger.Error("NATS_URL is not set")
		os.Exit(1)
	}

	nc, err := nats.Connect(cfg.NATS.URL, nats.Name("cocktails-cli"))
	if err != nil {
		logger.Error("nats connect", "url", cfg.NATS.URL, "err", err)
		os.Exit(1)
	}
	defer nc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	args := "{}"
	if flag.NArg() == 2 {
		args = flag.Arg(1)
	}
	if err := call(ctx, nc, cfg.NATS.SubjectPrefix, flag.Arg(0), args, os.Stdout); err != nil {
		var re *natsutil.ReplyError
		if errors.As(err, &re) {
			logger.Error("tool failed", "tool", flag.Arg(0), "code", re.Code, "err", re.Message)
		} else {
			logger.Error("request failed", "tool", flag.Arg(0), "err", err)
		}
		cancel()
		nc.Close()
		os.Exit(1)
	}
}

// call sends args to <prefix>.<tool> and writes the indented result to w.
// A failure reported by the responder comes back as *natsutil.ReplyError.
func call(ctx context.Context, nc *nats.Conn, prefix, tool, args string, w io.Writer) error {
	if !json.Valid([]byte(args)) {
		return fmt.Errorf("arguments are not valid JSON: %s", args)
	}
	result, err := natsutil.Request[json.RawMessage](ctx, nc, prefix+"."+tool, json.RawMessage(args))
	if err != nil {
		return err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, result, "", "  "); err != nil {
		return err
	}
	out.WriteByte('\n')
	_, err = out.WriteTo(w)
	return err
}
