package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"time"

	packagesapi "github.com/openparcel/parceltrack/internal/api/packages_api"
	"github.com/openparcel/parceltrack/internal/broker/messages"
	"github.com/openparcel/parceltrack/internal/services/packages"
)

type trackerAPIOpts struct {
	httpAddr string

	reportedTopic string
	consumerGroup string

	onListen func(httpAddr string)
}

type kafkaConsumer interface {
	Consume(ctx context.Context, handler func(key, value []byte) error) error
}

func runTrackerAPI(ctx context.Context, opts trackerAPIOpts, svc *packages.Service, consumer kafkaConsumer) error {
	api := packagesapi.New(svc)

	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return err
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	httpErr := make(chan error, 1)
	go func() {
		httpErr <- runHTTPServer(ctx, lis, api.Router())
	}()

	if consumer != nil {
		go func() {
			slog.Info("kafka consumer started", "topic", opts.reportedTopic, "group", opts.consumerGroup)
			_ = consumer.Consume(ctx, func(_key, value []byte) error {
				var m messages.PositionReported
				if err := json.Unmarshal(value, &m); err != nil {
					return err
				}
				return svc.ApplyPositionReport(ctx, m)
			})
		}()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-httpErr:
		return err
	}
}

func runHTTPServer(ctx context.Context, lis net.Listener, handler http.Handler) error {
	srv := &http.Server{Handler: handler}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = lis.Close()
	}()

	slog.Info("HTTP server listening", "addr", lis.Addr().String())
	return srv.Serve(lis)
}
