package redis

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"go.uber.org/zap/zaptest"

	"github.com/Surajgupta63/GKart/internal/infra/config"
)

func TestNewClientPingsAndReportsHealth(t *testing.T) {
	mr := miniredis.RunT(t)
	host, portStr, _ := strings.Cut(mr.Addr(), ":")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parse miniredis port: %v", err)
	}

	client, err := NewClient(context.Background(), config.RedisSettings{Host: host, Port: port}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	defer client.Close()

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}

	mr.Close()
	if err := client.HealthCheck(context.Background()); err == nil {
		t.Fatalf("expected health check failure after server shutdown")
	}
}

func TestOptionsEnablesTLS(t *testing.T) {
	opts := Options(config.RedisSettings{Host: "cache", Port: 6380, TLSEnabled: true})
	if opts.Addr != "cache:6380" {
		t.Fatalf("unexpected addr %s", opts.Addr)
	}
	if opts.TLSConfig == nil {
		t.Fatalf("expected tls config")
	}
}
