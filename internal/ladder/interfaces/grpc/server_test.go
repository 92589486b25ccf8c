package grpc

import (
	"context"
	"testing"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestHealthServerStatus(t *testing.T) {
	s := NewHealthServer()
	ctx := context.Background()

	check := func(service string) healthpb.HealthCheckResponse_ServingStatus {
		t.Helper()
		resp, err := s.health.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
		if err != nil {
			t.Fatalf("Check(%q) error = %v", service, err)
		}
		return resp.GetStatus()
	}

	if got := check(ServiceName); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("initial status = %v", got)
	}
	s.SetServing(true)
	if got := check(""); got != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("status after SetServing(true) = %v", got)
	}
	s.SetServing(false)
	if got := check(ServiceName); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("status after SetServing(false) = %v", got)
	}
}
