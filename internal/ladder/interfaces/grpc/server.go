package grpc

import (
	"github.com/wyfcoding/dexladder/pkg/middleware"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName 健康检查中的服务名
const ServiceName = "dexladder.LadderBot"

// HealthServer gRPC 健康检查服务，市场加载完成后为 SERVING
type HealthServer struct {
	server *grpc.Server
	health *health.Server
}

// NewHealthServer 创建带日志与恢复拦截器的 gRPC 服务，初始为 NOT_SERVING
func NewHealthServer() *HealthServer {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		middleware.GRPCRecoveryInterceptor(),
		middleware.GRPCLoggingInterceptor(),
	))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &HealthServer{server: srv, health: hs}
}

// Server 底层 gRPC 服务
func (s *HealthServer) Server() *grpc.Server {
	return s.server
}

// SetServing 切换服务状态
func (s *HealthServer) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// Shutdown 标记 NOT_SERVING 后优雅停止
func (s *HealthServer) Shutdown() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
