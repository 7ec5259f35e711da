package clients

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"mes-dashboard/internal/rpc"
)

type GRPCClients struct {
	Consumption     rpc.ConsumptionServiceClient
	Health          healthpb.HealthClient
	consumptionConn *grpc.ClientConn
}

func NewGRPCClients(consumptionAddr string) (*GRPCClients, error) {
	consumptionConn, err := grpc.NewClient(consumptionAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("consumption service connection failed: %v", err)
	}

	return NewGRPCClientsFromConn(consumptionConn), nil
}

// NewGRPCClientsFromConn wraps an existing connection. The clients take
// ownership and close it on Close.
func NewGRPCClientsFromConn(conn *grpc.ClientConn) *GRPCClients {
	return &GRPCClients{
		Consumption:     rpc.NewConsumptionServiceClient(conn),
		Health:          healthpb.NewHealthClient(conn),
		consumptionConn: conn,
	}
}

// IsConsumptionServiceHealthy asks the service's health endpoint. Any
// error counts as unhealthy.
func (c *GRPCClients) IsConsumptionServiceHealthy(ctx context.Context) bool {
	if c == nil || c.Health == nil {
		return false
	}
	resp, err := c.Health.Check(ctx, &healthpb.HealthCheckRequest{Service: rpc.ServiceName})
	if err != nil {
		return false
	}
	return resp.GetStatus() == healthpb.HealthCheckResponse_SERVING
}

func (c *GRPCClients) Close() {
	if c != nil && c.consumptionConn != nil {
		c.consumptionConn.Close()
	}
}
