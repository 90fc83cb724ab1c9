package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Healthcheck returns a health check function suitable for readiness/liveness
// probes. It pings the server through client.
func Healthcheck(client *mongo.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := client.Ping(ctx, nil); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}

// Healthcheck pings through both the read and the write client.
func (p *Provider) Healthcheck(ctx context.Context) error {
	if err := Healthcheck(p.read)(ctx); err != nil {
		return err
	}
	return Healthcheck(p.write)(ctx)
}
