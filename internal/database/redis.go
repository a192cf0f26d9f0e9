package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hypernova-labs/agency-invoicing/internal/config"
	"github.com/redis/go-redis/v9"
)

const (
	signedLinkPrefix    = "invoice:link:"
	numberReservePrefix = "invoice:number:"
)

// Redis representa la conexión a Redis. Guarda URLs firmadas y reserva números de factura.
type Redis struct {
	*redis.Client
}

// ConnectRedis establece la conexión a Redis
func ConnectRedis(cfg *config.Config) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("error pinging Redis: %w", err)
	}

	return NewRedis(client), nil
}

// NewRedis envuelve un cliente ya creado
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client}
}

// HealthCheck verifica la salud de Redis
func (r *Redis) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.Ping(ctx).Err()
}

// GetLink obtiene una URL firmada en caché
func (r *Redis) GetLink(ctx context.Context, path string) (string, bool, error) {
	url, err := r.Client.Get(ctx, signedLinkPrefix+path).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("error reading signed link: %w", err)
	}
	return url, true, nil
}

// SetLink guarda una URL firmada durante ttl
func (r *Redis) SetLink(ctx context.Context, path, url string, ttl time.Duration) error {
	if err := r.Client.Set(ctx, signedLinkPrefix+path, url, ttl).Err(); err != nil {
		return fmt.Errorf("error caching signed link: %w", err)
	}
	return nil
}

// Reserve reserva un número de factura para un cliente. Retorna false si ya estaba reservado.
func (r *Redis) Reserve(ctx context.Context, clientID uuid.UUID, number string) (bool, error) {
	ok, err := r.Client.SetNX(ctx, numberKey(clientID, number), time.Now().UTC().Format(time.RFC3339), 0).Result()
	if err != nil {
		return false, fmt.Errorf("error reserving invoice number: %w", err)
	}
	return ok, nil
}

// Release libera un número reservado
func (r *Redis) Release(ctx context.Context, clientID uuid.UUID, number string) error {
	if err := r.Client.Del(ctx, numberKey(clientID, number)).Err(); err != nil {
		return fmt.Errorf("error releasing invoice number: %w", err)
	}
	return nil
}

func numberKey(clientID uuid.UUID, number string) string {
	return numberReservePrefix + clientID.String() + ":" + number
}
