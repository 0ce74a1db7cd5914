package valkey

import (
	"context"
	"errors"
	"sync"
	"time"

	valkeylib "github.com/valkey-io/valkey-go"

	pr "github.com/unkn0wn-root/varcache/provider"
)

var ErrNilClient = errors.New("valkey provider: nil client")

// Valkey stores frames in Valkey (or Redis) through valkey-go.
type Valkey struct {
	client      valkeylib.Client
	closeClient bool
	maxTTL      time.Duration
	closeOnce   sync.Once
}

var _ pr.Provider = (*Valkey)(nil)

type Config struct {
	Client      valkeylib.Client
	CloseClient bool // set true only if this provider exclusively owns the client
	// MaxTTL caps keys that would otherwise never expire. 0 = no cap.
	MaxTTL time.Duration
}

func New(cfg Config) (*Valkey, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	return &Valkey{client: cfg.Client, closeClient: cfg.CloseClient, maxTTL: cfg.MaxTTL}, nil
}

// Dial opens a dedicated client for addr and pings it before returning.
func Dial(ctx context.Context, addr, password string, db int, maxTTL time.Duration) (*Valkey, error) {
	client, err := valkeylib.NewClient(valkeylib.ClientOption{
		InitAddress: []string{addr},
		Password:    password,
		SelectDB:    db,
	})
	if err != nil {
		return nil, err
	}
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, err
	}
	return &Valkey{client: client, closeClient: true, maxTTL: maxTTL}, nil
}

func (p *Valkey) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := p.client.Do(ctx, p.client.B().Get().Key(key).Build()).AsBytes()
	if valkeylib.IsValkeyNil(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (p *Valkey) Set(ctx context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	ttl = p.ttl(ttl)
	set := p.client.B().Set().Key(key).Value(valkeylib.BinaryString(value))
	var err error
	if ttl > 0 {
		err = p.client.Do(ctx, set.PxMilliseconds(ttl.Milliseconds()).Build()).Error()
	} else {
		err = p.client.Do(ctx, set.Build()).Error()
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (p *Valkey) ttl(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return p.maxTTL
	}
	if p.maxTTL > 0 && ttl > p.maxTTL {
		return p.maxTTL
	}
	if ttl < time.Millisecond {
		return time.Millisecond
	}
	return ttl
}

func (p *Valkey) Del(ctx context.Context, key string) error {
	return p.client.Do(ctx, p.client.B().Del().Key(key).Build()).Error()
}

func (p *Valkey) Close(context.Context) error {
	if p.closeClient {
		p.closeOnce.Do(p.client.Close)
	}
	return nil
}
