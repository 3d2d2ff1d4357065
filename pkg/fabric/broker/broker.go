package broker

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/chainlaunch/asset-gateway/pkg/config"
	"github.com/chainlaunch/asset-gateway/pkg/errors"
	"github.com/chainlaunch/asset-gateway/pkg/fabric/networkconfig"
	"github.com/chainlaunch/asset-gateway/pkg/identity"
	"github.com/chainlaunch/asset-gateway/pkg/logger"
	"github.com/chainlaunch/asset-gateway/pkg/metrics"
)

type ProfileResolver interface {
	Resolve(org string) (*networkconfig.ConnectionProfile, error)
}

// Stats counts sessions over the broker's lifetime.
type Stats struct {
	Opened int64
	Closed int64
}

// Broker opens one session per unit of work. There is no pooling: every
// Open dials a fresh connection.
type Broker struct {
	cfg       *config.Config
	resolver  ProfileResolver
	store     identity.Store
	connector Connector
	logger    *logger.Logger
	metrics   *metrics.Metrics

	opened atomic.Int64
	closed atomic.Int64
}

func New(cfg *config.Config, resolver ProfileResolver, store identity.Store, connector Connector, log *logger.Logger, m *metrics.Metrics) *Broker {
	if log == nil {
		log = logger.NewNop()
	}
	return &Broker{
		cfg:       cfg,
		resolver:  resolver,
		store:     store,
		connector: connector,
		logger:    log,
		metrics:   m,
	}
}

// Open establishes a session for userID in org. The caller owns the session
// and must Close it; prefer WithSession.
func (b *Broker) Open(ctx context.Context, org, userID string) (*Session, error) {
	if _, ok := b.cfg.Organization(org); !ok {
		return nil, errors.NewInvalidOrgError(org)
	}
	profile, err := b.resolver.Resolve(org)
	if err != nil {
		return nil, err
	}
	id, err := b.store.Get(ctx, org, userID)
	if err != nil {
		return nil, err
	}

	conn, err := b.connector.Connect(ctx, ConnectRequest{
		Profile:   profile,
		Identity:  id,
		Channel:   b.cfg.Fabric.Channel,
		Chaincode: b.cfg.Fabric.Chaincode,
	})
	if err != nil {
		return nil, errors.NewConnectionError("failed to connect to gateway", err, map[string]interface{}{"org": org, "userId": userID})
	}

	b.opened.Add(1)
	b.metrics.SessionOpened()
	b.logger.Debug("Opened gateway session", "org", org, "userId", userID)

	return &Session{
		org:    org,
		userID: userID,
		conn:   conn,
		onClose: func() {
			b.closed.Add(1)
			b.metrics.SessionClosed()
			b.logger.Debug("Closed gateway session", "org", org, "userId", userID)
		},
	}, nil
}

// WithSession opens a session, runs fn and releases the session on every
// exit path, including panics.
func (b *Broker) WithSession(ctx context.Context, org, userID string, fn func(*Session) error) error {
	session, err := b.Open(ctx, org, userID)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			b.logger.Warn("Failed to close gateway session", "org", org, "userId", userID, "error", cerr)
		}
	}()
	return fn(session)
}

func (b *Broker) Stats() Stats {
	return Stats{Opened: b.opened.Load(), Closed: b.closed.Load()}
}

// Session is bound to one (org, identity) pair for a single unit of work.
type Session struct {
	org     string
	userID  string
	conn    Connection
	onClose func()

	once     sync.Once
	closeErr error
}

func (s *Session) Org() string {
	return s.org
}

func (s *Session) UserID() string {
	return s.userID
}

func (s *Session) Contract() Contract {
	return s.conn.Contract()
}

// Close releases the connection. Only the first call has any effect.
func (s *Session) Close() error {
	s.once.Do(func() {
		s.closeErr = s.conn.Close()
		s.onClose()
	})
	return s.closeErr
}
