package assets

import (
	"context"

	"github.com/chainlaunch/asset-gateway/pkg/fabric/broker"
)

// SessionOpener runs fn inside a session that is released on return.
type SessionOpener interface {
	WithSession(ctx context.Context, org, userID string, fn func(*broker.Session) error) error
}

// Service runs each asset operation in its own gateway session.
type Service struct {
	sessions   SessionOpener
	dispatcher *Dispatcher
}

func NewService(sessions SessionOpener, dispatcher *Dispatcher) *Service {
	return &Service{sessions: sessions, dispatcher: dispatcher}
}

func (s *Service) InitLedger(ctx context.Context, org, userID string) error {
	return s.sessions.WithSession(ctx, org, userID, func(session *broker.Session) error {
		return s.dispatcher.InitLedger(ctx, session.Contract())
	})
}

func (s *Service) CreateAsset(ctx context.Context, org, userID string, asset Asset) (id string, err error) {
	err = s.sessions.WithSession(ctx, org, userID, func(session *broker.Session) error {
		id, err = s.dispatcher.CreateAsset(ctx, session.Contract(), asset)
		return err
	})
	return id, err
}

func (s *Service) ReadAsset(ctx context.Context, org, userID, id string) (asset interface{}, err error) {
	err = s.sessions.WithSession(ctx, org, userID, func(session *broker.Session) error {
		asset, err = s.dispatcher.ReadAsset(ctx, session.Contract(), id)
		return err
	})
	return asset, err
}

func (s *Service) UpdateAsset(ctx context.Context, org, userID string, asset Asset) (id string, err error) {
	err = s.sessions.WithSession(ctx, org, userID, func(session *broker.Session) error {
		id, err = s.dispatcher.UpdateAsset(ctx, session.Contract(), asset)
		return err
	})
	return id, err
}

func (s *Service) DeleteAsset(ctx context.Context, org, userID, id string) (deleted string, err error) {
	err = s.sessions.WithSession(ctx, org, userID, func(session *broker.Session) error {
		deleted, err = s.dispatcher.DeleteAsset(ctx, session.Contract(), id)
		return err
	})
	return deleted, err
}

func (s *Service) TransferAsset(ctx context.Context, org, userID, id, newOwner string) (oldOwner string, err error) {
	err = s.sessions.WithSession(ctx, org, userID, func(session *broker.Session) error {
		oldOwner, err = s.dispatcher.TransferAsset(ctx, session.Contract(), id, newOwner)
		return err
	})
	return oldOwner, err
}

func (s *Service) AssetExists(ctx context.Context, org, userID, id string) (exists bool, err error) {
	err = s.sessions.WithSession(ctx, org, userID, func(session *broker.Session) error {
		exists, err = s.dispatcher.AssetExists(ctx, session.Contract(), id)
		return err
	})
	return exists, err
}

func (s *Service) GetAllAssets(ctx context.Context, org, userID string) (assets []interface{}, err error) {
	err = s.sessions.WithSession(ctx, org, userID, func(session *broker.Session) error {
		assets, err = s.dispatcher.GetAllAssets(ctx, session.Contract())
		return err
	})
	return assets, err
}

// Invoke dispatches any catalogue operation with raw arguments.
func (s *Service) Invoke(ctx context.Context, org, userID, operation string, args ...string) (payload []byte, err error) {
	err = s.sessions.WithSession(ctx, org, userID, func(session *broker.Session) error {
		payload, err = s.dispatcher.Invoke(ctx, session.Contract(), operation, args...)
		return err
	})
	return payload, err
}
