package identity

import (
	"context"

	"github.com/chainlaunch/asset-gateway/pkg/config"
	"github.com/chainlaunch/asset-gateway/pkg/errors"
	"github.com/chainlaunch/asset-gateway/pkg/fabric/ca"
	"github.com/chainlaunch/asset-gateway/pkg/fabric/networkconfig"
	"github.com/chainlaunch/asset-gateway/pkg/logger"
	"github.com/chainlaunch/asset-gateway/pkg/metrics"
)

const clientIdentityType = "client"

// CAClient is the subset of the Fabric CA API the authority needs.
type CAClient interface {
	Enroll(ctx context.Context, req ca.EnrollmentRequest) (*ca.Enrollment, error)
	Register(ctx context.Context, registrar ca.Credential, req ca.RegistrationRequest) (string, error)
}

// CAClientFactory builds a client for a resolved CA endpoint.
type CAClientFactory func(endpoint *networkconfig.CAEndpoint) (CAClient, error)

type ProfileResolver interface {
	Resolve(org string) (*networkconfig.ConnectionProfile, error)
}

// NewCAClientFactory returns a factory producing REST clients.
func NewCAClientFactory(log *logger.Logger) CAClientFactory {
	return func(endpoint *networkconfig.CAEndpoint) (CAClient, error) {
		client, err := ca.NewClient(endpoint, log)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

// Authority obtains admin and user identities from each organization's CA
// and persists them in the store. It holds no locks: two concurrent first
// time calls for the same user both register, and the loser surfaces the
// CA's RegistrationError.
type Authority struct {
	cfg      *config.Config
	resolver ProfileResolver
	store    Store
	newCA    CAClientFactory
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewAuthority(cfg *config.Config, resolver ProfileResolver, store Store, newCA CAClientFactory, log *logger.Logger, m *metrics.Metrics) *Authority {
	if log == nil {
		log = logger.NewNop()
	}
	return &Authority{
		cfg:      cfg,
		resolver: resolver,
		store:    store,
		newCA:    newCA,
		logger:   log,
		metrics:  m,
	}
}

// AdminLabel is the store label of every organization's admin identity.
func (a *Authority) AdminLabel() string {
	return a.cfg.Bootstrap.EnrollID
}

// EnsureAdminIdentity enrolls the organization's admin with the bootstrap
// credentials unless it is already stored. created reports whether a CA
// enrollment happened.
func (a *Authority) EnsureAdminIdentity(ctx context.Context, org string) (created bool, err error) {
	orgCfg, ok := a.cfg.Organization(org)
	if !ok {
		return false, errors.NewInvalidOrgError(org)
	}
	label := a.AdminLabel()
	exists, err := a.store.Exists(ctx, org, label)
	if err != nil {
		return false, err
	}
	if exists {
		a.logger.Debug("Admin identity already present", "org", org, "label", label)
		return false, nil
	}

	client, err := a.caClient(org)
	if err != nil {
		return false, err
	}
	enrollment, err := client.Enroll(ctx, ca.EnrollmentRequest{
		EnrollID: label,
		Secret:   a.cfg.Bootstrap.EnrollSecret,
	})
	a.metrics.CAOperation("enroll", err)
	if err != nil {
		return false, errors.NewEnrollmentError("failed to enroll admin", err, map[string]interface{}{"org": org, "label": label})
	}

	if err := a.store.Put(ctx, &Identity{
		Org:         org,
		Label:       label,
		MSPID:       orgCfg.MSPID,
		Certificate: enrollment.Certificate,
		PrivateKey:  enrollment.PrivateKey,
		Role:        RoleAdmin,
	}); err != nil {
		return false, errors.NewInternalError("failed to store admin identity", err, map[string]interface{}{"org": org})
	}

	a.logger.Info("Enrolled admin identity", "org", org, "mspId", orgCfg.MSPID)
	return true, nil
}

// EnsureUserIdentity registers and enrolls userID under the organization's
// default affiliation unless it is already stored. The admin identity acts
// as registrar and is enrolled first when absent.
func (a *Authority) EnsureUserIdentity(ctx context.Context, org, userID string) (created bool, err error) {
	orgCfg, ok := a.cfg.Organization(org)
	if !ok {
		return false, errors.NewInvalidOrgError(org)
	}
	if err := ValidateLabel(userID); err != nil {
		return false, err
	}
	exists, err := a.store.Exists(ctx, org, userID)
	if err != nil {
		return false, err
	}
	if exists {
		a.logger.Debug("User identity already present", "org", org, "userId", userID)
		return false, nil
	}

	adminCreated, err := a.EnsureAdminIdentity(ctx, org)
	if err != nil {
		return false, err
	}
	if userID == a.AdminLabel() {
		return adminCreated, nil
	}
	registrar, err := a.store.Get(ctx, org, a.AdminLabel())
	if err != nil {
		return false, err
	}

	client, err := a.caClient(org)
	if err != nil {
		return false, err
	}
	details := map[string]interface{}{"org": org, "userId": userID}

	secret, err := client.Register(ctx, ca.Credential{
		Certificate: registrar.Certificate,
		PrivateKey:  registrar.PrivateKey,
	}, ca.RegistrationRequest{
		Name:        userID,
		Type:        clientIdentityType,
		Affiliation: orgCfg.Affiliation,
	})
	a.metrics.CAOperation("register", err)
	if err != nil {
		return false, errors.NewRegistrationError("failed to register user", err, details)
	}

	enrollment, err := client.Enroll(ctx, ca.EnrollmentRequest{EnrollID: userID, Secret: secret})
	a.metrics.CAOperation("enroll", err)
	if err != nil {
		return false, errors.NewEnrollmentError("failed to enroll user", err, details)
	}

	if err := a.store.Put(ctx, &Identity{
		Org:         org,
		Label:       userID,
		MSPID:       orgCfg.MSPID,
		Certificate: enrollment.Certificate,
		PrivateKey:  enrollment.PrivateKey,
		Role:        RoleUser,
	}); err != nil {
		return false, errors.NewInternalError("failed to store user identity", err, details)
	}

	a.logger.Info("Registered and enrolled user", "org", org, "userId", userID, "affiliation", orgCfg.Affiliation)
	return true, nil
}

func (a *Authority) caClient(org string) (CAClient, error) {
	profile, err := a.resolver.Resolve(org)
	if err != nil {
		return nil, err
	}
	if profile.CA == nil {
		return nil, errors.NewConnectionError("connection profile defines no certificate authority", nil, map[string]interface{}{"org": org})
	}
	client, err := a.newCA(profile.CA)
	if err != nil {
		return nil, errors.NewConnectionError("failed to create CA client", err, map[string]interface{}{"org": org})
	}
	return client, nil
}
