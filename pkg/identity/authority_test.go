package identity_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/chainlaunch/asset-gateway/internal/testutil"
	"github.com/chainlaunch/asset-gateway/pkg/certutils"
	"github.com/chainlaunch/asset-gateway/pkg/errors"
	"github.com/chainlaunch/asset-gateway/pkg/fabric/networkconfig"
	"github.com/chainlaunch/asset-gateway/pkg/identity"
	"github.com/chainlaunch/asset-gateway/pkg/logger"
	"github.com/chainlaunch/asset-gateway/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authorityFixture struct {
	network   *testutil.Network
	store     identity.Store
	authority *identity.Authority
}

func newAuthorityFixture(t *testing.T) *authorityFixture {
	t.Helper()
	network := testutil.NewNetwork(t)
	store := identity.NewFileStore(network.Config)
	log := logger.NewNop()
	authority := identity.NewAuthority(
		network.Config,
		networkconfig.NewResolver(network.Config),
		store,
		identity.NewCAClientFactory(log),
		log,
		metrics.New(),
	)
	return &authorityFixture{network: network, store: store, authority: authority}
}

func TestEnsureAdminIdentityEnrollsOnce(t *testing.T) {
	f := newAuthorityFixture(t)
	ctx := context.Background()

	created, err := f.authority.EnsureAdminIdentity(ctx, "org1")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = f.authority.EnsureAdminIdentity(ctx, "org1")
	require.NoError(t, err)
	assert.False(t, created)

	assert.Equal(t, 1, f.network.CAs["org1"].EnrollCalls(testutil.BootstrapID))
	assert.Equal(t, 0, f.network.CAs["org2"].TotalEnrollCalls())

	admin, err := f.store.Get(ctx, "org1", "admin")
	require.NoError(t, err)
	assert.Equal(t, identity.RoleAdmin, admin.Role)
	assert.Equal(t, "Org1MSP", admin.MSPID)
	cert, err := certutils.ParseX509Certificate(admin.Certificate)
	require.NoError(t, err)
	assert.Equal(t, "admin", cert.Subject.CommonName)
}

func TestEnsureAdminIdentityEnrollmentRejected(t *testing.T) {
	f := newAuthorityFixture(t)
	f.network.Config.Bootstrap.EnrollSecret = "wrong"

	_, err := f.authority.EnsureAdminIdentity(context.Background(), "org2")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.EnrollmentError))

	exists, err := f.store.Exists(context.Background(), "org2", "admin")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestEnsureAdminIdentityUnknownOrg(t *testing.T) {
	f := newAuthorityFixture(t)

	_, err := f.authority.EnsureAdminIdentity(context.Background(), "org3")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.InvalidOrgError))
}

func TestEnsureUserIdentityRegistersAndEnrolls(t *testing.T) {
	f := newAuthorityFixture(t)
	ctx := context.Background()
	ca := f.network.CAs["org1"]

	created, err := f.authority.EnsureUserIdentity(ctx, "org1", "appUser")
	require.NoError(t, err)
	assert.True(t, created)

	// Admin was enrolled implicitly to act as registrar.
	assert.Equal(t, 1, ca.EnrollCalls("admin"))
	assert.Equal(t, 1, ca.RegisterCalls())
	assert.Equal(t, 1, ca.EnrollCalls("appUser"))
	assert.Equal(t, "org1.department1", ca.LastRegisterRequest()["affiliation"])
	assert.Equal(t, "client", ca.LastRegisterRequest()["type"])

	user, err := f.store.Get(ctx, "org1", "appUser")
	require.NoError(t, err)
	assert.Equal(t, identity.RoleUser, user.Role)

	created, err = f.authority.EnsureUserIdentity(ctx, "org1", "appUser")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 1, ca.RegisterCalls())

	labels, err := f.store.List(ctx, "org1")
	require.NoError(t, err)
	assert.Equal(t, []string{"admin", "appUser"}, labels)
}

func TestEnsureUserIdentityForAdminLabel(t *testing.T) {
	f := newAuthorityFixture(t)

	created, err := f.authority.EnsureUserIdentity(context.Background(), "org2", "admin")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 0, f.network.CAs["org2"].RegisterCalls())
}

func TestEnsureUserIdentityAlreadyRegisteredAtCA(t *testing.T) {
	f := newAuthorityFixture(t)
	f.network.CAs["org1"].Register("appUser", "elsewhere")

	_, err := f.authority.EnsureUserIdentity(context.Background(), "org1", "appUser")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.RegistrationError))
	assert.Contains(t, err.Error(), "is already registered")
}

func TestEnsureUserIdentityEnrollmentFails(t *testing.T) {
	f := newAuthorityFixture(t)
	ctx := context.Background()
	_, err := f.authority.EnsureAdminIdentity(ctx, "org1")
	require.NoError(t, err)
	f.network.CAs["org1"].FailEnroll("certificate issuance unavailable")

	_, err = f.authority.EnsureUserIdentity(ctx, "org1", "appUser")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.EnrollmentError))
}

func TestEnsureUserIdentityRejectsBadLabel(t *testing.T) {
	f := newAuthorityFixture(t)

	_, err := f.authority.EnsureUserIdentity(context.Background(), "org1", "../admin")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ValidationError))
	assert.Equal(t, 0, f.network.CAs["org1"].TotalEnrollCalls())
}

// Concurrent first-time calls for the same user are not serialized; at most
// one registration wins and every loser reports a RegistrationError.
func TestEnsureUserIdentityConcurrentFirstTime(t *testing.T) {
	f := newAuthorityFixture(t)
	ctx := context.Background()
	_, err := f.authority.EnsureAdminIdentity(ctx, "org1")
	require.NoError(t, err)

	const callers = 4
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.authority.EnsureUserIdentity(ctx, "org1", "racer")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			assert.True(t, errors.IsType(err, errors.RegistrationError), fmt.Sprintf("caller %d: %v", i, err))
		}
	}
	exists, err := f.store.Exists(ctx, "org1", "racer")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestEnsureAdminIdentityWithoutCA(t *testing.T) {
	f := newAuthorityFixture(t)
	authority := identity.NewAuthority(
		f.network.Config,
		stubResolver{profile: &networkconfig.ConnectionProfile{Org: "org1"}},
		f.store,
		identity.NewCAClientFactory(nil),
		nil,
		nil,
	)

	_, err := authority.EnsureAdminIdentity(context.Background(), "org1")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ConnectionError))
}

type stubResolver struct {
	profile *networkconfig.ConnectionProfile
}

func (s stubResolver) Resolve(org string) (*networkconfig.ConnectionProfile, error) {
	return s.profile, nil
}
