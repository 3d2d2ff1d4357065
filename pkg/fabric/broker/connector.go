package broker

import (
	"bytes"
	"context"
	"crypto/x509"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/chainlaunch/asset-gateway/pkg/fabric/networkconfig"
	"github.com/chainlaunch/asset-gateway/pkg/identity"
	"github.com/chainlaunch/asset-gateway/pkg/logger"
	"github.com/hyperledger/fabric-admin-sdk/pkg/network"
	"github.com/hyperledger/fabric-gateway/pkg/client"
	fabricid "github.com/hyperledger/fabric-gateway/pkg/identity"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

// Contract is the handle to the deployed chaincode. It is satisfied by
// *client.Contract.
type Contract interface {
	SubmitTransaction(name string, args ...string) ([]byte, error)
	EvaluateTransaction(name string, args ...string) ([]byte, error)
}

// Connection is a live, identity scoped link to the network.
type Connection interface {
	Contract() Contract
	Close() error
}

type ConnectRequest struct {
	Profile   *networkconfig.ConnectionProfile
	Identity  *identity.Identity
	Channel   string
	Chaincode string
}

// Connector establishes connections. Implementations must release anything
// they acquired when Connect fails.
type Connector interface {
	Connect(ctx context.Context, req ConnectRequest) (Connection, error)
}

// GatewayConnector connects through the Fabric Gateway service of one of
// the organization's peers. Endorser discovery happens on the gateway peer.
type GatewayConnector struct {
	logger *logger.Logger
}

func NewGatewayConnector(log *logger.Logger) *GatewayConnector {
	if log == nil {
		log = logger.NewNop()
	}
	return &GatewayConnector{logger: log}
}

func (c *GatewayConnector) Connect(ctx context.Context, req ConnectRequest) (Connection, error) {
	if req.Profile == nil || len(req.Profile.Peers) == 0 {
		return nil, fmt.Errorf("no peers available for organization")
	}
	id, sign, err := signerFor(req.Identity)
	if err != nil {
		return nil, err
	}

	peer := req.Profile.Peers[rand.IntN(len(req.Profile.Peers))]
	c.logger.Debug("Selected gateway peer", "org", req.Profile.Org, "peer", peer.Name)

	conn, err := dialPeer(peer)
	if err != nil {
		return nil, err
	}
	gateway, err := client.Connect(id, client.WithSign(sign), client.WithClientConnection(conn))
	if err != nil {
		conn.Close()
		return nil, errors.Wrapf(err, "failed to connect gateway on peer %s", peer.Name)
	}

	contract := gateway.GetNetwork(req.Channel).GetContract(req.Chaincode)
	return &gatewayConnection{gateway: gateway, conn: conn, contract: contract}, nil
}

type gatewayConnection struct {
	gateway  *client.Gateway
	conn     *grpc.ClientConn
	contract *client.Contract
}

func (g *gatewayConnection) Contract() Contract {
	return g.contract
}

func (g *gatewayConnection) Close() error {
	gwErr := g.gateway.Close()
	connErr := g.conn.Close()
	if gwErr != nil {
		return gwErr
	}
	return connErr
}

func signerFor(id *identity.Identity) (*fabricid.X509Identity, fabricid.Sign, error) {
	if id == nil {
		return nil, nil, fmt.Errorf("identity is required")
	}
	cert, err := fabricid.CertificateFromPEM(id.Certificate)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to read certificate for user %s and org %s", id.Label, id.Org)
	}
	privateKey, err := fabricid.PrivateKeyFromPEM(id.PrivateKey)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to read private key for user %s and org %s", id.Label, id.Org)
	}
	sign, err := fabricid.NewPrivateKeySign(privateKey)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to create signer for user %s and org %s", id.Label, id.Org)
	}
	x509ID, err := fabricid.NewX509Identity(id.MSPID, cert)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to create identity for user %s and org %s", id.Label, id.Org)
	}
	return x509ID, sign, nil
}

func dialPeer(peer networkconfig.Endpoint) (*grpc.ClientConn, error) {
	if strings.HasPrefix(peer.URL, "grpc://") {
		conn, err := grpc.NewClient(strings.TrimPrefix(peer.URL, "grpc://"),
			grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return nil, fmt.Errorf("failed to dial connection: %w", err)
		}
		return conn, nil
	}

	addr := strings.TrimPrefix(peer.URL, "grpcs://")
	if peer.ServerNameOverride != "" {
		pool := x509.NewCertPool()
		for _, cert := range peer.TLSCACerts {
			pool.AppendCertsFromPEM(cert)
		}
		creds := credentials.NewClientTLSFromCert(pool, peer.ServerNameOverride)
		conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(creds))
		if err != nil {
			return nil, fmt.Errorf("failed to dial connection: %w", err)
		}
		return conn, nil
	}

	networkNode := network.Node{
		Addr:          addr,
		TLSCACertByte: bytes.Join(peer.TLSCACerts, []byte("\n")),
	}
	conn, err := network.DialConnection(networkNode)
	if err != nil {
		return nil, fmt.Errorf("failed to dial connection: %w", err)
	}
	return conn, nil
}
