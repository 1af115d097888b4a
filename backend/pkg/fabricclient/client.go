package fabricclient

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hyperledger/fabric-sdk-go/pkg/common/providers/fab"
	"github.com/hyperledger/fabric-sdk-go/pkg/core/config"
	"github.com/hyperledger/fabric-sdk-go/pkg/gateway"
)

type Client struct {
	gw       *gateway.Gateway
	network  *gateway.Network
	contract *gateway.Contract

	eventRegs []fab.Registration
}

func NewClient(configPath, channelName, contractName, mspID, certPath, keyPath string) (*Client, error) {
	wallet, err := gateway.NewFileSystemWallet("wallet")
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet: %v", err)
	}

	if !wallet.Exists("appUser") {
		err = populateWallet(wallet, mspID, certPath, keyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to populate wallet: %v", err)
		}
	}

	gw, err := gateway.Connect(
		gateway.WithConfig(config.FromFile(filepath.Clean(configPath))),
		gateway.WithIdentity(wallet, "appUser"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to gateway: %v", err)
	}

	network, err := gw.GetNetwork(channelName)
	if err != nil {
		return nil, fmt.Errorf("failed to get network: %v", err)
	}

	contract := network.GetContract(contractName)

	return &Client{
		gw:       gw,
		network:  network,
		contract: contract,
	}, nil
}

func (c *Client) SubmitTransaction(name string, args ...string) ([]byte, error) {
	return c.contract.SubmitTransaction(name, args...)
}

func (c *Client) EvaluateTransaction(name string, args ...string) ([]byte, error) {
	return c.contract.EvaluateTransaction(name, args...)
}

// SubmitJSON marshals the request as the transaction's single JSON argument,
// the subscription chaincode's command convention.
func (c *Client) SubmitJSON(name string, request interface{}) ([]byte, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %v", name, err)
	}
	return c.contract.SubmitTransaction(name, string(payload))
}

// EvaluateInto runs a query transaction and decodes its JSON payload into out.
func (c *Client) EvaluateInto(name string, out interface{}, args ...string) error {
	payload, err := c.contract.EvaluateTransaction(name, args...)
	if err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %v", name, err)
	}
	return nil
}

// RegisterChaincodeEventListener subscribes to a chaincode event; the
// registration is released on Close.
func (c *Client) RegisterChaincodeEventListener(eventName string) (<-chan *fab.CCEvent, error) {
	reg, notifier, err := c.contract.RegisterEvent(eventName)
	if err != nil {
		return nil, err
	}
	c.eventRegs = append(c.eventRegs, reg)
	return notifier, nil
}

func (c *Client) Close() {
	for _, reg := range c.eventRegs {
		c.contract.Unregister(reg)
	}
	c.gw.Close()
}

func populateWallet(wallet *gateway.Wallet, mspID, certPath, keyPath string) error {
	cert, err := os.ReadFile(filepath.Clean(certPath))
	if err != nil {
		return err
	}

	key, err := os.ReadFile(filepath.Clean(keyPath))
	if err != nil {
		return err
	}

	identity := gateway.NewX509Identity(mspID, string(cert), string(key))

	return wallet.Put("appUser", identity)
}
