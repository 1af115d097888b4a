package chaincode

import (
	"github.com/hyperledger/fabric-chaincode-go/shim"
)

// Store is the keyed persistence boundary injected into every command
// handler. Get returns nil bytes when the key is absent, matching Fabric
// world-state semantics.
type Store interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
}

// worldStateStore backs Store with the transaction's world-state stub.
type worldStateStore struct {
	stub shim.ChaincodeStubInterface
}

func (s worldStateStore) Get(key string) ([]byte, error) {
	return s.stub.GetState(key)
}

func (s worldStateStore) Put(key string, value []byte) error {
	return s.stub.PutState(key, value)
}
