package main

import (
	"log"

	"github.com/FigureTechnologies/marketpalace-subscription-contract/backend/chaincode/subscription-cc/chaincode"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

func main() {
	subscriptionChaincode, err := contractapi.NewChaincode(&chaincode.SmartContract{})
	if err != nil {
		log.Panicf("Error creating subscription chaincode: %v", err)
	}

	if err := subscriptionChaincode.Start(); err != nil {
		log.Panicf("Error starting subscription chaincode: %v", err)
	}
}
