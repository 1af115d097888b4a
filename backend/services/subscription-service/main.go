package main

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"

	"github.com/FigureTechnologies/marketpalace-subscription-contract/backend/pkg/common"
	"github.com/FigureTechnologies/marketpalace-subscription-contract/backend/pkg/common/api"
	"github.com/FigureTechnologies/marketpalace-subscription-contract/backend/pkg/common/db"
	"github.com/FigureTechnologies/marketpalace-subscription-contract/backend/pkg/common/migrations"
	"github.com/FigureTechnologies/marketpalace-subscription-contract/backend/pkg/fabricclient"
	"github.com/FigureTechnologies/marketpalace-subscription-contract/backend/services/subscription-service/models"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
)

type Service struct {
	fabric *fabricclient.Client
	db     *sql.DB
}

// submit runs one chaincode command and mirrors it into the command log.
func (s *Service) submit(w http.ResponseWriter, command string, request interface{}) {
	payload, err := json.Marshal(request)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), "")
		return
	}
	_, submitErr := s.fabric.SubmitJSON(command, request)
	s.record(w, command, string(payload), submitErr)
}

// record mirrors one submitted command into the command log and writes the
// HTTP response. Every command goes through here, whatever its argument shape.
func (s *Service) record(w http.ResponseWriter, command, payload string, submitErr error) {
	id := uuid.NewString()
	status := "Committed"
	if submitErr != nil {
		status = "Rejected"
		log.Printf("Command %s rejected: %v", command, submitErr)
	}

	if _, dbErr := s.db.Exec(`
		INSERT INTO subscription_db.commands (id, command, payload, status)
		VALUES ($1, $2, $3, $4)`,
		id, command, payload, status); dbErr != nil {
		log.Printf("Failed to mirror command %s: %v", id, dbErr)
	}

	if status == "Rejected" {
		api.WriteError(w, http.StatusUnprocessableEntity, "COMMAND_REJECTED", "chaincode rejected the command", id)
		return
	}
	api.WriteSuccess(w, http.StatusOK, models.CommandRecord{
		ID:      id,
		Command: command,
		Payload: payload,
		Status:  status,
	})
}

func decode(w http.ResponseWriter, r *http.Request, into interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		api.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body", "")
		return false
	}
	return true
}

func (s *Service) RecoverHandler(w http.ResponseWriter, r *http.Request) {
	var req models.RecoverRequest
	if !decode(w, r, &req) {
		return
	}
	payload, _ := json.Marshal(req)
	_, err := s.fabric.SubmitTransaction("Recover", req.Subscriber)
	s.record(w, "Recover", string(payload), err)
}

func (s *Service) CloseRemainingCommitmentHandler(w http.ResponseWriter, r *http.Request) {
	_, err := s.fabric.SubmitTransaction("CloseRemainingCommitment")
	s.record(w, "CloseRemainingCommitment", "{}", err)
}

func (s *Service) AcceptHandler(w http.ResponseWriter, r *http.Request) {
	var req models.AcceptRequest
	if !decode(w, r, &req) {
		return
	}
	s.submit(w, "Accept", req)
}

func (s *Service) IssueCapitalCallHandler(w http.ResponseWriter, r *http.Request) {
	var req models.CapitalCallRequest
	if !decode(w, r, &req) {
		return
	}
	s.submit(w, "IssueCapitalCall", req)
}

func (s *Service) CloseCapitalCallHandler(w http.ResponseWriter, r *http.Request) {
	var req models.CloseCapitalCallRequest
	if !decode(w, r, &req) {
		return
	}
	s.submit(w, "CloseCapitalCall", req)
}

func (s *Service) AuthorizeExchangeHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ExchangeRequest
	if !decode(w, r, &req) {
		return
	}
	s.submit(w, "AuthorizeAssetExchange", req)
}

func (s *Service) CancelExchangeHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ExchangeRequest
	if !decode(w, r, &req) {
		return
	}
	s.submit(w, "CancelAssetExchangeAuthorization", req)
}

func (s *Service) CompleteExchangeHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ExchangeRequest
	if !decode(w, r, &req) {
		return
	}
	s.submit(w, "CompleteAssetExchange", req)
}

func (s *Service) IssueRedemptionHandler(w http.ResponseWriter, r *http.Request) {
	var req models.RedemptionRequest
	if !decode(w, r, &req) {
		return
	}
	s.submit(w, "IssueRedemption", req)
}

func (s *Service) IssueDistributionHandler(w http.ResponseWriter, r *http.Request) {
	var req models.DistributionRequest
	if !decode(w, r, &req) {
		return
	}
	s.submit(w, "IssueDistribution", req)
}

func (s *Service) IssueWithdrawalHandler(w http.ResponseWriter, r *http.Request) {
	var req models.WithdrawalRequest
	if !decode(w, r, &req) {
		return
	}
	s.submit(w, "IssueWithdrawal", req)
}

func (s *Service) query(w http.ResponseWriter, name string) {
	var out json.RawMessage
	if err := s.fabric.EvaluateInto(name, &out); err != nil {
		log.Printf("Query %s failed: %v", name, err)
		api.WriteError(w, http.StatusBadGateway, "QUERY_FAILED", err.Error(), "")
		return
	}
	api.WriteSuccess(w, http.StatusOK, out)
}

func (s *Service) GetTermsHandler(w http.ResponseWriter, r *http.Request) {
	s.query(w, "GetTerms")
}

func (s *Service) GetStateHandler(w http.ResponseWriter, r *http.Request) {
	s.query(w, "GetState")
}

func (s *Service) GetTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	s.query(w, "GetTransactions")
}

func (s *Service) GetAuthorizationsHandler(w http.ResponseWriter, r *http.Request) {
	s.query(w, "GetAssetExchangeAuthorizations")
}

func (s *Service) HealthHandler(w http.ResponseWriter, r *http.Request) {
	api.WriteSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using environment")
	}
	cfg := common.LoadConfig()

	database, err := db.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := migrations.RunMigrations(database, "migrations"); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	fabric, err := fabricclient.NewClient(cfg.FabricConfig, cfg.Channel, cfg.Chaincode, cfg.MSP, cfg.CertPath, cfg.KeyPath)
	if err != nil {
		log.Fatalf("Failed to connect to Fabric: %v", err)
	}
	defer fabric.Close()

	svc := &Service{fabric: fabric, db: database}

	r := mux.NewRouter()
	r.HandleFunc("/health", svc.HealthHandler).Methods("GET")

	r.HandleFunc("/subscription/terms", svc.GetTermsHandler).Methods("GET")
	r.HandleFunc("/subscription/state", svc.GetStateHandler).Methods("GET")
	r.HandleFunc("/subscription/transactions", svc.GetTransactionsHandler).Methods("GET")
	r.HandleFunc("/subscription/authorizations", svc.GetAuthorizationsHandler).Methods("GET")

	commands := r.PathPrefix("/subscription").Subrouter()
	commands.HandleFunc("/recover", svc.RecoverHandler).Methods("POST")
	commands.HandleFunc("/accept", svc.AcceptHandler).Methods("POST")
	commands.HandleFunc("/capital-calls", svc.IssueCapitalCallHandler).Methods("POST")
	commands.HandleFunc("/capital-calls/close", svc.CloseCapitalCallHandler).Methods("POST")
	commands.HandleFunc("/commitment/close", svc.CloseRemainingCommitmentHandler).Methods("POST")
	commands.HandleFunc("/exchanges/authorize", svc.AuthorizeExchangeHandler).Methods("POST")
	commands.HandleFunc("/exchanges/cancel", svc.CancelExchangeHandler).Methods("POST")
	commands.HandleFunc("/exchanges/complete", svc.CompleteExchangeHandler).Methods("POST")
	commands.HandleFunc("/redemptions", svc.IssueRedemptionHandler).Methods("POST")
	commands.HandleFunc("/distributions", svc.IssueDistributionHandler).Methods("POST")
	commands.HandleFunc("/withdrawals", svc.IssueWithdrawalHandler).Methods("POST")
	commands.Use(func(next http.Handler) http.Handler {
		return common.AuthMiddleware(cfg.JWTSecret, next)
	})

	log.Printf("Subscription service listening on :%s", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, r))
}
