package api

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/Kesavanmessi/secure-voting-system-second-sub001/api/controllers"
	"github.com/Kesavanmessi/secure-voting-system-second-sub001/api/transport"
	"github.com/Kesavanmessi/secure-voting-system-second-sub001/encryption"
	"github.com/Kesavanmessi/secure-voting-system-second-sub001/logging"
	"github.com/Kesavanmessi/secure-voting-system-second-sub001/notification"
	"github.com/Kesavanmessi/secure-voting-system-second-sub001/scheduler"
	"github.com/Kesavanmessi/secure-voting-system-second-sub001/storage"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gin-gonic/gin"
)

type Server struct {
	config *Config
}

func NewServer(config *Config) *Server {
	return &Server{
		config: config,
	}
}

func (s *Server) Start() {
	r := transport.NewRouter(gin.DebugMode)

	// Create storage
	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		logging.Log.Errorf("failed to load AWS config: %v", err)
		panic("failed to load AWS config")
	}

	dynamoClient := dynamodb.NewFromConfig(cfg)

	electionStorage := &storage.DynamoElectionStorage{
		Client:    dynamoClient,
		TableName: s.config.TableNameElections,
	}
	voterListStorage := &storage.DynamoVoterListStorage{
		Client:    dynamoClient,
		TableName: s.config.TableNameVoterLists,
	}
	candidateListStorage := &storage.DynamoCandidateListStorage{
		Client:    dynamoClient,
		TableName: s.config.TableNameCandidateLists,
	}
	voterSetStorage := &storage.DynamoVoterSetStorage{
		Client:    dynamoClient,
		TableName: s.config.TableNameVoterSets,
	}
	candidateSetStorage := &storage.DynamoCandidateSetStorage{
		Client:    dynamoClient,
		TableName: s.config.TableNameCandidateSets,
	}
	archiveStorage := &storage.DynamoArchiveStorage{
		Client:    dynamoClient,
		TableName: s.config.TableNameArchive,
	}
	auditStorage := &storage.DynamoVoteAuditStorage{
		Client:    dynamoClient,
		TableName: s.config.TableNameVoteAudit,
	}

	cipher := encryption.NewTallyCipher(s.config.CipherSecret)
	notifier := s.buildNotifier()

	// Start the lifecycle coordinator next to the API
	coordinator := &scheduler.Coordinator{
		Elections:     electionStorage,
		VoterSets:     voterSetStorage,
		CandidateSets: candidateSetStorage,
		Archive:       archiveStorage,
		AuditLog:      auditStorage,
		Materializer: &scheduler.Materializer{
			VoterLists:     voterListStorage,
			CandidateLists: candidateListStorage,
			VoterSets:      voterSetStorage,
			CandidateSets:  candidateSetStorage,
			Cipher:         cipher,
			Notifier:       notifier,
		},
		Cipher:       cipher,
		Notifier:     notifier,
		PollInterval: s.config.PollInterval,
		Rand:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	go coordinator.Start(context.Background())

	//Register controllers
	votingController := controllers.NewVotingController(electionStorage, voterSetStorage, candidateSetStorage, auditStorage, archiveStorage, cipher)
	votingController.RegisterRoutes(r)
	electionAdminController := controllers.NewElectionAdminController(electionStorage, voterSetStorage, candidateSetStorage, auditStorage, notifier)
	electionAdminController.RegisterRoutes(r)
	rosterMetaController := controllers.NewRosterMetaController(voterListStorage, candidateListStorage, electionStorage)
	rosterMetaController.RegisterRoutes(r)

	logging.Log.Info(fmt.Sprintf("Starting server on http://localhost:%d", s.config.Port))

	if err := r.Run(fmt.Sprintf(":%d", s.config.Port)); err != nil {
		logging.Log.Fatalf("Failed to run server: %v", err)
	}
}

// buildNotifier wires real mail only when SMTP is configured; local runs
// log the messages instead.
func (s *Server) buildNotifier() notification.Notifier {
	if s.config.SMTPHost == "" {
		logging.Log.Info("SMTP not configured, using log notifier")
		return &notification.LogNotifier{}
	}
	return &notification.EmailNotifier{
		Host:     s.config.SMTPHost,
		Port:     s.config.SMTPPort,
		Username: s.config.SMTPUsername,
		Password: s.config.SMTPPassword,
		From:     s.config.SMTPFrom,
	}
}
