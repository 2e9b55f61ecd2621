package services

import (
	"checklist/config"
	"checklist/internal/database"
	"checklist/internal/events"
	"checklist/internal/repositories"
)

type Service struct {
	Transaction *TransactionService
	Scheduler   *SchedulerService
	Directory   *DirectoryClient
	Users       *UserResolver
	Audit       *AuditSink
	Submission  *SubmissionService
}

func New(
	db database.DB,
	repos repositories.Repository,
	config config.Config,
	eventBus *events.EventBus,
) (Service, error) {
	location, err := config.Location()
	if err != nil {
		return Service{}, err
	}

	var publisher Publisher
	if eventBus != nil {
		publisher = eventBus
	}

	transactionService := NewTransactionService(db)
	directoryClient := NewDirectoryClient(config, db.Cache.Identity)
	userResolver := NewUserResolver(directoryClient, repos.User, config.IdentityTimeout())
	auditSink := NewAuditSink(transactionService, repos.ChecklistLog, publisher)
	submissionService := NewSubmissionService(
		transactionService,
		repos,
		userResolver,
		auditSink,
		publisher,
		location,
	)

	return Service{
		Transaction: transactionService,
		Scheduler:   NewSchedulerService(location),
		Directory:   directoryClient,
		Users:       userResolver,
		Audit:       auditSink,
		Submission:  submissionService,
	}, nil
}
