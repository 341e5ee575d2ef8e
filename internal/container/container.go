package container

import (
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/oksasatya/stockmaster/config"
	"github.com/oksasatya/stockmaster/internal/application"
	"github.com/oksasatya/stockmaster/internal/domain/repository"
	"github.com/oksasatya/stockmaster/pkg/helpers"
)

// app-level container to share constructed components across packages
// Router can auto-wire modules from these singletons.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	mongoClient *mongo.Client
	pgPool      *pgxpool.Pool
	redisClient *redis.Client
	esClient    *elasticsearch.Client
	rabbitQueue *helpers.RabbitQueue

	tokens      *helpers.TokenIssuer
	accountRepo repository.AccountRepository
	notifier    application.Notifier
	indexer     application.AccountIndexer
)

func SetConfig(c *config.Config)                    { cfg = c }
func GetConfig() *config.Config                     { return cfg }
func SetLogger(l *logrus.Logger)                    { logger = l }
func GetLogger() *logrus.Logger                     { return logger }
func SetMongo(c *mongo.Client)                      { mongoClient = c }
func GetMongo() *mongo.Client                       { return mongoClient }
func SetPGPool(p *pgxpool.Pool)                     { pgPool = p }
func GetPGPool() *pgxpool.Pool                      { return pgPool }
func SetRedis(r *redis.Client)                      { redisClient = r }
func GetRedis() *redis.Client                       { return redisClient }
func SetES(c *elasticsearch.Client)                 { esClient = c }
func GetES() *elasticsearch.Client                  { return esClient }
func SetRabbitQueue(q *helpers.RabbitQueue)         { rabbitQueue = q }
func GetRabbitQueue() *helpers.RabbitQueue          { return rabbitQueue }
func SetTokens(t *helpers.TokenIssuer)              { tokens = t }
func GetTokens() *helpers.TokenIssuer               { return tokens }
func SetAccountRepo(r repository.AccountRepository) { accountRepo = r }
func GetAccountRepo() repository.AccountRepository  { return accountRepo }
func SetNotifier(n application.Notifier)            { notifier = n }
func GetNotifier() application.Notifier             { return notifier }

// SetIndexer is optional; without it account search returns no results.
func SetIndexer(x application.AccountIndexer) { indexer = x }
func GetIndexer() application.AccountIndexer  { return indexer }
