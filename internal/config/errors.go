package config

import "errors"

var (
	ErrPostgresDSNRequired  = errors.New("POSTGRES_DSN is required when STORE_DRIVER=postgres")
	ErrUnknownStoreDriver   = errors.New("STORE_DRIVER must be postgres or memory")
	ErrInvalidJoinAttempts  = errors.New("JOIN_MAX_ATTEMPTS must be at least 1")
	ErrInvalidCommitTimeout = errors.New("JOIN_COMMIT_TIMEOUT must be positive")
	ErrKafkaTopicRequired   = errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	ErrInvalidLogRotation   = errors.New("LOG_MAX_MB must be positive when LOG_FILE is set")
)
