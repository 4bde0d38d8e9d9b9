package storage

import "os"

// Mode represents the store backend selection
type Mode string

const (
	ModeLocal  Mode = "local" // DynamoDB Local
	ModeAWS    Mode = "aws"
	ModeMemory Mode = "memory"
)

// DynamoConfig holds store configuration
type DynamoConfig struct {
	Mode             Mode
	Endpoint         string // for local mode
	Region           string
	CallRecordsTable string
}

// LoadDynamoConfig loads store config from environment
func LoadDynamoConfig() DynamoConfig {
	mode := Mode(getEnv("STORE_MODE", "memory"))
	if mode != ModeLocal && mode != ModeAWS {
		mode = ModeMemory
	}

	return DynamoConfig{
		Mode:             mode,
		Endpoint:         getEnv("DYNAMO_ENDPOINT", "http://localhost:8000"),
		Region:           getEnv("DYNAMO_REGION", "eu-central-1"),
		CallRecordsTable: getEnv("DYNAMO_CALL_RECORDS_TABLE", "callsight-call-records"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
