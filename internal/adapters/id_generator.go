package adapters

import (
	"github.com/google/uuid"

	"module-tool/internal/ports"
)

// UUIDGenerator names backup files with time ordered UUIDv7 values.
type UUIDGenerator struct{}

func NewUUIDGenerator() UUIDGenerator {
	return UUIDGenerator{}
}

func (UUIDGenerator) NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

var _ ports.IDGeneratorPort = UUIDGenerator{}
