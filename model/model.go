package model

import (
	"fmt"

	"github.com/google/uuid"
)

// BankAPI identifies the protocol family an adapter speaks.
type BankAPI string

const (
	HBCI   BankAPI = "HBCI"
	XS2A   BankAPI = "XS2A"
	FINAPI BankAPI = "FINAPI"
)

// GenerateUUIDWithSuffix generates a UUID with a given module name as a suffix.
// This is useful for creating unique identifiers with context-specific prefixes.
func GenerateUUIDWithSuffix(module string) string {
	id := uuid.New()
	return fmt.Sprintf("%s_%s", module, id.String())
}
