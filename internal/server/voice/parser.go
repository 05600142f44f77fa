// Package voice defines the contract with the external speech parsing
// service. The model that turns audio into a structured expense draft is not
// part of this repository; deployments inject an implementation.
package voice

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Draft is the structured expense a parser extracted from a clip. Zero
// fields mean the parser could not determine the value; the client fills in
// defaults.
type Draft struct {
	Amount      decimal.Decimal
	Title       string
	Category    string
	ExpenseDate time.Time
	Notes       string
}

// Parser turns an audio clip, addressed by a readable URL, into a Draft.
type Parser interface {
	Parse(ctx context.Context, audioURL string) (*Draft, error)
}
