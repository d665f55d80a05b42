package ai

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

type Action string

const (
	ActionAccept  Action = "ACCEPT"
	ActionReject  Action = "REJECT"
	ActionCounter Action = "COUNTER"
)

var (
	advicePattern  = regexp.MustCompile(`(?i)\b(ACCEPT|REJECT|COUNTER)\b(?:[ \t:]*[$¥]?\s*([0-9]+(?:\.[0-9]+)?))?`)
	ErrParseFailed = errors.New("parse_failed")
)

// Advice is the parsed model answer. Counter is set only for ActionCounter.
type Advice struct {
	Action  Action
	Counter *decimal.Decimal
	Raw     string
}

// ParseAdvice extracts the first ACCEPT, REJECT or COUNTER <amount> token.
// A COUNTER without a positive amount is rejected.
func ParseAdvice(text string) (*Advice, error) {
	m := advicePattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return nil, fmt.Errorf("%w: no action found", ErrParseFailed)
	}
	adv := &Advice{Action: Action(strings.ToUpper(m[1])), Raw: strings.TrimSpace(text)}
	if adv.Action != ActionCounter {
		return adv, nil
	}
	if len(m) < 3 || m[2] == "" {
		return nil, fmt.Errorf("%w: counter without amount", ErrParseFailed)
	}
	amt, err := decimal.NewFromString(m[2])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	amt = amt.Round(2)
	if !amt.IsPositive() {
		return nil, fmt.Errorf("%w: counter amount must be positive", ErrParseFailed)
	}
	adv.Counter = &amt
	return adv, nil
}
