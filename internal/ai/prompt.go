package ai

import "strings"

const basePrompt = `You advise a seller on a second-hand marketplace who received a purchase offer.

Hard rules (must follow):

* Answer with exactly one line and nothing else.
* The line must be one of: ACCEPT, REJECT, or COUNTER <amount>.
* <amount> is a plain number with at most two decimals, no currency symbol.
* A counter amount must be above the offer and not above the listing price.`

var strategyPrompts = map[string]string{
	"balanced": `Strategy (balanced):

* Accept offers within 10% of the listing price.
* Counter reasonable offers with a price between the offer and the listing price.
* Reject offers below half of the listing price.`,
	"firm": `Strategy (firm):

* Accept only offers within 5% of the listing price.
* Counter close to the listing price otherwise.
* Reject offers below 70% of the listing price.`,
	"quick-sale": `Strategy (quick-sale):

* The seller wants the item gone soon.
* Accept offers at or above 70% of the listing price.
* Counter lower offers modestly; reject only clearly unserious offers.`,
}

// BuildAdvicePrompt concatenates the base and strategy prompts. Unknown strategies fall back to balanced.
func BuildAdvicePrompt(strategy string) string {
	strategy = strings.TrimSpace(strings.ToLower(strategy))
	style, ok := strategyPrompts[strategy]
	if !ok {
		style = strategyPrompts["balanced"]
	}
	return strings.Join([]string{basePrompt, style}, "\n\n")
}
