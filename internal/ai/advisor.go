package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shinyyama/fleamarket-backend/internal/reqctx"
	"github.com/shopspring/decimal"
	"google.golang.org/genai"
)

var ErrNotConfigured = errors.New("ai advisor is not configured")

// AdviceInput is what the model sees about one offer.
type AdviceInput struct {
	ListingName  string
	Description  string
	ListingPrice decimal.Decimal
	OfferAmount  decimal.Decimal
	OtherOffers  int
	Strategy     string
}

type OfferAdvisor interface {
	Advise(ctx context.Context, in AdviceInput) (*Advice, error)
}

// TextGenerator produces a model reply for a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, model string, parts ...string) (string, error)
}

type GeminiAdvisor struct {
	gen   TextGenerator
	model string
}

func NewGeminiAdvisor(gen TextGenerator, model string) *GeminiAdvisor {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiAdvisor{gen: gen, model: model}
}

func (a *GeminiAdvisor) Advise(ctx context.Context, in AdviceInput) (*Advice, error) {
	if a == nil || a.gen == nil {
		return nil, ErrNotConfigured
	}
	rid := reqctx.RID(ctx)
	listingID := reqctx.ListingID(ctx)
	start := time.Now()

	facts := fmt.Sprintf("Listing: %s\nDescription: %s\nListing price: %s\nOffer amount: %s\nOther pending offers: %d",
		in.ListingName, in.Description, in.ListingPrice.StringFixed(2), in.OfferAmount.StringFixed(2), in.OtherOffers)
	log.Printf("[advice] rid=%s listing=%s stage=gemini_start model=%s", rid, listingID, a.model)
	raw, err := a.gen.Generate(ctx, a.model, BuildAdvicePrompt(in.Strategy), facts)
	if err != nil {
		log.Printf("[advice] rid=%s listing=%s stage=gemini_fail model=%s err=%v", rid, listingID, a.model, err)
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	log.Printf("[advice] rid=%s listing=%s stage=gemini_done genMs=%d", rid, listingID, time.Since(start).Milliseconds())

	adv, err := ParseAdvice(raw)
	if err != nil {
		text := strings.ReplaceAll(raw, "\n", " ")
		if len(text) > 80 {
			text = text[:80]
		}
		log.Printf("[advice] rid=%s listing=%s stage=parse_fail len=%d text=%q err=%v", rid, listingID, len(raw), text, err)
		return nil, err
	}
	// keep the counter inside (offer, price]
	if adv.Counter != nil && (adv.Counter.LessThanOrEqual(in.OfferAmount) || adv.Counter.GreaterThan(in.ListingPrice)) {
		log.Printf("[advice] rid=%s listing=%s stage=counter_out_of_range counter=%s", rid, listingID, adv.Counter.StringFixed(2))
		c := decimal.Min(in.ListingPrice, decimal.Max(*adv.Counter, in.OfferAmount.Add(decimal.New(1, -2))))
		adv.Counter = &c
	}
	return adv, nil
}

type genaiGenerator struct {
	client *genai.Client
}

// NewGenAIGenerator connects to the Gemini API with the given key.
func NewGenAIGenerator(ctx context.Context, apiKey string) (TextGenerator, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &genaiGenerator{client: client}, nil
}

func (g *genaiGenerator) Generate(ctx context.Context, model string, texts ...string) (string, error) {
	parts := make([]*genai.Part, 0, len(texts))
	for _, t := range texts {
		parts = append(parts, genai.NewPartFromText(t))
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}
	temp := float32(0)
	res, err := g.client.Models.GenerateContent(ctx, model, contents, &genai.GenerateContentConfig{
		Temperature: &temp,
	})
	if err != nil {
		return "", err
	}
	return res.Text(), nil
}
