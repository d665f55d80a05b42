package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shinyyama/fleamarket-backend/internal/config"
	"github.com/shinyyama/fleamarket-backend/internal/db"
	"github.com/shinyyama/fleamarket-backend/internal/docstore"
	"github.com/shinyyama/fleamarket-backend/internal/gcp"
	"github.com/shinyyama/fleamarket-backend/internal/model"
	"github.com/shinyyama/fleamarket-backend/internal/repository"
	"github.com/shopspring/decimal"
)

const (
	demoSeller = "demo-seller"
	demoBuyer  = "demo-buyer"
)

type seedListing struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
}

func run() error {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	repos, err := openRepos(ctx, cfg)
	if err != nil {
		return err
	}

	canSeed, err := shouldSeed(ctx, repos.Listings)
	if err != nil {
		return err
	}
	if !canSeed {
		log.Printf("listings already exist; skipping seed (set FORCE_SEED=true to override)")
		return nil
	}

	listings := buildSeedListings()
	var offers int
	for idx, it := range listings {
		l := &model.Listing{
			SellerUID:   demoSeller,
			Name:        it.Name,
			Description: it.Description,
			Price:       it.Price,
			Category:    it.Category,
			Images:      []model.ListingImage{{ImageURL: picsumURL(it.Category, idx+1, 1)}},
		}
		if err := repos.Listings.Create(ctx, l); err != nil {
			return fmt.Errorf("create listing %q: %w", it.Name, err)
		}
		// every third listing gets a pending offer at 80% of the price
		if idx%3 != 0 {
			continue
		}
		o := &model.Offer{
			ListingID: l.ID,
			BuyerUID:  demoBuyer,
			SellerUID: demoSeller,
			Amount:    l.Price.Mul(decimal.NewFromFloat(0.8)).Round(2),
			Status:    model.OfferStatusPending,
		}
		if err := repos.Offers.Create(ctx, o); err != nil {
			return fmt.Errorf("create offer on %q: %w", it.Name, err)
		}
		offers++
	}

	log.Printf("seeded %d listings and %d offers", len(listings), offers)
	return nil
}

func openRepos(ctx context.Context, cfg *config.Config) (repository.Set, error) {
	if cfg.DataBackend == config.BackendFirestore {
		app, err := gcp.NewApp(ctx, cfg)
		if err != nil {
			return repository.Set{}, err
		}
		fs, err := app.Firestore(ctx)
		if err != nil {
			return repository.Set{}, fmt.Errorf("firestore: %w", err)
		}
		return docstore.NewSet(fs), nil
	}
	gdb, err := db.Connect(cfg)
	if err != nil {
		return repository.Set{}, fmt.Errorf("connect db: %w", err)
	}
	if err := db.Migrate(gdb); err != nil {
		return repository.Set{}, fmt.Errorf("migrate: %w", err)
	}
	return repository.NewGormSet(gdb), nil
}

func buildSeedListings() []seedListing {
	type cat struct {
		Slug  string
		Names []string
		Price int64
	}
	categories := []cat{
		{Slug: "fashion", Price: 4200, Names: []string{"リラックスフィットフーディ", "オーガニックコットンTシャツ", "デニムクラシックジーンズ"}},
		{Slug: "phones-tablets-pcs", Price: 24000, Names: []string{"14インチモバイルノート", "軽量タブレット64GB", "静音ワイヤレスマウス"}},
		{Slug: "home-interior", Price: 7800, Names: []string{"無垢材サイドテーブル", "コットンラグ 140x200", "スタッキングシェルフ"}},
		{Slug: "gaming-goods", Price: 8800, Names: []string{"ワイヤレスゲームパッド", "ゲーミングヘッドセット"}},
		{Slug: "books-magazines-comics", Price: 1400, Names: []string{"SF小説アンソロジー", "コミック新装版"}},
		{Slug: "outdoor-travel", Price: 9200, Names: []string{"コンパクトチェア", "バックパック28L"}},
		{Slug: "kitchen-daily", Price: 3200, Names: []string{"セラミックフライパン", "二重ガラスマグ"}},
		{Slug: "camera-photo", Price: 12800, Names: []string{"ミラーレス用単焦点レンズ", "カーボントラベルトライポッド"}},
	}

	var out []seedListing
	for _, c := range categories {
		for i, n := range c.Names {
			price := c.Price + int64((i+1)*100)
			out = append(out, seedListing{
				Name:        strings.TrimSpace(n),
				Description: fmt.Sprintf("%s（%s）。新品に近い自宅保管品です。値下げ交渉OK。", n, c.Slug),
				Price:       decimal.NewFromInt(price),
				Category:    c.Slug,
			})
		}
	}
	return out
}

func shouldSeed(ctx context.Context, listings repository.ListingRepository) (bool, error) {
	_, total, err := listings.List(ctx, repository.ListingFilter{Limit: 1, IncludeSold: true})
	if err != nil {
		return false, fmt.Errorf("count listings: %w", err)
	}
	if total == 0 {
		return true, nil
	}
	return strings.EqualFold(os.Getenv("FORCE_SEED"), "true"), nil
}

func picsumURL(slug string, idx, k int) string {
	return fmt.Sprintf("https://picsum.photos/seed/%s-%d-%d/600/600", slug, idx, k)
}
