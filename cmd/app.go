package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"food-order-bot/bot"
	"food-order-bot/catalog"
	"food-order-bot/config"
	"food-order-bot/conversation"
	"food-order-bot/dedupe"
	"food-order-bot/events"
	"food-order-bot/intent"
	"food-order-bot/locks"
	"food-order-bot/models"
	"food-order-bot/payment"
	"food-order-bot/recommend"
	"food-order-bot/store"
	"food-order-bot/store/gormstore"
	"food-order-bot/store/memstore"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// app holds the wired collaborators shared by the commands
type app struct {
	engine    *bot.Engine
	store     store.Store
	ledger    payment.Ledger
	publisher events.Publisher
	closers   []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn().Err(err).Msg("shutdown")
		}
	}
}

// openStore returns the sqlite store, or an in-memory one seeded with the sample menu
func openStore(ctx context.Context, cfg *config.Config, inMemory bool) (store.Store, payment.Ledger, func() error, error) {
	if inMemory {
		st := memstore.New()
		if err := seedMenu(ctx, st); err != nil {
			return nil, nil, nil, err
		}
		return st, payment.NewMemoryLedger(), func() error { return nil }, nil
	}

	db, err := config.InitDB(cfg.DBPath)
	if err != nil {
		return nil, nil, nil, err
	}
	ledgerDB, err := config.InitLedgerDB(cfg.LedgerDBPath)
	if err != nil {
		closeDB(db)()
		return nil, nil, nil, err
	}
	closeAll := func() error {
		return errors.Join(closeDB(ledgerDB)(), closeDB(db)())
	}
	return gormstore.New(db), payment.NewGormLedger(ledgerDB), closeAll, nil
}

func closeDB(db *gorm.DB) func() error {
	return func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
}

func newApp(ctx context.Context, cfg *config.Config, inMemory bool) (*app, error) {
	st, ledger, closeStore, err := openStore(ctx, cfg, inMemory)
	if err != nil {
		return nil, err
	}
	a := &app{store: st, ledger: ledger, closers: []func() error{closeStore}}

	cat, err := catalog.Load(ctx, st.Menu(), st.Orders())
	if err != nil {
		a.Close()
		return nil, err
	}
	if len(cat.Items()) == 0 {
		log.Warn().Msg("menu is empty, run `foodbot seed` first")
	}

	var engine recommend.Engine
	if cfg.RecommendURL != "" {
		engine = recommend.NewClient(cfg.RecommendURL, cfg.RecommendTimeout)
	}
	extractor := intent.NewExtractor(cat, engine, intent.WithTimeout(cfg.RecommendTimeout))
	processor := payment.NewSimulated(ledger, models.Money(cfg.CardLimitCents))
	machine := conversation.NewMachine(cat, extractor, processor,
		conversation.WithDeliveryFee(models.Money(cfg.DeliveryFeeCents)),
		conversation.WithHistoryLimit(cfg.HistoryLimit),
		conversation.WithOrderTTL(cfg.OrderTTL),
	)

	opts := []bot.Option{bot.WithHistory(cfg.HistoryLimit)}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		a.closers = append(a.closers, rdb.Close)
		opts = append(opts,
			bot.WithLocker(locks.NewRedis(rdb, cfg.LockTTL)),
			bot.WithDeduper(dedupe.NewRedis(rdb, cfg.DedupeTTL)),
		)
	} else {
		opts = append(opts, bot.WithDeduper(dedupe.NewMemory(cfg.DedupeTTL)))
	}

	if len(cfg.KafkaBrokers) > 0 {
		a.publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	} else {
		a.publisher = events.NewLogPublisher(log.With().Str("component", "events").Logger())
	}
	a.closers = append(a.closers, a.publisher.Close)
	opts = append(opts, bot.WithPublisher(a.publisher))

	a.engine = bot.New(st, cat, machine, opts...)
	return a, nil
}

func seedMenu(ctx context.Context, st store.Store) error {
	cats, items := catalog.SampleMenu()
	for i := range cats {
		if err := st.Menu().SaveCategory(ctx, &cats[i]); err != nil {
			return fmt.Errorf("seed category %s: %w", cats[i].ID, err)
		}
	}
	for i := range items {
		if err := st.Menu().SaveItem(ctx, &items[i]); err != nil {
			return fmt.Errorf("seed item %s: %w", items[i].ID, err)
		}
	}
	return nil
}
