package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/printforge/printforge/internal/adapters/metrics"
	"github.com/printforge/printforge/internal/adapters/persistence"
	"github.com/printforge/printforge/internal/application/common"
	catalogapp "github.com/printforge/printforge/internal/application/catalog"
	inventoryapp "github.com/printforge/printforge/internal/application/inventory"
	inventorycommands "github.com/printforge/printforge/internal/application/inventory/commands"
	inventoryqueries "github.com/printforge/printforge/internal/application/inventory/queries"
	issuesapp "github.com/printforge/printforge/internal/application/issues"
	issuesqueries "github.com/printforge/printforge/internal/application/issues/queries"
	itemapp "github.com/printforge/printforge/internal/application/item"
	planningapp "github.com/printforge/printforge/internal/application/planning"
	planningcommands "github.com/printforge/printforge/internal/application/planning/commands"
	productionapp "github.com/printforge/printforge/internal/application/production"
	purchasingapp "github.com/printforge/printforge/internal/application/purchasing"
	salesapp "github.com/printforge/printforge/internal/application/sales"
	shippingapp "github.com/printforge/printforge/internal/application/shipping"
	inv "github.com/printforge/printforge/internal/domain/inventory"
	"github.com/printforge/printforge/internal/domain/planning"
	"github.com/printforge/printforge/internal/domain/shared"
	"github.com/printforge/printforge/internal/domain/uom"
	"github.com/printforge/printforge/internal/infrastructure/config"
	"github.com/printforge/printforge/internal/infrastructure/database"
)

// app wires the full service graph for one CLI invocation. Event publishing
// is nil in CLI mode; the serve command wires the NATS publisher instead.
type app struct {
	cfg    *config.Config
	db     *gorm.DB
	logger *logrus.Logger
	units  *uom.Graph

	items      *persistence.GormItemRepository
	ledgerRepo *persistence.GormLedgerRepository
	production *persistence.GormProductionRepository
	salesRepo  *persistence.GormSalesRepository
	purchasing *persistence.GormPurchasingRepository

	ledger         *inventoryapp.Service
	itemService    *itemapp.Service
	catalog        *catalogapp.Service
	sales          *salesapp.Service
	purchase       *purchasingapp.Service
	productionSvc  *productionapp.Service
	shipping       *shippingapp.Service
	planning       *planningapp.Service
	issues         *issuesapp.Service
	plannedOrders  *persistence.GormPlannedOrderRepository
	snapshotLoader *persistence.SnapshotLoader
}

// newApp loads config, opens the database and builds the service graph
func newApp(inventoryEvents inventoryapp.EventPublisher, planningEvents planningapp.EventPublisher, productionEvents productionapp.EventPublisher) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLogger(cfg.Logging.Level, cfg.Logging.Format)

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, err
	}

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		collector := metrics.NewCoreMetricsCollector()
		if err := collector.Register(); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		metrics.SetGlobalCollector(collector)
	}

	units := uom.NewDefaultGraphScale(cfg.UOM.RoundingScale)
	clock := shared.NewRealClock()

	items := persistence.NewGormItemRepository(db)
	materials := persistence.NewGormMaterialCatalog(db)
	locations := persistence.NewGormLocationRepository(db)
	ledgerRepo := persistence.NewGormLedgerRepository(db)
	boms := persistence.NewGormBOMRepository(db)
	routings := persistence.NewGormRoutingRepository(db)
	workCenters := persistence.NewGormWorkCenterRepository(db)
	salesRepo := persistence.NewGormSalesRepository(db)
	productionRepo := persistence.NewGormProductionRepository(db)
	purchasingRepo := persistence.NewGormPurchasingRepository(db)
	plannedOrders := persistence.NewGormPlannedOrderRepository(db)
	tx := persistence.NewGormTxManager(db)

	policy := inv.Policy{
		AllowNegativeOnHand: cfg.Inventory.AllowNegativeOnHand,
		AllowOversell:       cfg.Inventory.AllowOversell,
	}

	ledger := inventoryapp.NewService(ledgerRepo, locations, items, tx, clock, policy, inventoryEvents, logger)
	itemService := itemapp.NewService(items, materials, ledger, units, tx, clock, logger)
	catalog := catalogapp.NewService(boms, routings, workCenters, items, units, tx, clock, logger)
	salesService := salesapp.NewService(salesRepo, items, tx, clock, logger)
	purchaseService := purchasingapp.NewService(purchasingRepo, items, ledger, tx, clock, logger)
	productionService := productionapp.NewService(
		productionRepo, salesRepo, boms, routings, items, ledger, ledgerRepo,
		units, tx, clock,
		productionapp.Policy{AutoReadyToShip: cfg.Production.AutoReadyToShipOnCompletion},
		productionEvents, logger)
	shippingService := shippingapp.NewService(
		salesRepo, productionRepo, boms, items, ledger, units, tx, clock, logger)

	engine := planning.NewEngine(planning.Config{
		HorizonDays:          cfg.Planning.HorizonDays,
		IncludeSafetyStock:   cfg.Planning.IncludeSafetyStock,
		CascadeSubAssemblies: cfg.Planning.CascadeSubAssemblies,
		MakeOrBuyDefault:     planning.OrderKind(cfg.Planning.MakeOrBuyDefault),
	})
	snapshotLoader := persistence.NewSnapshotLoader(
		items, boms, routings, workCenters, ledgerRepo, purchasingRepo, productionRepo, units, clock)
	planningService := planningapp.NewService(
		snapshotLoader, engine, plannedOrders, salesRepo, productionRepo, purchasingRepo,
		tx, clock, planningEvents, logger)

	inputLoader := persistence.NewInputLoader(
		salesRepo, productionRepo, purchasingRepo, items, boms, routings, workCenters, ledgerRepo, clock)
	issuesService := issuesapp.NewService(inputLoader, logger)

	return &app{
		cfg:            cfg,
		db:             db,
		logger:         logger,
		units:          units,
		items:          items,
		ledgerRepo:     ledgerRepo,
		production:     productionRepo,
		salesRepo:      salesRepo,
		purchasing:     purchasingRepo,
		ledger:         ledger,
		itemService:    itemService,
		catalog:        catalog,
		sales:          salesService,
		purchase:       purchaseService,
		productionSvc:  productionService,
		shipping:       shippingService,
		planning:       planningService,
		issues:         issuesService,
		plannedOrders:  plannedOrders,
		snapshotLoader: snapshotLoader,
	}, nil
}

// newMediator registers every command and query handler
func (a *app) newMediator() (common.Mediator, error) {
	m := common.NewMediator()
	if err := common.RegisterHandler[*inventorycommands.PostTransactionCommand](m, inventorycommands.NewPostTransactionHandler(a.ledger)); err != nil {
		return nil, err
	}
	if err := common.RegisterHandler[*inventoryqueries.GetStockLevelQuery](m, inventoryqueries.NewGetStockLevelHandler(a.ledger)); err != nil {
		return nil, err
	}
	if err := common.RegisterHandler[*planningcommands.RunPlanningCommand](m, planningcommands.NewRunPlanningHandler(a.planning)); err != nil {
		return nil, err
	}
	if err := common.RegisterHandler[*planningcommands.FirmPlannedOrderCommand](m, planningcommands.NewFirmPlannedOrderHandler(a.planning)); err != nil {
		return nil, err
	}
	if err := common.RegisterHandler[*issuesqueries.AnalyzeSalesOrderQuery](m, issuesqueries.NewAnalyzeSalesOrderHandler(a.issues)); err != nil {
		return nil, err
	}
	return m, nil
}

// newTriggerWorker builds the debounced replanning worker from config
func (a *app) newTriggerWorker() *planningapp.TriggerWorker {
	limiter := rate.NewLimiter(rate.Every(a.cfg.Planning.TriggerMinInterval), 1)
	return planningapp.NewTriggerWorker(a.planning, limiter, a.logger)
}

func (a *app) close() {
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
