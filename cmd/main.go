package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"marketplace_sync_v1_202610/internal/config"
	"marketplace_sync_v1_202610/internal/controller"
	"marketplace_sync_v1_202610/internal/middleware"
	"marketplace_sync_v1_202610/internal/model"
	"marketplace_sync_v1_202610/internal/repository"
	"marketplace_sync_v1_202610/internal/router"
	"marketplace_sync_v1_202610/internal/service"
	"marketplace_sync_v1_202610/internal/task"
	"marketplace_sync_v1_202610/pkg/database"
	"marketplace_sync_v1_202610/pkg/logger"
	"marketplace_sync_v1_202610/pkg/marketplace"
)

func main() {
	app := &cli.App{
		Name:  "marketplace-sync",
		Usage: "从批发市场 API 同步商品与订单到本地数据库",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "config-dir",
				Aliases: []string{"c"},
				Usage:   "config.toml 所在目录，可多次指定",
			},
		},
		Commands: []*cli.Command{
			runCommand(),
			serveCommand(),
			migrateCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "错误:", err)
		os.Exit(1)
	}
}

// ==================== 依赖容器 ====================

// application 进程级依赖，由命令按需创建
type application struct {
	cfg      *config.Config
	log      *zap.Logger
	db       *gorm.DB
	registry *prometheus.Registry
	metrics  *service.Metrics
}

// bootstrap 加载配置、初始化日志与数据库
func bootstrap(c *cli.Context) (*application, error) {
	cfg, err := config.Load(c.StringSlice("config-dir")...)
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}

	db, err := database.InitDB(cfg.Database, log)
	if err != nil {
		_ = log.Sync()
		return nil, fmt.Errorf("初始化数据库失败: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &application{
		cfg:      cfg,
		log:      log,
		db:       db,
		registry: registry,
		metrics:  service.NewMetrics(registry),
	}, nil
}

func (a *application) engine() *service.Coordinator {
	client := marketplace.NewClient(a.cfg.Upstream)
	return service.NewSyncEngine(a.db, client, a.cfg.Sync, a.log, a.metrics)
}

func (a *application) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.log.Sync()
}

// ==================== run ====================

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "立即执行一次同步并输出摘要",
		Flags: []cli.Flag{
			&cli.Int64SliceFlag{Name: "store", Usage: "只同步指定店铺 ID，可多次指定"},
			&cli.StringFlag{Name: "entity", Value: string(service.ScopeAll), Usage: "all / products / orders"},
			&cli.DurationFlag{Name: "timeout", Usage: "覆盖 sync.run_timeout"},
			&cli.BoolFlag{Name: "json", Usage: "以 JSON 输出摘要"},
		},
		Action: func(c *cli.Context) error {
			scope, err := service.ParseEntityScope(c.String("entity"))
			if err != nil {
				return err
			}

			app, err := bootstrap(c)
			if err != nil {
				return err
			}
			defer app.close()

			if c.IsSet("timeout") {
				app.cfg.Sync.RunTimeout = c.Duration("timeout")
			}

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			summary, err := app.engine().RunSync(ctx, service.RunOptions{
				StoreIDs: c.Int64Slice("store"),
				Entity:   scope,
			})
			if err != nil {
				return err
			}

			if c.Bool("json") {
				enc := json.NewEncoder(c.App.Writer)
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}
			printSummary(c, summary)
			return nil
		},
	}
}

// printSummary 表格形式输出摘要
func printSummary(c *cli.Context, s *service.RunSummary) {
	out := c.App.Writer
	fmt.Fprintf(out, "运行 %s (%s) 耗时 %s\n\n", s.RunID, s.Entity, s.Duration().Round(time.Millisecond))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "店铺\t状态\t商品\t变体\t订单\t明细\t发货\t关联\t跳过\t错误")
	for _, st := range s.Stores {
		fmt.Fprintf(w, "%s(%d)\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\n",
			st.StoreName, st.StoreID, st.Status,
			st.Products, st.Variants, st.Orders, st.Items, st.Shipments, st.Linked, st.Skipped, st.Errors)
	}
	t := s.Totals
	fmt.Fprintf(w, "合计(%d)\t%d/%d/%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\n",
		t.Stores, t.Completed, t.Partial, t.Failed,
		t.Products, t.Variants, t.Orders, t.Items, t.Shipments, t.Linked, t.Skipped, t.Errors)
	_ = w.Flush()

	for _, st := range s.Stores {
		if len(st.ErrorMessages) == 0 {
			continue
		}
		fmt.Fprintf(out, "\n%s(%d) 前 %d 条错误:\n", st.StoreName, st.StoreID, len(st.ErrorMessages))
		for _, msg := range st.ErrorMessages {
			fmt.Fprintf(out, "  - %s\n", strings.ReplaceAll(msg, "\n", " "))
		}
	}
}

// ==================== serve ====================

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "启动定时同步与管理接口",
		Action: func(c *cli.Context) error {
			app, err := bootstrap(c)
			if err != nil {
				return err
			}
			defer app.close()

			tasks := task.NewTaskManager(app.engine(), app.cfg.Scheduler, app.log)
			if err := tasks.Start(); err != nil {
				return fmt.Errorf("启动定时任务失败: %w", err)
			}
			defer tasks.Stop()

			if app.cfg.IsProduction() {
				gin.SetMode(gin.ReleaseMode)
			}
			r := gin.New()
			r.Use(gin.Recovery())
			syncCtl := controller.NewSyncController(tasks, repository.NewSyncRunRepository(app.db), app.log)
			router.InitRoutes(r, syncCtl, middleware.NewCooldownLimiter(app.cfg.HTTP.SyncCooldown), app.registry)

			return startServer(c.Context, app, r)
		},
	}
}

// startServer 启动服务，收到退出信号后优雅关闭
func startServer(ctx context.Context, app *application, r *gin.Engine) error {
	srv := &http.Server{
		Addr:    ":" + app.cfg.App.Port,
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		app.log.Info("服务启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return fmt.Errorf("服务启动失败: %w", err)
	case <-ctx.Done():
	}

	app.log.Info("正在关闭服务...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("服务强制关闭: %w", err)
	}
	app.log.Info("服务已退出")
	return nil
}

// ==================== migrate ====================

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "创建或更新数据表",
		Action: func(c *cli.Context) error {
			app, err := bootstrap(c)
			if err != nil {
				return err
			}
			defer app.close()

			return database.Migrate(c.Context, app.db, app.log, model.AllModels()...)
		},
	}
}
