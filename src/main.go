package main

import (
	"LoadFactorOTP/src/config"
	"LoadFactorOTP/src/datasource/file"
	"LoadFactorOTP/src/storage"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/robfig/cron"
)

// 监听到新文件后等待这么久再运行，同一批下载的多个文件只触发一次
const watchDebounce = 5 * time.Second

func main() {
	jsonFolder := flag.String("config", "./config", "配置文件目录")
	jsonFile := flag.String("config-file", "config.json", "主配置文件名")
	dataJsonFile := flag.String("data-config-file", "dataconfig.json", "数据配置文件名")
	envFile := flag.String("env", ".env", "存放密码的 .env 文件")
	level := flag.String("level", "info", "日志级别: debug/info/warning/error")
	once := flag.Bool("once", false, "只运行一次，忽略 schedule 与 watch")
	watch := flag.Bool("watch", false, "监听原始数据目录，有新文件时重新分析")
	flag.Parse()

	cfg, dcfg, err := config.LoadConfig(*jsonFolder, *jsonFile, *dataJsonFile)
	if err != nil {
		log.Fatal("加载配置失败: ", err)
	}
	if err := config.LoadEnv(cfg, *envFile); err != nil {
		log.Fatal(err)
	}

	// 初始化日志系统
	logger, err := storage.NewLogger(cfg.LogName)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	lv, err := storage.ParseLevel(*level)
	if err != nil {
		log.Fatal(err)
	}
	logger.SetLevel(lv)

	if err := writePid(cfg.PidFile); err != nil {
		logger.Warning(err.Error())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.LogAddr != "" {
		srv := startWebUI(logger, cfg.LogAddr, cfg.OutputDir)
		defer srv.Shutdown(context.Background())
	}

	a := newApp(cfg, dcfg, logger)
	a.runLogged(ctx)

	if *once || (cfg.Schedule == "" && !cfg.Watch && !*watch) {
		logger.Close()
		return
	}

	// 设置定时任务
	if cfg.Schedule != "" {
		c := cron.New()
		if err := c.AddFunc(cfg.Schedule, func() {
			logger.Info(fmt.Sprintf("开始定时分析(%s)...", cfg.Schedule))
			a.runLogged(ctx)
		}); err != nil {
			logger.Error("创建定时任务失败: " + err.Error())
			logger.Close()
			os.Exit(1)
		}
		c.Start()
		defer c.Stop()
		logger.Info(fmt.Sprintf("定时分析已启动(%s)", cfg.Schedule))
	}

	if cfg.Watch || *watch {
		monitor, err := file.NewFileMonitor(cfg.Data.LoadFactorDir, cfg.Data.OTPDir)
		if err != nil {
			logger.Error("启动目录监听失败: " + err.Error())
			logger.Close()
			os.Exit(1)
		}
		defer monitor.Close()

		d := newDebouncer(watchDebounce, func() { a.runLogged(ctx) })
		go func() {
			err := monitor.Watch(ctx, func(name string) {
				logger.Info("发现新数据文件: " + name)
				d.Trigger()
			})
			if err != nil {
				logger.Error("目录监听出错: " + err.Error())
			}
		}()
		logger.Info(fmt.Sprintf("正在监听 %s 与 %s，按Ctrl+C退出", cfg.Data.LoadFactorDir, cfg.Data.OTPDir))
	}

	waitForShutdown(logger, cancel)
}

// writePid 写入进程号，path 为空时跳过
func writePid(path string) error {
	if path == "" {
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建 pid 目录失败: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0644); err != nil {
		return fmt.Errorf("写入 pid 文件失败: %w", err)
	}
	return nil
}

// startWebUI 启动一个简单的Web界面
//
//	/logs     实时日志流
//	/outputs/ 浏览最近一次生成的报告文件
func startWebUI(logger *storage.Logger, addr, outputDir string) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/logs", logStream(logger))
	mux.Handle("/outputs/", http.StripPrefix("/outputs/", http.FileServer(http.Dir(outputDir))))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("日志服务启动失败: " + err.Error())
		}
	}()
	logger.Info("实时日志: http://" + addr + "/logs")
	return srv
}

// logStream 把订阅到的日志逐条写给客户端，直到客户端断开
func logStream(logger *storage.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("X-Content-Type-Options", "nosniff")

		logChan := logger.Subscribe()
		defer logger.Unsubscribe(logChan)
		for {
			select {
			case msg, ok := <-logChan:
				if !ok {
					return
				}
				if _, err := fmt.Fprint(w, msg); err != nil {
					return
				}
				if f, ok := w.(http.Flusher); ok {
					f.Flush()
				}
			case <-r.Context().Done():
				return
			}
		}
	}
}

// waitForShutdown SIGHUP 重新打开日志文件(配合外部日志切割)，SIGINT/SIGTERM 退出
func waitForShutdown(logger *storage.Logger, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	for sig := range sigChan {
		if sig == syscall.SIGHUP {
			if err := logger.Reopen(""); err != nil {
				log.Println("重新打开日志失败:", err)
				continue
			}
			logger.Info("收到 SIGHUP，日志文件已重新打开")
			continue
		}
		logger.Info("Received signal: " + sig.String() + ", shutting down...")
		cancel()
		logger.Close()
		return
	}
}
