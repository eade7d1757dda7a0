package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mooyang-code/tem-client/internal/app"
	"github.com/mooyang-code/tem-client/internal/httpclient"
	"github.com/mooyang-code/tem-client/internal/scheduler"
	"github.com/mooyang-code/tem-client/internal/types"
	"github.com/mooyang-code/tem-client/pkg/tem"
	"github.com/mooyang-code/tem-client/pkg/utils"
)

var (
	configPath = flag.String("config", utils.DefaultConfigPath, "配置文件路径")
	timeout    = flag.Duration("timeout", 0, "单次HTTP请求超时，0表示使用配置值")
	verbose    = flag.Bool("verbose", false, "以debug级别记录每个HTTP请求")
	version    = flag.Bool("version", false, "显示版本信息")
	help       = flag.Bool("help", false, "显示帮助信息")
)

func main() {
	// 解析命令行参数
	if shouldExit := parseFlags(); shouldExit {
		return
	}

	command := flag.Arg(0)
	args := flag.Args()
	if len(args) > 0 {
		args = args[1:]
	}

	// 本地换算命令不需要配置文件
	if app.IsLocalCommand(command) {
		runner := app.NewCommandRunner(nil, os.Stdout)
		if err := runner.Run(context.Background(), command, args); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		return
	}

	// 加载配置
	config, err := utils.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("temctl配置加载失败: %v\n", err)
		os.Exit(1)
	}
	if *timeout > 0 {
		config.API.HTTP = config.API.HTTP.Merge(&httpclient.Config{Timeout: *timeout})
	}

	if *verbose {
		config.App.LogLevel = "debug"
	}

	// 初始化日志
	logger, err := utils.NewLogger(config.App)
	if err != nil {
		fmt.Printf("temctl日志初始化失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// 初始化系统组件
	ctx := context.Background()
	systemInit := app.NewSystemInitializer(logger, config)
	if err := systemInit.ValidateConfiguration(); err != nil {
		logger.Fatal("temctl配置验证失败", zap.Error(err))
	}

	components, err := systemInit.InitializeSystem(ctx)
	if err != nil {
		logger.Fatal("temctl系统初始化失败", zap.Error(err))
	}
	defer components.Shutdown()
	if transport, ok := components.Client.Transport().(*tem.HTTPTransport); ok {
		transport.SetVerbose(*verbose)
	}

	if command == "watch" || command == "" {
		if err := startWatch(ctx, logger, config, systemInit, components); err != nil {
			logger.Error("temctl观察任务启动失败", zap.Error(err))
			os.Exit(1)
		}
		return
	}

	runner := app.NewCommandRunner(components.Client, os.Stdout)
	if err := runner.Run(ctx, command, args); err != nil {
		logger.Error("命令执行失败", zap.String("command", command), zap.Error(err))
		components.Shutdown()
		os.Exit(1)
	}
}

// startWatch 启动定时观察任务并等待退出信号
func startWatch(ctx context.Context, logger *zap.Logger, config *types.Config,
	systemInit *app.SystemInitializer, components *app.SystemComponents) error {

	logger.Info("启动TEM观察任务",
		zap.String("name", config.App.Name),
		zap.String("version", config.App.Version))

	if err := systemInit.CheckConnectivity(ctx, components.Client); err != nil {
		logger.Warn("API暂不可用，任务将按计划继续执行", zap.Error(err))
	}

	schedulerManager := app.NewSchedulerManager(logger, os.Stdout)
	sched, err := schedulerManager.Setup(config, components.Client)
	if err != nil {
		return fmt.Errorf("设置调度器失败: %w", err)
	}
	if sched == nil {
		logger.Info("没有需要运行的观察任务")
		return nil
	}

	waitForShutdown(logger, sched)
	return nil
}

// waitForShutdown 等待关闭信号并优雅关闭
func waitForShutdown(logger *zap.Logger, sched *scheduler.Scheduler) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("观察任务运行中，等待退出信号...")
	<-sigChan
	logger.Info("收到退出信号，正在优雅关闭...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := sched.Stop(ctx); err != nil {
		logger.Error("停止调度器失败", zap.Error(err))
	} else {
		logger.Info("调度器已停止")
	}
	logger.Info("程序已退出")
}

// parseFlags 解析命令行参数
func parseFlags() bool {
	flag.Usage = showHelp
	flag.Parse()

	if *help {
		showHelp()
		return true
	}

	if *version {
		showVersion()
		return true
	}
	return false
}

// showHelp 显示帮助信息
func showHelp() {
	fmt.Println("TRON能量市场命令行工具")
	fmt.Println()
	fmt.Println("用法:")
	fmt.Println("  temctl [选项] <命令> [参数]")
	fmt.Println()
	fmt.Println("命令:")
	fmt.Println("  status                           检查API状态")
	fmt.Println("  info                             查询市场信息")
	fmt.Println("  balance <address>                查询账户余额")
	fmt.Println("  orders [status] [address]        拉取全部订单")
	fmt.Println("  order <id>                       查询单个订单")
	fmt.Println("  convert sun|trx <value>          SUN与TRX换算")
	fmt.Println("  payment <price> <amount> <duration>  计算订单应付金额")
	fmt.Println("  watch                            运行定时观察任务（默认）")
	fmt.Println()
	fmt.Println("选项:")
	fmt.Println("  -config string")
	fmt.Printf("        配置文件路径 (默认 %q)\n", utils.DefaultConfigPath)
	fmt.Println("  -timeout duration")
	fmt.Println("        单次HTTP请求超时")
	fmt.Println("  -verbose")
	fmt.Println("        记录每个HTTP请求")
	fmt.Println("  -version")
	fmt.Println("        显示版本信息")
	fmt.Println("  -help")
	fmt.Println("        显示此帮助信息")
}

// showVersion 显示版本信息
func showVersion() {
	fmt.Println("TRON能量市场命令行工具 v1.0.0")
}
