package cmd

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zeromicro/go-zero/core/threading"
	"go.uber.org/zap"

	"github.com/ProjectsTask/EasySwapAgent/logger/xzap"
	"github.com/ProjectsTask/EasySwapAgent/service"
	"github.com/ProjectsTask/EasySwapAgent/service/config"
)

// DaemonCmd runs the agent until interrupted.
var DaemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "run the market participation agent.",
	Long:  "run the market participation agent.",
	Run: func(cmd *cobra.Command, args []string) {
		wg := &sync.WaitGroup{}
		wg.Add(1)

		ctx, cancel := context.WithCancel(context.Background())

		onExit := make(chan error, 1)
		go func() {
			defer wg.Done()

			cfg, err := config.UnmarshalCmdConfig()
			if err != nil {
				xzap.WithContext(ctx).Error("failed on unmarshal config", zap.Error(err))
				onExit <- err
				return
			}

			if _, err = xzap.SetUp(*cfg.Log); err != nil {
				xzap.WithContext(ctx).Error("failed on set up logger", zap.Error(err))
				onExit <- err
				return
			}

			xzap.WithContext(ctx).Info("agent start", zap.String("project", cfg.ProjectCfg.Name))

			s, err := service.New(ctx, cfg)
			if err != nil {
				xzap.WithContext(ctx).Error("failed on create agent service", zap.Error(err))
				onExit <- err
				return
			}
			if err := s.Start(); err != nil {
				xzap.WithContext(ctx).Error("failed on start agent service", zap.Error(err))
				onExit <- err
				return
			}

			if cfg.Monitor != nil && cfg.Monitor.PprofEnable {
				threading.GoSafe(func() {
					http.ListenAndServe(fmt.Sprintf("0.0.0.0:%d", cfg.Monitor.PprofPort), nil)
				})
			}

			select {
			case err := <-s.Done():
				xzap.WithContext(ctx).Error("agent stopped", zap.Error(err))
				onExit <- err
			case <-ctx.Done():
			}
		}()

		onSignal := make(chan os.Signal, 1)
		signal.Notify(onSignal, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-onSignal:
			cancel()
			xzap.WithContext(ctx).Info("exit by signal", zap.String("signal", sig.String()))
		case err := <-onExit:
			cancel()
			xzap.WithContext(ctx).Error("exit by error", zap.Error(err))
		}

		wg.Wait()
	},
}

func init() {
	rootCmd.AddCommand(DaemonCmd)
}
