package main

import (
	"LoadFactorOTP/src/config"
	"LoadFactorOTP/src/datapush"
	"LoadFactorOTP/src/datasource/email"
	"LoadFactorOTP/src/datasource/file"
	"LoadFactorOTP/src/processor"
	"LoadFactorOTP/src/report"
	"LoadFactorOTP/src/storage"
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"
)

// 报告文件名
const (
	WorkbookName = "lf_otp_analysis.xlsx"
	MarkdownName = "final_report.md"
	ChartsName   = "lf_vs_otp.pdf"
)

// app 一次分析需要的全部依赖，定时任务与目录监听共用
type app struct {
	cfg    *config.Config
	dcfg   *config.DataConfig
	logger *storage.Logger

	mu sync.Mutex // 同一时间只允许一次分析

	// 以下字段测试时替换
	mail func() (email.MailService, error)
	send func(cfg *config.Config, body string, attachments []string) error
	push func(ctx context.Context, webhook, secret, title, text string, retries int) error
}

func newApp(cfg *config.Config, dcfg *config.DataConfig, logger *storage.Logger) *app {
	return &app{
		cfg:    cfg,
		dcfg:   dcfg,
		logger: logger,
		mail: func() (email.MailService, error) {
			return email.NewEmailClient(cfg.Email.Server, cfg.Email.Username, cfg.Email.Password,
				time.Duration(cfg.Email.CheckInterval)), nil
		},
		send: datapush.SendReport,
		push: datapush.PushMarkdown,
	}
}

func (a *app) names() report.RouteNamer {
	if a.dcfg == nil {
		return nil
	}
	return a.dcfg
}

// runLogged 运行一次分析，错误只记录不退出
func (a *app) runLogged(ctx context.Context) {
	if !a.mu.TryLock() {
		a.logger.Warning("上一次分析尚未结束，跳过本次触发")
		return
	}
	defer a.mu.Unlock()

	t1 := time.Now()
	if _, err := a.run(ctx); err != nil {
		a.logger.Error("分析失败: " + err.Error())
		return
	}
	a.logger.Info(fmt.Sprintf("分析完成，耗时: %v", time.Since(t1)))

	if rotated, err := a.logger.CheckRotate(a.cfg); err != nil {
		a.logger.Warning("检查日志大小失败: " + err.Error())
	} else if rotated {
		a.logger.Info("日志文件已轮转")
	}
}

// run 收取邮件附件、读取原始数据、分析、写出报告并按配置推送
func (a *app) run(ctx context.Context) (*processor.Analysis, error) {
	cfg := a.cfg
	if cfg.Email.Enabled {
		a.fetchMail()
	}

	lfRaw, lfFiles, err := file.LoadDir(cfg.Data.LoadFactorDir, cfg.Data.LoadFactorPattern, cfg.Data.SheetName)
	if err != nil {
		return nil, fmt.Errorf("读取载客率数据失败: %w", err)
	}
	a.logger.Info(fmt.Sprintf("载客率数据: %d 个文件, %d 行", len(lfFiles), lfRaw.Nrow()))

	otpRaw, otpFiles, err := file.LoadDir(cfg.Data.OTPDir, cfg.Data.OTPPattern, cfg.Data.SheetName)
	if err != nil {
		return nil, fmt.Errorf("读取准点率数据失败: %w", err)
	}
	a.logger.Info(fmt.Sprintf("准点率数据: %d 个文件, %d 行", len(otpFiles), otpRaw.Nrow()))

	opts, err := cfg.AnalysisOptions(a.dcfg)
	if err != nil {
		return nil, fmt.Errorf("分析参数无效: %w", err)
	}
	analysis, err := processor.Analyze(lfRaw, otpRaw, opts, a.logger)
	if err != nil {
		return nil, err
	}

	attachments, err := writeOutputs(cfg.OutputDir, analysis, a.names())
	if err != nil {
		return analysis, err
	}
	a.logger.Info("报告已写入 " + cfg.OutputDir)

	// 推送失败不影响本次分析结果
	if cfg.SendEmail.Enabled {
		body := report.RenderMarkdown(analysis, a.names())
		if err := a.send(cfg, body, attachments); err != nil {
			a.logger.Error("发送报告邮件失败: " + err.Error())
		} else {
			a.logger.Info(fmt.Sprintf("报告邮件已发送给 %v", cfg.SendEmail.To))
		}
	}
	if cfg.Webhook.URL != "" {
		title := analysis.Options.CarrierCode + " 载客率与准点率分析"
		if err := a.push(ctx, cfg.Webhook.URL, cfg.Webhook.Secret, title,
			report.Headline(analysis, a.names()), cfg.Webhook.Retries); err != nil {
			a.logger.Error("推送钉钉消息失败: " + err.Error())
		}
	}
	return analysis, nil
}

// fetchMail 把邮箱中新的数据附件保存到原始数据目录，失败时沿用目录中已有文件
func (a *app) fetchMail() {
	client, err := a.mail()
	if err != nil {
		a.logger.Error("创建邮件客户端失败: " + err.Error())
		return
	}
	handler := email.NewAttachmentHandler(a.cfg.Data.LoadFactorDir, a.cfg.Data.OTPDir, a.logger)
	n, err := email.CheckAndProcessEmails(client, handler, a.cfg.Email.TargetSubject, a.logger)
	if err != nil {
		a.logger.Error("检查处理邮件失败: " + err.Error())
		return
	}
	if n > 0 {
		a.logger.Info(fmt.Sprintf("从邮件中保存了 %d 封邮件的附件", n))
	}
}

// writeOutputs 写出 CSV 表、工作簿、文字报告和图表，返回适合作为邮件附件的文件
func writeOutputs(dir string, analysis *processor.Analysis, names report.RouteNamer) ([]string, error) {
	if _, err := report.WriteTables(dir, analysis); err != nil {
		return nil, err
	}

	workbook := filepath.Join(dir, WorkbookName)
	if err := report.WriteWorkbook(workbook, analysis); err != nil {
		return nil, err
	}
	markdown := filepath.Join(dir, MarkdownName)
	if err := report.WriteMarkdown(markdown, analysis, names); err != nil {
		return nil, err
	}
	charts := filepath.Join(dir, ChartsName)
	if err := report.WriteCharts(charts, analysis, names); err != nil {
		return nil, err
	}
	return []string{markdown, workbook, charts}, nil
}
