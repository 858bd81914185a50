package main

import (
	"LoadFactorOTP/src/config"
	"LoadFactorOTP/src/datasource/email"
	"LoadFactorOTP/src/datasource/file"
	"LoadFactorOTP/src/report"
	"LoadFactorOTP/src/storage"
	"bufio"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lfCSV = `CARRIER,ORIGIN,DEST,YEAR,MONTH,DEPARTURES_SCHEDULED,DEPARTURES_PERFORMED,SEATS,PASSENGERS
WN,LAS,DEN,2023,1,10,10,100,70
WN,DEN,LAS,2023,2,10,10,100,90
WN,MDW,BWI,2023,1,10,10,100,75
WN,BWI,MDW,2023,2,10,10,100,75
WN,OAK,SAN,2023,1,10,10,100,20
`

func otpCSV() string {
	var b strings.Builder
	b.WriteString("OP_UNIQUE_CARRIER,ORIGIN,DEST,YEAR,MONTH,DEP_DEL15,ARR_DEL15,CANCELLED,DIVERTED\n")
	for _, r := range []struct {
		origin, dest   string
		month, delayed int
	}{{"LAS", "DEN", 1, 3}, {"DEN", "LAS", 2, 4}, {"MDW", "BWI", 1, 4}, {"BWI", "MDW", 2, 4}} {
		for i := 0; i < 20; i++ {
			flag := 0
			if i < r.delayed {
				flag = 1
			}
			fmt.Fprintf(&b, "WN,%s,%s,2023,%d,%d,%d,0,0\n", r.origin, r.dest, r.month, flag, flag)
		}
	}
	return b.String()
}

type fixture struct {
	cfg    *config.Config
	logger *storage.Logger
	logs   string
}

func newFixture(t *testing.T, withLoadFactor bool) *fixture {
	t.Helper()
	root := t.TempDir()
	cfg := &config.Config{OutputDir: filepath.Join(root, "processed"), LogMaxSize: "10 * 1024 * 1024"}
	cfg.Data.LoadFactorDir = filepath.Join(root, "raw", "Load_Factor_Data")
	cfg.Data.LoadFactorPattern = "*_Segment.csv"
	cfg.Data.OTPDir = filepath.Join(root, "raw", "OTP_Data")
	cfg.Data.OTPPattern = "*.csv"
	cfg.Analysis.CarrierCode = "WN"
	cfg.Analysis.TopN = 2

	require.NoError(t, os.MkdirAll(cfg.Data.LoadFactorDir, 0755))
	require.NoError(t, os.MkdirAll(cfg.Data.OTPDir, 0755))
	if withLoadFactor {
		require.NoError(t, os.WriteFile(filepath.Join(cfg.Data.LoadFactorDir, "T_T100D_2023_Segment.csv"), []byte(lfCSV), 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Data.OTPDir, "On_Time_2023.csv"), []byte(otpCSV()), 0644))

	logs := filepath.Join(root, "lfotp.log")
	logger, err := storage.NewLogger(logs)
	require.NoError(t, err)
	t.Cleanup(func() { logger.Close() })
	return &fixture{cfg: cfg, logger: logger, logs: logs}
}

func (f *fixture) readLogs(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(f.logs)
	require.NoError(t, err)
	return string(data)
}

// ---------------------------------------------------------------------------
// run
// ---------------------------------------------------------------------------

func TestRunWritesReports(t *testing.T) {
	f := newFixture(t, true)
	dcfg := &config.DataConfig{Airports: map[string]string{"DEN": "Denver", "LAS": "Las Vegas"}}
	a := newApp(f.cfg, dcfg, f.logger)

	analysis, err := a.run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"DEN-LAS", "BWI-MDW"}, analysis.Routes())

	for _, name := range []string{report.FileMerged, report.FileSummary, report.FileBins, WorkbookName, MarkdownName, ChartsName} {
		assert.FileExists(t, filepath.Join(f.cfg.OutputDir, name))
	}
	md, err := os.ReadFile(filepath.Join(f.cfg.OutputDir, MarkdownName))
	require.NoError(t, err)
	assert.Contains(t, string(md), "| 1 | DEN-LAS | Denver - Las Vegas |")
	assert.Contains(t, f.readLogs(t), "载客率数据: 1 个文件, 5 行")
}

func TestRunPushesReport(t *testing.T) {
	f := newFixture(t, true)
	f.cfg.SendEmail.Enabled = true
	f.cfg.Webhook.URL = "https://oapi.example.com/robot/send?access_token=x"
	f.cfg.Webhook.Retries = 2

	a := newApp(f.cfg, nil, f.logger)
	var sent []string
	a.send = func(_ *config.Config, body string, attachments []string) error {
		assert.Contains(t, body, "## 6. Conclusion")
		sent = attachments
		return nil
	}
	var title, text string
	a.push = func(_ context.Context, webhook, _, ti, te string, retries int) error {
		assert.Equal(t, f.cfg.Webhook.URL, webhook)
		assert.Equal(t, 2, retries)
		title, text = ti, te
		return nil
	}

	_, err := a.run(context.Background())
	require.NoError(t, err)

	require.Len(t, sent, 3)
	assert.Equal(t, MarkdownName, filepath.Base(sent[0]))
	assert.Equal(t, "WN 载客率与准点率分析", title)
	assert.Contains(t, text, "1. DEN-LAS")
}

func TestRunPushFailureIsLogged(t *testing.T) {
	f := newFixture(t, true)
	f.cfg.Webhook.URL = "https://oapi.example.com/robot/send"
	a := newApp(f.cfg, nil, f.logger)
	a.push = func(context.Context, string, string, string, string, int) error {
		return fmt.Errorf("errcode 310000")
	}

	_, err := a.run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, f.readLogs(t), "推送钉钉消息失败: errcode 310000")
}

func TestRunMissingData(t *testing.T) {
	f := newFixture(t, false)
	_, err := newApp(f.cfg, nil, f.logger).run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, file.ErrNoFiles)
	assert.NoFileExists(t, filepath.Join(f.cfg.OutputDir, MarkdownName))
}

func TestRunInvalidOptions(t *testing.T) {
	f := newFixture(t, true)
	f.cfg.Analysis.RankingMetric = "revenue"
	_, err := newApp(f.cfg, nil, f.logger).run(context.Background())
	assert.ErrorContains(t, err, "分析参数无效")
}

type fakeMail struct {
	emails []*email.Email
}

func (m *fakeMail) Connect() error                             { return nil }
func (m *fakeMail) Disconnect()                                {}
func (m *fakeMail) FetchUnreadEmails() ([]*email.Email, error) { return m.emails, nil }

func TestRunFetchesMailAttachments(t *testing.T) {
	f := newFixture(t, false)
	f.cfg.Email.Enabled = true
	f.cfg.Email.TargetSubject = "BTS"

	a := newApp(f.cfg, nil, f.logger)
	a.mail = func() (email.MailService, error) {
		return &fakeMail{emails: []*email.Email{{
			UID:     7,
			Date:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			Subject: "BTS T-100 extract",
			Attachments: []*email.Attachment{
				{Filename: "T_T100D_2023_Segment.csv", Content: []byte(lfCSV)},
			},
		}}}, nil
	}

	_, err := a.run(context.Background())
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(f.cfg.Data.LoadFactorDir, "T_T100D_2023_Segment.csv"))
	assert.Contains(t, f.readLogs(t), "从邮件中保存了 1 封邮件的附件")
}

func TestRunLoggedSkipsWhileRunning(t *testing.T) {
	f := newFixture(t, true)
	a := newApp(f.cfg, nil, f.logger)

	a.mu.Lock()
	a.runLogged(context.Background())
	a.mu.Unlock()
	assert.Contains(t, f.readLogs(t), "跳过本次触发")
	assert.NoFileExists(t, filepath.Join(f.cfg.OutputDir, MarkdownName))

	a.runLogged(context.Background())
	assert.Contains(t, f.readLogs(t), "分析完成")
	assert.FileExists(t, filepath.Join(f.cfg.OutputDir, MarkdownName))
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func TestLogStream(t *testing.T) {
	f := newFixture(t, false)
	srv := httptest.NewServer(logStream(f.logger))
	defer srv.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-done:
				return
			case <-time.After(10 * time.Millisecond):
				f.logger.Info("stream check")
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, "INFO: stream check")
}

func TestDebouncer(t *testing.T) {
	var calls atomic.Int32
	d := newDebouncer(30*time.Millisecond, func() { calls.Add(1) })
	for i := 0; i < 5; i++ {
		d.Trigger()
	}
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWritePid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "lfotp.pid")
	require.NoError(t, writePid(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), strings.TrimSpace(string(data)))

	assert.NoError(t, writePid(""))
}
