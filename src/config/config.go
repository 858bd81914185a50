package config

import (
	"LoadFactorOTP/src/processor"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// 可通过 .env 或环境变量覆盖的敏感配置
const (
	EnvEmailPassword = "LFOTP_EMAIL_PASSWORD"
	EnvSMTPPassword  = "LFOTP_SMTP_PASSWORD"
	EnvWebhookURL    = "LFOTP_WEBHOOK_URL"
	EnvWebhookSecret = "LFOTP_WEBHOOK_SECRET"
)

// Config 结构体定义了应用程序的配置结构
type Config struct {
	Data struct {
		LoadFactorDir     string `json:"load_factor_dir"`     // T-100 航段数据目录
		LoadFactorPattern string `json:"load_factor_pattern"` // 如 *_Segment.csv
		OTPDir            string `json:"otp_dir"`             // 准点率数据目录
		OTPPattern        string `json:"otp_pattern"`
		SheetName         string `json:"sheet_name"` // xlsx 文件读取的工作表，为空时取第一个
	} `json:"data"`

	OutputDir  string `json:"output_dir"`
	LogName    string `json:"log_name"`
	LogMaxSize string `json:"log_max_size"`

	Analysis struct {
		CarrierCode       string `json:"carrier_code"`
		TopN              int    `json:"top_n"`
		RankingMetric     string `json:"ranking_metric"`
		CorrelationMethod string `json:"correlation_method"`
		StartMonth        string `json:"start_month"` // YYYY-MM，可为空
		EndMonth          string `json:"end_month"`
	} `json:"analysis"`

	Email struct {
		Enabled       bool     `json:"enabled"`
		Server        string   `json:"server"`         // 邮件服务器地址
		Username      string   `json:"username"`       // 邮箱用户名
		Password      string   `json:"password"`       // 邮箱密码
		TargetSubject string   `json:"target_subject"` // 需要匹配的邮件主题
		CheckInterval Duration `json:"check_interval"` // 检索最近多长时间内的邮件
	} `json:"email"`

	SendEmail struct {
		Enabled  bool     `json:"enabled"`
		Server   string   `json:"server"` // host:port
		Username string   `json:"username"`
		Password string   `json:"password"`
		To       []string `json:"to"`
		Subject  string   `json:"subject"`
	} `json:"send_email"`

	Webhook struct {
		URL     string `json:"url"`    // 钉钉机器人 webhook，为空时不推送
		Secret  string `json:"secret"` // 机器人加签密钥，可为空
		Retries int    `json:"retries"`
	} `json:"webhook"`

	Schedule string `json:"schedule"` // cron 表达式，如 "@every 24h"，为空时只运行一次
	Watch    bool   `json:"watch"`
	LogAddr  string `json:"log_addr"` // 实时日志 HTTP 监听地址，如 ":8080"，为空时不启动
	PidFile  string `json:"pid_file"` // 写入进程号，供 reopenlog 发送 SIGHUP
}

// DataConfig 数据相关的配置：列名映射、载客率分段、机场名称
type DataConfig struct {
	LoadFactorColumns map[string]string `json:"load_factor_columns"`
	OTPColumns        map[string]string `json:"otp_columns"`
	LoadFactorBins    []float64         `json:"load_factor_bins"`
	Airports          map[string]string `json:"airports"`
}

var (
	once               sync.Once
	instance           *Config
	dataConfigInstance *DataConfig
	mu                 sync.RWMutex
)

func LoadConfig(jsonFolder, jsonFile, dataJsonFile string) (*Config, *DataConfig, error) {
	var err error
	once.Do(func() {
		instance, dataConfigInstance, err = loadConfigs(jsonFolder, jsonFile, dataJsonFile)
	})
	return instance, dataConfigInstance, err
}

func loadConfigs(jsonFolder, jsonFile, dataJsonFile string) (*Config, *DataConfig, error) {
	configFile := filepath.Join(jsonFolder, jsonFile)
	dataConfigFile := filepath.Join(jsonFolder, dataJsonFile)

	configData, err := readFile(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	dataConfigData, err := readFile(dataConfigFile)
	if err != nil {
		return nil, nil, fmt.Errorf("读取数据配置文件失败: %w", err)
	}

	cfgChan := make(chan *Config, 1)
	dcfgChan := make(chan *DataConfig, 1)
	errChan := make(chan error, 2)

	go parseConfig(configData, cfgChan, errChan)
	go parseDataConfig(dataConfigData, dcfgChan, errChan)

	return waitForResults(cfgChan, dcfgChan, errChan)
}

func readFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("无法读取文件 %s: %w", filePath, err)
	}
	return data, nil
}

func parseConfig(data []byte, resultChan chan<- *Config, errChan chan<- error) {
	cfg := defaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		errChan <- fmt.Errorf("解析Config失败: %w", err)
		return
	}
	resultChan <- cfg
}

func parseDataConfig(data []byte, resultChan chan<- *DataConfig, errChan chan<- error) {
	var dcfg DataConfig
	if err := json.Unmarshal(data, &dcfg); err != nil {
		errChan <- fmt.Errorf("解析DataConfig失败: %w", err)
		return
	}
	if dcfg.Airports == nil {
		dcfg.Airports = make(map[string]string)
	}
	resultChan <- &dcfg
}

// defaultConfig 未在 json 中出现的字段保留这里的默认值
func defaultConfig() *Config {
	cfg := &Config{OutputDir: "data/processed", LogName: "lfotp.log", LogMaxSize: "10 * 1024 * 1024"}
	cfg.Data.LoadFactorDir = "data/raw/Load_Factor_Data"
	cfg.Data.LoadFactorPattern = "*_Segment.csv"
	cfg.Data.OTPDir = "data/raw/OTP_Data"
	cfg.Data.OTPPattern = "*.csv"
	cfg.Analysis.TopN = 5
	cfg.Analysis.RankingMetric = "passengers"
	cfg.Analysis.CorrelationMethod = "pearson"
	cfg.Webhook.Retries = 3
	return cfg
}

func waitForResults(
	cfgChan <-chan *Config,
	dcfgChan <-chan *DataConfig,
	errChan <-chan error,
) (*Config, *DataConfig, error) {
	var (
		cfg  *Config
		dcfg *DataConfig
		errs []error
	)

	for i := 0; i < 2; i++ {
		select {
		case c := <-cfgChan:
			cfg = c
		case d := <-dcfgChan:
			dcfg = d
		case err := <-errChan:
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return nil, nil, combineErrors(errs)
	}

	if cfg == nil || dcfg == nil {
		return nil, nil, fmt.Errorf("部分配置未加载成功")
	}

	return cfg, dcfg, nil
}

func combineErrors(errs []error) error {
	if len(errs) == 1 {
		return errs[0]
	}
	return fmt.Errorf("配置加载遇到多个错误: %w", errors.Join(errs...))
}

// LoadEnv 读取 .env 文件（不存在时忽略）并用环境变量覆盖敏感配置
func LoadEnv(cfg *Config, files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("读取 .env 失败: %w", err)
	}
	if v := os.Getenv(EnvEmailPassword); v != "" {
		cfg.Email.Password = v
	}
	if v := os.Getenv(EnvSMTPPassword); v != "" {
		cfg.SendEmail.Password = v
	}
	if v := os.Getenv(EnvWebhookURL); v != "" {
		cfg.Webhook.URL = v
	}
	if v := os.Getenv(EnvWebhookSecret); v != "" {
		cfg.Webhook.Secret = v
	}
	return nil
}

// AnalysisOptions 将配置转换为分析参数并校验
func (c *Config) AnalysisOptions(dc *DataConfig) (processor.Options, error) {
	opts := processor.DefaultOptions()
	opts.CarrierCode = strings.TrimSpace(c.Analysis.CarrierCode)
	if c.Analysis.TopN != 0 {
		opts.TopN = c.Analysis.TopN
	}

	var err error
	if c.Analysis.RankingMetric != "" {
		if opts.RankingMetric, err = processor.ParseRankingMetric(c.Analysis.RankingMetric); err != nil {
			return opts, err
		}
	}
	if c.Analysis.CorrelationMethod != "" {
		if opts.CorrelationMethod, err = processor.ParseMethod(c.Analysis.CorrelationMethod); err != nil {
			return opts, err
		}
	}
	if opts.DateRange, err = processor.NewMonthRange(c.Analysis.StartMonth, c.Analysis.EndMonth); err != nil {
		return opts, err
	}

	if dc != nil {
		if len(dc.LoadFactorBins) > 0 {
			opts.LoadFactorBins = append([]float64(nil), dc.LoadFactorBins...)
		}
		if opts.LoadFactorColumns, err = dc.loadFactorColumns(); err != nil {
			return opts, err
		}
		if opts.OTPColumns, err = dc.otpColumns(); err != nil {
			return opts, err
		}
	}
	return opts, opts.Validate()
}

func (dc *DataConfig) loadFactorColumns() (processor.LoadFactorColumns, error) {
	cols := processor.DefaultLoadFactorColumns()
	fields := map[string]*string{
		"carrier":              &cols.Carrier,
		"origin":               &cols.Origin,
		"dest":                 &cols.Dest,
		"year":                 &cols.Year,
		"month":                &cols.Month,
		"departures_scheduled": &cols.DeparturesScheduled,
		"departures_performed": &cols.DeparturesPerformed,
		"seats":                &cols.Seats,
		"passengers":           &cols.Passengers,
	}
	return cols, applyColumns("load_factor_columns", dc.LoadFactorColumns, fields)
}

func (dc *DataConfig) otpColumns() (processor.OTPColumns, error) {
	cols := processor.DefaultOTPColumns()
	fields := map[string]*string{
		"carrier":             &cols.Carrier,
		"origin":              &cols.Origin,
		"dest":                &cols.Dest,
		"year":                &cols.Year,
		"month":               &cols.Month,
		"dep_del15":           &cols.DepDel15,
		"arr_del15":           &cols.ArrDel15,
		"cancelled":           &cols.Cancelled,
		"diverted":            &cols.Diverted,
		"carrier_delay":       &cols.CarrierDelay,
		"weather_delay":       &cols.WeatherDelay,
		"nas_delay":           &cols.NASDelay,
		"security_delay":      &cols.SecurityDelay,
		"late_aircraft_delay": &cols.LateAircraftDelay,
	}
	return cols, applyColumns("otp_columns", dc.OTPColumns, fields)
}

func applyColumns(section string, overrides map[string]string, fields map[string]*string) error {
	mu.RLock()
	defer mu.RUnlock()
	for key, col := range overrides {
		dst, ok := fields[strings.ToLower(key)]
		if !ok {
			return fmt.Errorf("%s: 未知字段 %q", section, key)
		}
		if col != "" {
			*dst = col
		}
	}
	return nil
}

// Duration 是time.Duration的自定义包装类型
// 用于支持JSON序列化和反序列化
type Duration time.Duration

// UnmarshalJSON 实现json.Unmarshaler接口
// 用于从JSON字符串解析Duration
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalJSON 实现json.Marshaler接口
// 用于将Duration序列化为JSON字符串
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// GetAirport 机场代码对应的名称，未配置时返回代码本身
func (dc *DataConfig) GetAirport(code string) string {
	mu.RLock()
	defer mu.RUnlock()
	if name, ok := dc.Airports[code]; ok {
		return name
	}
	return code
}

func (dc *DataConfig) SetAirport(code, name string) {
	mu.Lock()
	defer mu.Unlock()
	dc.Airports[code] = name
}

// RouteName 将 "DEN-LAS" 展开为 "Denver - Las Vegas"
func (dc *DataConfig) RouteName(route string) string {
	parts := strings.Split(route, "-")
	for i, p := range parts {
		parts[i] = dc.GetAirport(p)
	}
	return strings.Join(parts, " - ")
}
