package config

import (
    "log"
    "os"

    "gopkg.in/yaml.v2"
)

type Config struct {
    Server struct {
        Port string `yaml:"port"`
    } `yaml:"server"`
    MySQL struct {
        DSN string `yaml:"dsn"`
    } `yaml:"mysql"`
    Redis struct {
        Addr     string `yaml:"addr"`
        Password string `yaml:"password"`
    } `yaml:"redis"`
    MinIO struct {
        Endpoint  string `yaml:"endpoint"`
        AccessKey string `yaml:"access_key"`
        SecretKey string `yaml:"secret_key"`
        Bucket    string `yaml:"bucket"`
        UseSSL    bool   `yaml:"use_ssl"`
        Domain    string `yaml:"domain"`
    } `yaml:"minio"`
    Workflow struct {
        DefaultSteps       []string `yaml:"default_steps"`
        OverdueScanMinutes int      `yaml:"overdue_scan_minutes"`
    } `yaml:"workflow"`
}

var AppConfig *Config

func InitConfig() {
    f, err := os.Open("config/config.yaml")
    if err != nil {
        log.Fatalf("設定ファイルの読み込みに失敗: %v", err)
    }
    defer f.Close()
    decoder := yaml.NewDecoder(f)
    AppConfig = &Config{}
    if err := decoder.Decode(AppConfig); err != nil {
        log.Fatalf("設定ファイルの解析に失敗: %v", err)
    }
}

// DefaultStepTypes 新規動画のフォールバック工程列。設定が無ければ組み込みの既定列を返す
func DefaultStepTypes() []string {
    if AppConfig != nil && len(AppConfig.Workflow.DefaultSteps) > 0 {
        return AppConfig.Workflow.DefaultSteps
    }
    return []string{"構成", "撮影", "編集", "レビュー", "公開"}
}
