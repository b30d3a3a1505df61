package models

import (
	"database/sql"
	"log"
	"time"

	"VideoTracker-server/config"

	_ "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var DB *sql.DB
var GormDB *gorm.DB

func InitDB() {
	if config.AppConfig == nil {
		log.Fatal("config.AppConfig is nil, call config.InitConfig first")
	}
	dsn := config.AppConfig.MySQL.DSN
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Fatalf("データベースを開けません: %v", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		log.Fatalf("データベースに接続できません: %v", err)
	}

	DB = db
	GormDB, err = gorm.Open(mysql.New(mysql.Config{
		Conn: DB,
	}), &gorm.Config{})
	if err != nil {
		log.Fatalf("GORM 初期化失敗: %v", err)
	}

	if err := Migrate(GormDB); err != nil {
		log.Fatalf("スキーママイグレーション失敗: %v", err)
	}

	log.Println("データベース接続成功")
}

// Migrate テーブルを作成・更新する。テストでは sqlite の *gorm.DB を渡す
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Project{},
		&ScheduleTemplate{},
		&Video{},
		&ProductionStep{},
		&FeedbackItem{},
		&Comment{},
		&Notification{},
	)
}
