package main

import (
	"fmt"
	"time"

	"VideoTracker-server/config"
	"VideoTracker-server/models"
	"VideoTracker-server/routers"
	"VideoTracker-server/service"
)

func main() {
	config.InitConfig()
	fmt.Println("Server starting on port", config.AppConfig.Server.Port)
	models.InitDB()
	fmt.Println("Database initialized")

	service.InitQueue()
	fmt.Println("Queue initialized")

	service.InitMinIO()
	fmt.Println("MinIO initialized")

	consumer := &service.NotificationConsumer{DB: models.GormDB}
	consumer.StartConsumer(5)

	engine := service.NewWorkflowEngine(models.GormDB, service.QueueNotifier{})

	if mins := config.AppConfig.Workflow.OverdueScanMinutes; mins > 0 {
		scanner := service.NewOverdueScanner(models.GormDB, service.QueueNotifier{})
		scanner.Start(time.Duration(mins) * time.Minute)
	}

	r := routers.InitRouter(engine)
	r.Run(config.AppConfig.Server.Port)
}
