package main

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Muzammil2410/E-commerce-store-sub002/internal/config"
	"github.com/Muzammil2410/E-commerce-store-sub002/internal/datamodels/order"
	"github.com/Muzammil2410/E-commerce-store-sub002/internal/infra/mq"
	"github.com/Muzammil2410/E-commerce-store-sub002/internal/repository/mysql"
	"github.com/Muzammil2410/E-commerce-store-sub002/internal/service"
)

// 默认承诺 7 天内送达
const deliveryWindow = 7 * 24 * time.Hour

func main() {
	cfg := config.Load("./config")

	db := mysql.Init(&cfg.MySQL)
	mqConn := mq.Init(&cfg.RabbitMQ)

	orderRepo := mysql.NewOrderRepository(db)

	ch, err := mqConn.Channel()
	if err != nil {
		log.Fatalf("failed to open channel: %v", err)
	}
	defer ch.Close()

	if _, err = ch.QueueDeclare(service.OrderCreatedQueue, true, false, false, false, nil); err != nil {
		log.Fatalf("failed to declare queue: %v", err)
	}

	// 手动确认模式（auto-ack=false），处理失败的消息重新入队
	msgs, err := ch.Consume(service.OrderCreatedQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("failed to consume: %v", err)
	}

	log.Println("delivery worker started, waiting for messages...")

	for d := range msgs {
		var m service.OrderCreatedMessage
		if err := json.Unmarshal(d.Body, &m); err != nil {
			log.Printf("invalid message: %v", err)
			// 消息格式错误，拒绝并丢弃
			_ = d.Nack(false, false)
			continue
		}
		handleMessage(context.Background(), orderRepo, &m, d)
	}
}

func handleMessage(ctx context.Context, orderRepo order.Repository, m *service.OrderCreatedMessage, d amqp.Delivery) {
	o, err := orderRepo.GetByID(ctx, m.OrderID)
	if err != nil {
		log.Printf("get order %d failed (event %s): %v", m.OrderID, m.EventID, err)
		service.GetMonitor().RecordDBError()
		service.GetMonitor().RecordWorkerFailed()
		_ = d.Nack(false, true)
		return
	}

	// 重复投递的事件直接确认，保持幂等
	if o.ExpectedDeliveryDate != nil {
		_ = d.Ack(false)
		return
	}

	expected := o.CreatedAt.Add(deliveryWindow)
	if err := orderRepo.UpdateExpectedDelivery(ctx, o.ID, expected); err != nil {
		log.Printf("update order %d delivery date failed: %v", o.ID, err)
		service.GetMonitor().RecordDBError()
		service.GetMonitor().RecordWorkerFailed()
		_ = d.Nack(false, true)
		return
	}

	service.GetMonitor().RecordWorkerHandled()
	log.Printf("order %d expected delivery set to %s", o.ID, expected.Format("2006-01-02"))
	_ = d.Ack(false)
}
