package service

import (
	"context"
	"courtcert_backend/internal/config"
	"courtcert_backend/internal/model"
	"courtcert_backend/internal/util"
	"courtcert_backend/pkg/logger"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const EventCertificateIssued = "certificate.issued"

// CertificateIssuedEvent 证书签发事件，由外部通知服务消费（邮件、律师副本等）
type CertificateIssuedEvent struct {
	Type              string    `json:"type"`
	CertificateID     uint      `json:"certificateId"`
	CertificateNumber string    `json:"certificateNumber"`
	VerificationCode  string    `json:"verificationCode"`
	UserID            uint      `json:"userId"`
	CourseID          uint      `json:"courseId"`
	IssuedAt          time.Time `json:"issuedAt"`
}

func NewCertificateIssuedEvent(c *model.Certificate) CertificateIssuedEvent {
	return CertificateIssuedEvent{
		Type:              EventCertificateIssued,
		CertificateID:     c.ID,
		CertificateNumber: c.CertificateNumber,
		VerificationCode:  c.VerificationCode,
		UserID:            c.UserID,
		CourseID:          c.CourseID,
		IssuedAt:          c.IssuedAt,
	}
}

// EventPublisher 只负责把事件交给外部通知服务，不关心具体发送
type EventPublisher interface {
	PublishCertificateIssued(ctx context.Context, event CertificateIssuedEvent) error
}

// RedisStreamPublisher 写入 Redis Stream，由通知服务的消费组读取
type RedisStreamPublisher struct {
	Redis  *redis.Client
	Stream string
}

func (p *RedisStreamPublisher) PublishCertificateIssued(ctx context.Context, event CertificateIssuedEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.Redis.XAdd(ctx, &redis.XAddArgs{
		Stream: p.Stream,
		Values: map[string]interface{}{
			"type":    event.Type,
			"payload": string(data),
		},
	}).Err()
}

// WebhookPublisher 以 JSON POST 推送给通知服务
type WebhookPublisher struct {
	Client *resty.Client
	URL    string
}

func NewWebhookPublisher(url string, timeout time.Duration) *WebhookPublisher {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", util.MimeJSON)
	return &WebhookPublisher{Client: client, URL: url}
}

func (p *WebhookPublisher) PublishCertificateIssued(ctx context.Context, event CertificateIssuedEvent) error {
	resp, err := p.Client.R().
		SetContext(ctx).
		SetBody(event).
		Post(p.URL)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("webhook %s responded %d", p.URL, resp.StatusCode())
	}
	return nil
}

// LogPublisher 未配置通知服务时只记录日志
type LogPublisher struct{}

func (LogPublisher) PublishCertificateIssued(ctx context.Context, event CertificateIssuedEvent) error {
	logger.Log.Info("certificate issued event",
		zap.Uint("certificateId", event.CertificateID),
		zap.String("certificateNumber", event.CertificateNumber),
		zap.Uint("userId", event.UserID),
		zap.Uint("courseId", event.CourseID))
	return nil
}

func NewEventPublisher(cfg *config.NotificationConfig, rdb *redis.Client) EventPublisher {
	switch cfg.Type {
	case util.NotifyRedis:
		if rdb != nil {
			return &RedisStreamPublisher{Redis: rdb, Stream: cfg.Stream}
		}
		logger.Log.Warn("redis notification requested but redis is disabled, using log publisher")
	case util.NotifyWebhook:
		if cfg.WebhookURL != "" {
			return NewWebhookPublisher(cfg.WebhookURL, cfg.Timeout)
		}
		logger.Log.Warn("webhook notification requested without webhook_url, using log publisher")
	}
	return LogPublisher{}
}
