package util

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

const (
	NotifyRedis   = "redis"
	NotifyWebhook = "webhook"
)

const (
	MimeJSON = "application/json"
)
