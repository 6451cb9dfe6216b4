package service

import (
	"bytes"
	"context"
	"courtcert_backend/internal/config"
	"courtcert_backend/internal/util"
	"courtcert_backend/pkg/logger"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// ObjectStore 证书渲染数据的导出目标，外部 PDF 渲染服务从这里读取
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// URL 返回限时下载地址；返回空串表示不对外提供链接
	URL(ctx context.Context, key string, ttl time.Duration) (string, error)
	// Delete 对象不存在时不报错
	Delete(ctx context.Context, key string) error
}

// LocalStore 写本地目录，只供同机的渲染服务读取，不挂载任何公开路由；
// 学员通过鉴权后的下载接口拿到证书数据
type LocalStore struct {
	Root string
}

func (s *LocalStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	dst := filepath.Join(s.Root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	// 先写临时文件再改名，渲染服务不会读到半个文件
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, dst)
}

// URL 本地目录无法签发限时链接，因此不返回地址
func (s *LocalStore) URL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "", nil
}

func (s *LocalStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(filepath.Join(s.Root, filepath.FromSlash(key)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// MinioStore MinIO / S3 兼容存储
type MinioStore struct {
	Bucket string
	Client *minio.Client
}

func NewMinioStore(cfg *config.StorageConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, err
	}
	return &MinioStore{Bucket: cfg.MinioBucket, Client: client}, nil
}

func (s *MinioStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.Client.PutObject(ctx, s.Bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (s *MinioStore) URL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := s.Client.PresignedGetObject(ctx, s.Bucket, key, ttl, nil)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (s *MinioStore) Delete(ctx context.Context, key string) error {
	return s.Client.RemoveObject(ctx, s.Bucket, key, minio.RemoveObjectOptions{})
}

// OSSStore 阿里云 OSS
type OSSStore struct {
	Bucket *oss.Bucket
}

func NewOSSStore(cfg *config.StorageConfig) (*OSSStore, error) {
	client, err := oss.New(cfg.OSSEndpoint, cfg.OSSAccessKey, cfg.OSSSecretKey)
	if err != nil {
		return nil, err
	}
	bucket, err := client.Bucket(cfg.OSSBucket)
	if err != nil {
		return nil, fmt.Errorf("oss bucket %s: %w", cfg.OSSBucket, err)
	}
	return &OSSStore{Bucket: bucket}, nil
}

func (s *OSSStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	return s.Bucket.PutObject(key, bytes.NewReader(data), oss.ContentType(contentType), oss.WithContext(ctx))
}

func (s *OSSStore) URL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return s.Bucket.SignURL(key, oss.HTTPGet, int64(ttl.Seconds()))
}

func (s *OSSStore) Delete(ctx context.Context, key string) error {
	return s.Bucket.DeleteObject(key, oss.WithContext(ctx))
}

// StorageService 按配置选择存储后端，远端不可用时退回本地目录
type StorageService struct {
	Store ObjectStore
}

func NewStorageService(cfg *config.StorageConfig) *StorageService {
	var store ObjectStore
	switch cfg.Type {
	case util.StorageMinio:
		s, err := NewMinioStore(cfg)
		if err != nil {
			logger.Log.Error("minio storage unavailable, falling back to local", zap.Error(err))
			break
		}
		store = s
	case util.StorageOSS:
		s, err := NewOSSStore(cfg)
		if err != nil {
			logger.Log.Error("oss storage unavailable, falling back to local", zap.Error(err))
			break
		}
		store = s
	}

	if store == nil {
		store = &LocalStore{Root: cfg.LocalPath}
	}
	return &StorageService{Store: store}
}

// Export 写入对象并返回限时下载地址
func (s *StorageService) Export(ctx context.Context, key string, data []byte, contentType string, ttl time.Duration) (string, error) {
	if err := s.Store.Put(ctx, key, data, contentType); err != nil {
		return "", fmt.Errorf("export %s: %w", key, err)
	}
	return s.Store.URL(ctx, key, ttl)
}

// Remove 删除已导出的对象，撤销或过期后调用
func (s *StorageService) Remove(ctx context.Context, key string) error {
	if err := s.Store.Delete(ctx, key); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}
