package service

import (
	"crypto/rand"
	"strings"

	"github.com/google/uuid"
)

// 去掉 0/O/1/I 等易混淆字符，32 个字符使每个随机字节取低 5 位即可均匀分布
const certificateAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

const certificateNumberGroup = 5

// IdentifierGenerator 生成证书编号和验证码，冲突由签发流程负责重试
type IdentifierGenerator interface {
	CertificateNumber() (string, error)
	VerificationCode() string
}

type randomIdentifiers struct{}

// CertificateNumber 形如 7KQ2M-XH9PD，便于人工核对和电话口述
func (randomIdentifiers) CertificateNumber() (string, error) {
	buf := make([]byte, certificateNumberGroup*2)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	var sb strings.Builder
	for i, b := range buf {
		if i == certificateNumberGroup {
			sb.WriteByte('-')
		}
		sb.WriteByte(certificateAlphabet[int(b)&31])
	}
	return sb.String(), nil
}

// VerificationCode 32 位十六进制的不透明验证码（UUIDv4 去掉连字符）
func (randomIdentifiers) VerificationCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func NewRandomIdentifiers() IdentifierGenerator {
	return randomIdentifiers{}
}
