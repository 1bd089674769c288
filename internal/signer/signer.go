package signer

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	// ErrKeyFormat 表示私钥内容无法解析为合法的 Ed25519 私钥。
	ErrKeyFormat = errors.New("signer: invalid key format")
	// ErrKeyUnavailable 表示私钥材料缺失。
	ErrKeyUnavailable = errors.New("signer: key unavailable")
)

// IdentitySize 为账户标识的固定字节长度。
const IdentitySize = 32

// Signer 持有 Ed25519 私钥并负责派生账户标识与请求签名。
// 同一把私钥永远派生出同一个标识；并发调用 Sign 是安全的，
// 但密钥替换不允许与进行中的签名并发。
type Signer struct {
	key      ed25519.PrivateKey
	identity [IdentitySize]byte
}

// Load 从十六进制字符串解析私钥。接受 32 字节种子或 64 字节完整私钥，
// 允许 0x 前缀。错误信息永远不包含密钥内容。
func Load(hexKey string) (*Signer, error) {
	trimmed := strings.TrimSpace(hexKey)
	trimmed = strings.TrimPrefix(trimmed, "0x")
	if trimmed == "" {
		return nil, fmt.Errorf("私钥为空: %w", ErrKeyUnavailable)
	}

	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("私钥不是合法的十六进制: %w", ErrKeyFormat)
	}

	var key ed25519.PrivateKey
	switch len(raw) {
	case ed25519.SeedSize:
		key = ed25519.NewKeyFromSeed(raw)
	case ed25519.PrivateKeySize:
		key = ed25519.PrivateKey(raw)
	default:
		return nil, fmt.Errorf("私钥长度非法 (%d 字节): %w", len(raw), ErrKeyFormat)
	}

	return newSigner(key)
}

// LoadFile 从文件读取十六进制私钥。文件不存在视为密钥缺失。
func LoadFile(path string) (*Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("私钥文件 %q 不存在: %w", path, ErrKeyUnavailable)
		}
		return nil, fmt.Errorf("读取私钥文件失败: %w", err)
	}
	return Load(string(data))
}

func newSigner(key ed25519.PrivateKey) (*Signer, error) {
	pub, ok := key.Public().(ed25519.PublicKey)
	if !ok || len(pub) < IdentitySize {
		return nil, fmt.Errorf("无法派生公钥: %w", ErrKeyFormat)
	}

	s := &Signer{key: key}
	// 账户标识取公钥编码的末 32 字节。
	copy(s.identity[:], pub[len(pub)-IdentitySize:])
	return s, nil
}

// Identity 返回由公钥确定性派生的账户标识。
func (s *Signer) Identity() [IdentitySize]byte {
	return s.identity
}

// IdentityHex 返回账户标识的十六进制形式，用作请求头取值。
func (s *Signer) IdentityHex() string {
	return hex.EncodeToString(s.identity[:])
}

// Sign 对规范化消息 "{METHOD} {URL}\n{BODY}" 的 SHA-256 摘要直接签名，
// 返回十六进制签名。BODY 必须与实际发送的请求体逐字节一致，
// 调用方不得在签名后重新序列化。
func (s *Signer) Sign(method, url string, body []byte) (string, error) {
	if s == nil || s.key == nil {
		return "", fmt.Errorf("签名私钥未加载: %w", ErrKeyUnavailable)
	}

	digest := sha256.Sum256(CanonicalMessage(method, url, body))
	// ed25519.Sign 为 PureEdDSA，不会对输入再做一次哈希，
	// 因此这里传入摘要即可与场所侧验签保持一致。
	sig := ed25519.Sign(s.key, digest[:])
	return hex.EncodeToString(sig), nil
}

// Public 返回公钥副本，供验签测试使用。
func (s *Signer) Public() ed25519.PublicKey {
	pub := s.key.Public().(ed25519.PublicKey)
	out := make(ed25519.PublicKey, len(pub))
	copy(out, pub)
	return out
}

// CanonicalMessage 构造签名输入的规范字节序列。
func CanonicalMessage(method, url string, body []byte) []byte {
	msg := make([]byte, 0, len(method)+1+len(url)+1+len(body))
	msg = append(msg, method...)
	msg = append(msg, ' ')
	msg = append(msg, url...)
	msg = append(msg, '\n')
	msg = append(msg, body...)
	return msg
}
