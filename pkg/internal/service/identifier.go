package service

import (
	"encoding/base32"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yeisme/streamweave/pkg/configs"
	"github.com/yeisme/streamweave/pkg/internal/model"
)

// ErrSchemeNotImplemented DOI 与 Handle 方案需要外部注册机构凭据，显式拒绝，
// 不会静默回落到 ARK.
var ErrSchemeNotImplemented = errors.New("identifier scheme not implemented")

// ErrUnknownScheme 配置了不认识的标识符方案.
var ErrUnknownScheme = errors.New("unknown identifier scheme")

// IdentifierService 铸造持久标识符.
type IdentifierService struct {
	naan     string
	shoulder string
	scheme   string
}

// NewIdentifierService 从采集配置创建标识符服务.
func NewIdentifierService(cfg *configs.HarvestConfig) *IdentifierService {
	return &IdentifierService{
		naan:     cfg.ARKNaan,
		shoulder: cfg.ARKShoulder,
		scheme:   cfg.IDScheme,
	}
}

var b32NoPad = base32.StdEncoding.WithPadding(base32.NoPadding)

// MintARK 铸造 ark:/<naan>/<shoulder><base32(uuid)> 形式的标识符，
// naan 与 shoulder 为空时使用配置值.
func (s *IdentifierService) MintARK(naan, shoulder string) string {
	if naan == "" {
		naan = s.naan
	}

	if shoulder == "" {
		shoulder = s.shoulder
	}

	u := uuid.New()
	qualifier := strings.ToLower(b32NoPad.EncodeToString(u[:]))

	return fmt.Sprintf("ark:/%s/%s%s", naan, shoulder, qualifier)
}

// Validate 检查配置的方案能否铸造，采集运行开始前调用以便尽早失败.
func (s *IdentifierService) Validate() error {
	switch s.scheme {
	case model.SchemeARK:
		return nil
	case model.SchemeDOI, model.SchemeHandle:
		return fmt.Errorf("%w: %s", ErrSchemeNotImplemented, s.scheme)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownScheme, s.scheme)
	}
}

// Mint 按配置的方案铸造标识符，返回标识符与实际使用的方案.
func (s *IdentifierService) Mint() (string, string, error) {
	if err := s.Validate(); err != nil {
		return "", "", err
	}

	return s.MintARK("", ""), model.SchemeARK, nil
}
