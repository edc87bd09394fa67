package service

import (
	"errors"
	"regexp"
	"testing"

	"github.com/yeisme/streamweave/pkg/configs"
	"github.com/yeisme/streamweave/pkg/internal/model"
)

func TestMintARKFormat(t *testing.T) {
	s := NewIdentifierService(&configs.HarvestConfig{
		ARKNaan:     "99999",
		ARKShoulder: "fk4",
		IDScheme:    model.SchemeARK,
	})

	// 16 字节 uuid 的 base32 无填充编码恰好 26 个字符
	re := regexp.MustCompile(`^ark:/99999/fk4[a-z2-7]{26}$`)

	pid, scheme, err := s.Mint()
	if err != nil {
		t.Fatal(err)
	}

	if scheme != model.SchemeARK {
		t.Fatalf("scheme = %s", scheme)
	}

	if !re.MatchString(pid) {
		t.Fatalf("pid = %q does not match ARK format", pid)
	}
}

func TestMintARKOverrides(t *testing.T) {
	s := NewIdentifierService(&configs.HarvestConfig{ARKNaan: "99999", ARKShoulder: "fk4"})

	pid := s.MintARK("12345", "x9")
	if !regexp.MustCompile(`^ark:/12345/x9`).MatchString(pid) {
		t.Fatalf("pid = %q, overrides not applied", pid)
	}
}

func TestMintUniqueness(t *testing.T) {
	s := NewIdentifierService(&configs.HarvestConfig{
		ARKNaan: "99999", ARKShoulder: "fk4", IDScheme: model.SchemeARK,
	})

	seen := make(map[string]struct{}, 10000)

	for range 10000 {
		pid, _, err := s.Mint()
		if err != nil {
			t.Fatal(err)
		}

		if _, dup := seen[pid]; dup {
			t.Fatalf("duplicate identifier %q", pid)
		}

		seen[pid] = struct{}{}
	}
}

func TestUnimplementedSchemesFailLoudly(t *testing.T) {
	for _, scheme := range []string{model.SchemeDOI, model.SchemeHandle} {
		s := NewIdentifierService(&configs.HarvestConfig{IDScheme: scheme})

		if _, _, err := s.Mint(); !errors.Is(err, ErrSchemeNotImplemented) {
			t.Fatalf("scheme %s: err = %v, want ErrSchemeNotImplemented", scheme, err)
		}
	}

	s := NewIdentifierService(&configs.HarvestConfig{IDScheme: "urn"})
	if err := s.Validate(); !errors.Is(err, ErrUnknownScheme) {
		t.Fatalf("unknown scheme: err = %v, want ErrUnknownScheme", err)
	}
}
